package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/kpi-tracker/csvcodec"
	"github.com/warp/kpi-tracker/model"
)

func newCSVCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Check and normalise CSV files offline",
	}

	cmd.AddCommand(
		newCSVCheckCmd(app),
		newCSVConvertCmd(app),
	)

	return cmd
}

// csvRefs are the reference files needed to resolve codes and KPI columns.
type csvRefs struct {
	employeesPath, kpisPath string
	lenient                 bool
}

func (r *csvRefs) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.employeesPath, "employees", "", "Employees CSV used to resolve employee codes")
	cmd.Flags().StringVar(&r.kpisPath, "kpis", "", "KPIs CSV used to resolve KPI columns")
	cmd.Flags().BoolVar(&r.lenient, "lenient", false, "Accept malformed numbers instead of failing")
}

func (r *csvRefs) options() []csvcodec.Option {
	if r.lenient {
		return nil
	}
	return []csvcodec.Option{csvcodec.Strict()}
}

func newCSVCheckCmd(app *App) *cobra.Command {
	var refs csvRefs

	cmd := &cobra.Command{
		Use:   "check <kind> <file>",
		Short: "Parse a CSV file and report problems",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := csvcodec.ParseKind(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			parsed, err := refs.parse(kind, data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s rows OK\n", args[1], parsed.count(kind), kind.Canonical())
			for _, w := range parsed.warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			return nil
		},
	}
	refs.register(cmd)

	return cmd
}

func newCSVConvertCmd(app *App) *cobra.Command {
	var refs csvRefs
	var output string

	cmd := &cobra.Command{
		Use:   "convert <kind> <file>",
		Short: "Rewrite a CSV file in the export layout",
		Long: "Reads a CSV file and writes it back in the layout the API exports:\n" +
			"canonical column order, quoting and number formatting. KPI and weekly\n" +
			"entry files need --employees (and --kpis for weekly entries) so codes\n" +
			"and KPI columns survive the round trip.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := csvcodec.ParseKind(args[0])
			if err != nil {
				return err
			}
			if err := refs.require(kind); err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			parsed, err := refs.parse(kind, data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return parsed.write(kind, out)
		},
	}
	refs.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

// require checks that the reference files a lossless conversion needs
// were given.
func (r *csvRefs) require(kind csvcodec.Kind) error {
	switch kind.Canonical() {
	case csvcodec.KindKPIs:
		if r.employeesPath == "" {
			return errors.New("converting kpis needs --employees")
		}
	case csvcodec.KindWeeklyEntries:
		if r.employeesPath == "" || r.kpisPath == "" {
			return errors.New("converting weekly entries needs --employees and --kpis")
		}
	}
	return nil
}

// parsedCSV holds one parsed file plus the references it was parsed with.
type parsedCSV struct {
	employees []model.Employee
	kpis      []model.KPI
	weekly    []model.WeeklyEntry
	warnings  []string
}

func (p parsedCSV) count(kind csvcodec.Kind) int {
	switch kind.Canonical() {
	case csvcodec.KindKPIs:
		return len(p.kpis)
	case csvcodec.KindWeeklyEntries:
		return len(p.weekly)
	}
	return len(p.employees)
}

func (p parsedCSV) write(kind csvcodec.Kind, w io.Writer) error {
	switch kind.Canonical() {
	case csvcodec.KindKPIs:
		return csvcodec.ExportKPIs(w, p.kpis, p.employees)
	case csvcodec.KindWeeklyEntries:
		return csvcodec.ExportWeeklyEntries(w, p.weekly, p.kpis, p.employees)
	}
	return csvcodec.ExportEmployees(w, p.employees)
}

func (r *csvRefs) parse(kind csvcodec.Kind, data []byte) (parsedCSV, error) {
	var p parsedCSV
	opts := r.options()

	if kind.Canonical() == csvcodec.KindEmployees {
		employees, err := parseEmployeeFile(data, opts)
		p.employees = employees
		return p, err
	}

	if r.employeesPath != "" {
		ref, err := os.ReadFile(r.employeesPath)
		if err != nil {
			return p, err
		}
		if p.employees, err = parseEmployeeFile(ref, opts); err != nil {
			return p, fmt.Errorf("%s: %w", r.employeesPath, err)
		}
	} else {
		p.warnings = append(p.warnings, "no --employees file, employee codes were not resolved")
	}

	if kind.Canonical() == csvcodec.KindKPIs {
		kpis, err := csvcodec.ImportKPIs(bytes.NewReader(data), p.employees, opts...)
		p.kpis = kpis
		return p, err
	}

	if r.kpisPath != "" {
		ref, err := os.ReadFile(r.kpisPath)
		if err != nil {
			return p, err
		}
		if p.kpis, err = csvcodec.ImportKPIs(bytes.NewReader(ref), p.employees, opts...); err != nil {
			return p, fmt.Errorf("%s: %w", r.kpisPath, err)
		}
	} else {
		p.warnings = append(p.warnings, "no --kpis file, KPI columns were ignored")
	}

	weekly, err := csvcodec.ImportWeeklyEntries(bytes.NewReader(data), p.kpis, p.employees, opts...)
	p.weekly = weekly
	return p, err
}

// parseEmployeeFile parses an employees file so that manager codes
// resolve against the file itself. Import only resolves managers among
// employees that already exist, so the file is read twice: the first
// pass supplies the existing set, and the manager ids are then moved
// over to the second pass's records. Both passes see the same rows in
// the same order.
func parseEmployeeFile(data []byte, opts []csvcodec.Option) ([]model.Employee, error) {
	first, err := csvcodec.ImportEmployees(bytes.NewReader(data), nil, opts...)
	if err != nil {
		return nil, err
	}
	second, err := csvcodec.ImportEmployees(bytes.NewReader(data), first, opts...)
	if err != nil {
		return nil, err
	}
	remap := make(map[string]string, len(first))
	for i := range first {
		remap[first[i].ID] = second[i].ID
	}
	for i := range second {
		if m := second[i].ManagerID; m != "" {
			second[i].ManagerID = remap[m]
		}
	}
	return second, nil
}
