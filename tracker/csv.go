package tracker

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/csvcodec"
	"github.com/warp/kpi-tracker/model"
)

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the collection named by kind as CSV.
func (t *Tracker) Export(ctx context.Context, kind csvcodec.Kind, w io.Writer) error {
	switch kind.Canonical() {
	case csvcodec.KindEmployees:
		return t.ExportEmployees(ctx, w)
	case csvcodec.KindKPIs:
		return t.ExportKPIs(ctx, w)
	case csvcodec.KindWeeklyEntries:
		return t.ExportWeeklyEntries(ctx, w)
	}
	return fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
}

func (t *Tracker) ExportEmployees(ctx context.Context, w io.Writer) error {
	employees, err := t.employees.List(ctx)
	if err != nil {
		return err
	}
	return csvcodec.ExportEmployees(w, employees)
}

func (t *Tracker) ExportKPIs(ctx context.Context, w io.Writer) error {
	kpis, err := t.kpis.List(ctx)
	if err != nil {
		return err
	}
	employees, err := t.employees.List(ctx)
	if err != nil {
		return err
	}
	return csvcodec.ExportKPIs(w, kpis, employees)
}

func (t *Tracker) ExportWeeklyEntries(ctx context.Context, w io.Writer) error {
	entries, err := t.weekly.List(ctx)
	if err != nil {
		return err
	}
	kpis, err := t.kpis.List(ctx)
	if err != nil {
		return err
	}
	employees, err := t.employees.List(ctx)
	if err != nil {
		return err
	}
	return csvcodec.ExportWeeklyEntries(w, entries, kpis, employees)
}

// =============================================================================
// IMPORT
// =============================================================================

// Import parses r as the collection named by kind and adds every row to the
// matching store. It returns the number of records added. The whole file is
// parsed before anything is stored, so a parse error adds nothing.
func (t *Tracker) Import(ctx context.Context, kind csvcodec.Kind, r io.Reader, opts ...csvcodec.Option) (int, error) {
	switch kind.Canonical() {
	case csvcodec.KindEmployees:
		added, err := t.ImportEmployees(ctx, r, opts...)
		return len(added), err
	case csvcodec.KindKPIs:
		added, err := t.ImportKPIs(ctx, r, opts...)
		return len(added), err
	case csvcodec.KindWeeklyEntries:
		added, err := t.ImportWeeklyEntries(ctx, r, opts...)
		return len(added), err
	}
	return 0, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
}

// ImportEmployees resolves manager codes against the employees already
// stored, not against other rows of the same file.
func (t *Tracker) ImportEmployees(ctx context.Context, r io.Reader, opts ...csvcodec.Option) ([]model.Employee, error) {
	existing, err := t.employees.List(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := csvcodec.ImportEmployees(r, existing, t.codecOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("import employees: %w", err)
	}
	for _, e := range parsed {
		if err := t.employees.Add(ctx, e); err != nil {
			return nil, fmt.Errorf("import employees: %w", err)
		}
	}
	t.logger.Info("employees imported", zap.Int("count", len(parsed)))
	return parsed, nil
}

func (t *Tracker) ImportKPIs(ctx context.Context, r io.Reader, opts ...csvcodec.Option) ([]model.KPI, error) {
	employees, err := t.employees.List(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := csvcodec.ImportKPIs(r, employees, t.codecOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("import kpis: %w", err)
	}
	for _, k := range parsed {
		if err := t.kpis.Add(ctx, k); err != nil {
			return nil, fmt.Errorf("import kpis: %w", err)
		}
	}
	t.logger.Info("kpis imported", zap.Int("count", len(parsed)))
	return parsed, nil
}

func (t *Tracker) ImportWeeklyEntries(ctx context.Context, r io.Reader, opts ...csvcodec.Option) ([]model.WeeklyEntry, error) {
	kpis, err := t.kpis.List(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := t.employees.List(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := csvcodec.ImportWeeklyEntries(r, kpis, employees, t.codecOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("import weekly entries: %w", err)
	}
	for _, w := range parsed {
		if err := t.weekly.Add(ctx, w); err != nil {
			return nil, fmt.Errorf("import weekly entries: %w", err)
		}
	}
	t.logger.Info("weekly entries imported", zap.Int("count", len(parsed)))
	return parsed, nil
}

// codecOptions puts the tracker's clock and id generator first so callers
// can still override them.
func (t *Tracker) codecOptions(opts []csvcodec.Option) []csvcodec.Option {
	return append([]csvcodec.Option{
		csvcodec.WithClock(t.now),
		csvcodec.WithIDGenerator(t.newID),
	}, opts...)
}
