package csvcodec

import (
	"io"
	"strings"

	"github.com/warp/kpi-tracker/model"
)

// KPI columns not shared with employees.
const (
	ColDescription       = "Description"
	ColTargetValue       = "Target Value"
	ColUnit              = "Unit"
	ColPreferredTrend    = "Preferred Trend"
	ColTimePeriod        = "Time Period"
	ColAssignedEmployees = "Assigned Employee IDs"
)

// ListSeparator joins multi-valued references inside one cell.
const ListSeparator = ";"

var kpiHeader = []string{
	ColName, ColDescription, ColTargetValue, ColUnit, ColPreferredTrend,
	ColTimePeriod, ColStatus, ColStartDate, ColEndDate, ColAssignedEmployees,
}

// ExportKPIs writes one row per KPI. Assignees are written as employee
// codes joined with ListSeparator; assignees missing from employees are
// left out.
func ExportKPIs(w io.Writer, kpis []model.KPI, employees []model.Employee) error {
	idx := indexEmployees(employees)
	cw := newWriter(w)
	cw.header(kpiHeader...)
	for _, k := range kpis {
		codes := make([]string, 0, len(k.AssignedEmployees))
		for _, id := range k.AssignedEmployees {
			if code := idx.code(id); code != "" {
				codes = append(codes, code)
			}
		}
		cw.row(
			quoted(k.Name),
			quoted(k.Description),
			number(k.TargetValue),
			plain(string(k.Unit)),
			plain(string(k.PreferredTrend)),
			plain(string(k.TimePeriod)),
			plain(string(k.Status)),
			plain(k.StartDate),
			plain(k.EndDate),
			quoted(strings.Join(codes, ListSeparator)),
		)
	}
	return cw.flush()
}

// ImportKPIs parses KPIs. Assignee codes are resolved against employees and
// unknown codes are dropped. CreatedAt and UpdatedAt are the import time.
func ImportKPIs(r io.Reader, employees []model.Employee, opts ...Option) ([]model.KPI, error) {
	o := buildOptions(opts)
	_, rows, err := readRows(r, &o)
	if err != nil {
		return nil, err
	}

	idx := indexEmployees(employees)
	now := o.now()
	kpis := make([]model.KPI, 0, len(rows))
	for _, row := range rows {
		target, err := row.floatCell(ColTargetValue)
		if err != nil {
			return nil, err
		}

		assigned := []string{}
		for _, code := range strings.Split(row.get(ColAssignedEmployees), ListSeparator) {
			if id := idx.id(code); id != "" {
				assigned = append(assigned, id)
			}
		}

		kpis = append(kpis, model.KPI{
			ID:                o.newID(),
			Name:              row.get(ColName),
			Description:       row.get(ColDescription),
			TargetValue:       target,
			Unit:              model.Unit(row.get(ColUnit)),
			PreferredTrend:    model.Trend(row.get(ColPreferredTrend)),
			TimePeriod:        model.TimePeriod(row.get(ColTimePeriod)),
			Status:            model.KPIStatus(row.get(ColStatus)),
			StartDate:         row.get(ColStartDate),
			EndDate:           row.optional(ColEndDate),
			AssignedEmployees: assigned,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}
	return kpis, nil
}
