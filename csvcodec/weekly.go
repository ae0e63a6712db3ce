package csvcodec

import (
	"io"
	"strings"

	"github.com/warp/kpi-tracker/model"
)

// Weekly entry columns. One KPIColumnPrefix column per KPI follows them.
const (
	ColWeek                = "Week"
	ColPerformanceRating   = "Performance Rating"
	ColRatingJustification = "Rating Justification"
	ColCapacity            = "Capacity %"
	ColCapacityFactors     = "Capacity Factors"
	ColWeeklyReflection    = "Weekly Reflection"
	ColSupportNeeded       = "Support Needed"

	KPIColumnPrefix = "KPI: "
)

var weeklyHeader = []string{
	ColWeek, ColEmployeeID, ColPerformanceRating, ColRatingJustification,
	ColCapacity, ColCapacityFactors, ColWeeklyReflection, ColSupportNeeded,
}

// ExportWeeklyEntries writes one row per entry with a trailing column for
// every KPI in kpis. A KPI cell is empty when the entry has no value for it.
// The employee is written as their code, or as the raw id when employees
// does not know them.
func ExportWeeklyEntries(w io.Writer, entries []model.WeeklyEntry, kpis []model.KPI, employees []model.Employee) error {
	idx := indexEmployees(employees)
	header := append([]string{}, weeklyHeader...)
	for _, k := range kpis {
		header = append(header, KPIColumnPrefix+k.Name)
	}

	cw := newWriter(w)
	cw.header(header...)
	for _, e := range entries {
		employee := idx.code(e.EmployeeID)
		if employee == "" {
			employee = e.EmployeeID
		}
		cells := []cell{
			plain(e.Week),
			plain(employee),
			integer(e.PerformanceRating),
			quoted(e.RatingJustification),
			integer(e.CapacityPercentage),
			quoted(e.CapacityFactors),
			quoted(e.WeeklyReflection),
			quoted(e.SupportNeeded),
		}
		for _, k := range kpis {
			if v, ok := e.ValueFor(k.ID); ok {
				cells = append(cells, number(v))
			} else {
				cells = append(cells, plain(""))
			}
		}
		cw.row(cells...)
	}
	return cw.flush()
}

// ImportWeeklyEntries parses weekly entries. KPI columns are matched to
// kpis by exact name; columns naming an unknown KPI are ignored and empty cells
// produce no value. The employee cell may hold a code or an existing
// internal id; anything else is kept verbatim.
func ImportWeeklyEntries(r io.Reader, kpis []model.KPI, employees []model.Employee, opts ...Option) ([]model.WeeklyEntry, error) {
	o := buildOptions(opts)
	header, rows, err := readRows(r, &o)
	if err != nil {
		return nil, err
	}

	// Columns are bound by position and exact name. A name shared by
	// several KPIs binds its n-th column to the n-th such KPI, so exports
	// of same-named KPIs read back in order; extra columns fall back to
	// the first.
	type kpiColumn struct {
		index int
		name  string
		kpiID string
	}
	byName := make(map[string][]string, len(kpis))
	for _, k := range kpis {
		byName[k.Name] = append(byName[k.Name], k.ID)
	}
	seen := make(map[string]int)
	var kpiColumns []kpiColumn
	for i, h := range header {
		name, ok := strings.CutPrefix(strings.TrimSpace(h), KPIColumnPrefix)
		if !ok {
			continue
		}
		ids := byName[name]
		if len(ids) == 0 {
			continue
		}
		id := ids[0]
		if n := seen[name]; n < len(ids) {
			id = ids[n]
		}
		seen[name]++
		kpiColumns = append(kpiColumns, kpiColumn{index: i, name: h, kpiID: id})
	}

	idx := indexEmployees(employees)
	now := o.now()
	entries := make([]model.WeeklyEntry, 0, len(rows))
	for _, row := range rows {
		rating, err := row.intCell(ColPerformanceRating)
		if err != nil {
			return nil, err
		}
		capacity, err := row.intCell(ColCapacity)
		if err != nil {
			return nil, err
		}

		values := []model.KPIValue{}
		for _, col := range kpiColumns {
			if strings.TrimSpace(row.at(col.index)) == "" {
				continue
			}
			v, err := row.floatAt(col.index, col.name)
			if err != nil {
				return nil, err
			}
			values = append(values, model.KPIValue{KPIID: col.kpiID, Value: v})
		}

		employee := row.get(ColEmployeeID)
		if id := idx.id(employee); id != "" {
			employee = id
		}

		entries = append(entries, model.WeeklyEntry{
			ID:                  o.newID(),
			EmployeeID:          employee,
			Week:                row.get(ColWeek),
			KPIEntries:          values,
			PerformanceRating:   rating,
			RatingJustification: row.get(ColRatingJustification),
			CapacityPercentage:  capacity,
			CapacityFactors:     row.optional(ColCapacityFactors),
			WeeklyReflection:    row.optional(ColWeeklyReflection),
			SupportNeeded:       row.optional(ColSupportNeeded),
			CreatedAt:           now,
		})
	}
	return entries, nil
}
