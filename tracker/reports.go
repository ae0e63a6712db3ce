/*
reports.go - Aggregate views over weekly entries

PURPOSE:
  The numbers behind the reports page: overall averages, per-department
  and per-employee breakdowns, and KPI value trends by week.

PRECISION:
  Averages are computed with decimal.Decimal and rounded the way the
  reports display them: ratings to one decimal place, capacity to a whole
  percent. An empty group divides by one, so its averages are zero.

FILTERS:
  Department and ManagerID restrict the employees considered. From and To
  bound the ISO week, inclusive; a zero Week leaves that side open.
  Entries whose week does not parse are dropped once a bound is set.

SEE ALSO:
  - model/week.go:  Week parsing and labels
  - integrity.go:   Reference audit
*/
package tracker

import (
	"context"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/warp/kpi-tracker/model"
)

// Filter narrows a report.
type Filter struct {
	Department string
	ManagerID  string
	From       model.Week
	To         model.Week
}

func (f Filter) hasEmployeeFilter() bool {
	return f.Department != "" || f.ManagerID != ""
}

func (f Filter) matchesEmployee(e model.Employee) bool {
	if f.Department != "" && e.Department != f.Department {
		return false
	}
	if f.ManagerID != "" && e.ManagerID != f.ManagerID {
		return false
	}
	return true
}

func (f Filter) matchesWeek(week string) bool {
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	w, err := model.ParseWeek(week)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && w.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && w.After(f.To) {
		return false
	}
	return true
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// Summary is the headline block of the reports page.
type Summary struct {
	AverageRating   float64 `json:"averageRating"`
	AverageCapacity float64 `json:"averageCapacity"`
	ActiveEmployees int     `json:"activeEmployees"`
	TotalEntries    int     `json:"totalEntries"`
}

// DepartmentMetrics aggregates one department.
type DepartmentMetrics struct {
	Department      string  `json:"department"`
	EmployeeCount   int     `json:"employeeCount"`
	AverageRating   float64 `json:"averageRating"`
	AverageCapacity float64 `json:"averageCapacity"`
	EntriesCount    int     `json:"entriesCount"`
}

// EmployeePerformance aggregates one employee.
type EmployeePerformance struct {
	EmployeeID   string  `json:"employeeId"`
	Name         string  `json:"name"`
	Rating       float64 `json:"rating"`
	Capacity     float64 `json:"capacity"`
	EntriesCount int     `json:"entriesCount"`
}

// TrendPoint holds the average value of each KPI, by KPI name, for one week.
type TrendPoint struct {
	Week   string             `json:"week"`
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

// =============================================================================
// REPORTS
// =============================================================================

// PerformanceSummary averages rating and capacity over the filtered entries
// of known employees. ActiveEmployees counts every active employee.
func (t *Tracker) PerformanceSummary(ctx context.Context, f Filter) (Summary, error) {
	employees, entries, err := t.reportData(ctx)
	if err != nil {
		return Summary{}, err
	}
	byID := indexByID(employees)

	var selected []model.WeeklyEntry
	for _, e := range entries {
		emp, ok := byID[e.EmployeeID]
		if !ok || !f.matchesEmployee(emp) || !f.matchesWeek(e.Week) {
			continue
		}
		selected = append(selected, e)
	}

	active := 0
	for _, e := range employees {
		if e.Status == model.EmployeeActive {
			active++
		}
	}

	rating, capacity := averages(selected)
	return Summary{
		AverageRating:   rating,
		AverageCapacity: capacity,
		ActiveEmployees: active,
		TotalEntries:    len(selected),
	}, nil
}

// DepartmentOverview reports every department in order of first appearance.
func (t *Tracker) DepartmentOverview(ctx context.Context, f Filter) ([]DepartmentMetrics, error) {
	employees, entries, err := t.reportData(ctx)
	if err != nil {
		return nil, err
	}

	var departments []string
	members := make(map[string]map[string]bool)
	for _, e := range employees {
		if !f.matchesEmployee(e) {
			continue
		}
		if members[e.Department] == nil {
			departments = append(departments, e.Department)
			members[e.Department] = make(map[string]bool)
		}
		members[e.Department][e.ID] = true
	}

	result := make([]DepartmentMetrics, 0, len(departments))
	for _, d := range departments {
		var selected []model.WeeklyEntry
		for _, e := range entries {
			if members[d][e.EmployeeID] && f.matchesWeek(e.Week) {
				selected = append(selected, e)
			}
		}
		rating, capacity := averages(selected)
		result = append(result, DepartmentMetrics{
			Department:      d,
			EmployeeCount:   len(members[d]),
			AverageRating:   rating,
			AverageCapacity: capacity,
			EntriesCount:    len(selected),
		})
	}
	return result, nil
}

// TeamPerformance reports every filtered employee, including those without
// entries.
func (t *Tracker) TeamPerformance(ctx context.Context, f Filter) ([]EmployeePerformance, error) {
	employees, entries, err := t.reportData(ctx)
	if err != nil {
		return nil, err
	}

	result := []EmployeePerformance{}
	for _, emp := range employees {
		if !f.matchesEmployee(emp) {
			continue
		}
		var selected []model.WeeklyEntry
		for _, e := range entries {
			if e.EmployeeID == emp.ID && f.matchesWeek(e.Week) {
				selected = append(selected, e)
			}
		}
		rating, capacity := averages(selected)
		result = append(result, EmployeePerformance{
			EmployeeID:   emp.ID,
			Name:         emp.Name,
			Rating:       rating,
			Capacity:     capacity,
			EntriesCount: len(selected),
		})
	}
	return result, nil
}

// KPITrends averages weekly-entry KPI values per week and KPI name. Values
// for unknown KPIs and non-finite values are skipped. Weeks are returned in
// chronological order; unparseable weeks sort last in their original order.
func (t *Tracker) KPITrends(ctx context.Context, f Filter) ([]TrendPoint, error) {
	employees, entries, err := t.reportData(ctx)
	if err != nil {
		return nil, err
	}
	kpis, err := t.kpis.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(kpis))
	for _, k := range kpis {
		names[k.ID] = k.Name
	}
	byID := indexByID(employees)

	type bucket struct {
		sum   decimal.Decimal
		count int64
	}
	var weeks []string
	buckets := make(map[string]map[string]*bucket)
	for _, e := range entries {
		if !f.matchesWeek(e.Week) {
			continue
		}
		if f.hasEmployeeFilter() {
			emp, ok := byID[e.EmployeeID]
			if !ok || !f.matchesEmployee(emp) {
				continue
			}
		}
		if buckets[e.Week] == nil {
			weeks = append(weeks, e.Week)
			buckets[e.Week] = make(map[string]*bucket)
		}
		for _, v := range e.KPIEntries {
			name, ok := names[v.KPIID]
			if !ok || math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
				continue
			}
			b := buckets[e.Week][name]
			if b == nil {
				b = &bucket{}
				buckets[e.Week][name] = b
			}
			b.sum = b.sum.Add(decimal.NewFromFloat(v.Value))
			b.count++
		}
	}

	slices.SortStableFunc(weeks, compareWeekStrings)

	points := make([]TrendPoint, 0, len(weeks))
	for _, week := range weeks {
		p := TrendPoint{Week: week, Label: week, Values: make(map[string]float64)}
		if w, err := model.ParseWeek(week); err == nil {
			p.Label = w.Label()
		}
		for name, b := range buckets[week] {
			p.Values[name] = b.sum.Div(decimal.NewFromInt(b.count)).InexactFloat64()
		}
		points = append(points, p)
	}
	return points, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (t *Tracker) reportData(ctx context.Context) ([]model.Employee, []model.WeeklyEntry, error) {
	employees, err := t.employees.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	entries, err := t.weekly.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return employees, entries, nil
}

func indexByID(employees []model.Employee) map[string]model.Employee {
	byID := make(map[string]model.Employee, len(employees))
	for _, e := range employees {
		if _, dup := byID[e.ID]; !dup {
			byID[e.ID] = e
		}
	}
	return byID
}

// averages returns the mean rating (one decimal) and mean capacity (whole
// percent) of entries.
func averages(entries []model.WeeklyEntry) (rating, capacity float64) {
	var ratingSum, capacitySum int64
	for _, e := range entries {
		ratingSum += int64(e.PerformanceRating)
		capacitySum += int64(e.CapacityPercentage)
	}
	n := decimal.NewFromInt(int64(max(len(entries), 1)))
	rating = decimal.NewFromInt(ratingSum).Div(n).Round(1).InexactFloat64()
	capacity = decimal.NewFromInt(capacitySum).Div(n).Round(0).InexactFloat64()
	return rating, capacity
}

func compareWeekStrings(a, b string) int {
	wa, errA := model.ParseWeek(a)
	wb, errB := model.ParseWeek(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return wa.Compare(wb)
}
