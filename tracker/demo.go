/*
demo.go - Demo dataset for local runs

PURPOSE:
  Seeds a small engineering team with KPIs, weekly reports and KPI entries
  so the API and reports have something to show. Loaded by `serve` when
  KPITRACK_DEMO is set.

HOW IT WORKS:
  1. Add employees, managers first so reports can link to them
  2. Create KPIs assigned to the team
  3. Add one weekly report per employee for the last few weeks
  4. Submit KPI entries through SubmitEntry, so they reach the cache too

NOTE:
  The dataset is added to whatever the stores already hold. Loading it
  twice creates duplicates.
*/
package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/model"
)

// DemoResult counts what LoadDemo created.
type DemoResult struct {
	Employees     int `json:"employees"`
	KPIs          int `json:"kpis"`
	WeeklyEntries int `json:"weeklyEntries"`
	Entries       int `json:"entries"`
}

type demoEmployee struct {
	code, name, department, manager string
	salary, super, bonus            float64
}

var demoEmployees = []demoEmployee{
	{code: "E001", name: "Alex Morgan", department: "Engineering", salary: 165000, super: 11, bonus: 20000},
	{code: "E002", name: "Priya Shah", department: "Engineering", manager: "E001", salary: 128000, super: 11, bonus: 10000},
	{code: "E003", name: "Tomás Rivera", department: "Engineering", manager: "E001", salary: 112000, super: 11, bonus: 8000},
	{code: "E004", name: "Jordan Lee", department: "Support", salary: 98000, super: 11, bonus: 6000},
	{code: "E005", name: "Sam O'Neill", department: "Support", manager: "E004", salary: 76000, super: 11, bonus: 3000},
}

type demoKPI struct {
	name, description string
	target            float64
	unit              model.Unit
	trend             model.Trend
	department        string
}

var demoKPIs = []demoKPI{
	{name: "Tickets Closed", description: "Support tickets resolved in the week", target: 50, unit: model.UnitNumber, trend: model.TrendHigher, department: "Support"},
	{name: "First Response Time", description: "Median hours to first reply", target: 4, unit: model.UnitNumber, trend: model.TrendLower, department: "Support"},
	{name: "Deploys", description: "Production deploys shipped", target: 10, unit: model.UnitNumber, trend: model.TrendHigher, department: "Engineering"},
	{name: "Change Failure Rate", description: "Deploys that needed a rollback or hotfix", target: 5, unit: model.UnitPercentage, trend: model.TrendLower, department: "Engineering"},
}

// demoWeeks is how many past weeks of reports LoadDemo creates.
const demoWeeks = 4

// LoadDemo adds the demo dataset.
func (t *Tracker) LoadDemo(ctx context.Context) (DemoResult, error) {
	var result DemoResult

	ids := make(map[string]string, len(demoEmployees))
	byDept := make(map[string][]string)
	for _, d := range demoEmployees {
		e, err := t.AddEmployee(ctx, model.Employee{
			EmployeeID:     d.code,
			Name:           d.name,
			Department:     d.department,
			Status:         model.EmployeeActive,
			StartDate:      "2023-02-06",
			Salary:         d.salary,
			Superannuation: model.Superannuation{Contribution: d.super},
			BonusPotential: d.bonus,
			ManagerID:      ids[d.manager],
		})
		if err != nil {
			return result, fmt.Errorf("demo employee %s: %w", d.code, err)
		}
		ids[d.code] = e.ID
		byDept[d.department] = append(byDept[d.department], e.ID)
		result.Employees++
	}

	var kpis []model.KPI
	for _, d := range demoKPIs {
		k, err := t.CreateKPI(ctx, model.KPI{
			Name:              d.name,
			Description:       d.description,
			TargetValue:       d.target,
			Unit:              d.unit,
			PreferredTrend:    d.trend,
			TimePeriod:        model.PeriodWeekly,
			Status:            model.KPIActive,
			StartDate:         "2024-01-01",
			AssignedEmployees: byDept[d.department],
		})
		if err != nil {
			return result, fmt.Errorf("demo kpi %s: %w", d.name, err)
		}
		kpis = append(kpis, k)
		result.KPIs++
	}

	current := model.WeekOf(t.now())
	for i := demoWeeks; i >= 1; i-- {
		week := model.WeekOf(current.Monday().AddDate(0, 0, -7*i)).String()
		for n, d := range demoEmployees {
			employeeID := ids[d.code]
			var values []model.KPIValue
			for j, k := range kpis {
				if !k.IsAssigned(employeeID) {
					continue
				}
				v := k.TargetValue * float64(80+(n*7+j*3+i*5)%40) / 100
				values = append(values, model.KPIValue{KPIID: k.ID, Value: v})
				if _, err := t.SubmitEntry(ctx, EntryInput{KPIID: k.ID, EmployeeID: employeeID, Value: v, Week: week}); err != nil {
					return result, fmt.Errorf("demo entry: %w", err)
				}
				result.Entries++
			}
			_, err := t.AddWeeklyEntry(ctx, model.WeeklyEntry{
				EmployeeID:          employeeID,
				Week:                week,
				KPIEntries:          values,
				PerformanceRating:   3 + (n+i)%3,
				RatingJustification: "Steady week against the plan",
				CapacityPercentage:  70 + (n*11+i*7)%31,
			})
			if err != nil {
				return result, fmt.Errorf("demo weekly entry: %w", err)
			}
			result.WeeklyEntries++
		}
	}

	t.logger.Info("demo dataset loaded",
		zap.Int("employees", result.Employees),
		zap.Int("kpis", result.KPIs),
		zap.Int("weekly_entries", result.WeeklyEntries),
		zap.Int("entries", result.Entries))
	return result, nil
}
