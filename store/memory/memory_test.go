package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/kpi-tracker/model"
	"github.com/warp/kpi-tracker/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func employee(id, code, dept, manager string) model.Employee {
	return model.Employee{
		ID:             id,
		EmployeeID:     code,
		Name:           "Employee " + code,
		Department:     dept,
		Status:         model.EmployeeActive,
		StartDate:      "2023-02-01",
		Salary:         90000,
		Superannuation: model.Superannuation{Contribution: 11},
		BonusPotential: 2500,
		TotalPackage:   model.TotalPackage(90000, 11),
		ManagerID:      manager,
		KPIs:           []string{},
	}
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func TestEmployees_AddAndGet(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEmployees()

	// GIVEN: Two different employees added in sequence
	e1 := employee("emp-1", "E001", "Eng", "")
	e2 := employee("emp-2", "E002", "Sales", "emp-1")
	require.NoError(t, s.Add(ctx, e1))
	require.NoError(t, s.Add(ctx, e2))

	// THEN: Each id returns exactly its own record
	got1, err := s.Get(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got1)
	assert.Equal(t, e1, *got1)

	got2, err := s.Get(ctx, "emp-2")
	require.NoError(t, err)
	require.NotNil(t, got2)
	assert.Equal(t, e2, *got2)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEmployees_GetMissing(t *testing.T) {
	got, err := memory.NewEmployees().Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmployees_MergeUpdate_OnlyChangesPatchedField(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEmployees()
	before := employee("emp-1", "E001", "Eng", "emp-9")
	require.NoError(t, s.Add(ctx, before))

	// WHEN: Updating only the department
	require.NoError(t, s.MergeUpdate(ctx, "emp-1", model.EmployeePatch{Department: model.Ptr("X")}))

	// THEN: Everything else is identical
	got, err := s.Get(ctx, "emp-1")
	require.NoError(t, err)
	want := before
	want.Department = "X"
	assert.Equal(t, want, *got)
}

func TestEmployees_MergeUpdate_DoesNotRecomputeTotalPackage(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEmployees()
	e := employee("emp-1", "E001", "Eng", "")
	require.NoError(t, s.Add(ctx, e))

	require.NoError(t, s.MergeUpdate(ctx, "emp-1", model.EmployeePatch{Salary: model.Ptr(200000.0)}))

	got, _ := s.Get(ctx, "emp-1")
	assert.Equal(t, 200000.0, got.Salary)
	assert.Equal(t, e.TotalPackage, got.TotalPackage, "stores never recompute the package")
}

func TestEmployees_MergeUpdate_MissingIsNoop(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEmployees()
	require.NoError(t, s.Add(ctx, employee("emp-1", "E001", "Eng", "")))

	require.NoError(t, s.MergeUpdate(ctx, "ghost", model.EmployeePatch{Name: model.Ptr("Boo")}))

	all, _ := s.List(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "Employee E001", all[0].Name)
}

func TestEmployees_Remove(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEmployees()
	require.NoError(t, s.Add(ctx, employee("emp-1", "E001", "Eng", "")))
	require.NoError(t, s.Add(ctx, employee("emp-2", "E002", "Eng", "emp-1")))

	// WHEN: Removing a nonexistent id
	require.NoError(t, s.Remove(ctx, "ghost"))
	all, _ := s.List(ctx)
	assert.Len(t, all, 2)

	// WHEN: Removing the manager
	require.NoError(t, s.Remove(ctx, "emp-1"))

	// THEN: It is gone and the report keeps a dangling ManagerID
	got, err := s.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	report, _ := s.Get(ctx, "emp-2")
	require.NotNil(t, report)
	assert.Equal(t, "emp-1", report.ManagerID)
}

func TestEmployees_DerivedQueries(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEmployees()
	require.NoError(t, s.Add(ctx, employee("m", "M1", "Eng", "")))
	require.NoError(t, s.Add(ctx, employee("a", "A1", "Eng", "m")))
	require.NoError(t, s.Add(ctx, employee("b", "B1", "Sales", "m")))
	require.NoError(t, s.Add(ctx, employee("c", "C1", "Sales", "")))

	reports, err := s.ByManager(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(reports))

	sales, err := s.ByDepartment(ctx, "Sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(sales))

	none, err := s.ByDepartment(ctx, "Legal")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEmployees_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEmployees()
	require.NoError(t, s.Add(ctx, model.Employee{ID: "emp-1", KPIs: []string{"k1"}}))

	got, _ := s.Get(ctx, "emp-1")
	got.KPIs[0] = "mutated"
	got.Name = "mutated"

	again, _ := s.Get(ctx, "emp-1")
	assert.Equal(t, []string{"k1"}, again.KPIs)
	assert.Empty(t, again.Name)
}

func ids(es []model.Employee) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.ID)
	}
	return out
}

// =============================================================================
// KPI STORE
// =============================================================================

func TestKPIs_ArchiveOnlyFlipsStatus(t *testing.T) {
	ctx := context.Background()
	s := memory.NewKPIs()
	k := model.KPI{ID: "k1", Name: "Tickets Closed", Status: model.KPIActive, StartDate: "2024-01-01"}
	require.NoError(t, s.Add(ctx, k))

	require.NoError(t, s.Archive(ctx, "k1"))

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, model.KPIInactive, got.Status)
	assert.Empty(t, got.EndDate, "end date is the caller's responsibility")

	// Re-activation is technically permitted
	require.NoError(t, s.MergeUpdate(ctx, "k1", model.KPIPatch{Status: model.Ptr(model.KPIActive)}))
	got, _ = s.Get(ctx, "k1")
	assert.Equal(t, model.KPIActive, got.Status)
}

func TestKPIs_MergeUpdate(t *testing.T) {
	ctx := context.Background()
	s := memory.NewKPIs()
	require.NoError(t, s.Add(ctx, model.KPI{ID: "k1", Name: "A", TargetValue: 10, Unit: model.UnitNumber}))

	require.NoError(t, s.MergeUpdate(ctx, "k1", model.KPIPatch{TargetValue: model.Ptr(25.0)}))

	got, _ := s.Get(ctx, "k1")
	assert.Equal(t, 25.0, got.TargetValue)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, model.UnitNumber, got.Unit)
}

func TestKPIs_Entries(t *testing.T) {
	ctx := context.Background()
	s := memory.NewKPIs()
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddEntry(ctx, model.KPIEntry{ID: "e1", KPIID: "k1", EmployeeID: "a", Value: 42, Week: "2024-W10", CreatedAt: now}))
	require.NoError(t, s.AddEntry(ctx, model.KPIEntry{ID: "e2", KPIID: "k2", EmployeeID: "a", Value: 3, Week: "2024-W10", CreatedAt: now}))
	require.NoError(t, s.AddEntry(ctx, model.KPIEntry{ID: "e3", KPIID: "k1", EmployeeID: "b", Value: 7, Week: "2024-W11", CreatedAt: now}))
	// Same id twice is appended twice: the store list has no dedup.
	require.NoError(t, s.AddEntry(ctx, model.KPIEntry{ID: "e3", KPIID: "k1", EmployeeID: "b", Value: 7, Week: "2024-W11", CreatedAt: now}))

	byKPI, err := s.EntriesByKPI(ctx, "k1")
	require.NoError(t, err)
	assert.Len(t, byKPI, 3)

	byEmployee, err := s.EntriesByEmployee(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, byEmployee, 2)

	all, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// =============================================================================
// WEEKLY ENTRY STORE
// =============================================================================

func TestWeeklyEntries_ReplaceIsFullReplacement(t *testing.T) {
	ctx := context.Background()
	s := memory.NewWeeklyEntries()
	original := model.WeeklyEntry{
		ID: "w1", EmployeeID: "a", Week: "2024-W10",
		KPIEntries:        []model.KPIValue{{KPIID: "k1", Value: 5}},
		PerformanceRating: 4, RatingJustification: "good", CapacityPercentage: 80,
		SupportNeeded: "more coffee",
	}
	require.NoError(t, s.Add(ctx, original))

	// WHEN: Replacing without carrying SupportNeeded over
	replacement := model.WeeklyEntry{ID: "w1", EmployeeID: "a", Week: "2024-W10", PerformanceRating: 5}
	require.NoError(t, s.Replace(ctx, "w1", replacement))

	// THEN: The old optional field is gone
	got, err := s.ForWeek(ctx, "a", "2024-W10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, replacement, *got)
	assert.Empty(t, got.SupportNeeded)
}

func TestWeeklyEntries_ForWeek_FirstMatchWins(t *testing.T) {
	ctx := context.Background()
	s := memory.NewWeeklyEntries()
	require.NoError(t, s.Add(ctx, model.WeeklyEntry{ID: "first", EmployeeID: "a", Week: "2024-W10"}))
	require.NoError(t, s.Add(ctx, model.WeeklyEntry{ID: "second", EmployeeID: "a", Week: "2024-W10"}))
	require.NoError(t, s.Add(ctx, model.WeeklyEntry{ID: "other", EmployeeID: "b", Week: "2024-W10"}))

	got, err := s.ForWeek(ctx, "a", "2024-W10")
	require.NoError(t, err)
	assert.Equal(t, "first", got.ID)

	missing, err := s.ForWeek(ctx, "a", "2024-W11")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byEmployee, err := s.ByEmployee(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, byEmployee, 2)
}
