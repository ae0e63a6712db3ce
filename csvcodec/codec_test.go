package csvcodec_test

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/kpi-tracker/csvcodec"
	"github.com/warp/kpi-tracker/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var importedAt = time.Date(2024, time.March, 11, 8, 30, 0, 0, time.UTC)

// sequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedOpts(prefix string) []csvcodec.Option {
	return []csvcodec.Option{
		csvcodec.WithClock(func() time.Time { return importedAt }),
		csvcodec.WithIDGenerator(sequentialIDs(prefix)),
	}
}

func employee(id, code, name string, salary, super float64) model.Employee {
	return model.Employee{
		ID:             id,
		EmployeeID:     code,
		Name:           name,
		Department:     "Engineering",
		Status:         model.EmployeeActive,
		StartDate:      "2023-01-09",
		Salary:         salary,
		Superannuation: model.Superannuation{Contribution: super},
		BonusPotential: 5000,
		TotalPackage:   model.TotalPackage(salary, super),
		KPIs:           []string{},
	}
}

func sampleEmployees() []model.Employee {
	lead := employee("id-lead", "E001", "Ada Lovelace", 150000, 11)
	dev := employee("id-dev", "E002", `O'Brien, "Jay"`, 98500.5, 9.5)
	dev.ManagerID = "id-lead"
	dev.Department = "Platform, Core"
	ops := employee("id-ops", "E003", "Grace Hopper", 120000, 10)
	ops.Status = model.EmployeeInactive
	ops.EndDate = "2024-02-29"
	ops.ManagerID = "id-gone"
	return []model.Employee{lead, dev, ops}
}

// =============================================================================
// FILE NAMES AND KINDS
// =============================================================================

func TestFileName(t *testing.T) {
	at := time.Date(2024, time.March, 11, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "employees-2024-03-11.csv", csvcodec.FileName(csvcodec.KindEmployees, at))
	assert.Equal(t, "team-members-2024-03-11.csv", csvcodec.FileName(csvcodec.KindTeamMembers, at))
	assert.Equal(t, "kpis-2024-03-11.csv", csvcodec.FileName(csvcodec.KindKPIs, at))
	assert.Equal(t, "weekly-entries-2024-03-11.csv", csvcodec.FileName(csvcodec.KindWeeklyEntries, at))
}

func TestParseKind(t *testing.T) {
	k, err := csvcodec.ParseKind(" Team-Members ")
	require.NoError(t, err)
	assert.Equal(t, csvcodec.KindEmployees, k.Canonical())

	_, err = csvcodec.ParseKind("payroll")
	assert.ErrorIs(t, err, model.ErrUnknownKind)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_RoundTrip(t *testing.T) {
	original := sampleEmployees()

	// GIVEN: An export of three employees
	var buf bytes.Buffer
	require.NoError(t, csvcodec.ExportEmployees(&buf, original))

	// WHEN: Re-importing it against the same collection
	imported, err := csvcodec.ImportEmployees(&buf, original, fixedOpts("new")...)
	require.NoError(t, err)

	// THEN: Every row comes back with the same key fields
	require.Len(t, imported, len(original))
	for i, got := range imported {
		want := original[i]
		assert.Equal(t, want.EmployeeID, got.EmployeeID)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Department, got.Department)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.StartDate, got.StartDate)
		assert.Equal(t, want.EndDate, got.EndDate)
		assert.Equal(t, want.Salary, got.Salary)
		assert.Equal(t, want.Superannuation.Contribution, got.Superannuation.Contribution)
		assert.Equal(t, model.TotalPackage(got.Salary, got.Superannuation.Contribution), got.TotalPackage)
		assert.Equal(t, fmt.Sprintf("new-%d", i+1), got.ID, "ids are always fresh")
		assert.Equal(t, []string{}, got.KPIs)
	}

	// AND: Manager codes resolve to existing ids, unknown managers to empty
	assert.Equal(t, "", imported[0].ManagerID)
	assert.Equal(t, "id-lead", imported[1].ManagerID)
	assert.Equal(t, "", imported[2].ManagerID)
}

func TestEmployees_ExportQuotesFreeText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvcodec.ExportEmployees(&buf, sampleEmployees()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t,
		"Name,Employee ID,Department,Status,Start Date,End Date,Salary,Superannuation Rate,Bonus Potential,Manager Employee ID",
		lines[0])
	assert.Equal(t,
		`"O'Brien, ""Jay""",E002,"Platform, Core",active,2023-01-09,,98500.5,9.5,5000,E001`,
		lines[2])
	assert.Equal(t,
		`"Grace Hopper",E003,"Engineering",inactive,2023-01-09,2024-02-29,120000,10,5000,`,
		lines[3], "a dangling manager exports as an empty cell")
}

func TestEmployees_ImportIntoEmptyStoreDropsManagers(t *testing.T) {
	csv := "Name,Employee ID,Department,Status,Start Date,End Date,Salary,Superannuation Rate,Bonus Potential,Manager Employee ID\n" +
		"Bob,E010,Sales,active,2024-01-01,,80000,10,0,E001\n"

	imported, err := csvcodec.ImportEmployees(strings.NewReader(csv), nil)

	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Empty(t, imported[0].ManagerID)
	assert.InDelta(t, 88000, imported[0].TotalPackage, 1e-9)
}

func TestEmployees_LenientImport(t *testing.T) {
	// GIVEN: Reordered columns, blank lines, a short row, a BOM and a bad number
	csv := "\ufeffEmployee ID, name ,Salary,Superannuation Rate\n" +
		"\n" +
		"E1,Ann,abc,10\n" +
		"   \n" +
		"E2,Ben\n"

	imported, err := csvcodec.ImportEmployees(strings.NewReader(csv), nil)

	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "E1", imported[0].EmployeeID)
	assert.Equal(t, "Ann", imported[0].Name)
	assert.True(t, math.IsNaN(imported[0].Salary), "malformed floats become NaN")
	assert.True(t, math.IsNaN(imported[0].TotalPackage))
	assert.Equal(t, "Ben", imported[1].Name)
	assert.Empty(t, imported[1].Department, "missing columns read as empty")
	assert.True(t, math.IsNaN(imported[1].Salary))
}

func TestEmployees_EmptyCellRowIsKept(t *testing.T) {
	// GIVEN: A row of empty cells between two records
	csv := "Employee ID,Name,Salary\n" +
		",,\n" +
		"E1,Ann,100\n"

	imported, err := csvcodec.ImportEmployees(strings.NewReader(csv), nil)

	// THEN: It is read as a record rather than skipped
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Empty(t, imported[0].EmployeeID)
	assert.Empty(t, imported[0].Name)
	assert.True(t, math.IsNaN(imported[0].Salary))
	assert.Equal(t, "E1", imported[1].EmployeeID)
}

func TestEmployees_StrictImportRejectsWholeFile(t *testing.T) {
	csv := "Name,Employee ID,Salary,Superannuation Rate,Bonus Potential\n" +
		"Ann,E1,1000,10,0\n" +
		"Ben,E2,lots,10,0\n"

	imported, err := csvcodec.ImportEmployees(strings.NewReader(csv), nil, csvcodec.Strict())

	assert.Nil(t, imported)
	var perr *csvcodec.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, csvcodec.ColSalary, perr.Column)
	assert.Equal(t, "lots", perr.Value)
	assert.ErrorIs(t, err, csvcodec.ErrMalformedNumber)
}

func TestEmployees_UnquotedFieldIsLiteral(t *testing.T) {
	csv := "Name,Employee ID\n" +
		`Say ""hi"",E1` + "\n"

	imported, err := csvcodec.ImportEmployees(strings.NewReader(csv), nil)

	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, `Say ""hi""`, imported[0].Name)
}

func TestEmployees_EmptyInput(t *testing.T) {
	imported, err := csvcodec.ImportEmployees(strings.NewReader(""), nil)

	require.NoError(t, err)
	assert.Empty(t, imported)
}

// =============================================================================
// KPIS
// =============================================================================

func sampleKPIs() []model.KPI {
	created := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	return []model.KPI{
		{
			ID: "k-tickets", Name: "Tickets Closed", Description: "Closed, resolved tickets",
			TargetValue: 50, Unit: model.UnitNumber, PreferredTrend: model.TrendHigher,
			TimePeriod: model.PeriodWeekly, Status: model.KPIActive, StartDate: "2024-01-01",
			AssignedEmployees: []string{"id-lead", "id-unknown", "id-dev"},
			CreatedAt: created, UpdatedAt: created,
		},
		{
			ID: "k-churn", Name: "Churn", Description: `Say "less"`,
			TargetValue: 2.5, Unit: model.UnitPercentage, PreferredTrend: model.TrendLower,
			TimePeriod: model.PeriodMonthly, Status: model.KPIInactive, StartDate: "2023-06-01",
			EndDate: "2024-03-01", AssignedEmployees: []string{},
			CreatedAt: created, UpdatedAt: created,
		},
	}
}

func TestKPIs_ExportFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvcodec.ExportKPIs(&buf, sampleKPIs(), sampleEmployees()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"Name,Description,Target Value,Unit,Preferred Trend,Time Period,Status,Start Date,End Date,Assigned Employee IDs",
		lines[0])
	assert.Equal(t,
		`"Tickets Closed","Closed, resolved tickets",50,number,higher,weekly,active,2024-01-01,,"E001;E002"`,
		lines[1], "unknown assignees are left out")
	assert.Equal(t,
		`"Churn","Say ""less""",2.5,percentage,lower,monthly,inactive,2023-06-01,2024-03-01,""`,
		lines[2])
}

func TestKPIs_RoundTrip(t *testing.T) {
	employees := sampleEmployees()
	var buf bytes.Buffer
	require.NoError(t, csvcodec.ExportKPIs(&buf, sampleKPIs(), employees))

	imported, err := csvcodec.ImportKPIs(&buf, employees, fixedOpts("kpi")...)

	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "kpi-1", imported[0].ID)
	assert.Equal(t, "Tickets Closed", imported[0].Name)
	assert.Equal(t, "Closed, resolved tickets", imported[0].Description)
	assert.Equal(t, 50.0, imported[0].TargetValue)
	assert.Equal(t, []string{"id-lead", "id-dev"}, imported[0].AssignedEmployees)
	assert.Equal(t, importedAt, imported[0].CreatedAt)
	assert.Equal(t, importedAt, imported[0].UpdatedAt)
	assert.Empty(t, imported[0].EndDate)

	assert.Equal(t, `Say "less"`, imported[1].Description)
	assert.Equal(t, model.KPIInactive, imported[1].Status)
	assert.Equal(t, "2024-03-01", imported[1].EndDate)
	assert.Equal(t, []string{}, imported[1].AssignedEmployees)
}

func TestKPIs_UnknownAssigneeCodesDropped(t *testing.T) {
	csv := "Name,Target Value,Assigned Employee IDs\n" +
		`Revenue,100,"E001;E999;;E003"` + "\n"

	imported, err := csvcodec.ImportKPIs(strings.NewReader(csv), sampleEmployees())

	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, []string{"id-lead", "id-ops"}, imported[0].AssignedEmployees)
}

// =============================================================================
// WEEKLY ENTRIES
// =============================================================================

func sampleWeekly() []model.WeeklyEntry {
	return []model.WeeklyEntry{
		{
			ID: "w1", EmployeeID: "id-dev", Week: "2024-W10",
			KPIEntries:          []model.KPIValue{{KPIID: "k-tickets", Value: 42}},
			PerformanceRating:   4,
			RatingJustification: "Shipped, on time",
			CapacityPercentage:  85,
			WeeklyReflection:    `Felt "ok"`,
			CreatedAt:           importedAt,
		},
		{
			ID: "w2", EmployeeID: "id-contractor", Week: "2024-W11",
			KPIEntries:          []model.KPIValue{{KPIID: "k-tickets", Value: 12.5}, {KPIID: "k-churn", Value: 1.2}},
			PerformanceRating:   3,
			RatingJustification: "Steady",
			CapacityPercentage:  100,
			SupportNeeded:       "More reviewers",
			CreatedAt:           importedAt,
		},
	}
}

func TestWeeklyEntries_ExportFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvcodec.ExportWeeklyEntries(&buf, sampleWeekly(), sampleKPIs(), sampleEmployees()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"Week,Employee ID,Performance Rating,Rating Justification,Capacity %,Capacity Factors,Weekly Reflection,Support Needed,KPI: Tickets Closed,KPI: Churn",
		lines[0])
	assert.Equal(t, `2024-W10,E002,4,"Shipped, on time",85,"","Felt ""ok""","",42,`, lines[1])
	assert.Equal(t, `2024-W11,id-contractor,3,"Steady",100,"","","More reviewers",12.5,1.2`, lines[2],
		"unknown employees export their raw id")
}

func TestWeeklyEntries_RoundTrip(t *testing.T) {
	employees := sampleEmployees()
	kpis := sampleKPIs()
	var buf bytes.Buffer
	require.NoError(t, csvcodec.ExportWeeklyEntries(&buf, sampleWeekly(), kpis, employees))

	imported, err := csvcodec.ImportWeeklyEntries(&buf, kpis, employees, fixedOpts("wk")...)

	require.NoError(t, err)
	require.Len(t, imported, 2)

	first := imported[0]
	assert.Equal(t, "wk-1", first.ID)
	assert.Equal(t, "id-dev", first.EmployeeID, "codes resolve to internal ids")
	assert.Equal(t, "2024-W10", first.Week)
	assert.Equal(t, 4, first.PerformanceRating)
	assert.Equal(t, "Shipped, on time", first.RatingJustification)
	assert.Equal(t, 85, first.CapacityPercentage)
	assert.Empty(t, first.CapacityFactors)
	assert.Equal(t, `Felt "ok"`, first.WeeklyReflection)
	assert.Equal(t, []model.KPIValue{{KPIID: "k-tickets", Value: 42}}, first.KPIEntries,
		"empty KPI cells produce no value")
	assert.Equal(t, importedAt, first.CreatedAt)
	assert.Nil(t, first.UpdatedAt)

	second := imported[1]
	assert.Equal(t, "id-contractor", second.EmployeeID, "unknown employees are kept verbatim")
	assert.Equal(t, []model.KPIValue{{KPIID: "k-tickets", Value: 12.5}, {KPIID: "k-churn", Value: 1.2}}, second.KPIEntries)
	assert.Equal(t, "More reviewers", second.SupportNeeded)
}

func TestWeeklyEntries_UnknownKPIColumnIgnored(t *testing.T) {
	csv := "Week,Employee ID,Performance Rating,Capacity %,KPI: Churn,KPI: Mystery\n" +
		"2024-W12,E001,4.0,x,0.8,99\n"

	imported, err := csvcodec.ImportWeeklyEntries(strings.NewReader(csv), sampleKPIs(), sampleEmployees())

	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, "id-lead", imported[0].EmployeeID)
	assert.Equal(t, 4, imported[0].PerformanceRating, "integer cells fall back to float parsing")
	assert.Equal(t, 0, imported[0].CapacityPercentage, "malformed integers become zero")
	assert.Equal(t, []model.KPIValue{{KPIID: "k-churn", Value: 0.8}}, imported[0].KPIEntries)
}

func TestWeeklyEntries_SameNamedKPIsKeepTheirColumns(t *testing.T) {
	// GIVEN: KPIs whose names differ only by case, and two sharing a name
	kpis := []model.KPI{
		{ID: "k1", Name: "Sales"},
		{ID: "k2", Name: "sales"},
		{ID: "k3", Name: "Dup"},
		{ID: "k4", Name: "Dup"},
	}
	entries := []model.WeeklyEntry{{
		ID: "w1", EmployeeID: "id-dev", Week: "2024-W10",
		KPIEntries: []model.KPIValue{
			{KPIID: "k1", Value: 1}, {KPIID: "k2", Value: 2},
			{KPIID: "k3", Value: 3}, {KPIID: "k4", Value: 4},
		},
	}}

	// WHEN: The entries are exported and read back
	var buf bytes.Buffer
	require.NoError(t, csvcodec.ExportWeeklyEntries(&buf, entries, kpis, sampleEmployees()))
	imported, err := csvcodec.ImportWeeklyEntries(&buf, kpis, sampleEmployees(), csvcodec.Strict())

	// THEN: Every column lands on its own KPI
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, []model.KPIValue{
		{KPIID: "k1", Value: 1}, {KPIID: "k2", Value: 2},
		{KPIID: "k3", Value: 3}, {KPIID: "k4", Value: 4},
	}, imported[0].KPIEntries)
}

func TestWeeklyEntries_StrictRejectsMalformedKPIValue(t *testing.T) {
	csv := "Week,Employee ID,Performance Rating,Capacity %,KPI: Churn\n" +
		"2024-W12,E001,4,80,n/a\n"

	_, err := csvcodec.ImportWeeklyEntries(strings.NewReader(csv), sampleKPIs(), sampleEmployees(), csvcodec.Strict())

	var perr *csvcodec.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "KPI: Churn", perr.Column)
	assert.Equal(t, 2, perr.Line)
}

func TestWeeklyEntries_MultilineQuotedCell(t *testing.T) {
	entries := sampleWeekly()[:1]
	entries[0].WeeklyReflection = "line one\nline two"

	var buf bytes.Buffer
	require.NoError(t, csvcodec.ExportWeeklyEntries(&buf, entries, nil, sampleEmployees()))
	imported, err := csvcodec.ImportWeeklyEntries(&buf, nil, sampleEmployees())

	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, "line one\nline two", imported[0].WeeklyReflection)
	assert.Equal(t, []model.KPIValue{}, imported[0].KPIEntries)
}
