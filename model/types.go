/*
Package model defines the entities shared by every part of the KPI tracker.

PURPOSE:
  Pure data contracts for the four collections the tracker manages.
  Nothing in this package mutates state; stores, the cache and the CSV
  codec all exchange these types.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee:    A team member with compensation data and a weak manager link
  - KPI:         A named metric with a target, unit, cadence and assignees
  - KPIEntry:    One numeric observation of a KPI for one employee in one week
  - WeeklyEntry: A weekly self-report bundling several KPI values with ratings

REFERENCES:
  Cross-entity references (ManagerID, AssignedEmployees, KPIID, EmployeeID)
  are weak. Nothing here checks that the target exists, and deleting a
  record never cascades on its own. See tracker.RemoveEmployee for the
  explicit cascade.

OPTIONAL FIELDS:
  Optional strings use the empty string for "absent" and are omitted from
  JSON. Calendar dates are ISO strings (YYYY-MM-DD) kept verbatim so CSV
  round-trips are lossless.

SEE ALSO:
  - patch.go: Partial updates for Employee and KPI
  - week.go:  ISO week strings (YYYY-Www)
  - store.go: Store interfaces
*/
package model

import "time"

// =============================================================================
// ENUMERATIONS
// =============================================================================

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

func (s EmployeeStatus) Valid() bool {
	return s == EmployeeActive || s == EmployeeInactive
}

type KPIStatus string

const (
	KPIActive   KPIStatus = "active"
	KPIInactive KPIStatus = "inactive"
)

func (s KPIStatus) Valid() bool {
	return s == KPIActive || s == KPIInactive
}

// Unit is how a KPI value is displayed.
type Unit string

const (
	UnitNumber     Unit = "number"
	UnitPercentage Unit = "percentage"
	UnitCurrency   Unit = "currency"
)

func (u Unit) Valid() bool {
	return u == UnitNumber || u == UnitPercentage || u == UnitCurrency
}

// Trend says which direction counts as improvement. Reporting metadata only.
type Trend string

const (
	TrendHigher Trend = "higher"
	TrendLower  Trend = "lower"
)

func (t Trend) Valid() bool {
	return t == TrendHigher || t == TrendLower
}

type TimePeriod string

const (
	PeriodWeekly    TimePeriod = "weekly"
	PeriodMonthly   TimePeriod = "monthly"
	PeriodQuarterly TimePeriod = "quarterly"
	PeriodYearly    TimePeriod = "yearly"
)

func (p TimePeriod) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Superannuation holds the retirement contribution as a percentage of salary.
type Superannuation struct {
	Contribution float64 `json:"contribution"`
}

// Employee is a team member.
//
// ID is the internal identifier; EmployeeID is the human-facing code used in
// CSV files. TotalPackage is computed by whoever writes the record and is
// never recomputed by a store.
type Employee struct {
	ID             string         `json:"id"`
	EmployeeID     string         `json:"employeeId"`
	Name           string         `json:"name"`
	Department     string         `json:"department"`
	Status         EmployeeStatus `json:"status"`
	StartDate      string         `json:"startDate"`
	EndDate        string         `json:"endDate,omitempty"`
	Salary         float64        `json:"salary"`
	Superannuation Superannuation `json:"superannuation"`
	BonusPotential float64        `json:"bonusPotential"`
	TotalPackage   float64        `json:"totalPackage"`
	ManagerID      string         `json:"managerId,omitempty"`
	KPIs           []string       `json:"kpis"`
}

// TotalPackage returns salary plus the superannuation contribution.
func TotalPackage(salary, contributionRate float64) float64 {
	return salary * (1 + contributionRate/100)
}

// =============================================================================
// KPI
// =============================================================================

// KPI is a metric definition. Archiving flips Status to inactive; KPIs are
// never hard-deleted.
type KPI struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	TargetValue       float64    `json:"targetValue"`
	Unit              Unit       `json:"unit"`
	PreferredTrend    Trend      `json:"preferredTrend"`
	TimePeriod        TimePeriod `json:"timePeriod"`
	Status            KPIStatus  `json:"status"`
	StartDate         string     `json:"startDate"`
	EndDate           string     `json:"endDate,omitempty"`
	AssignedEmployees []string   `json:"assignedEmployees"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsAssigned reports whether employeeID is in the KPI's assignee set.
func (k KPI) IsAssigned(employeeID string) bool {
	for _, id := range k.AssignedEmployees {
		if id == employeeID {
			return true
		}
	}
	return false
}

// KPIEntry is a single observation. Entries are immutable once recorded.
type KPIEntry struct {
	ID         string    `json:"id"`
	KPIID      string    `json:"kpiId"`
	EmployeeID string    `json:"employeeId"`
	Value      float64   `json:"value"`
	Week       string    `json:"week"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// =============================================================================
// WEEKLY ENTRY
// =============================================================================

// KPIValue is one KPI reading inside a WeeklyEntry. It duplicates data that
// may also exist as a KPIEntry; the two are never reconciled.
type KPIValue struct {
	KPIID string  `json:"kpiId"`
	Value float64 `json:"value"`
}

// WeeklyEntry is an employee's self-report for one week.
type WeeklyEntry struct {
	ID                  string     `json:"id"`
	EmployeeID          string     `json:"employeeId"`
	Week                string     `json:"week"`
	KPIEntries          []KPIValue `json:"kpiEntries"`
	PerformanceRating   int        `json:"performanceRating"`
	RatingJustification string     `json:"ratingJustification"`
	CapacityPercentage  int        `json:"capacityPercentage"`
	CapacityFactors     string     `json:"capacityFactors,omitempty"`
	WeeklyReflection    string     `json:"weeklyReflection,omitempty"`
	SupportNeeded       string     `json:"supportNeeded,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
}

// ValueFor returns the value recorded for kpiID, if any.
func (w WeeklyEntry) ValueFor(kpiID string) (float64, bool) {
	for _, v := range w.KPIEntries {
		if v.KPIID == kpiID {
			return v.Value, true
		}
	}
	return 0, false
}
