package model

import (
	"slices"
	"time"
)

// EmployeePatch is a partial Employee. Nil fields are left untouched by Apply;
// a non-nil KPIs slice replaces the list.
type EmployeePatch struct {
	EmployeeID     *string         `json:"employeeId,omitempty"`
	Name           *string         `json:"name,omitempty"`
	Department     *string         `json:"department,omitempty"`
	Status         *EmployeeStatus `json:"status,omitempty"`
	StartDate      *string         `json:"startDate,omitempty"`
	EndDate        *string         `json:"endDate,omitempty"`
	Salary         *float64        `json:"salary,omitempty"`
	Superannuation *Superannuation `json:"superannuation,omitempty"`
	BonusPotential *float64        `json:"bonusPotential,omitempty"`
	TotalPackage   *float64        `json:"totalPackage,omitempty"`
	ManagerID      *string         `json:"managerId,omitempty"`
	KPIs           []string        `json:"kpis,omitempty"`
}

// Apply merges the patch into e and returns the result. The ID never changes.
func (p EmployeePatch) Apply(e Employee) Employee {
	if p.EmployeeID != nil {
		e.EmployeeID = *p.EmployeeID
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Department != nil {
		e.Department = *p.Department
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		e.EndDate = *p.EndDate
	}
	if p.Salary != nil {
		e.Salary = *p.Salary
	}
	if p.Superannuation != nil {
		e.Superannuation = *p.Superannuation
	}
	if p.BonusPotential != nil {
		e.BonusPotential = *p.BonusPotential
	}
	if p.TotalPackage != nil {
		e.TotalPackage = *p.TotalPackage
	}
	if p.ManagerID != nil {
		e.ManagerID = *p.ManagerID
	}
	if p.KPIs != nil {
		e.KPIs = slices.Clone(p.KPIs)
	}
	return e
}

// TouchesCompensation reports whether the patch changes salary or contribution.
func (p EmployeePatch) TouchesCompensation() bool {
	return p.Salary != nil || p.Superannuation != nil
}

// KPIPatch is a partial KPI. Same rules as EmployeePatch.
type KPIPatch struct {
	Name              *string     `json:"name,omitempty"`
	Description       *string     `json:"description,omitempty"`
	TargetValue       *float64    `json:"targetValue,omitempty"`
	Unit              *Unit       `json:"unit,omitempty"`
	PreferredTrend    *Trend      `json:"preferredTrend,omitempty"`
	TimePeriod        *TimePeriod `json:"timePeriod,omitempty"`
	Status            *KPIStatus  `json:"status,omitempty"`
	StartDate         *string     `json:"startDate,omitempty"`
	EndDate           *string     `json:"endDate,omitempty"`
	AssignedEmployees []string    `json:"assignedEmployees,omitempty"`
	UpdatedAt         *time.Time  `json:"updatedAt,omitempty"`
}

// Apply merges the patch into k and returns the result.
func (p KPIPatch) Apply(k KPI) KPI {
	if p.Name != nil {
		k.Name = *p.Name
	}
	if p.Description != nil {
		k.Description = *p.Description
	}
	if p.TargetValue != nil {
		k.TargetValue = *p.TargetValue
	}
	if p.Unit != nil {
		k.Unit = *p.Unit
	}
	if p.PreferredTrend != nil {
		k.PreferredTrend = *p.PreferredTrend
	}
	if p.TimePeriod != nil {
		k.TimePeriod = *p.TimePeriod
	}
	if p.Status != nil {
		k.Status = *p.Status
	}
	if p.StartDate != nil {
		k.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		k.EndDate = *p.EndDate
	}
	if p.AssignedEmployees != nil {
		k.AssignedEmployees = slices.Clone(p.AssignedEmployees)
	}
	if p.UpdatedAt != nil {
		k.UpdatedAt = *p.UpdatedAt
	}
	return k
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
