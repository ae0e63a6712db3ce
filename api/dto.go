/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Request types carry
  validator tags mirroring the entry forms; responses mostly reuse the
  model types, whose JSON layout is already the public contract.

NAMING CONVENTION:
  - *Request:  Request body types from clients
  - *Response: Wrappers for responses that combine several values

TYPES:
  Employee:  CreateEmployeeRequest, UpdateEmployeeRequest
  KPI:       CreateKPIRequest, UpdateKPIRequest, ArchiveKPIRequest
  Entries:   SubmitEntryRequest, KPIEntriesResponse
  Weekly:    WeeklyEntryRequest
  Cache:     SyncResponse
  CSV:       ImportResponse

VALIDATION:
  Tags are checked by Handler.decode before anything reaches the tracker.
  The tracker and the stores accept whatever they are given.

SEE ALSO:
  - handlers.go:   Uses these types
  - validation.go: Validator setup and messages
*/
package api

import (
	"time"

	"github.com/warp/kpi-tracker/model"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type SuperannuationRequest struct {
	Contribution float64 `json:"contribution" validate:"gte=0"`
}

type CreateEmployeeRequest struct {
	EmployeeID     string                `json:"employeeId" validate:"required"`
	Name           string                `json:"name" validate:"required"`
	Department     string                `json:"department" validate:"required"`
	Status         model.EmployeeStatus  `json:"status" validate:"required,oneof=active inactive"`
	StartDate      string                `json:"startDate" validate:"required"`
	EndDate        string                `json:"endDate"`
	Salary         float64               `json:"salary" validate:"gte=0"`
	Superannuation SuperannuationRequest `json:"superannuation"`
	BonusPotential float64               `json:"bonusPotential" validate:"gte=0"`
	ManagerID      string                `json:"managerId"`
}

func (r CreateEmployeeRequest) toModel() model.Employee {
	return model.Employee{
		EmployeeID:     r.EmployeeID,
		Name:           r.Name,
		Department:     r.Department,
		Status:         r.Status,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Salary:         r.Salary,
		Superannuation: model.Superannuation{Contribution: r.Superannuation.Contribution},
		BonusPotential: r.BonusPotential,
		ManagerID:      r.ManagerID,
	}
}

// UpdateEmployeeRequest is a partial update. Absent fields are left alone.
type UpdateEmployeeRequest struct {
	EmployeeID     *string                `json:"employeeId" validate:"omitnil,min=1"`
	Name           *string                `json:"name" validate:"omitnil,min=1"`
	Department     *string                `json:"department" validate:"omitnil,min=1"`
	Status         *model.EmployeeStatus  `json:"status" validate:"omitnil,oneof=active inactive"`
	StartDate      *string                `json:"startDate" validate:"omitnil,min=1"`
	EndDate        *string                `json:"endDate"`
	Salary         *float64               `json:"salary" validate:"omitnil,gte=0"`
	Superannuation *SuperannuationRequest `json:"superannuation"`
	BonusPotential *float64               `json:"bonusPotential" validate:"omitnil,gte=0"`
	ManagerID      *string                `json:"managerId"`
	KPIs           []string               `json:"kpis"`
}

func (r UpdateEmployeeRequest) toPatch() model.EmployeePatch {
	p := model.EmployeePatch{
		EmployeeID:     r.EmployeeID,
		Name:           r.Name,
		Department:     r.Department,
		Status:         r.Status,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Salary:         r.Salary,
		BonusPotential: r.BonusPotential,
		ManagerID:      r.ManagerID,
		KPIs:           r.KPIs,
	}
	if r.Superannuation != nil {
		p.Superannuation = &model.Superannuation{Contribution: r.Superannuation.Contribution}
	}
	return p
}

// =============================================================================
// KPI
// =============================================================================

type CreateKPIRequest struct {
	Name              string           `json:"name" validate:"required"`
	Description       string           `json:"description" validate:"required"`
	TargetValue       float64          `json:"targetValue" validate:"gte=0"`
	Unit              model.Unit       `json:"unit" validate:"required,oneof=number percentage currency"`
	PreferredTrend    model.Trend      `json:"preferredTrend" validate:"required,oneof=higher lower"`
	TimePeriod        model.TimePeriod `json:"timePeriod" validate:"required,oneof=weekly monthly quarterly yearly"`
	Status            model.KPIStatus  `json:"status" validate:"omitempty,oneof=active inactive"`
	StartDate         string           `json:"startDate" validate:"required"`
	EndDate           string           `json:"endDate"`
	AssignedEmployees []string         `json:"assignedEmployees" validate:"min=1,dive,required"`
}

func (r CreateKPIRequest) toModel() model.KPI {
	return model.KPI{
		Name:              r.Name,
		Description:       r.Description,
		TargetValue:       r.TargetValue,
		Unit:              r.Unit,
		PreferredTrend:    r.PreferredTrend,
		TimePeriod:        r.TimePeriod,
		Status:            r.Status,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		AssignedEmployees: r.AssignedEmployees,
	}
}

type UpdateKPIRequest struct {
	Name              *string           `json:"name" validate:"omitnil,min=1"`
	Description       *string           `json:"description" validate:"omitnil,min=1"`
	TargetValue       *float64          `json:"targetValue" validate:"omitnil,gte=0"`
	Unit              *model.Unit       `json:"unit" validate:"omitnil,oneof=number percentage currency"`
	PreferredTrend    *model.Trend      `json:"preferredTrend" validate:"omitnil,oneof=higher lower"`
	TimePeriod        *model.TimePeriod `json:"timePeriod" validate:"omitnil,oneof=weekly monthly quarterly yearly"`
	Status            *model.KPIStatus  `json:"status" validate:"omitnil,oneof=active inactive"`
	StartDate         *string           `json:"startDate" validate:"omitnil,min=1"`
	EndDate           *string           `json:"endDate"`
	AssignedEmployees []string          `json:"assignedEmployees" validate:"omitnil,min=1,dive,required"`
}

func (r UpdateKPIRequest) toPatch() model.KPIPatch {
	return model.KPIPatch{
		Name:              r.Name,
		Description:       r.Description,
		TargetValue:       r.TargetValue,
		Unit:              r.Unit,
		PreferredTrend:    r.PreferredTrend,
		TimePeriod:        r.TimePeriod,
		Status:            r.Status,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		AssignedEmployees: r.AssignedEmployees,
	}
}

// ArchiveKPIRequest is optional; without an end date today is used.
type ArchiveKPIRequest struct {
	EndDate string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// KPI ENTRIES
// =============================================================================

type SubmitEntryRequest struct {
	KPIID      string  `json:"kpiId" validate:"required"`
	EmployeeID string  `json:"employeeId" validate:"required"`
	Value      float64 `json:"value" validate:"gte=0"`
	Week       string  `json:"week" validate:"required,isoweek"`
	Notes      string  `json:"notes"`
}

// KPIEntriesResponse shows both copies of a KPI's entries. They are
// written together but never reconciled, so they can differ.
type KPIEntriesResponse struct {
	Store []model.KPIEntry `json:"store"`
	Cache []model.KPIEntry `json:"cache"`
}

// =============================================================================
// WEEKLY ENTRIES
// =============================================================================

type KPIValueRequest struct {
	KPIID string  `json:"kpiId" validate:"required"`
	Value float64 `json:"value" validate:"gte=0"`
}

type WeeklyEntryRequest struct {
	EmployeeID          string            `json:"employeeId" validate:"required"`
	Week                string            `json:"week" validate:"required,isoweek"`
	KPIEntries          []KPIValueRequest `json:"kpiEntries" validate:"dive"`
	PerformanceRating   int               `json:"performanceRating" validate:"min=1,max=5"`
	RatingJustification string            `json:"ratingJustification" validate:"required"`
	CapacityPercentage  int               `json:"capacityPercentage" validate:"min=0,max=100"`
	CapacityFactors     string            `json:"capacityFactors"`
	WeeklyReflection    string            `json:"weeklyReflection"`
	SupportNeeded       string            `json:"supportNeeded"`
}

func (r WeeklyEntryRequest) toModel() model.WeeklyEntry {
	values := make([]model.KPIValue, 0, len(r.KPIEntries))
	for _, v := range r.KPIEntries {
		values = append(values, model.KPIValue{KPIID: v.KPIID, Value: v.Value})
	}
	return model.WeeklyEntry{
		EmployeeID:          r.EmployeeID,
		Week:                r.Week,
		KPIEntries:          values,
		PerformanceRating:   r.PerformanceRating,
		RatingJustification: r.RatingJustification,
		CapacityPercentage:  r.CapacityPercentage,
		CapacityFactors:     r.CapacityFactors,
		WeeklyReflection:    r.WeeklyReflection,
		SupportNeeded:       r.SupportNeeded,
	}
}

// =============================================================================
// CACHE / CSV / MISC
// =============================================================================

type SyncResponse struct {
	Synced   bool      `json:"synced"`
	Pending  int       `json:"pending"`
	LastSync time.Time `json:"lastSync"`
}

type ImportResponse struct {
	Kind     string `json:"kind"`
	Imported int    `json:"imported"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
