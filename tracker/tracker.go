/*
Package tracker is the facade over the stores, the entry cache and the CSV
codec.

PURPOSE:
  Consumers (the HTTP layer, the CLI) talk to a Tracker instead of joining
  stores themselves. Every operation that touches more than one collection
  lives here, so decisions such as "what happens to reports when their
  manager is removed" are made once.

KEY OPERATIONS:
  SubmitEntry:     Records a KPI entry in the KPI store and the cache
  RemoveEmployee:  Removes an employee with an explicit CascadePolicy
  UpdateEmployee:  Merges a patch and keeps TotalPackage consistent
  ArchiveKPI:      Soft-archives a KPI, stamping its end date
  Import / Export: CSV round-trips against the current store contents

  Reports and the integrity audit live in reports.go and integrity.go.

STORE SEMANTICS:
  The stores are used as they are: no uniqueness checks, weak references,
  merge updates for employees and KPIs, full replacement for weekly
  entries. The facade stamps ids and timestamps the way the entry forms do.

SEE ALSO:
  - model/store.go: Store interfaces
  - cache/cache.go: Durable entry cache
  - csvcodec:       Column layouts
*/
package tracker

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/cache"
	"github.com/warp/kpi-tracker/model"
)

// Tracker coordinates the three stores and the entry cache.
type Tracker struct {
	employees model.EmployeeStore
	kpis      model.KPIStore
	weekly    model.WeeklyEntryStore
	cache     *cache.Cache

	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Tracker)

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// New builds a Tracker. The cache is expected to be opened already.
func New(employees model.EmployeeStore, kpis model.KPIStore, weekly model.WeeklyEntryStore, c *cache.Cache, opts ...Option) *Tracker {
	t := &Tracker{
		employees: employees,
		kpis:      kpis,
		weekly:    weekly,
		cache:     c,
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     model.NewID,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Cache returns the entry cache.
func (t *Tracker) Cache() *cache.Cache {
	return t.cache
}

// =============================================================================
// KPI ENTRIES
// =============================================================================

// EntryInput is a KPI observation as submitted by a user.
type EntryInput struct {
	KPIID      string
	EmployeeID string
	Value      float64
	Week       string
	Notes      string
}

// SubmitEntry records an observation. The entry is appended to the KPI
// store's entry list and added to the cache, which queues it for sync.
func (t *Tracker) SubmitEntry(ctx context.Context, in EntryInput) (model.KPIEntry, error) {
	entry := model.KPIEntry{
		ID:         t.newID(),
		KPIID:      in.KPIID,
		EmployeeID: in.EmployeeID,
		Value:      in.Value,
		Week:       in.Week,
		Notes:      in.Notes,
		CreatedAt:  t.now(),
	}
	if err := t.kpis.AddEntry(ctx, entry); err != nil {
		return model.KPIEntry{}, fmt.Errorf("add entry to kpi store: %w", err)
	}
	t.cache.AddEntry(ctx, entry)
	return entry, nil
}

// Entries returns KPI store entries for an employee, optionally limited to
// one week. An empty employeeID matches every employee.
func (t *Tracker) Entries(ctx context.Context, employeeID, week string) ([]model.KPIEntry, error) {
	var (
		entries []model.KPIEntry
		err     error
	)
	if employeeID == "" {
		entries, err = t.kpis.Entries(ctx)
	} else {
		entries, err = t.kpis.EntriesByEmployee(ctx, employeeID)
	}
	if err != nil {
		return nil, err
	}
	if week != "" {
		entries = slices.DeleteFunc(entries, func(e model.KPIEntry) bool { return e.Week != week })
	}
	return entries, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// AddEmployee stores a new employee with a fresh id, an empty KPI list and
// a computed total package.
func (t *Tracker) AddEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
	e.ID = t.newID()
	e.TotalPackage = model.TotalPackage(e.Salary, e.Superannuation.Contribution)
	if e.KPIs == nil {
		e.KPIs = []string{}
	}
	if err := t.employees.Add(ctx, e); err != nil {
		return model.Employee{}, fmt.Errorf("add employee: %w", err)
	}
	return e, nil
}

// Employee returns the employee with id or ErrEmployeeNotFound.
func (t *Tracker) Employee(ctx context.Context, id string) (*model.Employee, error) {
	e, err := t.employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrEmployeeNotFound, id)
	}
	return e, nil
}

func (t *Tracker) Employees(ctx context.Context) ([]model.Employee, error) {
	return t.employees.List(ctx)
}

// DirectReports lists employees whose manager is id.
func (t *Tracker) DirectReports(ctx context.Context, id string) ([]model.Employee, error) {
	return t.employees.ByManager(ctx, id)
}

func (t *Tracker) Department(ctx context.Context, name string) ([]model.Employee, error) {
	return t.employees.ByDepartment(ctx, name)
}

// UpdateEmployee merges patch into the employee. When salary or
// superannuation change, TotalPackage is recomputed from the merged values.
func (t *Tracker) UpdateEmployee(ctx context.Context, id string, patch model.EmployeePatch) (*model.Employee, error) {
	current, err := t.Employee(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.TouchesCompensation() {
		merged := patch.Apply(*current)
		patch.TotalPackage = model.Ptr(model.TotalPackage(merged.Salary, merged.Superannuation.Contribution))
	}
	if err := t.employees.MergeUpdate(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("update employee %s: %w", id, err)
	}
	return t.Employee(ctx, id)
}

// CascadePolicy decides what RemoveEmployee does with references to the
// removed employee.
type CascadePolicy int

const (
	// KeepReferences removes only the employee record. Reports keep their
	// ManagerID and KPIs keep the id among their assignees.
	KeepReferences CascadePolicy = iota
	// ClearReferences also clears ManagerID on direct reports and removes
	// the id from every KPI's assignees.
	ClearReferences
)

func (p CascadePolicy) String() string {
	if p == ClearReferences {
		return "clear-references"
	}
	return "keep-references"
}

// RemoveEmployee deletes an employee. KPI entries and weekly entries are
// history and are never deleted, whatever the policy.
func (t *Tracker) RemoveEmployee(ctx context.Context, id string, policy CascadePolicy) error {
	if _, err := t.Employee(ctx, id); err != nil {
		return err
	}
	if err := t.employees.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove employee %s: %w", id, err)
	}
	if policy == KeepReferences {
		t.logger.Info("employee removed", zap.String("id", id), zap.Stringer("policy", policy))
		return nil
	}

	reports, err := t.employees.ByManager(ctx, id)
	if err != nil {
		return err
	}
	for _, r := range reports {
		if err := t.employees.MergeUpdate(ctx, r.ID, model.EmployeePatch{ManagerID: model.Ptr("")}); err != nil {
			return fmt.Errorf("clear manager of %s: %w", r.ID, err)
		}
	}

	kpis, err := t.kpis.List(ctx)
	if err != nil {
		return err
	}
	unassigned := 0
	for _, k := range kpis {
		if !k.IsAssigned(id) {
			continue
		}
		remaining := slices.DeleteFunc(slices.Clone(k.AssignedEmployees), func(a string) bool { return a == id })
		patch := model.KPIPatch{AssignedEmployees: remaining, UpdatedAt: model.Ptr(t.now())}
		if err := t.kpis.MergeUpdate(ctx, k.ID, patch); err != nil {
			return fmt.Errorf("unassign %s from kpi %s: %w", id, k.ID, err)
		}
		unassigned++
	}

	t.logger.Info("employee removed",
		zap.String("id", id),
		zap.Stringer("policy", policy),
		zap.Int("reports_cleared", len(reports)),
		zap.Int("kpis_unassigned", unassigned))
	return nil
}

// =============================================================================
// KPIS
// =============================================================================

// CreateKPI stores a new KPI with a fresh id and creation timestamps. An
// empty status defaults to active.
func (t *Tracker) CreateKPI(ctx context.Context, k model.KPI) (model.KPI, error) {
	now := t.now()
	k.ID = t.newID()
	k.CreatedAt = now
	k.UpdatedAt = now
	if k.Status == "" {
		k.Status = model.KPIActive
	}
	if k.AssignedEmployees == nil {
		k.AssignedEmployees = []string{}
	}
	if err := t.kpis.Add(ctx, k); err != nil {
		return model.KPI{}, fmt.Errorf("add kpi: %w", err)
	}
	return k, nil
}

// KPI returns the KPI with id or ErrKPINotFound.
func (t *Tracker) KPI(ctx context.Context, id string) (*model.KPI, error) {
	k, err := t.kpis.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrKPINotFound, id)
	}
	return k, nil
}

func (t *Tracker) KPIs(ctx context.Context) ([]model.KPI, error) {
	return t.kpis.List(ctx)
}

// UpdateKPI merges patch into the KPI and refreshes UpdatedAt.
func (t *Tracker) UpdateKPI(ctx context.Context, id string, patch model.KPIPatch) (*model.KPI, error) {
	if _, err := t.KPI(ctx, id); err != nil {
		return nil, err
	}
	patch.UpdatedAt = model.Ptr(t.now())
	if err := t.kpis.MergeUpdate(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("update kpi %s: %w", id, err)
	}
	return t.KPI(ctx, id)
}

// ArchiveKPI marks the KPI inactive and sets its end date. An empty endDate
// means today. Entries recorded against the KPI are kept.
func (t *Tracker) ArchiveKPI(ctx context.Context, id, endDate string) (*model.KPI, error) {
	if _, err := t.KPI(ctx, id); err != nil {
		return nil, err
	}
	now := t.now()
	if endDate == "" {
		endDate = now.Format(time.DateOnly)
	}
	if err := t.kpis.Archive(ctx, id); err != nil {
		return nil, fmt.Errorf("archive kpi %s: %w", id, err)
	}
	patch := model.KPIPatch{EndDate: &endDate, UpdatedAt: &now}
	if err := t.kpis.MergeUpdate(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("archive kpi %s: %w", id, err)
	}
	return t.KPI(ctx, id)
}

// ReactivateKPI marks an archived KPI active again and clears its end date.
func (t *Tracker) ReactivateKPI(ctx context.Context, id string) (*model.KPI, error) {
	return t.UpdateKPI(ctx, id, model.KPIPatch{
		Status:  model.Ptr(model.KPIActive),
		EndDate: model.Ptr(""),
	})
}

// KPIEntries returns the entries the KPI store holds for a KPI.
func (t *Tracker) KPIEntries(ctx context.Context, kpiID string) ([]model.KPIEntry, error) {
	return t.kpis.EntriesByKPI(ctx, kpiID)
}

// =============================================================================
// WEEKLY ENTRIES
// =============================================================================

// AddWeeklyEntry stores a new weekly report with a fresh id and CreatedAt.
func (t *Tracker) AddWeeklyEntry(ctx context.Context, w model.WeeklyEntry) (model.WeeklyEntry, error) {
	w.ID = t.newID()
	w.CreatedAt = t.now()
	w.UpdatedAt = nil
	if w.KPIEntries == nil {
		w.KPIEntries = []model.KPIValue{}
	}
	if err := t.weekly.Add(ctx, w); err != nil {
		return model.WeeklyEntry{}, fmt.Errorf("add weekly entry: %w", err)
	}
	return w, nil
}

// ReplaceWeeklyEntry swaps the whole report. The id and CreatedAt of the
// existing record are kept and UpdatedAt is stamped.
func (t *Tracker) ReplaceWeeklyEntry(ctx context.Context, id string, w model.WeeklyEntry) (*model.WeeklyEntry, error) {
	existing, err := t.weeklyEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	now := t.now()
	w.ID = id
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = &now
	if w.KPIEntries == nil {
		w.KPIEntries = []model.KPIValue{}
	}
	if err := t.weekly.Replace(ctx, id, w); err != nil {
		return nil, fmt.Errorf("replace weekly entry %s: %w", id, err)
	}
	return &w, nil
}

func (t *Tracker) weeklyEntry(ctx context.Context, id string) (*model.WeeklyEntry, error) {
	all, err := t.weekly.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", model.ErrWeeklyEntryNotFound, id)
}

func (t *Tracker) WeeklyEntries(ctx context.Context) ([]model.WeeklyEntry, error) {
	return t.weekly.List(ctx)
}

func (t *Tracker) WeeklyEntriesFor(ctx context.Context, employeeID string) ([]model.WeeklyEntry, error) {
	return t.weekly.ByEmployee(ctx, employeeID)
}

// WeeklyEntryFor returns the employee's report for week, or
// ErrWeeklyEntryNotFound.
func (t *Tracker) WeeklyEntryFor(ctx context.Context, employeeID, week string) (*model.WeeklyEntry, error) {
	w, err := t.weekly.ForWeek(ctx, employeeID, week)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: %s %s", model.ErrWeeklyEntryNotFound, employeeID, week)
	}
	return w, nil
}
