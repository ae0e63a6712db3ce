/*
store.go - Store interfaces for the three entity collections

PURPOSE:
  Defines the contract between consumers (the tracker facade, the HTTP
  layer, the CSV import flow) and whatever holds the data. The shipped
  implementation is in-memory (store/memory); a remote or persistent
  backing only needs to satisfy these interfaces.

UPDATE SEMANTICS:
  Two distinct write styles exist and callers depend on each:
  - MergeUpdate (employees, KPIs): only the fields set in the patch change
  - Replace (weekly entries):      the whole record is swapped

ABSENCE:
  Get / ForWeek return (nil, nil) when nothing matches. Writes that target
  a missing id are no-ops and return nil.

NO INTEGRITY CHECKS:
  Stores trust their inputs. Ids are not checked for uniqueness, references
  are not checked for existence and deletes never cascade.

SEE ALSO:
  - store/memory: In-memory implementations
  - tracker:      Cross-store operations and cascades
*/
package model

import "context"

// EmployeeStore owns the Employee collection.
type EmployeeStore interface {
	Add(ctx context.Context, e Employee) error
	MergeUpdate(ctx context.Context, id string, patch EmployeePatch) error
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Employee, error)
	ByManager(ctx context.Context, managerID string) ([]Employee, error)
	ByDepartment(ctx context.Context, department string) ([]Employee, error)
	List(ctx context.Context) ([]Employee, error)
}

// KPIStore owns KPI definitions and an append-only list of KPI entries.
// That entry list is separate from the durable cache in package cache.
type KPIStore interface {
	Add(ctx context.Context, k KPI) error
	MergeUpdate(ctx context.Context, id string, patch KPIPatch) error
	// Archive sets the status to inactive. Setting EndDate is up to the caller.
	Archive(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*KPI, error)
	List(ctx context.Context) ([]KPI, error)

	AddEntry(ctx context.Context, e KPIEntry) error
	EntriesByKPI(ctx context.Context, kpiID string) ([]KPIEntry, error)
	EntriesByEmployee(ctx context.Context, employeeID string) ([]KPIEntry, error)
	Entries(ctx context.Context) ([]KPIEntry, error)
}

// WeeklyEntryStore owns weekly self-reports.
type WeeklyEntryStore interface {
	Add(ctx context.Context, w WeeklyEntry) error
	Replace(ctx context.Context, id string, w WeeklyEntry) error
	ByEmployee(ctx context.Context, employeeID string) ([]WeeklyEntry, error)
	// ForWeek returns the first entry for employee and week. Duplicates are
	// allowed, so later matches are ignored.
	ForWeek(ctx context.Context, employeeID, week string) (*WeeklyEntry, error)
	List(ctx context.Context) ([]WeeklyEntry, error)
}
