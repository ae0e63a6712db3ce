package tracker

import "context"

// IssueKind classifies a dangling reference.
type IssueKind string

const (
	DanglingManager       IssueKind = "dangling-manager"
	DanglingAssignee      IssueKind = "dangling-assignee"
	EntryUnknownKPI       IssueKind = "entry-unknown-kpi"
	EntryUnknownEmployee  IssueKind = "entry-unknown-employee"
	WeeklyUnknownEmployee IssueKind = "weekly-unknown-employee"
	WeeklyUnknownKPI      IssueKind = "weekly-unknown-kpi"
)

// Issue is one reference that points at nothing.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	RecordID string    `json:"recordId"`
	Ref      string    `json:"ref"`
}

// IntegrityReport lists every dangling reference found.
type IntegrityReport struct {
	Employees     int     `json:"employees"`
	KPIs          int     `json:"kpis"`
	Entries       int     `json:"entries"`
	WeeklyEntries int     `json:"weeklyEntries"`
	Issues        []Issue `json:"issues"`
}

// OK reports whether no issue was found.
func (r IntegrityReport) OK() bool {
	return len(r.Issues) == 0
}

// Integrity audits cross-store references. References are weak, so
// removals with KeepReferences and lenient imports can leave records
// pointing at ids that no longer exist; this reports them without fixing
// anything.
func (t *Tracker) Integrity(ctx context.Context) (IntegrityReport, error) {
	employees, err := t.employees.List(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	kpis, err := t.kpis.List(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	entries, err := t.kpis.Entries(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	weekly, err := t.weekly.List(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}

	report := IntegrityReport{
		Employees:     len(employees),
		KPIs:          len(kpis),
		Entries:       len(entries),
		WeeklyEntries: len(weekly),
		Issues:        []Issue{},
	}
	add := func(kind IssueKind, recordID, ref string) {
		report.Issues = append(report.Issues, Issue{Kind: kind, RecordID: recordID, Ref: ref})
	}

	employeeIDs := make(map[string]bool, len(employees))
	for _, e := range employees {
		employeeIDs[e.ID] = true
	}
	kpiIDs := make(map[string]bool, len(kpis))
	for _, k := range kpis {
		kpiIDs[k.ID] = true
	}

	for _, e := range employees {
		if e.ManagerID != "" && !employeeIDs[e.ManagerID] {
			add(DanglingManager, e.ID, e.ManagerID)
		}
	}
	for _, k := range kpis {
		for _, a := range k.AssignedEmployees {
			if !employeeIDs[a] {
				add(DanglingAssignee, k.ID, a)
			}
		}
	}
	for _, e := range entries {
		if !kpiIDs[e.KPIID] {
			add(EntryUnknownKPI, e.ID, e.KPIID)
		}
		if !employeeIDs[e.EmployeeID] {
			add(EntryUnknownEmployee, e.ID, e.EmployeeID)
		}
	}
	for _, w := range weekly {
		if !employeeIDs[w.EmployeeID] {
			add(WeeklyUnknownEmployee, w.ID, w.EmployeeID)
		}
		for _, v := range w.KPIEntries {
			if !kpiIDs[v.KPIID] {
				add(WeeklyUnknownKPI, w.ID, v.KPIID)
			}
		}
	}
	return report, nil
}
