package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/warp/kpi-tracker/model"
)

// =============================================================================
// KPIS
// =============================================================================

// KPIs is an in-memory model.KPIStore. The entry list is append-only.
type KPIs struct {
	mu      sync.RWMutex
	kpis    []model.KPI
	entries []model.KPIEntry
}

var _ model.KPIStore = (*KPIs)(nil)

func NewKPIs() *KPIs {
	return &KPIs{}
}

func (s *KPIs) Add(_ context.Context, k model.KPI) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kpis = append(s.kpis, cloneKPI(k))
	return nil
}

func (s *KPIs) MergeUpdate(_ context.Context, id string, patch model.KPIPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.kpis {
		if s.kpis[i].ID == id {
			s.kpis[i] = patch.Apply(s.kpis[i])
		}
	}
	return nil
}

// Archive flips the KPI to inactive. Re-activation is still possible through
// MergeUpdate.
func (s *KPIs) Archive(ctx context.Context, id string) error {
	return s.MergeUpdate(ctx, id, model.KPIPatch{Status: model.Ptr(model.KPIInactive)})
}

func (s *KPIs) Get(_ context.Context, id string) (*model.KPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.kpis {
		if k.ID == id {
			c := cloneKPI(k)
			return &c, nil
		}
	}
	return nil, nil
}

func (s *KPIs) List(_ context.Context) ([]model.KPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.KPI, 0, len(s.kpis))
	for _, k := range s.kpis {
		result = append(result, cloneKPI(k))
	}
	return result, nil
}

// AddEntry appends to the store-local entry list.
func (s *KPIs) AddEntry(_ context.Context, e model.KPIEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *KPIs) EntriesByKPI(_ context.Context, kpiID string) ([]model.KPIEntry, error) {
	return s.filterEntries(func(e model.KPIEntry) bool { return e.KPIID == kpiID }), nil
}

func (s *KPIs) EntriesByEmployee(_ context.Context, employeeID string) ([]model.KPIEntry, error) {
	return s.filterEntries(func(e model.KPIEntry) bool { return e.EmployeeID == employeeID }), nil
}

func (s *KPIs) Entries(_ context.Context) ([]model.KPIEntry, error) {
	return s.filterEntries(func(model.KPIEntry) bool { return true }), nil
}

func (s *KPIs) filterEntries(keep func(model.KPIEntry) bool) []model.KPIEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []model.KPIEntry{}
	for _, e := range s.entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

func cloneKPI(k model.KPI) model.KPI {
	k.AssignedEmployees = slices.Clone(k.AssignedEmployees)
	return k
}
