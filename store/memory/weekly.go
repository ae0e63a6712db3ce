package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/warp/kpi-tracker/model"
)

// =============================================================================
// WEEKLY ENTRIES
// =============================================================================

// WeeklyEntries is an in-memory model.WeeklyEntryStore.
// Duplicate (employee, week) pairs are accepted.
type WeeklyEntries struct {
	mu      sync.RWMutex
	entries []model.WeeklyEntry
}

var _ model.WeeklyEntryStore = (*WeeklyEntries)(nil)

func NewWeeklyEntries() *WeeklyEntries {
	return &WeeklyEntries{}
}

func (s *WeeklyEntries) Add(_ context.Context, w model.WeeklyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, cloneWeekly(w))
	return nil
}

// Replace swaps the whole record. Fields missing from w are lost, so callers
// build w from the old record plus their changes.
func (s *WeeklyEntries) Replace(_ context.Context, id string, w model.WeeklyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i] = cloneWeekly(w)
		}
	}
	return nil
}

func (s *WeeklyEntries) ByEmployee(_ context.Context, employeeID string) ([]model.WeeklyEntry, error) {
	return s.filter(func(w model.WeeklyEntry) bool { return w.EmployeeID == employeeID }), nil
}

func (s *WeeklyEntries) ForWeek(_ context.Context, employeeID, week string) (*model.WeeklyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.entries {
		if w.EmployeeID == employeeID && w.Week == week {
			c := cloneWeekly(w)
			return &c, nil
		}
	}
	return nil, nil
}

func (s *WeeklyEntries) List(_ context.Context) ([]model.WeeklyEntry, error) {
	return s.filter(func(model.WeeklyEntry) bool { return true }), nil
}

func (s *WeeklyEntries) filter(keep func(model.WeeklyEntry) bool) []model.WeeklyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []model.WeeklyEntry{}
	for _, w := range s.entries {
		if keep(w) {
			result = append(result, cloneWeekly(w))
		}
	}
	return result
}

func cloneWeekly(w model.WeeklyEntry) model.WeeklyEntry {
	w.KPIEntries = slices.Clone(w.KPIEntries)
	if w.UpdatedAt != nil {
		t := *w.UpdatedAt
		w.UpdatedAt = &t
	}
	return w
}
