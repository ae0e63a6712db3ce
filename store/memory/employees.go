// Package memory provides in-memory implementations of the model store
// interfaces.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/warp/kpi-tracker/model"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// Employees is an in-memory model.EmployeeStore. Records keep insertion order.
type Employees struct {
	mu        sync.RWMutex
	employees []model.Employee
}

var _ model.EmployeeStore = (*Employees)(nil)

func NewEmployees() *Employees {
	return &Employees{}
}

// Add appends e. No uniqueness check.
func (s *Employees) Add(_ context.Context, e model.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = append(s.employees, cloneEmployee(e))
	return nil
}

// MergeUpdate applies patch to every record with the given id.
func (s *Employees) MergeUpdate(_ context.Context, id string, patch model.EmployeePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.employees {
		if s.employees[i].ID == id {
			s.employees[i] = patch.Apply(s.employees[i])
		}
	}
	return nil
}

// Remove filters out every record with the given id. Nothing else changes:
// reports keep their ManagerID and KPIs keep the id in their assignees.
func (s *Employees) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.employees[:0]
	for _, e := range s.employees {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	clear(s.employees[len(kept):])
	s.employees = kept
	return nil
}

func (s *Employees) Get(_ context.Context, id string) (*model.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if e.ID == id {
			c := cloneEmployee(e)
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Employees) ByManager(_ context.Context, managerID string) ([]model.Employee, error) {
	return s.filter(func(e model.Employee) bool { return e.ManagerID == managerID }), nil
}

func (s *Employees) ByDepartment(_ context.Context, department string) ([]model.Employee, error) {
	return s.filter(func(e model.Employee) bool { return e.Department == department }), nil
}

func (s *Employees) List(_ context.Context) ([]model.Employee, error) {
	return s.filter(func(model.Employee) bool { return true }), nil
}

func (s *Employees) filter(keep func(model.Employee) bool) []model.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []model.Employee{}
	for _, e := range s.employees {
		if keep(e) {
			result = append(result, cloneEmployee(e))
		}
	}
	return result
}

func cloneEmployee(e model.Employee) model.Employee {
	e.KPIs = slices.Clone(e.KPIs)
	return e
}
