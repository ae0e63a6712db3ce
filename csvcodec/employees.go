package csvcodec

import (
	"io"

	"github.com/warp/kpi-tracker/model"
)

// Employee columns, in export order.
const (
	ColName              = "Name"
	ColEmployeeID        = "Employee ID"
	ColDepartment        = "Department"
	ColStatus            = "Status"
	ColStartDate         = "Start Date"
	ColEndDate           = "End Date"
	ColSalary            = "Salary"
	ColSuperannuation    = "Superannuation Rate"
	ColBonusPotential    = "Bonus Potential"
	ColManagerEmployeeID = "Manager Employee ID"
)

var employeeHeader = []string{
	ColName, ColEmployeeID, ColDepartment, ColStatus, ColStartDate, ColEndDate,
	ColSalary, ColSuperannuation, ColBonusPotential, ColManagerEmployeeID,
}

// ExportEmployees writes one row per employee. The manager is written as
// the manager's employee code, looked up in the same collection; an
// unknown manager is written as an empty cell.
func ExportEmployees(w io.Writer, employees []model.Employee) error {
	idx := indexEmployees(employees)
	cw := newWriter(w)
	cw.header(employeeHeader...)
	for _, e := range employees {
		cw.row(
			quoted(e.Name),
			plain(e.EmployeeID),
			quoted(e.Department),
			plain(string(e.Status)),
			plain(e.StartDate),
			plain(e.EndDate),
			number(e.Salary),
			number(e.Superannuation.Contribution),
			number(e.BonusPotential),
			plain(idx.code(e.ManagerID)),
		)
	}
	return cw.flush()
}

// ImportEmployees parses employees. Manager codes are resolved against
// existing; rows get fresh ids, no KPIs, and a total package computed from
// salary and superannuation rate.
func ImportEmployees(r io.Reader, existing []model.Employee, opts ...Option) ([]model.Employee, error) {
	o := buildOptions(opts)
	_, rows, err := readRows(r, &o)
	if err != nil {
		return nil, err
	}

	idx := indexEmployees(existing)
	employees := make([]model.Employee, 0, len(rows))
	for _, row := range rows {
		salary, err := row.floatCell(ColSalary)
		if err != nil {
			return nil, err
		}
		rate, err := row.floatCell(ColSuperannuation)
		if err != nil {
			return nil, err
		}
		bonus, err := row.floatCell(ColBonusPotential)
		if err != nil {
			return nil, err
		}

		employees = append(employees, model.Employee{
			ID:             o.newID(),
			EmployeeID:     row.get(ColEmployeeID),
			Name:           row.get(ColName),
			Department:     row.get(ColDepartment),
			Status:         model.EmployeeStatus(row.get(ColStatus)),
			StartDate:      row.get(ColStartDate),
			EndDate:        row.optional(ColEndDate),
			Salary:         salary,
			Superannuation: model.Superannuation{Contribution: rate},
			BonusPotential: bonus,
			TotalPackage:   model.TotalPackage(salary, rate),
			ManagerID:      idx.id(row.get(ColManagerEmployeeID)),
			KPIs:           []string{},
		})
	}
	return employees, nil
}
