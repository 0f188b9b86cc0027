package kpi

import (
	"context"

	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/period"
)

// Combine weights the task and manager evaluation percentages by settings.
// Contributions are kept exact; only the total is rounded.
func Combine(tasksKPI, managerKPI decimal.Decimal, settings Settings) Breakdown {
	tasksContribution := tasksKPI.Mul(decimal.NewFromInt(int64(settings.TasksWeight))).Div(hundred)
	managerContribution := managerKPI.Mul(decimal.NewFromInt(int64(settings.ManagerWeight))).Div(hundred)
	return Breakdown{
		TasksKPI:            tasksKPI,
		ManagerKPI:          managerKPI,
		TasksWeight:         settings.TasksWeight,
		ManagerWeight:       settings.ManagerWeight,
		TasksContribution:   tasksContribution,
		ManagerContribution: managerContribution,
		TotalKPI:            tasksContribution.Add(managerContribution).Round(2),
	}
}

// Breakdown fails with ErrEmployeeNotFound for an unknown employee instead of
// reporting an all-zero KPI.
func (s *Service) Breakdown(ctx context.Context, employeeID string, p period.Period, t period.Type) (Breakdown, error) {
	if !t.Valid() {
		return Breakdown{}, period.ErrInvalidType
	}
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return Breakdown{}, err
	}
	in, err := s.loadInputs(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	return s.breakdown(ctx, in, employeeID, p, t)
}

func (s *Service) TotalKPI(ctx context.Context, employeeID string, p period.Period, t period.Type) (decimal.Decimal, error) {
	breakdown, err := s.Breakdown(ctx, employeeID, p, t)
	if err != nil {
		return decimal.Zero, err
	}
	return breakdown.TotalKPI, nil
}

func (s *Service) breakdown(ctx context.Context, in inputs, employeeID string, p period.Period, t period.Type) (Breakdown, error) {
	tasksKPI, err := s.taskKPI(ctx, in, employeeID, p, t)
	if err != nil {
		return Breakdown{}, err
	}
	managerKPI, err := s.ManagerKPI(ctx, employeeID, p)
	if err != nil {
		return Breakdown{}, err
	}
	out := Combine(tasksKPI, managerKPI, in.settings)
	out.EmployeeID = employeeID
	out.Period = p.String()
	out.PeriodType = string(t)
	return out, nil
}

// AllEmployeesKPI computes the breakdown of every employee for one period.
func (s *Service) AllEmployeesKPI(ctx context.Context, p period.Period, t period.Type) ([]EmployeeKPI, error) {
	if !t.Valid() {
		return nil, period.ErrInvalidType
	}
	in, err := s.loadInputs(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EmployeeKPI, 0, len(employees))
	for _, employee := range employees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		breakdown, err := s.breakdown(ctx, in, employee.ID, p, t)
		if err != nil {
			return nil, err
		}
		out = append(out, EmployeeKPI{Employee: employee, Breakdown: breakdown})
	}
	return out, nil
}
