package kpi

import (
	"context"

	"kpiengine/internal/domain/period"
)

// EmployeeHistory discovers the months in which the employee had KPI values or
// task deadlines, newest first and never past the current month, and
// recomputes the monthly KPI for each of them.
func (s *Service) EmployeeHistory(ctx context.Context, employeeID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	current := period.FromTime(s.now().UTC())
	months, err := s.store.EmployeeActivityMonths(ctx, employeeID, current.AddMonths(1).Start(), limit)
	if err != nil {
		return nil, err
	}
	in, err := s.loadInputs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0, len(months))
	for _, month := range months {
		p := period.FromTime(month)
		breakdown, err := s.breakdown(ctx, in, employeeID, p, period.Monthly)
		if err != nil {
			return nil, err
		}
		out = append(out, HistoryEntry{
			Period:     p.String(),
			TasksKPI:   breakdown.TasksKPI,
			ManagerKPI: breakdown.ManagerKPI,
			TotalKPI:   breakdown.TotalKPI,
		})
	}
	return out, nil
}
