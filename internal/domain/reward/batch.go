package reward

import (
	"context"
	"log/slog"

	"kpiengine/internal/domain/period"
)

// Progress is told about each finished period of an all-time run.
type Progress func(p period.Period, done, total int)

// AllPeriods lists every month from the earliest hire date of any employee or
// manager up to the current month, oldest first.
func (s *Service) AllPeriods(ctx context.Context) ([]period.Period, error) {
	earliest, found, err := s.store.EarliestHireDate(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return period.Range(period.FromTime(earliest), period.FromTime(s.now().UTC())), nil
}

// EveryoneAllTime recomputes employee then manager rewards for every period
// since the first hire. A period that fails as a whole is recorded and the run
// moves on; only cancellation ends it early.
func (s *Service) EveryoneAllTime(ctx context.Context, t period.Type, progress Progress) (AllTimeSummary, error) {
	summary := AllTimeSummary{PeriodType: t, Failed: []Failure{}}
	if !t.Valid() {
		return summary, period.ErrInvalidType
	}
	periods, err := s.AllPeriods(ctx)
	if err != nil {
		return summary, err
	}
	summary.Periods = len(periods)

	for i, p := range periods {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		employees, err := s.CalculateAll(ctx, p, t)
		summary.EmployeeRewards += len(employees.Succeeded)
		summary.Failed = append(summary.Failed, employees.Failed...)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			slog.Warn("employee batch failed", "period", p.String(), "periodType", t, "err", err)
			summary.Failed = append(summary.Failed, Failure{Period: p.String(), Reason: "employee batch: " + err.Error()})
		}

		managers, err := s.CalculateAllManagers(ctx, p, t)
		summary.ManagerRewards += len(managers.Succeeded)
		summary.Failed = append(summary.Failed, managers.Failed...)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			slog.Warn("manager batch failed", "period", p.String(), "periodType", t, "err", err)
			summary.Failed = append(summary.Failed, Failure{Period: p.String(), Reason: "manager batch: " + err.Error()})
		}

		if progress != nil {
			progress(p, i+1, len(periods))
		}
	}
	return summary, nil
}
