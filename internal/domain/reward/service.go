package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"kpiengine/internal/domain/period"
)

type Service struct {
	store    StoreAPI
	kpi      KPISource
	formula  Formula
	workers  int
	recorder Recorder
	locks    *keyLocks
	now      func() time.Time
}

type Option func(*Service)

func WithFormula(formula Formula) Option {
	return func(s *Service) {
		if formula != "" {
			s.formula = formula
		}
	}
}

// WithWorkers bounds how many subjects a batch computes concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store StoreAPI, kpi KPISource, opts ...Option) *Service {
	s := &Service{
		store:   store,
		kpi:     kpi,
		formula: FormulaStandard,
		workers: DefaultWorkers,
		locks:   newKeyLocks(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateEmployee computes and upserts one employee reward. An empty t is
// derived from the month of p.
func (s *Service) CalculateEmployee(ctx context.Context, employeeID string, p period.Period, t period.Type) (Reward, error) {
	out, err := s.calculateEmployee(ctx, employeeID, p, t)
	s.record(KindEmployee, err)
	return out, err
}

func (s *Service) calculateEmployee(ctx context.Context, employeeID string, p period.Period, t period.Type) (Reward, error) {
	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Reward{}, err
	}
	if !employee.BaseSalary.IsPositive() {
		return Reward{}, fmt.Errorf("employee %s: %w", employeeID, ErrBaseSalaryNotSet)
	}
	t, err = period.Resolve(p, t)
	if err != nil {
		return Reward{}, err
	}

	unlock := s.locks.Lock(rowKey(KindEmployee, employeeID, p, t))
	defer unlock()

	kpiTotal, err := s.kpi.TotalKPI(ctx, employeeID, p, t)
	if err != nil {
		return Reward{}, fmt.Errorf("employee %s kpi: %w", employeeID, err)
	}
	amounts := s.formula.Compute(employee.BaseSalary, kpiTotal, t)
	return s.store.UpsertReward(ctx, Reward{
		EmployeeID:  employeeID,
		Period:      p.Start(),
		PeriodType:  t,
		BaseSalary:  amounts.Base,
		KPITotal:    kpiTotal,
		BonusAmount: amounts.Bonus,
		TotalAmount: amounts.Total,
		Formula:     s.formula,
		UpdatedAt:   s.now().UTC(),
	})
}

// CalculateManager computes and upserts one manager reward from the average
// KPI of the manager's department.
func (s *Service) CalculateManager(ctx context.Context, managerID string, p period.Period, t period.Type) (ManagerReward, error) {
	out, err := s.calculateManager(ctx, managerID, p, t)
	s.record(KindManager, err)
	return out, err
}

func (s *Service) calculateManager(ctx context.Context, managerID string, p period.Period, t period.Type) (ManagerReward, error) {
	manager, err := s.store.GetManager(ctx, managerID)
	if err != nil {
		return ManagerReward{}, err
	}
	if !manager.BaseSalary.IsPositive() {
		return ManagerReward{}, fmt.Errorf("manager %s: %w", managerID, ErrBaseSalaryNotSet)
	}
	t, err = period.Resolve(p, t)
	if err != nil {
		return ManagerReward{}, err
	}
	if manager.DepartmentID == "" {
		return ManagerReward{}, fmt.Errorf("manager %s: %w", managerID, ErrDepartmentNotFound)
	}

	unlock := s.locks.Lock(rowKey(KindManager, managerID, p, t))
	defer unlock()

	employees, err := s.store.CountDepartmentEmployees(ctx, manager.DepartmentID)
	if err != nil {
		return ManagerReward{}, err
	}
	avg, err := s.kpi.DepartmentAverageKPI(ctx, manager.DepartmentID, p, t)
	if err != nil {
		return ManagerReward{}, fmt.Errorf("department %s kpi: %w", manager.DepartmentID, err)
	}
	amounts := s.formula.Compute(manager.BaseSalary, avg, t)
	return s.store.UpsertManagerReward(ctx, ManagerReward{
		ManagerID:        managerID,
		Period:           p.Start(),
		PeriodType:       t,
		BaseSalary:       amounts.Base,
		DepartmentID:     manager.DepartmentID,
		EmployeesCount:   employees,
		AvgDepartmentKPI: avg,
		BonusAmount:      amounts.Bonus,
		TotalAmount:      amounts.Total,
		Formula:          s.formula,
		UpdatedAt:        s.now().UTC(),
	})
}

// CalculateDepartment recomputes every employee of departmentID, or of the
// whole staff when departmentID is empty.
func (s *Service) CalculateDepartment(ctx context.Context, departmentID string, p period.Period, t period.Type) (BatchResult, error) {
	if departmentID != "" {
		exists, err := s.store.DepartmentExists(ctx, departmentID)
		if err != nil {
			return BatchResult{}, err
		}
		if !exists {
			return BatchResult{}, fmt.Errorf("department %s: %w", departmentID, ErrDepartmentNotFound)
		}
	}
	ids, err := s.store.ListEmployeeIDs(ctx, departmentID)
	if err != nil {
		return BatchResult{}, err
	}
	return s.runBatch(ctx, KindEmployee, ids, p, func(ctx context.Context, id string) error {
		_, err := s.CalculateEmployee(ctx, id, p, t)
		return err
	})
}

func (s *Service) CalculateAll(ctx context.Context, p period.Period, t period.Type) (BatchResult, error) {
	return s.CalculateDepartment(ctx, "", p, t)
}

// CalculateAllManagers covers every subject whose position is Manager; the
// CEO is never paid a department bonus.
func (s *Service) CalculateAllManagers(ctx context.Context, p period.Period, t period.Type) (BatchResult, error) {
	ids, err := s.store.ListManagerIDs(ctx, PositionManager)
	if err != nil {
		return BatchResult{}, err
	}
	return s.runBatch(ctx, KindManager, ids, p, func(ctx context.Context, id string) error {
		_, err := s.CalculateManager(ctx, id, p, t)
		return err
	})
}

// runBatch applies fn to every id with bounded parallelism. A failing unit is
// recorded and skipped. Cancellation stops new units from starting; the
// partial result is returned with the context error.
func (s *Service) runBatch(ctx context.Context, kind string, ids []string, p period.Period, fn func(context.Context, string) error) (BatchResult, error) {
	errs := make([]error, len(ids))
	ran := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		i, id := i, id
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			errs[i], ran[i] = fn(ctx, id), true
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Succeeded: []string{}, Failed: []Failure{}}
	for i, id := range ids {
		if !ran[i] {
			continue
		}
		if errs[i] == nil {
			result.Succeeded = append(result.Succeeded, id)
			continue
		}
		if errors.Is(errs[i], context.Canceled) || errors.Is(errs[i], context.DeadlineExceeded) {
			continue
		}
		slog.Warn("reward calculation failed", "kind", kind, "subjectId", id, "period", p.String(), "err", errs[i])
		result.Failed = append(result.Failed, Failure{ID: id, Period: p.String(), Reason: errs[i].Error()})
	}
	return result, ctx.Err()
}

func (s *Service) record(kind string, err error) {
	if s.recorder != nil {
		s.recorder.RecordReward(kind, err)
	}
}
