package kpi

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/period"
)

func validateIndicator(indicator Indicator) error {
	if strings.TrimSpace(indicator.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidIndicator)
	}
	if indicator.Weight < 0 || indicator.Weight > 100 {
		return fmt.Errorf("%w: weight must be between 0 and 100", ErrInvalidIndicator)
	}
	if !indicator.TargetValue.IsPositive() {
		return fmt.Errorf("%w: target value must be positive", ErrInvalidIndicator)
	}
	return nil
}

func (s *Service) ListIndicators(ctx context.Context) ([]Indicator, error) {
	return s.store.ListIndicators(ctx)
}

func (s *Service) CreateIndicator(ctx context.Context, indicator Indicator) (string, error) {
	if err := validateIndicator(indicator); err != nil {
		return "", err
	}
	return s.store.CreateIndicator(ctx, indicator)
}

func (s *Service) UpdateIndicator(ctx context.Context, indicator Indicator) error {
	if err := validateIndicator(indicator); err != nil {
		return err
	}
	if _, err := s.store.GetIndicator(ctx, indicator.ID); err != nil {
		return err
	}
	return s.store.UpdateIndicator(ctx, indicator)
}

func (s *Service) DeleteIndicator(ctx context.Context, indicatorID string) error {
	if _, err := s.store.GetIndicator(ctx, indicatorID); err != nil {
		return err
	}
	return s.store.DeleteIndicator(ctx, indicatorID)
}

// IndicatorWeightTotal reports whether indicator weights add up to 100. An
// unbalanced table is allowed; callers surface it as a warning.
func (s *Service) IndicatorWeightTotal(ctx context.Context) (IndicatorWeightTotal, error) {
	indicators, err := s.store.ListIndicators(ctx)
	if err != nil {
		return IndicatorWeightTotal{}, err
	}
	total := 0
	for _, indicator := range indicators {
		total += indicator.Weight
	}
	return IndicatorWeightTotal{Total: total, Balanced: total == 100}, nil
}

// SetKPIValue records a manager's assessment of one indicator for one month.
// The manager must run the employee's department.
func (s *Service) SetKPIValue(ctx context.Context, managerID, employeeID, indicatorID string, p period.Period, value decimal.Decimal) error {
	if _, err := s.store.GetIndicator(ctx, indicatorID); err != nil {
		return err
	}
	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	departmentID, err := s.store.ManagerDepartmentID(ctx, managerID)
	if err != nil {
		return err
	}
	if departmentID == "" || departmentID != employee.DepartmentID {
		return ErrNotEmployeesManager
	}
	return s.store.UpsertKPIValue(ctx, Value{
		EmployeeID:  employeeID,
		IndicatorID: indicatorID,
		Value:       value,
		Period:      p.Start(),
		SetBy:       managerID,
	})
}
