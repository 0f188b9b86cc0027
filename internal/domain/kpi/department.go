package kpi

import (
	"context"

	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/period"
)

// AverageNonZero averages the non-zero values. ok is false when there are none.
func AverageNonZero(values []decimal.Decimal) (avg decimal.Decimal, ok bool) {
	sum := decimal.Zero
	count := int64(0)
	for _, v := range values {
		if v.IsZero() {
			continue
		}
		sum = sum.Add(v)
		count++
	}
	if count == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(count)), true
}

// DepartmentKPI averages monthly total KPI over the months covered by p and t.
// Each employee contributes the mean of their non-zero months; employees with
// no non-zero month are left out rather than counted as zero.
func (s *Service) DepartmentKPI(ctx context.Context, departmentID string, p period.Period, t period.Type) (DepartmentKPI, error) {
	if !t.Valid() {
		return DepartmentKPI{}, period.ErrInvalidType
	}
	out := DepartmentKPI{
		DepartmentID: departmentID,
		Period:       p.String(),
		PeriodType:   string(t),
		AverageKPI:   decimal.Zero,
	}

	employees, err := s.store.ListDepartmentEmployees(ctx, departmentID)
	if err != nil {
		return DepartmentKPI{}, err
	}
	if len(employees) == 0 {
		exists, err := s.store.DepartmentExists(ctx, departmentID)
		if err != nil {
			return DepartmentKPI{}, err
		}
		if !exists {
			return DepartmentKPI{}, ErrDepartmentNotFound
		}
		return out, nil
	}

	in, err := s.loadInputs(ctx)
	if err != nil {
		return DepartmentKPI{}, err
	}
	months := p.Months(t)
	var perEmployee []decimal.Decimal
	for _, employee := range employees {
		monthly := make([]decimal.Decimal, 0, len(months))
		for _, month := range months {
			if err := ctx.Err(); err != nil {
				return DepartmentKPI{}, err
			}
			breakdown, err := s.breakdown(ctx, in, employee.ID, month, period.Monthly)
			if err != nil {
				return DepartmentKPI{}, err
			}
			monthly = append(monthly, breakdown.TotalKPI)
		}
		if avg, ok := AverageNonZero(monthly); ok {
			perEmployee = append(perEmployee, avg)
		}
	}

	out.Employees = len(employees)
	out.Contributing = len(perEmployee)
	if avg, ok := AverageNonZero(perEmployee); ok {
		out.AverageKPI = avg.Round(2)
	}
	return out, nil
}

// DepartmentAverageKPI is DepartmentKPI reduced to its average.
func (s *Service) DepartmentAverageKPI(ctx context.Context, departmentID string, p period.Period, t period.Type) (decimal.Decimal, error) {
	dept, err := s.DepartmentKPI(ctx, departmentID, p, t)
	if err != nil {
		return decimal.Zero, err
	}
	return dept.AverageKPI, nil
}
