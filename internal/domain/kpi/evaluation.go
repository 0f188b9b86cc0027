package kpi

import (
	"context"

	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/period"
)

// Achievement converts one indicator value into a percentage of its target,
// capped at MaxAchievement. A non-positive target means the value is already a
// percentage and is taken as is, uncapped.
func Achievement(value, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return value
	}
	achievement := value.Mul(hundred).Div(target)
	if achievement.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(achievement, decimal.NewFromInt(MaxAchievement))
}

// ComputeManagerKPI weights each indicator's achievement and renormalises when
// the weights present do not add up to 100.
func ComputeManagerKPI(values []IndicatorValue) decimal.Decimal {
	weighted := decimal.Zero
	totalWeight := 0
	for _, v := range values {
		share := decimal.NewFromInt(int64(v.Weight)).Div(hundred)
		weighted = weighted.Add(Achievement(v.Value, v.TargetValue).Mul(share))
		totalWeight += v.Weight
	}
	if totalWeight > 0 && totalWeight != 100 {
		weighted = weighted.Mul(hundred).Div(decimal.NewFromInt(int64(totalWeight)))
	}
	return weighted.Round(2)
}

// ManagerKPI is always evaluated over the single anchor month of p, whatever
// granularity the caller asks the task side for.
func (s *Service) ManagerKPI(ctx context.Context, employeeID string, p period.Period) (decimal.Decimal, error) {
	values, err := s.store.ListEmployeeKPIValues(ctx, employeeID, p.Start())
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeManagerKPI(values), nil
}
