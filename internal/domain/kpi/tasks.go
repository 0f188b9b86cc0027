package kpi

import (
	"context"

	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/period"
)

// WeightTable indexes importance weights by label. Non-positive weights are
// dropped so they contribute nothing.
func WeightTable(weights []ImportanceWeight) map[string]int {
	table := make(map[string]int, len(weights))
	for _, w := range weights {
		if w.Weight > 0 {
			table[w.Importance] = w.Weight
		}
	}
	return table
}

// ComputeTaskKPI returns the importance-weighted share of completed tasks as a
// percentage rounded to two places. Tasks whose importance has no weight count
// for nothing on either side of the ratio.
func ComputeTaskKPI(tasks []Task, weights map[string]int) decimal.Decimal {
	completed := map[string]int64{}
	total := map[string]int64{}
	for _, task := range tasks {
		total[task.Importance]++
		if task.Status == TaskStatusCompleted {
			completed[task.Importance]++
		}
	}

	var completedWeight, totalWeight int64
	for importance, count := range total {
		weight := int64(weights[importance])
		totalWeight += weight * count
		completedWeight += weight * completed[importance]
	}
	if totalWeight == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(completedWeight).Mul(hundred).Div(decimal.NewFromInt(totalWeight)).Round(2)
}

func (s *Service) TaskKPI(ctx context.Context, employeeID string, p period.Period, t period.Type) (decimal.Decimal, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return decimal.Zero, err
	}
	in, err := s.loadInputs(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.taskKPI(ctx, in, employeeID, p, t)
}

func (s *Service) taskKPI(ctx context.Context, in inputs, employeeID string, p period.Period, t period.Type) (decimal.Decimal, error) {
	from, until := p.Window(t)
	tasks, err := s.store.ListEmployeeTasks(ctx, employeeID, from, until)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeTaskKPI(tasks, in.weights), nil
}
