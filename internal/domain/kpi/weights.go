package kpi

import (
	"context"
	"fmt"
)

func (s *Service) ImportanceWeights(ctx context.Context) ([]ImportanceWeight, error) {
	return s.store.ListImportanceWeights(ctx)
}

func (s *Service) UpdateImportanceWeight(ctx context.Context, importance string, weight int) error {
	if !ValidImportance(importance) {
		return fmt.Errorf("%w: %q", ErrUnknownImportance, importance)
	}
	if weight <= 0 {
		return ErrInvalidWeight
	}
	return s.store.UpdateImportanceWeight(ctx, importance, weight)
}
