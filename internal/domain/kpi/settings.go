package kpi

import (
	"context"
	"fmt"
)

func (s *Service) Settings(ctx context.Context) (Settings, error) {
	settings, found, err := s.store.GetSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		return DefaultSettings(), nil
	}
	return settings, nil
}

func ValidateWeights(tasksWeight, managerWeight int) error {
	if tasksWeight < 0 || managerWeight < 0 || tasksWeight+managerWeight != 100 {
		return fmt.Errorf("%w: got %d + %d", ErrInvalidWeights, tasksWeight, managerWeight)
	}
	return nil
}

// UpdateSettings replaces the singleton settings row. Nothing is written when
// validation fails.
func (s *Service) UpdateSettings(ctx context.Context, tasksWeight, managerWeight, managerBonusWeight int, updatedBy string) (Settings, error) {
	if err := ValidateWeights(tasksWeight, managerWeight); err != nil {
		return Settings{}, err
	}
	if managerBonusWeight < 0 {
		return Settings{}, ErrInvalidBonusPercentage
	}
	settings := Settings{
		TasksWeight:        tasksWeight,
		ManagerWeight:      managerWeight,
		ManagerBonusWeight: managerBonusWeight,
		UpdatedBy:          updatedBy,
		UpdatedAt:          s.now().UTC(),
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
