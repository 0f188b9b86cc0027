package db

import (
	"context"

	"kpiengine/internal/domain/kpi"
	"kpiengine/internal/platform/querier"
)

// Seed makes sure the importance weight table and the settings row exist.
// Existing values are never overwritten.
func Seed(ctx context.Context, q querier.Querier) error {
	for _, w := range kpi.DefaultImportanceWeights() {
		if _, err := q.Exec(ctx, `
      INSERT INTO importance_weights (importance, weight)
      VALUES ($1, $2)
      ON CONFLICT (importance) DO NOTHING
    `, w.Importance, w.Weight); err != nil {
			return err
		}
	}
	defaults := kpi.DefaultSettings()
	_, err := q.Exec(ctx, `
    INSERT INTO kpi_settings (id, tasks_weight_percentage, manager_evaluation_percentage, manager_bonus_percentage)
    VALUES (1, $1, $2, $3)
    ON CONFLICT (id) DO NOTHING
  `, defaults.TasksWeight, defaults.ManagerWeight, defaults.ManagerBonusWeight)
	return err
}
