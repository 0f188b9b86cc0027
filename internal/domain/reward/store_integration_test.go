package reward_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
	"kpiengine/internal/platform/config"
	"kpiengine/internal/platform/db"
)

func TestStoreUpsertKeepsOneRowPerPeriod(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, config.Config{DatabaseURL: dbURL, BatchWorkers: 4})
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.Migrate(ctx, pool, "../../../migrations"))
	require.NoError(t, db.Seed(ctx, pool))

	var employeeID string
	require.NoError(t, pool.QueryRow(ctx, `
    INSERT INTO employees (name, position, base_salary, hire_date)
    VALUES ('Integration Employee', 'Engineer', 50000, '2024-01-10')
    RETURNING id::text
  `).Scan(&employeeID))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM employees WHERE id = $1", employeeID)
	})

	store := reward.NewStore(pool)
	subject, err := store.GetEmployee(ctx, employeeID)
	require.NoError(t, err)
	assert.True(t, subject.BaseSalary.Equal(decimal.NewFromInt(50000)))

	first, err := store.UpsertReward(ctx, reward.Reward{
		EmployeeID:  employeeID,
		Period:      period.New(2024, time.May).Start(),
		PeriodType:  period.Monthly,
		BaseSalary:  subject.BaseSalary,
		KPITotal:    decimal.NewFromInt(40),
		BonusAmount: decimal.NewFromInt(5000),
		TotalAmount: decimal.NewFromInt(55000),
		Formula:     reward.FormulaStandard,
		UpdatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	second, err := store.UpsertReward(ctx, reward.Reward{
		EmployeeID:  employeeID,
		Period:      period.New(2024, time.May).Start(),
		PeriodType:  period.Monthly,
		BaseSalary:  subject.BaseSalary,
		KPITotal:    decimal.NewFromInt(80),
		BonusAmount: decimal.NewFromInt(10000),
		TotalAmount: decimal.NewFromInt(60000),
		Formula:     reward.FormulaPeriodMultiplier,
		UpdatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.TotalAmount.Equal(decimal.NewFromInt(60000)))

	rows, err := store.ListRewards(ctx, reward.Filter{SubjectID: employeeID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].KPITotal.Equal(decimal.NewFromInt(80)))

	got, err := store.GetReward(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, employeeID, got.EmployeeID)
	assert.Equal(t, reward.FormulaPeriodMultiplier, got.Formula)
}
