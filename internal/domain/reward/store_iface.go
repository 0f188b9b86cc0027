package reward

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kpiengine/internal/domain/period"
)

type StoreAPI interface {
	GetEmployee(ctx context.Context, employeeID string) (Subject, error)
	GetManager(ctx context.Context, managerID string) (Subject, error)
	ListEmployeeIDs(ctx context.Context, departmentID string) ([]string, error)
	ListManagerIDs(ctx context.Context, position string) ([]string, error)
	CountDepartmentEmployees(ctx context.Context, departmentID string) (int, error)
	DepartmentExists(ctx context.Context, departmentID string) (bool, error)
	EarliestHireDate(ctx context.Context) (time.Time, bool, error)
	UpsertReward(ctx context.Context, reward Reward) (Reward, error)
	UpsertManagerReward(ctx context.Context, reward ManagerReward) (ManagerReward, error)
	GetReward(ctx context.Context, rewardID string) (Reward, error)
	ListRewards(ctx context.Context, filter Filter) ([]Reward, error)
	ListManagerRewards(ctx context.Context, filter Filter) ([]ManagerReward, error)
	RewardStatistics(ctx context.Context, filter Filter) (Statistics, error)
	ManagerRewardStatistics(ctx context.Context, filter Filter) (Statistics, error)
}

// KPISource supplies the percentages rewards are paid on.
type KPISource interface {
	TotalKPI(ctx context.Context, employeeID string, p period.Period, t period.Type) (decimal.Decimal, error)
	DepartmentAverageKPI(ctx context.Context, departmentID string, p period.Period, t period.Type) (decimal.Decimal, error)
}

// Recorder observes every single-unit computation.
type Recorder interface {
	RecordReward(kind string, err error)
}
