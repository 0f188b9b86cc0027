package reward

import "context"

func (s *Service) GetReward(ctx context.Context, rewardID string) (Reward, error) {
	return s.store.GetReward(ctx, rewardID)
}

func (s *Service) ListRewards(ctx context.Context, filter Filter) ([]Reward, error) {
	return s.store.ListRewards(ctx, filter)
}

func (s *Service) ListManagerRewards(ctx context.Context, filter Filter) ([]ManagerReward, error) {
	return s.store.ListManagerRewards(ctx, filter)
}

func (s *Service) Statistics(ctx context.Context, filter Filter) (Statistics, error) {
	return s.store.RewardStatistics(ctx, filter)
}

func (s *Service) ManagerStatistics(ctx context.Context, filter Filter) (Statistics, error) {
	return s.store.ManagerRewardStatistics(ctx, filter)
}

// GetEmployee exposes the subject behind a reward for statements.
func (s *Service) GetEmployee(ctx context.Context, employeeID string) (Subject, error) {
	return s.store.GetEmployee(ctx, employeeID)
}

func (s *Service) GetManager(ctx context.Context, managerID string) (Subject, error) {
	return s.store.GetManager(ctx, managerID)
}
