package metrics

import (
	"sync/atomic"
	"time"

	"kpiengine/internal/domain/reward"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64

	employeeRewards uint64
	managerRewards  uint64
	rewardFailures  uint64
	jobsCompleted   uint64
	jobsFailed      uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordReward counts one single-unit reward computation.
func (c *Collector) RecordReward(kind string, err error) {
	if err != nil {
		atomic.AddUint64(&c.rewardFailures, 1)
		return
	}
	if kind == reward.KindManager {
		atomic.AddUint64(&c.managerRewards, 1)
		return
	}
	atomic.AddUint64(&c.employeeRewards, 1)
}

func (c *Collector) RecordJob(err error) {
	if err != nil {
		atomic.AddUint64(&c.jobsFailed, 1)
		return
	}
	atomic.AddUint64(&c.jobsCompleted, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
		"employeeRewardsTotal": atomic.LoadUint64(&c.employeeRewards),
		"managerRewardsTotal":  atomic.LoadUint64(&c.managerRewards),
		"rewardFailuresTotal":  atomic.LoadUint64(&c.rewardFailures),
		"jobsCompletedTotal":   atomic.LoadUint64(&c.jobsCompleted),
		"jobsFailedTotal":      atomic.LoadUint64(&c.jobsFailed),
	}
}
