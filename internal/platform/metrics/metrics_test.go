package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kpiengine/internal/domain/reward"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(http.StatusOK, 10*time.Millisecond)
	c.Record(http.StatusInternalServerError, 30*time.Millisecond)
	c.RecordReward(reward.KindEmployee, nil)
	c.RecordReward(reward.KindEmployee, nil)
	c.RecordReward(reward.KindManager, nil)
	c.RecordReward(reward.KindEmployee, reward.ErrBaseSalaryNotSet)
	c.RecordJob(errors.New("boom"))

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, float64(20), snap["avgDurationMs"])
	assert.Equal(t, uint64(2), snap["employeeRewardsTotal"])
	assert.Equal(t, uint64(1), snap["managerRewardsTotal"])
	assert.Equal(t, uint64(1), snap["rewardFailuresTotal"])
	assert.Equal(t, uint64(1), snap["jobsFailedTotal"])
}
