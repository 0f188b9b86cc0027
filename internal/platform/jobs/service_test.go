package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
)

type fakeRewards struct {
	mu      sync.Mutex
	periods []string
	fail    error
	block   chan struct{}
}

func (f *fakeRewards) CalculateAll(ctx context.Context, p period.Period, t period.Type) (reward.BatchResult, error) {
	f.mu.Lock()
	f.periods = append(f.periods, p.String()+"/"+string(t))
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return reward.BatchResult{}, ctx.Err()
		}
	}
	return reward.BatchResult{Succeeded: []string{"emp-1"}, Failed: []reward.Failure{}}, f.fail
}

func (f *fakeRewards) CalculateAllManagers(context.Context, period.Period, period.Type) (reward.BatchResult, error) {
	return reward.BatchResult{Succeeded: []string{"mgr-1"}, Failed: []reward.Failure{}}, nil
}

func (f *fakeRewards) EveryoneAllTime(_ context.Context, t period.Type, progress reward.Progress) (reward.AllTimeSummary, error) {
	progress(period.New(2024, time.January), 1, 1)
	return reward.AllTimeSummary{PeriodType: t, Periods: 1, EmployeeRewards: 1, Failed: []reward.Failure{}}, nil
}

type jobCounter struct {
	mu        sync.Mutex
	ok, fails int
}

func (c *jobCounter) RecordJob(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fails++
		return
	}
	c.ok++
}

func TestRunNowRecordsRun(t *testing.T) {
	runs := NewMemoryRuns()
	counter := &jobCounter{}
	svc := New(runs, &fakeRewards{}, counter, Options{})

	out, err := svc.RunNow(context.Background(), JobRewardsPeriod, func(ctx context.Context) (any, error) {
		return svc.recomputePeriod(ctx, period.New(2024, time.May), period.Monthly)
	})
	require.NoError(t, err)
	summary := out.(PeriodSummary)
	assert.Equal(t, []string{"emp-1"}, summary.Employees.Succeeded)
	assert.Equal(t, []string{"mgr-1"}, summary.Managers.Succeeded)
	assert.Equal(t, 1, counter.ok)
	require.Len(t, runs.runs, 1)
	for _, run := range runs.runs {
		assert.Equal(t, StatusCompleted, run.Status)
		assert.NotNil(t, run.CompletedAt)
	}
}

func TestEnqueuedJobRunsOnWorker(t *testing.T) {
	runs := NewMemoryRuns()
	svc := New(runs, &fakeRewards{}, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	id, err := svc.EnqueueAllTime(ctx, period.Quarterly)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		run, err := svc.Get(ctx, id)
		return err == nil && run.Status == StatusCompleted
	}, time.Second, 5*time.Millisecond)

	run, err := svc.Get(ctx, id)
	require.NoError(t, err)
	var summary reward.AllTimeSummary
	require.NoError(t, json.Unmarshal(run.Details, &summary))
	assert.Equal(t, period.Quarterly, summary.PeriodType)
	assert.Equal(t, 1, summary.EmployeeRewards)

	cancel()
	svc.Wait()
}

func TestFailedJobIsMarkedFailed(t *testing.T) {
	runs := NewMemoryRuns()
	counter := &jobCounter{}
	svc := New(runs, &fakeRewards{fail: errors.New("db gone")}, counter, Options{})

	_, err := svc.RunNow(context.Background(), JobRewardsPeriod, func(ctx context.Context) (any, error) {
		return svc.recomputePeriod(ctx, period.New(2024, time.May), period.Monthly)
	})
	require.Error(t, err)
	assert.Equal(t, 1, counter.fails)
	for _, run := range runs.runs {
		assert.Equal(t, StatusFailed, run.Status)
	}
}

func TestEnqueueRejectsWhenQueueFull(t *testing.T) {
	runs := NewMemoryRuns()
	svc := New(runs, &fakeRewards{}, nil, Options{QueueSize: 1})
	ctx := context.Background()

	_, err := svc.EnqueuePeriod(ctx, period.New(2024, time.May), period.Monthly)
	require.NoError(t, err)
	_, err = svc.EnqueuePeriod(ctx, period.New(2024, time.June), period.Monthly)
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestShutdownCancelsRunningJob(t *testing.T) {
	rewards := &fakeRewards{block: make(chan struct{})}
	runs := NewMemoryRuns()
	svc := New(runs, rewards, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	id, err := svc.EnqueuePeriod(ctx, period.New(2024, time.May), period.Monthly)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		run, _ := svc.Get(context.Background(), id)
		return run.Status == StatusRunning
	}, time.Second, 5*time.Millisecond)

	cancel()
	svc.Wait()
	run, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
}

func TestSchedulerRecomputesCurrentPeriod(t *testing.T) {
	rewards := &fakeRewards{}
	svc := New(NewMemoryRuns(), rewards, nil, Options{
		RecalcInterval:   10 * time.Millisecond,
		RecalcPeriodType: period.Quarterly,
		Now:              func() time.Time { return time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC) },
	})
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	require.Eventually(t, func() bool {
		rewards.mu.Lock()
		defer rewards.mu.Unlock()
		return len(rewards.periods) > 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	svc.Wait()

	rewards.mu.Lock()
	defer rewards.mu.Unlock()
	assert.Equal(t, "2024-06/quarterly", rewards.periods[0])
}
