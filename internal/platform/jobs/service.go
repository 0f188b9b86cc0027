package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
)

const (
	JobRewardsAllTime = "rewards_all_time"
	JobRewardsCurrent = "rewards_current_period"
	JobRewardsPeriod  = "rewards_period"

	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrQueueFull = errors.New("job queue full")

// Rewards is the part of the reward service jobs drive.
type Rewards interface {
	CalculateAll(ctx context.Context, p period.Period, t period.Type) (reward.BatchResult, error)
	CalculateAllManagers(ctx context.Context, p period.Period, t period.Type) (reward.BatchResult, error)
	EveryoneAllTime(ctx context.Context, t period.Type, progress reward.Progress) (reward.AllTimeSummary, error)
}

type Recorder interface {
	RecordJob(err error)
}

type Options struct {
	RecalcInterval   time.Duration
	RecalcPeriodType period.Type
	QueueSize        int
	Now              func() time.Time
}

type Service struct {
	runs     RunStore
	rewards  Rewards
	recorder Recorder
	opts     Options
	queue    chan job
	wg       sync.WaitGroup
}

type job struct {
	ID   string
	Type string
	Run  func(context.Context) (any, error)
}

func New(runs RunStore, rewards Rewards, recorder Recorder, opts Options) *Service {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RecalcPeriodType == "" {
		opts.RecalcPeriodType = period.Monthly
	}
	return &Service{
		runs:     runs,
		rewards:  rewards,
		recorder: recorder,
		opts:     opts,
		queue:    make(chan job, opts.QueueSize),
	}
}

// Start runs the worker and, when configured, the recompute scheduler until
// ctx is done. Wait blocks until both have returned.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	if s.opts.RecalcInterval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.scheduleRecalc(ctx, s.opts.RecalcInterval)
		}()
	}
}

func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue records a queued run and hands it to the worker. The returned id
// can be polled with Get.
func (s *Service) Enqueue(ctx context.Context, jobType string, run func(context.Context) (any, error)) (string, error) {
	id, err := s.runs.Create(ctx, jobType, StatusQueued)
	if err != nil {
		return "", err
	}
	select {
	case s.queue <- job{ID: id, Type: jobType, Run: run}:
		return id, nil
	default:
		slog.Warn("job queue full", "jobType", jobType, "jobId", id)
		s.finish(ctx, id, StatusFailed, map[string]string{"error": ErrQueueFull.Error()})
		return "", ErrQueueFull
	}
}

// RunNow executes synchronously and still leaves a job_runs record.
func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	id, err := s.runs.Create(ctx, jobType, StatusRunning)
	if err != nil {
		slog.Warn("job run insert failed", "jobType", jobType, "err", err)
	}
	return s.runJob(ctx, job{ID: id, Type: jobType, Run: run})
}

func (s *Service) Get(ctx context.Context, id string) (Run, error) {
	return s.runs.Get(ctx, id)
}

func (s *Service) EnqueueAllTime(ctx context.Context, t period.Type) (string, error) {
	return s.Enqueue(ctx, JobRewardsAllTime, func(ctx context.Context) (any, error) {
		return s.rewards.EveryoneAllTime(ctx, t, func(p period.Period, done, total int) {
			slog.Info("all-time recompute progress", "period", p.String(), "done", done, "total", total)
		})
	})
}

// PeriodSummary is what a single-period recompute job reports.
type PeriodSummary struct {
	Period     string             `json:"period"`
	PeriodType period.Type        `json:"periodType"`
	Employees  reward.BatchResult `json:"employees"`
	Managers   reward.BatchResult `json:"managers"`
}

func (s *Service) recomputePeriod(ctx context.Context, p period.Period, t period.Type) (PeriodSummary, error) {
	out := PeriodSummary{Period: p.String(), PeriodType: t}
	var err error
	out.Employees, err = s.rewards.CalculateAll(ctx, p, t)
	if err != nil {
		return out, err
	}
	out.Managers, err = s.rewards.CalculateAllManagers(ctx, p, t)
	return out, err
}

func (s *Service) EnqueuePeriod(ctx context.Context, p period.Period, t period.Type) (string, error) {
	return s.Enqueue(ctx, JobRewardsPeriod, func(ctx context.Context) (any, error) {
		return s.recomputePeriod(ctx, p, t)
	})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "jobId", j.ID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	if j.ID != "" {
		if err := s.runs.SetStatus(ctx, j.ID, StatusRunning); err != nil {
			slog.Warn("job run update failed", "jobId", j.ID, "err", err)
		}
	}
	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	if j.ID != "" {
		// the run context may be cancelled already; the final status still lands
		s.finish(context.WithoutCancel(ctx), j.ID, status, details)
	}
	if s.recorder != nil {
		s.recorder.RecordJob(err)
	}
	return details, err
}

func (s *Service) finish(ctx context.Context, id, status string, details any) {
	if err := s.runs.Finish(ctx, id, status, details); err != nil {
		slog.Warn("job run update failed", "jobId", id, "err", err)
	}
}

func (s *Service) scheduleRecalc(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := period.FromTime(s.opts.Now().UTC())
			if _, err := s.EnqueuePeriod(ctx, current, s.opts.RecalcPeriodType); err != nil {
				slog.Warn("scheduled recompute not queued", "period", current.String(), "err", err)
			}
		}
	}
}
