package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"kpiengine/internal/platform/querier"
)

var ErrRunNotFound = errors.New("job run not found")

type Run struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// RunStore persists the lifecycle of background jobs.
type RunStore interface {
	Create(ctx context.Context, jobType, status string) (string, error)
	SetStatus(ctx context.Context, id, status string) error
	Finish(ctx context.Context, id, status string, details any) error
	Get(ctx context.Context, id string) (Run, error)
}

type PGRuns struct {
	DB querier.Querier
}

func NewPGRuns(db querier.Querier) *PGRuns {
	return &PGRuns{DB: db}
}

func (s *PGRuns) Create(ctx context.Context, jobType, status string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, jobType, status).Scan(&id)
	return id, err
}

func (s *PGRuns) SetStatus(ctx context.Context, id, status string) error {
	_, err := s.DB.Exec(ctx, "UPDATE job_runs SET status = $1 WHERE id = $2", status, id)
	return err
}

func (s *PGRuns) Finish(ctx context.Context, id, status string, details any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, id)
	return err
}

func (s *PGRuns) Get(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.DB.QueryRow(ctx, `
    SELECT id, job_type, status, details_json, started_at, completed_at
    FROM job_runs
    WHERE id = $1
  `, id).Scan(&run.ID, &run.Type, &run.Status, &run.Details, &run.StartedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

// MemoryRuns keeps runs in process for the CLI and tests.
type MemoryRuns struct {
	mu   sync.Mutex
	runs map[string]Run
	now  func() time.Time
}

func NewMemoryRuns() *MemoryRuns {
	return &MemoryRuns{runs: map[string]Run{}, now: time.Now}
}

func (m *MemoryRuns) Create(_ context.Context, jobType, status string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.runs[id] = Run{ID: id, Type: jobType, Status: status, StartedAt: m.now().UTC()}
	return id, nil
}

func (m *MemoryRuns) SetStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.Status = status
	m.runs[id] = run
	return nil
}

func (m *MemoryRuns) Finish(_ context.Context, id, status string, details any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	completed := m.now().UTC()
	run.Status, run.Details, run.CompletedAt = status, raw, &completed
	m.runs[id] = run
	return nil
}

func (m *MemoryRuns) Get(_ context.Context, id string) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}
