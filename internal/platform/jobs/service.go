package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"timepay/internal/platform/querier"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunFunc func(context.Context) (any, error)

// Service runs jobs and keeps a job_runs row per run. RunNow executes in the
// caller's goroutine; Enqueue hands the job to the background worker.
type Service struct {
	DB    querier.Querier
	queue chan task
}

type task struct {
	kind   string
	tenant string
	run    RunFunc
}

func New(db querier.Querier) *Service {
	return &Service{DB: db, queue: make(chan task, 128)}
}

func (s *Service) Start(ctx context.Context) {
	go s.drain(ctx)
}

// Enqueue reports false when the queue is full.
func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- task{kind: jobType, tenant: tenantID, run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.execute(ctx, task{kind: jobType, tenant: tenantID, run: run})
}

// Every enqueues run once per tenant on each tick until ctx ends. A
// non-positive interval disables the schedule.
func (s *Service) Every(ctx context.Context, interval time.Duration, jobType string, run func(ctx context.Context, tenantID string) (any, error)) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.enqueueForTenants(ctx, jobType, run)
			}
		}
	}()
}

func (s *Service) enqueueForTenants(ctx context.Context, jobType string, run func(context.Context, string) (any, error)) {
	tenants, err := s.tenants(ctx)
	if err != nil {
		slog.Warn("scheduled job tenant lookup failed", "jobType", jobType, "err", err)
		return
	}
	for _, tenantID := range tenants {
		s.Enqueue(jobType, tenantID, func(ctx context.Context) (any, error) {
			return run(ctx, tenantID)
		})
	}
}

func (s *Service) tenants(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Service) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.queue:
			if _, err := s.execute(ctx, t); err != nil {
				slog.Warn("job run failed", "jobType", t.kind, "tenantId", t.tenant, "err", err)
			}
		}
	}
}

func (s *Service) execute(ctx context.Context, t task) (any, error) {
	runID := s.open(ctx, t)
	details, err := t.run(ctx)
	if err != nil {
		s.close(ctx, runID, StatusFailed, map[string]any{"error": err.Error()})
		return map[string]any{"error": err.Error()}, err
	}
	s.close(ctx, runID, StatusCompleted, details)
	return details, nil
}

// open inserts the running row. Bookkeeping failures never stop the job.
func (s *Service) open(ctx context.Context, t task) string {
	var runID string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, t.tenant, t.kind, StatusRunning).Scan(&runID)
	if err != nil {
		slog.Warn("job run insert failed", "jobType", t.kind, "err", err)
		return ""
	}
	return runID
}

func (s *Service) close(ctx context.Context, runID, status string, details any) {
	if runID == "" {
		return
	}
	payload, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "runId", runID, "err", err)
		payload = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs SET status = $1, details_json = $2, completed_at = now() WHERE id = $3
  `, status, payload, runID); err != nil {
		slog.Warn("job run update failed", "runId", runID, "err", err)
	}
}

type Run struct {
	ID          string          `json:"id"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// ListRuns returns the newest runs of jobType first.
func (s *Service) ListRuns(ctx context.Context, tenantID, jobType string, limit int) ([]Run, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, job_type, status, details_json, started_at, completed_at
    FROM job_runs
    WHERE tenant_id = $1 AND job_type = $2
    ORDER BY started_at DESC
    LIMIT $3
  `, tenantID, jobType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.JobType, &r.Status, &r.Details, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
