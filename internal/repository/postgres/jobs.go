package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/health"
)

// JobRepo implements the job queue and its health telemetry against
// PostgreSQL.
type JobRepo struct{ db *sql.DB }

// NewJobRepo creates a Postgres-backed job repository.
func NewJobRepo(db *sql.DB) *JobRepo { return &JobRepo{db: db} }

// Enqueue schedules a job for execution at runAt.
func (r *JobRepo) Enqueue(ctx context.Context, jobType string, payload any, runAt time.Time) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}
	id := uuid.New().String()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, payload, run_at, created_at, updated_at)
		VALUES ($1, $2, 'scheduled', $3, $4, NOW(), NOW())
	`, id, jobType, data, runAt)
	if err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return id, nil
}

// ClaimDue atomically moves up to limit due jobs of the given type to
// processing and returns them. SKIP LOCKED keeps concurrent workers
// from claiming the same rows.
func (r *JobRepo) ClaimDue(ctx context.Context, jobType string, limit int) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE jobs
		SET status = 'processing', attempts = attempts + 1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM jobs
			WHERE type = $1 AND status = 'scheduled' AND run_at <= NOW()
			ORDER BY run_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, type, status, payload, run_at, attempts, COALESCE(last_error,''), created_at, updated_at
	`, jobType, limit)
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(
			&j.ID, &j.Type, &j.Status, &j.Payload, &j.RunAt,
			&j.Attempts, &j.LastError, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// MarkCompleted finishes a processing job.
func (r *JobRepo) MarkCompleted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'completed', updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// MarkFailed records a failure. Jobs under maxAttempts are rescheduled
// with a linear backoff; the rest fail permanently.
func (r *JobRepo) MarkFailed(ctx context.Context, id string, jobErr error, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = CASE WHEN attempts >= $1 THEN 'failed' ELSE 'scheduled' END,
		    run_at = CASE WHEN attempts >= $1 THEN run_at ELSE NOW() + (attempts * interval '1 minute') END,
		    last_error = $2, updated_at = NOW()
		WHERE id = $3
	`, maxAttempts, jobErr.Error(), id)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// QueueStats collects the telemetry the health checker classifies.
func (r *JobRepo) QueueStats(ctx context.Context) (*health.QueueStats, error) {
	stats := &health.QueueStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed' AND updated_at > NOW() - interval '1 hour'),
			COUNT(*) FILTER (WHERE status = 'failed' AND updated_at > NOW() - interval '1 hour'),
			MIN(updated_at) FILTER (WHERE status = 'processing'),
			MIN(run_at) FILTER (WHERE status = 'scheduled')
		FROM jobs
	`).Scan(
		&stats.PendingCount, &stats.ProcessingCount,
		&stats.CompletedLastHour, &stats.FailedLastHour,
		&stats.OldestProcessing, &stats.OldestScheduled,
	)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}
