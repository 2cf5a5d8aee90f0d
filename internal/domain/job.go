package domain

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates the lifecycle of a queued background job.
type JobStatus string

const (
	JobScheduled  JobStatus = "scheduled"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job types understood by the workers.
const (
	JobSendBroadcast = "send_broadcast"
	JobSyncAudience  = "sync_audience"
)

// Job is one unit of deferred work in the jobs table. The health
// aggregator classifies system health from the queue's depth, failure
// rate, and staleness.
type Job struct {
	ID      string          `json:"id" db:"id"`
	Type    string          `json:"type" db:"type"`
	Status  JobStatus       `json:"status" db:"status"`
	Payload json.RawMessage `json:"payload,omitempty" db:"payload"`

	// RunAt is the intended execution time for scheduled jobs.
	RunAt     time.Time `json:"run_at" db:"run_at"`
	Attempts  int       `json:"attempts" db:"attempts"`
	LastError string    `json:"last_error,omitempty" db:"last_error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
