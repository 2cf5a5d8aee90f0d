package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/pkg/logger"
)

const (
	// DefaultPollInterval is how often the scheduler checks for due jobs.
	DefaultPollInterval = 30 * time.Second

	// DefaultClaimLimit caps how many jobs one tick will claim.
	DefaultClaimLimit = 25
)

// JobStore claims and settles queued jobs. Claiming must be safe across
// multiple worker processes (the Postgres implementation uses
// FOR UPDATE SKIP LOCKED).
type JobStore interface {
	ClaimDue(ctx context.Context, jobType string, limit int) ([]domain.Job, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, jobErr error, maxAttempts int) error
}

// CampaignMarker promotes a scheduled campaign once its broadcast
// dispatch time has arrived.
type CampaignMarker interface {
	MarkSent(ctx context.Context, id string) error
}

// AudienceSyncer re-runs a provider sync for an audience.
type AudienceSyncer interface {
	SyncAudience(ctx context.Context, audienceID string) (*domain.SyncResult, error)
}

// BroadcastScheduler polls the jobs table and executes due work:
// promoting scheduled campaigns to sent, and retrying audience syncs
// that were deferred to the background.
type BroadcastScheduler struct {
	jobs      JobStore
	campaigns CampaignMarker
	audiences AudienceSyncer

	workerID     string
	pollInterval time.Duration
	claimLimit   int
	maxAttempts  int

	jobsProcessed int64
	jobsFailed    int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewBroadcastScheduler creates a scheduler with default polling settings.
func NewBroadcastScheduler(jobs JobStore, campaigns CampaignMarker, audiences AudienceSyncer, maxAttempts int) *BroadcastScheduler {
	hostname, _ := os.Hostname()
	return &BroadcastScheduler{
		jobs:         jobs,
		campaigns:    campaigns,
		audiences:    audiences,
		workerID:     fmt.Sprintf("scheduler-%s-%d", hostname, time.Now().UnixNano()%10000),
		pollInterval: DefaultPollInterval,
		claimLimit:   DefaultClaimLimit,
		maxAttempts:  maxAttempts,
	}
}

// SetPollInterval overrides the polling cadence. Must be called before Start.
func (bs *BroadcastScheduler) SetPollInterval(d time.Duration) {
	bs.pollInterval = d
}

// Start begins the polling loop.
func (bs *BroadcastScheduler) Start() error {
	bs.mu.Lock()
	if bs.running {
		bs.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	bs.running = true
	bs.ctx, bs.cancel = context.WithCancel(context.Background())
	bs.mu.Unlock()

	logger.Info("broadcast scheduler starting",
		"worker_id", bs.workerID,
		"poll_interval", bs.pollInterval.String())

	bs.wg.Add(1)
	go bs.pollLoop()

	return nil
}

// Stop gracefully stops the scheduler and waits for in-flight work.
func (bs *BroadcastScheduler) Stop() {
	bs.mu.Lock()
	if !bs.running {
		bs.mu.Unlock()
		return
	}
	bs.running = false
	bs.mu.Unlock()

	bs.cancel()
	bs.wg.Wait()

	logger.Info("broadcast scheduler stopped",
		"worker_id", bs.workerID,
		"processed", atomic.LoadInt64(&bs.jobsProcessed),
		"failed", atomic.LoadInt64(&bs.jobsFailed))
}

func (bs *BroadcastScheduler) pollLoop() {
	defer bs.wg.Done()

	ticker := time.NewTicker(bs.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bs.ctx.Done():
			return
		case <-ticker.C:
			bs.Tick(bs.ctx)
		}
	}
}

// Tick claims and runs one round of due jobs. Exposed so the
// entrypoint can drain the queue once at startup.
func (bs *BroadcastScheduler) Tick(ctx context.Context) {
	bs.runDue(ctx, domain.JobSendBroadcast, bs.handleSendBroadcast)
	bs.runDue(ctx, domain.JobSyncAudience, bs.handleSyncAudience)
}

func (bs *BroadcastScheduler) runDue(ctx context.Context, jobType string, handle func(context.Context, domain.Job) error) {
	jobs, err := bs.jobs.ClaimDue(ctx, jobType, bs.claimLimit)
	if err != nil {
		logger.Error("failed to claim jobs",
			"job_type", jobType,
			"error", err.Error())
		return
	}

	for _, job := range jobs {
		if err := handle(ctx, job); err != nil {
			atomic.AddInt64(&bs.jobsFailed, 1)
			logger.Warn("job failed",
				"job_id", job.ID,
				"job_type", job.Type,
				"attempt", job.Attempts,
				"error", err.Error())
			if markErr := bs.jobs.MarkFailed(ctx, job.ID, err, bs.maxAttempts); markErr != nil {
				logger.Error("failed to record job failure",
					"job_id", job.ID,
					"error", markErr.Error())
			}
			continue
		}

		atomic.AddInt64(&bs.jobsProcessed, 1)
		if err := bs.jobs.MarkCompleted(ctx, job.ID); err != nil {
			logger.Error("failed to mark job completed",
				"job_id", job.ID,
				"error", err.Error())
		}
	}
}

type sendBroadcastPayload struct {
	CampaignID  string `json:"campaign_id"`
	BroadcastID string `json:"broadcast_id"`
}

func (bs *BroadcastScheduler) handleSendBroadcast(ctx context.Context, job domain.Job) error {
	var payload sendBroadcastPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if payload.CampaignID == "" {
		return fmt.Errorf("payload missing campaign_id")
	}

	if err := bs.campaigns.MarkSent(ctx, payload.CampaignID); err != nil {
		return fmt.Errorf("mark campaign sent: %w", err)
	}

	logger.Info("scheduled campaign dispatched",
		"campaign_id", payload.CampaignID,
		"broadcast_id", payload.BroadcastID)
	return nil
}

type syncAudiencePayload struct {
	AudienceID string `json:"audience_id"`
}

func (bs *BroadcastScheduler) handleSyncAudience(ctx context.Context, job domain.Job) error {
	var payload syncAudiencePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if payload.AudienceID == "" {
		return fmt.Errorf("payload missing audience_id")
	}

	result, err := bs.audiences.SyncAudience(ctx, payload.AudienceID)
	if err != nil {
		return fmt.Errorf("sync audience: %w", err)
	}
	if result.Failed > 0 {
		return fmt.Errorf("sync audience: %d contacts failed", result.Failed)
	}
	return nil
}
