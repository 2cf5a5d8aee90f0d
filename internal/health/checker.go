// Package health classifies pipeline health from job-queue telemetry.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/voicehouse/outreach/internal/pkg/logger"
)

// Status is the overall health classification. Ordering matters:
// higher is worse, and the report only ever escalates.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

var statusRank = map[Status]int{
	StatusHealthy:  0,
	StatusDegraded: 1,
	StatusCritical: 2,
}

// Thresholds for each signal. Queue depth counts pending jobs; the
// failure rate is computed over the trailing hour.
const (
	QueueDepthCritical = 10000
	QueueDepthDegraded = 5000

	FailureRateCritical = 0.20
	FailureRateDegraded = 0.10

	StuckProcessingAfter = 15 * time.Minute
	ScheduledLateAfter   = 60 * time.Minute
)

// QueueStats is a snapshot of the jobs table.
type QueueStats struct {
	PendingCount    int
	ProcessingCount int

	// Trailing-hour counts.
	CompletedLastHour int
	FailedLastHour    int

	// OldestProcessing is the start time of the longest-running
	// processing job, nil when nothing is processing.
	OldestProcessing *time.Time

	// OldestScheduled is the earliest run_at among still-pending
	// scheduled jobs, nil when the schedule is empty.
	OldestScheduled *time.Time
}

// StatsSource provides queue telemetry.
type StatsSource interface {
	QueueStats(ctx context.Context) (*QueueStats, error)
}

// Issue is one detected problem with its individual severity.
type Issue struct {
	Severity Status `json:"severity"`
	Message  string `json:"message"`
}

// Report is the aggregated health view returned to operators.
type Report struct {
	Status    Status            `json:"status"`
	Issues    []Issue           `json:"issues,omitempty"`
	Metrics   map[string]any    `json:"metrics"`
	CheckedAt time.Time         `json:"checked_at"`
}

// Checker aggregates queue telemetry into a health report.
type Checker struct {
	source StatsSource
	now    func() time.Time
}

func NewChecker(source StatsSource) *Checker {
	return &Checker{source: source, now: time.Now}
}

// Check never fails: a panic or telemetry error degrades the report to
// critical instead of propagating, so the health endpoint itself stays
// up when the rest of the system is falling over.
func (c *Checker) Check(ctx context.Context) (report *Report) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("health check panicked", "panic", fmt.Sprintf("%v", r))
			report = &Report{
				Status:    StatusCritical,
				Issues:    []Issue{{Severity: StatusCritical, Message: "health check panicked"}},
				Metrics:   map[string]any{},
				CheckedAt: c.now().UTC(),
			}
		}
	}()

	stats, err := c.source.QueueStats(ctx)
	if err != nil {
		logger.Error("health check could not read queue stats", "error", err.Error())
		return &Report{
			Status:    StatusCritical,
			Issues:    []Issue{{Severity: StatusCritical, Message: "queue telemetry unavailable: " + err.Error()}},
			Metrics:   map[string]any{},
			CheckedAt: c.now().UTC(),
		}
	}

	report = &Report{
		Status:    StatusHealthy,
		Metrics:   map[string]any{},
		CheckedAt: c.now().UTC(),
	}

	c.checkQueueDepth(report, stats)
	c.checkFailureRate(report, stats)
	c.checkStuckProcessing(report, stats)
	c.checkScheduleLag(report, stats)
	return report
}

func (c *Checker) checkQueueDepth(r *Report, s *QueueStats) {
	r.Metrics["queue_depth"] = s.PendingCount
	switch {
	case s.PendingCount > QueueDepthCritical:
		r.escalate(StatusCritical, fmt.Sprintf("queue depth %d exceeds %d", s.PendingCount, QueueDepthCritical))
	case s.PendingCount > QueueDepthDegraded:
		r.escalate(StatusDegraded, fmt.Sprintf("queue depth %d exceeds %d", s.PendingCount, QueueDepthDegraded))
	}
}

func (c *Checker) checkFailureRate(r *Report, s *QueueStats) {
	total := s.CompletedLastHour + s.FailedLastHour
	if total == 0 {
		r.Metrics["failure_rate_1h"] = 0.0
		return
	}
	rate := float64(s.FailedLastHour) / float64(total)
	r.Metrics["failure_rate_1h"] = rate
	switch {
	case rate > FailureRateCritical:
		r.escalate(StatusCritical, fmt.Sprintf("trailing-hour failure rate %.0f%%", rate*100))
	case rate > FailureRateDegraded:
		r.escalate(StatusDegraded, fmt.Sprintf("trailing-hour failure rate %.0f%%", rate*100))
	}
}

func (c *Checker) checkStuckProcessing(r *Report, s *QueueStats) {
	r.Metrics["processing"] = s.ProcessingCount
	if s.OldestProcessing == nil {
		return
	}
	age := c.now().Sub(*s.OldestProcessing)
	r.Metrics["oldest_processing_age"] = age.String()
	// Stuck workers degrade the pipeline but are recoverable, so this
	// never escalates past degraded on its own.
	if age > StuckProcessingAfter {
		r.escalate(StatusDegraded, fmt.Sprintf("job processing for %s, limit %s", age.Round(time.Second), StuckProcessingAfter))
	}
}

func (c *Checker) checkScheduleLag(r *Report, s *QueueStats) {
	if s.OldestScheduled == nil {
		return
	}
	lag := c.now().Sub(*s.OldestScheduled)
	if lag <= 0 {
		return
	}
	r.Metrics["schedule_lag"] = lag.String()
	if lag > ScheduledLateAfter {
		r.escalate(StatusDegraded, fmt.Sprintf("scheduled job overdue by %s", lag.Round(time.Second)))
	}
}

// escalate records an issue and raises the overall status if the
// issue's severity outranks it. Status never steps down within a
// single report.
func (r *Report) escalate(severity Status, msg string) {
	r.Issues = append(r.Issues, Issue{Severity: severity, Message: msg})
	if statusRank[severity] > statusRank[r.Status] {
		r.Status = severity
	}
}
