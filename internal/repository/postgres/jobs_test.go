package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupJobDB(t *testing.T) (*JobRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewJobRepo(db), mock, func() { db.Close() }
}

func TestEnqueue(t *testing.T) {
	repo, mock, cleanup := setupJobDB(t)
	defer cleanup()

	runAt := time.Now().Add(time.Hour)
	mock.ExpectExec(`INSERT INTO jobs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Enqueue(context.Background(), "send_broadcast", map[string]string{"campaign_id": "camp-1"}, runAt)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if id == "" {
		t.Fatal("expected a job id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestClaimDue(t *testing.T) {
	repo, mock, cleanup := setupJobDB(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "type", "status", "payload", "run_at", "attempts", "last_error", "created_at", "updated_at",
	}).AddRow("job-1", "send_broadcast", "processing", []byte(`{"campaign_id":"camp-1"}`), now, 1, "", now, now)

	mock.ExpectQuery(`UPDATE jobs\s+SET status = 'processing'.+FOR UPDATE SKIP LOCKED`).
		WithArgs("send_broadcast", 10).
		WillReturnRows(rows)

	jobs, err := repo.ClaimDue(context.Background(), "send_broadcast", 10)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job-1" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if string(jobs[0].Payload) != `{"campaign_id":"camp-1"}` {
		t.Fatalf("payload not scanned: %q", jobs[0].Payload)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestQueueStats(t *testing.T) {
	repo, mock, cleanup := setupJobDB(t)
	defer cleanup()

	oldest := time.Now().Add(-10 * time.Minute)
	rows := sqlmock.NewRows([]string{"pending", "processing", "completed", "failed", "oldest_processing", "oldest_scheduled"}).
		AddRow(12000, 2, 90, 10, oldest, nil)
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\) FILTER`).WillReturnRows(rows)

	stats, err := repo.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("QueueStats: %v", err)
	}
	if stats.PendingCount != 12000 || stats.FailedLastHour != 10 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.OldestProcessing == nil || stats.OldestScheduled != nil {
		t.Fatalf("nullable columns mishandled: %+v", stats)
	}
}
