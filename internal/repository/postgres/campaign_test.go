package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/service/campaign"
)

func setupCampaignDB(t *testing.T) (*CampaignRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewCampaignRepo(db), mock, func() { db.Close() }
}

func TestTransitionStatusGuard(t *testing.T) {
	repo, mock, cleanup := setupCampaignDB(t)
	defer cleanup()

	// Guard matches: one row updated.
	mock.ExpectExec(`UPDATE campaigns SET status = \$1.+WHERE id = \$2 AND status = \$3`).
		WithArgs("sending", "camp-1", "draft").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.TransitionStatus(context.Background(), "camp-1", domain.CampaignDraft, domain.CampaignSending)
	if err != nil || !ok {
		t.Fatalf("expected transition to succeed, got ok=%v err=%v", ok, err)
	}

	// Guard mismatch: zero rows, no error.
	mock.ExpectExec(`UPDATE campaigns SET status = \$1.+WHERE id = \$2 AND status = \$3`).
		WithArgs("sending", "camp-1", "draft").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.TransitionStatus(context.Background(), "camp-1", domain.CampaignDraft, domain.CampaignSending)
	if err != nil {
		t.Fatalf("guard mismatch should not error: %v", err)
	}
	if ok {
		t.Fatal("guard mismatch should report false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	repo, mock, cleanup := setupCampaignDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM campaigns`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, campaign.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCampaignRoundTripsContent(t *testing.T) {
	repo, mock, cleanup := setupCampaignDB(t)
	defer cleanup()

	now := time.Now()
	content := `{"type":"blocks","blocks":[{"type":"paragraph","text":"hi"}]}`
	testSends := `[{"email":"a@x.com","success":true,"sent_at":"2026-03-01T10:00:00Z"}]`
	rows := sqlmock.NewRows([]string{
		"id", "name", "subject", "from_name", "from_email", "content",
		"audience_id", "status", "scheduled_at", "recipient_count",
		"provider_broadcast_id", "test_sends", "sent_at", "created_at", "updated_at",
	}).AddRow("camp-1", "Promo", "Hello", "VH", "vh@example.com", content,
		"aud-1", "draft", nil, 0, nil, testSends, nil, now, now)
	mock.ExpectQuery(`SELECT .+ FROM campaigns`).WillReturnRows(rows)

	c, err := repo.Get(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Content.Type != domain.ContentBlocks || len(c.Content.Blocks) != 1 {
		t.Fatalf("content not decoded: %+v", c.Content)
	}
	if len(c.TestSends) != 1 || !c.TestSends[0].Success {
		t.Fatalf("test sends not decoded: %+v", c.TestSends)
	}
}

func TestRecordSend(t *testing.T) {
	repo, mock, cleanup := setupCampaignDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectExec(`UPDATE campaigns\s+SET status = \$1, provider_broadcast_id = \$2, recipient_count = \$3`).
		WithArgs("sent", "bcast-1", 120, now, "camp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordSend(context.Background(), "camp-1", "bcast-1", domain.CampaignSent, 120, &now); err != nil {
		t.Fatalf("RecordSend: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
