package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var content, testSends []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, subject, from_name, from_email, content,
		       COALESCE(audience_id,''), status, scheduled_at, recipient_count,
		       provider_broadcast_id, COALESCE(test_sends, '[]'), sent_at,
		       created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Subject, &c.FromName, &c.FromEmail, &content,
		&c.AudienceID, &c.Status, &c.ScheduledAt, &c.RecipientCount,
		&c.ProviderBroadcastID, &testSends, &c.SentAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if err := json.Unmarshal(content, &c.Content); err != nil {
		return nil, fmt.Errorf("unmarshal campaign content: %w", err)
	}
	if err := json.Unmarshal(testSends, &c.TestSends); err != nil {
		return nil, fmt.Errorf("unmarshal test sends: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, subject, from_name, from_email,
		       COALESCE(audience_id,''), status, scheduled_at, recipient_count,
		       sent_at, created_at, updated_at
		FROM campaigns
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Subject, &c.FromName, &c.FromEmail,
			&c.AudienceID, &c.Status, &c.ScheduledAt, &c.RecipientCount,
			&c.SentAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	content, err := json.Marshal(c.Content)
	if err != nil {
		return "", fmt.Errorf("marshal campaign content: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, name, subject, from_name, from_email, content,
			 audience_id, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8, $9, NOW(), NOW())
	`, c.ID, c.Name, c.Subject, c.FromName, c.FromEmail, content,
		c.AudienceID, c.Status, c.ScheduledAt)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}

func (r *CampaignRepo) Update(ctx context.Context, c *domain.Campaign) error {
	content, err := json.Marshal(c.Content)
	if err != nil {
		return fmt.Errorf("marshal campaign content: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET name = $1, subject = $2, from_name = $3, from_email = $4,
		    content = $5, audience_id = NULLIF($6,''), scheduled_at = $7, updated_at = NOW()
		WHERE id = $8 AND status = 'draft'
	`, c.Name, c.Subject, c.FromName, c.FromEmail, content, c.AudienceID, c.ScheduledAt, c.ID)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM campaigns WHERE id = $1 AND status = 'draft'
	`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

// TransitionStatus is a guarded update: the status changes only if it
// still matches the expected one, which makes concurrent send attempts
// race-safe without a lock.
func (r *CampaignRepo) TransitionStatus(ctx context.Context, id string, from, to domain.CampaignStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("transition status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *CampaignRepo) RecordSend(ctx context.Context, id, broadcastID string, status domain.CampaignStatus, recipients int, sentAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET status = $1, provider_broadcast_id = $2, recipient_count = $3,
		    sent_at = $4, updated_at = NOW()
		WHERE id = $5
	`, status, broadcastID, recipients, sentAt, id)
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) AppendTestSend(ctx context.Context, id string, ts domain.TestSend) error {
	entry, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("marshal test send: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET test_sends = COALESCE(test_sends, '[]'::jsonb) || $1::jsonb,
		    updated_at = NOW()
		WHERE id = $2
	`, entry, id)
	if err != nil {
		return fmt.Errorf("append test send: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}
