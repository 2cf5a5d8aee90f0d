package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/service/audience"
)

// AudienceRepo implements audience.Repository against PostgreSQL.
type AudienceRepo struct{ db *sql.DB }

// NewAudienceRepo creates a Postgres-backed audience repository.
func NewAudienceRepo(db *sql.DB) *AudienceRepo { return &AudienceRepo{db: db} }

func (r *AudienceRepo) Get(ctx context.Context, id string) (*domain.Audience, error) {
	a := &domain.Audience{}
	var rules []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, type, contact_ids, COALESCE(rules, 'null'),
		       contact_count, provider_audience_id, last_synced_at,
		       sync_error, created_at, updated_at
		FROM audiences
		WHERE id = $1
	`, id).Scan(
		&a.ID, &a.Name, &a.Type, pq.Array(&a.ContactIDs), &rules,
		&a.ContactCount, &a.ProviderAudienceID, &a.LastSyncedAt,
		&a.SyncError, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, audience.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get audience: %w", err)
	}
	if err := unmarshalRules(rules, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AudienceRepo) List(ctx context.Context) ([]domain.Audience, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, contact_count, provider_audience_id,
		       last_synced_at, sync_error, created_at, updated_at
		FROM audiences
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list audiences: %w", err)
	}
	defer rows.Close()

	var out []domain.Audience
	for rows.Next() {
		var a domain.Audience
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Type, &a.ContactCount, &a.ProviderAudienceID,
			&a.LastSyncedAt, &a.SyncError, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audience: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AudienceRepo) Create(ctx context.Context, a *domain.Audience) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	rules, err := marshalRules(a)
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audiences (id, name, type, contact_ids, rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, a.ID, a.Name, a.Type, pq.Array(a.ContactIDs), rules)
	if err != nil {
		return "", fmt.Errorf("create audience: %w", err)
	}
	return a.ID, nil
}

func (r *AudienceRepo) Update(ctx context.Context, a *domain.Audience) error {
	rules, err := marshalRules(a)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE audiences
		SET name = $1, type = $2, contact_ids = $3, rules = $4, updated_at = NOW()
		WHERE id = $5
	`, a.Name, a.Type, pq.Array(a.ContactIDs), rules, a.ID)
	if err != nil {
		return fmt.Errorf("update audience: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return audience.ErrNotFound
	}
	return nil
}

func (r *AudienceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audiences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete audience: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return audience.ErrNotFound
	}
	return nil
}

func (r *AudienceRepo) SetProviderAudienceID(ctx context.Context, id, providerID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE audiences SET provider_audience_id = $1, updated_at = NOW()
		WHERE id = $2
	`, providerID, id)
	if err != nil {
		return fmt.Errorf("set provider audience id: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return audience.ErrNotFound
	}
	return nil
}

func (r *AudienceRepo) UpdateSyncState(ctx context.Context, id string, u audience.SyncStateUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE audiences
		SET contact_count = $1, last_synced_at = $2, sync_error = $3, updated_at = NOW()
		WHERE id = $4
	`, u.ContactCount, u.SyncedAt, u.SyncError, id)
	if err != nil {
		return fmt.Errorf("update sync state: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return audience.ErrNotFound
	}
	return nil
}
