package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/segment"
	"github.com/voicehouse/outreach/internal/service/audience"
)

const contactColumns = `id, email, COALESCE(first_name,''), COALESCE(last_name,''),
	subscribed, tags, engagement_score, COALESCE(location,''),
	COALESCE(signup_source,''), signup_at, provider_contact_id, created_at, updated_at`

// ContactRepo implements audience.ContactRepository against PostgreSQL.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Get(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, audience.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepo) GetByIDs(ctx context.Context, ids []string, limit int) ([]domain.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = ANY ($1)
		ORDER BY created_at
		LIMIT $2
	`, pq.Array(ids), limit)
	if err != nil {
		return nil, fmt.Errorf("get contacts by ids: %w", err)
	}
	return collectContacts(rows)
}

// FindBySegment evaluates segment rules in the database. The predicate
// builder binds every user value as a placeholder, so rule input never
// reaches the SQL text.
func (r *ContactRepo) FindBySegment(ctx context.Context, rules *domain.SegmentRules, limit int) ([]domain.Contact, error) {
	query, args, err := sq.Select(
		"id", "email", "COALESCE(first_name,'')", "COALESCE(last_name,'')",
		"subscribed", "tags", "engagement_score", "COALESCE(location,'')",
		"COALESCE(signup_source,'')", "signup_at", "provider_contact_id",
		"created_at", "updated_at",
	).
		From("contacts").
		Where(sq.Eq{"subscribed": true}).
		Where(segment.BuildPredicate(rules)).
		OrderBy("created_at").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build segment query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find by segment: %w", err)
	}
	return collectContacts(rows)
}

func (r *ContactRepo) ListSubscribed(ctx context.Context, limit int) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE subscribed = true
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list subscribed: %w", err)
	}
	return collectContacts(rows)
}

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts
			(id, email, first_name, last_name, subscribed, tags,
			 engagement_score, location, signup_source, signup_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`, c.ID, c.Email, c.FirstName, c.LastName, c.Subscribed, pq.Array(c.Tags),
		c.EngagementScore, c.Location, c.SignupSource, c.SignupAt)
	if err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}
	return c.ID, nil
}

func (r *ContactRepo) SetProviderContactID(ctx context.Context, id, providerID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET provider_contact_id = $1, updated_at = NOW()
		WHERE id = $2
	`, providerID, id)
	if err != nil {
		return fmt.Errorf("set provider contact id: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := row.Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName,
		&c.Subscribed, pq.Array(&c.Tags), &c.EngagementScore, &c.Location,
		&c.SignupSource, &c.SignupAt, &c.ProviderContactID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func collectContacts(rows *sql.Rows) ([]domain.Contact, error) {
	defer rows.Close()
	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
