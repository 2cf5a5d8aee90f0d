package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/voicehouse/outreach/internal/domain"
)

func setupTestDB(t *testing.T) (*ContactRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewContactRepo(db), mock, func() { db.Close() }
}

func contactRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "first_name", "last_name", "subscribed", "tags",
		"engagement_score", "location", "signup_source", "signup_at",
		"provider_contact_id", "created_at", "updated_at",
	})
}

func addContactRow(rows *sqlmock.Rows, id, email string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, email, "Jane", "Doe", true, "{commercial}",
		75, "NL", "import", now, nil, now, now)
}

func TestFindBySegmentBindsValues(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rules := &domain.SegmentRules{
		Logic: domain.LogicAll,
		Rules: []domain.SegmentRule{
			{Field: domain.FieldTags, Operator: domain.OpContains, Value: "commercial"},
			{Field: domain.FieldEngagement, Operator: domain.OpGreaterThan, Value: "40"},
		},
	}

	// Both rule values must arrive as bound args, never in the SQL text.
	mock.ExpectQuery(`SELECT .+ FROM contacts WHERE subscribed = \$1 AND \(.+ANY \(tags\).+engagement_score > \$3\)`).
		WithArgs(true, "commercial", 40).
		WillReturnRows(addContactRow(contactRows(), "c-1", "jane@example.com"))

	got, err := repo.FindBySegment(context.Background(), rules, 1000)
	if err != nil {
		t.Fatalf("FindBySegment: %v", err)
	}
	if len(got) != 1 || got[0].Email != "jane@example.com" {
		t.Fatalf("unexpected contacts: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindBySegmentEmptyRulesMatchesAllSubscribed(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM contacts WHERE subscribed = \$1 AND TRUE`).
		WithArgs(true).
		WillReturnRows(addContactRow(contactRows(), "c-1", "jane@example.com"))

	if _, err := repo.FindBySegment(context.Background(), nil, 1000); err != nil {
		t.Fatalf("FindBySegment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindBySegmentAppliesLimit(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM contacts .+ LIMIT 25`).
		WithArgs(true).
		WillReturnRows(contactRows())

	if _, err := repo.FindBySegment(context.Background(), nil, 25); err != nil {
		t.Fatalf("FindBySegment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDsSingleQuery(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := addContactRow(contactRows(), "c-1", "a@example.com")
	rows = addContactRow(rows, "c-2", "b@example.com")
	mock.ExpectQuery(`SELECT .+ FROM contacts\s+WHERE id = ANY \(\$1\)`).
		WillReturnRows(rows)

	got, err := repo.GetByIDs(context.Background(), []string{"c-1", "c-2"}, 1000)
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDsEmpty(t *testing.T) {
	repo, mock, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := repo.GetByIDs(context.Background(), nil, 1000)
	if err != nil || got != nil {
		t.Fatalf("empty id list should be a no-op, got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
