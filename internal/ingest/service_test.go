package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/db"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	pool, err := db.NewPoolWithConn(conn)
	if err != nil {
		t.Fatalf("wrap mock connection: %v", err)
	}
	return NewService(pool, zerolog.Nop(), nil, Options{}), mock
}

func TestIngestOne_RetriesNextSuffixOnConcurrentSlug(t *testing.T) {
	t.Parallel()

	svc, mock := newMockService(t)

	candidate := Candidate{
		Title:      "Ransomware attack disrupts hospital network operations",
		Link:       "https://example.com/articles/ransomware-hospital",
		SourceName: "example-news",
		Content: strings.Repeat(
			"The ransomware attack encrypted hospital systems and forced staff back to paper records "+
				"while security teams restored network services from offline backups. ", 3),
	}
	const base = "ransomware-attack-disrupts-hospital-network-operations"

	// First attempt: the slug looks free but a concurrent writer commits
	// it before our insert lands.
	mock.ExpectBegin()
	mock.ExpectQuery("original_url").
		WithArgs(candidate.Link).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("deleted_articles").
		WithArgs(base).
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(false))
	mock.ExpectQuery("FROM intel.categories").
		WithArgs("ransomware").
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}))
	mock.ExpectExec("INSERT INTO intel.articles").
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "uni_articles_slug" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	// Second attempt: the winner is visible now, the allocator moves on
	// to the next suffix.
	mock.ExpectBegin()
	mock.ExpectQuery("original_url").
		WithArgs(candidate.Link).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("deleted_articles").
		WithArgs(base).
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(true))
	mock.ExpectQuery("deleted_articles").
		WithArgs(base + "-1").
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(false))
	mock.ExpectQuery("FROM intel.categories").
		WithArgs("ransomware").
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}))
	mock.ExpectExec("INSERT INTO intel.articles").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	outcome, err := svc.ingestOne(context.Background(), candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != outcomeAdmitted {
		t.Fatalf("expected admission after retry, got %d", outcome)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIngestOne_ConcurrentURLDuplicateResolvesAsDuplicate(t *testing.T) {
	t.Parallel()

	svc, mock := newMockService(t)

	candidate := Candidate{
		Title:      "Phishing campaign targets banking credentials across Europe",
		Link:       "https://example.com/articles/phishing-banks",
		SourceName: "example-news",
		Content: strings.Repeat(
			"A phishing campaign is stealing banking credentials with lookalike login pages "+
				"and urgent account warnings sent over email. ", 3),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("original_url").
		WithArgs(candidate.Link).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("deleted_articles").
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(false))
	mock.ExpectQuery("FROM intel.categories").
		WithArgs("phishing").
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}))
	mock.ExpectExec("INSERT INTO intel.articles").
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "uni_articles_original_url" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	// The retry re-runs the dedup check, which now sees the winner's row.
	mock.ExpectBegin()
	mock.ExpectQuery("original_url").
		WithArgs(candidate.Link).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	outcome, err := svc.ingestOne(context.Background(), candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != outcomeDuplicate {
		t.Fatalf("expected duplicate outcome, got %d", outcome)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
