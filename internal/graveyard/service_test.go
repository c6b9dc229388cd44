package graveyard

import (
	"context"
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
	return NewService(pool, zerolog.Nop()), mock
}

func TestFuzzyMatch_ContainmentBothWays(t *testing.T) {
	t.Parallel()

	tombstones := []string{"example-breach-report", "phishing-wave-2026"}

	if match, ok := FuzzyMatch("example-breach-report-1", tombstones); !ok || match != "example-breach-report" {
		t.Fatalf("expected suffix variant to match, got %q ok=%t", match, ok)
	}
	if match, ok := FuzzyMatch("credential-theft-wave", tombstones); ok {
		t.Fatalf("did not expect unrelated slug to match, got %q", match)
	}
}

func TestFuzzyMatch_RequestedContainsTombstone(t *testing.T) {
	t.Parallel()

	tombstones := []string{"ransomware-hits-acme"}
	if _, ok := FuzzyMatch("ransomware-hits-acme-hospital-chain", tombstones); !ok {
		t.Fatalf("expected longer request to match shorter tombstone")
	}
}

func TestFuzzyMatch_ShortSlugsNeverMatch(t *testing.T) {
	t.Parallel()

	tombstones := []string{"a", "breach", "example-breach-report"}
	if _, ok := FuzzyMatch("breach", tombstones); ok {
		t.Fatalf("short slug must not match")
	}
	if _, ok := FuzzyMatch("example-breach-report", []string{"breach"}); ok {
		t.Fatalf("short tombstone must not match")
	}
}

func TestFuzzyMatch_CaseInsensitive(t *testing.T) {
	t.Parallel()

	tombstones := []string{"Example-Breach-Report"}
	if _, ok := FuzzyMatch("example-breach-report", tombstones); !ok {
		t.Fatalf("expected case-insensitive match")
	}
}

func TestResolutionString(t *testing.T) {
	t.Parallel()

	if ResolutionLive.String() != "live" || ResolutionGone.String() != "gone" || ResolutionUnknown.String() != "unknown" {
		t.Fatalf("unexpected resolution strings")
	}
}

func TestResolve_ConflictTombstoneWins(t *testing.T) {
	t.Parallel()

	svc, mock := newMockService(t)

	mock.ExpectQuery("EXISTS").
		WithArgs("example-breach-report").
		WillReturnRows(sqlmock.NewRows([]string{"live", "buried"}).AddRow(true, true))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM intel.simplified_contents").
		WithArgs("example-breach-report").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM intel.articles").
		WithArgs("example-breach-report").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.Resolve(context.Background(), "example-breach-report")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ResolutionGone {
		t.Fatalf("conflict must resolve to gone, got %s", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("zombie row must be removed: %v", err)
	}
}

func TestResolveForRequest_BuriesUnknownSlug(t *testing.T) {
	t.Parallel()

	svc, mock := newMockService(t)

	mock.ExpectQuery("EXISTS").
		WithArgs("credential-theft-wave-2026").
		WillReturnRows(sqlmock.NewRows([]string{"live", "buried"}).AddRow(false, false))
	mock.ExpectQuery("ORDER BY deleted_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("unrelated-old-story"))
	mock.ExpectExec("INSERT INTO intel.deleted_articles").
		WithArgs("credential-theft-wave-2026", "passive detection", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := svc.ResolveForRequest(context.Background(), "credential-theft-wave-2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ResolutionGone {
		t.Fatalf("unknown slug must be buried and answer gone, got %s", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResolveForRequest_FuzzyMatchSkipsBurial(t *testing.T) {
	t.Parallel()

	svc, mock := newMockService(t)

	mock.ExpectQuery("EXISTS").
		WithArgs("example-breach-report-2").
		WillReturnRows(sqlmock.NewRows([]string{"live", "buried"}).AddRow(false, false))
	mock.ExpectQuery("ORDER BY deleted_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("example-breach-report"))

	got, err := svc.ResolveForRequest(context.Background(), "example-breach-report-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ResolutionGone {
		t.Fatalf("fuzzy match must answer gone, got %s", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("fuzzy match must not insert a new tombstone: %v", err)
	}
}
