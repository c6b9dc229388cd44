package simplifier

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/db"
)

// staticCompleter satisfies Completer with a canned response.
type staticCompleter struct {
	response string
	err      error
}

func (s staticCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	return s.response, s.err
}

func newMockService(t *testing.T, model Completer) (*Service, sqlmock.Sqlmock) {
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
	return NewService(pool, zerolog.Nop(), model, Options{}), mock
}

func TestBuildUserPrompt_TruncatesContent(t *testing.T) {
	t.Parallel()

	article := &claimedArticle{
		Title:      "Breach at example corp",
		SourceName: "example-news",
		RawContent: strings.Repeat("z", maxPromptContentChars+500),
	}

	prompt := buildUserPrompt(article)
	if !strings.Contains(prompt, "Title: Breach at example corp") {
		t.Fatalf("prompt is missing the title: %q", prompt[:80])
	}
	if strings.Count(prompt, "z") != maxPromptContentChars {
		t.Fatalf("expected content clipped to %d chars, got %d", maxPromptContentChars, strings.Count(prompt, "z"))
	}
}

func TestBuildUserPrompt_ShortContentUnchanged(t *testing.T) {
	t.Parallel()

	article := &claimedArticle{
		Title:      "Short piece",
		SourceName: "feed",
		RawContent: "Tiny body.",
	}
	prompt := buildUserPrompt(article)
	if !strings.HasSuffix(prompt, "Tiny body.") {
		t.Fatalf("unexpected prompt tail: %q", prompt)
	}
}

const irrelevantReportJSON = `{
	"summary": "A quarterly earnings recap with no security angle.",
	"attack_vector": "none",
	"impact": "none",
	"actions": ["n/a", "n/a"],
	"threat_level": "low",
	"is_relevant": false
}`

func TestTransformOne_IrrelevantRemovesArticleAndAnalysis(t *testing.T) {
	t.Parallel()

	svc, mock := newMockService(t, staticCompleter{response: irrelevantReportJSON})

	mock.ExpectQuery("FROM intel.simplified_contents").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"friendly_summary", "business_impact"}))

	mock.ExpectBegin()
	mock.ExpectQuery("protected_from_deletion").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"deletable"}).AddRow(true))
	mock.ExpectExec("DELETE FROM intel.simplified_contents").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM intel.articles").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	article := &claimedArticle{ArticleID: 7, Title: "Earnings recap", Slug: "earnings-recap", Status: "processing"}
	outcome, err := svc.transformOne(context.Background(), article)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != outcomeProcessed {
		t.Fatalf("unexpected outcome: %d", outcome)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransformOne_IrrelevantKeepsProtectedArticleIntact(t *testing.T) {
	t.Parallel()

	svc, mock := newMockService(t, staticCompleter{response: irrelevantReportJSON})

	mock.ExpectQuery("FROM intel.simplified_contents").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"friendly_summary", "business_impact"}))

	mock.ExpectBegin()
	mock.ExpectQuery("protected_from_deletion").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"deletable"}).AddRow(false))
	mock.ExpectExec("SET status = 'ready'").
		WithArgs(int64(9), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	article := &claimedArticle{ArticleID: 9, Title: "Protected piece", Slug: "protected-piece", Status: "processing"}
	outcome, err := svc.transformOne(context.Background(), article)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != outcomeProcessed {
		t.Fatalf("unexpected outcome: %d", outcome)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("protected article must keep its analysis: %v", err)
	}
}

func TestApplyReport_TitleGuardSparesEditedArticles(t *testing.T) {
	t.Parallel()

	svc, mock := newMockService(t, staticCompleter{})

	report := &IntelReport{
		Summary:      "A hospital chain was hit by ransomware.",
		AttackVector: "Phishing email with a malicious attachment.",
		Impact:       "Patient scheduling was offline for two days.",
		Actions:      []string{"Patch mail gateways", "Rotate credentials"},
		ThreatLevel:  "high",
		IsRelevant:   true,
		Category:     "ransomware",
		SEOTitle:     "Hospital Ransomware Attack Disrupts Care",
	}
	actionsJSON, err := json.Marshal(report.Actions)
	if err != nil {
		t.Fatalf("marshal actions: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO intel.simplified_contents").
		WithArgs(int64(11), report.Summary, report.AttackVector, report.Impact,
			string(actionsJSON), report.ThreatLevel, readingTimeForReport(report), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE intel.articles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("status IN ('raw', 'processing', 'ready')")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET status = 'ready'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	article := &claimedArticle{ArticleID: 11, Title: "Old title", Slug: "old-title", RawContent: "body", Status: "processing"}
	if err := svc.applyReport(context.Background(), article, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
