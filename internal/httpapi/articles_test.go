package httpapi

import (
	"testing"

	"marlizintel.com/intel/internal/db"
)

func strPtr(s string) *string { return &s }

func TestClassifyReferrer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		referrer string
		want     string
	}{
		{"", "direct"},
		{"   ", "direct"},
		{"not a url", "direct"},
		{"https://www.google.com/search?q=breach", "search"},
		{"https://duckduckgo.com/", "search"},
		{"https://t.co/abc123", "social"},
		{"https://news.ycombinator.com/item?id=1", "social"},
		{"https://infosec.exchange/@someone", "social"},
		{"https://example-blog.net/roundup", "referral"},
	}

	for _, tc := range cases {
		if got := classifyReferrer(tc.referrer); got != tc.want {
			t.Errorf("classifyReferrer(%q) = %q, want %q", tc.referrer, got, tc.want)
		}
	}
}

func TestIsPublicStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"ready", "edited", "published"} {
		if !isPublicStatus(status) {
			t.Errorf("expected %q to be public", status)
		}
	}
	for _, status := range []string{"raw", "processing", "", "deleted"} {
		if isPublicStatus(status) {
			t.Errorf("expected %q to be hidden", status)
		}
	}
}

func TestBuildArticleResponse_KeywordsAndActions(t *testing.T) {
	t.Parallel()

	row := db.ArticleRecord{
		Title:    "Example Breach",
		Slug:     "example-breach",
		Keywords: strPtr("ransomware, zero-day , ,cybersecurity"),
		Simplified: &db.SimplifiedRecord{
			FriendlySummary: "Summary",
			ActionSteps:     `["Patch now","Rotate credentials"]`,
			ThreatLevel:     "high",
		},
	}

	resp := buildArticleResponse(&row)
	if len(resp.Keywords) != 3 || resp.Keywords[1] != "zero-day" {
		t.Fatalf("unexpected keywords: %#v", resp.Keywords)
	}
	if resp.Simplified == nil || len(resp.Simplified.ActionSteps) != 2 {
		t.Fatalf("unexpected action steps: %#v", resp.Simplified)
	}
}

func TestBuildArticleResponse_MalformedActionsDropped(t *testing.T) {
	t.Parallel()

	row := db.ArticleRecord{
		Simplified: &db.SimplifiedRecord{ActionSteps: "{not json"},
	}
	resp := buildArticleResponse(&row)
	if resp.Simplified.ActionSteps != nil {
		t.Fatalf("expected malformed action steps to be dropped")
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	if got := bearerToken("Bearer abc123"); got != "abc123" {
		t.Fatalf("got %q", got)
	}
	if got := bearerToken("bearer abc123"); got != "abc123" {
		t.Fatalf("scheme must be case-insensitive, got %q", got)
	}
	if got := bearerToken("Basic abc123"); got != "" {
		t.Fatalf("non-bearer scheme must be rejected, got %q", got)
	}
	if got := bearerToken(""); got != "" {
		t.Fatalf("empty header must yield empty token, got %q", got)
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got, err := parsePositiveInt("", 20, 1, 100); err != nil || got != 20 {
		t.Fatalf("empty input must use default, got %d err %v", got, err)
	}
	if got, err := parsePositiveInt("42", 20, 1, 100); err != nil || got != 42 {
		t.Fatalf("got %d err %v", got, err)
	}
	if _, err := parsePositiveInt("0", 20, 1, 100); err == nil {
		t.Fatalf("below minimum must error")
	}
	if _, err := parsePositiveInt("abc", 20, 1, 100); err == nil {
		t.Fatalf("non-integer must error")
	}
}
