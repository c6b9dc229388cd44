package sitemap

import (
	"strings"
	"testing"
	"time"

	"marlizintel.com/intel/internal/db"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestRenderLive_IncludesArticlesAndCategories(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	out, err := RenderLive("https://marlizintel.com/", []string{"ransomware"}, []db.SitemapEntry{
		{Slug: "example-breach", PublishedAt: timePtr(published), UpdatedAt: timePtr(updated)},
		{Slug: "older-story", PublishedAt: timePtr(published)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "<loc>https://marlizintel.com/articles/example-breach</loc>") {
		t.Fatalf("missing article URL:\n%s", out)
	}
	if !strings.Contains(out, "<loc>https://marlizintel.com/category/ransomware</loc>") {
		t.Fatalf("missing category URL:\n%s", out)
	}
	if !strings.Contains(out, "<lastmod>2026-08-02</lastmod>") {
		t.Fatalf("lastmod should prefer updated_at:\n%s", out)
	}
	if !strings.Contains(out, "<lastmod>2026-08-01</lastmod>") {
		t.Fatalf("lastmod should fall back to published_at:\n%s", out)
	}
}

func TestRenderLive_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := RenderLive("  ", nil, nil); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}

func TestRenderDeleted_UsesBurialDate(t *testing.T) {
	t.Parallel()

	out, err := RenderDeleted("https://marlizintel.com", []db.TombstoneRecord{
		{Slug: "retired-story", DeletedAt: time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "<loc>https://marlizintel.com/articles/retired-story</loc>") {
		t.Fatalf("missing tombstone URL:\n%s", out)
	}
	if !strings.Contains(out, "<lastmod>2026-07-15</lastmod>") {
		t.Fatalf("missing burial date:\n%s", out)
	}
}

func TestRenderRobots(t *testing.T) {
	t.Parallel()

	out := RenderRobots("https://marlizintel.com/")
	if !strings.Contains(out, "Sitemap: https://marlizintel.com/sitemap.xml") {
		t.Fatalf("missing sitemap reference:\n%s", out)
	}
	if !strings.Contains(out, "Disallow: /api/") {
		t.Fatalf("missing api disallow:\n%s", out)
	}
}
