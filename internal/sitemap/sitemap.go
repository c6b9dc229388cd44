package sitemap

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"marlizintel.com/intel/internal/db"
)

const xmlHeader = xml.Header

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// RenderLive builds the sitemap for everything readers can reach:
// static pages, category pages and public articles. Last modification
// prefers updated_at and falls back to published_at.
func RenderLive(baseURL string, categories []string, articles []db.SitemapEntry) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return "", fmt.Errorf("base URL is required")
	}

	urls := []urlEntry{
		{Loc: base + "/", ChangeFreq: "hourly", Priority: "1.0"},
		{Loc: base + "/about", ChangeFreq: "monthly", Priority: "0.3"},
	}

	for _, category := range categories {
		slug := strings.TrimSpace(category)
		if slug == "" {
			continue
		}
		urls = append(urls, urlEntry{
			Loc:        base + "/category/" + slug,
			ChangeFreq: "daily",
			Priority:   "0.6",
		})
	}

	for _, article := range articles {
		slug := strings.TrimSpace(article.Slug)
		if slug == "" {
			continue
		}
		entry := urlEntry{
			Loc:        base + "/articles/" + slug,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		}
		if lastMod := pickLastMod(article.UpdatedAt, article.PublishedAt); lastMod != nil {
			entry.LastMod = lastMod.UTC().Format("2006-01-02")
		}
		urls = append(urls, entry)
	}

	return render(urls)
}

// RenderDeleted builds the tombstone sitemap so crawlers revisit and
// de-index retired URLs quickly.
func RenderDeleted(baseURL string, tombstones []db.TombstoneRecord) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return "", fmt.Errorf("base URL is required")
	}

	urls := make([]urlEntry, 0, len(tombstones))
	for _, tombstone := range tombstones {
		slug := strings.TrimSpace(tombstone.Slug)
		if slug == "" {
			continue
		}
		urls = append(urls, urlEntry{
			Loc:     base + "/articles/" + slug,
			LastMod: tombstone.DeletedAt.UTC().Format("2006-01-02"),
		})
	}

	return render(urls)
}

// RenderRobots points crawlers at the live sitemap.
func RenderRobots(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\n")
	b.WriteString("Sitemap: " + base + "/sitemap.xml\n")
	return b.String()
}

func pickLastMod(updatedAt, publishedAt *time.Time) *time.Time {
	if updatedAt != nil {
		return updatedAt
	}
	return publishedAt
}

func render(urls []urlEntry) (string, error) {
	payload, err := xml.MarshalIndent(urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sitemap: %w", err)
	}
	return xmlHeader + string(payload) + "\n", nil
}
