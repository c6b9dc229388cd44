package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ArticleRecord is the read model served by the public API.
type ArticleRecord struct {
	ArticleID       int64
	Title           string
	Slug            string
	OriginalURL     string
	SourceName      string
	PublishedAt     *time.Time
	ImageURL        *string
	Status          string
	MetaDescription *string
	Keywords        *string
	CategorySlug    *string
	CategoryName    *string
	Views           int64
	IsEdited        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Simplified *SimplifiedRecord
}

type SimplifiedRecord struct {
	FriendlySummary    string
	AttackVector       string
	BusinessImpact     string
	ActionSteps        string
	ThreatLevel        string
	ReadingTimeMinutes int
}

type ArticleListOptions struct {
	CategorySlug string
	Status       string
	Page         int
	PageSize     int
}

func (o *ArticleListOptions) normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = 20
	}
	if o.PageSize > 100 {
		o.PageSize = 100
	}
	o.CategorySlug = strings.TrimSpace(strings.ToLower(o.CategorySlug))
	o.Status = strings.TrimSpace(strings.ToLower(o.Status))
}

const articleSelectColumns = `
	a.article_id,
	a.title,
	a.slug,
	a.original_url,
	a.source_name,
	a.published_at,
	a.image_url,
	a.status,
	a.meta_description,
	a.keywords,
	c.slug,
	c.name,
	a.views,
	a.is_edited,
	a.created_at,
	a.updated_at`

// GetArticleBySlug loads one article with its simplified content, if any.
func (p *Pool) GetArticleBySlug(ctx context.Context, slug string) (*ArticleRecord, error) {
	const q = `
SELECT` + articleSelectColumns + `,
	sc.friendly_summary,
	sc.attack_vector,
	sc.business_impact,
	sc.action_steps::text,
	sc.threat_level,
	sc.reading_time_minutes
FROM intel.articles a
LEFT JOIN intel.categories c ON c.category_id = a.category_id
LEFT JOIN intel.simplified_contents sc ON sc.article_id = a.article_id
WHERE a.slug = $1
`

	var (
		record      ArticleRecord
		summary     *string
		vector      *string
		impact      *string
		actions     *string
		threatLevel *string
		readingTime *int
	)
	if err := p.QueryRow(ctx, q, strings.TrimSpace(slug)).Scan(
		&record.ArticleID,
		&record.Title,
		&record.Slug,
		&record.OriginalURL,
		&record.SourceName,
		&record.PublishedAt,
		&record.ImageURL,
		&record.Status,
		&record.MetaDescription,
		&record.Keywords,
		&record.CategorySlug,
		&record.CategoryName,
		&record.Views,
		&record.IsEdited,
		&record.CreatedAt,
		&record.UpdatedAt,
		&summary,
		&vector,
		&impact,
		&actions,
		&threatLevel,
		&readingTime,
	); err != nil {
		return nil, err
	}

	if summary != nil && vector != nil && impact != nil && actions != nil {
		simplified := &SimplifiedRecord{
			FriendlySummary:    *summary,
			AttackVector:       *vector,
			BusinessImpact:     *impact,
			ActionSteps:        *actions,
			ThreatLevel:        "medium",
			ReadingTimeMinutes: 2,
		}
		if threatLevel != nil {
			simplified.ThreatLevel = *threatLevel
		}
		if readingTime != nil {
			simplified.ReadingTimeMinutes = *readingTime
		}
		record.Simplified = simplified
	}

	return &record, nil
}

// ListArticles returns a page of publicly visible articles.
func (p *Pool) ListArticles(ctx context.Context, opts ArticleListOptions) (int64, []ArticleRecord, error) {
	opts.normalize()

	const countQuery = `
SELECT COUNT(*)
FROM intel.articles a
LEFT JOIN intel.categories c ON c.category_id = a.category_id
WHERE a.status IN ('ready', 'edited', 'published')
  AND ($1 = '' OR c.slug = $1)
  AND ($2 = '' OR a.status = $2)
`

	var total int64
	if err := p.QueryRow(ctx, countQuery, opts.CategorySlug, opts.Status).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count articles: %w", err)
	}

	const rowsQuery = `
SELECT` + articleSelectColumns + `
FROM intel.articles a
LEFT JOIN intel.categories c ON c.category_id = a.category_id
WHERE a.status IN ('ready', 'edited', 'published')
  AND ($1 = '' OR c.slug = $1)
  AND ($2 = '' OR a.status = $2)
ORDER BY a.published_at DESC NULLS LAST, a.article_id DESC
LIMIT $3
OFFSET $4
`

	offset := (opts.Page - 1) * opts.PageSize
	rows, err := p.Query(ctx, rowsQuery, opts.CategorySlug, opts.Status, opts.PageSize, offset)
	if err != nil {
		return 0, nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	items := make([]ArticleRecord, 0, opts.PageSize)
	for rows.Next() {
		var record ArticleRecord
		if err := rows.Scan(
			&record.ArticleID,
			&record.Title,
			&record.Slug,
			&record.OriginalURL,
			&record.SourceName,
			&record.PublishedAt,
			&record.ImageURL,
			&record.Status,
			&record.MetaDescription,
			&record.Keywords,
			&record.CategorySlug,
			&record.CategoryName,
			&record.Views,
			&record.IsEdited,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return 0, nil, fmt.Errorf("scan article row: %w", err)
		}
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterate article rows: %w", err)
	}

	return total, items, nil
}

// IncrementArticleViews adds one counted view.
func (p *Pool) IncrementArticleViews(ctx context.Context, articleID int64) error {
	const q = `
UPDATE intel.articles
SET views = views + 1
WHERE article_id = $1
`
	if _, err := p.Exec(ctx, q, articleID); err != nil {
		return fmt.Errorf("increment views for article %d: %w", articleID, err)
	}
	return nil
}

// InsertViewLog appends one raw view event, counted or not.
func (p *Pool) InsertViewLog(ctx context.Context, articleID int64, referrer, source string) error {
	const q = `
INSERT INTO intel.view_logs (article_id, referrer, source)
VALUES ($1, $2, $3)
`
	if _, err := p.Exec(ctx, q, articleID, strings.TrimSpace(referrer), strings.TrimSpace(source)); err != nil {
		return fmt.Errorf("insert view log for article %d: %w", articleID, err)
	}
	return nil
}

// SitemapEntry is one URL row for sitemap rendering.
type SitemapEntry struct {
	Slug        string
	PublishedAt *time.Time
	UpdatedAt   *time.Time
}

// ListArticlesForSitemap returns every publicly visible article slug.
func (p *Pool) ListArticlesForSitemap(ctx context.Context) ([]SitemapEntry, error) {
	const q = `
SELECT slug, published_at, updated_at
FROM intel.articles
WHERE status IN ('ready', 'edited', 'published')
ORDER BY published_at DESC NULLS LAST, article_id DESC
`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query sitemap articles: %w", err)
	}
	defer rows.Close()

	entries := make([]SitemapEntry, 0, 128)
	for rows.Next() {
		var entry SitemapEntry
		if err := rows.Scan(&entry.Slug, &entry.PublishedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sitemap article: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sitemap articles: %w", err)
	}
	return entries, nil
}

// ListCategorySlugs returns all category slugs ordered by priority.
func (p *Pool) ListCategorySlugs(ctx context.Context) ([]string, error) {
	const q = `
SELECT slug
FROM intel.categories
ORDER BY priority, slug
`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query category slugs: %w", err)
	}
	defer rows.Close()

	slugs := make([]string, 0, 8)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan category slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category slugs: %w", err)
	}
	return slugs, nil
}
