package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TombstoneRecord is one row of intel.deleted_articles.
type TombstoneRecord struct {
	Slug      string
	Reason    string
	DeletedAt time.Time
}

// GetTombstoneBySlug returns the tombstone for an exact slug.
func (p *Pool) GetTombstoneBySlug(ctx context.Context, slug string) (*TombstoneRecord, error) {
	const q = `
SELECT slug, reason, deleted_at
FROM intel.deleted_articles
WHERE slug = $1
`
	var record TombstoneRecord
	if err := p.QueryRow(ctx, q, strings.TrimSpace(slug)).Scan(&record.Slug, &record.Reason, &record.DeletedAt); err != nil {
		return nil, err
	}
	return &record, nil
}

// InsertTombstone buries a slug. Burying an already buried slug is a no-op.
func (p *Pool) InsertTombstone(ctx context.Context, slug, reason string, deletedAt time.Time) (bool, error) {
	const q = `
INSERT INTO intel.deleted_articles (slug, reason, deleted_at)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO NOTHING
`
	tag, err := p.Exec(ctx, q, strings.TrimSpace(slug), strings.TrimSpace(reason), deletedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("insert tombstone for %q: %w", slug, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListTombstoneSlugs returns every buried slug, most recent first.
func (p *Pool) ListTombstoneSlugs(ctx context.Context) ([]string, error) {
	const q = `
SELECT slug
FROM intel.deleted_articles
ORDER BY deleted_at DESC, deleted_article_id DESC
`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query tombstone slugs: %w", err)
	}
	defer rows.Close()

	slugs := make([]string, 0, 64)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan tombstone slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tombstone slugs: %w", err)
	}
	return slugs, nil
}

// ListTombstonesForSitemap returns buried slugs with their burial time.
func (p *Pool) ListTombstonesForSitemap(ctx context.Context) ([]TombstoneRecord, error) {
	const q = `
SELECT slug, reason, deleted_at
FROM intel.deleted_articles
ORDER BY deleted_at DESC, deleted_article_id DESC
`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query tombstones: %w", err)
	}
	defer rows.Close()

	records := make([]TombstoneRecord, 0, 64)
	for rows.Next() {
		var record TombstoneRecord
		if err := rows.Scan(&record.Slug, &record.Reason, &record.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan tombstone: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tombstones: %w", err)
	}
	return records, nil
}

// GraveyardHealth holds the aggregate counts used by the audit command.
type GraveyardHealth struct {
	LiveArticles int64
	Tombstones   int64
	Conflicts    int64
}

// QueryGraveyardHealth computes live, buried and conflicting slug counts
// in a single round trip.
func (p *Pool) QueryGraveyardHealth(ctx context.Context) (*GraveyardHealth, error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM intel.articles) AS live_articles,
	(SELECT COUNT(*) FROM intel.deleted_articles) AS tombstones,
	(SELECT COUNT(*)
	 FROM intel.articles a
	 JOIN intel.deleted_articles d ON d.slug = a.slug) AS conflicts
`
	var health GraveyardHealth
	if err := p.QueryRow(ctx, q).Scan(&health.LiveArticles, &health.Tombstones, &health.Conflicts); err != nil {
		return nil, fmt.Errorf("query graveyard health: %w", err)
	}
	return &health, nil
}

// ListConflictSlugs returns slugs present in both the live and buried namespaces.
func (p *Pool) ListConflictSlugs(ctx context.Context) ([]string, error) {
	const q = `
SELECT a.slug
FROM intel.articles a
JOIN intel.deleted_articles d ON d.slug = a.slug
ORDER BY a.slug
`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query conflict slugs: %w", err)
	}
	defer rows.Close()

	slugs := make([]string, 0, 4)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan conflict slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflict slugs: %w", err)
	}
	return slugs, nil
}
