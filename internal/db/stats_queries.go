package db

import (
	"context"
	"fmt"
	"time"
)

// DashboardStats feeds the admin stats endpoint.
type DashboardStats struct {
	TotalArticles   int64            `json:"total_articles"`
	PendingArticles int64            `json:"pending_articles"`
	ReadyArticles   int64            `json:"ready_articles"`
	EditedArticles  int64            `json:"edited_articles"`
	Published       int64            `json:"published_articles"`
	TotalViews      int64            `json:"total_views"`
	Tombstones      int64            `json:"tombstones"`
	LastIngestedAt  *time.Time       `json:"last_ingested_at,omitempty"`
	ByCategory      map[string]int64 `json:"by_category"`
}

func (p *Pool) QueryDashboardStats(ctx context.Context) (*DashboardStats, error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM intel.articles) AS total_articles,
	(SELECT COUNT(*) FROM intel.articles WHERE status IN ('raw', 'processing')) AS pending_articles,
	(SELECT COUNT(*) FROM intel.articles WHERE status = 'ready') AS ready_articles,
	(SELECT COUNT(*) FROM intel.articles WHERE status = 'edited') AS edited_articles,
	(SELECT COUNT(*) FROM intel.articles WHERE status = 'published') AS published_articles,
	(SELECT COALESCE(SUM(views), 0) FROM intel.articles) AS total_views,
	(SELECT COUNT(*) FROM intel.deleted_articles) AS tombstones,
	(SELECT MAX(created_at) FROM intel.articles) AS last_ingested_at
`

	var stats DashboardStats
	if err := p.QueryRow(ctx, q).Scan(
		&stats.TotalArticles,
		&stats.PendingArticles,
		&stats.ReadyArticles,
		&stats.EditedArticles,
		&stats.Published,
		&stats.TotalViews,
		&stats.Tombstones,
		&stats.LastIngestedAt,
	); err != nil {
		return nil, fmt.Errorf("query dashboard stats: %w", err)
	}

	const categoryQuery = `
SELECT COALESCE(c.slug, 'uncategorized'), COUNT(*)::BIGINT
FROM intel.articles a
LEFT JOIN intel.categories c ON c.category_id = a.category_id
GROUP BY 1
ORDER BY 1
`
	rows, err := p.Query(ctx, categoryQuery)
	if err != nil {
		return nil, fmt.Errorf("query category stats: %w", err)
	}
	defer rows.Close()

	stats.ByCategory = map[string]int64{}
	for rows.Next() {
		var slug string
		var count int64
		if err := rows.Scan(&slug, &count); err != nil {
			return nil, fmt.Errorf("scan category stat: %w", err)
		}
		stats.ByCategory[slug] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category stats: %w", err)
	}

	return &stats, nil
}
