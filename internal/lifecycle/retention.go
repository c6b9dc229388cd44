package lifecycle

import (
	"context"
	"fmt"
	"time"

	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/globaltime"
)

// SweepStats summarizes one retention pass.
type SweepStats struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

type sweepCandidate struct {
	ArticleID int64
	Slug      string
}

// SweepExpired hard-deletes news articles older than retentionDays.
// Evergreen and protected articles are never touched. Every deleted slug
// is buried in the same transaction so the URL stays resolvable as Gone.
func (s *Service) SweepExpired(ctx context.Context, retentionDays int) (SweepStats, error) {
	if s == nil || s.pool == nil {
		return SweepStats{}, fmt.Errorf("lifecycle service is not initialized")
	}
	if retentionDays < 1 {
		return SweepStats{}, fmt.Errorf("retention days must be >= 1")
	}

	cutoff := globaltime.UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	const q = `
SELECT article_id, slug
FROM intel.articles
WHERE content_type = 'news'
  AND NOT protected_from_deletion
  AND published_at IS NOT NULL
  AND published_at < $1
ORDER BY article_id
`
	rows, err := s.pool.Query(ctx, q, cutoff)
	if err != nil {
		return SweepStats{}, fmt.Errorf("query expired articles: %w", err)
	}

	candidates := make([]sweepCandidate, 0, 32)
	for rows.Next() {
		var candidate sweepCandidate
		if err := rows.Scan(&candidate.ArticleID, &candidate.Slug); err != nil {
			rows.Close()
			return SweepStats{}, fmt.Errorf("scan expired article: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return SweepStats{}, fmt.Errorf("iterate expired articles: %w", err)
	}
	rows.Close()

	stats := SweepStats{Scanned: len(candidates)}
	for _, candidate := range candidates {
		if err := s.deleteAndBury(ctx, candidate); err != nil {
			stats.Failed++
			s.logger.Error().Err(err).Str("slug", candidate.Slug).Msg("retention delete failed")
			continue
		}
		stats.Deleted++
		s.logger.Info().Str("slug", candidate.Slug).Int64("article_id", candidate.ArticleID).Msg("expired article removed")
	}

	s.logger.Info().
		Int("scanned", stats.Scanned).
		Int("deleted", stats.Deleted).
		Int("failed", stats.Failed).
		Msg("retention sweep finished")

	return stats, nil
}

func (s *Service) deleteAndBury(ctx context.Context, candidate sweepCandidate) error {
	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin sweep tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM intel.simplified_contents WHERE article_id = $1`, candidate.ArticleID); err != nil {
		return fmt.Errorf("delete simplified content: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM intel.articles WHERE article_id = $1 AND content_type = 'news' AND NOT protected_from_deletion`,
		candidate.ArticleID)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Protected since the scan. Deferred rollback undoes the
		// content delete; nothing to bury.
		return nil
	}

	const bury = `
INSERT INTO intel.deleted_articles (slug, reason, deleted_at)
VALUES ($1, 'retention sweep', $2)
ON CONFLICT (slug) DO NOTHING
`
	if _, err := tx.Exec(ctx, bury, candidate.Slug, globaltime.UTC()); err != nil {
		return fmt.Errorf("bury slug: %w", err)
	}

	return tx.Commit(ctx)
}
