package graveyard

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/globaltime"
)

// Resolution classifies a requested slug.
type Resolution int

const (
	ResolutionUnknown Resolution = iota
	ResolutionLive
	ResolutionGone
)

func (r Resolution) String() string {
	switch r {
	case ResolutionLive:
		return "live"
	case ResolutionGone:
		return "gone"
	default:
		return "unknown"
	}
}

// minFuzzyLength keeps short junk slugs from matching real tombstones.
const minFuzzyLength = 10

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{pool: pool, logger: logger}
}

// Bury tombstones a slug. Re-burying is a no-op.
func (s *Service) Bury(ctx context.Context, slug, reason string) (bool, error) {
	if s == nil || s.pool == nil {
		return false, fmt.Errorf("graveyard service is not initialized")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return false, fmt.Errorf("slug is required")
	}

	inserted, err := s.pool.InsertTombstone(ctx, trimmed, reason, globaltime.UTC())
	if err != nil {
		return false, err
	}
	if inserted {
		s.logger.Info().Str("slug", trimmed).Str("reason", reason).Msg("slug buried")
	}
	return inserted, nil
}

// Resolve classifies a slug against the live and buried namespaces.
// A slug present in both is a conflict: the tombstone wins and the live
// row is removed.
func (s *Service) Resolve(ctx context.Context, slug string) (Resolution, error) {
	if s == nil || s.pool == nil {
		return ResolutionUnknown, fmt.Errorf("graveyard service is not initialized")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return ResolutionUnknown, nil
	}

	const q = `
SELECT
	EXISTS (SELECT 1 FROM intel.articles WHERE slug = $1),
	EXISTS (SELECT 1 FROM intel.deleted_articles WHERE slug = $1)
`
	var live, buried bool
	if err := s.pool.QueryRow(ctx, q, trimmed).Scan(&live, &buried); err != nil {
		return ResolutionUnknown, fmt.Errorf("resolve slug %q: %w", trimmed, err)
	}

	switch {
	case live && buried:
		if err := s.removeZombie(ctx, trimmed); err != nil {
			return ResolutionUnknown, err
		}
		s.logger.Warn().Str("slug", trimmed).Msg("graveyard conflict resolved, tombstone kept")
		return ResolutionGone, nil
	case buried:
		return ResolutionGone, nil
	case live:
		return ResolutionLive, nil
	default:
		return ResolutionUnknown, nil
	}
}

// ResolveForRequest adds passive detection on top of Resolve: a slug
// matching neither namespace is checked against tombstones fuzzily and,
// failing that, buried so crawlers get a definitive Gone from now on.
func (s *Service) ResolveForRequest(ctx context.Context, slug string) (Resolution, error) {
	resolution, err := s.Resolve(ctx, slug)
	if err != nil || resolution != ResolutionUnknown {
		return resolution, err
	}

	tombstones, err := s.pool.ListTombstoneSlugs(ctx)
	if err != nil {
		return ResolutionUnknown, fmt.Errorf("list tombstones: %w", err)
	}
	if match, ok := FuzzyMatch(slug, tombstones); ok {
		s.logger.Debug().Str("slug", slug).Str("match", match).Msg("fuzzy tombstone match")
		return ResolutionGone, nil
	}

	if _, err := s.Bury(ctx, slug, "passive detection"); err != nil {
		return ResolutionUnknown, err
	}
	return ResolutionGone, nil
}

// FuzzyMatch finds a tombstone that contains, or is contained in, the
// requested slug. Short slugs never match to keep noise out.
func FuzzyMatch(slug string, tombstones []string) (string, bool) {
	needle := strings.TrimSpace(strings.ToLower(slug))
	if len(needle) < minFuzzyLength {
		return "", false
	}

	for _, tombstone := range tombstones {
		candidate := strings.ToLower(tombstone)
		if len(candidate) < minFuzzyLength {
			continue
		}
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return tombstone, true
		}
	}
	return "", false
}

// Reconcile sweeps the full conflict set. With commit=false it only
// reports how many zombies exist.
func (s *Service) Reconcile(ctx context.Context, commit bool) (int, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("graveyard service is not initialized")
	}

	conflicts, err := s.pool.ListConflictSlugs(ctx)
	if err != nil {
		return 0, err
	}

	if !commit {
		return len(conflicts), nil
	}

	removed := 0
	for _, slug := range conflicts {
		if err := s.removeZombie(ctx, slug); err != nil {
			s.logger.Error().Err(err).Str("slug", slug).Msg("zombie removal failed")
			continue
		}
		removed++
	}

	s.logger.Info().Int("conflicts", len(conflicts)).Int("removed", removed).Msg("graveyard reconciled")
	return removed, nil
}

// Health returns aggregate counts without touching per-row data.
func (s *Service) Health(ctx context.Context) (*db.GraveyardHealth, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("graveyard service is not initialized")
	}
	return s.pool.QueryGraveyardHealth(ctx)
}

// removeZombie deletes the live row for a buried slug, keeping the
// tombstone authoritative.
func (s *Service) removeZombie(ctx context.Context, slug string) error {
	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin zombie tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const deleteContent = `
DELETE FROM intel.simplified_contents
WHERE article_id IN (SELECT article_id FROM intel.articles WHERE slug = $1)
`
	if _, err := tx.Exec(ctx, deleteContent, slug); err != nil {
		return fmt.Errorf("delete zombie content: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM intel.articles WHERE slug = $1`, slug); err != nil {
		return fmt.Errorf("delete zombie article: %w", err)
	}

	return tx.Commit(ctx)
}
