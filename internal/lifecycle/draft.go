package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/globaltime"
)

// DraftFields is the editor overlay. Nil fields are left untouched on
// publish.
type DraftFields struct {
	Title           *string
	Body            *string
	MetaDescription *string
	Keywords        *string
}

func (d DraftFields) Empty() bool {
	return d.Title == nil && d.Body == nil && d.MetaDescription == nil && d.Keywords == nil
}

// liveFields are the published counterparts the overlay merges into.
type liveFields struct {
	Title           string
	RawContent      string
	MetaDescription *string
	Keywords        *string
}

// mergeDraft applies per-field null-skip semantics: a nil draft field
// keeps the live value, a set one replaces it.
func mergeDraft(live liveFields, draft DraftFields) liveFields {
	if draft.Title != nil {
		live.Title = *draft.Title
	}
	if draft.Body != nil {
		live.RawContent = *draft.Body
	}
	if draft.MetaDescription != nil {
		live.MetaDescription = draft.MetaDescription
	}
	if draft.Keywords != nil {
		live.Keywords = draft.Keywords
	}
	return live
}

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{pool: pool, logger: logger}
}

var ErrArticleNotFound = db.ErrNoRows

// SaveDraft stages editor changes without touching the live fields and
// marks the article as editor-owned.
func (s *Service) SaveDraft(ctx context.Context, slug, editor string, draft DraftFields) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("lifecycle service is not initialized")
	}
	if draft.Empty() {
		return fmt.Errorf("draft has no fields to save")
	}

	const q = `
UPDATE intel.articles
SET draft_title = COALESCE($2, draft_title),
	draft_body = COALESCE($3, draft_body),
	draft_meta_description = COALESCE($4, draft_meta_description),
	draft_keywords = COALESCE($5, draft_keywords),
	has_draft = TRUE,
	is_edited = TRUE,
	edited_by = $6,
	edited_at = $7,
	status = CASE WHEN status IN ('ready', 'edited', 'published') THEN 'edited' ELSE status END,
	updated_at = $7
WHERE slug = $1
`
	now := globaltime.UTC()
	tag, err := s.pool.Exec(ctx, q,
		strings.TrimSpace(slug),
		draft.Title,
		draft.Body,
		draft.MetaDescription,
		draft.Keywords,
		strings.TrimSpace(editor),
		now,
	)
	if err != nil {
		return fmt.Errorf("save draft for %q: %w", slug, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrArticleNotFound
	}

	s.logger.Info().Str("slug", slug).Str("editor", editor).Msg("draft saved")
	return nil
}

// Publish merges the draft overlay onto the live fields, clears the
// overlay and sets the article published, all in one transaction. The
// slug never changes on publish.
func (s *Service) Publish(ctx context.Context, slug, editor string) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("lifecycle service is not initialized")
	}

	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin publish tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const load = `
SELECT article_id, status, title, raw_content, meta_description, keywords,
	draft_title, draft_body, draft_meta_description, draft_keywords
FROM intel.articles
WHERE slug = $1
FOR UPDATE
`
	var (
		articleID int64
		rawStatus string
		live      liveFields
		draft     DraftFields
	)
	if err := tx.QueryRow(ctx, load, strings.TrimSpace(slug)).Scan(
		&articleID,
		&rawStatus,
		&live.Title,
		&live.RawContent,
		&live.MetaDescription,
		&live.Keywords,
		&draft.Title,
		&draft.Body,
		&draft.MetaDescription,
		&draft.Keywords,
	); err != nil {
		if db.IsNoRows(err) {
			return ErrArticleNotFound
		}
		return fmt.Errorf("load article %q: %w", slug, err)
	}

	status, err := ParseStatus(rawStatus)
	if err != nil {
		return err
	}
	if !status.CanTransitionTo(StatusPublished) {
		return fmt.Errorf("article %q cannot be published from status %q", slug, status)
	}

	merged := mergeDraft(live, draft)

	const apply = `
UPDATE intel.articles
SET title = $2,
	raw_content = $3,
	meta_description = $4,
	keywords = $5,
	draft_title = NULL,
	draft_body = NULL,
	draft_meta_description = NULL,
	draft_keywords = NULL,
	has_draft = FALSE,
	status = 'published',
	is_edited = TRUE,
	edited_by = $6,
	edited_at = $7,
	updated_at = $7
WHERE article_id = $1
`
	now := globaltime.UTC()
	if _, err := tx.Exec(ctx, apply,
		articleID,
		merged.Title,
		merged.RawContent,
		merged.MetaDescription,
		merged.Keywords,
		strings.TrimSpace(editor),
		now,
	); err != nil {
		return fmt.Errorf("publish article %q: %w", slug, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit publish tx: %w", err)
	}

	s.logger.Info().Str("slug", slug).Str("editor", editor).Msg("article published")
	return nil
}
