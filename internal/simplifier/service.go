package simplifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/globaltime"
)

const (
	defaultBatchLimit       = 10
	defaultPauseBetween     = 2 * time.Second
	defaultMinAnalysisWords = 400
	maxPromptContentChars   = 3500
)

const systemPrompt = `You are a cybersecurity analyst writing for business readers.
Rewrite the article into a JSON object with exactly these keys:
summary, attack_vector, impact, actions, threat_level, is_relevant, category, seo_title.
"actions" must list 2 to 5 concrete defensive steps.
"threat_level" must be one of: low, medium, high, critical.
"category" must be one of: ransomware, phishing, data-breach, malware, vulnerability, general.
Set "is_relevant" to false when the article is not about a cybersecurity incident or threat.
Respond with the JSON object only.`

// Options configures one transformation service.
type Options struct {
	BatchLimit       int
	PauseBetween     time.Duration
	Backoff          Backoff
	MinAnalysisWords int
}

// BatchResult summarizes one transformation batch.
type BatchResult struct {
	Processed   int       `json:"processed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Remaining   int       `json:"remaining"`
	RateLimited bool      `json:"rate_limited"`
	Timestamp   time.Time `json:"timestamp"`
}

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
	model  Completer
	opts   Options
}

func NewService(pool *db.Pool, logger zerolog.Logger, model Completer, opts Options) *Service {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = defaultBatchLimit
	}
	if opts.PauseBetween < 0 {
		opts.PauseBetween = defaultPauseBetween
	}
	if opts.Backoff == (Backoff{}) {
		opts.Backoff = DefaultBackoff()
	}
	if opts.MinAnalysisWords <= 0 {
		opts.MinAnalysisWords = defaultMinAnalysisWords
	}
	return &Service{
		pool:   pool,
		logger: logger,
		model:  model,
		opts:   opts,
	}
}

type claimedArticle struct {
	ArticleID  int64
	Title      string
	Slug       string
	SourceName string
	RawContent string
	Status     string
}

// RunBatch transforms up to BatchLimit raw articles. A rate-limited
// provider stops the batch after the retry budget; everything claimed so
// far keeps its outcome.
func (s *Service) RunBatch(ctx context.Context) (BatchResult, error) {
	if s == nil || s.pool == nil {
		return BatchResult{}, fmt.Errorf("simplifier service is not initialized")
	}

	result := BatchResult{}

	for result.Processed+result.Failed+result.Skipped < s.opts.BatchLimit {
		article, err := s.claimNext(ctx)
		if err != nil {
			if db.IsNoRows(err) {
				break
			}
			return result, fmt.Errorf("claim next article: %w", err)
		}

		outcome, err := s.transformWithRetry(ctx, article)
		switch outcome {
		case outcomeProcessed:
			result.Processed++
		case outcomeSkipped:
			result.Skipped++
		case outcomeRateLimited:
			result.RateLimited = true
		default:
			result.Failed++
			s.logger.Error().Err(err).Str("slug", article.Slug).Msg("transformation failed")
		}

		if outcome == outcomeRateLimited {
			break
		}

		if err := s.pause(ctx); err != nil {
			break
		}
	}

	remaining, err := s.countRemaining(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("count remaining raw articles failed")
	}
	result.Remaining = remaining
	result.Timestamp = globaltime.UTC()

	s.logger.Info().
		Int("processed", result.Processed).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("remaining", result.Remaining).
		Bool("rate_limited", result.RateLimited).
		Msg("transformation batch finished")

	return result, nil
}

type transformOutcome int

const (
	outcomeFailed transformOutcome = iota
	outcomeProcessed
	outcomeSkipped
	outcomeRateLimited
)

func (s *Service) transformWithRetry(ctx context.Context, article *claimedArticle) (transformOutcome, error) {
	for attempt := 0; ; attempt++ {
		outcome, err := s.transformOne(ctx, article)
		if !errors.Is(err, ErrRateLimited) {
			return outcome, err
		}

		if revertErr := s.revertToRaw(ctx, article.ArticleID); revertErr != nil {
			s.logger.Error().Err(revertErr).Str("slug", article.Slug).Msg("revert to raw failed")
		}

		if attempt >= s.opts.Backoff.MaxRetries {
			s.logger.Warn().Str("slug", article.Slug).Msg("rate limit retries exhausted")
			return outcomeRateLimited, nil
		}

		s.logger.Warn().Str("slug", article.Slug).Int("attempt", attempt).Msg("rate limited, backing off")
		if waitErr := s.opts.Backoff.Wait(ctx, attempt); waitErr != nil {
			return outcomeRateLimited, nil
		}

		if claimErr := s.reclaim(ctx, article.ArticleID); claimErr != nil {
			return outcomeFailed, fmt.Errorf("reclaim article after backoff: %w", claimErr)
		}
	}
}

func (s *Service) transformOne(ctx context.Context, article *claimedArticle) (transformOutcome, error) {
	rich, err := s.hasRichAnalysis(ctx, article.ArticleID)
	if err != nil {
		return outcomeFailed, err
	}
	if rich {
		if err := s.markReady(ctx, article.ArticleID); err != nil {
			return outcomeFailed, err
		}
		s.logger.Debug().Str("slug", article.Slug).Msg("existing analysis kept, model call skipped")
		return outcomeSkipped, nil
	}

	response, err := s.model.Complete(ctx, systemPrompt, buildUserPrompt(article))
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return outcomeFailed, err
		}
		if revertErr := s.revertToRaw(ctx, article.ArticleID); revertErr != nil {
			s.logger.Error().Err(revertErr).Str("slug", article.Slug).Msg("revert to raw failed")
		}
		return outcomeFailed, fmt.Errorf("model call: %w", err)
	}

	report, err := ParseReport(response)
	if err != nil {
		if revertErr := s.revertToRaw(ctx, article.ArticleID); revertErr != nil {
			s.logger.Error().Err(revertErr).Str("slug", article.Slug).Msg("revert to raw failed")
		}
		return outcomeFailed, fmt.Errorf("parse model response: %w", err)
	}

	if !report.IsRelevant {
		if err := s.discardIrrelevant(ctx, article); err != nil {
			return outcomeFailed, err
		}
		s.logger.Info().Str("slug", article.Slug).Msg("article discarded as irrelevant")
		return outcomeProcessed, nil
	}

	if err := s.applyReport(ctx, article, report); err != nil {
		return outcomeFailed, err
	}

	s.logger.Info().Str("slug", article.Slug).Str("threat_level", report.ThreatLevel).Msg("article transformed")
	return outcomeProcessed, nil
}

func buildUserPrompt(article *claimedArticle) string {
	content := article.RawContent
	runes := []rune(content)
	if len(runes) > maxPromptContentChars {
		content = string(runes[:maxPromptContentChars])
	}

	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(article.Title)
	b.WriteString("\nSource: ")
	b.WriteString(article.SourceName)
	b.WriteString("\n\nArticle:\n")
	b.WriteString(content)
	return b.String()
}

func (s *Service) claimNext(ctx context.Context) (*claimedArticle, error) {
	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const q = `
SELECT article_id, title, slug, source_name, raw_content, status
FROM intel.articles
WHERE status = 'raw'
ORDER BY article_id
LIMIT 1
FOR UPDATE SKIP LOCKED
`
	var article claimedArticle
	if err := tx.QueryRow(ctx, q).Scan(
		&article.ArticleID,
		&article.Title,
		&article.Slug,
		&article.SourceName,
		&article.RawContent,
		&article.Status,
	); err != nil {
		return nil, err
	}

	const claim = `
UPDATE intel.articles
SET status = 'processing', updated_at = $2
WHERE article_id = $1 AND status = 'raw'
`
	tag, err := tx.Exec(ctx, claim, article.ArticleID, globaltime.UTC())
	if err != nil {
		return nil, fmt.Errorf("mark article processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}

	article.Status = "processing"
	return &article, nil
}

func (s *Service) reclaim(ctx context.Context, articleID int64) error {
	const q = `
UPDATE intel.articles
SET status = 'processing', updated_at = $2
WHERE article_id = $1 AND status = 'raw'
`
	tag, err := s.pool.Exec(ctx, q, articleID, globaltime.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %d is no longer claimable", articleID)
	}
	return nil
}

func (s *Service) revertToRaw(ctx context.Context, articleID int64) error {
	const q = `
UPDATE intel.articles
SET status = 'raw', updated_at = $2
WHERE article_id = $1 AND status = 'processing'
`
	if _, err := s.pool.Exec(ctx, q, articleID, globaltime.UTC()); err != nil {
		return fmt.Errorf("revert article %d to raw: %w", articleID, err)
	}
	return nil
}

func (s *Service) markReady(ctx context.Context, articleID int64) error {
	const q = `
UPDATE intel.articles
SET status = 'ready', updated_at = $2
WHERE article_id = $1 AND status = 'processing'
`
	if _, err := s.pool.Exec(ctx, q, articleID, globaltime.UTC()); err != nil {
		return fmt.Errorf("mark article %d ready: %w", articleID, err)
	}
	return nil
}

// hasRichAnalysis reports whether the article already carries an
// analysis long enough to keep without another model call.
func (s *Service) hasRichAnalysis(ctx context.Context, articleID int64) (bool, error) {
	const q = `
SELECT friendly_summary, business_impact
FROM intel.simplified_contents
WHERE article_id = $1
`
	var summary, impact string
	if err := s.pool.QueryRow(ctx, q, articleID).Scan(&summary, &impact); err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("load existing analysis: %w", err)
	}
	return WordCount(summary, impact) >= s.opts.MinAnalysisWords, nil
}

// discardIrrelevant removes the article and its analysis in one
// transaction. Published and protected articles are never deleted by an
// automated pass, and an article that survives keeps its analysis too.
func (s *Service) discardIrrelevant(ctx context.Context, article *claimedArticle) error {
	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin discard tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const lock = `
SELECT status <> 'published' AND NOT protected_from_deletion
FROM intel.articles
WHERE article_id = $1
FOR UPDATE
`
	var deletable bool
	if err := tx.QueryRow(ctx, lock, article.ArticleID).Scan(&deletable); err != nil {
		if db.IsNoRows(err) {
			return nil
		}
		return fmt.Errorf("lock article for discard: %w", err)
	}

	if !deletable {
		// Published or protected mid-flight. Keep everything, leave it ready.
		if _, err := tx.Exec(ctx,
			`UPDATE intel.articles SET status = 'ready', updated_at = $2 WHERE article_id = $1 AND status = 'processing'`,
			article.ArticleID, globaltime.UTC()); err != nil {
			return fmt.Errorf("restore protected article: %w", err)
		}
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM intel.simplified_contents WHERE article_id = $1`, article.ArticleID); err != nil {
		return fmt.Errorf("delete simplified content: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM intel.articles WHERE article_id = $1`, article.ArticleID); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Service) applyReport(ctx context.Context, article *claimedArticle, report *IntelReport) error {
	actionsJSON, err := json.Marshal(report.Actions)
	if err != nil {
		return fmt.Errorf("marshal action steps: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin apply tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := globaltime.UTC()
	readingTime := readingTimeForReport(report)

	const upsert = `
INSERT INTO intel.simplified_contents (
	article_id, friendly_summary, attack_vector, business_impact,
	action_steps, threat_level, reading_time_minutes, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (article_id) DO UPDATE SET
	friendly_summary = EXCLUDED.friendly_summary,
	attack_vector = EXCLUDED.attack_vector,
	business_impact = EXCLUDED.business_impact,
	action_steps = EXCLUDED.action_steps,
	threat_level = EXCLUDED.threat_level,
	reading_time_minutes = EXCLUDED.reading_time_minutes,
	updated_at = EXCLUDED.updated_at
`
	if _, err := tx.Exec(ctx, upsert,
		article.ArticleID,
		report.Summary,
		report.AttackVector,
		report.Impact,
		string(actionsJSON),
		report.ThreatLevel,
		readingTime,
		now,
	); err != nil {
		return fmt.Errorf("upsert simplified content: %w", err)
	}

	keywords := strings.Join(ExtractKeywords(article.Title, article.RawContent), ", ")
	meta := BuildMetaDescription(report.Summary)

	const updateSEO = `
UPDATE intel.articles
SET keywords = $2,
	meta_description = $3,
	category_id = COALESCE((SELECT category_id FROM intel.categories WHERE slug = $4), category_id),
	updated_at = $5
WHERE article_id = $1
`
	if _, err := tx.Exec(ctx, updateSEO, article.ArticleID, keywords, meta, report.Category, now); err != nil {
		return fmt.Errorf("update article seo: %w", err)
	}

	// Identity fields stay untouched once an editor owns the article.
	if title := strings.TrimSpace(report.SEOTitle); title != "" {
		const updateTitle = `
UPDATE intel.articles
SET title = $2, updated_at = $3
WHERE article_id = $1 AND status IN ('raw', 'processing', 'ready')
`
		if _, err := tx.Exec(ctx, updateTitle, article.ArticleID, title, now); err != nil {
			return fmt.Errorf("update article title: %w", err)
		}
	}

	const advance = `
UPDATE intel.articles
SET status = 'ready', updated_at = $2
WHERE article_id = $1 AND status = 'processing'
`
	if _, err := tx.Exec(ctx, advance, article.ArticleID, now); err != nil {
		return fmt.Errorf("advance article to ready: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Service) countRemaining(ctx context.Context) (int, error) {
	var remaining int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM intel.articles WHERE status = 'raw'`).Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *Service) pause(ctx context.Context) error {
	if s.opts.PauseBetween <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.opts.PauseBetween)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
