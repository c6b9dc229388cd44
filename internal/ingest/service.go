package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/globaltime"
	"marlizintel.com/intel/internal/langdetect"
	"marlizintel.com/intel/internal/reader"
	"marlizintel.com/intel/internal/slugger"
)

const (
	maxContentChars  = 5000
	maxStoreAttempts = 3
)

// Options configures one ingestion service.
type Options struct {
	Keywords      []string
	FeedURLs      []string
	Filter        FilterConfig
	FetchFullText bool
	HTTPClient    *http.Client
}

// RunStats summarizes one ingestion cycle.
type RunStats struct {
	Fetched    int `json:"fetched"`
	Admitted   int `json:"admitted"`
	Rejected   int `json:"rejected"`
	Duplicates int `json:"duplicates"`
}

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
	api    *APIClient
	opts   Options
}

func NewService(pool *db.Pool, logger zerolog.Logger, api *APIClient, opts Options) *Service {
	if opts.Filter.MinTitleLength <= 0 {
		opts.Filter.MinTitleLength = 20
	}
	if opts.Filter.MinContentChars <= 0 {
		opts.Filter.MinContentChars = 200
	}
	return &Service{
		pool:   pool,
		logger: logger,
		api:    api,
		opts:   opts,
	}
}

// RunCycle fetches every configured source once and ingests the results.
// A failing source is logged and skipped, never retried within the cycle.
func (s *Service) RunCycle(ctx context.Context) (RunStats, error) {
	if s == nil || s.pool == nil {
		return RunStats{}, fmt.Errorf("ingest service is not initialized")
	}

	candidates := make([]Candidate, 0, 64)

	if s.api != nil {
		for _, keyword := range s.opts.Keywords {
			items, err := s.api.FetchKeyword(ctx, keyword)
			if err != nil {
				s.logger.Warn().Err(err).Str("keyword", keyword).Msg("news API fetch failed")
				continue
			}
			candidates = append(candidates, items...)
		}
	}

	for _, feedURL := range s.opts.FeedURLs {
		items, err := FetchRSSFeed(ctx, feedURL, s.opts.HTTPClient)
		if err != nil {
			s.logger.Warn().Err(err).Str("feed", feedURL).Msg("rss fetch failed")
			continue
		}
		candidates = append(candidates, items...)
	}

	return s.IngestCandidates(ctx, candidates)
}

// IngestCandidates filters and stores a batch of candidates, one
// transaction per admitted item.
func (s *Service) IngestCandidates(ctx context.Context, candidates []Candidate) (RunStats, error) {
	stats := RunStats{Fetched: len(candidates)}

	for _, candidate := range candidates {
		outcome, err := s.ingestOne(ctx, candidate)
		if err != nil {
			s.logger.Error().Err(err).Str("url", candidate.Link).Msg("ingest candidate failed")
			stats.Rejected++
			continue
		}
		switch outcome {
		case outcomeAdmitted:
			stats.Admitted++
		case outcomeDuplicate:
			stats.Duplicates++
		default:
			stats.Rejected++
		}
	}

	s.logger.Info().
		Int("fetched", stats.Fetched).
		Int("admitted", stats.Admitted).
		Int("rejected", stats.Rejected).
		Int("duplicates", stats.Duplicates).
		Msg("ingest cycle finished")

	return stats, nil
}

type ingestOutcome int

const (
	outcomeRejected ingestOutcome = iota
	outcomeDuplicate
	outcomeAdmitted
)

func (s *Service) ingestOne(ctx context.Context, candidate Candidate) (ingestOutcome, error) {
	link := strings.TrimSpace(candidate.Link)
	if link == "" {
		return outcomeRejected, nil
	}

	if reason, ok := EvaluateCandidate(candidate, s.opts.Filter); !ok {
		if reason == "content too short" && s.opts.FetchFullText {
			full, err := reader.FetchFullText(ctx, link, s.opts.HTTPClient)
			if err == nil && full != "" {
				candidate.Content = full
				reason, ok = EvaluateCandidate(candidate, s.opts.Filter)
			}
		}
		if !ok {
			s.logger.Debug().Str("url", link).Str("reason", reason).Msg("candidate rejected")
			return outcomeRejected, nil
		}
	}

	content := buildRawContent(candidate)
	if !langdetect.IsEnglish(content) {
		s.logger.Debug().Str("url", link).Msg("candidate rejected: not english")
		return outcomeRejected, nil
	}

	// A concurrent writer can take the candidate slug (or the URL) between
	// the free-slug check and the insert. Retry on the fresh transaction so
	// the allocator picks the next suffix and the dedup check reruns.
	for attempt := 0; ; attempt++ {
		outcome, err := s.storeCandidate(ctx, candidate, link, content)
		if err != nil && db.IsUniqueViolation(err) && attempt < maxStoreAttempts-1 {
			s.logger.Debug().Str("url", link).Int("attempt", attempt).Msg("slug taken concurrently, retrying")
			continue
		}
		return outcome, err
	}
}

func (s *Service) storeCandidate(ctx context.Context, candidate Candidate, link, content string) (ingestOutcome, error) {
	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return outcomeRejected, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const existsQuery = `
SELECT EXISTS (SELECT 1 FROM intel.articles WHERE original_url = $1)
`
	var exists bool
	if err := tx.QueryRow(ctx, existsQuery, link).Scan(&exists); err != nil {
		return outcomeRejected, fmt.Errorf("check original url: %w", err)
	}
	if exists {
		return outcomeDuplicate, nil
	}

	slug, err := slugger.Allocate(ctx, tx, candidate.Title)
	if err != nil {
		return outcomeRejected, fmt.Errorf("allocate slug: %w", err)
	}

	categorySlug := SeedCategory(candidate.Title, content)
	var categoryID *int64
	var id int64
	if err := tx.QueryRow(ctx, `SELECT category_id FROM intel.categories WHERE slug = $1`, categorySlug).Scan(&id); err == nil {
		categoryID = &id
	} else if !db.IsNoRows(err) {
		return outcomeRejected, fmt.Errorf("lookup category %q: %w", categorySlug, err)
	}

	publishedAt := candidate.PublishedAt
	if publishedAt == nil {
		now := globaltime.UTC()
		publishedAt = &now
	}

	const insertQuery = `
INSERT INTO intel.articles (
	title, slug, original_url, source_name, published_at, image_url,
	raw_content, category_id, status, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'raw', $9, $9)
`
	now := globaltime.UTC()
	if _, err := tx.Exec(ctx, insertQuery,
		strings.TrimSpace(candidate.Title),
		slug,
		link,
		strings.TrimSpace(candidate.SourceName),
		publishedAt.UTC(),
		nullableString(candidate.ImageURL),
		content,
		categoryID,
		now,
	); err != nil {
		return outcomeRejected, fmt.Errorf("insert article: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return outcomeRejected, fmt.Errorf("commit ingest tx: %w", err)
	}

	s.logger.Info().Str("slug", slug).Str("url", link).Str("category", categorySlug).Msg("article ingested")
	return outcomeAdmitted, nil
}

// buildRawContent flattens the candidate body into plain text capped at
// maxContentChars runes.
func buildRawContent(candidate Candidate) string {
	combined := CombinedText(candidate)
	if strings.Contains(combined, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(combined)); err == nil {
			combined = doc.Text()
		}
	}
	return reader.TruncateText(reader.CleanText(combined), maxContentChars)
}

func nullableString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
