package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/graveyard"
	"marlizintel.com/intel/internal/lifecycle"
	"marlizintel.com/intel/internal/viewcache"
)

type simplifiedResponse struct {
	FriendlySummary    string   `json:"friendly_summary"`
	AttackVector       string   `json:"attack_vector"`
	BusinessImpact     string   `json:"business_impact"`
	ActionSteps        []string `json:"action_steps"`
	ThreatLevel        string   `json:"threat_level"`
	ReadingTimeMinutes int      `json:"reading_time_minutes"`
}

type articleResponse struct {
	Title           string              `json:"title"`
	Slug            string              `json:"slug"`
	OriginalURL     string              `json:"original_url"`
	SourceName      string              `json:"source_name"`
	PublishedAt     *time.Time          `json:"published_at,omitempty"`
	ImageURL        *string             `json:"image_url,omitempty"`
	Status          string              `json:"status"`
	MetaDescription *string             `json:"meta_description,omitempty"`
	Keywords        []string            `json:"keywords,omitempty"`
	Category        *string             `json:"category,omitempty"`
	CategoryName    *string             `json:"category_name,omitempty"`
	Views           int64               `json:"views"`
	IsEdited        bool                `json:"is_edited"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Simplified      *simplifiedResponse `json:"simplified,omitempty"`
}

var searchEngineHosts = []string{
	"google.", "bing.", "duckduckgo.", "yandex.", "baidu.", "ecosia.", "search.brave.",
}

var socialHosts = []string{
	"twitter.", "x.com", "t.co", "facebook.", "linkedin.", "reddit.", "news.ycombinator.",
	"mastodon.", "bsky.app", "infosec.exchange",
}

func (s *Server) handleArticleList(c echo.Context) error {
	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"page": err.Error()})
	}
	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"page_size": err.Error()})
	}

	total, rows, err := s.pool.ListArticles(c.Request().Context(), db.ArticleListOptions{
		CategorySlug: c.QueryParam("category"),
		Status:       c.QueryParam("status"),
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("query article list failed")
		return internalError(c, "Failed to load articles")
	}

	items := make([]articleResponse, 0, len(rows))
	for i := range rows {
		items = append(items, buildArticleResponse(&rows[i]))
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return success(c, map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total_items": total,
			"total_pages": totalPages,
		},
	})
}

// handleArticleDetail consults the graveyard before the live table so a
// buried slug answers 410 even when a zombie row still exists.
func (s *Server) handleArticleDetail(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return failValidation(c, map[string]string{"slug": "is required"})
	}

	resolution, err := s.services.Graveyard.ResolveForRequest(c.Request().Context(), slug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("graveyard resolve failed")
		return internalError(c, "Failed to resolve article")
	}
	if resolution == graveyard.ResolutionGone {
		return s.respondGone(c, slug)
	}

	article, err := s.pool.GetArticleBySlug(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Article not found")
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("query article failed")
		return internalError(c, "Failed to load article")
	}

	if !isPublicStatus(article.Status) {
		return failNotFound(c, "Article not found")
	}

	s.recordView(c, article)

	return success(c, buildArticleResponse(article))
}

// respondGone answers 410 with the burial record when one exists for the
// exact slug. Fuzzy matches carry no record, the message alone suffices.
func (s *Server) respondGone(c echo.Context, slug string) error {
	tomb, err := s.pool.GetTombstoneBySlug(c.Request().Context(), slug)
	if err != nil {
		return failGone(c, "This article has been removed", nil)
	}
	return failGone(c, "This article has been removed", map[string]any{
		"reason":     tomb.Reason,
		"removed_at": tomb.DeletedAt.UTC(),
	})
}

// recordView appends a view log row on every hit and bumps the counter
// once per client per window. Failures here never fail the request.
func (s *Server) recordView(c echo.Context, article *db.ArticleRecord) {
	ctx := c.Request().Context()
	referrer := c.Request().Referer()
	source := classifyReferrer(referrer)

	if err := s.pool.InsertViewLog(ctx, article.ArticleID, referrer, source); err != nil {
		s.logger.Error().Err(err).Int64("article_id", article.ArticleID).Msg("insert view log failed")
	}

	key := viewcache.Key(c.RealIP(), article.ArticleID)
	if s.services.Views != nil && s.services.Views.Seen(key) {
		return
	}
	if err := s.pool.IncrementArticleViews(ctx, article.ArticleID); err != nil {
		s.logger.Error().Err(err).Int64("article_id", article.ArticleID).Msg("increment views failed")
	}
}

func classifyReferrer(referrer string) string {
	trimmed := strings.TrimSpace(referrer)
	if trimmed == "" {
		return "direct"
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return "direct"
	}
	host := strings.ToLower(parsed.Host)

	for _, engine := range searchEngineHosts {
		if strings.Contains(host, engine) {
			return "search"
		}
	}
	for _, social := range socialHosts {
		if strings.Contains(host, social) {
			return "social"
		}
	}
	return "referral"
}

func isPublicStatus(status string) bool {
	parsed, err := lifecycle.ParseStatus(status)
	return err == nil && parsed.Public()
}

func buildArticleResponse(row *db.ArticleRecord) articleResponse {
	resp := articleResponse{
		Title:           row.Title,
		Slug:            row.Slug,
		OriginalURL:     row.OriginalURL,
		SourceName:      row.SourceName,
		PublishedAt:     row.PublishedAt,
		ImageURL:        row.ImageURL,
		Status:          row.Status,
		MetaDescription: row.MetaDescription,
		Keywords:        splitKeywords(row.Keywords),
		Category:        row.CategorySlug,
		CategoryName:    row.CategoryName,
		Views:           row.Views,
		IsEdited:        row.IsEdited,
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.Simplified != nil {
		resp.Simplified = &simplifiedResponse{
			FriendlySummary:    row.Simplified.FriendlySummary,
			AttackVector:       row.Simplified.AttackVector,
			BusinessImpact:     row.Simplified.BusinessImpact,
			ActionSteps:        decodeActionSteps(row.Simplified.ActionSteps),
			ThreatLevel:        row.Simplified.ThreatLevel,
			ReadingTimeMinutes: row.Simplified.ReadingTimeMinutes,
		}
	}
	return resp
}

func splitKeywords(raw *string) []string {
	if raw == nil {
		return nil
	}
	parts := strings.Split(*raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	if len(keywords) == 0 {
		return nil
	}
	return keywords
}

func decodeActionSteps(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var steps []string
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil
	}
	return steps
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
