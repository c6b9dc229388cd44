package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"marlizintel.com/intel/internal/auth"
	"marlizintel.com/intel/internal/lifecycle"
)

type draftRequest struct {
	Title           *string `json:"title"`
	Body            *string `json:"body"`
	MetaDescription *string `json:"meta_description"`
	Keywords        *string `json:"keywords"`
	Editor          string  `json:"editor"`
}

type buryRequest struct {
	Reason string `json:"reason"`
}

// requireAdmin checks the bearer token against the configured bcrypt
// hash. No hash configured means the admin surface is closed.
func (s *Server) requireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.opts.AdminTokenHash == "" {
				return fail(c, http.StatusServiceUnavailable, "Admin API is not configured", nil)
			}

			token := bearerToken(c.Request().Header.Get("Authorization"))
			if token == "" || !auth.VerifyToken(token, s.opts.AdminTokenHash) {
				return fail(c, http.StatusUnauthorized, "Invalid admin token", nil)
			}

			return next(c)
		}
	}
}

func bearerToken(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) handleAdminFetch(c echo.Context) error {
	stats, err := s.services.Ingestor.RunCycle(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("admin fetch failed")
		return internalError(c, "Ingestion cycle failed")
	}
	return success(c, stats)
}

func (s *Server) handleAdminProcess(c echo.Context) error {
	result, err := s.services.Simplifier.RunBatch(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("admin process failed")
		return internalError(c, "Transformation batch failed")
	}
	return success(c, result)
}

func (s *Server) handleAdminStats(c echo.Context) error {
	stats, err := s.pool.QueryDashboardStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query dashboard stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleAdminSaveDraft(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return failValidation(c, map[string]string{"slug": "is required"})
	}

	var req draftRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	draft := lifecycle.DraftFields{
		Title:           req.Title,
		Body:            req.Body,
		MetaDescription: req.MetaDescription,
		Keywords:        req.Keywords,
	}
	if draft.Empty() {
		return failValidation(c, map[string]string{"body": "at least one draft field is required"})
	}

	if err := s.services.Editorial.SaveDraft(c.Request().Context(), slug, editorName(req.Editor), draft); err != nil {
		if errors.Is(err, lifecycle.ErrArticleNotFound) {
			return failNotFound(c, "Article not found")
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("save draft failed")
		return internalError(c, "Failed to save draft")
	}

	return success(c, map[string]any{"slug": slug, "draft_saved": true})
}

func (s *Server) handleAdminPublish(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return failValidation(c, map[string]string{"slug": "is required"})
	}

	var req draftRequest
	if err := decodeJSONBody(c, &req); err != nil && !errors.Is(err, errEmptyBody) {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	if err := s.services.Editorial.Publish(c.Request().Context(), slug, editorName(req.Editor)); err != nil {
		if errors.Is(err, lifecycle.ErrArticleNotFound) {
			return failNotFound(c, "Article not found")
		}
		if strings.Contains(err.Error(), "cannot be published") {
			return fail(c, http.StatusConflict, err.Error(), nil)
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("publish failed")
		return internalError(c, "Failed to publish article")
	}

	return success(c, map[string]any{"slug": slug, "published": true})
}

func (s *Server) handleAdminBury(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return failValidation(c, map[string]string{"slug": "is required"})
	}

	var req buryRequest
	if err := decodeJSONBody(c, &req); err != nil && !errors.Is(err, errEmptyBody) {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "manual removal"
	}

	buried, err := s.services.Graveyard.Bury(c.Request().Context(), slug, reason)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("bury failed")
		return internalError(c, "Failed to bury article")
	}

	// A freshly buried live slug is a conflict until Resolve removes
	// the zombie row; force that now so the next read is clean.
	if _, err := s.services.Graveyard.Resolve(c.Request().Context(), slug); err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("post-bury resolve failed")
	}

	return success(c, map[string]any{"slug": slug, "buried": buried, "reason": reason})
}

var errEmptyBody = fmt.Errorf("request body is empty")

func decodeJSONBody(c echo.Context, target any) error {
	if c.Request().Body == nil {
		return errEmptyBody
	}
	decoder := json.NewDecoder(c.Request().Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func editorName(raw string) string {
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return trimmed
	}
	return "admin"
}
