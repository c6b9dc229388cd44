package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marlizintel.com/intel/internal/sitemap"
)

func (s *Server) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := s.pool.ListCategorySlugs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("query sitemap categories failed")
		return internalError(c, "Failed to build sitemap")
	}
	articles, err := s.pool.ListArticlesForSitemap(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("query sitemap articles failed")
		return internalError(c, "Failed to build sitemap")
	}

	body, err := sitemap.RenderLive(s.opts.BaseURL, categories, articles)
	if err != nil {
		s.logger.Error().Err(err).Msg("render sitemap failed")
		return internalError(c, "Failed to build sitemap")
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", []byte(body))
}

func (s *Server) handleDeletedSitemap(c echo.Context) error {
	tombstones, err := s.pool.ListTombstonesForSitemap(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query deleted sitemap failed")
		return internalError(c, "Failed to build deleted sitemap")
	}

	body, err := sitemap.RenderDeleted(s.opts.BaseURL, tombstones)
	if err != nil {
		s.logger.Error().Err(err).Msg("render deleted sitemap failed")
		return internalError(c, "Failed to build deleted sitemap")
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", []byte(body))
}

func (s *Server) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, sitemap.RenderRobots(s.opts.BaseURL))
}
