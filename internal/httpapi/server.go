package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"marlizintel.com/intel/internal/db"
	"marlizintel.com/intel/internal/globaltime"
	"marlizintel.com/intel/internal/graveyard"
	"marlizintel.com/intel/internal/ingest"
	"marlizintel.com/intel/internal/lifecycle"
	"marlizintel.com/intel/internal/simplifier"
	"marlizintel.com/intel/internal/viewcache"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	BaseURL         string
	AdminTokenHash  string
	CORSOrigins     []string
}

// Services carries the domain services the handlers delegate to.
type Services struct {
	Ingestor   *ingest.Service
	Simplifier *simplifier.Service
	Editorial  *lifecycle.Service
	Graveyard  *graveyard.Service
	Views      viewcache.Deduper
}

type Server struct {
	pool     *db.Pool
	logger   zerolog.Logger
	services Services
	opts     Options
}

func NewServer(pool *db.Pool, logger zerolog.Logger, services Services, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		// Admin fetch and process calls do real work inline.
		writeTimeout = 5 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	corsOrigins := opts.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	return &Server{
		pool:     pool,
		logger:   logger,
		services: services,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			BaseURL:         strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
			AdminTokenHash:  strings.TrimSpace(opts.AdminTokenHash),
			CORSOrigins:     corsOrigins,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/sitemap.xml", s.handleSitemap)
	e.GET("/sitemap-deleted.xml", s.handleDeletedSitemap)
	e.GET("/robots.txt", s.handleRobots)

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/articles", s.handleArticleList)
	api.GET("/articles/:slug", s.handleArticleDetail)

	admin := api.Group("/admin", s.requireAdmin())
	admin.POST("/fetch", s.handleAdminFetch)
	admin.POST("/process", s.handleAdminProcess)
	admin.GET("/stats", s.handleAdminStats)
	admin.PUT("/articles/:slug/draft", s.handleAdminSaveDraft)
	admin.POST("/articles/:slug/publish", s.handleAdminPublish)
	admin.DELETE("/articles/:slug", s.handleAdminBury)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("intel api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("intel api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.DB().PingContext(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health ping failed")
		return internalError(c, "Database unreachable")
	}
	return success(c, map[string]any{
		"service": "intel",
		"time":    globaltime.UTC(),
	})
}
