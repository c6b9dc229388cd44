package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"INTEL_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"INTEL_DB_MAX_CONNS" default:"8"`

	SiteBaseURL string `envconfig:"SITE_BASE_URL" default:"https://marlizintel.com"`

	NewsAPIKey      string `envconfig:"NEWS_API_KEY" default:""`
	NewsAPIBaseURL  string `envconfig:"NEWS_API_BASE_URL" default:"https://newsdata.io/api/1/news"`
	NewsRSSFeeds    string `envconfig:"NEWS_RSS_FEEDS" default:""`
	NewsKeywords    string `envconfig:"NEWS_KEYWORDS" default:"cybersecurity,ransomware,data breach"`
	MinTitleLength  int    `envconfig:"MIN_TITLE_LENGTH" default:"20"`
	MinContentChars int    `envconfig:"MIN_ARTICLE_LENGTH" default:"200"`

	AIAPIKey         string        `envconfig:"AI_API_KEY" default:""`
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:"https://api.groq.com/openai/v1/chat/completions"`
	AIModel          string        `envconfig:"AI_MODEL" default:"llama-3.3-70b-versatile"`
	AIBatchLimit     int           `envconfig:"AI_BATCH_LIMIT" default:"10"`
	AIPauseBetween   time.Duration `envconfig:"AI_PAUSE_BETWEEN" default:"2s"`
	AIRequestTimeout time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"60s"`

	RetentionDays int `envconfig:"RETENTION_DAYS" default:"30"`

	AdminTokenHash string `envconfig:"ADMIN_TOKEN_HASH" default:""`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`

	SchedulerEnabled bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	FetchInterval    time.Duration `envconfig:"FETCH_INTERVAL" default:"12h"`
	ProcessInterval  time.Duration `envconfig:"PROCESS_INTERVAL" default:"30m"`
	SweepInterval    time.Duration `envconfig:"SWEEP_INTERVAL" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("INTEL_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("INTEL_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("INTEL_DB_MIN_CONNS (%d) cannot exceed INTEL_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.SiteBaseURL) == "" {
		return fmt.Errorf("SITE_BASE_URL is required")
	}
	if c.MinTitleLength < 1 {
		return fmt.Errorf("MIN_TITLE_LENGTH must be >= 1")
	}
	if c.MinContentChars < 1 {
		return fmt.Errorf("MIN_ARTICLE_LENGTH must be >= 1")
	}
	if c.AIBatchLimit < 1 {
		return fmt.Errorf("AI_BATCH_LIMIT must be >= 1")
	}
	if c.AIPauseBetween < 0 {
		return fmt.Errorf("AI_PAUSE_BETWEEN must be >= 0")
	}
	if c.AIRequestTimeout < time.Second {
		return fmt.Errorf("AI_REQUEST_TIMEOUT must be >= 1s")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("RETENTION_DAYS must be >= 1")
	}
	return nil
}

func (c *Config) NewsKeywordList() []string {
	return splitCSV(c.NewsKeywords)
}

func (c *Config) NewsRSSFeedList() []string {
	return splitCSV(c.NewsRSSFeeds)
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitCSV(c.CORSAllowedOrigins)
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}
