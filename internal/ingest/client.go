package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	newsAPITimeout   = 30 * time.Second
	newsAPIPageSize  = 10
	maxResponseBytes = 4 * 1024 * 1024
)

// APIClient queries a newsdata.io style JSON endpoint.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAPIClient(baseURL, apiKey string, client *http.Client) *APIClient {
	if client == nil {
		client = &http.Client{Timeout: newsAPITimeout}
	}
	return &APIClient{
		baseURL:    strings.TrimSpace(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: client,
	}
}

type newsAPIResponse struct {
	Status  string        `json:"status"`
	Results []newsAPIItem `json:"results"`
}

type newsAPIItem struct {
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	PubDate     *string `json:"pubDate"`
	ImageURL    *string `json:"image_url"`
	SourceID    *string `json:"source_id"`
}

// FetchKeyword runs one search query and maps results into candidates.
func (c *APIClient) FetchKeyword(ctx context.Context, keyword string) ([]Candidate, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("news API client is not configured")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("news API key is not configured")
	}

	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("q", strings.TrimSpace(keyword))
	query.Set("language", "en")
	query.Set("category", "technology")
	query.Set("size", fmt.Sprintf("%d", newsAPIPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build news API request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read news API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API status %d", resp.StatusCode)
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode news API response: %w", err)
	}
	if !strings.EqualFold(parsed.Status, "success") {
		return nil, fmt.Errorf("news API returned status %q", parsed.Status)
	}

	candidates := make([]Candidate, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		candidate := Candidate{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: derefTrimmed(item.Description),
			Content:     derefTrimmed(item.Content),
			SourceName:  derefTrimmed(item.SourceID),
			ImageURL:    derefTrimmed(item.ImageURL),
		}
		if item.PubDate != nil {
			if ts, parseErr := parseNewsAPITime(*item.PubDate); parseErr == nil {
				candidate.PublishedAt = &ts
			}
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func parseNewsAPITime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", raw)
}

func derefTrimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
