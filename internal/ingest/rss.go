package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const rssFetchTimeout = 20 * time.Second

// FetchRSSFeed pulls one RSS or Atom feed and maps its items into candidates.
func FetchRSSFeed(ctx context.Context, feedURL string, client *http.Client) ([]Candidate, error) {
	trimmed := strings.TrimSpace(feedURL)
	if trimmed == "" {
		return nil, fmt.Errorf("feed URL is required")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, rssFetchTimeout)
	defer cancel()

	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}

	feed, err := parser.ParseURLWithContext(trimmed, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", trimmed, err)
	}

	sourceName := strings.TrimSpace(feed.Title)
	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		var publishedAt *time.Time
		if item.PublishedParsed != nil {
			utc := item.PublishedParsed.UTC()
			publishedAt = &utc
		} else if item.UpdatedParsed != nil {
			utc := item.UpdatedParsed.UTC()
			publishedAt = &utc
		}

		imageURL := ""
		if item.Image != nil {
			imageURL = strings.TrimSpace(item.Image.URL)
		}

		candidates = append(candidates, Candidate{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: strings.TrimSpace(item.Description),
			Content:     strings.TrimSpace(item.Content),
			SourceName:  sourceName,
			PublishedAt: publishedAt,
			ImageURL:    imageURL,
		})
	}

	return candidates, nil
}
