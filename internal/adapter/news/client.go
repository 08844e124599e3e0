// Package news reads category headline feeds from Google News RSS.
package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

const locale = "hl=ja&gl=JP&ceid=JP:ja"

// topicIDs maps categories to Google News topic feeds. NewsGeneral uses the
// top-stories feed.
var topicIDs = map[domain.NewsCategory]string{
	domain.NewsTechnology:    "CAAqJggKIiBDQkFTRWdvSUwyMHZNRGRqTVhZU0FtcGhHZ0pLVUNnQVAB",
	domain.NewsBusiness:      "CAAqJggKIiBDQkFTRWdvSUwyMHZNRGx6TVdZU0FtcGhHZ0pLVUNnQVAB",
	domain.NewsSports:        "CAAqJggKIiBDQkFTRWdvSUwyMHZNRFp1ZEdvU0FtcGhHZ0pLVUNnQVAB",
	domain.NewsEntertainment: "CAAqJggKIiBDQkFTRWdvSUwyMHZNREpxYW5RU0FtcGhHZ0pLVUNnQVAB",
}

// Client implements domain.NewsProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Google News RSS client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://news.google.com/rss",
		logger:  logger,
	}
}

// FeedURL returns the feed address for a category.
func (c *Client) FeedURL(category domain.NewsCategory) string {
	if id, ok := topicIDs[category]; ok {
		return fmt.Sprintf("%s/topics/%s?%s", c.baseURL, id, locale)
	}
	return c.baseURL + "?" + locale
}

// Headlines returns up to limit item titles with the trailing publisher
// suffix removed, in feed order.
func (c *Client) Headlines(ctx context.Context, category domain.NewsCategory, limit int) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FeedURL(category), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("news feed error: status %d: %s", resp.StatusCode, body)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	headlines := make([]string, 0, limit)
	for _, item := range feed.Items {
		if len(headlines) == limit {
			break
		}
		if title := cleanTitle(item.Title); title != "" {
			headlines = append(headlines, title)
		}
	}
	c.logger.Debug("news feed parsed", "category", category.String(), "items", len(feed.Items))
	return headlines, nil
}

// cleanTitle drops everything from the first " - " separator, which Google
// News uses to append the publisher name.
func cleanTitle(title string) string {
	if i := strings.Index(title, " - "); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}
