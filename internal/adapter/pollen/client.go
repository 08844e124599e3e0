// Package pollen reads today's pollen level from tenki.jp prefecture pages.
package pollen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

const maxPageBytes = 2 << 20

// todayLevelRe finds the first level-N class after the 今日の花粉 heading.
// The heading and the icon live in different elements, so this matches
// across the raw markup rather than a parsed tree. Only the first class
// counts; later ones belong to tomorrow's forecast.
var todayLevelRe = regexp.MustCompile(`(?s)今日の花粉.+?level-(\d+)`)

// Client implements domain.PollenProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a pollen page client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://tenki.jp/pollen",
		logger:  logger,
	}
}

// Level returns today's level for a two-digit prefecture code, or
// domain.ErrNoReading when the page shows none.
func (c *Client) Level(ctx context.Context, prefectureCode string) (int, error) {
	u := fmt.Sprintf("%s/%s/", c.baseURL, prefectureCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("pollen request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("pollen page error: status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return 0, fmt.Errorf("read page: %w", err)
	}

	level, err := parseLevel(page)
	if err != nil {
		return 0, err
	}
	c.logger.Debug("pollen level parsed", "prefecture", prefectureCode, "level", level)
	return level, nil
}

func parseLevel(page []byte) (int, error) {
	m := todayLevelRe.FindSubmatch(page)
	if m == nil {
		return 0, domain.ErrNoReading
	}
	level, err := strconv.Atoi(string(m[1]))
	if err != nil || level < 1 || level > 4 {
		return 0, domain.ErrNoReading
	}
	return level, nil
}
