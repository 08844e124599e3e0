// Package transit classifies route status pages from Yahoo! 路線情報.
package transit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

// maxPageBytes caps how much of a status page is read.
const maxPageBytes = 2 << 20

// Markers that identify a route running normally.
var normalMarkers = [][]byte{[]byte("icnNormalLarge"), []byte("平常運転")}

// ErrNoStatusBlock means the page had neither a normal-operation marker nor
// a notice block.
var ErrNoStatusBlock = errors.New("status page has no recognizable status block")

// Client implements domain.TransitProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a transit status client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://transit.yahoo.co.jp/diainfo",
		logger:  logger,
	}
}

// Status fetches and classifies the status page of a route code.
func (c *Client) Status(ctx context.Context, routeCode string) (domain.TransitStatus, error) {
	u := fmt.Sprintf("%s/%s/0", c.baseURL, routeCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.TransitStatus{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.TransitStatus{}, fmt.Errorf("transit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.TransitStatus{}, fmt.Errorf("transit page error: status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return domain.TransitStatus{}, fmt.Errorf("read page: %w", err)
	}

	status, err := classify(page)
	if err != nil {
		return domain.TransitStatus{}, fmt.Errorf("route %s: %w", routeCode, err)
	}
	c.logger.Debug("transit status classified", "route_code", routeCode, "state", status.State.String())
	return status, nil
}

// classify checks the raw page for a normal-operation marker before parsing
// it, then falls back to the first notice paragraph.
func classify(page []byte) (domain.TransitStatus, error) {
	for _, m := range normalMarkers {
		if bytes.Contains(page, m) {
			return domain.NormalTransit(), nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return domain.TransitStatus{}, fmt.Errorf("parse page: %w", err)
	}

	detail := strings.TrimSpace(doc.Find("dd.trouble p, dd.normal p").First().Text())
	if detail == "" {
		return domain.TransitStatus{}, ErrNoStatusBlock
	}
	return domain.DisruptedTransit(detail), nil
}
