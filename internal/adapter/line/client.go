// Package line talks to the LINE Messaging API for recipient profiles and
// push delivery.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

// Client implements domain.IdentityProvider and domain.Messenger.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a LINE client. Pushes are limited to ratePerSec.
func NewClient(token string, timeout time.Duration, ratePerSec float64, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.line.me/v2/bot",
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		logger:  logger,
	}
}

// DisplayName returns the user's registered profile name.
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	u := fmt.Sprintf("%s/profile/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("line API error: status %d: %s", resp.StatusCode, body)
	}

	var p profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", fmt.Errorf("decode profile: %w", err)
	}
	return p.DisplayName, nil
}

// Deliver pushes a text message. HTTP 200 is OutcomeDelivered; any other
// status is OutcomeRejected with the response body attached. Transport
// failures are returned as errors.
func (c *Client) Deliver(ctx context.Context, userID string, msg domain.ComposedMessage) (domain.DeliveryResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("rate limit: %w", err)
	}

	payload, err := json.Marshal(pushRequest{
		To:       userID,
		Messages: []textMessage{{Type: "text", Text: string(msg)}},
	})
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("encode push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message/push", bytes.NewReader(payload))
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("line push rejected", "status", resp.StatusCode, "body", string(body))
		return domain.DeliveryResult{Outcome: domain.OutcomeRejected, ProviderBody: string(body)}, nil
	}
	return domain.DeliveryResult{Outcome: domain.OutcomeDelivered, ProviderBody: string(body)}, nil
}

// LINE Messaging API types.

type profile struct {
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
