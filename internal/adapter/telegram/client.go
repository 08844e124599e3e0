// Package telegram delivers briefings through a Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

// Client implements domain.IdentityProvider and domain.Messenger. User IDs
// are Telegram chat IDs in decimal form.
type Client struct {
	bot     *tele.Bot
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Options configures a Client. An empty APIURL uses the public Bot API.
type Options struct {
	Token      string
	APIURL     string
	Timeout    time.Duration
	RatePerSec float64
}

// NewClient creates a send-only bot; it never polls for updates.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   opts.Token,
		URL:     opts.APIURL,
		Client:  &http.Client{Timeout: opts.Timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Client{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		logger:  logger,
	}, nil
}

// DisplayName returns the chat's first name, title or username, in that order.
// telebot's getChat takes no context, so ctx is only checked before the call;
// once started, the request is bounded by the client timeout.
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	id, err := parseChatID(userID)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chat, err := c.bot.ChatByID(id)
	if err != nil {
		return "", fmt.Errorf("get chat: %w", err)
	}
	for _, name := range []string{chat.FirstName, chat.Title, chat.Username} {
		if name != "" {
			return name, nil
		}
	}
	return "", nil
}

// Deliver sends the message as plain text. An answer from the Bot API that
// is not ok yields OutcomeRejected; network failures are returned as errors.
func (c *Client) Deliver(ctx context.Context, userID string, msg domain.ComposedMessage) (domain.DeliveryResult, error) {
	id, err := parseChatID(userID)
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("rate limit: %w", err)
	}

	_, err = c.bot.Send(&tele.Chat{ID: id}, string(msg))
	if err == nil {
		return domain.DeliveryResult{Outcome: domain.OutcomeDelivered}, nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return domain.DeliveryResult{}, fmt.Errorf("send message: %w", err)
	}
	c.logger.Warn("telegram send rejected", "chat_id", id, "error", err)
	return domain.DeliveryResult{Outcome: domain.OutcomeRejected, ProviderBody: err.Error()}, nil
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", s, err)
	}
	return id, nil
}
