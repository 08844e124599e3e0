package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/daily-briefing-service/internal/adapter/cache"
	httpadapter "github.com/couchcryptid/daily-briefing-service/internal/adapter/http"
	"github.com/couchcryptid/daily-briefing-service/internal/adapter/jma"
	kafkaadapter "github.com/couchcryptid/daily-briefing-service/internal/adapter/kafka"
	"github.com/couchcryptid/daily-briefing-service/internal/adapter/line"
	"github.com/couchcryptid/daily-briefing-service/internal/adapter/news"
	"github.com/couchcryptid/daily-briefing-service/internal/adapter/pollen"
	"github.com/couchcryptid/daily-briefing-service/internal/adapter/sqlite"
	"github.com/couchcryptid/daily-briefing-service/internal/adapter/telegram"
	"github.com/couchcryptid/daily-briefing-service/internal/adapter/transit"
	"github.com/couchcryptid/daily-briefing-service/internal/config"
	"github.com/couchcryptid/daily-briefing-service/internal/domain"
	"github.com/couchcryptid/daily-briefing-service/internal/observability"
	"github.com/couchcryptid/daily-briefing-service/internal/pipeline"
)

// channel is a push backend that also knows the recipient's name.
type channel interface {
	domain.IdentityProvider
	domain.Messenger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("briefing service failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // closing on exit

	ch, userID, err := newChannel(cfg, logger)
	if err != nil {
		return err
	}

	cacheOpts := cache.Options{
		MaxEntries: cfg.CacheSize,
		TTL:        cfg.CacheTTL,
		Clock:      clockwork.NewRealClock(),
		Metrics:    metrics,
	}

	runner := pipeline.NewRunner(pipeline.Deps{
		Identity:        ch,
		Weather:         cache.NewWeather(jma.NewClient(cfg.ProviderTimeout, logger), cacheOpts),
		News:            news.NewClient(cfg.ProviderTimeout, logger),
		Routes:          store,
		Transit:         transit.NewClient(cfg.ProviderTimeout, logger),
		Pollen:          cache.NewPollen(pollen.NewClient(cfg.ProviderTimeout, logger), cacheOpts),
		Quotes:          store,
		Messenger:       ch,
		UserID:          userID,
		ProviderTimeout: cfg.ProviderTimeout,
		Location:        cfg.Location,
		Logger:          logger,
		Metrics:         metrics,
	})

	var audit pipeline.AuditLog = store
	if len(cfg.AuditKafkaBrokers) > 0 {
		w := kafkaadapter.NewAuditWriter(cfg.AuditKafkaBrokers, cfg.AuditKafkaTopic, logger)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		audit = pipeline.NewTeeAudit(store, w, logger)
		logger.Info("audit stream enabled", "topic", cfg.AuditKafkaTopic)
	}

	batch := pipeline.NewBatch(store, runner, audit, logger, metrics)

	if !cfg.Daemon() {
		sum, err := batch.RunOnce(context.Background())
		if err != nil {
			return err
		}
		logger.Info("one-shot batch complete", "rows", sum.Rows, "delivered", sum.Delivered, "rejected", sum.Rejected, "failed", sum.Failed)
		return nil
	}

	sched, err := pipeline.NewScheduler(cfg.Schedule, cfg.Location, batch, logger)
	if err != nil {
		return err
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, batch, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scheduler.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return nil
}

func newChannel(cfg *config.Config, logger *slog.Logger) (channel, string, error) {
	switch cfg.Messenger {
	case config.MessengerTelegram:
		c, err := telegram.NewClient(telegram.Options{
			Token:      cfg.TelegramToken,
			Timeout:    cfg.ProviderTimeout,
			RatePerSec: cfg.DeliveryRate,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return c, strconv.FormatInt(cfg.TelegramChatID, 10), nil
	default:
		return line.NewClient(cfg.LineAccessToken, cfg.ProviderTimeout, cfg.DeliveryRate, logger), cfg.LineUserID, nil
	}
}
