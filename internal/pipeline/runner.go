package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
	"github.com/couchcryptid/daily-briefing-service/internal/observability"
)

// Source labels used in logs and metrics.
const (
	sourceIdentity    = "identity"
	sourceWeather     = "weather"
	sourceNews        = "news"
	sourceTransit     = "transit"
	sourceEnvironment = "environment"
	sourceQuote       = "quote"
)

// Deps wires a Runner to its providers. Every field except Location is required.
type Deps struct {
	Identity  domain.IdentityProvider
	Weather   domain.WeatherProvider
	News      domain.NewsProvider
	Routes    domain.RouteLookup
	Transit   domain.TransitProvider
	Pollen    domain.PollenProvider
	Quotes    domain.QuoteSource
	Messenger domain.Messenger

	// UserID is the recipient handed to the identity provider and the messenger.
	UserID string
	// ProviderTimeout bounds each of the six fetches independently. Zero
	// means defaultProviderTimeout.
	ProviderTimeout time.Duration
	// Location is used for the greeting date and the seasonal check. Defaults to UTC.
	Location *time.Location

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Runner performs one subscription run: fetch, alert, compose, deliver.
type Runner struct {
	deps Deps
	loc  *time.Location
}

const defaultProviderTimeout = 5 * time.Second

// NewRunner creates a Runner from its dependencies.
func NewRunner(deps Deps) *Runner {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	if deps.ProviderTimeout <= 0 {
		deps.ProviderTimeout = defaultProviderTimeout
	}
	return &Runner{deps: deps, loc: loc}
}

// Run processes a single subscription row and returns its audit record. It
// never panics and never returns without a record: delivery transport errors
// and unexpected defects yield an OutcomeFailed record with blank category,
// route and flags.
func (r *Runner) Run(ctx context.Context, row domain.SubscriptionRow) (rec domain.AuditRecord) {
	start := time.Now()
	now := domain.Now().In(r.loc)
	rec = domain.AuditRecord{
		RunID:     uuid.NewString(),
		Timestamp: now,
		Memo:      row.Memo,
	}
	logger := r.deps.Logger.With("run_id", rec.RunID, "memo", row.Memo)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("run failed", "error", fmt.Errorf("panic: %v", p))
			rec = failedRecord(rec)
		}
		r.deps.Metrics.RunsTotal.WithLabelValues(string(rec.DeliveryOutcome)).Inc()
		r.deps.Metrics.RunDuration.Observe(time.Since(start).Seconds())
		logger.Info("run complete",
			"outcome", rec.DeliveryOutcome,
			"news_category", rec.NewsCategory,
			"route", rec.RouteName,
			"had_weather_alert", rec.HadWeatherAlert,
			"had_transit_info", rec.HadTransitInfo,
			"duration", time.Since(start),
		)
	}()

	category := domain.ParseNewsCategory(row.NewsCategory)
	if name := strings.TrimSpace(row.NewsCategory); name != "" && name != category.String() {
		logger.Warn("unknown news category, using default", "category", name, "default", category.String())
	}
	b := r.gather(ctx, row, category, now, logger)
	b.WeatherAlerts = domain.WeatherAlerts(b.Weather)

	msg := domain.Compose(b)
	logger.Debug("composed message", "message", string(msg))

	result, err := r.deps.Messenger.Deliver(ctx, r.deps.UserID, msg)
	if err != nil {
		logger.Error("run failed", "error", fmt.Errorf("deliver: %w", err))
		return failedRecord(rec)
	}
	if result.Outcome != domain.OutcomeDelivered {
		logger.Warn("delivery rejected", "outcome", result.Outcome, "provider_body", result.ProviderBody)
	}

	rec.NewsCategory = category.String()
	rec.RouteName = b.RouteName
	rec.DeliveryOutcome = result.Outcome
	rec.HadWeatherAlert = b.WeatherAlerts != ""
	rec.HadTransitInfo = b.Transit.Present()
	return rec
}

// gather issues the six provider fetches concurrently and joins them.
func (r *Runner) gather(ctx context.Context, row domain.SubscriptionRow, category domain.NewsCategory, now time.Time, logger *slog.Logger) domain.Briefing {
	d := r.deps
	b := domain.Briefing{
		Date:         now,
		NewsCategory: category,
		RouteName:    strings.TrimSpace(row.RouteName),
	}

	var wg sync.WaitGroup
	wg.Add(6)
	go fetch(ctx, r, &wg, sourceIdentity, &b.Identity, logger, func(ctx context.Context) domain.Source[domain.IdentitySnapshot] {
		return domain.FetchIdentity(ctx, d.Identity, d.UserID, logger)
	})
	go fetch(ctx, r, &wg, sourceWeather, &b.Weather, logger, func(ctx context.Context) domain.Source[domain.WeatherSnapshot] {
		return domain.FetchWeather(ctx, d.Weather, row.RegionCode, logger)
	})
	go fetch(ctx, r, &wg, sourceNews, &b.News, logger, func(ctx context.Context) domain.Source[domain.NewsDigest] {
		return domain.FetchNews(ctx, d.News, category, logger)
	})
	go fetch(ctx, r, &wg, sourceTransit, &b.Transit, logger, func(ctx context.Context) domain.Source[domain.TransitStatus] {
		return domain.FetchTransit(ctx, d.Routes, d.Transit, row.RouteName, logger)
	})
	go fetch(ctx, r, &wg, sourceEnvironment, &b.Environment, logger, func(ctx context.Context) domain.Source[domain.EnvironmentalReport] {
		return domain.FetchEnvironment(ctx, d.Pollen, row.RegionCode, now.Month(), logger)
	})
	go fetch(ctx, r, &wg, sourceQuote, &b.Quote, logger, func(ctx context.Context) domain.Source[domain.Quote] {
		return domain.FetchQuote(ctx, d.Quotes, logger)
	})
	wg.Wait()

	if !b.Identity.OK() && b.Identity.Value.DisplayName == "" {
		b.Identity.Value.DisplayName = domain.FallbackDisplayName
	}
	return b
}

// fetch runs one source under its own timeout and records its status. A
// panic in f leaves the source unavailable.
func fetch[T any](ctx context.Context, r *Runner, wg *sync.WaitGroup, source string, out *domain.Source[T], logger *slog.Logger, f func(context.Context) domain.Source[T]) {
	defer wg.Done()

	ctx, cancel := context.WithTimeout(ctx, r.deps.ProviderTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("%s fetch panic: %v", source, p)
			logger.Warn("source fetch failed", "source", source, "error", err)
			*out = domain.Source[T]{Status: domain.SourceUnavailable, Err: err}
		}
		r.deps.Metrics.SourceFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
		r.deps.Metrics.SourceFetches.WithLabelValues(source, out.Status.String()).Inc()
	}()

	*out = f(ctx)
}

// failedRecord keeps the run identity and memo but blanks every field
// derived from the run itself.
func failedRecord(rec domain.AuditRecord) domain.AuditRecord {
	return domain.AuditRecord{
		RunID:           rec.RunID,
		Timestamp:       rec.Timestamp,
		Memo:            rec.Memo,
		DeliveryOutcome: domain.OutcomeFailed,
	}
}
