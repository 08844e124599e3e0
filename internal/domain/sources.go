package domain

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// The Fetch functions below are the fault-isolation boundary between the
// pipeline and its providers. Each one converts every provider error,
// timeout or panic into a Source status and logs it; none of them returns an
// error.

// FetchIdentity resolves the display name, substituting FallbackDisplayName
// on any failure. The returned value is always renderable.
func FetchIdentity(ctx context.Context, p IdentityProvider, userID string, logger *slog.Logger) Source[IdentitySnapshot] {
	name, err := guard(ctx, func(ctx context.Context) (string, error) {
		return p.DisplayName(ctx, userID)
	})
	name = strings.TrimSpace(name)
	if err == nil && name == "" {
		err = errors.New("identity provider returned an empty display name")
	}
	if err != nil {
		logger.Warn("identity lookup failed, using fallback name", "source", "identity", "error", err)
		s := unavailable[IdentitySnapshot](err)
		s.Value = IdentitySnapshot{DisplayName: FallbackDisplayName}
		return s
	}
	return available(IdentitySnapshot{DisplayName: name})
}

// FetchWeather returns the forecast for a region, or SourceUnavailable.
func FetchWeather(ctx context.Context, p WeatherProvider, regionCode string, logger *slog.Logger) Source[WeatherSnapshot] {
	code := NormalizeRegionCode(regionCode)
	snap, err := guard(ctx, func(ctx context.Context) (WeatherSnapshot, error) {
		return p.Forecast(ctx, code)
	})
	if err == nil && snap.ConditionText == "" {
		err = errors.New("weather provider returned an empty snapshot")
	}
	if err != nil {
		logger.Warn("weather fetch failed", "source", "weather", "region_code", code, "error", err)
		return unavailable[WeatherSnapshot](err)
	}
	return available(snap)
}

// FetchNews returns the first MaxHeadlines headlines of the category feed.
// An empty feed counts as unavailable so the placeholder is shown.
func FetchNews(ctx context.Context, p NewsProvider, category NewsCategory, logger *slog.Logger) Source[NewsDigest] {
	headlines, err := guard(ctx, func(ctx context.Context) ([]string, error) {
		return p.Headlines(ctx, category, MaxHeadlines)
	})
	if err == nil && len(headlines) == 0 {
		err = errors.New("news feed has no entries")
	}
	if err != nil {
		logger.Warn("news fetch failed", "source", "news", "category", category.String(), "error", err)
		return unavailable[NewsDigest](err)
	}
	if len(headlines) > MaxHeadlines {
		headlines = headlines[:MaxHeadlines]
	}
	return available(NewsDigest{Headlines: headlines})
}

// FetchTransit resolves and classifies a route. A blank route name is
// SourceAbsent and touches neither the lookup nor the network; a name
// missing from the route table is TransitUnregistered without a network
// call. Any other failure yields TransitUnavailable.
func FetchTransit(ctx context.Context, routes RouteLookup, p TransitProvider, routeName string, logger *slog.Logger) Source[TransitStatus] {
	routeName = strings.TrimSpace(routeName)
	if routeName == "" {
		return absent[TransitStatus]()
	}

	code, err := guard(ctx, func(ctx context.Context) (string, error) {
		return routes.RouteCode(ctx, routeName)
	})
	if errors.Is(err, ErrUnknownRoute) {
		logger.Info("route not registered", "source", "transit", "route", routeName)
		return available(UnregisteredTransit())
	}
	if err != nil {
		return transitUnavailable(routeName, err, logger)
	}

	status, err := guard(ctx, func(ctx context.Context) (TransitStatus, error) {
		return p.Status(ctx, code)
	})
	if err != nil {
		return transitUnavailable(routeName, err, logger)
	}
	return available(status)
}

func transitUnavailable(routeName string, err error, logger *slog.Logger) Source[TransitStatus] {
	logger.Warn("transit fetch failed", "source", "transit", "route", routeName, "error", err)
	s := unavailable[TransitStatus](err)
	s.Value = UnavailableTransit()
	return s
}

// FetchEnvironment returns the pollen report for the region's prefecture.
// Outside the seasonal window it returns SourceAbsent without calling the
// provider, as it does when the provider has no reading for today.
func FetchEnvironment(ctx context.Context, p PollenProvider, regionCode string, month time.Month, logger *slog.Logger) Source[EnvironmentalReport] {
	if !InPollenSeason(month) {
		return absent[EnvironmentalReport]()
	}

	pref := PrefectureCode(regionCode)
	level, err := guard(ctx, func(ctx context.Context) (int, error) {
		return p.Level(ctx, pref)
	})
	if errors.Is(err, ErrNoReading) {
		return absent[EnvironmentalReport]()
	}
	if err == nil {
		var report EnvironmentalReport
		report, err = NewEnvironmentalReport(level)
		if err == nil {
			return available(report)
		}
	}
	logger.Warn("pollen fetch failed", "source", "environment", "prefecture", pref, "error", err)
	return unavailable[EnvironmentalReport](err)
}

// FetchQuote picks a quotation, or SourceAbsent when the store is empty.
func FetchQuote(ctx context.Context, q QuoteSource, logger *slog.Logger) Source[Quote] {
	quote, err := guard(ctx, q.RandomQuote)
	if errors.Is(err, ErrNoQuotes) {
		return absent[Quote]()
	}
	if err == nil && strings.TrimSpace(quote.Text) == "" {
		return absent[Quote]()
	}
	if err != nil {
		logger.Warn("quote fetch failed", "source", "quote", "error", err)
		return unavailable[Quote](err)
	}
	return available(quote)
}
