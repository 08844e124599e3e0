// Package cache provides TTL+LRU decorators for region-keyed providers, so a
// batch with several rows for the same region fetches it once.
package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
	"github.com/couchcryptid/daily-briefing-service/internal/observability"
)

// Options configures a cache decorator. A nil Clock means real time.
type Options struct {
	MaxEntries int
	TTL        time.Duration
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
}

// Weather wraps a WeatherProvider with a per-region cache.
type Weather struct {
	inner   domain.WeatherProvider
	cache   *lru[domain.WeatherSnapshot]
	metrics *observability.Metrics
}

// NewWeather creates a cache decorator around a weather provider.
func NewWeather(inner domain.WeatherProvider, opts Options) *Weather {
	return &Weather{
		inner:   inner,
		cache:   newLRU[domain.WeatherSnapshot](opts.MaxEntries, opts.TTL, opts.Clock),
		metrics: opts.Metrics,
	}
}

func (c *Weather) Forecast(ctx context.Context, regionCode string) (domain.WeatherSnapshot, error) {
	if snap, ok := c.cache.get(regionCode); ok {
		c.observe("weather", "hit")
		return snap, nil
	}
	c.observe("weather", "miss")

	snap, err := c.inner.Forecast(ctx, regionCode)
	if err != nil {
		return snap, err
	}
	// Empty snapshots are left uncached so the next row retries.
	if snap.ConditionText != "" {
		c.cache.put(regionCode, snap)
	}
	return snap, nil
}

func (c *Weather) observe(source, result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(source, result).Inc()
	}
}

// Pollen wraps a PollenProvider with a per-prefecture cache.
type Pollen struct {
	inner   domain.PollenProvider
	cache   *lru[int]
	metrics *observability.Metrics
}

// NewPollen creates a cache decorator around a pollen provider.
func NewPollen(inner domain.PollenProvider, opts Options) *Pollen {
	return &Pollen{
		inner:   inner,
		cache:   newLRU[int](opts.MaxEntries, opts.TTL, opts.Clock),
		metrics: opts.Metrics,
	}
}

func (c *Pollen) Level(ctx context.Context, prefectureCode string) (int, error) {
	if level, ok := c.cache.get(prefectureCode); ok {
		c.observe("hit")
		return level, nil
	}
	c.observe("miss")

	level, err := c.inner.Level(ctx, prefectureCode)
	if err != nil {
		return level, err
	}
	c.cache.put(prefectureCode, level)
	return level, nil
}

func (c *Pollen) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues("environment", result).Inc()
	}
}
