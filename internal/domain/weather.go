package domain

import (
	"errors"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// WeatherSnapshot is the normalized forecast for one region and day.
// MaxTemp and MinTemp are nil when the provider returned too few readings.
type WeatherSnapshot struct {
	ConditionText            string
	MaxTemp                  *float64
	MinTemp                  *float64
	PrecipitationProbability int
	RawText                  string
}

// NewWeatherSnapshot builds a snapshot from the raw condition text, every
// numeric temperature reading in the forecast window, and the selected
// precipitation probability. It fails when the condition text is missing so
// that a snapshot is never partially populated.
//
// With two or more readings MaxTemp and MinTemp are their extremes. A single
// reading becomes MaxTemp and leaves MinTemp nil.
func NewWeatherSnapshot(rawText string, readings []float64, precipitation int) (WeatherSnapshot, error) {
	condition := strings.TrimSpace(whitespaceRe.ReplaceAllString(rawText, " "))
	if condition == "" {
		return WeatherSnapshot{}, errors.New("weather condition text is missing")
	}
	if precipitation < 0 || precipitation > 100 {
		precipitation = 0
	}

	snap := WeatherSnapshot{
		ConditionText:            condition,
		PrecipitationProbability: precipitation,
		RawText:                  rawText,
	}

	switch len(readings) {
	case 0:
	case 1:
		hi := readings[0]
		snap.MaxTemp = &hi
	default:
		hi, lo := readings[0], readings[0]
		for _, r := range readings[1:] {
			hi = max(hi, r)
			lo = min(lo, r)
		}
		snap.MaxTemp = &hi
		snap.MinTemp = &lo
	}
	return snap, nil
}
