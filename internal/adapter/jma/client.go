// Package jma fetches regional forecasts from the Japan Meteorological
// Agency's public forecast JSON.
package jma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

// Client implements domain.WeatherProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a JMA forecast client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://www.jma.go.jp/bosai/forecast/data/forecast",
		logger:  logger,
	}
}

// Forecast fetches today's forecast for a six-digit region code.
func (c *Client) Forecast(ctx context.Context, regionCode string) (domain.WeatherSnapshot, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, regionCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherSnapshot{}, fmt.Errorf("jma API error: status %d: %s", resp.StatusCode, body)
	}

	var reports []report
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("decode response: %w", err)
	}
	c.logger.Debug("forecast fetched", "region_code", regionCode, "reports", len(reports))
	return snapshotFromReports(reports)
}

// snapshotFromReports reads the first report's series: weathers from the
// first, pops from the second and temps from the third. Only the condition
// text is mandatory.
func snapshotFromReports(reports []report) (domain.WeatherSnapshot, error) {
	if len(reports) == 0 {
		return domain.WeatherSnapshot{}, errors.New("forecast has no reports")
	}
	series := reports[0].TimeSeries

	weathers := firstArea(series, 0).Weathers
	if len(weathers) == 0 {
		return domain.WeatherSnapshot{}, errors.New("forecast has no weather text")
	}

	var readings []float64
	for _, t := range firstArea(series, 2).Temps {
		if v, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			readings = append(readings, v)
		}
	}

	return domain.NewWeatherSnapshot(weathers[0], readings, precipitation(firstArea(series, 1).Pops))
}

// precipitation prefers the second (morning) window, then the first, then 0.
// A parseable "0" in the second window wins.
func precipitation(pops []string) int {
	for _, i := range []int{1, 0} {
		if i < len(pops) {
			if v, err := strconv.Atoi(strings.TrimSpace(pops[i])); err == nil && v >= 0 && v <= 100 {
				return v
			}
		}
	}
	return 0
}

func firstArea(series []timeSeries, i int) area {
	if i >= len(series) || len(series[i].Areas) == 0 {
		return area{}
	}
	return series[i].Areas[0]
}

// JMA forecast response types.

type report struct {
	TimeSeries []timeSeries `json:"timeSeries"`
}

type timeSeries struct {
	Areas []area `json:"areas"`
}

type area struct {
	Weathers []string `json:"weathers"`
	Pops     []string `json:"pops"`
	Temps    []string `json:"temps"`
}
