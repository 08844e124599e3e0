package jma

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

// tokyoForecast is trimmed from a real 130000.json response.
const tokyoForecast = `[
  {
    "publishingOffice": "気象庁",
    "timeSeries": [
      {"timeDefines": ["2024-03-12T11:00:00+09:00"],
       "areas": [{"area": {"name": "東京地方", "code": "130010"},
                  "weathers": ["くもり　昼過ぎ　から　雨　所により　雷　を伴う"]}]},
      {"timeDefines": ["2024-03-12T12:00:00+09:00", "2024-03-12T18:00:00+09:00"],
       "areas": [{"area": {"name": "東京地方", "code": "130010"},
                  "pops": ["40", "70"]}]},
      {"timeDefines": ["2024-03-12T09:00:00+09:00", "2024-03-12T00:00:00+09:00"],
       "areas": [{"area": {"name": "東京", "code": "44132"},
                  "temps": ["14", "8"]}]}
    ]
  }
]`

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/130000.json", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Forecast_Success(t *testing.T) {
	srv := serveJSON(t, tokyoForecast)

	snap, err := testClient(srv.URL).Forecast(context.Background(), "130000")
	require.NoError(t, err)

	assert.Equal(t, "くもり 昼過ぎ から 雨 所により 雷 を伴う", snap.ConditionText)
	assert.Equal(t, "くもり　昼過ぎ　から　雨　所により　雷　を伴う", snap.RawText)
	assert.Equal(t, 70, snap.PrecipitationProbability)
	require.NotNil(t, snap.MaxTemp)
	require.NotNil(t, snap.MinTemp)
	assert.InDelta(t, 14, *snap.MaxTemp, 0)
	assert.InDelta(t, 8, *snap.MinTemp, 0)
}

func TestClient_Forecast_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), "999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Forecast_MalformedJSON(t *testing.T) {
	srv := serveJSON(t, `{"not": "an array"`)

	_, err := testClient(srv.URL).Forecast(context.Background(), "130000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_Forecast_MissingWeatherIsError(t *testing.T) {
	srv := serveJSON(t, `[{"timeSeries": [{"areas": [{"weathers": []}]}]}]`)

	_, err := testClient(srv.URL).Forecast(context.Background(), "130000")
	require.Error(t, err)
}

func TestSnapshot_SingleTemperatureReading(t *testing.T) {
	snap, err := snapshotFromReports([]report{{TimeSeries: []timeSeries{
		{Areas: []area{{Weathers: []string{"晴れ"}}}},
		{Areas: []area{{Pops: []string{"10"}}}},
		{Areas: []area{{Temps: []string{"21"}}}},
	}}})
	require.NoError(t, err)

	require.NotNil(t, snap.MaxTemp)
	assert.InDelta(t, 21, *snap.MaxTemp, 0)
	assert.Nil(t, snap.MinTemp)
}

func TestSnapshot_NoTemperatureSeries(t *testing.T) {
	snap, err := snapshotFromReports([]report{{TimeSeries: []timeSeries{
		{Areas: []area{{Weathers: []string{"晴れ"}}}},
	}}})
	require.NoError(t, err)

	assert.Nil(t, snap.MaxTemp)
	assert.Nil(t, snap.MinTemp)
	assert.Zero(t, snap.PrecipitationProbability)
}

func TestSnapshot_SkipsNonNumericTemperatures(t *testing.T) {
	snap, err := snapshotFromReports([]report{{TimeSeries: []timeSeries{
		{Areas: []area{{Weathers: []string{"晴れ"}}}},
		{},
		{Areas: []area{{Temps: []string{"", "-2", "--", "5"}}}},
	}}})
	require.NoError(t, err)

	assert.InDelta(t, 5, *snap.MaxTemp, 0)
	assert.InDelta(t, -2, *snap.MinTemp, 0)
}

func TestPrecipitation(t *testing.T) {
	tests := []struct {
		name string
		pops []string
		want int
	}{
		{"second window", []string{"10", "60"}, 60},
		{"second window zero is honoured", []string{"30", "0"}, 0},
		{"second window blank falls back", []string{"30", ""}, 30},
		{"only first window", []string{"20"}, 20},
		{"neither parseable", []string{"", "--"}, 0},
		{"out of range falls back", []string{"40", "120"}, 40},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, precipitation(tt.pops))
		})
	}
}
