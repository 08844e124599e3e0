package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
	"github.com/couchcryptid/daily-briefing-service/internal/observability"
	"github.com/couchcryptid/daily-briefing-service/internal/pipeline"
)

// --- mocks ---

type mockIdentity struct{ name string }

func (m *mockIdentity) DisplayName(_ context.Context, _ string) (string, error) {
	return m.name, nil
}

type mockWeather struct {
	snap domain.WeatherSnapshot
	err  error
}

func (m *mockWeather) Forecast(_ context.Context, _ string) (domain.WeatherSnapshot, error) {
	return m.snap, m.err
}

type mockNews struct {
	headlines []string
	mu        sync.Mutex
	asked     []domain.NewsCategory
}

func (m *mockNews) Headlines(_ context.Context, c domain.NewsCategory, _ int) ([]string, error) {
	m.mu.Lock()
	m.asked = append(m.asked, c)
	m.mu.Unlock()
	return m.headlines, nil
}

type mockRoutes map[string]string

func (m mockRoutes) RouteCode(_ context.Context, name string) (string, error) {
	code, ok := m[name]
	if !ok {
		return "", domain.ErrUnknownRoute
	}
	return code, nil
}

type mockTransit struct {
	status domain.TransitStatus
	hang   bool
	calls  int
}

func (m *mockTransit) Status(ctx context.Context, _ string) (domain.TransitStatus, error) {
	m.calls++
	if m.hang {
		<-ctx.Done()
		return domain.TransitStatus{}, ctx.Err()
	}
	return m.status, nil
}

type mockPollen struct {
	level int
	calls int
}

func (m *mockPollen) Level(_ context.Context, _ string) (int, error) {
	m.calls++
	return m.level, nil
}

type mockQuotes struct{ text string }

func (m *mockQuotes) RandomQuote(_ context.Context) (domain.Quote, error) {
	if m.text == "" {
		return domain.Quote{}, domain.ErrNoQuotes
	}
	return domain.Quote{Text: m.text}, nil
}

type mockMessenger struct {
	outcome  domain.DeliveryOutcome
	err      error
	panicMsg string
	mu       sync.Mutex
	sent     []string
}

func (m *mockMessenger) Deliver(_ context.Context, _ string, msg domain.ComposedMessage) (domain.DeliveryResult, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.mu.Lock()
	m.sent = append(m.sent, string(msg))
	m.mu.Unlock()
	if m.err != nil {
		return domain.DeliveryResult{}, m.err
	}
	outcome := m.outcome
	if outcome == "" {
		outcome = domain.OutcomeDelivered
	}
	return domain.DeliveryResult{Outcome: outcome}, nil
}

func (m *mockMessenger) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}

func ptr(f float64) *float64 { return &f }

type fixture struct {
	weather   *mockWeather
	news      *mockNews
	transit   *mockTransit
	pollen    *mockPollen
	quotes    *mockQuotes
	messenger *mockMessenger
	metrics   *observability.Metrics
}

func newFixture() *fixture {
	return &fixture{
		weather: &mockWeather{snap: domain.WeatherSnapshot{
			ConditionText: "晴れ", RawText: "晴れ", MaxTemp: ptr(24), MinTemp: ptr(15), PrecipitationProbability: 10,
		}},
		news:      &mockNews{headlines: []string{"見出し1", "見出し2", "見出し3", "見出し4"}},
		transit:   &mockTransit{status: domain.NormalTransit()},
		pollen:    &mockPollen{level: 2},
		quotes:    &mockQuotes{text: "七転び八起き"},
		messenger: &mockMessenger{},
		metrics:   observability.NewMetricsForTesting(),
	}
}

func (f *fixture) runner() *pipeline.Runner {
	return pipeline.NewRunner(pipeline.Deps{
		Identity:        &mockIdentity{name: "太郎"},
		Weather:         f.weather,
		News:            f.news,
		Routes:          mockRoutes{"山手線": "21"},
		Transit:         f.transit,
		Pollen:          f.pollen,
		Quotes:          f.quotes,
		Messenger:       f.messenger,
		UserID:          "U1",
		ProviderTimeout: 100 * time.Millisecond,
		Location:        time.UTC,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:         f.metrics,
	})
}

func freezeClock(t *testing.T, month time.Month) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, month, 12, 7, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// --- tests ---

func TestRunner_ScenarioA_SummerNoRouteDefaultCategory(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()

	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{
		Enabled: true, RegionCode: "130000", Memo: "自宅",
	})

	msg := f.messenger.last()
	assert.Equal(t, domain.OutcomeDelivered, rec.DeliveryOutcome)
	assert.NotContains(t, msg, "【花粉情報】")
	assert.NotContains(t, msg, "【運行情報】")
	assert.Contains(t, msg, "【最新ニュース】\n")
	assert.Zero(t, f.pollen.calls, "pollen is out of season in July")
	assert.Zero(t, f.transit.calls)

	assert.Equal(t, "自宅", rec.Memo)
	assert.Equal(t, "一般", rec.NewsCategory)
	assert.Empty(t, rec.RouteName)
	assert.False(t, rec.HadTransitInfo)
	assert.False(t, rec.HadWeatherAlert)
	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, time.Date(2024, time.July, 12, 7, 0, 0, 0, time.UTC), rec.Timestamp)
}

func TestRunner_ScenarioB_AlertBlock(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()
	f.weather.snap = domain.WeatherSnapshot{
		ConditionText: "雨 所により 雷", RawText: "雨　所により　雷　大雨警報",
		MaxTemp: ptr(31), MinTemp: ptr(2), PrecipitationProbability: 80,
	}

	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{Enabled: true, RegionCode: "130000"})

	require.True(t, rec.HadWeatherAlert)
	msg := f.messenger.last()
	i := strings.Index(msg, "⚡アラート⚡\n")
	require.GreaterOrEqual(t, i, 0)
	block := msg[i+len("⚡アラート⚡\n"):]
	block = block[:strings.Index(block, "\n\n")]
	assert.Len(t, strings.Split(block, "\n"), 4, "umbrella, heat, cold and one keyword alert")
}

func TestRunner_ScenarioC_UnregisteredRoute(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()

	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{
		Enabled: true, RegionCode: "130000", RouteName: "未知線",
	})

	msg := f.messenger.last()
	assert.Contains(t, msg, "【運行情報】\n🚃 未知線\n未対応\nこの路線はまだ対応していません")
	assert.True(t, rec.HadTransitInfo)
	assert.Equal(t, "未知線", rec.RouteName)
	assert.Zero(t, f.transit.calls)
}

func TestRunner_ScenarioD_RejectedKeepsFields(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()
	f.messenger.outcome = domain.OutcomeRejected

	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{
		Enabled: true, RegionCode: "130000", NewsCategory: "スポーツ", RouteName: "山手線",
	})

	assert.Equal(t, domain.OutcomeRejected, rec.DeliveryOutcome)
	assert.Equal(t, "スポーツ", rec.NewsCategory)
	assert.Equal(t, "山手線", rec.RouteName)
	assert.True(t, rec.HadTransitInfo)
}

func TestRunner_RouteNameTrimmed(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()

	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{
		Enabled: true, RegionCode: "130000", RouteName: " 山手線 ",
	})

	assert.Contains(t, f.messenger.last(), "【運行情報】\n🚃 山手線\n")
	assert.Equal(t, "山手線", rec.RouteName)
	assert.Equal(t, 1, f.transit.calls)
}

func TestRunner_ZeroProviderTimeoutUsesDefault(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()
	r := pipeline.NewRunner(pipeline.Deps{
		Identity: &mockIdentity{name: "太郎"}, Weather: f.weather, News: f.news,
		Routes: mockRoutes{"山手線": "21"}, Transit: f.transit, Pollen: f.pollen, Quotes: f.quotes,
		Messenger: f.messenger, Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Metrics: f.metrics,
	})

	rec := r.Run(context.Background(), domain.SubscriptionRow{Enabled: true, RegionCode: "130000", RouteName: "山手線"})

	msg := f.messenger.last()
	assert.Equal(t, domain.OutcomeDelivered, rec.DeliveryOutcome)
	assert.Contains(t, msg, "太郎さん")
	assert.Contains(t, msg, "晴れ")
	assert.Contains(t, msg, "見出し1")
	assert.Contains(t, msg, "七転び八起き")
	assert.NotContains(t, msg, "天気情報を取得できませんでした")
}

func TestRunner_CategoryAnnotatedAndResolved(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()

	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{Enabled: true, NewsCategory: "テクノロジー"})
	assert.Contains(t, f.messenger.last(), "【最新ニュース（テクノロジー）】\n1. 見出し1\n2. 見出し2\n3. 見出し3\n\n")
	assert.Equal(t, "テクノロジー", rec.NewsCategory)

	rec = f.runner().Run(context.Background(), domain.SubscriptionRow{Enabled: true, NewsCategory: "天文"})
	assert.Equal(t, "一般", rec.NewsCategory, "unknown categories fall back to general")
	assert.Equal(t, []domain.NewsCategory{domain.NewsTechnology, domain.NewsGeneral}, f.news.asked)
}

func TestRunner_PollenInSeason(t *testing.T) {
	freezeClock(t, time.March)
	f := newFixture()

	f.runner().Run(context.Background(), domain.SubscriptionRow{Enabled: true, RegionCode: "130000"})

	assert.Contains(t, f.messenger.last(), "【花粉情報】\n😐 花粉：やや多い\n\n")
	assert.Equal(t, 1, f.pollen.calls)
}

func TestRunner_SlowProviderDegradesOnlyItsSection(t *testing.T) {
	freezeClock(t, time.March)
	f := newFixture()
	f.transit.hang = true

	start := time.Now()
	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{
		Enabled: true, RegionCode: "130000", RouteName: "山手線",
	})

	assert.Less(t, time.Since(start), 2*time.Second)
	msg := f.messenger.last()
	assert.Equal(t, domain.OutcomeDelivered, rec.DeliveryOutcome)
	assert.Contains(t, msg, "【今日の天気】\n晴れ")
	assert.Contains(t, msg, "【花粉情報】")
	assert.Contains(t, msg, "1. 見出し1")
	assert.Contains(t, msg, "「七転び八起き」")
	assert.Contains(t, msg, "情報取得エラー")
	assert.True(t, rec.HadTransitInfo)
}

func TestRunner_WeatherOutage(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()
	f.weather.err = errors.New("503 Service Unavailable")

	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{Enabled: true})

	msg := f.messenger.last()
	assert.Contains(t, msg, "【今日の天気】\n天気情報を取得できませんでした\n\n")
	assert.NotContains(t, msg, "⚡アラート⚡")
	assert.False(t, rec.HadWeatherAlert)
	assert.Equal(t, domain.OutcomeDelivered, rec.DeliveryOutcome)
}

func TestRunner_DeliveryTransportErrorIsFailedWithBlankFields(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()
	f.messenger.err = errors.New("connection reset by peer")
	f.weather.snap.PrecipitationProbability = 90

	rec := f.runner().Run(context.Background(), domain.SubscriptionRow{
		Enabled: true, NewsCategory: "ビジネス", RouteName: "山手線", Memo: "会社",
	})

	assert.Equal(t, domain.OutcomeFailed, rec.DeliveryOutcome)
	assert.Equal(t, "会社", rec.Memo)
	assert.Empty(t, rec.NewsCategory)
	assert.Empty(t, rec.RouteName)
	assert.False(t, rec.HadWeatherAlert)
	assert.False(t, rec.HadTransitInfo)
	assert.NotEmpty(t, rec.RunID)
}

func TestRunner_PanicIsContained(t *testing.T) {
	freezeClock(t, time.July)
	f := newFixture()
	f.messenger.panicMsg = "nil map write"

	var rec domain.AuditRecord
	require.NotPanics(t, func() {
		rec = f.runner().Run(context.Background(), domain.SubscriptionRow{Enabled: true, Memo: "x"})
	})
	assert.Equal(t, domain.OutcomeFailed, rec.DeliveryOutcome)
	assert.Equal(t, "x", rec.Memo)
}

func TestRunner_GreetingUsesLocation(t *testing.T) {
	// 2024-03-11 23:30 UTC is already 3月12日 in Tokyo.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.March, 11, 23, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	f := newFixture()
	r := pipeline.NewRunner(pipeline.Deps{
		Identity: &mockIdentity{name: "花子"}, Weather: f.weather, News: f.news,
		Routes: mockRoutes{}, Transit: f.transit, Pollen: f.pollen, Quotes: f.quotes,
		Messenger: f.messenger, ProviderTimeout: time.Second, Location: tokyo,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Metrics: f.metrics,
	})
	r.Run(context.Background(), domain.SubscriptionRow{Enabled: true})

	assert.True(t, strings.HasPrefix(f.messenger.last(), "花子さん、おはようございます！\n今日は3月12日(火曜日)です。\n\n"))
}
