package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "briefing.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSeed() Seed {
	return Seed{
		Subscriptions: []domain.SubscriptionRow{
			{Enabled: true, RegionCode: "130000", NewsCategory: "テクノロジー", RouteName: "山手線", Memo: "自宅"},
			{Enabled: false, RegionCode: "270000", Memo: "出張"},
			{Enabled: true, RegionCode: "016000", Memo: "実家"},
		},
		Routes: []Route{{Name: "山手線", Code: "21"}, {Name: "中央線快速", Code: "38"}},
		Quotes: []string{"一期一会", "継続は力なり", "七転び八起き"},
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(" ", slog.Default())
	require.Error(t, err)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "briefing.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, s.Replace(context.Background(), testSeed()))
	require.NoError(t, s.Close())

	s, err = Open(path, logger)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.Subscriptions(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestStore_Subscriptions_Order(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Replace(context.Background(), testSeed()))

	rows, err := s.Subscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"自宅", "出張", "実家"}, []string{rows[0].Memo, rows[1].Memo, rows[2].Memo})
	assert.True(t, rows[0].Enabled)
	assert.False(t, rows[1].Enabled)
	assert.Equal(t, "テクノロジー", rows[0].NewsCategory)
	assert.Equal(t, "山手線", rows[0].RouteName)
	assert.Equal(t, "016000", rows[2].RegionCode)
	assert.Less(t, rows[0].ID, rows[1].ID)
}

func TestStore_Replace_Overwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, testSeed()))
	require.NoError(t, s.Replace(ctx, Seed{Subscriptions: []domain.SubscriptionRow{{Enabled: true, Memo: "only"}}}))

	rows, err := s.Subscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "only", rows[0].Memo)

	_, err = s.RouteCode(ctx, "山手線")
	require.ErrorIs(t, err, domain.ErrUnknownRoute)
	_, err = s.RandomQuote(ctx)
	require.ErrorIs(t, err, domain.ErrNoQuotes)
}

func TestStore_Replace_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, testSeed()))

	bad := testSeed()
	bad.Routes = append(bad.Routes, Route{Name: "山手線", Code: "dup"})
	require.Error(t, s.Replace(ctx, bad))

	code, err := s.RouteCode(ctx, "山手線")
	require.NoError(t, err)
	assert.Equal(t, "21", code, "failed seed must leave previous contents intact")
}

func TestStore_RouteCode(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Replace(context.Background(), testSeed()))

	code, err := s.RouteCode(context.Background(), " 中央線快速 ")
	require.NoError(t, err)
	assert.Equal(t, "38", code)

	_, err = s.RouteCode(context.Background(), "未知線")
	require.ErrorIs(t, err, domain.ErrUnknownRoute)
}

func TestStore_RandomQuote(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Replace(context.Background(), testSeed()))

	var asked int
	s.intn = func(n int) int {
		asked = n
		return 1
	}

	q, err := s.RandomQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "継続は力なり", q.Text)
	assert.Equal(t, 3, asked)
}

func TestStore_RandomQuote_Empty(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RandomQuote(context.Background())
	require.ErrorIs(t, err, domain.ErrNoQuotes)
}

func TestStore_Audit_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, time.March, 12, 7, 0, 0, 123, time.FixedZone("JST", 9*60*60))

	first := domain.AuditRecord{
		RunID: "run-1", Timestamp: at, Memo: "自宅", NewsCategory: "一般",
		RouteName: "山手線", DeliveryOutcome: domain.OutcomeDelivered,
		HadWeatherAlert: true, HadTransitInfo: true,
	}
	second := domain.AuditRecord{
		RunID: "run-2", Timestamp: at.Add(time.Second), Memo: "実家", DeliveryOutcome: domain.OutcomeFailed,
	}
	require.NoError(t, s.AppendAudit(ctx, first))
	require.NoError(t, s.AppendAudit(ctx, second))

	got, err := s.RecentAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "run-2", got[0].RunID, "newest first")
	assert.Equal(t, domain.OutcomeFailed, got[0].DeliveryOutcome)
	assert.False(t, got[0].HadTransitInfo)

	assert.Equal(t, "run-1", got[1].RunID)
	assert.True(t, got[1].Timestamp.Equal(at))
	assert.Equal(t, "山手線", got[1].RouteName)
	assert.True(t, got[1].HadWeatherAlert)
	assert.True(t, got[1].HadTransitInfo)

	got, err = s.RecentAudit(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_CheckReadiness(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CheckReadiness(context.Background()))

	require.NoError(t, s.Close())
	require.Error(t, s.CheckReadiness(context.Background()))
}
