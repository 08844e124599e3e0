// Package sqlite persists subscriptions, the route table, quotations and
// the audit log in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

//go:embed schema.sql
var schema string

// Store implements the pipeline's SubscriptionReader and AuditLog as well as
// domain.RouteLookup and domain.QuoteSource.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	intn   func(n int) int
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers, which keeps audit appends ordered.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, logger: logger, intn: rand.IntN}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Subscriptions returns every row in insertion order, enabled or not.
func (s *Store) Subscriptions(ctx context.Context) ([]domain.SubscriptionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, enabled, region_code, news_category, route_name, memo
		 FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []domain.SubscriptionRow
	for rows.Next() {
		var r domain.SubscriptionRow
		if err := rows.Scan(&r.ID, &r.Enabled, &r.RegionCode, &r.NewsCategory, &r.RouteName, &r.Memo); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RouteCode resolves a route name, or returns domain.ErrUnknownRoute.
func (s *Store) RouteCode(ctx context.Context, name string) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx, `SELECT code FROM routes WHERE name = ?`, strings.TrimSpace(name)).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrUnknownRoute
	}
	if err != nil {
		return "", fmt.Errorf("lookup route: %w", err)
	}
	return code, nil
}

// RandomQuote picks a quotation uniformly at random, or returns
// domain.ErrNoQuotes when the table is empty.
func (s *Store) RandomQuote(ctx context.Context) (domain.Quote, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&n); err != nil {
		return domain.Quote{}, fmt.Errorf("count quotes: %w", err)
	}
	if n == 0 {
		return domain.Quote{}, domain.ErrNoQuotes
	}

	var q domain.Quote
	err := s.db.QueryRowContext(ctx, `SELECT text FROM quotes ORDER BY id LIMIT 1 OFFSET ?`, s.intn(n)).Scan(&q.Text)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("select quote: %w", err)
	}
	return q, nil
}

// AppendAudit writes one audit record.
func (s *Store) AppendAudit(ctx context.Context, rec domain.AuditRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log(run_id, recorded_at, memo, news_category, route_name, delivery_outcome, had_weather_alert, had_transit_info)
		 VALUES(?,?,?,?,?,?,?,?)`,
		rec.RunID, rec.Timestamp.Format(time.RFC3339Nano), rec.Memo, rec.NewsCategory, rec.RouteName,
		string(rec.DeliveryOutcome), rec.HadWeatherAlert, rec.HadTransitInfo,
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// RecentAudit returns up to limit records, newest first.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, recorded_at, memo, news_category, route_name, delivery_outcome, had_weather_alert, had_transit_info
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var (
			rec     domain.AuditRecord
			at      string
			outcome string
		)
		if err := rows.Scan(&rec.RunID, &at, &rec.Memo, &rec.NewsCategory, &rec.RouteName, &outcome, &rec.HadWeatherAlert, &rec.HadTransitInfo); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		rec.DeliveryOutcome = domain.DeliveryOutcome(outcome)
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse audit time %q: %w", at, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
