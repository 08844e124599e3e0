package sqlite

import (
	"context"
	"fmt"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

// Route is one entry of the route table.
type Route struct {
	Name string
	Code string
}

// Seed is the full configurable content of the store.
type Seed struct {
	Subscriptions []domain.SubscriptionRow
	Routes        []Route
	Quotes        []string
}

// Replace swaps subscriptions, routes and quotes for the seed's contents in
// one transaction. Subscription order is preserved; the audit log is kept.
func (s *Store) Replace(ctx context.Context, seed Seed) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"subscriptions", "routes", "quotes"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, r := range seed.Subscriptions {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO subscriptions(enabled, region_code, news_category, route_name, memo) VALUES(?,?,?,?,?)`,
			r.Enabled, r.RegionCode, r.NewsCategory, r.RouteName, r.Memo,
		); err != nil {
			return fmt.Errorf("insert subscription %d: %w", i, err)
		}
	}
	for _, r := range seed.Routes {
		if _, err = tx.ExecContext(ctx, `INSERT INTO routes(name, code) VALUES(?,?)`, r.Name, r.Code); err != nil {
			return fmt.Errorf("insert route %q: %w", r.Name, err)
		}
	}
	for i, q := range seed.Quotes {
		if _, err = tx.ExecContext(ctx, `INSERT INTO quotes(text) VALUES(?)`, q); err != nil {
			return fmt.Errorf("insert quote %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("store seeded",
		"subscriptions", len(seed.Subscriptions),
		"routes", len(seed.Routes),
		"quotes", len(seed.Quotes),
	)
	return nil
}
