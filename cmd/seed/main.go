// Command seed loads subscriptions, the route table and quotations from a
// YAML manifest into the briefing database, replacing what was there.
//
// Usage:
//
//	go run ./cmd/seed -db briefing.db -manifest seed.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/daily-briefing-service/internal/adapter/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "briefing.db", "path to the SQLite database")
	manifestPath := flag.String("manifest", "", "path to the YAML manifest")
	flag.Parse()

	if *manifestPath == "" {
		return errors.New("-manifest is required")
	}

	seed, err := loadManifest(*manifestPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := sqlite.Open(*dbPath, logger)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // closing on exit

	return store.Replace(context.Background(), seed)
}
