package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/couchcryptid/daily-briefing-service/internal/adapter/sqlite"
	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

// manifest is the on-disk YAML layout.
type manifest struct {
	Subscriptions []subscriptionEntry `yaml:"subscriptions"`
	Routes        []routeEntry        `yaml:"routes"`
	Quotes        []string            `yaml:"quotes"`
}

type subscriptionEntry struct {
	// Enabled defaults to true when omitted.
	Enabled      *bool  `yaml:"enabled"`
	RegionCode   string `yaml:"region_code"`
	NewsCategory string `yaml:"news_category"`
	RouteName    string `yaml:"route_name"`
	Memo         string `yaml:"memo"`
}

type routeEntry struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

func loadManifest(path string) (sqlite.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sqlite.Seed{}, fmt.Errorf("read manifest: %w", err)
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (sqlite.Seed, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return sqlite.Seed{}, fmt.Errorf("yaml unmarshal: %w", err)
	}

	var seed sqlite.Seed
	for i, e := range m.Subscriptions {
		if strings.TrimSpace(e.RegionCode) == "" {
			return sqlite.Seed{}, fmt.Errorf("subscription %d: region_code is required", i)
		}
		enabled := true
		if e.Enabled != nil {
			enabled = *e.Enabled
		}
		seed.Subscriptions = append(seed.Subscriptions, domain.SubscriptionRow{
			Enabled:      enabled,
			RegionCode:   e.RegionCode,
			NewsCategory: e.NewsCategory,
			RouteName:    e.RouteName,
			Memo:         e.Memo,
		})
	}

	seen := make(map[string]bool, len(m.Routes))
	for i, r := range m.Routes {
		name, code := strings.TrimSpace(r.Name), strings.TrimSpace(r.Code)
		if name == "" || code == "" {
			return sqlite.Seed{}, fmt.Errorf("route %d: name and code are required", i)
		}
		if seen[name] {
			return sqlite.Seed{}, fmt.Errorf("route %q listed twice", name)
		}
		seen[name] = true
		seed.Routes = append(seed.Routes, sqlite.Route{Name: name, Code: code})
	}

	for _, q := range m.Quotes {
		if q = strings.TrimSpace(q); q != "" {
			seed.Quotes = append(seed.Quotes, q)
		}
	}

	if len(seed.Subscriptions) == 0 {
		return sqlite.Seed{}, errors.New("manifest has no subscriptions")
	}
	return seed, nil
}
