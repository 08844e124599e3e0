package domain

import (
	"errors"
	"time"
)

// SubscriptionRow is one configured recipient context. Rows are owned by the
// configuration store and are read-only to the pipeline.
type SubscriptionRow struct {
	ID           int64
	Enabled      bool
	RegionCode   string
	NewsCategory string
	RouteName    string
	Memo         string
}

// ComposedMessage is the final briefing text. It is built once per run and
// never modified afterwards.
type ComposedMessage string

// DeliveryOutcome is the audited result of a run.
type DeliveryOutcome string

const (
	// OutcomeDelivered means the push provider accepted the message.
	OutcomeDelivered DeliveryOutcome = "delivered"
	// OutcomeRejected means the push provider answered with a non-success status.
	OutcomeRejected DeliveryOutcome = "rejected"
	// OutcomeFailed means the run hit a run-level fault (transport error or
	// an unexpected defect) before a delivery result was obtained.
	OutcomeFailed DeliveryOutcome = "failed"
)

// DeliveryResult is what the push provider reported for one message.
type DeliveryResult struct {
	Outcome      DeliveryOutcome
	ProviderBody string
}

// AuditRecord is the append-only log entry written exactly once per run.
type AuditRecord struct {
	RunID           string          `json:"run_id"`
	Timestamp       time.Time       `json:"timestamp"`
	Memo            string          `json:"memo"`
	NewsCategory    string          `json:"news_category"`
	RouteName       string          `json:"route_name"`
	DeliveryOutcome DeliveryOutcome `json:"delivery_outcome"`
	HadWeatherAlert bool            `json:"had_weather_alert"`
	HadTransitInfo  bool            `json:"had_transit_info"`
}

// IdentitySnapshot is the recipient's provider-registered name, fetched
// fresh every run and never persisted.
type IdentitySnapshot struct {
	DisplayName string
}

// FallbackDisplayName is used when the identity provider cannot answer.
const FallbackDisplayName = "ユーザー"

// ErrNoQuotes is returned by a QuoteSource with an empty store.
var ErrNoQuotes = errors.New("quotation store is empty")

// Quote is one entry from the quotation store.
type Quote struct {
	Text string
}
