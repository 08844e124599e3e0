package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
	"github.com/couchcryptid/daily-briefing-service/internal/observability"
)

// SubscriptionReader lists all configured rows in store order.
type SubscriptionReader interface {
	Subscriptions(ctx context.Context) ([]domain.SubscriptionRow, error)
}

// AuditLog appends one record per run.
type AuditLog interface {
	AppendAudit(ctx context.Context, rec domain.AuditRecord) error
}

// RowRunner performs a single subscription run.
type RowRunner interface {
	Run(ctx context.Context, row domain.SubscriptionRow) domain.AuditRecord
}

// Summary counts the runs of one batch by outcome.
type Summary struct {
	Rows      int `json:"rows"`
	Enabled   int `json:"enabled"`
	Delivered int `json:"delivered"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
}

func (s *Summary) add(o domain.DeliveryOutcome) {
	switch o {
	case domain.OutcomeDelivered:
		s.Delivered++
	case domain.OutcomeRejected:
		s.Rejected++
	default:
		s.Failed++
	}
}

// Batch iterates the subscription rows and runs each enabled one in order.
type Batch struct {
	rows    SubscriptionReader
	runner  RowRunner
	audit   AuditLog
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	lastRun atomic.Pointer[time.Time]
}

// NewBatch creates a Batch with the given stages and observability.
func NewBatch(rows SubscriptionReader, runner RowRunner, audit AuditLog, logger *slog.Logger, metrics *observability.Metrics) *Batch {
	return &Batch{
		rows:    rows,
		runner:  runner,
		audit:   audit,
		logger:  logger,
		metrics: metrics,
	}
}

// LastRun returns when the most recent batch finished, or the zero time.
func (b *Batch) LastRun() time.Time {
	if t := b.lastRun.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// RunOnce processes every enabled row sequentially, appending each record
// before the next row starts. Concurrent calls are serialized. Only a failure
// to read the rows is returned; run and append failures are logged and
// counted. Cancelling ctx stops the batch before the next row but never
// interrupts a run in progress.
func (b *Batch) RunOnce(ctx context.Context) (Summary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.BatchRunning.Set(1)
	defer b.metrics.BatchRunning.Set(0)

	start := time.Now()
	var sum Summary

	rows, err := b.rows.Subscriptions(ctx)
	if err != nil {
		return sum, fmt.Errorf("read subscriptions: %w", err)
	}
	sum.Rows = len(rows)
	b.logger.Info("batch started", "rows", len(rows))

	// Runs and appends outlive a shutdown signal once started.
	runCtx := context.WithoutCancel(ctx)

	for i, row := range rows {
		if !row.Enabled {
			continue
		}
		if ctx.Err() != nil {
			b.logger.Info("batch stopping", "reason", ctx.Err(), "remaining", len(rows)-i)
			break
		}
		sum.Enabled++

		rec := b.runner.Run(runCtx, row)
		sum.add(rec.DeliveryOutcome)

		if err := b.audit.AppendAudit(runCtx, rec); err != nil {
			b.metrics.AuditAppendErrors.Inc()
			b.logger.Error("audit append failed", "error", err, "run_id", rec.RunID, "row", i)
		}
	}

	finished := time.Now()
	b.lastRun.Store(&finished)
	b.logger.Info("batch complete",
		"enabled", sum.Enabled,
		"delivered", sum.Delivered,
		"rejected", sum.Rejected,
		"failed", sum.Failed,
		"duration", finished.Sub(start),
	)
	return sum, nil
}
