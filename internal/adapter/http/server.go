package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
	"github.com/couchcryptid/daily-briefing-service/internal/pipeline"
)

const (
	defaultAuditLimit = 20
	maxAuditLimit     = 500
)

// AuditReader lists recent audit records, newest first.
type AuditReader interface {
	RecentAudit(ctx context.Context, limit int) ([]domain.AuditRecord, error)
}

// Server exposes health, readiness, metrics, manual triggering and the audit log.
type Server struct {
	httpServer *http.Server
	batch      pipeline.BatchRunner
	audit      AuditReader
	logger     *slog.Logger
	triggering atomic.Bool
	baseCtx    context.Context
	cancel     context.CancelFunc
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// POST /run and GET /audit routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, batch pipeline.BatchRunner, audit AuditReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	baseCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		batch:   batch,
		audit:   audit,
		logger:  logger,
		baseCtx: baseCtx,
		cancel:  cancel,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /audit", s.handleAudit)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// A batch started through POST /run stops before its next row.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleRun starts a batch in the background. Only one manual trigger may be
// in flight; a second one gets 409.
func (s *Server) handleRun(w http.ResponseWriter, _ *http.Request) {
	if !s.triggering.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "already running"})
		return
	}

	go func() {
		defer s.triggering.Store(false)
		sum, err := s.batch.RunOnce(s.baseCtx)
		if err != nil {
			s.logger.Error("manual batch failed", "error", err)
			return
		}
		s.logger.Info("manual batch finished", "delivered", sum.Delivered, "rejected", sum.Rejected, "failed", sum.Failed)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxAuditLimit)
	}

	records, err := s.audit.RecentAudit(r.Context(), limit)
	if err != nil {
		s.logger.Error("read audit log failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "audit log unavailable"})
		return
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
