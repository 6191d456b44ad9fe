// Package server exposes the diff and scoring engine over HTTP.
//
// Endpoints:
//
//   - POST /v1/diff      - divergence spans between two texts
//   - POST /v1/evaluate  - score a batch of (original, golden, predicted) rows
//   - GET  /healthz      - liveness probe
//   - GET  /metrics      - Prometheus scrape endpoint
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PedroElizalde01/gecscore/diff"
	"github.com/PedroElizalde01/gecscore/observe"
	"github.com/PedroElizalde01/gecscore/score"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultMaxBodyBytes = 32 << 20
	shutdownTimeout     = 10 * time.Second
)

// Options configures a [Server].
type Options struct {
	Metrics *observe.Metrics
	Logger  *slog.Logger

	// Workers bounds concurrent row evaluation per request.
	Workers int

	// MaxBodyBytes caps request bodies. Zero selects 32 MiB.
	MaxBodyBytes int64
}

// Server is the HTTP scoring service.
type Server struct {
	metrics *observe.Metrics
	log     *slog.Logger
	workers int
	maxBody int64
	handler http.Handler
}

// New builds a Server. A nil Metrics records to the global meter provider.
func New(opts Options) *Server {
	s := &Server{
		metrics: opts.Metrics,
		log:     opts.Logger,
		workers: opts.Workers,
		maxBody: opts.MaxBodyBytes,
	}
	if s.metrics == nil {
		s.metrics = observe.Noop()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/diff", s.handleDiff)
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	s.handler = s.middleware(mux)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("scoring service listening", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return nil
}

type diffRequest struct {
	Original string `json:"original"`
	Other    string `json:"other"`
	Raw      bool   `json:"raw"`
}

type diffResponse struct {
	Spans []diff.Span `json:"spans"`
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req diffRequest
	if !s.decode(w, r, &req) {
		return
	}

	var spans []diff.Span
	if req.Raw {
		spans = diff.Raw(req.Original, req.Other)
	} else {
		spans = diff.Diff(req.Original, req.Other)
	}
	if spans == nil {
		spans = []diff.Span{}
	}
	writeJSON(w, http.StatusOK, diffResponse{Spans: spans})
}

type evaluateRow struct {
	Original  string `json:"original"`
	Golden    string `json:"golden"`
	Predicted string `json:"predicted"`
}

type evaluateRequest struct {
	Rows    []evaluateRow `json:"rows"`
	Details bool          `json:"details"`
}

type rowSummary struct {
	Index  int           `json:"index"`
	Counts score.Counts  `json:"counts"`
	Events []score.Event `json:"events,omitempty"`
}

type evaluateResponse struct {
	Report score.Report `json:"report"`
	Rows   []rowSummary `json:"rows"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !s.decode(w, r, &req) {
		return
	}

	truth := make([]score.Pair, len(req.Rows))
	predicted := make([]score.Pair, len(req.Rows))
	for i, row := range req.Rows {
		truth[i] = score.Pair{Original: row.Original, Target: row.Golden}
		predicted[i] = score.Pair{Original: row.Original, Target: row.Predicted}
	}

	start := time.Now()
	rows, err := score.EvaluateRows(r.Context(), truth, predicted, score.WithWorkers(s.workers))
	if err != nil {
		s.log.Warn("evaluation aborted", "err", err)
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	total := score.Sum(rows)
	s.metrics.RecordEvaluation(r.Context(), "http", len(rows), total, time.Since(start))

	resp := evaluateResponse{
		Report: score.NewReport(total),
		Rows:   make([]rowSummary, len(rows)),
	}
	for i, row := range rows {
		resp.Rows[i] = rowSummary{Index: row.Index, Counts: row.Counts}
		if req.Details {
			resp.Rows[i].Events = row.Events
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.metrics.HTTPRequestDuration.Record(r.Context(), elapsed.Seconds(),
			observe.HTTPAttributes(r.Method, r.URL.Path))
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", elapsed,
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
