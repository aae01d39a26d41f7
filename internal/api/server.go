package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tdmkt/tdseq/internal/data"
	"github.com/tdmkt/tdseq/internal/domain/demark"
	"github.com/tdmkt/tdseq/internal/exits"
	"github.com/tdmkt/tdseq/internal/metrics"
)

// SnapshotStore reads and writes the latest published indicator state
// for a symbol. *data.SnapshotStore satisfies it; tests use fakes.
type SnapshotStore interface {
	Get(ctx context.Context, symbol string) (demark.State, error)
	Put(ctx context.Context, symbol string, st demark.State) error
}

// Server serves the latest indicator snapshots and on-demand tranche
// evaluations over HTTP.
type Server struct {
	snapshots SnapshotStore
	evaluator *exits.Evaluator
	metrics   *metrics.Registry
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// NewServer wires the snapshot API.
func NewServer(snapshots SnapshotStore, evaluator *exits.Evaluator, reg *metrics.Registry, limit rate.Limit, burst int, log zerolog.Logger) *Server {
	return &Server{
		snapshots: snapshots,
		evaluator: evaluator,
		metrics:   reg,
		limiter:   rate.NewLimiter(limit, burst),
		log:       log,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(s.rateLimit)
	v1.HandleFunc("/snapshot/{symbol}", s.handleSnapshot).Methods(http.MethodGet)
	v1.HandleFunc("/snapshot/{symbol}", s.handlePublish).Methods(http.MethodPost)
	v1.HandleFunc("/exits/{symbol}", s.handleExits).Methods(http.MethodPost)
	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	st, err := s.snapshots.Get(r.Context(), symbol)
	if errors.Is(err, data.ErrSnapshotMissing) {
		s.metrics.SnapshotRequests.WithLabelValues("miss").Inc()
		writeError(w, http.StatusNotFound, "no snapshot for symbol")
		return
	}
	if err != nil {
		s.metrics.SnapshotRequests.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("symbol", symbol).Msg("snapshot fetch failed")
		writeError(w, http.StatusInternalServerError, "snapshot fetch failed")
		return
	}

	s.metrics.SnapshotRequests.WithLabelValues("hit").Inc()
	writeJSON(w, http.StatusOK, st)
}

// handlePublish accepts the latest per-bar state from a scanner process,
// observes transitions against the previous snapshot and stores it.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	var st demark.State
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prev, err := s.snapshots.Get(r.Context(), symbol)
	hadPrev := err == nil
	if err != nil && !errors.Is(err, data.ErrSnapshotMissing) {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("snapshot fetch failed")
		writeError(w, http.StatusInternalServerError, "snapshot fetch failed")
		return
	}

	if err := s.snapshots.Put(r.Context(), symbol, st); err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("snapshot store failed")
		writeError(w, http.StatusInternalServerError, "snapshot store failed")
		return
	}

	s.metrics.ObserveSnapshot(symbol, prev, st, hadPrev)
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored", "symbol": symbol})
}

type exitsRequest struct {
	Close      float64 `json:"close"`
	EntryPrice float64 `json:"entry_price"`
	DaysHeld   int     `json:"days_held"`
}

type exitsResponse struct {
	Symbol    string           `json:"symbol"`
	Decisions []exits.Decision `json:"decisions"`
}

func (s *Server) handleExits(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	var req exitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Close <= 0 {
		writeError(w, http.StatusBadRequest, "close must be positive")
		return
	}

	st, err := s.snapshots.Get(r.Context(), symbol)
	if errors.Is(err, data.ErrSnapshotMissing) {
		writeError(w, http.StatusNotFound, "no snapshot for symbol")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("snapshot fetch failed")
		writeError(w, http.StatusInternalServerError, "snapshot fetch failed")
		return
	}

	start := time.Now()
	decisions := s.evaluator.Evaluate(exits.Inputs{
		Symbol:     symbol,
		Close:      req.Close,
		State:      st,
		EntryPrice: req.EntryPrice,
		DaysHeld:   req.DaysHeld,
	})
	s.metrics.EvaluationDurations.Observe(time.Since(start).Seconds())
	s.metrics.ObserveDecisions(symbol, decisions)

	writeJSON(w, http.StatusOK, exitsResponse{Symbol: symbol, Decisions: decisions})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
