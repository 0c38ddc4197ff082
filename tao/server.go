// eTAO - Encrypted TAO Graph Query Engine
// Copyright (C) 2025 eTAO-project
//
// This file is part of eTAO.
//
// eTAO is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// eTAO is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with eTAO. If not, see <https://www.gnu.org/licenses/>.

// Package tao implements the query server: request handling, per-batch
// concurrent dispatch and the HTTP/WebSocket surfaces.
package tao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/etao-project/etao/internal/logger"
	"github.com/etao-project/etao/internal/metrics"
	"github.com/etao-project/etao/ope"
	"github.com/etao-project/etao/pkg/health"
	"github.com/etao-project/etao/pkg/storage"
	"github.com/etao-project/etao/query"
)

// QueryRequest is the JSON envelope of a query batch.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse carries one row list per input query, in input order.
// Errors is parallel to Response; the empty string marks a successful
// query.
type QueryResponse struct {
	Response []query.Rows `json:"response"`
	Errors   []string     `json:"errors"`
}

// Server wires the query pipeline to its collaborators. The store and the
// cipher handles are shared across requests; both are immutable after
// construction.
type Server struct {
	store  storage.Store
	crypto *query.TaoCrypto
	log    logger.Logger

	httpServer *http.Server
}

// NewServer creates a query server.
func NewServer(store storage.Store, crypto *query.TaoCrypto, log logger.Logger) *Server {
	return &Server{store: store, crypto: crypto, log: log}
}

// Pipeline parses a script and dispatches its queries concurrently,
// joining results in input order. A parse failure rejects the whole batch;
// later failures are per-query entries and the rest of the batch still
// executes.
func (s *Server) Pipeline(ctx context.Context, script string) (*QueryResponse, error) {
	metrics.BatchesTotal.Inc()

	queries, err := query.Parse(script)
	if err != nil {
		metrics.QueryErrors.WithLabelValues("bad_request").Inc()
		return nil, err
	}

	resp := &QueryResponse{
		Response: make([]query.Rows, len(queries)),
		Errors:   make([]string, len(queries)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			rows, err := s.execute(gctx, q)
			if err != nil {
				metrics.QueryErrors.WithLabelValues(errorKind(err)).Inc()
				resp.Response[i] = query.Rows{}
				resp.Errors[i] = err.Error()
				return nil
			}
			resp.Response[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	return resp, nil
}

// execute runs one query through encrypt, translate, execute and decrypt.
func (s *Server) execute(ctx context.Context, q query.Query) (query.Rows, error) {
	start := time.Now()

	enc, err := s.crypto.EncryptQuery(q)
	if err != nil {
		return nil, err
	}
	sq, err := query.Translate(enc)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Exec(ctx, sq)
	if err != nil {
		return nil, err
	}
	rows = s.crypto.DecryptRows(rows)

	metrics.QueriesTotal.WithLabelValues(q.Op.String()).Inc()
	metrics.QueryDuration.WithLabelValues(q.Op.String()).Observe(time.Since(start).Seconds())
	return rows, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, query.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, query.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, query.ErrCrypto),
		errors.Is(err, ope.ErrOutOfRange),
		errors.Is(err, ope.ErrNotFound):
		return "crypto"
	default:
		return "db"
	}
}

// Handler returns the HTTP routing for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/ws", s.wsHandler())
	return mux
}

// Start begins serving on the given address.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info("starting TAO server", logger.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode("TAO Server")
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	log := s.log.WithFields(logger.String("request_id", uuid.NewString()))
	log.Debug("received query batch", logger.String("script", req.Query))

	resp, err := s.Pipeline(r.Context(), req.Query)
	if err != nil {
		log.Warn("rejected query batch", logger.Error(err))
		writeError(w, http.StatusBadRequest, err)
		return
	}

	log.Info("executed query batch", logger.Int("queries", len(resp.Response)))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := health.NewChecker(s.store).Check(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if status.Status != health.StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
