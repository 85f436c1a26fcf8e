// Package server provides the HTTP tool server started by "ralph serve".
//
// The server exposes the contract kernel to automation: contract version,
// section lookup, full-text search, and the two kernel parsers, plus health
// and Prometheus metrics endpoints. The contract document can be hot-swapped
// while requests are in flight.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"ralph-hq/ralph/pkg/config"
	"ralph-hq/ralph/pkg/contract"
	"ralph-hq/ralph/pkg/telemetry/metrics"
)

// Server is the kernel tool server.
type Server struct {
	config     *config.ServerConfig
	logger     *slog.Logger
	collector  *metrics.Collector
	httpServer *http.Server

	mu       sync.RWMutex
	doc      *contract.Document
	running  bool
	shutdown sync.Once
}

// NewServer creates a tool server for the given contract document. collector
// may be nil to disable metrics recording.
func NewServer(cfg *config.ServerConfig, doc *contract.Document, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    cfg,
		logger:    logger.With("component", "server"),
		collector: collector,
		doc:       doc,
	}
}

// Document returns the currently served contract document.
func (s *Server) Document() *contract.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// SetDocument swaps the served contract document. Used by the reload watcher.
func (s *Server) SetDocument(doc *contract.Document) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	if s.collector != nil {
		s.collector.RecordContractReload()
	}
	s.logger.Info("contract document updated", "version", doc.Version())
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// server fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting tool server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		return s.Stop()
	}
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	var err error
	s.shutdown.Do(func() {
		s.logger.Info("shutting down tool server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		err = s.httpServer.Shutdown(shutdownCtx)
	})
	return err
}

// routes builds the request multiplexer.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/contract/version", s.handleContractVersion)
	mux.HandleFunc("GET /v1/contract/lookup", s.handleContractLookup)
	mux.HandleFunc("GET /v1/contract/search", s.handleContractSearch)
	mux.HandleFunc("POST /v1/anchors/parse", s.handleParseAnchors)
	mux.HandleFunc("POST /v1/rules/parse", s.handleParseRules)
	if s.collector != nil {
		mux.Handle("GET /metrics", s.collector.Handler())
	}
	return mux
}
