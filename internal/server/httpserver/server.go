// Package httpserver wires the anchorbuilder HTTP routes onto a single listener.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	derrors "git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
	"git.home.luguber.info/inful/anchorbuilder/internal/metrics"
	handlers "git.home.luguber.info/inful/anchorbuilder/internal/server/handlers"
	smw "git.home.luguber.info/inful/anchorbuilder/internal/server/middleware"
)

const readHeaderTimeout = 10 * time.Second

// Server owns the router and the http.Server bound to it.
type Server struct {
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter
	recorder     metrics.Recorder
	metricsH     http.Handler

	monitoringHandlers *handlers.MonitoringHandlers
	buildHandlers      *handlers.BuildHandlers
	artifactHandlers   *handlers.ArtifactHandlers
	historyHandlers    *handlers.HistoryHandlers

	// middleware chain
	mchain  func(http.Handler) http.Handler
	handler http.Handler

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// New constructs the server and its route table. Nothing is bound until Start.
func New(cfg *config.Config, runtime Runtime, opts Options) *Server {
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
		recorder:     metrics.NoopRecorder{},
	}

	s.monitoringHandlers = handlers.NewMonitoringHandlers(runtime, time.Now())
	s.buildHandlers = handlers.NewBuildHandlers(runtime, cfg.Server.MaxBodyBytes)
	s.artifactHandlers = handlers.NewArtifactHandlers(runtime, cfg.Workspace.ArtifactPath)
	if opts.History != nil && opts.Events != nil {
		s.historyHandlers = handlers.NewHistoryHandlers(opts.History, opts.Events)
	}

	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	s.handler = s.routes()
	return s
}

// WithMetrics serves handler at the configured metrics path and records
// per-route request latency into recorder.
func (s *Server) WithMetrics(recorder metrics.Recorder, handler http.Handler) *Server {
	if recorder != nil {
		s.recorder = recorder
	}
	s.metricsH = handler
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(smw.RouteMetrics(s.recorder))

	r.HandleFunc("/health", s.monitoringHandlers.HandleHealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/status", s.monitoringHandlers.HandleStatus).Methods(http.MethodGet)
	r.HandleFunc("/build", s.buildHandlers.HandleBuild).Methods(http.MethodPost)
	r.HandleFunc("/download", s.artifactHandlers.HandleDownload).Methods(http.MethodGet)
	r.HandleFunc("/idl", s.artifactHandlers.HandleIDL).Methods(http.MethodGet)

	if s.historyHandlers != nil {
		r.HandleFunc("/builds", s.historyHandlers.HandleListBuilds).Methods(http.MethodGet)
		r.HandleFunc("/builds/{id}", s.historyHandlers.HandleGetBuild).Methods(http.MethodGet)
	}

	if s.cfg.Metrics.Enabled && s.metricsH != nil {
		r.Handle(s.cfg.Metrics.Path, s.metricsH).Methods(http.MethodGet)
	}

	// CORS sits outside the router so preflights never hit the 405 path.
	return s.mchain(r)
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.New("http server already started")
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Listen)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "failed to bind listener").
			WithContext("addr", s.cfg.Server.Listen).
			Build()
	}
	if n := s.cfg.Server.MaxConnections; n > 0 {
		ln = netutil.LimitListener(ln, n)
	}

	// No WriteTimeout: a build response is written only after the toolchain exits.
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}
	s.ln = ln

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", logfields.Error(err))
		}
	}(s.srv)

	slog.Info("HTTP server started",
		logfields.Addr(ln.Addr().String()),
		slog.Int("max_connections", s.cfg.Server.MaxConnections))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop gracefully shuts the server down, waiting for in-flight builds until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
