// pattern: Imperative Shell

// Package web serves the HTTP surface of a running gitok instance: a JSON
// API over the engine, server-sent refresh events, a websocket stream of
// scan results and a small status page.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"gitok/internal/logging"
	"gitok/internal/scheduler"
	"gitok/internal/status"
)

//go:embed static
var staticFiles embed.FS

// Backend is the set of host operations exposed over HTTP.
// *engine.Engine implements it.
type Backend interface {
	Scan(ctx context.Context, includeRemote bool) (status.ScanResult, bool)
	StartPolling() error
	StopPolling() error
	SetRoot(path string) (string, error)
	State() scheduler.State
	Latest() (status.ScanResult, bool)
}

// Server is the web server that serves the API and the status page.
type Server struct {
	httpServer *http.Server
	backend    Backend
	hub        *Hub
	logger     *logging.ScopedLogger
	addr       string
	listener   net.Listener
}

// Config holds web server configuration.
type Config struct {
	Bind string
	Port int
}

// New creates a web server. hub must also be registered as a scheduler
// notifier so that subscribers see completed scans.
func New(cfg Config, backend Backend, hub *Hub, logProvider logging.LoggerProvider) *Server {
	logger := logProvider.For("web")
	addr := fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		backend: backend,
		hub:     hub,
		logger:  logger,
		addr:    addr,
	}

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("POST /api/polling/start", s.handleStartPolling)
	mux.HandleFunc("POST /api/polling/stop", s.handleStopPolling)
	mux.HandleFunc("PUT /api/root", s.handleSetRoot)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/ws", s.handleScanStream)
	mux.Handle("GET /", s.staticHandler())

	return s
}

func (s *Server) staticHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Error("failed to create sub filesystem", "error", err)
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(sub))
}

// Listen binds the server to its configured address and returns the listener.
// Call Serve() after Listen() to start accepting connections; the split lets
// callers learn the bound address when the port is 0.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("web server listen: %w", err)
	}
	s.listener = ln
	return ln, nil
}

// Serve accepts connections on the listener. Blocks until the server stops.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("web server started", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Addr returns the address the server is listening on.
// Only valid after Listen() has been called.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Handler returns the request router, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully stops the server and disconnects stream subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("web server shutting down")
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// AppName identifies gitok in health responses, so discovery can tell a
// live instance from an unrelated process on a reused port.
const AppName = "gitok"

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	App    string `json:"app"`
	PID    int    `json:"pid"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", App: AppName, PID: os.Getpid()})
}
