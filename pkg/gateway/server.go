// Package gateway serves shell sessions and the sandbox over HTTP and
// WebSocket.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sameehj/vsh/pkg/metrics"
	"github.com/sameehj/vsh/pkg/sandbox"
	"github.com/sameehj/vsh/pkg/session"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

type Server struct {
	addr       string
	sessions   *session.Manager
	sandbox    sandbox.Sandbox
	authorizer Authorizer
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	started    time.Time
}

func NewServer(addr string, sessions *session.Manager, sb sandbox.Sandbox, authorizer Authorizer) *Server {
	if authorizer == nil {
		authorizer = NoopAuthorizer{}
	}
	return &Server{
		addr:       addr,
		sessions:   sessions,
		sandbox:    sb,
		authorizer: authorizer,
		started:    time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the routed, authorized and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /health", s.handleHealth)
	s.route(mux, "POST /api/sessions", s.handleCreateSession)
	s.route(mux, "DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.route(mux, "POST /api/sessions/{id}/commands", s.handleCommand)
	s.route(mux, "POST /api/sessions/{id}/complete", s.handleComplete)
	s.route(mux, "GET /api/sessions/{id}/history", s.handleHistory)
	s.route(mux, "GET /api/sessions/{id}/tree", s.handleTree)
	s.route(mux, "PUT /api/sessions/{id}/files", s.handleWriteFile)
	s.route(mux, "POST /api/execute", s.handleExecute)
	s.route(mux, "OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.route(mux, "GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", metrics.Handler())
	return s.authorize(mux)
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, metrics.Middleware(pattern, h))
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.authorizer.Allow(r.Context(), r.RemoteAddr); err != nil {
			s.logWarn("request_denied", "remote", r.RemoteAddr, "error", err)
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		setCORSHeaders(w)
		next.ServeHTTP(w, r)
	})
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logInfo("gateway_listening", "addr", listener.Addr().String())
	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logError("gateway_failed", "error", err)
		return err
	}
	<-stopped
	s.logInfo("gateway_stopped")
	return nil
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
