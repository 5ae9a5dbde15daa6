// Package inspect serves the module registry over HTTP: registered modules,
// their metadata trees, on-demand mirroring, and a websocket stream of
// registry events.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/internal/cache"
	"github.com/oxjest/mockgraph/runtime/modules"
)

// Config holds server settings.
type Config struct {
	Addr string

	// JWTSecret enables bearer-token auth on every route but /healthz.
	JWTSecret string

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:7357",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Server exposes a registry over HTTP.
type Server struct {
	config   Config
	registry *modules.Registry
	metadata *cache.MetadataCache
	hub      *Hub
	auth     *Authenticator
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New creates a server for registry. metadata may be nil, in which case every
// metadata request builds its tree afresh. The server's hub is subscribed to
// registry events.
func New(config Config, registry *modules.Registry, metadata *cache.MetadataCache, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config:   config,
		registry: registry,
		metadata: metadata,
		hub:      NewHub(logger),
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if config.JWTSecret != "" {
		s.auth = NewAuthenticator(config.JWTSecret, time.Hour)
	}
	registry.Subscribe(s.hub.Publish)
	return s
}

// Hub returns the server's event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Authenticator returns the token authenticator, or nil when auth is off.
func (s *Server) Authenticator() *Authenticator { return s.auth }

// Handler returns the routed handler. The hub must be running for /events.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth.Middleware)
		}
		r.Get("/modules", s.handleModules)
		r.Get("/modules/{specifier}/metadata", s.handleMetadata)
		r.Post("/modules/{specifier}/mock", s.handleMock)
		r.Get("/events", s.handleEvents)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("inspect server listening", zap.String("addr", ln.Addr().String()), zap.Bool("auth", s.auth != nil))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down inspect server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
