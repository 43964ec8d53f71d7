// Package web serves the browser map viewer: the page, a JSON and SVG API,
// and the WebSocket channel that carries view events in and frames out.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/session"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/game/world"
	"github.com/cory-johannsen/mudmap/internal/render/svg"
	"github.com/cory-johannsen/mudmap/internal/storage"
)

// BookmarkStore persists the last selection of each browser token.
type BookmarkStore interface {
	Get(ctx context.Context, token string) (storage.Bookmark, error)
	Save(ctx context.Context, b storage.Bookmark) (storage.Bookmark, error)
	Delete(ctx context.Context, token string) error
}

// Server is the HTTP front-end. Each WebSocket connection owns one view
// session; the REST endpoints render statelessly.
type Server struct {
	cfg       config.HTTPConfig
	catalog   view.Catalog
	preparer  *world.Preparer
	builder   *scene.Builder
	viewers   *session.Manager
	bookmarks BookmarkStore
	svg       *svg.Renderer
	defaults  view.Defaults
	logger    *zap.Logger
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	conns  sync.WaitGroup

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// NewServer creates a Server.
//
// Precondition: all arguments must be non-nil; cfg.ViewWidth and cfg.ViewHeight must be positive.
// Postcondition: Returns a Server that is not yet listening.
func NewServer(
	cfg config.HTTPConfig,
	catalog view.Catalog,
	preparer *world.Preparer,
	builder *scene.Builder,
	viewers *session.Manager,
	bookmarks BookmarkStore,
	defaults view.Defaults,
	logger *zap.Logger,
) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		catalog:   catalog,
		preparer:  preparer,
		builder:   builder,
		viewers:   viewers,
		bookmarks: bookmarks,
		svg:       svg.New(cfg.ViewWidth, cfg.ViewHeight),
		defaults:  defaults,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler returns the router with panic recovery and request logging applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, s.logRequests)
	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/sources", s.handleSources)
		r.Get("/areas", s.handleAreas)
		r.Get("/sources/{source}/areas", s.handleAreas)
		r.Get("/scene", s.handleScene)
		r.Get("/sessions", s.handleSessions)
		r.Get("/bookmark", s.handleBookmark)
		r.Delete("/bookmark", s.handleForget)
	})
	r.Get("/map.svg", s.handleSVG)
	r.Get("/ws", s.handleWS)
	return r
}

// ListenAndServe binds the configured address and serves until Stop.
//
// Postcondition: Returns nil after Stop, or the listen/serve error.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(listener)
}

// Serve accepts HTTP connections on listener until Stop.
//
// Postcondition: Returns nil after Stop, or the serve error.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		_ = listener.Close()
		return nil
	}
	s.listener = listener
	s.srv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return s.ctx },
	}
	srv := s.srv
	s.mu.Unlock()

	s.logger.Info("http server listening", zap.String("addr", listener.Addr().String()))
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Stop shuts the listener down, closes every WebSocket viewer and waits for them.
//
// Postcondition: No handler goroutine is running when Stop returns.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	s.cancel()
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}
	}
	s.conns.Wait()
	if srv != nil {
		s.logger.Info("http server stopped")
	}
}

// Addr returns the bound address, or "" before Serve.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// sameOrigin accepts requests without an Origin header and those whose
// Origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		switch {
		case status == 0 && websocket.IsWebSocketUpgrade(r):
			status = http.StatusSwitchingProtocols
		case status == 0:
			status = http.StatusOK
		}
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
