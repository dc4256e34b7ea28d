package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/r3d91ll/quire/pkg/board"
	"github.com/r3d91ll/quire/pkg/config"
	"github.com/r3d91ll/quire/pkg/logger"
	"github.com/r3d91ll/quire/pkg/metrics"
)

// Server represents the HTTP server for the Quire web UI.
type Server struct {
	httpServer *http.Server
	router     *Router
	hub        *Hub
	config     config.ServerConfig
	log        logger.Logger

	mu      sync.RWMutex
	running bool
}

// NewServer builds the server and registers every route. Papers are
// generated by runner and kept in a store sized from cfg.
func NewServer(cfg *config.Config, runner Runner, boards *board.Table, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.NewNoOp()
	}
	sc := cfg.Server
	if sc.Host == "" {
		sc.Host = "localhost"
	}
	if sc.Port == 0 {
		sc.Port = 8501
	}

	hub := NewHub(log)
	store := NewPaperStore(sc.PaperStoreSize)
	papers, err := NewPaperHandler(runner, boards, store, hub, log)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: NewRouter(),
		hub:    hub,
		config: sc,
		log:    log,
	}
	papers.RegisterRoutes(s.router)
	s.router.GET("/ws", NewWebSocketHandler(hub, makeOriginChecker(sc.CORSOrigins)).ServeHTTP)
	s.router.GET("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"papers":     store.Len(),
			"ws_clients": hub.ClientCount(),
		})
	})
	if cfg.Metrics.Enabled {
		h := metrics.Handler()
		s.router.GET(cfg.Metrics.Path, h.ServeHTTP)
	}
	return s, nil
}

// Address returns the server address in host:port format.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Router returns the underlying router.
func (s *Server) Router() *Router {
	return s.router
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mws := []Middleware{RecoveryMiddleware(s.log), RequestIDMiddleware, TracingMiddleware, LoggingMiddleware(s.log)}
	if len(s.config.CORSOrigins) > 0 {
		mws = append(mws, CORSMiddleware(s.config.CORSOrigins))
	}
	return Chain(s.router, mws...)
}

// Start starts the HTTP server in a goroutine and returns once the
// listener is up or has failed.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	go s.hub.Run()
	s.running = true

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", map[string]interface{}{"address": s.Address()})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("server error", nil)
			errCh <- err
		}
		close(errCh)
	}()

	// Wait briefly to catch immediate binding errors (e.g., port in use)
	select {
	case err := <-errCh:
		s.running = false
		s.hub.Stop()
		return fmt.Errorf("server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.log.Info("shutting down server", nil)
	s.running = false
	s.hub.Stop()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
