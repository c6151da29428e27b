// Package api provides the wordhoard REST and WebSocket server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aelfread/wordhoard/core/cache"
	"github.com/aelfread/wordhoard/internal/editor"
	"github.com/aelfread/wordhoard/internal/logging"
	"github.com/aelfread/wordhoard/internal/store"
)

// Config holds server configuration.
type Config struct {
	Port int
}

// Server serves the annotation workbench over HTTP.
type Server struct {
	store  *store.Store
	editor *editor.Editor
	hub    *Hub
	views  cache.Cache[int64, *SentenceView]
	cfg    Config
}

// New builds a Server over st.
func New(st *store.Store, cfg Config) *Server {
	viewCfg := cache.DefaultConfig()
	viewCfg.MaxSize = 256
	return &Server{
		store:  st,
		editor: editor.New(st),
		hub:    NewHub(),
		views:  cache.NewLRUCache[int64, *SentenceView](viewCfg),
		cfg:    cfg,
	}
}

// Hub exposes the event hub so other components (CLI import, the
// autosaver) can publish.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := s.routes()
	return logging.CombinedMiddleware(mux)
}

// routes wires all endpoints.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/v1/projects", s.handleImportProject)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.handleGetProject)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("GET /api/v1/projects/{id}/export", s.handleExportProject)

	mux.HandleFunc("GET /api/v1/sentences/{id}", s.handleGetSentence)
	mux.HandleFunc("PUT /api/v1/sentences/{id}/text", s.handleEditSentence)
	mux.HandleFunc("POST /api/v1/sentences/{id}/merge", s.handleMergeSentence)

	mux.HandleFunc("PUT /api/v1/tokens/{id}/annotation", s.handleAnnotateToken)

	mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)

	return mux
}

// Run starts the hub and the HTTP server and blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.ServerStartup("rest_api", "http", s.cfg.Port, "websocket_protocol", "ws")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
