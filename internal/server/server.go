package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"outlet-dashboard/internal/handlers"
	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/services"
	"outlet-dashboard/internal/ui"
)

const renderTimeout = 10 * time.Second

type Server struct {
	dashboard   *services.Dashboard
	settings    handlers.Settings
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

func NewServer(dashboard *services.Dashboard, summarizer llm.Summarizer, settings handlers.Settings, logger *slog.Logger) *Server {
	s := &Server{
		dashboard:   dashboard,
		settings:    settings,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dashboard, summarizer, settings, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, summarizer, handlers.NewTranscript(), settings, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/report", s.apiHandlers.HandleReport)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("POST /api/ask", s.apiHandlers.HandleAsk)
	s.mux.HandleFunc("POST /api/reload", s.apiHandlers.HandleReload)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/search", s.sseHandlers.HandleSearch)
	s.mux.HandleFunc("POST /sse/ask", s.sseHandlers.HandleAsk)
	s.mux.HandleFunc("POST /sse/reload", s.sseHandlers.HandleReload)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := ui.Dashboard(s.settings.AsOf().String()).Render(ctx, w); err != nil {
		s.logger.Error("dashboard render failed", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
