package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"outlet-dashboard/internal/config"
	"outlet-dashboard/internal/handlers"
	"outlet-dashboard/internal/llm"
	"outlet-dashboard/internal/middleware"
	"outlet-dashboard/internal/models"
	"outlet-dashboard/internal/observability"
	"outlet-dashboard/internal/server"
	"outlet-dashboard/internal/services"
	"outlet-dashboard/internal/workbook"
)

func newSettings(cfg *config.Config) handlers.Settings {
	return handlers.Settings{
		AsOf:       func() models.Month { return cfg.AsOf(time.Now()) },
		AskTimeout: cfg.LLM.Timeout,
	}
}

func newSummarizer(cfg config.LLMConfig) llm.Summarizer {
	return llm.New(llm.Config{
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		BaseURL:           cfg.BaseURL,
		Temperature:       cfg.Temperature,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
}

func newHandler(cfg *config.Config, dashboard *services.Dashboard, summarizer llm.Summarizer, logger *slog.Logger) http.Handler {
	srv := server.NewServer(dashboard, summarizer, newSettings(cfg), logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	dashboard := services.NewDashboard(services.Options{
		Path:          cfg.Workbook.File,
		ChartCategory: cfg.Workbook.ChartCategory,
		LoadTimeout:   cfg.Workbook.LoadTimeout,
		Loader:        workbook.NewLoader(logger),
		Logger:        logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Workbook.LoadTimeout)
	err = dashboard.Load(ctx)
	cancel()
	if err != nil {
		logger.Error("failed to load workbook", "path", cfg.Workbook.File, "error", err)
		os.Exit(1)
	}

	summarizer := newSummarizer(cfg.LLM)
	if _, disabled := summarizer.(llm.Disabled); disabled {
		logger.Warn("OPENAI_API_KEY not set, questions will be rejected")
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, dashboard, summarizer, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("dashboard session closed", "stats", dashboard.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
