package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfdex/internal/app"
	"github.com/kailas-cloud/shelfdex/internal/config"
	logpkg "github.com/kailas-cloud/shelfdex/internal/logger"
	"github.com/kailas-cloud/shelfdex/internal/metrics"
	chiTransport "github.com/kailas-cloud/shelfdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/shelfdex/internal/usecase/health"
	"github.com/kailas-cloud/shelfdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting shelfdex search server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_driver", cfg.Engine.Driver),
		zap.String("catalog_driver", cfg.Catalog.Driver),
	)

	ctx := context.Background()

	engine, err := app.NewEngine(ctx, cfg.Engine, logger)
	if err != nil {
		logger.Fatal("Failed to create search engine", zap.Error(err))
	}
	defer engine.Close()

	cat, err := app.NewCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("Failed to create catalog store", zap.Error(err))
	}
	defer cat.Close()

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	analyzer, err := app.NewAnalyzer(ctx, cfg.Search, cat)
	if err != nil {
		logger.Fatal("Failed to build query analyzer", zap.Error(err))
	}
	searchSvc := app.NewSearchService(engine, cat, analyzer, app.SearchConfig(cfg.Search, time.Now), logger)

	// Pass a nil interface, not a typed nil pointer, when there is no catalog.
	var catalogPinger healthuc.Pinger
	if cat != nil {
		catalogPinger = cat.Store
	}
	healthSvc := healthuc.New(engine, catalogPinger)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
