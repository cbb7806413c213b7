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

	"dealhive/extractor"
	"dealhive/internal/api"
	"dealhive/internal/config"
	"dealhive/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Log.Level, false)
	logger.Infof("Environment: %s", cfg.Server.Environment)
	logger.Infof("Enabled stores: %v", cfg.Scraper.Stores)

	engine := extractor.NewExtractor(&cfg.Scraper, logger)
	defer engine.Close()

	// A whole request may wait for the slowest store plus response encoding
	handler := api.NewHandler(engine, logger, cfg.Scraper.StoreTimeout+10*time.Second)
	router := api.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting API server on port %s", cfg.Server.Port)
		logger.Info("Available endpoints:")
		logger.Info("  GET  /health                     - Health check")
		logger.Info("  GET  /api/search?query=&limit=   - Search every store")
		logger.Info("  POST /api/search                 - Search every store (JSON body)")
		logger.Info("  GET  /api/stores                 - List stores")
		logger.Info("  GET  /api/stores/:store/search   - Search one store")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
