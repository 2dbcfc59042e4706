package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/sentinel-labs/financial-sentinel/internal/api"
	"github.com/sentinel-labs/financial-sentinel/internal/config"
	"github.com/sentinel-labs/financial-sentinel/internal/metrics"
	"github.com/sentinel-labs/financial-sentinel/internal/monitoring"
	"github.com/sentinel-labs/financial-sentinel/internal/notifications"
	"github.com/sentinel-labs/financial-sentinel/internal/scheduler"
	"github.com/sentinel-labs/financial-sentinel/internal/sources"
	"github.com/sentinel-labs/financial-sentinel/internal/storage"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Financial Sentinel")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// Initialize export storage: Azure when configured, local disk otherwise
	var store storage.StorageInterface
	if cfg.StorageAccount != "" {
		store, err = storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
	} else {
		store, err = storage.NewLocalStorage("exports")
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
	}

	// Initialize collaborators
	notificationService := notifications.NewService(cfg)
	xSource := sources.NewXSource(cfg.XBearerToken)
	analyzer := sources.NewGrokAnalyzer(cfg.XAIAPIKey, cfg.XAIModel)

	// Initialize the monitoring core
	monitoringService := monitoring.NewService(cfg, store, notificationService, xSource, analyzer)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg, monitoringService)

	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// HTTP server for dashboard API, health checks, and metrics
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewServer(monitoringService).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
