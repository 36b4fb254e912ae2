package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/collector"
	"github.com/safeops/logcollector/pkg/config"
	"github.com/safeops/logcollector/pkg/eventbus"
	"github.com/safeops/logcollector/pkg/notifier"
	"github.com/safeops/logcollector/pkg/store"
	"github.com/safeops/logcollector/pkg/store/postgres"
	redisclient "github.com/safeops/logcollector/pkg/store/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(&cfg.Logging)
	defer logger.Sync()

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	db, err := postgres.NewStore(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	var logStore store.LogStore = postgres.NewLogRepository(db)

	var bus *eventbus.Bus
	if cfg.Redis.Enabled {
		redis, err := redisclient.NewClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		bus = eventbus.NewBus(redis.Client())
	}

	parser := notifier.NewParserNotifier(cfg.Parser.BaseURL, cfg.Parser.NotifyTimeout, logger)

	server := collector.NewServer(logStore, parser, bus, cfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.ReadTimeout * 2,
	}

	go func() {
		logger.Info("Starting metrics server", zap.Int("port", cfg.Server.MetricsPort))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.MetricsPort), mux); err != nil {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Starting log collector", zap.Int("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	if cfg.Parser.AutoSimulate {
		go triggerStartupSimulation(cfg, logger)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.LoggingConfig) *zap.Logger {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		zapCfg.Level = level
	}
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// triggerStartupSimulation pushes one synthetic log through the full
// ingest-and-parse chain shortly after startup, as a deploy-time smoke
// check of the whole pipeline.
func triggerStartupSimulation(cfg *config.Config, logger *zap.Logger) {
	time.Sleep(1500 * time.Millisecond)

	payload := []byte(`{"repository":"safeops/startup-check","workflow":{"name":"startup-simulation","jobs":{"build":{"steps":[{"run":"echo ok"}]}}}}`)
	target := fmt.Sprintf("http://localhost:%d/api/logs/simulate", cfg.Server.HTTPPort)

	logger.Info("Triggering automatic simulation log", zap.String("url", target))
	resp, err := http.Post(target, "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.Warn("Failed to send simulation log", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	logger.Info("Simulation log submitted", zap.Int("status", resp.StatusCode))
}
