// Offline maintenance run: collapse entries sharing a run_id down to the
// most recently received one. Safe alongside live ingestion; do not run two
// cleanups at once.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/config"
	"github.com/safeops/logcollector/pkg/maintenance"
	"github.com/safeops/logcollector/pkg/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := postgres.NewStore(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := maintenance.CleanDuplicates(ctx, postgres.NewLogRepository(db), logger)
	if err != nil {
		logger.Fatal("Cleanup failed", zap.Error(err))
	}

	logger.Info("Cleanup finished",
		zap.Int("scanned", result.Scanned),
		zap.Int64("deleted", result.Deleted),
	)
}
