// Package maintenance holds offline administrative operations over the log
// store. Nothing here runs on the ingestion hot path.
package maintenance

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/metrics"
	"github.com/safeops/logcollector/pkg/store"
)

type DedupResult struct {
	Scanned int
	Deleted int64
}

// CleanDuplicates collapses entries sharing a run_id down to the most
// recently received one. The scan reads all entries in received-descending
// order and keeps the first occurrence of each run_id; every later
// occurrence is already older and gets deleted in one batch.
//
// Safe to run alongside ingestion: only entries identified by id in the
// snapshot read are deleted, so writes landing mid-scan are untouched. Do
// not run two cleanups concurrently.
func CleanDuplicates(ctx context.Context, logStore store.LogStore, logger *zap.Logger) (DedupResult, error) {
	entries, err := logStore.List(ctx, store.LogQuery{})
	if err != nil {
		return DedupResult{}, err
	}

	seen := make(map[string]struct{}, len(entries))
	var toDelete []uuid.UUID

	for _, entry := range entries {
		if _, ok := seen[entry.RunID]; ok {
			toDelete = append(toDelete, entry.ID)
			logger.Info("duplicate found",
				zap.String("run_id", entry.RunID),
				zap.String("id", entry.ID.String()),
			)
			continue
		}
		seen[entry.RunID] = struct{}{}
	}

	result := DedupResult{Scanned: len(entries)}
	if len(toDelete) == 0 {
		logger.Info("no duplicates found", zap.Int("scanned", result.Scanned))
		return result, nil
	}

	deleted, err := logStore.DeleteByIDs(ctx, toDelete)
	if err != nil {
		return result, err
	}

	result.Deleted = deleted
	metrics.DedupDeleted.Add(float64(deleted))
	logger.Info("duplicates deleted",
		zap.Int("scanned", result.Scanned),
		zap.Int64("deleted", deleted),
	)
	return result, nil
}
