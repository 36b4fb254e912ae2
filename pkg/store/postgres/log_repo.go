package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safeops/logcollector/pkg/model"
	"github.com/safeops/logcollector/pkg/store"
)

// LogRepository is the PostgreSQL backend of store.LogStore, layered on the
// shared gorm connection pool.
type LogRepository struct {
	store *Store
}

func NewLogRepository(s *Store) *LogRepository {
	return &LogRepository{store: s}
}

func (r *LogRepository) Create(ctx context.Context, entry *model.LogEntry) (uuid.UUID, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.TimestampReceived.IsZero() {
		entry.TimestampReceived = time.Now().UTC()
	}
	if err := r.store.db.WithContext(ctx).Create(entry).Error; err != nil {
		return uuid.Nil, err
	}
	return entry.ID, nil
}

func (r *LogRepository) List(ctx context.Context, query store.LogQuery) ([]model.LogEntry, error) {
	var entries []model.LogEntry
	dbQuery := r.store.db.WithContext(ctx).
		Order("timestamp_received DESC")

	if query.Provider != "" {
		dbQuery = dbQuery.Where("provider = ?", query.Provider)
	}
	if query.RunID != "" {
		dbQuery = dbQuery.Where("run_id = ?", query.RunID)
	}
	if query.Limit > 0 {
		dbQuery = dbQuery.Limit(query.Limit)
	}
	if query.Skip > 0 {
		dbQuery = dbQuery.Offset(query.Skip)
	}

	err := dbQuery.Find(&entries).Error
	return entries, err
}

func (r *LogRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
	var entry model.LogEntry
	err := r.store.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *LogRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.store.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.LogEntry{})
	return result.RowsAffected, result.Error
}

func (r *LogRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *LogRepository) Close() error {
	return r.store.Close()
}
