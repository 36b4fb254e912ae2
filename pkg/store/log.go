package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/safeops/logcollector/pkg/model"
)

var (
	ErrNotFound = errors.New("log entry not found")
	ErrClosed   = errors.New("log store is closed")
)

// LogQuery filters and paginates a listing. Results are always ordered by
// timestamp_received descending; run_id is not unique, so RunID filters may
// match several entries.
type LogQuery struct {
	Provider model.Provider
	RunID    string
	Limit    int
	Skip     int
}

// LogStore defines the interface for log storage backends (PostgreSQL,
// in-memory). Entries are never updated; DeleteByIDs exists solely for the
// offline duplicate cleanup.
type LogStore interface {
	// Create durably persists one entry and returns its assigned id.
	// The backend assigns ID and TimestampReceived when unset.
	Create(ctx context.Context, entry *model.LogEntry) (uuid.UUID, error)

	// List returns entries matching the query, most recently received first.
	List(ctx context.Context, query LogQuery) ([]model.LogEntry, error)

	// FindByID returns one entry or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*model.LogEntry, error)

	// DeleteByIDs removes the given entries and reports how many went away.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// Ping is a cheap liveness probe against the backend.
	Ping(ctx context.Context) error

	// Close closes the connection to the storage backend.
	Close() error
}
