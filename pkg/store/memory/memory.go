// Package memory is an in-process store.LogStore backend used by tests and
// dev runs that have no PostgreSQL available.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safeops/logcollector/pkg/model"
	"github.com/safeops/logcollector/pkg/store"
)

type record struct {
	entry model.LogEntry
	seq   uint64
}

type LogStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]record
	seq     uint64
	closed  bool
}

func NewLogStore() *LogStore {
	return &LogStore{records: make(map[uuid.UUID]record)}
}

func (s *LogStore) Create(ctx context.Context, entry *model.LogEntry) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.TimestampReceived.IsZero() {
		entry.TimestampReceived = time.Now().UTC()
	}

	s.seq++
	s.records[entry.ID] = record{entry: *entry, seq: s.seq}
	return entry.ID, nil
}

func (s *LogStore) List(ctx context.Context, query store.LogQuery) ([]model.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]record, 0, len(s.records))
	for _, rec := range s.records {
		if query.Provider != "" && rec.entry.Provider != query.Provider {
			continue
		}
		if query.RunID != "" && rec.entry.RunID != query.RunID {
			continue
		}
		matched = append(matched, rec)
	}
	s.mu.RUnlock()

	// Most recently received first; insertion order breaks timestamp ties.
	sort.Slice(matched, func(i, j int) bool {
		ti, tj := matched[i].entry.TimestampReceived, matched[j].entry.TimestampReceived
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return matched[i].seq > matched[j].seq
	})

	if query.Skip > 0 {
		if query.Skip >= len(matched) {
			return []model.LogEntry{}, nil
		}
		matched = matched[query.Skip:]
	}
	if query.Limit > 0 && query.Limit < len(matched) {
		matched = matched[:query.Limit]
	}

	entries := make([]model.LogEntry, 0, len(matched))
	for _, rec := range matched {
		entries = append(entries, rec.entry)
	}
	return entries, nil
}

func (s *LogStore) FindByID(ctx context.Context, id uuid.UUID) (*model.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	entry := rec.entry
	return &entry, nil
}

func (s *LogStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *LogStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *LogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
