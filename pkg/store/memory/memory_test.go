package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/safeops/logcollector/pkg/model"
	"github.com/safeops/logcollector/pkg/store"
)

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	s := NewLogStore()

	entry := &model.LogEntry{
		RunID:        "run-1",
		Provider:     model.ProviderGitHub,
		RepoName:     "r",
		Author:       "a",
		PipelineName: "p",
		LogData:      model.TextPayload("ok"),
	}

	id, err := s.Create(context.Background(), entry)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if id == uuid.Nil {
		t.Fatalf("expected assigned id")
	}
	if entry.TimestampReceived.IsZero() {
		t.Fatalf("expected assigned timestamp_received")
	}

	found, err := s.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if found.RunID != "run-1" {
		t.Fatalf("expected run-1, got %q", found.RunID)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	s := NewLogStore()
	if _, err := s.FindByID(context.Background(), uuid.New()); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrdersByReceivedDescending(t *testing.T) {
	s := NewLogStore()
	base := time.Now().UTC()

	for i, runID := range []string{"first", "second", "third"} {
		entry := &model.LogEntry{
			RunID:             runID,
			Provider:          model.ProviderGitLab,
			RepoName:          "r",
			Author:            "a",
			PipelineName:      "p",
			LogData:           model.TextPayload("x"),
			TimestampReceived: base.Add(time.Duration(i) * time.Second),
		}
		if _, err := s.Create(context.Background(), entry); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	entries, err := s.List(context.Background(), store.LogQuery{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].RunID != "third" || entries[2].RunID != "first" {
		t.Fatalf("wrong order: %q, %q, %q", entries[0].RunID, entries[1].RunID, entries[2].RunID)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	s := NewLogStore()
	base := time.Now().UTC()

	providers := []model.Provider{model.ProviderGitHub, model.ProviderGitLab, model.ProviderGitHub}
	for i, provider := range providers {
		entry := &model.LogEntry{
			RunID:             "run",
			Provider:          provider,
			RepoName:          "r",
			Author:            "a",
			PipelineName:      "p",
			LogData:           model.TextPayload("x"),
			TimestampReceived: base.Add(time.Duration(i) * time.Second),
		}
		if _, err := s.Create(context.Background(), entry); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	github, err := s.List(context.Background(), store.LogQuery{Provider: model.ProviderGitHub})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(github) != 2 {
		t.Fatalf("expected 2 GITHUB entries, got %d", len(github))
	}

	paged, err := s.List(context.Background(), store.LogQuery{Limit: 1, Skip: 1})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(paged) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(paged))
	}
}

func TestDeleteByIDs(t *testing.T) {
	s := NewLogStore()

	var ids []uuid.UUID
	for _, runID := range []string{"a", "b"} {
		entry := &model.LogEntry{
			RunID:        runID,
			Provider:     model.ProviderJenkins,
			RepoName:     "r",
			Author:       "a",
			PipelineName: "p",
			LogData:      model.TextPayload("x"),
		}
		id, err := s.Create(context.Background(), entry)
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		ids = append(ids, id)
	}

	deleted, err := s.DeleteByIDs(context.Background(), []uuid.UUID{ids[0], uuid.New()})
	if err != nil {
		t.Fatalf("DeleteByIDs error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	remaining, err := s.List(context.Background(), store.LogQuery{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].RunID != "b" {
		t.Fatalf("expected only b to remain, got %+v", remaining)
	}
}

func TestPingAfterClose(t *testing.T) {
	s := NewLogStore()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := s.Ping(context.Background()); err != store.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
