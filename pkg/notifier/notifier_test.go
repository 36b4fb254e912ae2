package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/model"
)

func TestNotifyPostsRunAndProvider(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewParserNotifier(server.URL, 2*time.Second, zap.NewNop())

	if err := n.Notify(context.Background(), "GITHUB_123", model.ProviderGitHub); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if gotPath != "/api/parse/db" {
		t.Fatalf("expected /api/parse/db, got %q", gotPath)
	}
	if gotBody["run_id"] != "GITHUB_123" || gotBody["provider"] != "GITHUB" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestNotifyNon2xxIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "parser exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewParserNotifier(server.URL, 2*time.Second, zap.NewNop())

	if err := n.Notify(context.Background(), "run", model.ProviderGitLab); err == nil {
		t.Fatalf("expected error on 500 response")
	}
}

func TestNotifyUnreachableIsFailure(t *testing.T) {
	n := NewParserNotifier("http://127.0.0.1:1", 500*time.Millisecond, zap.NewNop())

	if err := n.Notify(context.Background(), "run", model.ProviderJenkins); err == nil {
		t.Fatalf("expected error when parser is unreachable")
	}
}

func TestTriggerParsePassesRunID(t *testing.T) {
	var gotRunID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parse" {
			t.Errorf("expected /parse, got %q", r.URL.Path)
		}
		gotRunID = r.URL.Query().Get("run_id")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewParserNotifier(server.URL, 2*time.Second, zap.NewNop())

	if err := n.TriggerParse(context.Background(), "github_clean_1"); err != nil {
		t.Fatalf("TriggerParse error: %v", err)
	}
	if gotRunID != "github_clean_1" {
		t.Fatalf("expected run_id github_clean_1, got %q", gotRunID)
	}
}

func TestDisabledWithoutBaseURL(t *testing.T) {
	n := NewParserNotifier("", time.Second, zap.NewNop())
	if n.Enabled() {
		t.Fatalf("expected notifier to be disabled without a base URL")
	}
	if err := n.Notify(context.Background(), "run", model.ProviderGitHub); err == nil {
		t.Fatalf("expected error from disabled notifier")
	}
}
