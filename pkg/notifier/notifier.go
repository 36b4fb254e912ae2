// Package notifier triggers the downstream log-parsing service after an
// entry has been durably stored. The trigger is best-effort: a failure is
// logged and reported to the caller as a status, never as an ingestion
// error. Ingestion durability must not couple to parser availability.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/metrics"
	"github.com/safeops/logcollector/pkg/model"
)

// Status is the caller-visible outcome of one trigger attempt. Only the
// diagnostic simulation and test paths surface it; webhooks ignore it.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Notifier is the downstream trigger contract consumed by the handlers.
type Notifier interface {
	// Notify posts {run_id, provider} to the parser's db-parse endpoint.
	Notify(ctx context.Context, runID string, provider model.Provider) error

	// NotifyAsync runs Notify on its own goroutine with a detached,
	// bounded context, so callers never wait on the parser.
	NotifyAsync(runID string, provider model.Provider)

	// TriggerParse hits the parser's query-parameter parse endpoint,
	// used by the test-webhook path.
	TriggerParse(ctx context.Context, runID string) error

	// Enabled reports whether a parser endpoint is configured at all.
	Enabled() bool
}

// ParserNotifier calls the log parser over HTTP with a bounded timeout.
type ParserNotifier struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

func NewParserNotifier(baseURL string, timeout time.Duration, logger *zap.Logger) *ParserNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ParserNotifier{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (n *ParserNotifier) Enabled() bool {
	return n.baseURL != ""
}

func (n *ParserNotifier) Notify(ctx context.Context, runID string, provider model.Provider) error {
	if !n.Enabled() {
		return fmt.Errorf("parser endpoint not configured")
	}

	body, err := json.Marshal(map[string]string{
		"run_id":   runID,
		"provider": string(provider),
	})
	if err != nil {
		return err
	}

	target := n.baseURL + "/api/parse/db"
	err = n.post(ctx, target, "application/json", bytes.NewReader(body))
	if err != nil {
		metrics.NotifyTotal.WithLabelValues("failed").Inc()
		n.logger.Warn("parser trigger failed but storing succeeded",
			zap.String("url", target),
			zap.String("run_id", runID),
			zap.Error(err),
		)
		return err
	}

	metrics.NotifyTotal.WithLabelValues("success").Inc()
	n.logger.Info("parser triggered",
		zap.String("url", target),
		zap.String("run_id", runID),
	)
	return nil
}

func (n *ParserNotifier) TriggerParse(ctx context.Context, runID string) error {
	if !n.Enabled() {
		return fmt.Errorf("parser endpoint not configured")
	}

	target := n.baseURL + "/parse?run_id=" + url.QueryEscape(runID)
	err := n.post(ctx, target, "application/json", nil)
	if err != nil {
		metrics.NotifyTotal.WithLabelValues("failed").Inc()
		n.logger.Warn("parser trigger failed",
			zap.String("url", target),
			zap.String("run_id", runID),
			zap.Error(err),
		)
		return err
	}

	metrics.NotifyTotal.WithLabelValues("success").Inc()
	return nil
}

// NotifyAsync dispatches Notify on its own goroutine with a detached,
// bounded context. Used by the webhook path so the HTTP response never
// waits on, or fails because of, the downstream parser.
func (n *ParserNotifier) NotifyAsync(runID string, provider model.Provider) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		_ = n.Notify(ctx, runID, provider)
	}()
}

func (n *ParserNotifier) post(ctx context.Context, target, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("parser returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
