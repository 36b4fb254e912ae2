package handlers

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/eventbus"
	"github.com/safeops/logcollector/pkg/model"
)

// fieldError is the client-facing validation error shape shared by every
// entry point.
type fieldError struct {
	Msg string `json:"msg"`
}

func missingFieldErrors(fields []string) []fieldError {
	errs := make([]fieldError, 0, len(fields))
	for _, field := range fields {
		errs = append(errs, fieldError{Msg: field + " is required"})
	}
	return errs
}

func parseLimit(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseSkip(value string) int {
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// publishIngested pushes a live-feed event for the dashboard. Best-effort:
// a nil bus or publish failure never affects the ingestion response.
func publishIngested(bus *eventbus.Bus, logger *zap.Logger, entry *model.LogEntry) {
	if bus == nil {
		return
	}
	event, err := eventbus.NewEvent("log_ingested", eventbus.LogIngestedEvent{
		LogID:    entry.ID.String(),
		RunID:    entry.RunID,
		Provider: string(entry.Provider),
		RepoName: entry.RepoName,
		Source:   entry.Source,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := bus.Publish(ctx, eventbus.ChannelLogs, event); err != nil {
		logger.Debug("event publish failed", zap.Error(err))
	}
}
