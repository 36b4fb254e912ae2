package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/eventbus"
	"github.com/safeops/logcollector/pkg/metrics"
	"github.com/safeops/logcollector/pkg/model"
	"github.com/safeops/logcollector/pkg/notifier"
	"github.com/safeops/logcollector/pkg/sanitize"
	"github.com/safeops/logcollector/pkg/store"
)

// webhookAuthor tags entries ingested through the CI webhook, which carries
// no author information of its own.
const webhookAuthor = "webhook-ci"

// WebhookHandler receives pushes from CI systems. The response depends only
// on the durable write: the downstream parser is triggered asynchronously
// and its availability never blocks or fails the producing CI system.
type WebhookHandler struct {
	store  store.LogStore
	parser notifier.Notifier
	bus    *eventbus.Bus
	logger *zap.Logger
}

func NewWebhookHandler(logStore store.LogStore, parser notifier.Notifier, bus *eventbus.Bus, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{store: logStore, parser: parser, bus: bus, logger: logger}
}

type webhookRequest struct {
	Provider     string           `json:"provider"`
	RepoName     string           `json:"repo_name"`
	PipelineName string           `json:"pipeline_name"`
	Log          model.LogPayload `json:"log"`
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ValidationFailures.WithLabelValues("webhook").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{Msg: "invalid JSON body"}}})
		return
	}

	var missing []string
	if req.Log.IsZero() {
		missing = append(missing, "log")
	}
	if req.Provider == "" {
		missing = append(missing, "provider")
	}
	if req.RepoName == "" {
		missing = append(missing, "repo_name")
	}
	if req.PipelineName == "" {
		missing = append(missing, "pipeline_name")
	}
	if len(missing) > 0 {
		metrics.ValidationFailures.WithLabelValues("webhook").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"errors": missingFieldErrors(missing)})
		return
	}

	provider, err := model.NormalizeWebhookProvider(req.Provider)
	if err != nil {
		metrics.ValidationFailures.WithLabelValues("webhook").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{
			Msg: "Invalid provider. Only GITHUB, GITLAB, JENKINS are accepted.",
		}}})
		return
	}

	runID := fmt.Sprintf("%s_%d", provider, time.Now().UnixMilli())

	entry := &model.LogEntry{
		RunID:        runID,
		Provider:     provider,
		RepoName:     req.RepoName,
		PipelineName: req.PipelineName,
		LogData:      sanitize.Payload(req.Log),
		Author:       webhookAuthor,
		Source:       "Webhook",
	}

	if _, err := h.store.Create(c.Request.Context(), entry); err != nil {
		h.logger.Error("failed to store webhook log", zap.Error(err), zap.String("run_id", runID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}

	metrics.LogsIngested.WithLabelValues(string(provider), "webhook").Inc()
	go publishIngested(h.bus, h.logger, entry)

	// Fire-and-forget: the entry is durable, the parser catches up on its
	// own schedule if it is down right now.
	if h.parser.Enabled() {
		h.parser.NotifyAsync(runID, provider)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"run_id":  runID,
	})
}
