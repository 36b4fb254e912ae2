package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/eventbus"
	"github.com/safeops/logcollector/pkg/metrics"
	"github.com/safeops/logcollector/pkg/model"
	"github.com/safeops/logcollector/pkg/sanitize"
	"github.com/safeops/logcollector/pkg/store"
)

// LogHandler serves the direct upload entry points and the listing the
// dashboard reads.
type LogHandler struct {
	store  store.LogStore
	bus    *eventbus.Bus
	logger *zap.Logger
}

func NewLogHandler(logStore store.LogStore, bus *eventbus.Bus, logger *zap.Logger) *LogHandler {
	return &LogHandler{store: logStore, bus: bus, logger: logger}
}

type uploadRequest struct {
	LogData           model.LogPayload `json:"log_data"`
	RepoName          string           `json:"repo_name"`
	Author            string           `json:"author"`
	PipelineName      string           `json:"pipeline_name"`
	RunID             string           `json:"run_id"`
	Provider          string           `json:"provider"`
	Source            string           `json:"source"`
	TimestampOriginal *time.Time       `json:"timestamp_original"`
}

// parseUploadRequest decodes an upload body. Plain-text requests carry the
// raw log as the body and the identifying fields as query parameters, which
// is how CI jobs ship logs with curl.
func (h *LogHandler) parseUploadRequest(c *gin.Context) (*uploadRequest, bool) {
	if strings.HasPrefix(c.ContentType(), "text/") {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{Msg: "unreadable request body"}}})
			return nil, false
		}
		req := &uploadRequest{
			LogData:      model.TextPayload(string(body)),
			RepoName:     c.Query("repo_name"),
			Author:       c.Query("author"),
			PipelineName: c.Query("pipeline_name"),
			RunID:        c.Query("run_id"),
			Provider:     c.Query("provider"),
			Source:       c.Query("source"),
		}
		return req, true
	}

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{Msg: "invalid JSON body"}}})
		return nil, false
	}
	return &req, true
}

func (h *LogHandler) UploadGitHub(c *gin.Context) {
	h.uploadFixed(c, model.ProviderGitHub)
}

func (h *LogHandler) UploadGitLab(c *gin.Context) {
	h.uploadFixed(c, model.ProviderGitLab)
}

func (h *LogHandler) UploadJenkins(c *gin.Context) {
	h.uploadFixed(c, model.ProviderJenkins)
}

func (h *LogHandler) uploadFixed(c *gin.Context, provider model.Provider) {
	req, ok := h.parseUploadRequest(c)
	if !ok {
		return
	}
	if missing := requiredUploadFields(req); len(missing) > 0 {
		metrics.ValidationFailures.WithLabelValues("upload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"errors": missingFieldErrors(missing)})
		return
	}
	h.saveLog(c, provider, req)
}

// Upload is the generic entry point: the caller names the provider and the
// spelling is normalized before anything is written.
func (h *LogHandler) Upload(c *gin.Context) {
	req, ok := h.parseUploadRequest(c)
	if !ok {
		return
	}

	if req.Provider == "" {
		metrics.ValidationFailures.WithLabelValues("upload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{Msg: "Missing provider field"}}})
		return
	}

	provider, err := model.NormalizeProvider(req.Provider)
	if err != nil {
		metrics.ValidationFailures.WithLabelValues("upload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{
			Msg: `Invalid provider. Accepted values: GITHUB, GITLAB, JENKINS, API (or variations like "GitHub Actions", "GitLab CI", etc.)`,
		}}})
		return
	}

	missing := requiredUploadFields(req)
	if req.Source == "" {
		missing = append(missing, "source")
	}
	if len(missing) > 0 {
		metrics.ValidationFailures.WithLabelValues("upload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"errors": missingFieldErrors(missing)})
		return
	}

	h.saveLog(c, provider, req)
}

func requiredUploadFields(req *uploadRequest) []string {
	var missing []string
	if req.LogData.IsZero() {
		missing = append(missing, "log_data")
	}
	if req.RepoName == "" {
		missing = append(missing, "repo_name")
	}
	if req.Author == "" {
		missing = append(missing, "author")
	}
	if req.PipelineName == "" {
		missing = append(missing, "pipeline_name")
	}
	if req.RunID == "" {
		missing = append(missing, "run_id")
	}
	return missing
}

func (h *LogHandler) saveLog(c *gin.Context, provider model.Provider, req *uploadRequest) {
	entry := &model.LogEntry{
		RunID:             req.RunID,
		Provider:          provider,
		RepoName:          req.RepoName,
		Author:            req.Author,
		PipelineName:      req.PipelineName,
		LogData:           sanitize.Payload(req.LogData),
		Source:            req.Source,
		TimestampOriginal: req.TimestampOriginal,
	}

	id, err := h.store.Create(c.Request.Context(), entry)
	if err != nil {
		h.logger.Error("failed to save log", zap.Error(err), zap.String("run_id", req.RunID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}

	metrics.LogsIngested.WithLabelValues(string(provider), "upload").Inc()
	go publishIngested(h.bus, h.logger, entry)

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Log from " + string(provider) + " saved successfully",
		"log_id":  id.String(),
	})
}

// List returns stored entries, most recently received first. Consumed by
// the dashboard.
func (h *LogHandler) List(c *gin.Context) {
	query := store.LogQuery{
		RunID: strings.TrimSpace(c.Query("run_id")),
		Limit: parseLimit(c.Query("limit"), 50),
		Skip:  parseSkip(c.Query("skip")),
	}

	if raw := strings.TrimSpace(c.Query("provider")); raw != "" {
		provider, err := model.NormalizeProvider(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{Msg: "unknown provider filter"}}})
			return
		}
		query.Provider = provider
	}

	entries, err := h.store.List(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("failed to list logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(entries),
		"logs":  entries,
	})
}

// PullGitHub documents the not-yet-implemented GitHub Actions pull
// integration. It enforces auth and parameter validation but performs no
// persistence.
func (h *LogHandler) PullGitHub(c *gin.Context) {
	owner := c.Query("owner")
	repo := c.Query("repo")
	runID := c.Query("run_id")

	if owner == "" || repo == "" || runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Missing owner, repo, or run_id query parameters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "info",
		"message":         "Conceptual endpoint for GitHub Actions log retrieval.",
		"details":         "A full implementation would fetch logs from the GitHub API using a token and save them.",
		"required_params": []string{"owner", "repo", "run_id"},
	})
}
