package handlers

import (
	"encoding/json"
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

const simulationAuthor = "simulator"

// SimulateHandler accepts loosely-shaped simulation payloads, adapts them
// into canonical entries and, unlike the webhook, reports the downstream
// parser outcome back to the caller for diagnostics.
type SimulateHandler struct {
	store  store.LogStore
	parser notifier.Notifier
	bus    *eventbus.Bus
	delay  time.Duration
	logger *zap.Logger
}

func NewSimulateHandler(logStore store.LogStore, parser notifier.Notifier, bus *eventbus.Bus, delay time.Duration, logger *zap.Logger) *SimulateHandler {
	return &SimulateHandler{store: logStore, parser: parser, bus: bus, delay: delay, logger: logger}
}

// simulationInput is the tagged union of accepted payload shapes, decided
// once at the boundary: a workflow description, an already-internal-format
// log, or an arbitrary document kept verbatim.
type simulationInput struct {
	provider     model.Provider
	repoName     string
	pipelineName string
	logData      model.LogPayload
}

type simulateRequest struct {
	Workflow     model.JSONB      `json:"workflow"`
	Repository   string           `json:"repository"`
	Log          model.LogPayload `json:"log"`
	Provider     string           `json:"provider"`
	RepoName     string           `json:"repo_name"`
	PipelineName string           `json:"pipeline_name"`
}

func adaptSimulationPayload(raw []byte) (simulationInput, error) {
	input := simulationInput{
		provider:     model.ProviderGitHub,
		repoName:     "simulation/repo",
		pipelineName: "simulation-pipeline",
	}

	var req simulateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return input, err
	}

	switch {
	case req.Workflow != nil:
		// Workflow description: serialized to text so the parser can
		// walk its steps.
		if req.Repository != "" {
			input.repoName = req.Repository
		}
		if name, ok := req.Workflow["name"].(string); ok && name != "" {
			input.pipelineName = name
		}
		text, err := json.MarshalIndent(req.Workflow, "", "  ")
		if err != nil {
			return input, err
		}
		input.logData = model.TextPayload(string(text))

	case !req.Log.IsZero():
		// Already in the internal format.
		if req.Provider != "" {
			if provider, err := model.NormalizeProvider(req.Provider); err == nil {
				input.provider = provider
			}
		}
		if req.RepoName != "" {
			input.repoName = req.RepoName
		}
		if req.PipelineName != "" {
			input.pipelineName = req.PipelineName
		}
		input.logData = req.Log

	default:
		// Fallback: keep the whole body as the log.
		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return input, err
		}
		text, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return input, err
		}
		input.logData = model.TextPayload(string(text))
	}

	return input, nil
}

func (h *SimulateHandler) Simulate(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{Msg: "unreadable request body"}}})
		return
	}

	input, err := adaptSimulationPayload(raw)
	if err != nil {
		metrics.ValidationFailures.WithLabelValues("simulate").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{Msg: "invalid JSON body"}}})
		return
	}

	runID := fmt.Sprintf("SIM_%s_%d", input.provider, time.Now().UnixMilli())
	h.logger.Info("simulation log received",
		zap.String("repo_name", input.repoName),
		zap.String("run_id", runID),
	)

	entry := &model.LogEntry{
		RunID:        runID,
		Provider:     input.provider,
		RepoName:     input.repoName,
		PipelineName: input.pipelineName,
		LogData:      sanitize.Payload(input.logData),
		Author:       simulationAuthor,
		Source:       "Simulation",
	}

	if _, err := h.store.Create(c.Request.Context(), entry); err != nil {
		h.logger.Error("failed to store simulation log", zap.Error(err), zap.String("run_id", runID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error during simulation processing"})
		return
	}

	metrics.LogsIngested.WithLabelValues(string(input.provider), "simulate").Inc()
	go publishIngested(h.bus, h.logger, entry)

	parserStatus := notifier.StatusSkipped
	var parserError *string

	if h.parser.Enabled() {
		// Short pause so the entry is visible to the parser's own store
		// connection before it is asked to read it.
		select {
		case <-time.After(h.delay):
		case <-c.Request.Context().Done():
		}

		if err := h.parser.Notify(c.Request.Context(), runID, input.provider); err != nil {
			parserStatus = notifier.StatusFailed
			msg := err.Error()
			parserError = &msg
		} else {
			parserStatus = notifier.StatusSuccess
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"run_id":          runID,
		"logParserStatus": parserStatus,
		"logParserError":  parserError,
		"message":         "Simulation log received and processing started",
	})
}
