package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/safeops/logcollector/pkg/model"
	"github.com/safeops/logcollector/pkg/store"
	"github.com/safeops/logcollector/pkg/store/memory"
)

func newLogRouter(logStore store.LogStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewLogHandler(logStore, nil, zap.NewNop())
	logs := r.Group("/logs")
	logs.POST("/github", h.UploadGitHub)
	logs.POST("/gitlab", h.UploadGitLab)
	logs.POST("/jenkins", h.UploadJenkins)
	logs.POST("/upload", h.Upload)
	logs.GET("", h.List)
	return r
}

func validUpload() gin.H {
	return gin.H{
		"log_data":      "Successful build process.",
		"repo_name":     "test-repo",
		"author":        "test-author",
		"pipeline_name": "main-build",
		"run_id":        "run-123",
	}
}

type uploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

func TestUploadGitHubFixedProvider(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	recorder := postJSON(t, router, "/logs/github", validUpload())
	require.Equal(t, http.StatusCreated, recorder.Code)

	var response uploadResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "success", response.Status)
	assert.Contains(t, response.Message, "GITHUB")

	id, err := uuid.Parse(response.LogID)
	require.NoError(t, err)

	entry, err := logStore.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGitHub, entry.Provider)
	assert.Equal(t, "run-123", entry.RunID)
}

func TestUploadMissingFieldPersistsNothing(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	payload := validUpload()
	delete(payload, "repo_name")
	payload["source"] = "API"
	payload["provider"] = "GITHUB"

	recorder := postJSON(t, router, "/logs/upload", payload)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response struct {
		Errors []fieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.NotEmpty(t, response.Errors)

	entries, err := logStore.List(context.Background(), store.LogQuery{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadNormalizesProviderSpelling(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	payload := validUpload()
	payload["provider"] = "GitHub Actions"
	payload["source"] = "API"

	recorder := postJSON(t, router, "/logs/upload", payload)
	require.Equal(t, http.StatusCreated, recorder.Code)

	entries, err := logStore.List(context.Background(), store.LogQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ProviderGitHub, entries[0].Provider)
}

func TestUploadRejectsUnknownProvider(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	payload := validUpload()
	payload["provider"] = "unknown-ci"
	payload["source"] = "API"

	recorder := postJSON(t, router, "/logs/upload", payload)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response struct {
		Errors []fieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.NotEmpty(t, response.Errors)
	assert.Contains(t, response.Errors[0].Msg, "Invalid provider")

	entries, err := logStore.List(context.Background(), store.LogQuery{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadRequiresProviderField(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	recorder := postJSON(t, router, "/logs/upload", validUpload())
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUploadSanitizesMarkup(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	payload := validUpload()
	payload["log_data"] = `<script>alert("xss")</script>Some log text.`

	recorder := postJSON(t, router, "/logs/jenkins", payload)
	require.Equal(t, http.StatusCreated, recorder.Code)

	entries, err := logStore.List(context.Background(), store.LogQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, `alert("xss")Some log text.`, entries[0].LogData.Text)
	assert.NotContains(t, entries[0].LogData.Text, "<")
}

func TestUploadStructuredLogPassesThrough(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	payload := validUpload()
	payload["log_data"] = gin.H{"message": "Successful build process.", "html": "<b>kept</b>"}

	recorder := postJSON(t, router, "/logs/github", payload)
	require.Equal(t, http.StatusCreated, recorder.Code)

	entries, err := logStore.List(context.Background(), store.LogQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].LogData.IsText())
	assert.Equal(t, "<b>kept</b>", entries[0].LogData.Doc["html"])
}

func TestUploadPlainTextBodyWithQueryParams(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	body := "This is a raw text log."
	target := "/logs/upload?repo_name=text-repo&author=text-author&pipeline_name=text-build&run_id=run-456&source=Webhook&provider=API"

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)

	entries, err := logStore.List(context.Background(), store.LogQuery{RunID: "run-456"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, body, entries[0].LogData.Text)
	assert.Equal(t, "text-repo", entries[0].RepoName)
	assert.Equal(t, model.ProviderAPI, entries[0].Provider)
}

func TestListReturnsNewestFirst(t *testing.T) {
	logStore := memory.NewLogStore()
	router := newLogRouter(logStore)

	for _, runID := range []string{"one", "two"} {
		payload := validUpload()
		payload["run_id"] = runID
		recorder := postJSON(t, router, "/logs/github", payload)
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/logs?limit=10", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Count int              `json:"count"`
		Logs  []model.LogEntry `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Equal(t, 2, response.Count)
	assert.Equal(t, "two", response.Logs[0].RunID)
	assert.Equal(t, "one", response.Logs[1].RunID)
}
