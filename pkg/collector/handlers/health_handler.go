package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safeops/logcollector/pkg/store"
)

// HealthHandler reports gateway and store connectivity. It always answers
// 200: a broken store is reported as disconnected, never as a failed health
// check.
type HealthHandler struct {
	store store.LogStore
}

func NewHealthHandler(logStore store.LogStore) *HealthHandler {
	return &HealthHandler{store: logStore}
}

func (h *HealthHandler) Health(c *gin.Context) {
	// Field name kept as "mongodb" for dashboard compatibility.
	storeStatus := "disconnected"
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err == nil {
			storeStatus = "connected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"mongodb": storeStatus,
	})
}
