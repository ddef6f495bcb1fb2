package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ConnectionChecker reports the state of a long-lived client connection
type ConnectionChecker interface {
	IsConnected() bool
}

// HealthHandler liveness and dependency checks
type HealthHandler struct {
	db   *gorm.DB
	nats ConnectionChecker // nil when the queue is not configured
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *gorm.DB, nats ConnectionChecker) *HealthHandler {
	return &HealthHandler{db: db, nats: nats}
}

// PingHandler
// GET /ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// HealthCheckHandler database and queue status. 503 when the database is down.
// GET /health, GET /api/health
func (h *HealthHandler) HealthCheckHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "error"
	}

	natsStatus := "disabled"
	if h.nats != nil {
		natsStatus = "disconnected"
		if h.nats.IsConnected() {
			natsStatus = "ok"
		}
	}

	status := http.StatusOK
	overall := "ok"
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"service":  "crowdmint-backend",
		"database": dbStatus,
		"nats":     natsStatus,
	})
}
