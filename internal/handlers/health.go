package handlers

import (
	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var cachedEntries int64
	models.GetDB().Model(&models.CacheEntry{}).Count(&cachedEntries)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "clinscribe",
		"components": gin.H{
			"database":       dbStatus,
			"queue_mode":     queueMode,
			"cached_entries": cachedEntries,
		},
	})
}
