package handlers

import (
	"strconv"

	"github.com/clinscribe/backend/internal/services"
	"github.com/clinscribe/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// CacheHandler exposes cache statistics and the admin retention surface.
type CacheHandler struct {
	analytics *services.AnalyticsService
	retention *services.RetentionService
}

func NewCacheHandler(analytics *services.AnalyticsService, retention *services.RetentionService) *CacheHandler {
	return &CacheHandler{analytics: analytics, retention: retention}
}

// Stats returns aggregated hit/miss statistics.
// GET /api/cache/stats?window_days=30
func (h *CacheHandler) Stats(c *gin.Context) {
	windowDays, _ := strconv.Atoi(c.DefaultQuery("window_days", "30"))
	response.Success(c, h.analytics.Statistics(windowDays))
}

// ClearExpired runs the TTL sweep on demand.
// DELETE /api/admin/cache/expired
func (h *CacheHandler) ClearExpired(c *gin.Context) {
	deleted := h.retention.SweepExpired()
	response.Success(c, gin.H{"deleted": deleted})
}

// DeleteUserCache removes all cache entries owned by a user.
// DELETE /api/admin/users/:id/cache
func (h *CacheHandler) DeleteUserCache(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	deleted := h.retention.DeleteUserCache(uint(userID))
	response.Success(c, gin.H{"deleted": deleted})
}

// DeleteUserTrainingData removes all training examples captured for a user.
// DELETE /api/admin/users/:id/training-data
func (h *CacheHandler) DeleteUserTrainingData(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	deleted := h.retention.DeleteUserTrainingData(uint(userID))
	response.Success(c, gin.H{"deleted": deleted})
}

// PurgeUser cascades the right-to-be-forgotten deletion for a user.
// DELETE /api/admin/users/:id/data
func (h *CacheHandler) PurgeUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	cacheDeleted, trainingDeleted := h.retention.PurgeUser(uint(userID))
	response.Success(c, gin.H{
		"cache_deleted":    cacheDeleted,
		"training_deleted": trainingDeleted,
	})
}
