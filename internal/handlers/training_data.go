package handlers

import (
	"strconv"
	"strings"

	"github.com/clinscribe/backend/internal/services"
	"github.com/clinscribe/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// TrainingDataHandler exposes the curated dataset export and review surface.
type TrainingDataHandler struct {
	training *services.TrainingDataService
}

func NewTrainingDataHandler(training *services.TrainingDataService) *TrainingDataHandler {
	return &TrainingDataHandler{training: training}
}

// Export returns the filtered dataset in the requested format.
// GET /api/admin/training-data/export?format=chatml&tags=diagnosis,clinical_reasoning&reviewed_only=true
func (h *TrainingDataHandler) Export(c *gin.Context) {
	format := services.ExportFormat(c.DefaultQuery("format", string(services.FormatChatML)))

	filter := services.ExportFilter{
		ReviewedOnly: c.Query("reviewed_only") == "true",
	}
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	records, err := h.training.Export(format, filter)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, records)
}

// SetQualityScore records a reviewer's quality score for an example.
// PUT /api/admin/training-data/:id/score
func (h *TrainingDataHandler) SetQualityScore(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid example id")
		return
	}

	var req struct {
		Score float64 `json:"score" binding:"min=0,max=5"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.training.SetQualityScore(uint(id), req.Score); err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"id": id, "score": req.Score})
}

// MarkReviewed flags an example as human-reviewed.
// PUT /api/admin/training-data/:id/reviewed
func (h *TrainingDataHandler) MarkReviewed(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid example id")
		return
	}

	if err := h.training.MarkReviewed(uint(id)); err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"id": id, "reviewed": true})
}
