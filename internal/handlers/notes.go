package handlers

import (
	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/internal/middleware"
	"github.com/clinscribe/backend/internal/services"
	"github.com/clinscribe/backend/pkg/logger"
	"github.com/clinscribe/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// NotesHandler drives the documentation generation flow: quota check,
// cache lookup, AI call on miss, cache write and usage settlement.
type NotesHandler struct {
	cache  *services.ResponseCacheService
	ai     *services.AIService
	ledger *services.UsageLedgerService
	cfg    *config.AIConfig
}

func NewNotesHandler(cache *services.ResponseCacheService, ai *services.AIService, ledger *services.UsageLedgerService, cfg *config.AIConfig) *NotesHandler {
	return &NotesHandler{cache: cache, ai: ai, ledger: ledger, cfg: cfg}
}

type GenerateNoteRequest struct {
	Prompt         string            `json:"prompt" binding:"required"`
	PatientContext string            `json:"patient_context"`
	Model          string            `json:"model"`
	Category       string            `json:"category"`
	Metadata       map[string]string `json:"metadata"`
}

type GenerateNoteResponse struct {
	Content      string  `json:"content"`
	Model        string  `json:"model"`
	Cached       bool    `json:"cached"`
	CostSaved    float64 `json:"cost_saved,omitempty"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
}

// Generate produces a clinical note, serving from cache when possible.
// POST /api/notes/generate
func (h *NotesHandler) Generate(c *gin.Context) {
	var req GenerateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	model := req.Model
	if model == "" {
		model = h.cfg.Model
	}

	userID := middleware.GetUserID(c)
	account, err := h.ledger.GetOrCreateAccount(userID)
	if err != nil {
		logger.Errorf("[Notes] Account lookup failed for user %d: %v", userID, err)
		response.ServerError(c, "failed to load subscription account")
		return
	}

	allowed, useToken, msg := h.ledger.CheckAiLimit(account)
	if !allowed {
		response.PaymentRequired(c, msg, gin.H{
			"allowed":      false,
			"plan_id":      account.PlanID,
			"upgrade_hint": "upgrade your plan or purchase a token package to continue",
		})
		return
	}

	if cached, hit := h.cache.Get(req.Prompt, model, req.PatientContext); hit {
		h.ledger.DeductAiUsage(account, useToken, true)
		response.Success(c, GenerateNoteResponse{
			Content: cached,
			Model:   model,
			Cached:  true,
		})
		return
	}

	result, err := h.ai.Generate(c.Request.Context(), &services.GenerationRequest{
		Prompt:         req.Prompt,
		PatientContext: req.PatientContext,
		Model:          model,
	})
	if err != nil {
		logger.Errorf("[Notes] Generation failed for user %d: %v", userID, err)
		response.ServerError(c, "note generation failed")
		return
	}

	category, _ := services.ParseCategory(req.Category)
	h.cache.Put(req.Prompt, result.Content, model, req.Metadata, req.PatientContext, userID, category)

	if !h.ledger.DeductAiUsage(account, useToken, false) {
		logger.Warnf("[Notes] Usage settlement failed for user %d, response served anyway", userID)
	}

	response.Success(c, GenerateNoteResponse{
		Content:      result.Content,
		Model:        model,
		Cached:       false,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
	})
}
