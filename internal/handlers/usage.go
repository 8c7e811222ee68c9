package handlers

import (
	"strconv"

	"github.com/clinscribe/backend/internal/middleware"
	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/internal/services"
	"github.com/clinscribe/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// UsageHandler exposes the account usage summary and the plan lifecycle.
type UsageHandler struct {
	ledger *services.UsageLedgerService
}

func NewUsageHandler(ledger *services.UsageLedgerService) *UsageHandler {
	return &UsageHandler{ledger: ledger}
}

func (h *UsageHandler) account(c *gin.Context) (*models.SubscriptionAccount, bool) {
	account, err := h.ledger.GetOrCreateAccount(middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, "failed to load subscription account")
		return nil, false
	}
	return account, true
}

// GetUsage returns the caller's current consumption summary.
// GET /api/usage
func (h *UsageHandler) GetUsage(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	response.Success(c, h.ledger.GetUsageStats(account))
}

// ListTransactions returns the caller's recent usage audit records.
// GET /api/usage/transactions?limit=50
func (h *UsageHandler) ListTransactions(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := h.ledger.ListTransactions(account.ID, limit)
	if err != nil {
		response.ServerError(c, "failed to list transactions")
		return
	}
	response.Success(c, txs)
}

// Upgrade moves the caller's account to a new plan.
// POST /api/subscription/upgrade
func (h *UsageHandler) Upgrade(c *gin.Context) {
	var req struct {
		PlanID string `json:"plan_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	account, ok := h.account(c)
	if !ok {
		return
	}
	if !h.ledger.Upgrade(account, req.PlanID) {
		response.BadRequest(c, "unknown plan: "+req.PlanID)
		return
	}
	response.Success(c, h.ledger.GetUsageStats(account))
}

// Cancel marks the caller's subscription cancelled.
// POST /api/subscription/cancel
func (h *UsageHandler) Cancel(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	if !h.ledger.Cancel(account) {
		response.ServerError(c, "cancellation failed")
		return
	}
	response.Success(c, gin.H{"status": account.Status})
}

// PurchaseTokens adds a token package to the caller's balance.
// POST /api/subscription/tokens/purchase
func (h *UsageHandler) PurchaseTokens(c *gin.Context) {
	var req struct {
		PackageID string `json:"package_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	account, ok := h.account(c)
	if !ok {
		return
	}
	if !h.ledger.PurchaseTokens(account, req.PackageID) {
		response.BadRequest(c, "unknown token package: "+req.PackageID)
		return
	}
	response.Success(c, h.ledger.GetUsageStats(account))
}
