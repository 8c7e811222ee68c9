package models

import "time"

// Subscription statuses
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
	StatusInactive  = "inactive"
)

// Usage transaction types
const (
	TxQuotaDeduction = "quota_deduction"
	TxTokenDeduction = "token_deduction"
	TxTokenPurchase  = "token_purchase"
	TxPlanChange     = "plan_change"
	TxQuotaReset     = "quota_reset"
)

// SubscriptionAccount is the per-account metering ledger: monthly quota
// counters, plan limits and the purchasable token balance. Created lazily
// as a trial on first access; never hard-deleted.
type SubscriptionAccount struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	UserID                  uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	PlanID                  string    `gorm:"size:50;not null" json:"plan_id"`
	Status                  string    `gorm:"size:20;default:active" json:"status"`
	PeriodStart             time.Time `json:"period_start"`
	PeriodEnd               time.Time `gorm:"index" json:"period_end"`
	PatientsUsed            int       `gorm:"default:0" json:"patients_used"`
	PatientsLimit           int       `json:"patients_limit"` // -1 = unlimited
	AICallsUsed             int       `gorm:"default:0" json:"ai_calls_used"`
	AICallsLimit            int       `json:"ai_calls_limit"`
	TokenBalance            int       `gorm:"default:0" json:"token_balance"`
	LifetimeTokensPurchased int       `gorm:"default:0" json:"lifetime_tokens_purchased"`
	MaxSeats                int       `gorm:"default:1" json:"max_seats"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (SubscriptionAccount) TableName() string { return "subscription_accounts" }

// UsageTransaction is one append-only audit record of a quota-consuming or
// plan-lifecycle action.
type UsageTransaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TransactionID string    `gorm:"size:36;uniqueIndex" json:"transaction_id"`
	AccountID     uint      `gorm:"index;not null" json:"account_id"`
	Type          string    `gorm:"size:30;index;not null" json:"type"`
	Amount        int       `json:"amount"`
	Detail        string    `gorm:"size:500" json:"detail"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (UsageTransaction) TableName() string { return "usage_transactions" }
