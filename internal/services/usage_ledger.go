package services

import (
	"fmt"
	"time"

	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// quotaThresholds are the crossing points (percent of limit) that fire
// the notification sink.
var quotaThresholds = []int{80, 90, 100}

// QuotaNotifier receives quota-threshold-crossing events. Fire-and-forget;
// the ledger never blocks on it.
type QuotaNotifier interface {
	NotifyThreshold(account *models.SubscriptionAccount, quota string, percent int)
}

// UsageLedgerService manages per-account monthly quotas, the purchasable
// token balance and the append-only usage audit trail. Check functions are
// pure; deduct functions are the only state mutators and return success
// flags rather than errors.
type UsageLedgerService struct {
	db       *gorm.DB
	notifier QuotaNotifier
}

func NewUsageLedgerService(db *gorm.DB, notifier QuotaNotifier) *UsageLedgerService {
	return &UsageLedgerService{db: db, notifier: notifier}
}

// GetOrCreateAccount returns the account for a user, lazily creating a
// trial account on first access.
func (s *UsageLedgerService) GetOrCreateAccount(userID uint) (*models.SubscriptionAccount, error) {
	var account models.SubscriptionAccount
	err := s.db.Where("user_id = ?", userID).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	plan := config.DefaultPlan()
	now := time.Now()
	account = models.SubscriptionAccount{
		UserID:        userID,
		PlanID:        plan.ID,
		Status:        models.StatusActive,
		PeriodStart:   now,
		PeriodEnd:     now.AddDate(0, 1, 0),
		PatientsLimit: plan.PatientLimit,
		AICallsLimit:  plan.AICallLimit,
		MaxSeats:      plan.MaxSeats,
	}
	if err := s.db.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create trial account: %w", err)
	}
	logger.Infof("[Ledger] Created trial account for user %d", userID)
	return &account, nil
}

// CheckPatientLimit reports whether the account may create another
// patient. Pure; the unlimited sentinel always allows.
func (s *UsageLedgerService) CheckPatientLimit(account *models.SubscriptionAccount) (bool, string) {
	if account.PatientsLimit == config.UnlimitedLimit {
		return true, ""
	}
	if account.PatientsUsed < account.PatientsLimit {
		return true, ""
	}
	return false, fmt.Sprintf("monthly patient limit reached (%d/%d); upgrade your plan to add more patients",
		account.PatientsUsed, account.PatientsLimit)
}

// CheckAiLimit reports whether the account may make another AI call and
// whether that call would consume a purchased token. Pure.
func (s *UsageLedgerService) CheckAiLimit(account *models.SubscriptionAccount) (bool, bool, string) {
	if account.AICallsLimit == config.UnlimitedLimit {
		return true, false, ""
	}
	if account.AICallsUsed < account.AICallsLimit {
		return true, false, ""
	}
	if account.TokenBalance > 0 {
		return true, true, fmt.Sprintf("monthly AI call limit reached (%d/%d); using 1 of %d purchased tokens",
			account.AICallsUsed, account.AICallsLimit, account.TokenBalance)
	}
	return false, false, fmt.Sprintf("monthly AI call limit reached (%d/%d) and no tokens left; purchase tokens or upgrade your plan",
		account.AICallsUsed, account.AICallsLimit)
}

// DeductPatientUsage consumes one patient slot.
func (s *UsageLedgerService) DeductPatientUsage(account *models.SubscriptionAccount) bool {
	before := account.PatientsUsed
	err := s.db.Model(&models.SubscriptionAccount{}).Where("id = ?", account.ID).
		Update("patients_used", gorm.Expr("patients_used + ?", 1)).Error
	if err != nil {
		logger.Errorf("[Ledger] Patient deduction failed for account %d: %v", account.ID, err)
		return false
	}
	account.PatientsUsed++

	s.recordTransaction(account.ID, models.TxQuotaDeduction, 1, "patient slot")
	s.checkThresholds(account, "patients", before, account.PatientsUsed, account.PatientsLimit)
	return true
}

// DeductAiUsage settles one AI call. A cache hit is always free, no matter
// what useToken says. Token deduction decrements the purchased balance;
// quota deduction increments the monthly counter.
func (s *UsageLedgerService) DeductAiUsage(account *models.SubscriptionAccount, useToken, cacheHit bool) bool {
	if cacheHit {
		return true
	}

	if useToken {
		result := s.db.Model(&models.SubscriptionAccount{}).
			Where("id = ? AND token_balance > 0", account.ID).
			Update("token_balance", gorm.Expr("token_balance - ?", 1))
		if result.Error != nil {
			logger.Errorf("[Ledger] Token deduction failed for account %d: %v", account.ID, result.Error)
			return false
		}
		if result.RowsAffected == 0 {
			// Balance was emptied between check and deduct; nothing was
			// consumed, so nothing is recorded.
			logger.Warnf("[Ledger] Token deduction skipped for account %d: no balance left", account.ID)
			return false
		}
		account.TokenBalance--
		s.recordTransaction(account.ID, models.TxTokenDeduction, 1, "AI call via purchased token")
		return true
	}

	before := account.AICallsUsed
	err := s.db.Model(&models.SubscriptionAccount{}).Where("id = ?", account.ID).
		Update("ai_calls_used", gorm.Expr("ai_calls_used + ?", 1)).Error
	if err != nil {
		logger.Errorf("[Ledger] AI quota deduction failed for account %d: %v", account.ID, err)
		return false
	}
	account.AICallsUsed++

	s.recordTransaction(account.ID, models.TxQuotaDeduction, 1, "AI call")
	s.checkThresholds(account, "ai_calls", before, account.AICallsUsed, account.AICallsLimit)
	return true
}

// Upgrade moves the account to a new plan and reactivates it.
func (s *UsageLedgerService) Upgrade(account *models.SubscriptionAccount, planID string) bool {
	plan, ok := config.PlanByID(planID)
	if !ok {
		logger.Warnf("[Ledger] Upgrade to unknown plan %q for account %d", planID, account.ID)
		return false
	}

	err := s.db.Model(&models.SubscriptionAccount{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"plan_id":        plan.ID,
		"status":         models.StatusActive,
		"patients_limit": plan.PatientLimit,
		"ai_calls_limit": plan.AICallLimit,
		"max_seats":      plan.MaxSeats,
	}).Error
	if err != nil {
		logger.Errorf("[Ledger] Upgrade failed for account %d: %v", account.ID, err)
		return false
	}

	account.PlanID = plan.ID
	account.Status = models.StatusActive
	account.PatientsLimit = plan.PatientLimit
	account.AICallsLimit = plan.AICallLimit
	account.MaxSeats = plan.MaxSeats

	s.recordTransaction(account.ID, models.TxPlanChange, 0, "upgraded to "+plan.ID)
	return true
}

// Cancel marks the subscription cancelled. The account row is preserved.
func (s *UsageLedgerService) Cancel(account *models.SubscriptionAccount) bool {
	err := s.db.Model(&models.SubscriptionAccount{}).Where("id = ?", account.ID).
		Update("status", models.StatusCancelled).Error
	if err != nil {
		logger.Errorf("[Ledger] Cancel failed for account %d: %v", account.ID, err)
		return false
	}
	account.Status = models.StatusCancelled
	s.recordTransaction(account.ID, models.TxPlanChange, 0, "cancelled")
	return true
}

// ResetMonthlyQuota zeroes the monthly counters and advances the billing
// period. The token balance survives the reset.
func (s *UsageLedgerService) ResetMonthlyQuota(account *models.SubscriptionAccount) bool {
	now := time.Now()
	err := s.db.Model(&models.SubscriptionAccount{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"patients_used": 0,
		"ai_calls_used": 0,
		"period_start":  now,
		"period_end":    now.AddDate(0, 1, 0),
	}).Error
	if err != nil {
		logger.Errorf("[Ledger] Quota reset failed for account %d: %v", account.ID, err)
		return false
	}

	account.PatientsUsed = 0
	account.AICallsUsed = 0
	account.PeriodStart = now
	account.PeriodEnd = now.AddDate(0, 1, 0)

	s.recordTransaction(account.ID, models.TxQuotaReset, 0, "monthly quota reset")
	return true
}

// ResetDueAccounts rolls over every active account whose billing period
// has ended. Returns the number of accounts reset.
func (s *UsageLedgerService) ResetDueAccounts() (int, error) {
	var due []models.SubscriptionAccount
	err := s.db.Where("status = ? AND period_end <= ?", models.StatusActive, time.Now()).
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list due accounts: %w", err)
	}

	reset := 0
	for i := range due {
		if s.ResetMonthlyQuota(&due[i]) {
			reset++
		}
	}
	return reset, nil
}

// PurchaseTokens adds a token package to the balance and the lifetime
// purchased total.
func (s *UsageLedgerService) PurchaseTokens(account *models.SubscriptionAccount, packageID string) bool {
	pkg, ok := config.TokenPackageByID(packageID)
	if !ok {
		logger.Warnf("[Ledger] Purchase of unknown token package %q for account %d", packageID, account.ID)
		return false
	}

	err := s.db.Model(&models.SubscriptionAccount{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"token_balance":             gorm.Expr("token_balance + ?", pkg.Tokens),
		"lifetime_tokens_purchased": gorm.Expr("lifetime_tokens_purchased + ?", pkg.Tokens),
	}).Error
	if err != nil {
		logger.Errorf("[Ledger] Token purchase failed for account %d: %v", account.ID, err)
		return false
	}

	account.TokenBalance += pkg.Tokens
	account.LifetimeTokensPurchased += pkg.Tokens

	s.recordTransaction(account.ID, models.TxTokenPurchase, pkg.Tokens, "package "+pkg.ID)
	return true
}

// UsageStats is the account-facing usage summary.
type UsageStats struct {
	PlanID           string    `json:"plan_id"`
	Status           string    `json:"status"`
	PeriodEnd        time.Time `json:"period_end"`
	PatientsUsed     int       `json:"patients_used"`
	PatientsLimit    int       `json:"patients_limit"`
	PatientsPercent  float64   `json:"patients_percent"`
	AICallsUsed      int       `json:"ai_calls_used"`
	AICallsLimit     int       `json:"ai_calls_limit"`
	AICallsPercent   float64   `json:"ai_calls_percent"`
	TokenBalance     int       `json:"token_balance"`
	LifetimeTokens   int       `json:"lifetime_tokens_purchased"`
}

// GetUsageStats summarizes the account's current consumption.
func (s *UsageLedgerService) GetUsageStats(account *models.SubscriptionAccount) *UsageStats {
	stats := &UsageStats{
		PlanID:         account.PlanID,
		Status:         account.Status,
		PeriodEnd:      account.PeriodEnd,
		PatientsUsed:   account.PatientsUsed,
		PatientsLimit:  account.PatientsLimit,
		AICallsUsed:    account.AICallsUsed,
		AICallsLimit:   account.AICallsLimit,
		TokenBalance:   account.TokenBalance,
		LifetimeTokens: account.LifetimeTokensPurchased,
	}
	if account.PatientsLimit > 0 {
		stats.PatientsPercent = float64(account.PatientsUsed) / float64(account.PatientsLimit) * 100
	}
	if account.AICallsLimit > 0 {
		stats.AICallsPercent = float64(account.AICallsUsed) / float64(account.AICallsLimit) * 100
	}
	return stats
}

// ListTransactions returns the most recent audit records for an account.
func (s *UsageLedgerService) ListTransactions(accountID uint, limit int) ([]models.UsageTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var txs []models.UsageTransaction
	err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Limit(limit).Find(&txs).Error
	return txs, err
}

func (s *UsageLedgerService) recordTransaction(accountID uint, txType string, amount int, detail string) {
	tx := models.UsageTransaction{
		TransactionID: uuid.New().String(),
		AccountID:     accountID,
		Type:          txType,
		Amount:        amount,
		Detail:        detail,
	}
	if err := s.db.Create(&tx).Error; err != nil {
		logger.Warnf("[Ledger] Failed to record %s transaction for account %d: %v", txType, accountID, err)
	}
}

// checkThresholds fires the notifier for every threshold crossed by this
// deduction. Unlimited quotas never notify.
func (s *UsageLedgerService) checkThresholds(account *models.SubscriptionAccount, quota string, before, after, limit int) {
	if s.notifier == nil || limit <= 0 {
		return
	}
	beforePct := before * 100 / limit
	afterPct := after * 100 / limit
	for _, t := range quotaThresholds {
		if beforePct < t && afterPct >= t {
			s.notifier.NotifyThreshold(account, quota, t)
		}
	}
}
