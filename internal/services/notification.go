package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/pkg/logger"
)

// WebhookNotifier posts quota-threshold events to a configured webhook.
// Delivery is fire-and-forget: failures are logged, never surfaced to the
// deduction path.
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewWebhookNotifier(cfg *config.NotifierConfig) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyThreshold sends one threshold-crossing event.
func (n *WebhookNotifier) NotifyThreshold(account *models.SubscriptionAccount, quota string, percent int) {
	if n.webhookURL == "" {
		return
	}

	payload := map[string]interface{}{
		"event":      "quota_threshold",
		"account_id": account.ID,
		"user_id":    account.UserID,
		"plan_id":    account.PlanID,
		"quota":      quota,
		"percent":    percent,
		"message":    n.buildMessage(account, quota, percent),
	}

	go func() {
		if err := n.postJSON(n.webhookURL, payload); err != nil {
			logger.Warnf("[Notifier] Failed to deliver %d%% %s threshold for account %d: %v",
				percent, quota, account.ID, err)
		}
	}()
}

func (n *WebhookNotifier) buildMessage(account *models.SubscriptionAccount, quota string, percent int) string {
	used, limit := account.AICallsUsed, account.AICallsLimit
	label := "AI calls"
	if quota == "patients" {
		used, limit = account.PatientsUsed, account.PatientsLimit
		label = "patients"
	}
	if percent >= 100 {
		return fmt.Sprintf("Account %d has exhausted its monthly %s quota (%d/%d) on plan %s",
			account.ID, label, used, limit, account.PlanID)
	}
	return fmt.Sprintf("Account %d has used %d%% of its monthly %s quota (%d/%d) on plan %s",
		account.ID, percent, label, used, limit, account.PlanID)
}

func (n *WebhookNotifier) postJSON(url string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier discards threshold events. Used when no webhook is
// configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyThreshold(*models.SubscriptionAccount, string, int) {}

// NewNotifier selects the webhook notifier when configured, otherwise the
// no-op sink.
func NewNotifier(cfg *config.NotifierConfig) QuotaNotifier {
	if cfg.Enabled && cfg.WebhookURL != "" {
		return NewWebhookNotifier(cfg)
	}
	return NoopNotifier{}
}
