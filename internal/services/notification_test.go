package services

import (
	"strings"
	"testing"

	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/internal/models"
)

func TestWebhookNotifier_BuildMessage(t *testing.T) {
	n := NewWebhookNotifier(&config.NotifierConfig{WebhookURL: "http://example.com/hook"})
	account := &models.SubscriptionAccount{
		ID:            4,
		PlanID:        "solo",
		AICallsUsed:   135,
		AICallsLimit:  150,
		PatientsUsed:  25,
		PatientsLimit: 25,
	}

	tests := []struct {
		name     string
		quota    string
		percent  int
		contains []string
	}{
		{"ai calls 90", "ai_calls", 90, []string{"90%", "AI calls", "135/150", "solo"}},
		{"patients exhausted", "patients", 100, []string{"exhausted", "patients", "25/25"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := n.buildMessage(account, tt.quota, tt.percent)
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("message %q should contain %q", msg, want)
				}
			}
		})
	}
}

func TestNewNotifier_Selection(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.NotifierConfig
		wantWebhook bool
	}{
		{"enabled with url", config.NotifierConfig{Enabled: true, WebhookURL: "http://example.com"}, true},
		{"enabled without url", config.NotifierConfig{Enabled: true}, false},
		{"disabled", config.NotifierConfig{WebhookURL: "http://example.com"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifier(&tt.cfg)
			_, isWebhook := n.(*WebhookNotifier)
			if isWebhook != tt.wantWebhook {
				t.Errorf("webhook = %v, expected %v", isWebhook, tt.wantWebhook)
			}
		})
	}
}

func TestNoopNotifier_IsSilent(t *testing.T) {
	// Must not panic on nil account internals.
	NoopNotifier{}.NotifyThreshold(&models.SubscriptionAccount{}, "ai_calls", 80)
}
