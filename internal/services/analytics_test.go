package services

import (
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/clinscribe/backend/internal/models"
)

func TestAnalytics_StatisticsAggregation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db)

	svc.RecordHit("abc123def456", 0.002)
	svc.RecordHit("abc123def456", 0.002)
	svc.RecordHit("fed654cba321", 0.001)
	svc.RecordMiss("0011aabbccdd", models.MissNotFound)
	svc.RecordMiss("0011aabbccdd", models.MissExpired)

	stats := svc.Statistics(30)

	if stats.TotalRequests != 5 {
		t.Errorf("TotalRequests = %d, expected 5", stats.TotalRequests)
	}
	if stats.Hits != 3 {
		t.Errorf("Hits = %d, expected 3", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, expected 2", stats.Misses)
	}
	if math.Abs(stats.HitRatePercent-60.0) > 1e-9 {
		t.Errorf("HitRatePercent = %v, expected 60", stats.HitRatePercent)
	}
	if math.Abs(stats.TotalSavings-0.005) > 1e-9 {
		t.Errorf("TotalSavings = %v, expected 0.005", stats.TotalSavings)
	}
}

func TestAnalytics_StatisticsEmptyWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db)

	stats := svc.Statistics(0) // defaults to 30

	if stats.WindowDays != 30 {
		t.Errorf("WindowDays = %d, expected 30", stats.WindowDays)
	}
	if stats.TotalRequests != 0 || stats.Hits != 0 || stats.Misses != 0 {
		t.Error("empty window should report zero counts")
	}
	if stats.HitRatePercent != 0 {
		t.Errorf("HitRatePercent = %v, expected 0", stats.HitRatePercent)
	}
	if stats.TopEntries == nil {
		t.Error("TopEntries should be an empty slice, not nil")
	}
}

func TestAnalytics_WindowExcludesOldEvents(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db)

	svc.RecordHit("abc123def456", 0.01)

	old := models.AnalyticsEvent{
		EventType: models.EventHit,
		KeyPrefix: "abc123def456",
		Savings:   0.01,
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatal(err)
	}
	db.Model(&old).Update("created_at", time.Now().AddDate(0, 0, -45))

	stats := svc.Statistics(30)
	if stats.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, expected 1 (old event outside window)", stats.TotalRequests)
	}
}

func TestAnalytics_TopEntries(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db)

	longPrompt := strings.Repeat("x", 200)
	entries := []models.CacheEntry{
		{CacheKey: strings.Repeat("a", 64), Prompt: longPrompt, Model: "gpt-4o", AccessCount: 9, TotalSavings: 0.09, Response: "r", ExpiresAt: time.Now().Add(time.Hour)},
		{CacheKey: strings.Repeat("b", 64), Prompt: "short", Model: "gpt-4o", AccessCount: 3, TotalSavings: 0.03, Response: "r", ExpiresAt: time.Now().Add(time.Hour)},
		{CacheKey: strings.Repeat("c", 64), Prompt: "never hit", Model: "gpt-4o", AccessCount: 0, Response: "r", ExpiresAt: time.Now().Add(time.Hour)},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	stats := svc.Statistics(30)

	if len(stats.TopEntries) != 2 {
		t.Fatalf("TopEntries length = %d, expected 2 (zero-access entries excluded)", len(stats.TopEntries))
	}
	if stats.TopEntries[0].AccessCount != 9 {
		t.Errorf("first entry AccessCount = %d, expected 9", stats.TopEntries[0].AccessCount)
	}
	if len(stats.TopEntries[0].PromptPreview) != promptPreviewLen {
		t.Errorf("preview length = %d, expected %d", len(stats.TopEntries[0].PromptPreview), promptPreviewLen)
	}
	if len(stats.TopEntries[0].KeyPrefix) != 12 {
		t.Errorf("key prefix length = %d, expected 12", len(stats.TopEntries[0].KeyPrefix))
	}
}

func TestAnalytics_TopEntriesMultibytePreview(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db)

	entry := models.CacheEntry{
		CacheKey:    strings.Repeat("d", 64),
		Prompt:      strings.Repeat("ü", promptPreviewLen+20),
		Model:       "gpt-4o",
		AccessCount: 1,
		Response:    "r",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatal(err)
	}

	stats := svc.Statistics(30)
	if len(stats.TopEntries) != 1 {
		t.Fatalf("TopEntries length = %d, expected 1", len(stats.TopEntries))
	}

	preview := stats.TopEntries[0].PromptPreview
	if !utf8.ValidString(preview) {
		t.Errorf("preview is not valid UTF-8: %q", preview)
	}
	if got := utf8.RuneCountInString(preview); got != promptPreviewLen {
		t.Errorf("preview rune count = %d, expected %d", got, promptPreviewLen)
	}
}

func TestAnalytics_CleanupBefore(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db)

	svc.RecordHit("abc123def456", 0.01)
	svc.RecordMiss("fed654cba321", models.MissNotFound)

	deleted, err := svc.CleanupBefore(time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("CleanupBefore() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, expected 2", deleted)
	}

	var count int64
	db.Model(&models.AnalyticsEvent{}).Count(&count)
	if count != 0 {
		t.Errorf("remaining events = %d, expected 0", count)
	}
}
