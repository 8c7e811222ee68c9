package services

import (
	"time"

	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/pkg/logger"
	"gorm.io/gorm"
)

// promptPreviewLen caps the prompt excerpt exposed in top-entry listings.
const promptPreviewLen = 80

// topEntryCount is how many entries Statistics ranks by access count.
const topEntryCount = 10

// AnalyticsService appends one event per cache lookup and aggregates
// hit/miss statistics over a rolling window. Only a key prefix is stored,
// never the full fingerprint.
type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// RecordHit appends a hit event. Write failures are logged and swallowed.
func (s *AnalyticsService) RecordHit(keyPrefix string, savings float64) {
	event := models.AnalyticsEvent{
		EventType: models.EventHit,
		KeyPrefix: keyPrefix,
		Savings:   savings,
	}
	if err := s.db.Create(&event).Error; err != nil {
		logger.Warnf("[Analytics] Failed to record hit: %v", err)
	}
}

// RecordMiss appends a miss event with its reason.
func (s *AnalyticsService) RecordMiss(keyPrefix, reason string) {
	event := models.AnalyticsEvent{
		EventType: models.EventMiss,
		KeyPrefix: keyPrefix,
		Reason:    reason,
	}
	if err := s.db.Create(&event).Error; err != nil {
		logger.Warnf("[Analytics] Failed to record miss: %v", err)
	}
}

// TopEntry is one high-traffic cache entry in the statistics report.
type TopEntry struct {
	KeyPrefix     string  `json:"key_prefix"`
	PromptPreview string  `json:"prompt_preview"`
	Model         string  `json:"model"`
	AccessCount   int     `json:"access_count"`
	TotalSavings  float64 `json:"total_savings"`
}

// CacheStatistics is the aggregated hit/miss report for a window.
type CacheStatistics struct {
	WindowDays     int        `json:"window_days"`
	TotalRequests  int64      `json:"total_requests"`
	Hits           int64      `json:"hits"`
	Misses         int64      `json:"misses"`
	HitRatePercent float64    `json:"hit_rate_percent"`
	TotalSavings   float64    `json:"total_savings"`
	TopEntries     []TopEntry `json:"top_entries"`
}

// Statistics aggregates events within the window. Any query failure yields
// a zero-valued but well-formed report rather than an error.
func (s *AnalyticsService) Statistics(windowDays int) *CacheStatistics {
	if windowDays <= 0 {
		windowDays = 30
	}
	stats := &CacheStatistics{WindowDays: windowDays, TopEntries: []TopEntry{}}
	since := time.Now().AddDate(0, 0, -windowDays)

	type counts struct {
		Total   int64
		Hits    int64
		Savings float64
	}
	var c counts
	err := s.db.Model(&models.AnalyticsEvent{}).
		Where("created_at >= ?", since).
		Select("COUNT(*) as total, " +
			"COALESCE(SUM(CASE WHEN event_type = 'hit' THEN 1 ELSE 0 END), 0) as hits, " +
			"COALESCE(SUM(CASE WHEN event_type = 'hit' THEN savings ELSE 0 END), 0) as savings").
		Scan(&c).Error
	if err != nil {
		logger.Warnf("[Analytics] Statistics query failed: %v", err)
		return stats
	}

	stats.TotalRequests = c.Total
	stats.Hits = c.Hits
	stats.Misses = c.Total - c.Hits
	stats.TotalSavings = c.Savings
	if c.Total > 0 {
		stats.HitRatePercent = float64(c.Hits) / float64(c.Total) * 100
	}

	var entries []models.CacheEntry
	err = s.db.Model(&models.CacheEntry{}).
		Where("access_count > 0").
		Order("access_count DESC").
		Limit(topEntryCount).
		Find(&entries).Error
	if err != nil {
		logger.Warnf("[Analytics] Top entries query failed: %v", err)
		return stats
	}

	for _, e := range entries {
		preview := e.Prompt
		// Truncate on rune boundaries so multi-byte prompts stay valid UTF-8.
		if runes := []rune(preview); len(runes) > promptPreviewLen {
			preview = string(runes[:promptPreviewLen])
		}
		stats.TopEntries = append(stats.TopEntries, TopEntry{
			KeyPrefix:     CacheKeyPrefix(e.CacheKey),
			PromptPreview: preview,
			Model:         e.Model,
			AccessCount:   e.AccessCount,
			TotalSavings:  e.TotalSavings,
		})
	}

	return stats
}

// CleanupBefore ages out events older than the given time, keeping the
// analytics table bounded to the rolling window.
func (s *AnalyticsService) CleanupBefore(before time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", before).Delete(&models.AnalyticsEvent{})
	return result.RowsAffected, result.Error
}
