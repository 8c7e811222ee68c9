package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenWordRatio converts word counts to estimated token counts.
const tokenWordRatio = 1.3

// ResponseCacheService is the content-addressed AI response cache. Every
// public operation is a fail-open boundary: storage errors are logged and
// collapsed into a miss or a failed-write return value so the caller can
// always fall through to a fresh generation.
type ResponseCacheService struct {
	db        *gorm.DB
	analytics *AnalyticsService
	queue     TaskQueue
	ttl       time.Duration
}

func NewResponseCacheService(db *gorm.DB, analytics *AnalyticsService, queue TaskQueue, cfg *config.CacheConfig) *ResponseCacheService {
	return &ResponseCacheService{
		db:        db,
		analytics: analytics,
		queue:     queue,
		ttl:       time.Duration(cfg.TTLDays) * 24 * time.Hour,
	}
}

// EstimateTokens approximates the token count of a text from its word count.
func EstimateTokens(text string) float64 {
	return float64(len(strings.Fields(text))) * tokenWordRatio
}

// EstimateCost values a (prompt, response) pair against the pricing table.
func EstimateCost(prompt, response, model string) float64 {
	pricing := config.PricingFor(model)
	inTokens := EstimateTokens(prompt)
	outTokens := EstimateTokens(response)
	return inTokens/1_000_000*pricing.InputPerMTok + outTokens/1_000_000*pricing.OutputPerMTok
}

// Get looks up a cached response. Returns ("", false) on miss; expired and
// corrupt entries are reported as misses but left in place for the
// retention sweep (a later Put upserts over them).
func (s *ResponseCacheService) Get(prompt, model, patientContext string) (string, bool) {
	key := DeriveCacheKey(prompt, model, patientContext)
	prefix := CacheKeyPrefix(key)

	var entry models.CacheEntry
	err := s.db.Where("cache_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.analytics.RecordMiss(prefix, models.MissNotFound)
		} else {
			logger.Warnf("[Cache] Lookup failed for key %s...: %v", prefix, err)
			s.analytics.RecordMiss(prefix, models.MissStoreError)
		}
		return "", false
	}

	now := time.Now()
	if entry.Expired(now) {
		s.analytics.RecordMiss(prefix, models.MissExpired)
		return "", false
	}

	if strings.TrimSpace(entry.Response) == "" {
		// Self-healing: treat as absent, the next successful write replaces it.
		s.analytics.RecordMiss(prefix, models.MissCorrupt)
		return "", false
	}

	newCount := entry.AccessCount + 1
	err = s.db.Model(&models.CacheEntry{}).Where("cache_key = ?", key).Updates(map[string]interface{}{
		"access_count":     newCount,
		"total_savings":    entry.CostSaved * float64(newCount),
		"last_accessed_at": now,
	}).Error
	if err != nil {
		// Bookkeeping failure must not hide a usable hit.
		logger.Warnf("[Cache] Hit bookkeeping failed for key %s...: %v", prefix, err)
	}

	s.analytics.RecordHit(prefix, entry.CostSaved)
	return entry.Response, true
}

// Put caches a freshly generated response and triggers the deidentified
// training-data capture. Returns false on any storage failure.
func (s *ResponseCacheService) Put(prompt, response, model string, metadata map[string]string, patientContext string, userID uint, category Category) bool {
	if strings.TrimSpace(response) == "" {
		logger.Warnf("[Cache] Refusing to cache empty response for model %s", model)
		return false
	}

	key := DeriveCacheKey(prompt, model, patientContext)
	costSaved := EstimateCost(prompt, response, model)

	metadataJSON := ""
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(raw)
		}
	}

	now := time.Now()
	entry := models.CacheEntry{
		CacheKey:       key,
		Prompt:         prompt,
		Response:       response,
		Model:          model,
		UserID:         userID,
		Metadata:       metadataJSON,
		SchemaVersion:  models.CacheEntrySchemaVersion,
		CostSaved:      costSaved,
		TotalSavings:   0,
		AccessCount:    0,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(s.ttl),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"prompt", "response", "model", "user_id", "metadata", "schema_version",
			"cost_saved", "total_savings", "access_count", "last_accessed_at", "expires_at",
		}),
	}).Create(&entry).Error
	if err != nil {
		logger.Warnf("[Cache] Write failed for key %s...: %v", CacheKeyPrefix(key), err)
		return false
	}

	if s.queue != nil {
		task := &CaptureTask{
			Prompt:   prompt,
			Response: response,
			Model:    model,
			Metadata: metadataJSON,
			Category: category,
			UserID:   userID,
		}
		if err := s.queue.Enqueue(task); err != nil {
			logger.Warnf("[Cache] Training capture enqueue failed: %v", err)
		}
	}

	return true
}

// TTL returns the configured entry lifetime.
func (s *ResponseCacheService) TTL() time.Duration {
	return s.ttl
}
