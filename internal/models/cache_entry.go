package models

import "time"

// CacheEntrySchemaVersion is stamped on every write so old rows can be
// migrated or discarded when the entry layout changes.
const CacheEntrySchemaVersion = 1

// CacheEntry is one cached AI response, keyed by the content fingerprint
// derived from (prompt, model, patient context). At most one live entry
// exists per fingerprint; writes upsert on key conflict.
type CacheEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CacheKey       string    `gorm:"uniqueIndex;size:64;not null" json:"cache_key"`
	Prompt         string    `gorm:"type:text" json:"prompt"`
	Response       string    `gorm:"type:text" json:"response"`
	Model          string    `gorm:"size:100;index" json:"model"`
	UserID         uint      `gorm:"index" json:"user_id"`
	Metadata       string    `gorm:"type:text" json:"metadata"` // free-form JSON
	SchemaVersion  int       `gorm:"default:1" json:"schema_version"`
	CostSaved      float64   `json:"cost_saved"`    // computed once at write
	TotalSavings   float64   `json:"total_savings"` // cost_saved * access_count
	AccessCount    int       `gorm:"default:0" json:"access_count"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	ExpiresAt      time.Time `gorm:"index" json:"expires_at"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (CacheEntry) TableName() string { return "cache_entries" }

// Expired reports whether the entry's TTL has elapsed at the given time.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
