package models

import "time"

// Analytics event types
const (
	EventHit  = "hit"
	EventMiss = "miss"
)

// Cache miss reasons
const (
	MissNotFound   = "not_found"
	MissExpired    = "expired"
	MissCorrupt    = "corrupt"
	MissStoreError = "store_error"
)

// AnalyticsEvent records one cache lookup. Only a short prefix of the
// cache key is stored to limit correlatable detail in analytics rows.
// Rows are append-only and aged out with the rolling statistics window.
type AnalyticsEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventType string    `gorm:"size:10;index;not null" json:"event_type"` // hit, miss
	KeyPrefix string    `gorm:"size:16;index" json:"key_prefix"`
	Savings   float64   `json:"savings"`                // hit events only
	Reason    string    `gorm:"size:30" json:"reason"`  // miss events only
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AnalyticsEvent) TableName() string { return "analytics_events" }
