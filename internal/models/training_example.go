package models

import "time"

// TrainingExample is a deidentified (prompt, response) pair captured on
// every successful cache write, tagged for later dataset export. UserID is
// recorded so right-to-be-forgotten deletion can cover derived data.
// QualityScore and Reviewed are set by later human curation only.
type TrainingExample struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Prompt       string    `gorm:"type:text" json:"prompt"`
	Response     string    `gorm:"type:text" json:"response"`
	Model        string    `gorm:"size:100" json:"model"`
	Metadata     string    `gorm:"type:text" json:"metadata"`
	Tags         string    `gorm:"size:500;index" json:"tags"` // JSON array of tag strings
	QualityScore *float64  `json:"quality_score"`
	Reviewed     bool      `gorm:"default:false;index" json:"reviewed"`
	UserID       uint      `gorm:"index" json:"user_id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (TrainingExample) TableName() string { return "training_examples" }
