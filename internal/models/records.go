package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionRecord is the durable row written when a monitoring session ends.
type SessionRecord struct {
	ID              uint `gorm:"primaryKey"`
	StartedAt       time.Time
	EndedAt         time.Time
	TotalKeystrokes int
	TotalBackspaces int
	TotalCompiles   int
	FailedCompiles  int
	RepeatedErrors  int
	AverageWPM      float64
	CreatedAt       time.Time
}

// InterventionRecord persists a surfaced intervention and, later, the
// user's response to it.
type InterventionRecord struct {
	ID                uint   `gorm:"primaryKey"`
	InterventionID    string `gorm:"uniqueIndex"`
	Timestamp         time.Time
	Level             string
	Type              string
	Title             string
	Message           string
	Hint              string
	ErrorType         string
	Confidence        float64
	TriggeredFeatures pq.StringArray `gorm:"type:text[]"`
	Accepted          bool
	Dismissed         bool
	ReliefScore       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FeedbackRecord is written immediately when feedback arrives; it is never
// updated afterward.
type FeedbackRecord struct {
	ID             uint   `gorm:"primaryKey"`
	InterventionID string `gorm:"index"`
	Rating         int
	Comment        string
	Helpful        bool
	CreatedAt      time.Time
}
