package repository

import (
	"time"

	"codecalm/internal/database"
	"codecalm/internal/models"
)

// SaveSessionRecord persists the summary row for a finished session.
func SaveSessionRecord(session models.SessionData, averageWPM float64, endedAt time.Time) error {
	rec := models.SessionRecord{
		StartedAt:       session.SessionStart,
		EndedAt:         endedAt,
		TotalKeystrokes: session.TotalKeystrokes,
		TotalBackspaces: session.TotalBackspaces,
		TotalCompiles:   session.TotalCompiles,
		FailedCompiles:  session.FailedCompiles,
		RepeatedErrors:  session.RepeatedErrors,
		AverageWPM:      averageWPM,
	}
	return database.DB.Create(&rec).Error
}

// RecentSessions returns the newest session rows, most recent first.
func RecentSessions(limit int) ([]models.SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []models.SessionRecord
	err := database.DB.Order("started_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
