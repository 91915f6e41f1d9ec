package repository

import (
	"github.com/lib/pq"
	"gorm.io/gorm/clause"

	"codecalm/internal/database"
	"codecalm/internal/models"
)

// SaveIntervention upserts an intervention row keyed by its public ID, so
// the same row is reused when the user's response updates the intervention.
func SaveIntervention(iv models.Intervention) error {
	rec := models.InterventionRecord{
		InterventionID:    iv.ID,
		Timestamp:         iv.Timestamp,
		Level:             iv.Level.String(),
		Type:              iv.Type.String(),
		Title:             iv.Title,
		Message:           iv.Message,
		Hint:              iv.Hint,
		ErrorType:         iv.ErrorType,
		Confidence:        iv.Confidence,
		TriggeredFeatures: pq.StringArray(iv.TriggeredFeatures),
		Accepted:          iv.Accepted,
		Dismissed:         iv.Dismissed,
		ReliefScore:       iv.ReliefScore,
	}
	return database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "intervention_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"accepted", "dismissed", "relief_score", "updated_at",
		}),
	}).Create(&rec).Error
}

// SaveFeedback appends one feedback row.
func SaveFeedback(fb models.UserFeedback) error {
	rec := models.FeedbackRecord{
		InterventionID: fb.InterventionID,
		Rating:         fb.Rating,
		Comment:        fb.Comment,
		Helpful:        fb.Helpful,
	}
	return database.DB.Create(&rec).Error
}

// RecentInterventions returns the newest intervention rows, most recent first.
func RecentInterventions(limit int) ([]models.InterventionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.InterventionRecord
	err := database.DB.Order("timestamp DESC").Limit(limit).Find(&out).Error
	return out, err
}

// GateRecorder adapts the package-level persistence functions to the
// intervention gate's Recorder interface.
type GateRecorder struct{}

func (GateRecorder) SaveIntervention(iv models.Intervention) error { return SaveIntervention(iv) }
func (GateRecorder) SaveFeedback(fb models.UserFeedback) error     { return SaveFeedback(fb) }
