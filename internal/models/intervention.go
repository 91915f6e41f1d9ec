package models

import (
	"fmt"
	"strings"
	"time"
)

// AnxietyLevel mirrors the class labels produced by the inference worker.
type AnxietyLevel int

const (
	LevelLow AnxietyLevel = iota
	LevelModerate
	LevelHigh
	LevelExtreme
	LevelUnknown
)

func (l AnxietyLevel) String() string {
	switch l {
	case LevelLow:
		return "LOW"
	case LevelModerate:
		return "MODERATE"
	case LevelHigh:
		return "HIGH"
	case LevelExtreme:
		return "EXTREME"
	default:
		return "UNKNOWN"
	}
}

// ParseAnxietyLevel maps a worker label ("Low", "High", ...) to a level.
// Unrecognized labels come back as LevelUnknown.
func ParseAnxietyLevel(s string) AnxietyLevel {
	switch strings.ToLower(s) {
	case "low":
		return LevelLow
	case "moderate":
		return LevelModerate
	case "high":
		return LevelHigh
	case "extreme":
		return LevelExtreme
	default:
		return LevelUnknown
	}
}

// PredictionResult is one scored cycle from the inference worker.
type PredictionResult struct {
	Level             AnxietyLevel
	Confidence        float64
	TriggeredFeatures string
	Timestamp         time.Time
	ShouldIntervene   bool
}

// InterventionType selects the flavor of a surfaced intervention.
type InterventionType int

const (
	InterventionErrorHint InterventionType = iota
	InterventionBreakSuggestion
	InterventionEncouragement
	InterventionSuccessCelebration
)

func (t InterventionType) String() string {
	switch t {
	case InterventionErrorHint:
		return "error_hint"
	case InterventionBreakSuggestion:
		return "break_suggestion"
	case InterventionEncouragement:
		return "encouragement"
	case InterventionSuccessCelebration:
		return "success_celebration"
	default:
		return "unknown"
	}
}

// InterventionSeverity grades how loudly an intervention should surface.
type InterventionSeverity int

const (
	SeverityInfo InterventionSeverity = iota
	SeveritySuggestion
	SeverityWarning
	SeverityCritical
)

// Intervention is one surfaced action, mutated once when the user responds.
type Intervention struct {
	ID                string               `json:"id"`
	Timestamp         time.Time            `json:"timestamp"`
	Level             AnxietyLevel         `json:"level"`
	Type              InterventionType     `json:"type"`
	Severity          InterventionSeverity `json:"severity"`
	Title             string               `json:"title"`
	Message           string               `json:"message"`
	Hint              string               `json:"hint,omitempty"`
	ErrorType         string               `json:"error_type,omitempty"`
	Accepted          bool                 `json:"accepted"`
	Dismissed         bool                 `json:"dismissed"`
	ResponseTime      time.Time            `json:"response_time,omitempty"`
	ReliefScore       int                  `json:"relief_score"`
	Confidence        float64              `json:"confidence"`
	TriggeredFeatures []string             `json:"triggered_features"`
}

// UserFeedback is an append-only rating record for one intervention.
type UserFeedback struct {
	Timestamp      time.Time `json:"timestamp"`
	InterventionID string    `json:"intervention_id"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	Helpful        bool      `json:"helpful"`
}

// UserAction is the tagged response reported by the presentation layer.
type UserAction int

const (
	ActionAccept UserAction = iota
	ActionDismiss
	ActionRequestFeedback
)

func (a UserAction) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionDismiss:
		return "dismiss"
	case ActionRequestFeedback:
		return "request_feedback"
	default:
		return "unknown"
	}
}

// ParseUserAction converts the wire form of an action back to the enum.
func ParseUserAction(s string) (UserAction, error) {
	switch strings.ToLower(s) {
	case "accept":
		return ActionAccept, nil
	case "dismiss":
		return ActionDismiss, nil
	case "request_feedback":
		return ActionRequestFeedback, nil
	default:
		return 0, fmt.Errorf("unknown user action %q", s)
	}
}
