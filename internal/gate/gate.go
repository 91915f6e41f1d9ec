package gate

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"codecalm/internal/models"
)

const (
	defaultAnxietyThreshold = 0.7
	defaultCooldown         = 300 * time.Second

	// historyLimit bounds the in-memory intervention history.
	historyLimit = 100
)

// Recorder persists interventions and feedback. A nil Recorder disables
// persistence without affecting delivery.
type Recorder interface {
	SaveIntervention(iv models.Intervention) error
	SaveFeedback(fb models.UserFeedback) error
}

// Stats summarizes delivered interventions for the stats surface.
type Stats struct {
	Total          int     `json:"total"`
	Accepted       int     `json:"accepted"`
	Dismissed      int     `json:"dismissed"`
	AvgReliefScore float64 `json:"avg_relief_score"`
}

// Gate decides whether a prediction becomes a user-facing intervention,
// applies the cooldown, and tracks responses.
type Gate struct {
	log       *zap.Logger
	presenter Presenter
	recorder  Recorder

	mu                sync.Mutex
	enabled           bool
	showNotifications bool
	threshold         float64
	cooldown          time.Duration
	lastIntervention  time.Time

	relaxation    []string
	encouragement []string
	success       []string
	hints         map[string]string

	history  []models.Intervention
	feedback []models.UserFeedback

	lastError     models.CompileEvent
	lastErrorSeen bool

	counter atomic.Uint64
	now     func() time.Time
	pick    func(n int) int
}

func New(log *zap.Logger, presenter Presenter, recorder Recorder) *Gate {
	return &Gate{
		log:               log.Named("gate"),
		presenter:         presenter,
		recorder:          recorder,
		enabled:           true,
		showNotifications: true,
		threshold:         defaultAnxietyThreshold,
		cooldown:          defaultCooldown,
		relaxation:        defaultRelaxationMessages(),
		encouragement:     defaultEncouragementMessages(),
		success:           defaultSuccessMessages(),
		hints:             defaultErrorHints(),
		now:               time.Now,
		pick:              rand.Intn,
	}
}

// SetEnabled turns intervention delivery on or off.
func (g *Gate) SetEnabled(on bool) {
	g.mu.Lock()
	g.enabled = on
	g.mu.Unlock()
}

// SetShowNotifications controls the lightweight notification surface.
func (g *Gate) SetShowNotifications(on bool) {
	g.mu.Lock()
	g.showNotifications = on
	g.mu.Unlock()
}

// SetThreshold replaces the confidence threshold. Out-of-range values
// are ignored.
func (g *Gate) SetThreshold(t float64) {
	if t <= 0 || t > 1 {
		return
	}
	g.mu.Lock()
	g.threshold = t
	g.mu.Unlock()
}

// SetCooldown replaces the minimum spacing between interventions.
func (g *Gate) SetCooldown(d time.Duration) {
	if d < 0 {
		return
	}
	g.mu.Lock()
	g.cooldown = d
	g.mu.Unlock()
}

// SetMessages replaces any non-empty message pool.
func (g *Gate) SetMessages(relaxation, encouragement, success []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(relaxation) > 0 {
		g.relaxation = relaxation
	}
	if len(encouragement) > 0 {
		g.encouragement = encouragement
	}
	if len(success) > 0 {
		g.success = success
	}
}

// SetHints merges custom error hints over the defaults.
func (g *Gate) SetHints(hints map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, v := range hints {
		g.hints[strings.ToLower(k)] = v
	}
}

// NoteCompile feeds compile outcomes into the gate so error-hint
// interventions can reference the most recent failure.
func (g *Gate) NoteCompile(ev models.CompileEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ev.Success {
		g.lastErrorSeen = false
		return
	}
	g.lastError = ev
	g.lastErrorSeen = true
}

// Deliver evaluates one prediction and, if it passes the gate, builds an
// intervention, presents it, and records it. Returns the intervention and
// true when one was delivered.
func (g *Gate) Deliver(pred models.PredictionResult) (models.Intervention, bool) {
	g.mu.Lock()
	if !g.shouldInterveneLocked(pred) {
		g.mu.Unlock()
		return models.Intervention{}, false
	}

	now := g.now()
	iv := g.buildLocked(pred, now)
	g.lastIntervention = now
	g.history = append(g.history, iv)
	if len(g.history) > historyLimit {
		g.history = g.history[len(g.history)-historyLimit:]
	}
	g.mu.Unlock()

	g.presenter.ShowIntervention(iv, []string{"Got it", "Dismiss", "Tell me more"})
	g.persist(iv)

	g.log.Info("intervention delivered",
		zap.String("id", iv.ID),
		zap.String("type", iv.Type.String()),
		zap.String("level", iv.Level.String()),
		zap.Float64("confidence", iv.Confidence))
	return iv, true
}

func (g *Gate) shouldInterveneLocked(pred models.PredictionResult) bool {
	if !g.enabled {
		return false
	}
	if !pred.ShouldIntervene {
		return false
	}
	if !g.lastIntervention.IsZero() && g.now().Sub(g.lastIntervention) < g.cooldown {
		return false
	}
	if pred.Confidence < g.threshold {
		return false
	}
	if pred.Level != models.LevelHigh && pred.Level != models.LevelExtreme {
		return false
	}
	// No evidence means an idle or no-signal prediction.
	if strings.TrimSpace(pred.TriggeredFeatures) == "" {
		return false
	}
	return true
}

func (g *Gate) buildLocked(pred models.PredictionResult, now time.Time) models.Intervention {
	iv := models.Intervention{
		ID:         g.nextID(now),
		Timestamp:  now,
		Level:      pred.Level,
		Confidence: pred.Confidence,
	}
	if pred.TriggeredFeatures != "" {
		iv.TriggeredFeatures = strings.Split(pred.TriggeredFeatures, ",")
		for i := range iv.TriggeredFeatures {
			iv.TriggeredFeatures[i] = strings.TrimSpace(iv.TriggeredFeatures[i])
		}
	}

	switch {
	case g.lastErrorSeen && g.lastError.FirstError != "":
		iv.Type = models.InterventionErrorHint
		iv.Severity = models.SeveritySuggestion
		iv.Title = "Stuck on an error?"
		iv.ErrorType = string(g.lastError.ErrorKind)
		iv.Hint = g.hintForLocked(g.lastError.ErrorKind)
		iv.Message = iv.Hint
	case pred.Level >= models.LevelExtreme:
		iv.Type = models.InterventionBreakSuggestion
		iv.Severity = models.SeverityWarning
		iv.Title = "Time for a break"
		iv.Message = g.relaxation[g.pick(len(g.relaxation))]
	default:
		iv.Type = models.InterventionEncouragement
		iv.Severity = models.SeverityInfo
		iv.Title = "Keep going"
		iv.Message = g.encouragement[g.pick(len(g.encouragement))]
	}
	return iv
}

// hintForLocked resolves the hint for a classified error kind. Table keys
// are the kind labels with spaces instead of underscores; anything without
// a row falls back to the general hint.
func (g *Gate) hintForLocked(kind models.ErrorKind) string {
	key := strings.ReplaceAll(string(kind), "_", " ")
	if hint, ok := g.hints[key]; ok && key != generalHintKey {
		return hint
	}
	return g.hints[generalHintKey]
}

func (g *Gate) nextID(now time.Time) string {
	return fmt.Sprintf("INT_%s_%d", now.Format("20060102_150405"), g.counter.Add(1))
}

// CelebrateSuccess surfaces a short note when a failing compile finally
// succeeds. It bypasses the cooldown and never lands in the history.
func (g *Gate) CelebrateSuccess() {
	g.mu.Lock()
	if !g.enabled || !g.showNotifications {
		g.mu.Unlock()
		return
	}
	msg := g.success[g.pick(len(g.success))]
	g.mu.Unlock()

	g.presenter.ShowNotification("Nice work!", msg)
}

// HandleAction applies the user's response to a delivered intervention.
func (g *Gate) HandleAction(id string, action models.UserAction) error {
	g.mu.Lock()
	iv := g.findLocked(id)
	if iv == nil {
		g.mu.Unlock()
		return fmt.Errorf("unknown intervention %q", id)
	}

	now := g.now()
	switch action {
	case models.ActionAccept:
		iv.Accepted = true
		iv.ResponseTime = now
	case models.ActionDismiss:
		iv.Dismissed = true
		iv.ResponseTime = now
	case models.ActionRequestFeedback:
		iv.ResponseTime = now
	default:
		g.mu.Unlock()
		return fmt.Errorf("unknown action %d", action)
	}
	updated := *iv
	g.mu.Unlock()

	g.persist(updated)
	g.log.Info("intervention response",
		zap.String("id", id),
		zap.String("action", action.String()))
	return nil
}

// RecordFeedback appends a rating. Feedback is kept even when no matching
// intervention remains in the history; the relief score is only updated
// when one does.
func (g *Gate) RecordFeedback(id string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating %d out of range", rating)
	}

	g.mu.Lock()
	if iv := g.findLocked(id); iv != nil {
		iv.ReliefScore = rating
	}
	fb := models.UserFeedback{
		Timestamp:      g.now(),
		InterventionID: id,
		Rating:         rating,
		Comment:        comment,
		Helpful:        rating >= 4,
	}
	g.feedback = append(g.feedback, fb)
	g.mu.Unlock()

	if g.recorder != nil {
		if err := g.recorder.SaveFeedback(fb); err != nil {
			g.log.Warn("save feedback", zap.Error(err))
		}
	}
	return nil
}

// Recent returns delivered interventions, newest last, capped at limit.
// limit <= 0 returns the whole retained history.
func (g *Gate) Recent(limit int) []models.Intervention {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Intervention, n)
	copy(out, g.history[len(g.history)-n:])
	return out
}

// Stats aggregates responses over the retained history.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := Stats{Total: len(g.history)}
	var scored, sum int
	for i := range g.history {
		iv := &g.history[i]
		if iv.Accepted {
			st.Accepted++
		}
		if iv.Dismissed {
			st.Dismissed++
		}
		if iv.ReliefScore > 0 {
			scored++
			sum += iv.ReliefScore
		}
	}
	if scored > 0 {
		st.AvgReliefScore = float64(sum) / float64(scored)
	}
	return st
}

func (g *Gate) findLocked(id string) *models.Intervention {
	for i := range g.history {
		if g.history[i].ID == id {
			return &g.history[i]
		}
	}
	return nil
}

func (g *Gate) persist(iv models.Intervention) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.SaveIntervention(iv); err != nil {
		g.log.Warn("save intervention", zap.Error(err))
	}
}
