package gate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codecalm/internal/models"
	"codecalm/internal/telemetry"
)

type fakePresenter struct {
	mu            sync.Mutex
	interventions []models.Intervention
	notifications []string
}

func (p *fakePresenter) ShowIntervention(iv models.Intervention, options []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interventions = append(p.interventions, iv)
}

func (p *fakePresenter) ShowNotification(title, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, title+": "+message)
}

type fakeRecorder struct {
	mu            sync.Mutex
	interventions int
	feedback      int
	lastFeedback  models.UserFeedback
}

func (r *fakeRecorder) SaveIntervention(models.Intervention) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interventions++
	return nil
}

func (r *fakeRecorder) SaveFeedback(fb models.UserFeedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback++
	r.lastFeedback = fb
	return nil
}

func newTestGate(t *testing.T) (*Gate, *fakePresenter, *fakeRecorder) {
	t.Helper()
	p := &fakePresenter{}
	r := &fakeRecorder{}
	g := New(zap.NewNop(), p, r)
	g.pick = func(int) int { return 0 }

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := base
	g.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
	return g, p, r
}

func highPrediction() models.PredictionResult {
	return models.PredictionResult{
		Level:             models.LevelHigh,
		Confidence:        0.9,
		TriggeredFeatures: "backspace_rate, red_metric",
		ShouldIntervene:   true,
	}
}

func TestDeliverAppliesCooldown(t *testing.T) {
	g, p, _ := newTestGate(t)

	_, ok := g.Deliver(highPrediction())
	require.True(t, ok)

	_, ok = g.Deliver(highPrediction())
	assert.False(t, ok, "second delivery inside the cooldown window")
	assert.Len(t, p.interventions, 1)

	g.SetCooldown(0)
	_, ok = g.Deliver(highPrediction())
	assert.True(t, ok, "cooldown elapsed")
}

func TestDeliverRejections(t *testing.T) {
	g, _, _ := newTestGate(t)

	pred := highPrediction()
	pred.ShouldIntervene = false
	_, ok := g.Deliver(pred)
	assert.False(t, ok, "worker did not call for an intervention")

	pred = highPrediction()
	pred.Confidence = 0.5
	_, ok = g.Deliver(pred)
	assert.False(t, ok, "below the confidence threshold")

	pred = highPrediction()
	pred.Level = models.LevelLow
	_, ok = g.Deliver(pred)
	assert.False(t, ok, "low anxiety never intervenes")

	pred = highPrediction()
	pred.Level = models.LevelModerate
	_, ok = g.Deliver(pred)
	assert.False(t, ok, "moderate stays below the intervention bar")

	pred = highPrediction()
	pred.Level = models.LevelUnknown
	_, ok = g.Deliver(pred)
	assert.False(t, ok, "unknown level never intervenes")

	pred = highPrediction()
	pred.TriggeredFeatures = "  "
	_, ok = g.Deliver(pred)
	assert.False(t, ok, "no evidence means an idle prediction")

	g.SetEnabled(false)
	_, ok = g.Deliver(highPrediction())
	assert.False(t, ok, "gate disabled")
}

func TestErrorHintIntervention(t *testing.T) {
	g, _, _ := newTestGate(t)

	g.NoteCompile(models.CompileEvent{
		Timestamp:  time.Now(),
		Success:    false,
		FirstError: "undefined reference to `helper'",
		ErrorKind:  models.ErrorUndefinedReference,
	})

	iv, ok := g.Deliver(highPrediction())
	require.True(t, ok)
	assert.Equal(t, models.InterventionErrorHint, iv.Type)
	assert.Equal(t, string(models.ErrorUndefinedReference), iv.ErrorType)
	assert.Equal(t, "You might be missing a header file or library link", iv.Hint)
}

func TestErrorHintFromClassifiedCompileOutput(t *testing.T) {
	g, _, _ := newTestGate(t)

	// Real gcc output never contains the hint-table phrase; the hint must
	// come from the classified kind, not from text matching.
	ev := telemetry.ParseCompileOutput(
		"main.c:5:10: error: expected ';' before 'return'", false, models.LanguageC, time.Now())
	require.Equal(t, models.ErrorMissingSemicolon, ev.ErrorKind)
	g.NoteCompile(ev)

	iv, ok := g.Deliver(highPrediction())
	require.True(t, ok)
	assert.Equal(t, models.InterventionErrorHint, iv.Type)
	assert.Equal(t, "You might be missing a semicolon at the end of a statement", iv.Hint)
}

func TestSuccessfulCompileClearsErrorHint(t *testing.T) {
	g, _, _ := newTestGate(t)

	g.NoteCompile(models.CompileEvent{
		Success:    false,
		FirstError: "undefined reference to `helper'",
	})
	g.NoteCompile(models.CompileEvent{Success: true})

	iv, ok := g.Deliver(highPrediction())
	require.True(t, ok)
	assert.NotEqual(t, models.InterventionErrorHint, iv.Type)
}

func TestUnmatchedErrorGetsGeneralHint(t *testing.T) {
	g, _, _ := newTestGate(t)

	g.NoteCompile(models.CompileEvent{
		Success:    false,
		FirstError: "error: something nobody has seen before",
	})

	iv, ok := g.Deliver(highPrediction())
	require.True(t, ok)
	assert.Equal(t, defaultErrorHints()[generalHintKey], iv.Hint)
}

func TestBreakSuggestionOnExtreme(t *testing.T) {
	g, _, _ := newTestGate(t)

	pred := highPrediction()
	pred.Level = models.LevelExtreme
	iv, ok := g.Deliver(pred)
	require.True(t, ok)
	assert.Equal(t, models.InterventionBreakSuggestion, iv.Type)
	assert.Equal(t, defaultRelaxationMessages()[0], iv.Message)
}

func TestEncouragementOnHigh(t *testing.T) {
	g, _, _ := newTestGate(t)

	iv, ok := g.Deliver(highPrediction())
	require.True(t, ok)
	assert.Equal(t, models.InterventionEncouragement, iv.Type)
	assert.Equal(t, defaultEncouragementMessages()[0], iv.Message)
}

func TestHistoryBounded(t *testing.T) {
	g, _, _ := newTestGate(t)
	g.SetCooldown(0)

	seen := make(map[string]bool)
	for i := 0; i < 150; i++ {
		iv, ok := g.Deliver(highPrediction())
		require.True(t, ok)
		assert.False(t, seen[iv.ID], "intervention IDs must be unique")
		seen[iv.ID] = true
	}

	assert.Len(t, g.Recent(0), historyLimit)
	assert.Len(t, g.Recent(10), 10)
}

func TestHandleAction(t *testing.T) {
	g, _, r := newTestGate(t)

	iv, ok := g.Deliver(highPrediction())
	require.True(t, ok)

	require.NoError(t, g.HandleAction(iv.ID, models.ActionAccept))
	got := g.Recent(1)[0]
	assert.True(t, got.Accepted)
	assert.False(t, got.ResponseTime.IsZero())

	require.NoError(t, g.HandleAction(iv.ID, models.ActionDismiss))
	assert.True(t, g.Recent(1)[0].Dismissed)

	assert.Error(t, g.HandleAction("INT_nope", models.ActionAccept))

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 3, r.interventions, "delivery plus two response updates")
}

func TestRecordFeedback(t *testing.T) {
	g, _, r := newTestGate(t)

	iv, ok := g.Deliver(highPrediction())
	require.True(t, ok)

	assert.Error(t, g.RecordFeedback(iv.ID, 0, ""), "rating out of range")

	require.NoError(t, g.RecordFeedback(iv.ID, 4, "helped a lot"))
	assert.Equal(t, 4, g.Recent(1)[0].ReliefScore)

	// Feedback outlives history eviction: an unknown id still appends.
	require.NoError(t, g.RecordFeedback("INT_evicted", 2, ""))
	assert.Equal(t, 4, g.Recent(1)[0].ReliefScore)

	st := g.Stats()
	assert.Equal(t, 1, st.Total)
	assert.InDelta(t, 4.0, st.AvgReliefScore, 1e-9)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 2, r.feedback)
}

func TestFeedbackHelpfulThreshold(t *testing.T) {
	g, _, r := newTestGate(t)

	iv, ok := g.Deliver(highPrediction())
	require.True(t, ok)

	persisted := func() models.UserFeedback {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.lastFeedback
	}

	require.NoError(t, g.RecordFeedback(iv.ID, 3, "meh"))
	assert.False(t, persisted().Helpful, "a middling rating is not helpful")

	require.NoError(t, g.RecordFeedback(iv.ID, 4, "better"))
	assert.True(t, persisted().Helpful)
}

func TestCelebrateSuccess(t *testing.T) {
	g, p, _ := newTestGate(t)

	g.CelebrateSuccess()
	assert.Len(t, p.notifications, 1)

	g.SetShowNotifications(false)
	g.CelebrateSuccess()
	assert.Len(t, p.notifications, 1, "notifications disabled")
}

func TestStatsCountsResponses(t *testing.T) {
	g, _, _ := newTestGate(t)
	g.SetCooldown(0)

	a, _ := g.Deliver(highPrediction())
	b, _ := g.Deliver(highPrediction())
	g.Deliver(highPrediction())

	require.NoError(t, g.HandleAction(a.ID, models.ActionAccept))
	require.NoError(t, g.HandleAction(b.ID, models.ActionDismiss))

	st := g.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Accepted)
	assert.Equal(t, 1, st.Dismissed)
}
