package telemetry

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"codecalm/internal/models"
)

const (
	// rollingWindowSize bounds the FIFO window of recent keystrokes used
	// for real-time metrics.
	rollingWindowSize = 100

	// minKeystrokes gates all keystroke-derived metrics; below it the
	// extractor falls back to documented defaults.
	minKeystrokes = 10

	// realTimeWarmup is how many window entries are needed before the
	// rolling WPM / backspace rate are recomputed.
	realTimeWarmup = 10

	charsPerWord = 5.0
)

// Monitor ingests raw editor events, maintains the session aggregate and
// derives the feature vector. Producers (editor callbacks) and the periodic
// sampler may call concurrently; every read and write of the session goes
// through one lock so multi-field updates stay atomic.
type Monitor struct {
	log      *zap.Logger
	baseline *Baseline

	monitoring atomic.Bool

	mu      sync.Mutex
	session models.SessionData

	langMu        sync.Mutex
	disabledLangs map[models.Language]bool

	now func() time.Time
}

func NewMonitor(log *zap.Logger, baseline *Baseline) *Monitor {
	return &Monitor{
		log:           log,
		baseline:      baseline,
		disabledLangs: make(map[models.Language]bool),
		now:           time.Now,
	}
}

// SetLanguageEnabled toggles compile-event recording for one language.
func (m *Monitor) SetLanguageEnabled(lang models.Language, enabled bool) {
	m.langMu.Lock()
	defer m.langMu.Unlock()
	m.disabledLangs[lang] = !enabled
}

func (m *Monitor) languageEnabled(lang models.Language) bool {
	m.langMu.Lock()
	defer m.langMu.Unlock()
	return !m.disabledLangs[lang]
}

// IsMonitoring reports whether events are currently being recorded.
func (m *Monitor) IsMonitoring() bool {
	return m.monitoring.Load()
}

// Start begins a fresh monitoring session. Calling it while already
// monitoring is a no-op.
func (m *Monitor) Start() {
	if !m.monitoring.CompareAndSwap(false, true) {
		return
	}
	now := m.now()
	m.mu.Lock()
	m.session = models.SessionData{SessionStart: now, LastActivity: now}
	m.mu.Unlock()
	m.log.Info("Session monitoring started")
}

// Stop ends the session, folds it into the baseline and returns a snapshot
// of the finished session. A second Stop returns the same snapshot without
// touching the baseline again.
func (m *Monitor) Stop() models.SessionData {
	if !m.monitoring.CompareAndSwap(true, false) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.session.Clone()
	}

	m.mu.Lock()
	snap := m.session.Clone()
	wpm := m.lifetimeWPM()
	m.mu.Unlock()

	m.baseline.Update(snap, wpm)
	m.log.Info("Session monitoring stopped",
		zap.Int("keystrokes", snap.TotalKeystrokes),
		zap.Int("compiles", snap.TotalCompiles),
		zap.Float64("wpm", wpm))
	return snap
}

// Reset discards the current session without updating the baseline. Used by
// recalibration.
func (m *Monitor) Reset() {
	now := m.now()
	m.mu.Lock()
	m.session = models.SessionData{SessionStart: now, LastActivity: now}
	m.mu.Unlock()
	m.log.Info("Session data reset")
}

// Snapshot returns a copy of the current session state.
func (m *Monitor) Snapshot() models.SessionData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

// RecordKeystroke ingests one keystroke. Cheap and non-blocking; safe from
// the editor's UI thread. No-op while not monitoring.
func (m *Monitor) RecordKeystroke(key rune, isBackspace bool, keyCode, modifiers int) {
	if !m.monitoring.Load() {
		return
	}

	ev := models.KeystrokeEvent{
		Timestamp:   m.now(),
		Key:         key,
		IsBackspace: isBackspace,
		KeyCode:     keyCode,
		Modifiers:   modifiers,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := &m.session
	s.Keystrokes = append(s.Keystrokes, ev)
	s.RollingKeystrokes = append(s.RollingKeystrokes, ev)
	if len(s.RollingKeystrokes) > rollingWindowSize {
		s.RollingKeystrokes = s.RollingKeystrokes[1:]
	}

	s.TotalKeystrokes++
	if isBackspace {
		s.TotalBackspaces++
	}
	s.LastActivity = ev.Timestamp

	if len(s.RollingKeystrokes) > realTimeWarmup {
		m.calculateRealTimeMetrics()
	}
}

// calculateRealTimeMetrics recomputes the rolling-window WPM and backspace
// rate. Caller holds the lock.
func (m *Monitor) calculateRealTimeMetrics() {
	window := m.session.RollingKeystrokes
	span := window[len(window)-1].Timestamp.Sub(window[0].Timestamp)
	if span > 0 {
		words := float64(len(window)) / charsPerWord
		m.session.RealTimeWPM = words / span.Minutes()
	}

	backspaces := 0
	for _, ev := range window {
		if ev.IsBackspace {
			backspaces++
		}
	}
	m.session.RealTimeBackspaceRate = float64(backspaces) / float64(len(window))
}

// RecordCompile ingests one compiler run. Classification and normalization
// happen here, once. The returned flag is true when this success directly
// follows a failed compile (a recovery, eligible for a success message).
func (m *Monitor) RecordCompile(output string, success bool, lang models.Language) (ev models.CompileEvent, recovered bool) {
	if !m.monitoring.Load() || !m.languageEnabled(lang) {
		return models.CompileEvent{}, false
	}

	ev = ParseCompileOutput(output, success, lang, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	s := &m.session
	if success && len(s.Compiles) > 0 && !s.Compiles[len(s.Compiles)-1].Success {
		recovered = true
	}

	s.Compiles = append(s.Compiles, ev)
	s.TotalCompiles++
	if !success {
		s.FailedCompiles++
		if ev.FirstError != "" {
			sig := NormalizeErrorMessage(ev.FirstError)
			for _, prev := range s.ErrorSequence {
				if prev == sig {
					s.RepeatedErrors++
					break
				}
			}
			s.ErrorSequence = append(s.ErrorSequence, sig)
		}
	}
	s.LastActivity = ev.Timestamp

	m.log.Debug("Compile recorded",
		zap.Bool("success", success),
		zap.String("language", string(lang)),
		zap.Int("errors", ev.ErrorCount),
		zap.String("kind", string(ev.ErrorKind)))
	return ev, recovered
}

// SessionWPM returns the whole-session words-per-minute figure.
func (m *Monitor) SessionWPM() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lifetimeWPM()
}

// lifetimeWPM derives words-per-minute from the whole session. Caller holds
// the lock. Prefers the rolling-window figure when warmed up.
func (m *Monitor) lifetimeWPM() float64 {
	s := &m.session
	if s.RealTimeWPM > 0 {
		return s.RealTimeWPM
	}
	elapsed := m.now().Sub(s.SessionStart).Minutes()
	if elapsed <= 0 || s.TotalKeystrokes == 0 {
		return 0
	}
	return float64(s.TotalKeystrokes) / charsPerWord / elapsed
}
