package telemetry

import (
	"sync"

	"codecalm/internal/models"
)

// baselineAlpha is the EMA learning rate applied when a session ends.
const baselineAlpha = 0.1

// Baseline holds the user's historical session norms, used to normalize the
// current session's typing velocity. The first finished session seeds it
// verbatim; every later session blends in via EMA. It is shared across
// sessions and guarded by its own lock.
type Baseline struct {
	mu sync.Mutex

	hasBaseline     bool
	totalKeystrokes float64
	totalBackspaces float64
	totalCompiles   float64
	failedCompiles  float64
	averageWPM      float64
	sessions        int
}

func NewBaseline() *Baseline {
	return &Baseline{}
}

// Update folds a finished session into the baseline.
func (b *Baseline) Update(s models.SessionData, sessionWPM float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasBaseline {
		b.totalKeystrokes = float64(s.TotalKeystrokes)
		b.totalBackspaces = float64(s.TotalBackspaces)
		b.totalCompiles = float64(s.TotalCompiles)
		b.failedCompiles = float64(s.FailedCompiles)
		b.averageWPM = sessionWPM
		b.hasBaseline = true
		b.sessions = 1
		return
	}

	b.totalKeystrokes = ema(b.totalKeystrokes, float64(s.TotalKeystrokes))
	b.totalBackspaces = ema(b.totalBackspaces, float64(s.TotalBackspaces))
	b.totalCompiles = ema(b.totalCompiles, float64(s.TotalCompiles))
	b.failedCompiles = ema(b.failedCompiles, float64(s.FailedCompiles))
	b.averageWPM = ema(b.averageWPM, sessionWPM)
	b.sessions++
}

func ema(old, sample float64) float64 {
	return (1-baselineAlpha)*old + baselineAlpha*sample
}

// WPM returns the baseline typing speed, or 0 when no baseline exists yet.
func (b *Baseline) WPM() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasBaseline {
		return 0
	}
	return b.averageWPM
}

// TotalKeystrokes reports the smoothed per-session keystroke count.
func (b *Baseline) TotalKeystrokes() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalKeystrokes
}

// Sessions reports how many sessions have been folded in.
func (b *Baseline) Sessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions
}

// Reset clears the baseline. Only explicit recalibration calls this.
func (b *Baseline) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasBaseline = false
	b.totalKeystrokes = 0
	b.totalBackspaces = 0
	b.totalCompiles = 0
	b.failedCompiles = 0
	b.averageWPM = 0
	b.sessions = 0
}
