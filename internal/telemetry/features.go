package telemetry

import (
	"math"
	"time"
)

// FeatureCount is the fixed width of the vector sent to the worker.
const FeatureCount = 8

// Feature vector slots, in the order the model was trained on.
const (
	FeatureTypingVelocity = iota
	FeatureKeystrokeVariance
	FeatureBackspaceRate
	FeatureREDMetric
	FeatureCompileFailureRate
	FeatureFocusSwitches
	FeatureIdleRatio
	FeatureUndoRedoRate
)

// FeatureLabels names each slot for logging and stats output.
var FeatureLabels = [FeatureCount]string{
	"typing_velocity",
	"keystroke_variance",
	"backspace_rate",
	"red_metric",
	"compile_failure_rate",
	"focus_switches",
	"idle_ratio",
	"undo_redo_rate",
}

// FeatureVector is a pure snapshot; it is computed on demand and never
// stored.
type FeatureVector [FeatureCount]float64

const (
	// assumedBaselineWPM normalizes typing velocity before any personal
	// baseline exists.
	assumedBaselineWPM = 40.0

	// thinkingPause excludes long gaps from rhythm variance; a pause this
	// long is deliberation, not typing rhythm.
	thinkingPause = 2 * time.Second

	// focusSwitchGap and idleGap classify inactivity stretches.
	focusSwitchGap = 30 * time.Second
	idleGap        = 5 * time.Second

	// backspaceRunLength is the run size counted as an undo burst.
	backspaceRunLength = 3

	minVarianceIntervals = 5
)

// ExtractFeatures computes the 8-feature vector from the current session and
// the baseline. Insufficient data never errors; each feature degrades to its
// documented default.
func (m *Monitor) ExtractFeatures() FeatureVector {
	m.mu.Lock()
	defer m.mu.Unlock()

	return FeatureVector{
		FeatureTypingVelocity:     m.typingVelocity(),
		FeatureKeystrokeVariance:  m.keystrokeVariance(),
		FeatureBackspaceRate:      m.backspaceRate(),
		FeatureREDMetric:          m.redMetric(),
		FeatureCompileFailureRate: m.compileFailureRate(),
		FeatureFocusSwitches:      m.focusSwitches(),
		FeatureIdleRatio:          m.idleRatio(),
		FeatureUndoRedoRate:       m.undoRedoRate(),
	}
}

// typingVelocity is current WPM normalized against the user's baseline
// (assumed 40 WPM until one exists). 1.0 means "typing at the usual speed";
// also the default below 10 keystrokes.
func (m *Monitor) typingVelocity() float64 {
	if m.session.TotalKeystrokes < minKeystrokes {
		return 1.0
	}

	wpm := m.lifetimeWPM()
	base := m.baseline.WPM()
	if base <= 0 {
		base = assumedBaselineWPM
	}
	return wpm / base
}

// keystrokeVariance is the coefficient of variation of inter-keystroke
// intervals in the rolling window, thinking pauses excluded. Defaults to 0.5
// with fewer than 5 qualifying intervals.
func (m *Monitor) keystrokeVariance() float64 {
	window := m.session.RollingKeystrokes

	var intervals []float64
	for i := 1; i < len(window); i++ {
		gap := window[i].Timestamp.Sub(window[i-1].Timestamp)
		if gap < thinkingPause {
			intervals = append(intervals, gap.Seconds())
		}
	}
	if len(intervals) < minVarianceIntervals {
		return 0.5
	}

	var sum float64
	for _, v := range intervals {
		sum += v
	}
	mean := sum / float64(len(intervals))
	if mean == 0 {
		return 0.5
	}

	var variance float64
	for _, v := range intervals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(intervals))
	return math.Sqrt(variance) / mean
}

// backspaceRate is the rolling-window backspace fraction when warmed up,
// else the lifetime fraction. 0 below 10 keystrokes.
func (m *Monitor) backspaceRate() float64 {
	s := &m.session
	if s.TotalKeystrokes < minKeystrokes {
		return 0
	}
	// Warm-up alone decides which rate applies; a warmed window with zero
	// backspaces is a real measurement, not a missing one.
	if len(s.RollingKeystrokes) > realTimeWarmup {
		return s.RealTimeBackspaceRate
	}
	return float64(s.TotalBackspaces) / float64(s.TotalKeystrokes)
}

// redMetric is the repeated-error density scaled to 0..10. 0 with fewer than
// two recorded errors.
func (m *Monitor) redMetric() float64 {
	s := &m.session
	if len(s.ErrorSequence) < 2 {
		return 0
	}
	return float64(s.RepeatedErrors) / float64(len(s.ErrorSequence)) * 10
}

func (m *Monitor) compileFailureRate() float64 {
	s := &m.session
	if s.TotalCompiles == 0 {
		return 0
	}
	return float64(s.FailedCompiles) / float64(s.TotalCompiles)
}

// focusSwitches counts gaps over 30s between consecutive keystrokes across
// the full history.
func (m *Monitor) focusSwitches() float64 {
	ks := m.session.Keystrokes
	switches := 0
	for i := 1; i < len(ks); i++ {
		if ks[i].Timestamp.Sub(ks[i-1].Timestamp) > focusSwitchGap {
			switches++
		}
	}
	return float64(switches)
}

// idleRatio is the fraction of session time spent in gaps over 5s.
func (m *Monitor) idleRatio() float64 {
	s := &m.session
	elapsed := m.now().Sub(s.SessionStart).Seconds()
	if elapsed <= 0 {
		return 0
	}

	var idle float64
	ks := s.Keystrokes
	for i := 1; i < len(ks); i++ {
		gap := ks[i].Timestamp.Sub(ks[i-1].Timestamp)
		if gap > idleGap {
			idle += gap.Seconds()
		}
	}
	return idle / elapsed
}

// undoRedoRate proxies undo activity by counting rolling-window runs of more
// than 3 consecutive backspaces, per window entry, scaled by 10.
func (m *Monitor) undoRedoRate() float64 {
	window := m.session.RollingKeystrokes
	if len(window) == 0 {
		return 0
	}

	runs, run := 0, 0
	for _, ev := range window {
		if ev.IsBackspace {
			run++
			continue
		}
		if run > backspaceRunLength {
			runs++
		}
		run = 0
	}
	if run > backspaceRunLength {
		runs++
	}
	return float64(runs) / float64(len(window)) * 10
}
