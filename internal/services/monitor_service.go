package services

import (
	"time"

	"go.uber.org/zap"

	"codecalm/internal/bridge"
	"codecalm/internal/gate"
	"codecalm/internal/models"
	"codecalm/internal/repository"
	"codecalm/internal/store"
	"codecalm/internal/telemetry"
)

// Stats verdict thresholds, tuned for the 8-feature scale.
const (
	redVerdictThreshold       = 2.5
	velocityVerdictThreshold  = 0.65
	backspaceVerdictThreshold = 0.3
	varianceVerdictThreshold  = 0.5
)

// SessionStats is the live stats surface for the current session.
type SessionStats struct {
	Monitoring       bool               `json:"monitoring"`
	DetectorState    string             `json:"detector_state"`
	SessionSeconds   float64            `json:"session_seconds"`
	TotalKeystrokes  int                `json:"total_keystrokes"`
	TotalBackspaces  int                `json:"total_backspaces"`
	TotalCompiles    int                `json:"total_compiles"`
	FailedCompiles   int                `json:"failed_compiles"`
	RepeatedErrors   int                `json:"repeated_errors"`
	RealTimeWPM      float64            `json:"real_time_wpm"`
	BaselineWPM      float64            `json:"baseline_wpm"`
	BaselineSessions int                `json:"baseline_sessions"`
	Features         map[string]float64 `json:"features"`
	Verdicts         []string           `json:"verdicts"`
	Interventions    gate.Stats         `json:"interventions"`
}

// SessionSummary describes a finished session.
type SessionSummary struct {
	Session    models.SessionData `json:"-"`
	StartedAt  time.Time          `json:"started_at"`
	EndedAt    time.Time          `json:"ended_at"`
	AverageWPM float64            `json:"average_wpm"`
	CSVPath    string             `json:"csv_path"`
}

// MonitorService coordinates the session lifecycle around the telemetry
// monitor: start/stop, persistence, recalibration and the stats surface.
type MonitorService struct {
	log      *zap.Logger
	monitor  *telemetry.Monitor
	baseline *telemetry.Baseline
	bridge   *bridge.Bridge
	gate     *gate.Gate
	store    *store.SessionLog

	now func() time.Time
}

func NewMonitorService(log *zap.Logger, monitor *telemetry.Monitor, baseline *telemetry.Baseline, br *bridge.Bridge, g *gate.Gate, sl *store.SessionLog) *MonitorService {
	return &MonitorService{
		log:      log.Named("monitor"),
		monitor:  monitor,
		baseline: baseline,
		bridge:   br,
		gate:     g,
		store:    sl,
		now:      time.Now,
	}
}

// StartMonitoring begins a fresh session.
func (s *MonitorService) StartMonitoring() {
	s.monitor.Start()
}

// StopMonitoring ends the session, dumps the event streams to CSV and
// persists the summary row. Persistence failures are logged, not returned;
// the session is already over either way.
func (s *MonitorService) StopMonitoring() SessionSummary {
	wasMonitoring := s.monitor.IsMonitoring()
	wpm := s.monitor.SessionWPM()
	snap := s.monitor.Stop()
	ended := s.now()

	summary := SessionSummary{
		Session:    snap,
		StartedAt:  snap.SessionStart,
		EndedAt:    ended,
		AverageWPM: wpm,
	}

	if !wasMonitoring || (snap.TotalKeystrokes == 0 && snap.TotalCompiles == 0) {
		return summary
	}

	path, err := s.store.Write(snap)
	if err != nil {
		s.log.Warn("session dump failed", zap.Error(err))
	} else {
		summary.CSVPath = path
	}

	if err := repository.SaveSessionRecord(snap, wpm, ended); err != nil {
		s.log.Warn("session record save failed", zap.Error(err))
	}
	return summary
}

// IsMonitoring reports whether a session is active.
func (s *MonitorService) IsMonitoring() bool {
	return s.monitor.IsMonitoring()
}

// IngestKeystroke records one editor keystroke.
func (s *MonitorService) IngestKeystroke(key rune, isBackspace bool, keyCode, modifiers int) {
	s.monitor.RecordKeystroke(key, isBackspace, keyCode, modifiers)
}

// IngestCompile records one compiler run, feeds the outcome to the gate and
// celebrates recoveries.
func (s *MonitorService) IngestCompile(output string, success bool, lang models.Language) {
	ev, recovered := s.monitor.RecordCompile(output, success, lang)
	if ev.Timestamp.IsZero() {
		return
	}
	s.gate.NoteCompile(ev)
	if recovered {
		s.gate.CelebrateSuccess()
	}
}

// Recalibrate discards the personal baseline and the current session data.
func (s *MonitorService) Recalibrate() {
	s.baseline.Reset()
	s.monitor.Reset()
	s.log.Info("Baseline recalibrated")
}

// Stats builds the live stats snapshot, including plain-language verdicts
// for the features that cross their alert thresholds.
func (s *MonitorService) Stats() SessionStats {
	snap := s.monitor.Snapshot()
	features := s.monitor.ExtractFeatures()

	st := SessionStats{
		Monitoring:       s.monitor.IsMonitoring(),
		DetectorState:    s.bridge.State().String(),
		TotalKeystrokes:  snap.TotalKeystrokes,
		TotalBackspaces:  snap.TotalBackspaces,
		TotalCompiles:    snap.TotalCompiles,
		FailedCompiles:   snap.FailedCompiles,
		RepeatedErrors:   snap.RepeatedErrors,
		RealTimeWPM:      snap.RealTimeWPM,
		BaselineWPM:      s.baseline.WPM(),
		BaselineSessions: s.baseline.Sessions(),
		Features:         make(map[string]float64, telemetry.FeatureCount),
		Interventions:    s.gate.Stats(),
	}
	if !snap.SessionStart.IsZero() {
		st.SessionSeconds = s.now().Sub(snap.SessionStart).Seconds()
	}
	for i, label := range telemetry.FeatureLabels {
		st.Features[label] = features[i]
	}
	st.Verdicts = verdicts(features)
	return st
}

func verdicts(f telemetry.FeatureVector) []string {
	var out []string
	if f[telemetry.FeatureREDMetric] > redVerdictThreshold {
		out = append(out, "Frequently repeating the same errors")
	}
	if f[telemetry.FeatureTypingVelocity] < velocityVerdictThreshold {
		out = append(out, "Typing noticeably slower than your baseline")
	}
	if f[telemetry.FeatureBackspaceRate] > backspaceVerdictThreshold {
		out = append(out, "High correction rate")
	}
	if f[telemetry.FeatureKeystrokeVariance] > varianceVerdictThreshold {
		out = append(out, "Erratic typing rhythm")
	}
	return out
}
