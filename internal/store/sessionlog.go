// Package store writes finished monitoring sessions to per-session CSV
// files under a data directory.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"codecalm/internal/models"
)

var csvHeader = []string{
	"timestamp", "type", "key", "is_backspace",
	"compile_success", "error_count", "warning_count", "error_type", "language",
}

// SessionFilename names the dump file for a session that started at t.
func SessionFilename(t time.Time) string {
	return "session_" + t.Format("20060102_150405") + ".csv"
}

// SessionLog dumps session event streams as CSV.
type SessionLog struct {
	log     *zap.Logger
	dataDir string
}

func NewSessionLog(log *zap.Logger, dataDir string) *SessionLog {
	return &SessionLog{log: log.Named("store"), dataDir: dataDir}
}

// Write merges the session's keystroke and compile streams in timestamp
// order and writes them to a new CSV file. Returns the file path.
func (s *SessionLog) Write(session models.SessionData) (string, error) {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(s.dataDir, SessionFilename(session.SessionStart))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create session file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	// Two-pointer merge; both streams are already in arrival order.
	ks, cs := session.Keystrokes, session.Compiles
	i, j := 0, 0
	for i < len(ks) || j < len(cs) {
		if j >= len(cs) || (i < len(ks) && !ks[i].Timestamp.After(cs[j].Timestamp)) {
			if err := w.Write(keystrokeRow(ks[i])); err != nil {
				return "", fmt.Errorf("write row: %w", err)
			}
			i++
			continue
		}
		if err := w.Write(compileRow(cs[j])); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
		j++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close session file: %w", err)
	}

	s.log.Info("session written",
		zap.String("path", path),
		zap.Int("keystrokes", len(ks)),
		zap.Int("compiles", len(cs)))
	return path, nil
}

func keystrokeRow(ev models.KeystrokeEvent) []string {
	return []string{
		ev.Timestamp.Format(time.RFC3339Nano),
		"keystroke",
		string(ev.Key),
		strconv.FormatBool(ev.IsBackspace),
		"", "", "", "", "",
	}
}

func compileRow(ev models.CompileEvent) []string {
	return []string{
		ev.Timestamp.Format(time.RFC3339Nano),
		"compile",
		"", "",
		strconv.FormatBool(ev.Success),
		strconv.Itoa(ev.ErrorCount),
		strconv.Itoa(ev.WarningCount),
		string(ev.ErrorKind),
		string(ev.Language),
	}
}
