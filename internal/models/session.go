package models

import "time"

// Language tags the toolchain a compile event came from.
type Language string

const (
	LanguageC   Language = "c"
	LanguageCPP Language = "cpp"
)

// ErrorKind is the classified category of a compile error.
type ErrorKind string

const (
	ErrorUnknown            ErrorKind = "unknown_error"
	ErrorSyntax             ErrorKind = "syntax_error"
	ErrorMissingSemicolon   ErrorKind = "missing_semicolon"
	ErrorUndefinedReference ErrorKind = "undefined_reference"
	ErrorMissingHeader      ErrorKind = "missing_header"
	ErrorSegfault           ErrorKind = "segmentation_fault"
	ErrorNullPointer        ErrorKind = "null_pointer"
	ErrorArrayBounds        ErrorKind = "array_bounds"
	ErrorUninitialized      ErrorKind = "uninitialized"
	ErrorMemoryLeak         ErrorKind = "memory_leak"
	ErrorBufferOverflow     ErrorKind = "buffer_overflow"
	ErrorTypeMismatch       ErrorKind = "type_mismatch"
	ErrorNoMatchingFunction ErrorKind = "no_matching_function"
	ErrorAmbiguous          ErrorKind = "ambiguous"
	ErrorRedefinition       ErrorKind = "redefinition"
	ErrorUndeclared         ErrorKind = "undeclared"
	ErrorIncompleteType     ErrorKind = "incomplete_type"
)

// KeystrokeEvent is a single editor keystroke. Immutable once recorded.
type KeystrokeEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Key         rune      `json:"key"`
	IsBackspace bool      `json:"is_backspace"`
	KeyCode     int       `json:"key_code"`
	Modifiers   int       `json:"modifiers"`
}

// CompileEvent is one compiler run. The derived fields (counts, first error,
// classification) are computed once at ingestion and never recomputed.
type CompileEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	Output       string    `json:"output"`
	Success      bool      `json:"success"`
	Language     Language  `json:"language"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
	FirstError   string    `json:"first_error"`
	ErrorKind    ErrorKind `json:"error_kind"`
}

// SessionData is the aggregate state of one monitoring session. All access
// goes through the telemetry monitor's lock; consumers only ever see copies.
type SessionData struct {
	SessionStart time.Time
	LastActivity time.Time

	// Keystrokes is the full append-only history; RollingKeystrokes holds
	// the most recent entries (FIFO, bounded) used for real-time metrics.
	Keystrokes        []KeystrokeEvent
	RollingKeystrokes []KeystrokeEvent
	Compiles          []CompileEvent

	// ErrorSequence holds normalized error signatures in arrival order.
	// RepeatedErrors counts every recurrence of an already-seen signature.
	ErrorSequence  []string
	RepeatedErrors int

	TotalKeystrokes int
	TotalBackspaces int
	TotalCompiles   int
	FailedCompiles  int

	RealTimeWPM           float64
	RealTimeBackspaceRate float64
}

// Clone returns a deep copy safe to hand out across the lock boundary.
func (s *SessionData) Clone() SessionData {
	out := *s
	out.Keystrokes = append([]KeystrokeEvent(nil), s.Keystrokes...)
	out.RollingKeystrokes = append([]KeystrokeEvent(nil), s.RollingKeystrokes...)
	out.Compiles = append([]CompileEvent(nil), s.Compiles...)
	out.ErrorSequence = append([]string(nil), s.ErrorSequence...)
	return out
}
