package telemetry

import (
	"regexp"
	"strings"
	"time"

	"codecalm/internal/models"
)

// errorPatterns classifies gcc/clang style diagnostics. First match wins, so
// the more specific rows sit above the broader ones.
var errorPatterns = []struct {
	kind models.ErrorKind
	re   *regexp.Regexp
}{
	{models.ErrorMissingSemicolon, regexp.MustCompile(`(?i)expected.*;|missing.*;`)},
	{models.ErrorSegfault, regexp.MustCompile(`(?i)segmentation fault|access violation`)},
	{models.ErrorNullPointer, regexp.MustCompile(`(?i)null pointer|nullptr`)},
	{models.ErrorArrayBounds, regexp.MustCompile(`(?i)array bounds|out of bounds|index.*out of range`)},
	{models.ErrorUninitialized, regexp.MustCompile(`(?i)uninitialized|used without being initialized`)},
	{models.ErrorMemoryLeak, regexp.MustCompile(`(?i)memory leak|leaked`)},
	{models.ErrorBufferOverflow, regexp.MustCompile(`(?i)buffer overflow|stack overflow`)},
	{models.ErrorUndefinedReference, regexp.MustCompile(`(?i)undefined reference|unresolved external`)},
	{models.ErrorMissingHeader, regexp.MustCompile(`(?i)cannot find|no such file|include`)},
	{models.ErrorTypeMismatch, regexp.MustCompile(`(?i)type mismatch|cannot convert|incompatible type`)},
	{models.ErrorNoMatchingFunction, regexp.MustCompile(`(?i)no matching function|overload.*not found`)},
	{models.ErrorAmbiguous, regexp.MustCompile(`(?i)ambiguous|more than one instance`)},
	{models.ErrorRedefinition, regexp.MustCompile(`(?i)redefinition|multiple definition`)},
	{models.ErrorUndeclared, regexp.MustCompile(`(?i)not declared|undeclared`)},
	{models.ErrorIncompleteType, regexp.MustCompile(`(?i)incomplete type|forward declaration`)},
	{models.ErrorSyntax, regexp.MustCompile(`(?i)syntax error|expected|unexpected`)},
}

// ClassifyError maps a diagnostic message to its error kind.
func ClassifyError(message string) models.ErrorKind {
	for _, p := range errorPatterns {
		if p.re.MatchString(message) {
			return p.kind
		}
	}
	return models.ErrorUnknown
}

// normalizePatterns strip the volatile parts of a diagnostic so that "the
// same error again" compares equal across recompiles. The replacements
// contain no digits, which keeps normalization idempotent.
var normalizePatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`[A-Za-z]:\\(?:[^\\\s:]+\\)*[^\\\s:]*`), "path"},
	{regexp.MustCompile(`(?:/[\w.+-]+){2,}`), "path"},
	{regexp.MustCompile(`(?i)line\s+\d+`), "line num"},
	{regexp.MustCompile(`(?i)column\s+\d+`), "column num"},
	{regexp.MustCompile(`(?i)0x[0-9a-f]+`), "addr"},
	{regexp.MustCompile(`\b\d+\b`), "num"},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeErrorMessage produces the stable signature used to spot errors
// recurring anywhere in a session. Normalizing an already normalized message
// is a no-op.
func NormalizeErrorMessage(message string) string {
	out := message
	for _, p := range normalizePatterns {
		out = p.re.ReplaceAllString(out, p.replacement)
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(out, " "))
}

// ParseCompileOutput builds a CompileEvent from raw compiler output. Both
// the C and C++ toolchains emit the gcc "error:" / "warning:" line shape, so
// the language tag only travels along for filtering and reporting.
func ParseCompileOutput(output string, success bool, lang models.Language, now time.Time) models.CompileEvent {
	ev := models.CompileEvent{
		Timestamp: now,
		Output:    output,
		Success:   success,
		Language:  lang,
		ErrorKind: models.ErrorUnknown,
	}

	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error:") {
			ev.ErrorCount++
			if ev.FirstError == "" {
				ev.FirstError = strings.TrimSpace(line)
				ev.ErrorKind = ClassifyError(line)
			}
		}
		if strings.Contains(lower, "warning:") {
			ev.WarningCount++
		}
	}

	return ev
}
