package telemetry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codecalm/internal/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMonitor(t *testing.T) (*Monitor, *testClock, *Baseline) {
	t.Helper()
	clock := newTestClock()
	baseline := NewBaseline()
	m := NewMonitor(zap.NewNop(), baseline)
	m.now = clock.Now
	return m, clock, baseline
}

func typeKeys(m *Monitor, clock *testClock, n int, gap time.Duration) {
	for i := 0; i < n; i++ {
		clock.Advance(gap)
		m.RecordKeystroke('a', false, 30, 0)
	}
}

func TestRollingWindowBounded(t *testing.T) {
	m, clock, _ := newTestMonitor(t)
	m.Start()

	typeKeys(m, clock, 150, 50*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, 150, snap.TotalKeystrokes)
	assert.Len(t, snap.Keystrokes, 150)
	assert.Len(t, snap.RollingKeystrokes, rollingWindowSize)
	// The window keeps the newest entries.
	assert.Equal(t, snap.Keystrokes[len(snap.Keystrokes)-1].Timestamp,
		snap.RollingKeystrokes[len(snap.RollingKeystrokes)-1].Timestamp)
}

func TestKeystrokesIgnoredWhileStopped(t *testing.T) {
	m, _, _ := newTestMonitor(t)

	m.RecordKeystroke('a', false, 30, 0)
	assert.Zero(t, m.Snapshot().TotalKeystrokes)

	m.Start()
	m.RecordKeystroke('a', false, 30, 0)
	m.Stop()
	m.RecordKeystroke('a', false, 30, 0)

	assert.Equal(t, 1, m.Snapshot().TotalKeystrokes)
}

func TestRealTimeWPM(t *testing.T) {
	m, clock, _ := newTestMonitor(t)
	m.Start()

	// 21 keystrokes spaced 200ms: 4.2 words over 4 seconds = 63 WPM.
	typeKeys(m, clock, 21, 200*time.Millisecond)

	snap := m.Snapshot()
	assert.InDelta(t, 63.0, snap.RealTimeWPM, 0.5)
}

func TestCompileRecovery(t *testing.T) {
	m, _, _ := newTestMonitor(t)
	m.Start()

	_, recovered := m.RecordCompile("main.c:1:1: error: expected ';'", false, models.LanguageC)
	assert.False(t, recovered)

	_, recovered = m.RecordCompile("", true, models.LanguageC)
	assert.True(t, recovered, "success directly after a failure is a recovery")

	_, recovered = m.RecordCompile("", true, models.LanguageC)
	assert.False(t, recovered, "success after success is not a recovery")

	snap := m.Snapshot()
	assert.Equal(t, 3, snap.TotalCompiles)
	assert.Equal(t, 1, snap.FailedCompiles)
}

func TestRepeatedErrorDetection(t *testing.T) {
	m, _, _ := newTestMonitor(t)
	m.Start()

	fail := func(line string) {
		m.RecordCompile(line, false, models.LanguageC)
	}

	// Line numbers differ but normalize away, so the A failures compare
	// equal. Sequence A A B A A A repeats a known signature four times.
	a := func(n int) string { return fmt.Sprintf("main.c:%d:5: error: 'x' undeclared", n) }
	fail(a(5))
	fail(a(9))
	fail("main.c:3:1: error: expected ';' before 'return'")
	fail(a(12))
	fail(a(14))
	fail(a(14))

	snap := m.Snapshot()
	require.Len(t, snap.ErrorSequence, 6)
	assert.Equal(t, 4, snap.RepeatedErrors)
}

func TestDisabledLanguageIsIgnored(t *testing.T) {
	m, _, _ := newTestMonitor(t)
	m.SetLanguageEnabled(models.LanguageCPP, false)
	m.Start()

	ev, _ := m.RecordCompile("boom: error: whatever", false, models.LanguageCPP)
	assert.True(t, ev.Timestamp.IsZero())
	assert.Zero(t, m.Snapshot().TotalCompiles)

	// The other language is unaffected.
	m.RecordCompile("boom: error: whatever", false, models.LanguageC)
	assert.Equal(t, 1, m.Snapshot().TotalCompiles)
}

func TestStopFoldsBaselineOnce(t *testing.T) {
	m, clock, baseline := newTestMonitor(t)
	m.Start()
	typeKeys(m, clock, 50, 100*time.Millisecond)

	first := m.Stop()
	second := m.Stop()

	assert.Equal(t, 1, baseline.Sessions())
	assert.Equal(t, first.TotalKeystrokes, second.TotalKeystrokes)
	assert.Positive(t, baseline.WPM())
}

func TestResetClearsSession(t *testing.T) {
	m, clock, baseline := newTestMonitor(t)
	m.Start()
	typeKeys(m, clock, 30, 100*time.Millisecond)

	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.TotalKeystrokes)
	assert.Empty(t, snap.Keystrokes)
	assert.Zero(t, baseline.Sessions(), "reset must not touch the baseline")
	assert.True(t, m.IsMonitoring(), "reset keeps the session running")
}
