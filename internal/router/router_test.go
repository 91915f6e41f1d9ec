package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"codecalm/internal/bridge"
	"codecalm/internal/gate"
	"codecalm/internal/services"
	"codecalm/internal/store"
	"codecalm/internal/telemetry"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	baseline := telemetry.NewBaseline()
	monitor := telemetry.NewMonitor(log, baseline)
	br := bridge.New(bridge.Config{SocketPath: "/tmp/unused.sock"}, log)
	g := gate.New(log, gate.NewLogPresenter(log), nil)
	sl := store.NewSessionLog(log, t.TempDir())
	svc := services.NewMonitorService(log, monitor, baseline, br, g, sl)

	return Setup(log, svc, g)
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestKeystrokeIngestion(t *testing.T) {
	r := newTestRouter(t)

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/monitor/start", "").Code)

	w := do(r, http.MethodPost, "/api/events/keystroke", `{"key":"a","is_backspace":false,"key_code":30}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(r, http.MethodGet, "/api/monitor/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_keystrokes":1`)
}

func TestCompileValidation(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/events/compile", `{"output":"","success":true,"language":"rust"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/events/compile", `{"output":"","success":true,"language":"cpp"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestInterventionsSurface(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/interventions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"interventions"`)

	w = do(r, http.MethodPost, "/api/interventions/INT_nope/response", `{"action":"accept"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/interventions/INT_nope/response", `{"action":"shrug"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestLoggerQuietsEventFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.POST("/api/events/keystroke", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	r.GET("/api/monitor/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodPost, "/api/events/keystroke", `{}`)
	do(r, http.MethodGet, "/api/monitor/stats", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level,
		"per-keystroke ingestion stays below Info")
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
}

func TestRecalibrate(t *testing.T) {
	r := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/monitor/recalibrate", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
