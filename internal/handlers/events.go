package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"codecalm/internal/models"
	"codecalm/internal/services"
)

// EventsHandler ingests raw editor events.
type EventsHandler struct {
	log     *zap.Logger
	monitor *services.MonitorService
}

func NewEventsHandler(log *zap.Logger, monitor *services.MonitorService) *EventsHandler {
	return &EventsHandler{log: log, monitor: monitor}
}

type keystrokeRequest struct {
	Key         string `json:"key"`
	IsBackspace bool   `json:"is_backspace"`
	KeyCode     int    `json:"key_code"`
	Modifiers   int    `json:"modifiers"`
}

// Keystroke handles POST /api/events/keystroke.
func (h *EventsHandler) Keystroke(c *gin.Context) {
	var req keystrokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var key rune
	if r := []rune(req.Key); len(r) > 0 {
		key = r[0]
	}
	h.monitor.IngestKeystroke(key, req.IsBackspace, req.KeyCode, req.Modifiers)
	c.Status(http.StatusAccepted)
}

type compileRequest struct {
	Output   string `json:"output"`
	Success  bool   `json:"success"`
	Language string `json:"language"`
}

// Compile handles POST /api/events/compile.
func (h *EventsHandler) Compile(c *gin.Context) {
	var req compileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lang := models.Language(req.Language)
	switch lang {
	case models.LanguageC, models.LanguageCPP:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		return
	}

	h.monitor.IngestCompile(req.Output, req.Success, lang)
	c.Status(http.StatusAccepted)
}
