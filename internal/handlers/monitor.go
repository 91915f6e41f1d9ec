package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"codecalm/internal/services"
)

// MonitorHandler exposes the session lifecycle and stats surface.
type MonitorHandler struct {
	log     *zap.Logger
	monitor *services.MonitorService
}

func NewMonitorHandler(log *zap.Logger, monitor *services.MonitorService) *MonitorHandler {
	return &MonitorHandler{log: log, monitor: monitor}
}

// Start handles POST /api/monitor/start.
func (h *MonitorHandler) Start(c *gin.Context) {
	h.monitor.StartMonitoring()
	c.JSON(http.StatusOK, gin.H{"monitoring": true})
}

// Stop handles POST /api/monitor/stop.
func (h *MonitorHandler) Stop(c *gin.Context) {
	summary := h.monitor.StopMonitoring()
	c.JSON(http.StatusOK, summary)
}

// Stats handles GET /api/monitor/stats.
func (h *MonitorHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Stats())
}

// Recalibrate handles POST /api/monitor/recalibrate.
func (h *MonitorHandler) Recalibrate(c *gin.Context) {
	h.monitor.Recalibrate()
	c.JSON(http.StatusOK, gin.H{"recalibrated": true})
}
