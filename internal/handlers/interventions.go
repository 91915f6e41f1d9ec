package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"codecalm/internal/gate"
	"codecalm/internal/models"
)

// InterventionsHandler exposes delivered interventions and accepts the
// user's responses.
type InterventionsHandler struct {
	log  *zap.Logger
	gate *gate.Gate
}

func NewInterventionsHandler(log *zap.Logger, g *gate.Gate) *InterventionsHandler {
	return &InterventionsHandler{log: log, gate: g}
}

// List handles GET /api/interventions.
func (h *InterventionsHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	c.JSON(http.StatusOK, gin.H{
		"interventions": h.gate.Recent(limit),
		"stats":         h.gate.Stats(),
	})
}

type responseRequest struct {
	Action string `json:"action"`
}

// Respond handles POST /api/interventions/:id/response.
func (h *InterventionsHandler) Respond(c *gin.Context) {
	var req responseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := models.ParseUserAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.gate.HandleAction(c.Param("id"), action); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Feedback handles POST /api/interventions/:id/feedback.
func (h *InterventionsHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.gate.RecordFeedback(c.Param("id"), req.Rating, req.Comment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
