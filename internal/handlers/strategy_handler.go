package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"progress-service/internal/service"
)

type StrategyHandler struct {
	Service *service.StrategyService
}

func NewStrategyHandler(s *service.StrategyService) *StrategyHandler {
	return &StrategyHandler{Service: s}
}

// GetStrategy computes pacing metrics on demand. A user without configured plan
// dates gets a 200 with configured=false so the client can prompt for setup
// instead of treating it as an error.
func (h *StrategyHandler) GetStrategy(c *gin.Context) {
	userID := c.Param("id")
	courseID := c.Query("course_id")

	metrics, err := h.Service.ComputeStrategy(context.Background(), userID, courseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if metrics == nil {
		c.JSON(http.StatusOK, gin.H{
			"configured": false,
			"message":    "no preparation plan dates configured",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"configured": true,
		"metrics":    metrics,
	})
}

// RecordStudyEvent upserts the caller's progress on a single topic.
func (h *StrategyHandler) RecordStudyEvent(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	var event service.StudyEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tp, err := h.Service.RecordStudyEvent(context.Background(), userID, &event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tp)
}
