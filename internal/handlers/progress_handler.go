package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"progress-service/internal/models"
	"progress-service/internal/repository"
	"progress-service/internal/service"
)

type ProgressHandler struct {
	Service *service.ProgressService
}

func NewProgressHandler(s *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{Service: s}
}

func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID := c.Param("id")
	progress, err := h.Service.GetUserProgress(context.Background(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

type missionCompletionRequest struct {
	Mission models.Mission        `json:"mission" binding:"required"`
	Results models.MissionResults `json:"results" binding:"required"`
}

func (h *ProgressHandler) CompleteMission(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	var req missionCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	progress, err := h.Service.UpdateProgressAfterMission(context.Background(), userID, &req.Mission, &req.Results)
	if err != nil {
		if errors.Is(err, repository.ErrRevisionConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "progress was updated concurrently, retry the request"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

type adaptiveTestRequest struct {
	Results  models.TestPerformance `json:"results" binding:"required"`
	Metadata models.TestMetadata    `json:"metadata" binding:"required"`
}

func (h *ProgressHandler) CompleteAdaptiveTest(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	var req adaptiveTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.Service.UpdateProgressFromAdaptiveTest(context.Background(), userID, &req.Results, &req.Metadata)
	if err != nil {
		if errors.Is(err, repository.ErrRevisionConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "progress was updated concurrently, retry the request"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

type subjectProficiencyRequest struct {
	SubjectID       string  `json:"subject_id" binding:"required"`
	AbilityEstimate float64 `json:"ability_estimate"`
	Confidence      float64 `json:"confidence"`
}

func (h *ProgressHandler) UpdateSubjectProficiency(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	var req subjectProficiencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.Service.UpdateSubjectProficiency(context.Background(), userID, req.SubjectID, req.AbilityEstimate, req.Confidence)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *ProgressHandler) GetRecommendations(c *gin.Context) {
	userID := c.Param("id")
	recs, err := h.Service.GetAdaptiveTestRecommendations(context.Background(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}

type journeyLinkRequest struct {
	JourneyID string `json:"journey_id" binding:"required"`
	Title     string `json:"title"`
}

func (h *ProgressHandler) LinkJourney(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	var req journeyLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.LinkJourney(context.Background(), userID, req.JourneyID, req.Title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "linked"})
}

type journeyProgressRequest struct {
	Percentage float64 `json:"percentage"`
	Milestone  string  `json:"milestone"`
}

func (h *ProgressHandler) UpdateJourneyProgress(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	journeyID := c.Param("journeyId")
	var req journeyProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.UpdateJourneyProgress(context.Background(), userID, journeyID, req.Percentage, req.Milestone); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}
