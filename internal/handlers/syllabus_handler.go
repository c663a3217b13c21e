package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"progress-service/internal/repository"
)

type SyllabusHandler struct {
	Repo *repository.SyllabusRepository
}

func NewSyllabusHandler(repo *repository.SyllabusRepository) *SyllabusHandler {
	return &SyllabusHandler{Repo: repo}
}

func (h *SyllabusHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.Repo.FindAll(context.Background())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *SyllabusHandler) GetSubjectByID(c *gin.Context) {
	subject, err := h.Repo.FindByID(context.Background(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if subject == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}
	c.JSON(http.StatusOK, subject)
}
