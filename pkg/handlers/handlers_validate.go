package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/trip-planner-go/pkg/models"
	"github.com/arnavshah/trip-planner-go/pkg/planner"
)

// Validate audits caller-supplied assignments against an input document
func (h *Handler) Validate(c *gin.Context) {
	var req struct {
		Input       json.RawMessage     `json:"input" binding:"required"`
		Assignments []models.Assignment `json:"assignments"`
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	report, err := h.Planner.Audit(req.Input, planner.FormatJSON, req.Assignments)
	if err != nil {
		status := http.StatusInternalServerError
		if inputError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"valid": false, "error": err.Error()})
		return
	}
	h.RecordUsage(c, 0, len(req.Assignments))

	c.JSON(http.StatusOK, gin.H{
		"valid":  report.Feasible(),
		"report": report,
		"stats": gin.H{
			"assignment_count": len(req.Assignments),
			"violation_counts": report.Counts(),
		},
	})
}
