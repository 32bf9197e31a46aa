package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/trip-planner-go/pkg/database"
)

func usageTotals(usage []database.APIUsage) gin.H {
	var requests, groups, assignments int64
	for _, u := range usage {
		requests += int64(u.RequestCount)
		groups += int64(u.TotalGroups)
		assignments += int64(u.TotalAssignments)
	}
	return gin.H{
		"requests":    requests,
		"groups":      groups,
		"assignments": assignments,
	}
}

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey, ok := apiKeyFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	usage, err := h.Store.Usage(apiKey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals":        usageTotals(usage),
	})
}

// GetUsage returns usage stats for any key
func (h *Handler) GetUsage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	usage, err := h.Store.Usage(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage, "totals": usageTotals(usage)})
}
