package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/arnavshah/trip-planner-go/pkg/database"
	"github.com/arnavshah/trip-planner-go/pkg/planner"
)

var csvHeader = []string{"group_id", "location_id", "date", "time_slot", "participant_count", "source"}

// runPlan executes the pipeline for the request body. On failure it has
// already written the response.
func (h *Handler) runPlan(c *gin.Context) (*planner.Outcome, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read request body"})
		return nil, false
	}

	seed := h.Planner.Seed()
	if v := c.Query("seed"); v != "" {
		seed, err = cast.ToInt64E(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an integer"})
			return nil, false
		}
	}

	start := time.Now()
	out, err := h.Planner.RunSeed(raw, planner.FormatFromContentType(c.ContentType()), seed)
	h.Metrics.ObservePlan(out, time.Since(start))
	if err != nil {
		if inputError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		h.logger().Error("plan failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Planning failed"})
		return nil, false
	}

	if err := h.saveRun(c, out); err != nil {
		h.logger().Error("could not store plan run", zap.String("snapshot", out.Result.SnapshotID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store plan run"})
		return nil, false
	}
	h.RecordUsage(c, out.Report.Summary.Groups, len(out.Result.Assignments))
	return out, true
}

func (h *Handler) saveRun(c *gin.Context, out *planner.Outcome) error {
	result, err := json.Marshal(out.Result)
	if err != nil {
		return err
	}
	report, err := json.Marshal(out.Report)
	if err != nil {
		return err
	}
	run := &database.PlanRun{
		SnapshotID:       out.Result.SnapshotID,
		Seed:             out.Result.Meta.Seed,
		Groups:           out.Report.Summary.Groups,
		Assignments:      len(out.Result.Assignments),
		Violations:       len(out.Report.Audit.HardViolations),
		MustVisitMissing: len(out.Report.Audit.MustVisitMissing),
		ElapsedMs:        out.Result.Meta.ElapsedMs,
		Result:           result,
		Report:           report,
	}
	if key, ok := apiKeyFrom(c); ok {
		run.KeyID = key.ID
	}
	return h.Store.SaveRun(run)
}

// RecordUsage adds the request to the caller's daily tally. Failures are
// logged and never fail the request.
func (h *Handler) RecordUsage(c *gin.Context, groups, assignments int) {
	key, ok := apiKeyFrom(c)
	if !ok {
		return
	}
	if err := h.Store.RecordUsage(key.ID, groups, assignments); err != nil {
		h.logger().Warn("could not record usage", zap.Uint("key", key.ID), zap.Error(err))
	}
}

func apiKeyFrom(c *gin.Context) (*database.APIKey, bool) {
	raw, exists := c.Get(ctxAPIKey)
	if !exists {
		return nil, false
	}
	key, ok := raw.(*database.APIKey)
	return key, ok
}

// Plan handles a planning request and returns the result and report documents
func (h *Handler) Plan(c *gin.Context) {
	out, ok := h.runPlan(c)
	if !ok {
		return
	}
	h.logger().Info("plan served",
		zap.String("snapshot", out.Result.SnapshotID),
		zap.Int("assignments", len(out.Result.Assignments)),
		zap.Bool("findings", out.HasFindings()))
	c.JSON(http.StatusOK, gin.H{"result": out.Result, "report": out.Report})
}

// PlanCSV plans like Plan and exports the assignments as CSV
func (h *Handler) PlanCSV(c *gin.Context) {
	out, ok := h.runPlan(c)
	if !ok {
		return
	}

	var outCSV strings.Builder
	writer := csv.NewWriter(&outCSV)
	_ = writer.Write(csvHeader)
	for _, a := range out.Result.Assignments {
		_ = writer.Write([]string{
			strconv.FormatInt(a.GroupID, 10),
			strconv.FormatInt(a.LocationID, 10),
			a.Date.String(),
			a.TimeSlot,
			strconv.Itoa(a.ParticipantCount),
			string(a.Source),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not export CSV"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot_id": out.Result.SnapshotID,
		"csv":         outCSV.String(),
	})
}

// ListRuns returns recent plan runs without their documents
func (h *Handler) ListRuns(c *gin.Context) {
	limit := cast.ToInt(c.DefaultQuery("limit", "50"))
	runs, err := h.Store.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns a stored run with its result and report
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.Store.GetRun(c.Param("snapshot"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load run"})
		return
	}
	c.JSON(http.StatusOK, run)
}
