// Package handler provides HTTP handlers for the ops API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dailycast/dailycast/internal/api/response"
	"github.com/dailycast/dailycast/internal/health"
)

// History window bounds for the ops endpoints.
const (
	defaultHistoryDays = 7
	maxHistoryDays     = 30
)

// HistoryAnalyzer is the analysis contract the ops handlers consume.
type HistoryAnalyzer interface {
	History(ctx context.Context, days int) (*health.HistorySummary, error)
	QuickStatus(ctx context.Context, days int) (health.QuickStatus, error)
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	analyzer  HistoryAnalyzer
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, analyzer HistoryAnalyzer) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		analyzer:  analyzer,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"time":      time.Now().UTC(),
		"version":   h.version,
		"buildTime": h.buildTime,
	})
}

// Status handles GET /v1/ops/status - quick health classification over the
// recent window, for dashboard consumption.
func (h *OpsHandler) Status(w http.ResponseWriter, r *http.Request) {
	days, ok := historyDays(w, r)
	if !ok {
		return
	}

	status, err := h.analyzer.QuickStatus(r.Context(), days)
	if err != nil {
		response.InternalError(w, r, "computing health status failed")
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"status": status,
		"days":   days,
	})
}

// History handles GET /v1/ops/history?days=N - full per-service history
// summary over the requested window.
func (h *OpsHandler) History(w http.ResponseWriter, r *http.Request) {
	days, ok := historyDays(w, r)
	if !ok {
		return
	}

	summary, err := h.analyzer.History(r.Context(), days)
	if err != nil {
		response.InternalError(w, r, "computing health history failed")
		return
	}

	response.JSON(w, r, http.StatusOK, summary)
}

func historyDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultHistoryDays, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > maxHistoryDays {
		response.BadRequest(w, r, "days must be an integer between 1 and 30")
		return 0, false
	}
	return days, true
}
