package handlers

import (
	"net/http"
	"strconv"

	"github.com/rotzhost/rotzcoder/internal/analytics"
)

type AnalyticsHandler struct {
	dash *analytics.Dashboard
}

func NewAnalyticsHandler(dash *analytics.Dashboard) *AnalyticsHandler {
	return &AnalyticsHandler{dash: dash}
}

func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dash.Overview(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *AnalyticsHandler) EventsByType(w http.ResponseWriter, r *http.Request) {
	counts, err := h.dash.EventsByType(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": counts})
}

func (h *AnalyticsHandler) DailyActivity(w http.ResponseWriter, r *http.Request) {
	days, err := h.dash.DailyActivity(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

func (h *AnalyticsHandler) TopUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.dash.TopUsers(r.Context(), r.URL.Query().Get("window"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AnalyticsHandler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.dash.RecentEvents(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (h *AnalyticsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.dash.UsageSummary(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"usage": usage})
}
