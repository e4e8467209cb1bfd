package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/nutri-track/internal/service"
)

// DashboardHandler serves the read-only summaries. Day boundaries are drawn
// in the viewer's zone; see viewerLocation.
type DashboardHandler struct {
	dashboard  *service.DashboardService
	defaultLoc *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, defaultLoc *time.Location, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard:  dashboard,
		defaultLoc: defaultLoc,
		now:        time.Now,
		logger:     logger,
	}
}

// HandleToday returns today's meals, totals and targets.
//
// HTTP: GET /api/dashboard/today?tz=Asia/Kolkata
func (h *DashboardHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	loc, err := viewerLocation(r, h.defaultLoc)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.dashboard.Today(r.Context(), userID, h.now(), loc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleHistory returns one page of past days.
//
// HTTP: GET /api/dashboard/history?offset=0&limit=7
func (h *DashboardHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	loc, err := viewerLocation(r, h.defaultLoc)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultHistoryPageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.dashboard.History(r.Context(), userID, h.now(), loc, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleWeekly returns the seven-day series and its average.
//
// HTTP: GET /api/dashboard/weekly
func (h *DashboardHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	loc, err := viewerLocation(r, h.defaultLoc)
	if err != nil {
		writeError(w, err)
		return
	}

	weekly, err := h.dashboard.Weekly(r.Context(), userID, h.now(), loc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weekly)
}
