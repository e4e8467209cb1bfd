package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/nutrition"
	"github.com/sakif/nutri-track/internal/service"
)

// MealHandler serves CRUD for the signed-in user's meals.
type MealHandler struct {
	meals      *service.MealService
	defaultLoc *time.Location
	logger     *slog.Logger
}

func NewMealHandler(meals *service.MealService, defaultLoc *time.Location, logger *slog.Logger) *MealHandler {
	return &MealHandler{meals: meals, defaultLoc: defaultLoc, logger: logger}
}

// HandleList returns meals newest first.
//
// HTTP: GET /api/meals?date=2024-03-15&tz=Asia/Kolkata
//
//	GET /api/meals?from=<RFC3339>&to=<RFC3339>&limit=50&offset=0
//
// date selects one local calendar day in the viewer's zone and wins over
// from/to.
func (h *MealHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	from, to, err := h.listRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	meals, err := h.meals.List(r.Context(), userID, from, to, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

func (h *MealHandler) listRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	if date := q.Get("date"); date != "" {
		loc, err := viewerLocation(r, h.defaultLoc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		day, err := time.Parse(nutrition.DayLayout, date)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.ValidationFailed("date", "date must look like 2006-01-02")
		}
		start, end := nutrition.DayRange(day.Year(), day.Month(), day.Day(), loc)
		return start, end, nil
	}

	var from, to time.Time
	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"from", &from}, {"to", &to}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.ValidationFailed(p.key, p.key+" must be an RFC 3339 timestamp")
		}
		*p.dst = t
	}
	return from, to, nil
}

// HandleCreate logs a meal.
//
// HTTP: POST /api/meals
// REQUEST BODY: {"name": "Masala dosa", "nutrients": {"calories": 387, ...},
// "mealType": "breakfast", "loggedAt": "...", "serving": {"factor": 1.5}}
func (h *MealHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in service.MealInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	meal, err := h.meals.Log(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

// HandleGet returns one meal.
//
// HTTP: GET /api/meals/{id}
func (h *MealHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	meal, err := h.meals.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

// HandleUpdate applies a partial update. Omitted fields keep their values.
//
// HTTP: PATCH /api/meals/{id}
func (h *MealHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch service.MealPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	meal, err := h.meals.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

// HandleDelete removes a meal.
//
// HTTP: DELETE /api/meals/{id}
func (h *MealHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.meals.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
