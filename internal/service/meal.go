// Package service holds the business rules between the HTTP handlers and
// the repositories:
//
//	Handler (HTTP) → Service (validation, ownership, orchestration) → Repository (SQL)
//
// Services take and return plain Go values and apperror kinds. They never
// see an *http.Request, so the same rules apply to every caller.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
	"github.com/sakif/nutri-track/internal/nutrition"
	"github.com/sakif/nutri-track/internal/repository"
)

const (
	MaxMealNameLength = 200
	MaxImageURLLength = 2048
	DefaultListLimit  = 50
	MaxListLimit      = 500
)

// ServingInput is optional portion metadata for a meal.
type ServingInput struct {
	Factor     float64 `json:"factor"`
	Estimated  string  `json:"estimated"`
	Unit       string  `json:"unit"`
	Confidence string  `json:"confidence"`
}

// MealInput is a new meal as submitted. A zero LoggedAt means now.
type MealInput struct {
	Name      string          `json:"name"`
	Nutrients model.Nutrients `json:"nutrients"`
	Type      string          `json:"mealType"`
	LoggedAt  time.Time       `json:"loggedAt"`
	ImageURL  string          `json:"imageUrl"`
	Serving   *ServingInput   `json:"serving"`
}

// MealPatch is a partial update. Nil fields are left unchanged. ClearServing
// removes the serving metadata; it is ignored when Serving is set.
type MealPatch struct {
	Name         *string       `json:"name"`
	Calories     *float64      `json:"calories"`
	Protein      *float64      `json:"protein"`
	Carbs        *float64      `json:"carbs"`
	Fat          *float64      `json:"fat"`
	Fiber        *float64      `json:"fiber"`
	Type         *string       `json:"mealType"`
	LoggedAt     *time.Time    `json:"loggedAt"`
	ImageURL     *string       `json:"imageUrl"`
	Serving      *ServingInput `json:"serving"`
	ClearServing bool          `json:"clearServing"`
}

// MealService validates and stores meals. Every operation is scoped to one
// user; another user's meal is reported as not found.
type MealService struct {
	repo   repository.MealRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewMealService(repo repository.MealRepository, logger *slog.Logger) *MealService {
	return &MealService{repo: repo, logger: logger, now: time.Now}
}

// Log validates in and stores it as a new meal for userID.
func (s *MealService) Log(ctx context.Context, userID string, in MealInput) (*model.Meal, error) {
	m := &model.Meal{
		UserID:    userID,
		Name:      in.Name,
		Nutrients: in.Nutrients,
		LoggedAt:  in.LoggedAt,
		ImageURL:  in.ImageURL,
	}
	if m.LoggedAt.IsZero() {
		m.LoggedAt = s.now()
	}

	t, err := model.ParseMealType(in.Type)
	if err != nil {
		return nil, apperror.ValidationFailed("mealType", err.Error())
	}
	m.Type = t

	if in.Serving != nil {
		if m.Serving, err = buildServing(*in.Serving); err != nil {
			return nil, err
		}
	}
	if err := validateMeal(m); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.logger.Error("storing meal failed", slog.String("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/meal: creating meal: %w", err)
	}

	s.logger.Info("meal logged",
		slog.String("mealID", m.ID),
		slog.String("userID", userID),
		slog.String("type", string(m.Type)),
		slog.Float64("calories", m.Calories),
	)
	return m, nil
}

// Get returns one of userID's meals.
func (s *MealService) Get(ctx context.Context, userID, id string) (*model.Meal, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/meal: getting meal %s: %w", id, err)
	}
	if m.UserID != userID {
		return nil, apperror.NotFound("meal", id)
	}
	return m, nil
}

// List returns userID's meals logged in [from, to), newest first. Zero
// bounds are open. limit is clamped to MaxListLimit and defaults to
// DefaultListLimit.
func (s *MealService) List(ctx context.Context, userID string, from, to time.Time, limit, offset int) ([]model.Meal, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, apperror.ValidationFailed("from", "from must be before to")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	meals, err := s.repo.List(ctx, repository.MealFilter{
		UserID: userID,
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("service/meal: listing meals: %w", err)
	}
	return meals, nil
}

// Update applies patch to one of userID's meals. Concurrent updates are not
// merged; the last write wins.
func (s *MealService) Update(ctx context.Context, userID, id string, patch MealPatch) (*model.Meal, error) {
	m, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		m.Name = *patch.Name
	}
	setIf(&m.Calories, patch.Calories)
	setIf(&m.Protein, patch.Protein)
	setIf(&m.Carbs, patch.Carbs)
	setIf(&m.Fat, patch.Fat)
	setIf(&m.Fiber, patch.Fiber)
	if patch.Type != nil {
		t, err := model.ParseMealType(*patch.Type)
		if err != nil {
			return nil, apperror.ValidationFailed("mealType", err.Error())
		}
		m.Type = t
	}
	if patch.LoggedAt != nil {
		if patch.LoggedAt.IsZero() {
			return nil, apperror.ValidationFailed("loggedAt", "loggedAt must not be empty")
		}
		m.LoggedAt = *patch.LoggedAt
	}
	if patch.ImageURL != nil {
		m.ImageURL = *patch.ImageURL
	}
	switch {
	case patch.Serving != nil:
		if m.Serving, err = buildServing(*patch.Serving); err != nil {
			return nil, err
		}
	case patch.ClearServing:
		m.Serving = nil
	}

	if err := validateMeal(m); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("service/meal: updating meal %s: %w", id, err)
	}

	s.logger.Info("meal updated", slog.String("mealID", id), slog.String("userID", userID))
	return m, nil
}

// Delete removes one of userID's meals.
func (s *MealService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/meal: deleting meal %s: %w", id, err)
	}
	s.logger.Info("meal deleted", slog.String("mealID", id), slog.String("userID", userID))
	return nil
}

// validateMeal normalises the name and checks every invariant of a stored
// meal.
func validateMeal(m *model.Meal) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperror.ValidationFailed("name", "meal name is required")
	}
	if utf8.RuneCountInString(m.Name) > MaxMealNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("meal name must be %d characters or fewer", MaxMealNameLength))
	}
	if field, err := m.Nutrients.Validate(); err != nil {
		return apperror.ValidationFailed(field, err.Error())
	}
	m.ImageURL = strings.TrimSpace(m.ImageURL)
	if len(m.ImageURL) > MaxImageURLLength {
		return apperror.ValidationFailed("imageUrl",
			fmt.Sprintf("image URL must be %d characters or fewer", MaxImageURLLength))
	}
	return nil
}

func buildServing(in ServingInput) (*model.Serving, error) {
	if err := nutrition.ValidateFactor(in.Factor); err != nil {
		return nil, apperror.ValidationFailed("serving.factor", err.Error())
	}
	sv := &model.Serving{
		Factor:    in.Factor,
		Estimated: strings.TrimSpace(in.Estimated),
		Unit:      strings.TrimSpace(in.Unit),
	}
	if in.Confidence != "" {
		c, err := model.ParseConfidence(in.Confidence)
		if err != nil {
			return nil, apperror.ValidationFailed("serving.confidence", err.Error())
		}
		sv.Confidence = c
	}
	return sv, nil
}

func setIf(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
