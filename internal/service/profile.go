package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
	"github.com/sakif/nutri-track/internal/nutrition"
	"github.com/sakif/nutri-track/internal/repository"
)

// Profile bounds. Anything outside them is a typo, not a person.
const (
	DefaultCalorieGoal = 2000
	MaxCalorieGoal     = 20000
	MaxWeightKg        = 500
	MaxHeightCm        = 300
	MaxAge             = 150
	MaxUsernameLength  = 50
)

// ProfileInput is the onboarding form. Optional measurements are nil when
// skipped.
type ProfileInput struct {
	DailyCalorieGoal float64  `json:"dailyCalorieGoal"`
	Weight           *float64 `json:"weight"`
	Height           *float64 `json:"height"`
	Age              *int     `json:"age"`
	Gender           string   `json:"gender"`
	ActivityLevel    string   `json:"activityLevel"`
	Username         string   `json:"username"`
}

// TargetsView is the daily target block shown on the dashboard.
type TargetsView struct {
	DailyCalorieGoal   float64                `json:"dailyCalorieGoal"`
	Macros             nutrition.MacroTargets `json:"macros"`
	RecommendedProtein int                    `json:"recommendedProtein"`
	Onboarded          bool                   `json:"onboarded"`
}

type ProfileService struct {
	repo   repository.ProfileRepository
	logger *slog.Logger
}

func NewProfileService(repo repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

// Get returns userID's profile, or apperror.ErrNotFound before onboarding.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: getting profile: %w", err)
	}
	return p, nil
}

// Save validates in and creates or replaces userID's profile.
func (s *ProfileService) Save(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error) {
	p, err := buildProfile(userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("service/profile: saving profile: %w", err)
	}

	s.logger.Info("profile saved",
		slog.String("userID", userID),
		slog.Float64("dailyCalorieGoal", p.DailyCalorieGoal),
		slog.String("activityLevel", string(p.ActivityLevel)),
	)
	return p, nil
}

// Targets derives the daily targets from userID's profile. Before onboarding
// the defaults are returned with Onboarded false.
func (s *ProfileService) Targets(ctx context.Context, userID string) (*TargetsView, error) {
	p, onboarded, err := loadProfileOrDefault(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return targetsFor(p, onboarded), nil
}

func targetsFor(p *model.Profile, onboarded bool) *TargetsView {
	return &TargetsView{
		DailyCalorieGoal:   p.DailyCalorieGoal,
		Macros:             nutrition.CalculateMacroTargets(*p),
		RecommendedProtein: nutrition.RecommendedProtein(p.Weight),
		Onboarded:          onboarded,
	}
}

// loadProfileOrDefault substitutes a profile with DefaultCalorieGoal and no
// measurements when the user has not onboarded yet.
func loadProfileOrDefault(ctx context.Context, repo repository.ProfileRepository, userID string) (*model.Profile, bool, error) {
	p, err := repo.GetProfile(ctx, userID)
	switch {
	case err == nil:
		return p, true, nil
	case errors.Is(err, apperror.ErrNotFound):
		return &model.Profile{UserID: userID, DailyCalorieGoal: DefaultCalorieGoal}, false, nil
	default:
		return nil, false, fmt.Errorf("service/profile: getting profile: %w", err)
	}
}

func buildProfile(userID string, in ProfileInput) (*model.Profile, error) {
	if !inRange(in.DailyCalorieGoal, MaxCalorieGoal) {
		return nil, apperror.ValidationFailed("dailyCalorieGoal",
			fmt.Sprintf("daily calorie goal must be greater than 0 and at most %d", MaxCalorieGoal))
	}
	if in.Weight != nil && !inRange(*in.Weight, MaxWeightKg) {
		return nil, apperror.ValidationFailed("weight",
			fmt.Sprintf("weight must be greater than 0 and at most %d kg", MaxWeightKg))
	}
	if in.Height != nil && !inRange(*in.Height, MaxHeightCm) {
		return nil, apperror.ValidationFailed("height",
			fmt.Sprintf("height must be greater than 0 and at most %d cm", MaxHeightCm))
	}
	if in.Age != nil && (*in.Age <= 0 || *in.Age > MaxAge) {
		return nil, apperror.ValidationFailed("age",
			fmt.Sprintf("age must be between 1 and %d", MaxAge))
	}

	gender, err := model.ParseGender(in.Gender)
	if err != nil {
		return nil, apperror.ValidationFailed("gender", err.Error())
	}
	level, err := model.ParseActivityLevel(in.ActivityLevel)
	if err != nil {
		return nil, apperror.ValidationFailed("activityLevel", err.Error())
	}

	username := strings.TrimSpace(in.Username)
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or fewer", MaxUsernameLength))
	}

	return &model.Profile{
		UserID:           userID,
		DailyCalorieGoal: in.DailyCalorieGoal,
		Weight:           in.Weight,
		Height:           in.Height,
		Age:              in.Age,
		Gender:           gender,
		ActivityLevel:    level,
		Username:         username,
	}, nil
}

// inRange reports whether v is finite and in (0, limit].
func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v <= limit
}
