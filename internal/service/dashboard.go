package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/nutri-track/internal/model"
	"github.com/sakif/nutri-track/internal/nutrition"
	"github.com/sakif/nutri-track/internal/repository"
)

// DefaultHistoryPageSize is the number of days one "load more" adds.
const DefaultHistoryPageSize = 7

// TodaySummary is everything the dashboard shows for the current local day.
type TodaySummary struct {
	Date              string          `json:"date"`
	Targets           *TargetsView    `json:"targets"`
	Meals             []model.Meal    `json:"meals"`
	Totals            model.Nutrients `json:"totals"`
	RemainingCalories float64         `json:"remainingCalories"`
}

// HistoryDay is one past day with its meals.
type HistoryDay struct {
	nutrition.DaySummary
	Meals []model.Meal `json:"meals"`
}

// HistoryPage is one page of past days, newest first.
type HistoryPage struct {
	Days    []HistoryDay `json:"days"`
	Offset  int          `json:"offset"`
	Limit   int          `json:"limit"`
	HasMore bool         `json:"hasMore"`
}

// WeeklySummary is the trailing seven-day chart.
type WeeklySummary struct {
	Days             []nutrition.DaySummary `json:"days"`
	AverageCalories  int                    `json:"averageCalories"`
	DailyCalorieGoal float64                `json:"dailyCalorieGoal"`
}

// DashboardService reads meals and the profile and runs them through the
// nutrition aggregates. It never writes. Callers pass now and the viewer's
// location so every day boundary is the viewer's local midnight.
type DashboardService struct {
	meals    repository.MealRepository
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewDashboardService(meals repository.MealRepository, profiles repository.ProfileRepository, logger *slog.Logger) *DashboardService {
	return &DashboardService{meals: meals, profiles: profiles, logger: logger}
}

// Today returns the targets, meals and totals for the local day of now.
// RemainingCalories goes negative once the goal is exceeded.
func (s *DashboardService) Today(ctx context.Context, userID string, now time.Time, loc *time.Location) (*TodaySummary, error) {
	p, onboarded, err := loadProfileOrDefault(ctx, s.profiles, userID)
	if err != nil {
		return nil, err
	}

	start, end := nutrition.TodayRange(now, loc)
	meals, err := s.loadMeals(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	totals := nutrition.SumNutrients(meals)
	return &TodaySummary{
		Date:              nutrition.DayKey(now, loc),
		Targets:           targetsFor(p, onboarded),
		Meals:             meals,
		Totals:            totals,
		RemainingCalories: p.DailyCalorieGoal - totals.Calories,
	}, nil
}

// History pages through the past HistoryLookbackDays days that have meals,
// newest first with today excluded. limit <= 0 means DefaultHistoryPageSize.
func (s *DashboardService) History(ctx context.Context, userID string, now time.Time, loc *time.Location, offset, limit int) (*HistoryPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultHistoryPageSize
	}

	start := nutrition.DaysAgo(now, nutrition.HistoryLookbackDays, loc)
	_, end := nutrition.TodayRange(now, loc)
	meals, err := s.loadMeals(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	buckets := nutrition.BucketByLocalDay(meals, loc)
	keys := nutrition.ExcludeToday(nutrition.SortedDayKeys(buckets), now, loc)

	page := &HistoryPage{Days: []HistoryDay{}, Offset: offset, Limit: limit}
	if offset >= len(keys) {
		return page, nil
	}
	last := min(offset+limit, len(keys))
	for _, key := range keys[offset:last] {
		dayMeals := buckets[key]
		page.Days = append(page.Days, HistoryDay{
			DaySummary: nutrition.DaySummary{
				Date:      key,
				Label:     nutrition.DayLabel(key, now, loc),
				Totals:    nutrition.SumNutrients(dayMeals),
				MealCount: len(dayMeals),
			},
			Meals: dayMeals,
		})
	}
	page.HasMore = last < len(keys)
	return page, nil
}

// Weekly returns the gap-filled seven-day series ending today and its average.
func (s *DashboardService) Weekly(ctx context.Context, userID string, now time.Time, loc *time.Location) (*WeeklySummary, error) {
	p, _, err := loadProfileOrDefault(ctx, s.profiles, userID)
	if err != nil {
		return nil, err
	}

	start := nutrition.DaysAgo(now, nutrition.WeekDays-1, loc)
	_, end := nutrition.TodayRange(now, loc)
	meals, err := s.loadMeals(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	series := nutrition.WeeklySeries(meals, now, loc)
	return &WeeklySummary{
		Days:             series,
		AverageCalories:  nutrition.AverageCalories(series),
		DailyCalorieGoal: p.DailyCalorieGoal,
	}, nil
}

func (s *DashboardService) loadMeals(ctx context.Context, userID string, from, to time.Time) ([]model.Meal, error) {
	meals, err := s.meals.List(ctx, repository.MealFilter{UserID: userID, From: from, To: to})
	if err != nil {
		s.logger.Error("loading meals failed", slog.String("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/dashboard: listing meals: %w", err)
	}
	if meals == nil {
		meals = []model.Meal{}
	}
	return meals, nil
}
