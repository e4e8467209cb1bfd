package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
	"github.com/sakif/nutri-track/internal/nutrition"
	"github.com/sakif/nutri-track/internal/recognition"
)

// Analysis is a recognised dish ready for the serving adjuster. Base is the
// estimate at factor 1.0 and Scaled is Base at the initial factor.
type Analysis struct {
	Estimate *recognition.Estimate   `json:"estimate"`
	Base     model.Nutrients         `json:"base"`
	Serving  model.Serving           `json:"serving"`
	Scaled   nutrition.ScaledServing `json:"scaled"`
}

// FoodService fronts the Food Recognition Proxy. recognizer is nil when the
// server has no gateway key; every Analyze then fails with ErrUnavailable.
type FoodService struct {
	recognizer recognition.Recognizer
	logger     *slog.Logger
}

func NewFoodService(recognizer recognition.Recognizer, logger *slog.Logger) *FoodService {
	return &FoodService{recognizer: recognizer, logger: logger}
}

// Enabled reports whether a recognizer is configured.
func (s *FoodService) Enabled() bool {
	return s.recognizer != nil
}

// Analyze recognises the food in req.Image. Upstream failures come back as
// their apperror kinds unchanged so the caller can tell a rate limit from a
// quota problem.
func (s *FoodService) Analyze(ctx context.Context, req recognition.Request) (*Analysis, error) {
	if s.recognizer == nil {
		return nil, apperror.Unavailable("food recognition is not configured on this server")
	}
	if err := recognition.ValidateImageRef(req.Image); err != nil {
		return nil, err
	}

	start := time.Now()
	est, err := s.recognizer.Analyze(ctx, req)
	if err != nil {
		s.logger.Warn("food recognition failed",
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/food: %w", err)
	}

	base := est.Nutrients()
	scaled, err := nutrition.AdjustServing(base, nutrition.BaselineFactor)
	if err != nil {
		return nil, fmt.Errorf("service/food: scaling estimate: %w", err)
	}

	return &Analysis{
		Estimate: est,
		Base:     base,
		Serving: model.Serving{
			Factor:     nutrition.BaselineFactor,
			Estimated:  est.ServingDescription(),
			Unit:       est.ServingUnit,
			Confidence: est.Confidence,
		},
		Scaled: scaled,
	}, nil
}

// ScaleServing applies factor to a base vector from a previous Analyze.
func (s *FoodService) ScaleServing(base model.Nutrients, factor float64) (nutrition.ScaledServing, error) {
	if field, err := base.Validate(); err != nil {
		return nutrition.ScaledServing{}, apperror.ValidationFailed("base."+field, err.Error())
	}
	scaled, err := nutrition.AdjustServing(base, factor)
	if err != nil {
		return nutrition.ScaledServing{}, apperror.ValidationFailed("factor", err.Error())
	}
	return scaled, nil
}
