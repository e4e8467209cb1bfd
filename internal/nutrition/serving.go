package nutrition

import (
	"fmt"
	"math"

	"github.com/sakif/nutri-track/internal/model"
)

// Recommended slider domain. Scale itself accepts any positive factor.
const (
	MinRecommendedFactor = 0.25
	MaxRecommendedFactor = 3.0
	FactorStep           = 0.25

	// BaselineFactor is the factor the recognised values are defined at.
	BaselineFactor = 1.0
)

// ScaleServing returns base scaled to factor. base is always taken to be the
// value at BaselineFactor, even when the recogniser reported its own serving
// size, so ScaleServing(base, 1) == base exactly.
func ScaleServing(base model.Nutrients, factor float64) model.Nutrients {
	return base.Scale(factor / BaselineFactor)
}

// ValidateFactor rejects zero, negative and non-finite factors. Values outside
// the recommended slider domain are accepted as-is.
func ValidateFactor(factor float64) error {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("serving factor must be a finite number")
	}
	if factor <= 0 {
		return fmt.Errorf("serving factor must be greater than zero")
	}
	return nil
}

// PortionLabel classifies a factor for display.
func PortionLabel(factor float64) string {
	switch {
	case factor <= 0.5:
		return "Small portion"
	case factor <= 0.75:
		return "Half portion"
	case factor <= 1.25:
		return "Standard portion"
	case factor <= 1.75:
		return "Large portion"
	default:
		return "Extra large portion"
	}
}

// ScaledServing is what the adjuster shows: the full-precision vector that
// gets persisted and a one-decimal copy for display.
type ScaledServing struct {
	Factor    float64         `json:"factor"`
	Label     string          `json:"label"`
	Nutrients model.Nutrients `json:"nutrients"`
	Display   model.Nutrients `json:"display"`
}

// AdjustServing validates factor and scales base to it.
func AdjustServing(base model.Nutrients, factor float64) (ScaledServing, error) {
	if err := ValidateFactor(factor); err != nil {
		return ScaledServing{}, err
	}
	scaled := ScaleServing(base, factor)
	return ScaledServing{
		Factor:    factor,
		Label:     PortionLabel(factor),
		Nutrients: scaled,
		Display:   scaled.Round1(),
	}, nil
}
