// Package nutrition holds the deterministic core of the tracker: daily macro
// targets derived from a profile, per-day aggregation of logged meals and the
// serving-size transform applied to recognised food.
//
// Everything here is a pure function. Nothing reads the clock, the database or
// the viewer's zone on its own; callers pass "now" and a *time.Location in.
package nutrition

import (
	"math"

	"github.com/sakif/nutri-track/internal/model"
)

// Energy density used to turn grams back into calories.
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9

	fatGramsPerKg = 1.0

	// General adult guideline shown next to the personal target.
	GuidelineProteinPerKg  = 0.8
	GuidelineProteinNoData = 56
)

// MacroTargets are daily gram targets. Carbs may be zero or negative when the
// calorie goal is small relative to body weight; it is not clamped.
type MacroTargets struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

// DefaultTargets apply when the profile has no weight.
var DefaultTargets = MacroTargets{Protein: 150, Carbs: 200, Fat: 60}

var proteinPerKg = map[model.ActivityLevel]float64{
	model.ActivitySedentary:        0.8,
	model.ActivityLightlyActive:    1.2,
	model.ActivityModeratelyActive: 1.6,
	model.ActivityVeryActive:       2.0,
	model.ActivityExtremelyActive:  2.2,
}

// ProteinMultiplier returns grams of protein per kg for a level. An unset or
// unrecognised level falls back to moderately_active.
func ProteinMultiplier(level model.ActivityLevel) float64 {
	if m, ok := proteinPerKg[level]; ok {
		return m
	}
	return proteinPerKg[model.ActivityModeratelyActive]
}

// CalculateMacroTargets derives protein and fat from body weight and gives
// carbs whatever calories remain under the daily goal.
func CalculateMacroTargets(p model.Profile) MacroTargets {
	if p.Weight == nil || *p.Weight <= 0 {
		return DefaultTargets
	}
	weight := *p.Weight

	protein := int(roundHalfUp(weight * ProteinMultiplier(p.ActivityLevel)))
	fat := int(roundHalfUp(weight * fatGramsPerKg))

	remaining := p.DailyCalorieGoal - float64(protein*KcalPerGramProtein) - float64(fat*KcalPerGramFat)
	carbs := int(roundHalfUp(remaining / KcalPerGramCarbs))

	return MacroTargets{Protein: protein, Carbs: carbs, Fat: fat}
}

// RecommendedProtein is the population guideline of 0.8 g/kg.
func RecommendedProtein(weight *float64) int {
	if weight == nil || *weight <= 0 {
		return GuidelineProteinNoData
	}
	return int(roundHalfUp(*weight * GuidelineProteinPerKg))
}

// roundHalfUp rounds .5 toward +Inf, so 230.5 -> 231 and -2.5 -> -2.
// math.Round would send -2.5 to -3.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
