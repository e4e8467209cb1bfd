package model

import (
	"fmt"
	"strings"
	"time"
)

// MealType is the closed set of meal slots a meal can be logged under.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// ParseMealType accepts the four known slots, case-insensitively.
func ParseMealType(s string) (MealType, error) {
	switch t := MealType(strings.ToLower(strings.TrimSpace(s))); t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return t, nil
	default:
		return "", fmt.Errorf("unknown meal type %q", s)
	}
}

// Confidence is the recognition model's coarse certainty in an estimate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func ParseConfidence(s string) (Confidence, error) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, nil
	default:
		return "", fmt.Errorf("unknown confidence %q", s)
	}
}

// Serving records how a photo-logged meal was portioned. Factor is relative
// to the recognised baseline, which is always taken as 1.0.
type Serving struct {
	Factor     float64    `json:"factor"`
	Estimated  string     `json:"estimated,omitempty"` // e.g. "1.5 plates"
	Unit       string     `json:"unit,omitempty"`
	Confidence Confidence `json:"confidence,omitempty"`
}

// Meal is one logged meal. A meal belongs to exactly one user and one type.
type Meal struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Nutrients           // embedded so the vector serialises flat
	Type      MealType  `json:"mealType"`
	LoggedAt  time.Time `json:"loggedAt"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Serving   *Serving  `json:"serving,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
