package model

import (
	"fmt"
	"strings"
	"time"
)

// ActivityLevel is the closed set used to pick a protein multiplier.
// The zero value means the user has not said.
type ActivityLevel string

const (
	ActivityUnset            ActivityLevel = ""
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityExtremelyActive  ActivityLevel = "extremely_active"
)

// ParseActivityLevel maps "" to ActivityUnset and rejects anything unknown.
func ParseActivityLevel(s string) (ActivityLevel, error) {
	switch a := ActivityLevel(strings.ToLower(strings.TrimSpace(s))); a {
	case ActivityUnset, ActivitySedentary, ActivityLightlyActive,
		ActivityModeratelyActive, ActivityVeryActive, ActivityExtremelyActive:
		return a, nil
	default:
		return "", fmt.Errorf("unknown activity level %q", s)
	}
}

type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderUnset, GenderMale, GenderFemale, GenderOther:
		return g, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

// Profile is the per-user onboarding data the targets are derived from.
// Optional measurements are nil when the user skipped them.
type Profile struct {
	UserID           string        `json:"userId"`
	DailyCalorieGoal float64       `json:"dailyCalorieGoal"`
	Weight           *float64      `json:"weight,omitempty"` // kg
	Height           *float64      `json:"height,omitempty"` // cm
	Age              *int          `json:"age,omitempty"`
	Gender           Gender        `json:"gender,omitempty"`
	ActivityLevel    ActivityLevel `json:"activityLevel,omitempty"`
	Username         string        `json:"username,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
