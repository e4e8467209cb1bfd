// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"math"
)

// Nutrients is a nutrition vector: energy in kcal, macros in grams.
// Fiber is zero when a source does not report it.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Add returns the elementwise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
	}
}

// Scale multiplies every component by factor. Scale(1) returns n unchanged.
func (n Nutrients) Scale(factor float64) Nutrients {
	return Nutrients{
		Calories: n.Calories * factor,
		Protein:  n.Protein * factor,
		Carbs:    n.Carbs * factor,
		Fat:      n.Fat * factor,
		Fiber:    n.Fiber * factor,
	}
}

// Round1 rounds every component to one decimal place for display.
func (n Nutrients) Round1() Nutrients {
	r := func(v float64) float64 { return math.Round(v*10) / 10 }
	return Nutrients{
		Calories: r(n.Calories),
		Protein:  r(n.Protein),
		Carbs:    r(n.Carbs),
		Fat:      r(n.Fat),
		Fiber:    r(n.Fiber),
	}
}

// Validate reports the first component that is negative, NaN or infinite.
// It returns the JSON field name alongside the error.
func (n Nutrients) Validate() (string, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{"calories", n.Calories},
		{"protein", n.Protein},
		{"carbs", n.Carbs},
		{"fat", n.Fat},
		{"fiber", n.Fiber},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return f.name, fmt.Errorf("%s must be a finite number", f.name)
		}
		if f.value < 0 {
			return f.name, fmt.Errorf("%s must not be negative", f.name)
		}
	}
	return "", nil
}
