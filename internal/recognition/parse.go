package recognition

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
)

// rawEstimate mirrors the JSON the model is prompted to produce. Pointers
// separate a missing field from an explicit zero.
type rawEstimate struct {
	Name        *string  `json:"name"`
	Calories    *float64 `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fat         *float64 `json:"fat"`
	Fiber       *float64 `json:"fiber"`
	ServingSize *float64 `json:"serving_size"`
	ServingUnit string   `json:"serving_unit"`
	Confidence  string   `json:"confidence"`
}

// ParseEstimate extracts the first JSON object from the model's text answer
// and validates it. Any failure is apperror.ErrMalformedResponse; no partial
// estimate is returned.
func ParseEstimate(content string) (*Estimate, error) {
	obj, ok := ExtractJSONObject(content)
	if !ok {
		return nil, apperror.MalformedResponse("no JSON object in recognition response")
	}

	var raw rawEstimate
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, apperror.MalformedResponse(fmt.Sprintf("decoding recognition response: %v", err))
	}

	if raw.Name == nil || strings.TrimSpace(*raw.Name) == "" {
		return nil, apperror.MalformedResponse("recognition response has no dish name")
	}
	if raw.Calories == nil {
		return nil, apperror.MalformedResponse("recognition response has no calories")
	}

	est := &Estimate{
		Name:        strings.TrimSpace(*raw.Name),
		Calories:    *raw.Calories,
		Protein:     deref(raw.Protein),
		Carbs:       deref(raw.Carbs),
		Fat:         deref(raw.Fat),
		Fiber:       deref(raw.Fiber),
		ServingSize: 1.0,
		ServingUnit: strings.TrimSpace(raw.ServingUnit),
		Confidence:  model.ConfidenceLow,
	}
	if field, err := est.Nutrients().Validate(); err != nil {
		return nil, apperror.MalformedResponse(fmt.Sprintf("recognition response field %s: %v", field, err))
	}

	if s := raw.ServingSize; s != nil && *s > 0 && !math.IsInf(*s, 0) {
		est.ServingSize = *s
	}
	if raw.Confidence != "" {
		c, err := model.ParseConfidence(raw.Confidence)
		if err != nil {
			return nil, apperror.MalformedResponse(err.Error())
		}
		est.Confidence = c
	}
	return est, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
