package recognition

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"surrounded by prose", `Here you go: {"name":"Dal"} thanks`, `{"name":"Dal"}`, true},
		{"markdown fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{"nested objects", `x {"a":{"b":{"c":3}},"d":4} y`, `{"a":{"b":{"c":3}},"d":4}`, true},
		{"braces in strings", `{"name":"Curry {mild}","n":"}"}`, `{"name":"Curry {mild}","n":"}"}`, true},
		{"escaped quote in string", `{"name":"5\" pizza {","x":1} tail}`, `{"name":"5\" pizza {","x":1}`, true},
		{"first of two objects", `{"a":1} and {"b":2}`, `{"a":1}`, true},
		{"no braces", "no json here", "", false},
		{"unbalanced", `{"a":{"b":1}`, "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func FuzzExtractJSONObject(f *testing.F) {
	f.Add(`Here you go: {"name":"Dal","calories":250} thanks`)
	f.Add(`{"a":"}{"}`)
	f.Add(`{{{`)
	f.Fuzz(func(t *testing.T, s string) {
		obj, ok := ExtractJSONObject(s)
		if !ok {
			return
		}
		if !strings.Contains(s, obj) {
			t.Fatalf("extracted %q is not a substring of %q", obj, s)
		}
		if obj[0] != '{' || obj[len(obj)-1] != '}' {
			t.Fatalf("extracted %q is not brace-delimited", obj)
		}
	})
}

func TestParseEstimate(t *testing.T) {
	est, err := ParseEstimate(`Sure! {"name":" Masala Dosa ","calories":387.5,"protein":9,"carbs":52.2,` +
		`"fat":15.1,"fiber":4,"serving_size":1,"serving_unit":"plates","confidence":"HIGH"}`)
	require.NoError(t, err)
	assert.Equal(t, &Estimate{
		Name:        "Masala Dosa",
		Calories:    387.5,
		Protein:     9,
		Carbs:       52.2,
		Fat:         15.1,
		Fiber:       4,
		ServingSize: 1,
		ServingUnit: "plates",
		Confidence:  model.ConfidenceHigh,
	}, est)
}

func TestParseEstimate_Defaults(t *testing.T) {
	est, err := ParseEstimate(`{"name":"Chai","calories":90,"serving_size":0}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, est.ServingSize)
	assert.Equal(t, model.ConfidenceLow, est.Confidence)
	assert.Zero(t, est.Fiber)
	assert.Equal(t, "1 servings", est.ServingDescription())
}

func TestParseEstimate_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no object", "Sorry, I can't see any food."},
		{"invalid json", `{"name": Dal}`},
		{"missing name", `{"calories":100}`},
		{"blank name", `{"name":"  ","calories":100}`},
		{"missing calories", `{"name":"Dal"}`},
		{"negative fat", `{"name":"Dal","calories":100,"fat":-1}`},
		{"unknown confidence", `{"name":"Dal","calories":100,"confidence":"certain"}`},
		{"calories as string", `{"name":"Dal","calories":"lots"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := ParseEstimate(tt.content)
			assert.Nil(t, est)
			assert.ErrorIs(t, err, apperror.ErrMalformedResponse)
		})
	}
}

func TestEstimate_NutrientsAndDescription(t *testing.T) {
	e := Estimate{Calories: 200, Protein: 5, Carbs: 30, Fat: 6, Fiber: 2, ServingSize: 1.5, ServingUnit: "plates"}
	assert.Equal(t, model.Nutrients{Calories: 200, Protein: 5, Carbs: 30, Fat: 6, Fiber: 2}, e.Nutrients())
	assert.Equal(t, "1.5 plates", e.ServingDescription())
}

func TestStatusError(t *testing.T) {
	err := NewStatusError(500, []byte(strings.Repeat("a", 5000)))
	assert.Len(t, err.Body, 4096)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.Contains(t, err.Error(), "status 500")
}

func TestDataURL(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	got, err := DataURL(png, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"), got)

	heic := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic")
	got, err = DataURL(heic, "image/heic")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/heic;base64,"), got)

	_, err = DataURL([]byte("just some text"), "text/plain")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = DataURL([]byte("#!/bin/sh\necho hi"), "image/png")
	assert.ErrorIs(t, err, apperror.ErrValidation, "text must not pass as an image")

	_, err = DataURL(nil, "image/png")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestValidateImageRef(t *testing.T) {
	valid := []string{
		"data:image/jpeg;base64,/9j/4AAQ",
		"https://example.com/dal.jpg",
		"http://localhost:9000/x.png",
	}
	for _, ref := range valid {
		assert.NoError(t, ValidateImageRef(ref), ref)
	}

	invalid := []string{
		"",
		"data:text/plain;base64,aGk=",
		"data:image/png;base64,",
		"data:image/png,rawbytes",
		"ftp://example.com/x.png",
		"dal.jpg",
	}
	for _, ref := range invalid {
		assert.ErrorIs(t, ValidateImageRef(ref), apperror.ErrValidation, ref)
	}
}
