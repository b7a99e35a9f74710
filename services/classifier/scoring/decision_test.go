// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"errors"
	"math"
	"testing"
)

const confidenceTol = 1e-12

// =============================================================================
// Class
// =============================================================================

func TestClass_String(t *testing.T) {
	tests := []struct {
		class Class
		want  string
	}{
		{ClassFalsePositive, "FALSE POSITIVE"},
		{ClassCandidate, "CANDIDATE"},
		{ClassConfirmed, "CONFIRMED"},
		{Class(9), "Class(9)"},
	}
	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("Class(%d).String() = %q, want %q", int(tt.class), got, tt.want)
		}
	}
}

// =============================================================================
// Thresholds.Validate
// =============================================================================

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name      string
		t         Thresholds
		wantField string
	}{
		{name: "defaults", t: DefaultThresholds()},
		{name: "tight ordering", t: Thresholds{Candidate: 0.49, Confirmed: 0.5}},
		{name: "candidate negative", t: Thresholds{Candidate: -0.1, Confirmed: 0.7}, wantField: "candidate_threshold"},
		{name: "candidate above one", t: Thresholds{Candidate: 1.1, Confirmed: 1.2}, wantField: "candidate_threshold"},
		{name: "candidate NaN", t: Thresholds{Candidate: math.NaN(), Confirmed: 0.7}, wantField: "candidate_threshold"},
		{name: "confirmed above one", t: Thresholds{Candidate: 0.4, Confirmed: 1.5}, wantField: "confirmed_threshold"},
		{name: "confirmed NaN", t: Thresholds{Candidate: 0.4, Confirmed: math.NaN()}, wantField: "confirmed_threshold"},
		{name: "equal thresholds", t: Thresholds{Candidate: 0.5, Confirmed: 0.5}, wantField: "confirmed_threshold"},
		{name: "inverted thresholds", t: Thresholds{Candidate: 0.7, Confirmed: 0.4}, wantField: "confirmed_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.t.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("ConfigError.Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

// =============================================================================
// Decide
// =============================================================================

func TestThresholds_Decide(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		probability float64
		want        Class
	}{
		{0.0, ClassFalsePositive},
		{0.39999, ClassFalsePositive},
		{0.4, ClassCandidate}, // at-threshold rows promote
		{0.5, ClassCandidate},
		{0.69999, ClassCandidate},
		{0.7, ClassConfirmed},
		{1.0, ClassConfirmed},
	}
	for _, tt := range tests {
		if got := th.Decide(tt.probability); got != tt.want {
			t.Errorf("Decide(%g) = %v, want %v", tt.probability, got, tt.want)
		}
	}
}

// =============================================================================
// Confidence
// =============================================================================

func TestThresholds_Confidence(t *testing.T) {
	th := DefaultThresholds() // candidate 0.4, confirmed 0.7, midpoint 0.55
	tests := []struct {
		name        string
		probability float64
		want        float64
	}{
		{name: "certain false positive", probability: 0.0, want: 1.0},
		{name: "halfway to candidate", probability: 0.2, want: 0.5},
		{name: "at candidate boundary", probability: 0.4, want: 0.0},
		{name: "lower half-band", probability: 0.5, want: 8.0 / 9.0},
		{name: "lower half-band peak", probability: 0.475, want: 1.0},
		{name: "at band midpoint", probability: 0.55, want: 0.0},
		{name: "upper half-band peak", probability: 0.625, want: 1.0},
		{name: "approaching confirmed", probability: 0.7 - 1e-9, want: 0.0},
		{name: "at confirmed boundary", probability: 0.7, want: 0.0},
		{name: "inside confirmed band", probability: 0.75, want: 1.0 / 6.0},
		{name: "certain confirmed", probability: 1.0, want: 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.Confidence(tt.probability)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Confidence(%g) = %.9f, want %.9f", tt.probability, got, tt.want)
			}
		})
	}
}

func TestThresholds_Confidence_NonFinite(t *testing.T) {
	th := DefaultThresholds()
	for _, p := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := th.Confidence(p); got != 0 {
			t.Errorf("Confidence(%g) = %g, want 0", p, got)
		}
	}
}

func TestThresholds_Confidence_ClampsProbability(t *testing.T) {
	th := DefaultThresholds()
	if got := th.Confidence(-0.5); got != 1.0 {
		t.Errorf("Confidence(-0.5) = %g, want 1 (clamps to 0)", got)
	}
	if got := th.Confidence(1.5); got != 1.0 {
		t.Errorf("Confidence(1.5) = %g, want 1 (clamps to 1)", got)
	}
}

func TestThresholds_Confidence_DegenerateCutPoints(t *testing.T) {
	// A zero candidate threshold has no false-positive band to measure
	// distance in; anything below it scores full confidence.
	zero := Thresholds{Candidate: 0, Confirmed: 0.5}
	if got := zero.Confidence(0); math.Abs(got-0) > confidenceTol {
		// p == 0 is not below candidate; it lands at the band edge.
		t.Errorf("Confidence(0) = %g, want 0", got)
	}

	// A confirmed threshold of 1 leaves no headroom above it.
	one := Thresholds{Candidate: 0.4, Confirmed: 1}
	if got := one.Confidence(1); got != 1 {
		t.Errorf("Confidence(1) = %g, want 1", got)
	}
}
