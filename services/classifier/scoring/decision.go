// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scoring turns raw model probabilities into catalog
// dispositions with calibrated confidence.
package scoring

import (
	"fmt"
	"math"
)

// Class is the predicted disposition for a scored row.
type Class int

const (
	ClassFalsePositive Class = 0
	ClassCandidate     Class = 1
	ClassConfirmed     Class = 2
)

func (c Class) String() string {
	switch c {
	case ClassFalsePositive:
		return "FALSE POSITIVE"
	case ClassCandidate:
		return "CANDIDATE"
	case ClassConfirmed:
		return "CONFIRMED"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// ConfigError reports an invalid scoring configuration, such as
// inconsistent thresholds or a catalog the bundle was not trained on.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scoring configuration: %s: %s", e.Field, e.Reason)
}

// Thresholds are the probability cut points of the decision policy.
// Candidate must be strictly below Confirmed.
type Thresholds struct {
	Candidate float64 `json:"candidate" yaml:"candidate" validate:"gte=0,lte=1"`
	Confirmed float64 `json:"confirmed" yaml:"confirmed" validate:"gte=0,lte=1"`
}

// DefaultThresholds returns the production cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{Candidate: 0.4, Confirmed: 0.7}
}

// Validate checks the cut points are ordered and within [0, 1].
func (t Thresholds) Validate() error {
	if math.IsNaN(t.Candidate) || t.Candidate < 0 || t.Candidate > 1 {
		return &ConfigError{Field: "candidate_threshold", Reason: fmt.Sprintf("must be in [0, 1], got %g", t.Candidate)}
	}
	if math.IsNaN(t.Confirmed) || t.Confirmed < 0 || t.Confirmed > 1 {
		return &ConfigError{Field: "confirmed_threshold", Reason: fmt.Sprintf("must be in [0, 1], got %g", t.Confirmed)}
	}
	if t.Confirmed <= t.Candidate {
		return &ConfigError{
			Field:  "confirmed_threshold",
			Reason: fmt.Sprintf("must be greater than candidate_threshold (%g <= %g)", t.Confirmed, t.Candidate),
		}
	}
	return nil
}

// Decide maps a probability to its disposition class. Rows at or above
// Confirmed are CONFIRMED, rows at or above Candidate are CANDIDATE,
// the rest are FALSE POSITIVE.
func (t Thresholds) Decide(probability float64) Class {
	switch {
	case probability >= t.Confirmed:
		return ClassConfirmed
	case probability >= t.Candidate:
		return ClassCandidate
	default:
		return ClassFalsePositive
	}
}

// Confidence scores how far a probability sits from the nearest
// decision boundary, in [0, 1].
//
// Below the candidate threshold the score grows linearly toward zero
// probability. Above the confirmed threshold it grows linearly toward
// one. Between the thresholds the candidate band is split at its
// midpoint and each half gets a quadratic bump, so confidence peaks in
// the centre of each half-band and vanishes at every boundary.
func (t Thresholds) Confidence(probability float64) float64 {
	if math.IsNaN(probability) || math.IsInf(probability, 0) {
		return 0
	}
	p := clamp01(probability)
	midpoint := t.Candidate + (t.Confirmed-t.Candidate)/2

	var confidence float64
	switch {
	case p < t.Candidate:
		if t.Candidate <= 0 {
			return 1
		}
		confidence = 1 - p/t.Candidate
	case p < midpoint:
		span := midpoint - t.Candidate
		if span > 0 {
			ratio := (p - t.Candidate) / span
			confidence = 4 * ratio * (1 - ratio)
		}
	case p < t.Confirmed:
		span := t.Confirmed - midpoint
		if span > 0 {
			ratio := (p - midpoint) / span
			confidence = 4 * ratio * (1 - ratio)
		}
	default:
		if t.Confirmed >= 1 {
			return 1
		}
		confidence = (p - t.Confirmed) / (1 - t.Confirmed)
	}
	return clamp01(confidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
