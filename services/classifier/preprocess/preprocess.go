// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package preprocess fits and applies per-group feature transforms.
//
// # Description
//
// Each dataset-type group gets its own imputation and scaling transform
// because the surveys differ in typical ranges and outlier behavior.
// Missing values impute to the per-group column median; scaling is
// either centered (mean/standard deviation) for the low-outlier Kepler
// group or robust (median and the 10th-90th percentile span) for the
// heavier-tailed K2/TOI group.
//
// # Thread Safety
//
// A GroupPreprocessor is immutable after Fit and safe for concurrent
// Transform calls. Transform is a pure per-column affine map with no
// cross-row interaction.
package preprocess

import (
	"fmt"
	"math"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
)

// ScalePolicy selects the per-column scaling formula for a group.
//
// The two-policy split is an explicit, reviewed decision for the
// current surveys. Adding a third policy should be a deliberate code
// change, not a plugin.
type ScalePolicy string

const (
	// ScaleStandard subtracts the column mean and divides by the
	// population standard deviation.
	ScaleStandard ScalePolicy = "standard"

	// ScaleRobust subtracts the column median and divides by the span
	// between the 10th and 90th percentiles, so tail outliers do not
	// dominate the scale estimate.
	ScaleRobust ScalePolicy = "robust"
)

// robust percentile bounds for ScaleRobust.
const (
	robustLowerQuantile = 0.10
	robustUpperQuantile = 0.90
)

// PolicyForGroup returns the scaling policy assigned to a dataset-type
// group key.
func PolicyForGroup(group string) (ScalePolicy, error) {
	switch group {
	case catalog.GroupKepler:
		return ScaleStandard, nil
	case catalog.GroupToiK2:
		return ScaleRobust, nil
	}
	return "", fmt.Errorf("no scaling policy for dataset group %q", group)
}

// GroupPreprocessor is a fitted imputation+scaling transform for one
// dataset-type group. All fields are exported for artifact
// serialization and must not be mutated after Fit.
type GroupPreprocessor struct {
	// Group is the dataset-type group key this transform was fit on.
	Group string `json:"group"`

	// Policy is the scaling formula in effect.
	Policy ScalePolicy `json:"policy"`

	// Impute holds the per-column fill value (the fitting median).
	Impute [catalog.NumFeatures]float64 `json:"impute"`

	// Center holds the per-column offset (mean or median by policy).
	Center [catalog.NumFeatures]float64 `json:"center"`

	// Scale holds the per-column divisor (standard deviation or
	// percentile span by policy). Degenerate columns record 1 so the
	// transform stays total.
	Scale [catalog.NumFeatures]float64 `json:"scale"`

	// FitRows is the number of rows the transform was fit on.
	FitRows int `json:"fit_rows"`
}

// Fit computes a GroupPreprocessor from a group's canonical feature
// vectors.
//
// # Description
//
// Statistics are computed per column over observed (non-NaN) values
// only, so missingness never contaminates the estimates. A column with
// no observed values imputes 0 and scales by 1. Fitting sorts copies
// of the data and is order-independent in rows.
//
// # Inputs
//
//   - group: Dataset-type group key (selects the scaling policy).
//   - features: The group's training feature vectors.
//
// # Outputs
//
//   - *GroupPreprocessor: The fitted transform.
//   - error: Non-nil when the group has no policy or no rows.
func Fit(group string, features []catalog.FeatureVector) (*GroupPreprocessor, error) {
	policy, err := PolicyForGroup(group)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("cannot fit preprocessor for group %q: no rows", group)
	}

	fitted := &GroupPreprocessor{Group: group, Policy: policy, FitRows: len(features)}
	column := make([]float64, len(features))

	for col := 0; col < catalog.NumFeatures; col++ {
		for row, vector := range features {
			column[row] = vector[col]
		}
		sorted := observed(column)
		med := median(sorted)
		fitted.Impute[col] = med

		switch policy {
		case ScaleStandard:
			m := mean(sorted)
			fitted.Center[col] = m
			fitted.Scale[col] = safeScale(stddev(sorted, m))
		case ScaleRobust:
			fitted.Center[col] = med
			span := quantile(sorted, robustUpperQuantile) - quantile(sorted, robustLowerQuantile)
			fitted.Scale[col] = safeScale(span)
		}
	}
	return fitted, nil
}

// Transform maps one canonical feature vector into model space:
// missing values are imputed, then every column is centered and
// scaled. The result never contains NaN.
func (p *GroupPreprocessor) Transform(vector catalog.FeatureVector) [catalog.NumFeatures]float64 {
	var out [catalog.NumFeatures]float64
	for col, value := range vector {
		if math.IsNaN(value) {
			value = p.Impute[col]
		}
		out[col] = (value - p.Center[col]) / p.Scale[col]
	}
	return out
}

// TransformMatrix applies Transform row-wise, returning rows as slices
// ready for model consumption.
func (p *GroupPreprocessor) TransformMatrix(vectors []catalog.FeatureVector) [][]float64 {
	rows := make([][]float64, len(vectors))
	for i, vector := range vectors {
		transformed := p.Transform(vector)
		row := make([]float64, catalog.NumFeatures)
		copy(row, transformed[:])
		rows[i] = row
	}
	return rows
}

// Validate checks that a deserialized transform is usable.
func (p *GroupPreprocessor) Validate() error {
	if p.Group == "" {
		return fmt.Errorf("preprocessor missing group key")
	}
	if p.Policy != ScaleStandard && p.Policy != ScaleRobust {
		return fmt.Errorf("preprocessor for group %q has unknown policy %q", p.Group, p.Policy)
	}
	for col, scale := range p.Scale {
		if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
			return fmt.Errorf("preprocessor for group %q has invalid scale in column %d", p.Group, col)
		}
	}
	return nil
}

// safeScale guards division: zero, NaN, or infinite spreads collapse
// to 1 so degenerate columns pass through centered but unscaled.
func safeScale(scale float64) float64 {
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 1
	}
	return scale
}
