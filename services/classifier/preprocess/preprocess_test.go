// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package preprocess

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
)

// vecWith builds a feature vector that is NaN everywhere except the
// given column.
func vecWith(col int, value float64) catalog.FeatureVector {
	var v catalog.FeatureVector
	for i := range v {
		v[i] = math.NaN()
	}
	v[col] = value
	return v
}

func TestPolicyForGroup(t *testing.T) {
	policy, err := PolicyForGroup(catalog.GroupKepler)
	require.NoError(t, err)
	require.Equal(t, ScaleStandard, policy)

	policy, err = PolicyForGroup(catalog.GroupToiK2)
	require.NoError(t, err)
	require.Equal(t, ScaleRobust, policy)

	_, err = PolicyForGroup("hubble")
	require.Error(t, err)
}

func TestFit_Standard(t *testing.T) {
	features := []catalog.FeatureVector{
		vecWith(catalog.FeatOrbitalPeriod, 2),
		vecWith(catalog.FeatOrbitalPeriod, 4),
		vecWith(catalog.FeatOrbitalPeriod, 6),
	}

	fitted, err := Fit(catalog.GroupKepler, features)
	require.NoError(t, err)
	require.Equal(t, ScaleStandard, fitted.Policy)
	require.Equal(t, 3, fitted.FitRows)

	col := catalog.FeatOrbitalPeriod
	require.InDelta(t, 4.0, fitted.Impute[col], 1e-12) // median
	require.InDelta(t, 4.0, fitted.Center[col], 1e-12) // mean
	// Population stddev of {2,4,6} is sqrt(8/3).
	require.InDelta(t, math.Sqrt(8.0/3.0), fitted.Scale[col], 1e-12)

	// Fully missing columns fall back to impute 0, scale 1.
	other := catalog.FeatStellarMass
	require.Equal(t, 0.0, fitted.Impute[other])
	require.Equal(t, 1.0, fitted.Scale[other])
}

func TestFit_Robust(t *testing.T) {
	// 11 evenly spaced values: median 50, q10-q90 span 80.
	features := make([]catalog.FeatureVector, 0, 11)
	for i := 0; i <= 10; i++ {
		features = append(features, vecWith(catalog.FeatTransitDepth, float64(i*10)))
	}

	fitted, err := Fit(catalog.GroupToiK2, features)
	require.NoError(t, err)
	require.Equal(t, ScaleRobust, fitted.Policy)

	col := catalog.FeatTransitDepth
	require.InDelta(t, 50.0, fitted.Center[col], 1e-12)
	require.InDelta(t, 80.0, fitted.Scale[col], 1e-12)
}

func TestFit_Errors(t *testing.T) {
	_, err := Fit("hubble", []catalog.FeatureVector{{}})
	require.Error(t, err)

	_, err = Fit(catalog.GroupKepler, nil)
	require.Error(t, err)
}

func TestFit_ConstantColumnScalesByOne(t *testing.T) {
	features := []catalog.FeatureVector{
		vecWith(catalog.FeatInclination, 89.5),
		vecWith(catalog.FeatInclination, 89.5),
	}
	fitted, err := Fit(catalog.GroupKepler, features)
	require.NoError(t, err)
	require.Equal(t, 1.0, fitted.Scale[catalog.FeatInclination])

	out := fitted.Transform(vecWith(catalog.FeatInclination, 89.5))
	require.Equal(t, 0.0, out[catalog.FeatInclination])
}

func TestTransform_ImputesAndScales(t *testing.T) {
	features := []catalog.FeatureVector{
		vecWith(catalog.FeatOrbitalPeriod, 2),
		vecWith(catalog.FeatOrbitalPeriod, 4),
		vecWith(catalog.FeatOrbitalPeriod, 6),
	}
	fitted, err := Fit(catalog.GroupKepler, features)
	require.NoError(t, err)

	// Missing value imputes to the median (4), then is centered on the
	// mean (4): the result must be exactly 0.
	var missing catalog.FeatureVector
	for i := range missing {
		missing[i] = math.NaN()
	}
	out := fitted.Transform(missing)
	for col, v := range out {
		require.Falsef(t, math.IsNaN(v), "column %d still NaN after transform", col)
	}
	require.Equal(t, 0.0, out[catalog.FeatOrbitalPeriod])

	// An observed value scales as (v - mean) / stddev.
	out = fitted.Transform(vecWith(catalog.FeatOrbitalPeriod, 6))
	want := (6.0 - 4.0) / math.Sqrt(8.0/3.0)
	require.InDelta(t, want, out[catalog.FeatOrbitalPeriod], 1e-12)
}

func TestTransformMatrix(t *testing.T) {
	features := []catalog.FeatureVector{
		vecWith(catalog.FeatOrbitalPeriod, 1),
		vecWith(catalog.FeatOrbitalPeriod, 3),
	}
	fitted, err := Fit(catalog.GroupToiK2, features)
	require.NoError(t, err)

	rows := fitted.TransformMatrix(features)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], catalog.NumFeatures)
}

func TestGroupPreprocessor_JSONRoundTrip(t *testing.T) {
	features := []catalog.FeatureVector{
		vecWith(catalog.FeatOrbitalPeriod, 2),
		vecWith(catalog.FeatOrbitalPeriod, 8),
	}
	fitted, err := Fit(catalog.GroupToiK2, features)
	require.NoError(t, err)

	encoded, err := json.Marshal(fitted)
	require.NoError(t, err)

	var decoded GroupPreprocessor
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.NoError(t, decoded.Validate())
	require.Equal(t, *fitted, decoded)

	// Same inputs transform identically through the decoded copy.
	in := vecWith(catalog.FeatOrbitalPeriod, 5)
	require.Equal(t, fitted.Transform(in), decoded.Transform(in))
}

func TestValidate(t *testing.T) {
	good, err := Fit(catalog.GroupKepler, []catalog.FeatureVector{vecWith(0, 1), vecWith(0, 2)})
	require.NoError(t, err)
	require.NoError(t, good.Validate())

	bad := *good
	bad.Group = ""
	require.Error(t, bad.Validate())

	bad = *good
	bad.Policy = "log"
	require.Error(t, bad.Validate())

	bad = *good
	bad.Scale[3] = 0
	require.Error(t, bad.Validate())

	bad = *good
	bad.Scale[5] = math.NaN()
	require.Error(t, bad.Validate())
}
