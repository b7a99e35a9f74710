// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trainer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/ensemble"
)

// syntheticDatasets builds two-catalog data where short orbital periods
// mark false positives and long ones mark confirmed planets, with a
// little deterministic jitter so columns are not constant.
func syntheticDatasets(perClass int, withCandidates bool) []catalog.Dataset {
	build := func(catalogName, group string, offset float64) catalog.Dataset {
		dataset := catalog.Dataset{Catalog: catalogName, Group: group}
		for i := 0; i < perClass; i++ {
			jitter := float64(i%7) * 0.05
			neg := emptyVector()
			neg[catalog.FeatOrbitalPeriod] = 2.0 + jitter + offset
			neg[catalog.FeatPlanetRadius] = 10.0 + jitter
			dataset.Examples = append(dataset.Examples, catalog.Example{
				Features: neg, Label: 0, Catalog: catalogName, Group: group,
			})

			pos := emptyVector()
			pos[catalog.FeatOrbitalPeriod] = 40.0 + jitter + offset
			pos[catalog.FeatPlanetRadius] = 1.5 + jitter
			dataset.Examples = append(dataset.Examples, catalog.Example{
				Features: pos, Label: 1, Catalog: catalogName, Group: group,
			})
		}
		if withCandidates {
			for i := 0; i < perClass/4; i++ {
				cand := emptyVector()
				cand[catalog.FeatOrbitalPeriod] = 35.0 + float64(i)
				cand[catalog.FeatPlanetRadius] = 2.0
				dataset.Examples = append(dataset.Examples, catalog.Example{
					Features: cand, Label: 1, IsCandidate: true, Catalog: catalogName, Group: group,
				})
			}
		}
		return dataset
	}
	return []catalog.Dataset{
		build("kepler", catalog.GroupKepler, 0),
		build("toi", catalog.GroupToiK2, 1.0),
	}
}

func emptyVector() catalog.FeatureVector {
	var v catalog.FeatureVector
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

func testCapability() ensemble.Capability {
	return ensemble.NewBooster(ensemble.Params{
		Trees:           20,
		LearningRate:    0.15,
		MaxDepth:        3,
		MinChildSamples: 4,
		Lambda:          1.0,
		Subsample:       1.0,
		Colsample:       1.0,
		Seed:            7,
	})
}

// =============================================================================
// New
// =============================================================================

func TestNew_Defaults(t *testing.T) {
	trainer, err := New(Config{Capability: testCapability()})
	require.NoError(t, err)
	require.Equal(t, 5, trainer.folds)
	require.Equal(t, 1.0, trainer.candidateWeight)
	require.Equal(t, uint64(42), trainer.seed)
	require.False(t, trainer.includeCands)
	require.NotNil(t, trainer.log)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Folds: 1, Capability: testCapability()})
	require.Error(t, err)

	_, err = New(Config{CandidateWeight: -0.5, Capability: testCapability()})
	require.Error(t, err)
}

func TestNew_NoCapabilityAnywhere(t *testing.T) {
	previous := ensemble.Default()
	ensemble.SetDefault(nil)
	t.Cleanup(func() { ensemble.SetDefault(previous) })

	_, err := New(Config{})
	require.Error(t, err)
	require.ErrorIs(t, err, ensemble.ErrCapabilityUnavailable)
}

func TestNew_FallsBackToDefaultCapability(t *testing.T) {
	trainer, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, trainer.capability)
}

// =============================================================================
// Train
// =============================================================================

func TestTrain_EndToEnd(t *testing.T) {
	trainer, err := New(Config{Folds: 3, Capability: testCapability()})
	require.NoError(t, err)

	datasets := syntheticDatasets(30, false)
	artifact, report, err := trainer.Train(context.Background(), datasets)
	require.NoError(t, err)
	require.NotNil(t, artifact)
	require.NotNil(t, report)

	require.NoError(t, artifact.Validate())
	require.NotEmpty(t, artifact.RunID)
	require.Equal(t, artifact.RunID, report.RunID)
	require.Equal(t, catalog.NumFeatures+1, artifact.Model.NumFeatures)
	require.Len(t, artifact.GroupIDs, 2)
	require.Contains(t, artifact.GroupIDs, catalog.GroupKepler)
	require.Contains(t, artifact.GroupIDs, catalog.GroupToiK2)

	require.Len(t, report.Folds, 3)
	for i, fold := range report.Folds {
		require.Greaterf(t, fold.Accuracy, 0.9, "fold %d accuracy on separable data", i+1)
		require.Greaterf(t, fold.ROCAUC, 0.9, "fold %d roc_auc on separable data", i+1)
	}
	require.Greater(t, report.Summary.Mean.Accuracy, 0.9)
	require.Contains(t, report.Groups, catalog.GroupKepler)
	require.Contains(t, report.Groups, catalog.GroupToiK2)

	require.Len(t, report.Overview, 2)
	require.Equal(t, "kepler", report.Overview[0].Catalog)
	require.Equal(t, "toi", report.Overview[1].Catalog)
	require.Equal(t, 30, report.Overview[0].Positives)
	require.Equal(t, 30, report.Overview[0].Negatives)
}

func TestTrain_CandidatesExcludedByDefault(t *testing.T) {
	trainer, err := New(Config{Folds: 3, Capability: testCapability()})
	require.NoError(t, err)

	datasets := syntheticDatasets(24, true)
	artifact, report, err := trainer.Train(context.Background(), datasets)
	require.NoError(t, err)
	require.NotNil(t, artifact)
	require.False(t, report.IncludeCandidates)

	// The overview reports the loaded data, candidates included.
	require.Equal(t, 6, report.Overview[0].Candidates)
}

func TestTrain_CandidatesWeighted(t *testing.T) {
	trainer, err := New(Config{
		Folds:             3,
		IncludeCandidates: true,
		CandidateWeight:   0.35,
		Capability:        testCapability(),
	})
	require.NoError(t, err)

	datasets := syntheticDatasets(24, true)
	artifact, report, err := trainer.Train(context.Background(), datasets)
	require.NoError(t, err)
	require.NoError(t, artifact.Validate())
	require.True(t, report.IncludeCandidates)
	require.Equal(t, 0.35, report.CandidateWeight)
	require.Greater(t, report.Summary.Mean.ROCAUC, 0.9)
}

func TestTrain_SameSeedSameFolds(t *testing.T) {
	datasets := syntheticDatasets(30, false)

	run := func() *Report {
		trainer, err := New(Config{Folds: 3, Seed: 11, Capability: testCapability()})
		require.NoError(t, err)
		_, report, err := trainer.Train(context.Background(), datasets)
		require.NoError(t, err)
		return report
	}

	first := run()
	second := run()
	require.Equal(t, first.Folds, second.Folds)
	require.Equal(t, first.Summary, second.Summary)
}

func TestTrain_NoData(t *testing.T) {
	trainer, err := New(Config{Capability: testCapability()})
	require.NoError(t, err)

	_, _, err = trainer.Train(context.Background(), nil)
	require.Error(t, err)
}

func TestTrain_OnlyCandidates(t *testing.T) {
	trainer, err := New(Config{IncludeCandidates: true, Capability: testCapability()})
	require.NoError(t, err)

	vec := emptyVector()
	vec[catalog.FeatOrbitalPeriod] = 12.0
	datasets := []catalog.Dataset{{
		Catalog: "toi",
		Group:   catalog.GroupToiK2,
		Examples: []catalog.Example{
			{Features: vec, Label: 1, IsCandidate: true, Catalog: "toi", Group: catalog.GroupToiK2},
		},
	}}

	_, _, err = trainer.Train(context.Background(), datasets)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolved dispositions")
}

func TestTrain_TooFewRowsPerClass(t *testing.T) {
	trainer, err := New(Config{Folds: 10, Capability: testCapability()})
	require.NoError(t, err)

	_, _, err = trainer.Train(context.Background(), syntheticDatasets(4, false))
	require.Error(t, err)
}

func TestTrain_CancelledContext(t *testing.T) {
	trainer, err := New(Config{Folds: 3, Capability: testCapability()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = trainer.Train(ctx, syntheticDatasets(30, false))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}
