// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package trainer fits the shared transit classifier across catalogs.
//
// # Description
//
// Training assembles one matrix from every catalog: each row is its
// group's preprocessed feature vector with the group's integer id
// appended as an extra column. The boosting ensemble can split on the
// indicator wherever surveys systematically differ while sharing tree
// structure everywhere else, which is how one model serves three
// catalogs without training three models.
//
// Evaluation is stratified k-fold cross-validation over rows with
// resolved dispositions only; candidate rows may join each fold's
// training side (weighted) but are never evaluation targets. Every
// fold refits its own preprocessors on its own training rows so no
// held-out statistics leak into imputation or scaling.
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/bundle"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/ensemble"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/preprocess"
)

// Config controls one training run.
type Config struct {
	// Folds is the stratified cross-validation fold count (default 5).
	Folds int

	// IncludeCandidates opts unresolved-disposition rows into the
	// training side as weak positive signal.
	IncludeCandidates bool

	// CandidateWeight is the sample weight candidate rows carry when
	// included (default 1.0; historical runs used 0.35).
	CandidateWeight float64

	// Capability overrides the boosting implementation. Nil uses the
	// process default.
	Capability ensemble.Capability

	// Seed fixes fold assignment for reproducible runs (default 42).
	Seed uint64

	// Logger receives progress events (nil uses slog.Default).
	Logger *slog.Logger
}

// Trainer runs training with a fixed configuration.
type Trainer struct {
	folds           int
	includeCands    bool
	candidateWeight float64
	capability      ensemble.Capability
	seed            uint64
	log             *slog.Logger
}

// New validates the configuration and resolves the boosting
// capability. Returns ensemble.ErrCapabilityUnavailable when no
// capability is configured; training never falls back to a weaker
// model.
func New(cfg Config) (*Trainer, error) {
	if cfg.Folds == 0 {
		cfg.Folds = 5
	}
	if cfg.Folds < 2 {
		return nil, fmt.Errorf("fold count must be at least 2, got %d", cfg.Folds)
	}
	if cfg.CandidateWeight == 0 {
		cfg.CandidateWeight = 1.0
	}
	if cfg.CandidateWeight < 0 {
		return nil, fmt.Errorf("candidate weight must be positive, got %g", cfg.CandidateWeight)
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	capability := cfg.Capability
	if capability == nil {
		capability = ensemble.Default()
	}
	if capability == nil {
		return nil, fmt.Errorf("cannot train: %w", ensemble.ErrCapabilityUnavailable)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Trainer{
		folds:           cfg.Folds,
		includeCands:    cfg.IncludeCandidates,
		candidateWeight: cfg.CandidateWeight,
		capability:      capability,
		seed:            cfg.Seed,
		log:             log,
	}, nil
}

// Train cross-validates and fits the final shared model.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - datasets: Loaded catalogs (see catalog.LoadAll).
//
// # Outputs
//
//   - *bundle.Bundle: The validated artifact bundle, ready to persist.
//   - *Report: Cross-validation metrics and dataset overviews.
//   - error: Non-nil on configuration, data, or capability failure.
//     No partial bundle is ever returned alongside an error.
func (t *Trainer) Train(ctx context.Context, datasets []catalog.Dataset) (*bundle.Bundle, *Report, error) {
	eligible := t.eligibleExamples(datasets)
	if len(eligible) == 0 {
		return nil, nil, fmt.Errorf("no eligible training rows after filtering")
	}

	groupIDs := bundle.AssignGroupIDs(groupKeys(eligible))

	certain := make([]catalog.Example, 0, len(eligible))
	candidates := make([]catalog.Example, 0)
	for _, example := range eligible {
		if example.IsCandidate {
			candidates = append(candidates, example)
		} else {
			certain = append(certain, example)
		}
	}
	if len(certain) == 0 {
		return nil, nil, fmt.Errorf("no rows with resolved dispositions; cannot evaluate")
	}

	certainLabels := make([]int, len(certain))
	for i, example := range certain {
		certainLabels[i] = example.Label
	}

	folds, err := stratifiedFolds(certainLabels, t.folds, t.seed)
	if err != nil {
		return nil, nil, err
	}

	foldMetrics := make([]Metrics, 0, len(folds))
	groupFolds := map[string][]Metrics{}

	for foldIdx, heldOut := range folds {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		trainExamples := gather(certain, trainIndexes(len(certain), heldOut))
		trainExamples = append(trainExamples, candidates...)

		preprocessors, err := t.fitPreprocessors(trainExamples)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", foldIdx+1, err)
		}

		features, labels, weights, err := t.designMatrix(trainExamples, preprocessors, groupIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", foldIdx+1, err)
		}
		model, err := t.capability.Fit(ctx, features, labels, weights)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", foldIdx+1, err)
		}

		heldExamples := gather(certain, heldOut)
		heldFeatures, heldLabels, _, err := t.designMatrix(heldExamples, preprocessors, groupIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", foldIdx+1, err)
		}
		probs, err := model.PredictProbaMatrix(heldFeatures)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", foldIdx+1, err)
		}

		metrics, err := ComputeMetrics(heldLabels, probs)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", foldIdx+1, err)
		}
		foldMetrics = append(foldMetrics, metrics)
		t.log.Info("fold evaluated", "fold", foldIdx+1, "held_out", len(heldExamples), "metrics", metrics.String())

		t.groupBreakdown(heldExamples, heldLabels, probs, groupFolds)
	}

	finalPreprocessors, err := t.fitPreprocessors(eligible)
	if err != nil {
		return nil, nil, err
	}
	features, labels, weights, err := t.designMatrix(eligible, finalPreprocessors, groupIDs)
	if err != nil {
		return nil, nil, err
	}
	model, err := t.capability.Fit(ctx, features, labels, weights)
	if err != nil {
		return nil, nil, fmt.Errorf("final fit: %w", err)
	}

	artifact := &bundle.Bundle{
		Model:         model,
		Preprocessors: finalPreprocessors,
		GroupIDs:      groupIDs,
		FeatureOrder:  catalog.FeatureOrder(),
		RunID:         uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := artifact.Validate(); err != nil {
		return nil, nil, fmt.Errorf("trained bundle failed validation: %w", err)
	}

	report := &Report{
		RunID:             artifact.RunID,
		Overview:          overviewFor(datasets),
		Folds:             foldMetrics,
		Summary:           Summarize(foldMetrics),
		Groups:            summarizeGroups(groupFolds),
		IncludeCandidates: t.includeCands,
		CandidateWeight:   t.candidateWeight,
	}
	return artifact, report, nil
}

// eligibleExamples flattens the datasets, dropping candidate rows
// unless they are opted in.
func (t *Trainer) eligibleExamples(datasets []catalog.Dataset) []catalog.Example {
	var eligible []catalog.Example
	for _, dataset := range datasets {
		for _, example := range dataset.Examples {
			if example.IsCandidate && !t.includeCands {
				continue
			}
			eligible = append(eligible, example)
		}
	}
	return eligible
}

// fitPreprocessors fits one transform per dataset-type group over the
// given rows only. Folds call this with their training rows so no
// held-out statistics leak into the transforms.
func (t *Trainer) fitPreprocessors(examples []catalog.Example) (map[string]*preprocess.GroupPreprocessor, error) {
	byGroup := map[string][]catalog.FeatureVector{}
	for _, example := range examples {
		byGroup[example.Group] = append(byGroup[example.Group], example.Features)
	}
	preprocessors := make(map[string]*preprocess.GroupPreprocessor, len(byGroup))
	for group, vectors := range byGroup {
		fitted, err := preprocess.Fit(group, vectors)
		if err != nil {
			return nil, err
		}
		preprocessors[group] = fitted
	}
	return preprocessors, nil
}

// designMatrix builds the model input: group-transformed features with
// the group id appended, plus labels and sample weights.
func (t *Trainer) designMatrix(
	examples []catalog.Example,
	preprocessors map[string]*preprocess.GroupPreprocessor,
	groupIDs map[string]int,
) (features [][]float64, labels []int, weights []float64, err error) {
	features = make([][]float64, len(examples))
	labels = make([]int, len(examples))
	weights = make([]float64, len(examples))

	for i, example := range examples {
		pre, ok := preprocessors[example.Group]
		if !ok {
			return nil, nil, nil, fmt.Errorf("no preprocessor fitted for dataset group %q", example.Group)
		}
		id, ok := groupIDs[example.Group]
		if !ok {
			return nil, nil, nil, fmt.Errorf("no id assigned for dataset group %q", example.Group)
		}

		transformed := pre.Transform(example.Features)
		row := make([]float64, catalog.NumFeatures+1)
		copy(row, transformed[:])
		row[catalog.NumFeatures] = float64(id)

		features[i] = row
		labels[i] = example.Label
		weights[i] = 1.0
		if example.IsCandidate {
			weights[i] = t.candidateWeight
		}
	}
	return features, labels, weights, nil
}

// groupBreakdown scores each group's slice of the held-out fold.
// Single-class slices are skipped; small groups cannot always be
// scored in every fold.
func (t *Trainer) groupBreakdown(examples []catalog.Example, labels []int, probs []float64, into map[string][]Metrics) {
	byGroup := map[string][]int{}
	for i, example := range examples {
		byGroup[example.Group] = append(byGroup[example.Group], i)
	}
	for group, indexes := range byGroup {
		groupLabels := make([]int, len(indexes))
		groupProbs := make([]float64, len(indexes))
		for i, idx := range indexes {
			groupLabels[i] = labels[idx]
			groupProbs[i] = probs[idx]
		}
		metrics, err := ComputeMetrics(groupLabels, groupProbs)
		if err != nil {
			t.log.Debug("skipping group breakdown for fold", "group", group, "reason", err)
			continue
		}
		into[group] = append(into[group], metrics)
	}
}

func summarizeGroups(groupFolds map[string][]Metrics) map[string]MetricsSummary {
	summaries := make(map[string]MetricsSummary, len(groupFolds))
	for group, folds := range groupFolds {
		summaries[group] = Summarize(folds)
	}
	return summaries
}

func gather(examples []catalog.Example, indexes []int) []catalog.Example {
	out := make([]catalog.Example, len(indexes))
	for i, idx := range indexes {
		out[i] = examples[idx]
	}
	return out
}

func groupKeys(examples []catalog.Example) []string {
	seen := map[string]bool{}
	var keys []string
	for _, example := range examples {
		if !seen[example.Group] {
			seen[example.Group] = true
			keys = append(keys, example.Group)
		}
	}
	return keys
}
