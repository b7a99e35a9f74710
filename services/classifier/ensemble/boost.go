// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ensemble implements the gradient-boosted tree capability
// behind the shared transit classifier.
//
// # Description
//
// The trainer and scoring engine treat boosting as an opaque
// capability: fit features, labels, and sample weights in, calibrated
// positive-class probabilities out. This package provides the built-in
// implementation: binary logistic gradient boosting over regression
// trees with second-order leaf values, deterministic under a fixed
// seed.
//
// # Thread Safety
//
// A fitted BoostedModel is immutable and safe for concurrent
// prediction. Fitting is single-threaded per call.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrCapabilityUnavailable is returned when no boosting capability is
// configured. Training must abort rather than fall back to a weaker
// model.
var ErrCapabilityUnavailable = errors.New("boosting capability unavailable")

// Capability is the opaque training contract the pipeline depends on.
//
// # Description
//
// Implementations fit a binary classifier from a feature matrix,
// 0/1 labels, and per-row sample weights. The pipeline never inspects
// the model beyond probability queries and importance reporting.
type Capability interface {
	// Fit trains a model. Rows of features must be equal-length and
	// free of NaN; labels are 0 or 1; weights are per-row multipliers.
	Fit(ctx context.Context, features [][]float64, labels []int, weights []float64) (*BoostedModel, error)
}

// Params are the boosting hyperparameters.
type Params struct {
	// Trees is the number of boosting rounds.
	Trees int `json:"trees"`

	// LearningRate shrinks each tree's contribution.
	LearningRate float64 `json:"learning_rate"`

	// MaxDepth bounds tree depth (root depth 0).
	MaxDepth int `json:"max_depth"`

	// MinChildSamples is the minimum rows per leaf.
	MinChildSamples int `json:"min_child_samples"`

	// Lambda is the L2 regularization on leaf values.
	Lambda float64 `json:"lambda"`

	// MinSplitGain is the minimum objective improvement to accept a split.
	MinSplitGain float64 `json:"min_split_gain"`

	// Subsample is the row fraction drawn (without replacement) per round.
	Subsample float64 `json:"subsample"`

	// Colsample is the column fraction sampled per round.
	Colsample float64 `json:"colsample"`

	// Seed fixes the subsampling stream for reproducible artifacts.
	Seed uint64 `json:"seed"`
}

// DefaultParams mirrors the production configuration of the shared
// model: 400 rounds at a 0.03 learning rate with conservative leaf
// sizes.
func DefaultParams() Params {
	return Params{
		Trees:           400,
		LearningRate:    0.03,
		MaxDepth:        6,
		MinChildSamples: 40,
		Lambda:          1.0,
		MinSplitGain:    1e-7,
		Subsample:       0.8,
		Colsample:       0.8,
		Seed:            42,
	}
}

// Booster is the built-in Capability implementation.
type Booster struct {
	params Params
}

// Verify interface compliance at compile time
var _ Capability = (*Booster)(nil)

// NewBooster returns a Booster with the given hyperparameters.
func NewBooster(params Params) *Booster {
	return &Booster{params: params}
}

// BoostedModel is a fitted gradient-boosted ensemble.
type BoostedModel struct {
	// BaseScore is the initial log-odds prior.
	BaseScore float64 `json:"base_score"`

	// Trees are the fitted boosting rounds in order.
	Trees []Tree `json:"trees"`

	// NumFeatures is the expected input width.
	NumFeatures int `json:"num_features"`

	// Params records the hyperparameters the model was fit with.
	Params Params `json:"params"`
}

// Fit trains a boosted ensemble.
//
// # Description
//
// Standard logistic boosting: start from the weighted log-odds prior,
// then per round fit a regression tree to the weighted gradients and
// hessians of the log-loss, on a seeded row/column subsample. The
// context is checked between rounds so long fits cancel cleanly.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - features: Row-major matrix, all rows the same width, NaN-free.
//   - labels: 0/1 class labels, one per row.
//   - weights: Per-row sample weights (nil means uniform).
//
// # Outputs
//
//   - *BoostedModel: The fitted ensemble.
//   - error: Non-nil on malformed input or cancellation.
func (b *Booster) Fit(ctx context.Context, features [][]float64, labels []int, weights []float64) (*BoostedModel, error) {
	n := len(features)
	if n == 0 {
		return nil, fmt.Errorf("ensemble fit: no rows")
	}
	if len(labels) != n {
		return nil, fmt.Errorf("ensemble fit: %d rows but %d labels", n, len(labels))
	}
	if weights == nil {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != n {
		return nil, fmt.Errorf("ensemble fit: %d rows but %d weights", n, len(weights))
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return nil, fmt.Errorf("ensemble fit: row %d has width %d, want %d", i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("ensemble fit: non-finite value at row %d column %d", i, j)
			}
		}
	}

	model := &BoostedModel{
		BaseScore:   basePrior(labels, weights),
		Trees:       make([]Tree, 0, b.params.Trees),
		NumFeatures: width,
		Params:      b.params,
	}

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = model.BaseScore
	}
	grad := make([]float64, n)
	hess := make([]float64, n)

	rng := rand.New(rand.NewPCG(b.params.Seed, uint64(width)))
	builder := &treeBuilder{features: features, grad: grad, hess: hess, params: b.params}

	for round := 0; round < b.params.Trees; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range raw {
			p := sigmoid(raw[i])
			grad[i] = weights[i] * (p - float64(labels[i]))
			hess[i] = weights[i] * p * (1 - p)
		}

		rows := sampleRows(rng, n, b.params.Subsample)
		builder.columns = sampleColumns(rng, width, b.params.Colsample)

		tree := builder.build(rows)
		model.Trees = append(model.Trees, tree)

		for i, row := range features {
			raw[i] += tree.Predict(row)
		}
	}
	return model, nil
}

// PredictProba returns the positive-class probability for one row.
func (m *BoostedModel) PredictProba(row []float64) (float64, error) {
	if len(row) != m.NumFeatures {
		return 0, fmt.Errorf("ensemble predict: row width %d, want %d", len(row), m.NumFeatures)
	}
	raw := m.BaseScore
	for i := range m.Trees {
		raw += m.Trees[i].Predict(row)
	}
	return sigmoid(raw), nil
}

// PredictProbaMatrix returns positive-class probabilities row-wise.
func (m *BoostedModel) PredictProbaMatrix(rows [][]float64) ([]float64, error) {
	probs := make([]float64, len(rows))
	for i, row := range rows {
		p, err := m.PredictProba(row)
		if err != nil {
			return nil, err
		}
		probs[i] = p
	}
	return probs, nil
}

// ImportanceKind selects the feature-importance accounting.
type ImportanceKind string

const (
	// ImportanceGain sums each feature's split gains.
	ImportanceGain ImportanceKind = "gain"

	// ImportanceSplit counts how often each feature is split on.
	ImportanceSplit ImportanceKind = "split"
)

// Importance aggregates per-feature importance across all trees.
func (m *BoostedModel) Importance(kind ImportanceKind) ([]float64, error) {
	out := make([]float64, m.NumFeatures)
	switch kind {
	case ImportanceGain:
		for _, tree := range m.Trees {
			for _, node := range tree.Nodes {
				if node.Left >= 0 {
					out[node.Feature] += node.Gain
				}
			}
		}
	case ImportanceSplit:
		for _, tree := range m.Trees {
			for _, node := range tree.Nodes {
				if node.Left >= 0 {
					out[node.Feature]++
				}
			}
		}
	default:
		return nil, fmt.Errorf("unknown importance kind %q (want %q or %q)", kind, ImportanceGain, ImportanceSplit)
	}
	return out, nil
}

// Validate checks a deserialized model for structural sanity.
func (m *BoostedModel) Validate() error {
	if m.NumFeatures <= 0 {
		return fmt.Errorf("model has non-positive feature width %d", m.NumFeatures)
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	for t, tree := range m.Trees {
		for i, node := range tree.Nodes {
			if node.Left >= 0 {
				if node.Feature < 0 || node.Feature >= m.NumFeatures {
					return fmt.Errorf("tree %d node %d splits on invalid feature %d", t, i, node.Feature)
				}
				if node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
					return fmt.Errorf("tree %d node %d has out-of-range children", t, i)
				}
			}
		}
	}
	return nil
}

// basePrior is the weighted log-odds of the positive class, clamped
// away from the degenerate single-class edge.
func basePrior(labels []int, weights []float64) float64 {
	positive, total := 0.0, 0.0
	for i, label := range labels {
		total += weights[i]
		if label == 1 {
			positive += weights[i]
		}
	}
	p := positive / total
	const eps = 1e-6
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// sampleRows draws a deterministic subsample of row indexes without
// replacement. A fraction >= 1 uses every row in order.
func sampleRows(rng *rand.Rand, n int, fraction float64) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	if fraction >= 1 || fraction <= 0 {
		return rows
	}
	keep := int(math.Ceil(fraction * float64(n)))
	if keep < 1 {
		keep = 1
	}
	rng.Shuffle(n, func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	return rows[:keep]
}

// sampleColumns draws a deterministic subset of column indexes.
func sampleColumns(rng *rand.Rand, width int, fraction float64) []int {
	columns := make([]int, width)
	for i := range columns {
		columns[i] = i
	}
	if fraction >= 1 || fraction <= 0 {
		return columns
	}
	keep := int(math.Ceil(fraction * float64(width)))
	if keep < 1 {
		keep = 1
	}
	rng.Shuffle(width, func(i, j int) { columns[i], columns[j] = columns[j], columns[i] })
	return columns[:keep]
}
