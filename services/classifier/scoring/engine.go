// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"fmt"
	"sync"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/bundle"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
)

// Prediction is the scored outcome for one input row.
type Prediction struct {
	// Row is the zero-based position of the row in the input.
	Row int `json:"row"`

	// AllMissing is true when the row carried no usable feature value;
	// every feature was imputed to its group median before scoring.
	AllMissing bool `json:"all_missing,omitempty"`

	Probability float64 `json:"probability"`
	Class       Class   `json:"class"`
	Disposition string  `json:"disposition"`
	Confidence  float64 `json:"confidence"`
}

// Engine scores catalog rows against a trained bundle. The bundle is
// treated as immutable; an Engine is safe for concurrent use.
type Engine struct {
	bundle *bundle.Bundle
}

// NewEngine wraps a validated bundle.
func NewEngine(b *bundle.Bundle) (*Engine, error) {
	if b == nil {
		return nil, fmt.Errorf("scoring engine requires a bundle")
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	return &Engine{bundle: b}, nil
}

// Bundle returns the engine's underlying artifact bundle.
func (e *Engine) Bundle() *bundle.Bundle { return e.bundle }

// Predict scores raw catalog rows (header-keyed records, as read from
// a catalog CSV) under the named catalog's column mapping.
//
// # Description
//
// Each row goes through the same path training used: the catalog's
// feature mapping, the row's dataset-group imputation and scaling,
// and the appended group indicator. Missing values never block a
// prediction: a row with every feature absent is imputed entirely to
// its group's medians and scored like any other, flagged AllMissing.
//
// # Outputs
//
//   - []Prediction: One entry per input row, in input order.
//   - error: *ConfigError when the catalog is unknown or the bundle
//     was not trained on its dataset group; otherwise model failures.
func (e *Engine) Predict(catalogName string, rows []map[string]string, thresholds Thresholds) ([]Prediction, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	spec, err := catalog.Resolve(catalogName)
	if err != nil {
		return nil, &ConfigError{Field: "catalog", Reason: err.Error()}
	}
	pre, ok := e.bundle.Preprocessor(spec.Group)
	if !ok {
		return nil, &ConfigError{
			Field:  "catalog",
			Reason: fmt.Sprintf("bundle was not trained on dataset group %q", spec.Group),
		}
	}
	groupID, ok := e.bundle.GroupID(spec.Group)
	if !ok {
		return nil, &ConfigError{
			Field:  "catalog",
			Reason: fmt.Sprintf("bundle has no id for dataset group %q", spec.Group),
		}
	}

	predictions := make([]Prediction, 0, len(rows))
	for i, record := range rows {
		vector := catalog.ExtractFeatures(spec, record)
		allMissing := vector.AllMissing()
		if allMissing {
			observeAllMissing(spec.Name)
		}

		transformed := pre.Transform(vector)
		input := make([]float64, catalog.NumFeatures+1)
		copy(input, transformed[:])
		input[catalog.NumFeatures] = float64(groupID)

		probability, err := e.bundle.Model.PredictProba(input)
		if err != nil {
			return nil, fmt.Errorf("scoring row %d: %w", i, err)
		}
		class := thresholds.Decide(probability)
		predictions = append(predictions, Prediction{
			Row:         i,
			AllMissing:  allMissing,
			Probability: probability,
			Class:       class,
			Disposition: class.String(),
			Confidence:  thresholds.Confidence(probability),
		})
		observePrediction(spec.Name, class, probability)
	}
	return predictions, nil
}

var shared struct {
	once   sync.Once
	engine *Engine
	err    error
}

// Shared loads the process-wide engine from the artifact directory
// exactly once. Subsequent calls return the same engine (or the same
// load error) regardless of the directory argument.
func Shared(artifactDir string) (*Engine, error) {
	shared.once.Do(func() {
		b, err := bundle.Load(artifactDir)
		if err != nil {
			shared.err = err
			return
		}
		shared.engine, shared.err = NewEngine(b)
	})
	return shared.engine, shared.err
}
