// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package bundle persists and loads the trained classifier artifacts.
//
// # Description
//
// One training run produces one artifact bundle: the shared boosted
// model, the fitted per-group preprocessors, the group-to-id mapping,
// and the canonical feature order. The bundle is written once and read
// only afterwards; serving processes share a single loaded instance
// across goroutines without locking.
package bundle

import (
	"fmt"
	"sort"
	"time"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/ensemble"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/preprocess"
)

// Bundle is the complete, versioned result of one training run.
//
// # Thread Safety
//
// Immutable after construction; safe for concurrent reads.
type Bundle struct {
	// Model is the shared boosted classifier.
	Model *ensemble.BoostedModel

	// Preprocessors maps dataset-type group key to its fitted transform.
	Preprocessors map[string]*preprocess.GroupPreprocessor

	// GroupIDs maps dataset-type group key to the dense integer id
	// appended as the indicator feature. Ids start at 0 and follow
	// sorted group-key order.
	GroupIDs map[string]int

	// FeatureOrder is the canonical feature-column order the model
	// was trained with.
	FeatureOrder []string

	// RunID identifies the training run that produced the bundle.
	RunID string

	// CreatedAt is the training completion time.
	CreatedAt time.Time
}

// AssignGroupIDs returns the dense id mapping for a set of group keys:
// ids from 0 in sorted key order, independent of input order, so the
// serialized bundle is reproducible.
func AssignGroupIDs(groups []string) map[string]int {
	sorted := append([]string(nil), groups...)
	sort.Strings(sorted)
	ids := make(map[string]int, len(sorted))
	for _, group := range sorted {
		if _, seen := ids[group]; !seen {
			ids[group] = len(ids)
		}
	}
	return ids
}

// Validate checks the bundle's structural invariants.
//
// # Description
//
// Every group id must have a matching preprocessor and vice versa, the
// id set must be dense from 0, the feature order must match the
// canonical schema, and the model width must equal the feature count
// plus the indicator column.
func (b *Bundle) Validate() error {
	if b.Model == nil {
		return fmt.Errorf("bundle has no model")
	}
	if err := b.Model.Validate(); err != nil {
		return fmt.Errorf("bundle model invalid: %w", err)
	}
	if len(b.GroupIDs) == 0 {
		return fmt.Errorf("bundle has no dataset groups")
	}
	if len(b.Preprocessors) != len(b.GroupIDs) {
		return fmt.Errorf("bundle has %d preprocessors for %d groups", len(b.Preprocessors), len(b.GroupIDs))
	}

	seen := make([]bool, len(b.GroupIDs))
	for group, id := range b.GroupIDs {
		if id < 0 || id >= len(b.GroupIDs) {
			return fmt.Errorf("group %q has non-dense id %d", group, id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate group id %d", id)
		}
		seen[id] = true

		pre, ok := b.Preprocessors[group]
		if !ok {
			return fmt.Errorf("group %q has an id but no preprocessor", group)
		}
		if err := pre.Validate(); err != nil {
			return fmt.Errorf("group %q preprocessor invalid: %w", group, err)
		}
	}

	if len(b.FeatureOrder) != catalog.NumFeatures {
		return fmt.Errorf("bundle records %d feature columns, want %d", len(b.FeatureOrder), catalog.NumFeatures)
	}
	for i, name := range b.FeatureOrder {
		if name != catalog.FeatureColumns[i] {
			return fmt.Errorf("feature column %d is %q, want %q", i, name, catalog.FeatureColumns[i])
		}
	}
	if want := catalog.NumFeatures + 1; b.Model.NumFeatures != want {
		return fmt.Errorf("model expects %d inputs, want %d (features plus group indicator)", b.Model.NumFeatures, want)
	}
	return nil
}

// GroupID returns the indicator id for a group key.
func (b *Bundle) GroupID(group string) (int, bool) {
	id, ok := b.GroupIDs[group]
	return id, ok
}

// Preprocessor returns the fitted transform for a group key.
func (b *Bundle) Preprocessor(group string) (*preprocess.GroupPreprocessor, bool) {
	pre, ok := b.Preprocessors[group]
	return pre, ok
}
