// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/ensemble"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/preprocess"
)

// Artifact file names inside a model directory. The model and the
// preprocessing bundle persist separately so the (much larger) model
// can be shipped or diffed on its own.
const (
	ModelFilename        = "shared_model.json"
	PreprocessorFilename = "shared_preprocessors.json"
)

// ArtifactMissingError reports absent or unreadable artifacts. Serving
// cannot proceed without them; the caller must train first.
type ArtifactMissingError struct {
	// Path is the artifact location that failed.
	Path string

	// Wrapped is the underlying error.
	Wrapped error
}

// Error returns a formatted message naming the artifact.
func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("model artifact unusable at %q (train before serving): %v", e.Path, e.Wrapped)
}

// Unwrap returns the underlying error.
func (e *ArtifactMissingError) Unwrap() error {
	return e.Wrapped
}

// preprocessorFile is the on-disk shape of the preprocessing artifact.
type preprocessorFile struct {
	Preprocessors map[string]*preprocess.GroupPreprocessor `json:"preprocessors"`
	GroupIDs      map[string]int                           `json:"type_to_id"`
	FeatureOrder  []string                                 `json:"feature_columns"`
	RunID         string                                   `json:"run_id"`
	CreatedAt     time.Time                                `json:"created_at"`
}

// Save persists the bundle into dir, creating it as needed.
//
// # Description
//
// Both artifacts are written to temporary files first and renamed into
// place, so a crashed save never leaves a half-written artifact where
// a serving process could load it. The bundle is validated before any
// file is touched; a partial or degenerate bundle is never persisted.
func Save(b *Bundle, dir string) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid bundle: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, ModelFilename), b.Model); err != nil {
		return err
	}
	file := preprocessorFile{
		Preprocessors: b.Preprocessors,
		GroupIDs:      b.GroupIDs,
		FeatureOrder:  b.FeatureOrder,
		RunID:         b.RunID,
		CreatedAt:     b.CreatedAt,
	}
	return writeJSON(filepath.Join(dir, PreprocessorFilename), file)
}

// Load reads and validates the bundle artifacts from dir.
//
// # Outputs
//
//   - *Bundle: The loaded, validated bundle.
//   - error: *ArtifactMissingError when files are absent or corrupt.
func Load(dir string) (*Bundle, error) {
	modelPath := filepath.Join(dir, ModelFilename)
	prePath := filepath.Join(dir, PreprocessorFilename)

	var model ensemble.BoostedModel
	if err := readJSON(modelPath, &model); err != nil {
		return nil, err
	}

	var file preprocessorFile
	if err := readJSON(prePath, &file); err != nil {
		return nil, err
	}

	loaded := &Bundle{
		Model:         &model,
		Preprocessors: file.Preprocessors,
		GroupIDs:      file.GroupIDs,
		FeatureOrder:  file.FeatureOrder,
		RunID:         file.RunID,
		CreatedAt:     file.CreatedAt,
	}
	if err := loaded.Validate(); err != nil {
		return nil, &ArtifactMissingError{Path: dir, Wrapped: err}
	}
	return loaded, nil
}

func writeJSON(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode artifact %q: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write artifact %q: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize artifact %q: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ArtifactMissingError{Path: path, Wrapped: err}
	}
	if err := json.Unmarshal(data, value); err != nil {
		return &ArtifactMissingError{Path: path, Wrapped: err}
	}
	return nil
}
