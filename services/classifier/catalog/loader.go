// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DropCounts summarizes rows discarded while scanning one catalog.
// These are data-quality observations, not errors.
type DropCounts struct {
	// NotDefault counts rows rejected by the default-flag gate.
	NotDefault int

	// Unlabeled counts rows whose disposition matched no label family.
	Unlabeled int

	// NoFeatures counts rows with all 14 canonical features missing.
	NoFeatures int
}

// Total returns the number of discarded rows.
func (d DropCounts) Total() int {
	return d.NotDefault + d.Unlabeled + d.NoFeatures
}

// Dataset is the result of scanning one catalog file.
type Dataset struct {
	// Catalog is the survey key.
	Catalog string

	// Group is the dataset-type group key.
	Group string

	// Examples are the surviving labeled rows.
	Examples []Example

	// Dropped summarizes the filtered rows.
	Dropped DropCounts
}

// Candidates returns the number of candidate-flagged examples.
func (d Dataset) Candidates() int {
	count := 0
	for _, example := range d.Examples {
		if example.IsCandidate {
			count++
		}
	}
	return count
}

// LoadDataset scans one catalog through a row iterator.
//
// # Description
//
// Every record passes through Extract; surviving rows accumulate in
// order while drops are counted per reason. Iterator failures (missing
// file, malformed CSV framing) surface as errors because they indicate
// an operational problem rather than row-level noise.
func LoadDataset(spec Spec, rows RowIterator) (Dataset, error) {
	dataset := Dataset{Catalog: spec.Name, Group: spec.Group}
	err := rows(func(record map[string]string) bool {
		example, reason := Extract(spec, record)
		switch reason {
		case DropNone:
			dataset.Examples = append(dataset.Examples, example)
		case DropNotDefault:
			dataset.Dropped.NotDefault++
		case DropUnlabeled:
			dataset.Dropped.Unlabeled++
		case DropNoFeatures:
			dataset.Dropped.NoFeatures++
		}
		return true
	})
	if err != nil {
		return Dataset{}, fmt.Errorf("load catalog %q: %w", spec.Name, err)
	}
	return dataset, nil
}

// LoadAll loads every built-in catalog present under dataDir.
//
// # Description
//
// Catalogs load concurrently; files are independent and the scan is
// I/O bound. A catalog file that does not exist is skipped with a
// warning so partial data directories still train. Results come back
// sorted by catalog name regardless of completion order, and loading
// fails outright when no catalog yielded any examples.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - dataDir: Directory containing the catalog CSV files.
//   - log: Logger for per-catalog progress (nil uses slog.Default).
//
// # Outputs
//
//   - []Dataset: One entry per loaded catalog, sorted by name.
//   - error: Non-nil on scan failure or when no data loaded at all.
func LoadAll(ctx context.Context, dataDir string, log *slog.Logger) ([]Dataset, error) {
	if log == nil {
		log = slog.Default()
	}

	var (
		mu       sync.Mutex
		datasets []Dataset
	)
	group, ctx := errgroup.WithContext(ctx)

	for _, spec := range Specs {
		spec := spec
		path := filepath.Join(dataDir, spec.Filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Warn("catalog file missing, skipping", "catalog", spec.Name, "path", path)
			continue
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dataset, err := LoadDataset(spec, IterateRows(path))
			if err != nil {
				return err
			}
			log.Info("catalog loaded",
				"catalog", spec.Name,
				"examples", len(dataset.Examples),
				"candidates", dataset.Candidates(),
				"dropped", dataset.Dropped.Total(),
			)
			mu.Lock()
			datasets = append(datasets, dataset)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Catalog < datasets[j].Catalog })

	total := 0
	for _, dataset := range datasets {
		total += len(dataset.Examples)
	}
	if total == 0 {
		return nil, fmt.Errorf("no catalog data loaded from %q; check file paths and formats", dataDir)
	}
	return datasets, nil
}
