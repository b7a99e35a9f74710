// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trainer

import (
	"log/slog"
	"sort"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
)

// CatalogOverview summarizes one catalog's contribution to a run,
// including the data-quality drop counts.
type CatalogOverview struct {
	Catalog    string             `json:"catalog"`
	Group      string             `json:"group"`
	Total      int                `json:"total"`
	Positives  int                `json:"positives"`
	Negatives  int                `json:"negatives"`
	Candidates int                `json:"candidates"`
	Dropped    catalog.DropCounts `json:"dropped"`
}

// Report is the evaluation output of one training run.
type Report struct {
	// RunID ties the report to the persisted artifact bundle.
	RunID string `json:"run_id"`

	// Overview has one entry per loaded catalog, sorted by name.
	Overview []CatalogOverview `json:"overview"`

	// Folds holds the per-fold held-out metrics in fold order.
	Folds []Metrics `json:"folds"`

	// Summary is the mean/std aggregation across folds.
	Summary MetricsSummary `json:"summary"`

	// Groups breaks the cross-validation metrics down by dataset-type
	// group, aggregated across folds. Groups whose held-out slices
	// were single-class in some fold aggregate over the valid folds.
	Groups map[string]MetricsSummary `json:"groups"`

	// IncludeCandidates records whether candidate rows joined training.
	IncludeCandidates bool `json:"include_candidates"`

	// CandidateWeight is the sample weight candidate rows carried.
	CandidateWeight float64 `json:"candidate_weight"`
}

// Log writes the report through a structured logger in the layout the
// training CLI presents to operators.
func (r *Report) Log(log *slog.Logger) {
	for _, overview := range r.Overview {
		log.Info("dataset overview",
			"catalog", overview.Catalog,
			"group", overview.Group,
			"total", overview.Total,
			"positives", overview.Positives,
			"negatives", overview.Negatives,
			"candidates", overview.Candidates,
			"dropped_not_default", overview.Dropped.NotDefault,
			"dropped_unlabeled", overview.Dropped.Unlabeled,
			"dropped_no_features", overview.Dropped.NoFeatures,
		)
	}
	for i, fold := range r.Folds {
		log.Info("fold metrics", "fold", i+1, "metrics", fold.String())
	}
	log.Info("cross-validation summary",
		"folds", len(r.Folds),
		"mean", r.Summary.Mean.String(),
		"std", r.Summary.Std.String(),
	)

	groups := make([]string, 0, len(r.Groups))
	for group := range r.Groups {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	for _, group := range groups {
		summary := r.Groups[group]
		log.Info("group metrics", "group", group, "mean", summary.Mean.String(), "std", summary.Std.String())
	}
}

// overviewFor builds the per-catalog summary rows.
func overviewFor(datasets []catalog.Dataset) []CatalogOverview {
	overviews := make([]CatalogOverview, 0, len(datasets))
	for _, dataset := range datasets {
		entry := CatalogOverview{
			Catalog: dataset.Catalog,
			Group:   dataset.Group,
			Total:   len(dataset.Examples),
			Dropped: dataset.Dropped,
		}
		for _, example := range dataset.Examples {
			if example.Label == 1 {
				entry.Positives++
			} else {
				entry.Negatives++
			}
			if example.IsCandidate {
				entry.Candidates++
			}
		}
		overviews = append(overviews, entry)
	}
	sort.Slice(overviews, func(i, j int) bool { return overviews[i].Catalog < overviews[j].Catalog })
	return overviews
}
