// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"math"
	"strconv"
	"strings"
)

// FeatureVector is one canonical row of the 14 physical features, in
// FeatureColumns order. Missing values are NaN; there is no separate
// null state.
type FeatureVector [NumFeatures]float64

// AllMissing reports whether every feature in the vector is NaN.
func (v FeatureVector) AllMissing() bool {
	for _, value := range v {
		if !math.IsNaN(value) {
			return false
		}
	}
	return true
}

// Example is one labeled training row produced by extraction.
type Example struct {
	// Features is the canonical feature vector. Any entry may be NaN.
	Features FeatureVector

	// Label is 1 for the positive family (confirmed or candidate),
	// 0 for false positives.
	Label int

	// IsCandidate marks rows from the unresolved disposition family.
	// Candidate rows are a training option, never an evaluation target.
	IsCandidate bool

	// Catalog is the originating survey key.
	Catalog string

	// Group is the dataset-type group key inherited from the Spec.
	Group string

	// Disposition is the normalized raw label, kept for reporting.
	Disposition string
}

// DropReason explains why extraction discarded a row.
type DropReason int

const (
	// DropNone means the row produced an Example.
	DropNone DropReason = iota

	// DropNotDefault means the default-parameter-set gate rejected the row.
	DropNotDefault

	// DropUnlabeled means the disposition matched none of the three
	// label families.
	DropUnlabeled

	// DropNoFeatures means all 14 canonical features were missing.
	// A label with zero signal cannot train or evaluate anything.
	DropNoFeatures
)

// SafeFloat coerces a raw catalog value to a float64.
//
// Empty strings and unparseable text become NaN. This coercion is
// total: garbage values are expected at catalog scale and must never
// abort a scan.
func SafeFloat(value string) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return math.NaN()
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}

// ExtractFeatures maps one raw record into the canonical feature
// vector using the spec's column map. Unmapped or absent source
// columns stay NaN. No unit conversion happens here; harmonization is
// by column renaming only.
func ExtractFeatures(spec Spec, record map[string]string) FeatureVector {
	var vector FeatureVector
	for i := range vector {
		vector[i] = math.NaN()
	}
	for i, feature := range FeatureColumns {
		source, ok := spec.FeatureMap[feature]
		if !ok {
			continue
		}
		vector[i] = SafeFloat(record[source])
	}
	return vector
}

// Extract converts one raw catalog record into a training Example.
//
// # Description
//
// The row passes through three filters in order: the default-flag gate
// (for catalogs that publish multiple parameter solutions), label
// resolution against the spec's three disjoint label families, and the
// degenerate-row check. Filtered rows return a DropReason instead of
// an error; they are an expected, common occurrence in catalog data.
//
// # Inputs
//
//   - spec: The catalog configuration.
//   - record: One raw row keyed by the catalog's native column names.
//
// # Outputs
//
//   - Example: The training example (valid only when DropNone).
//   - DropReason: DropNone on success, otherwise why the row was discarded.
func Extract(spec Spec, record map[string]string) (Example, DropReason) {
	if spec.RequiresDefaultFlag && !defaultFlagSet(record[defaultFlagField]) {
		return Example{}, DropNotDefault
	}

	disposition := strings.ToUpper(strings.TrimSpace(record[spec.LabelField]))
	label, isCandidate, ok := resolveLabel(spec, disposition)
	if !ok {
		return Example{}, DropUnlabeled
	}

	features := ExtractFeatures(spec, record)
	if features.AllMissing() {
		return Example{}, DropNoFeatures
	}

	return Example{
		Features:    features,
		Label:       label,
		IsCandidate: isCandidate,
		Catalog:     spec.Name,
		Group:       spec.Group,
		Disposition: disposition,
	}, DropNone
}

// resolveLabel matches a normalized disposition against the label
// families in negative, positive, candidate order. Candidates resolve
// to label 1 so operators can opt them in as weak positive signal.
func resolveLabel(spec Spec, disposition string) (label int, isCandidate bool, ok bool) {
	if disposition == "" {
		return 0, false, false
	}
	if containsLabel(spec.NegativeLabels, disposition) {
		return 0, false, true
	}
	if containsLabel(spec.PositiveLabels, disposition) {
		return 1, false, true
	}
	if containsLabel(spec.CandidateLabels, disposition) {
		return 1, true, true
	}
	return 0, false, false
}

func containsLabel(labels []string, value string) bool {
	for _, label := range labels {
		if label == value {
			return true
		}
	}
	return false
}

// defaultFlagSet reports whether a raw default-flag value marks the
// default parameter solution. Archive exports use "1" or "TRUE".
func defaultFlagSet(value string) bool {
	switch strings.TrimSpace(value) {
	case "1", "TRUE", "true":
		return true
	}
	return false
}
