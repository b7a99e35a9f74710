// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"fmt"
	"strings"
)

// Spec is the immutable per-survey configuration consumed by the
// generic extraction code.
//
// # Description
//
// One Spec exists per supported survey. It records where the labels
// live, how raw disposition strings map onto the three label families,
// and how raw column names map onto the canonical features. Modeling
// catalogs as configuration values keeps the adapter a single function
// instead of a conditional branch per survey.
type Spec struct {
	// Name is the catalog key ("kepler", "k2", "toi").
	Name string

	// Filename is the expected dataset file name inside a data directory.
	Filename string

	// LabelField is the raw column holding the disposition string.
	LabelField string

	// PositiveLabels are dispositions treated as confirmed planets.
	PositiveLabels []string

	// NegativeLabels are dispositions treated as false positives.
	NegativeLabels []string

	// CandidateLabels are unresolved dispositions. They train as
	// positives when opted in but are never evaluation targets.
	CandidateLabels []string

	// FeatureMap maps canonical feature name -> raw column name.
	FeatureMap map[string]string

	// Group keys the preprocessing transform this catalog shares with
	// catalogs of similar measurement characteristics.
	Group string

	// RequiresDefaultFlag gates rows on the default parameter set
	// marker. K2 publishes multiple parameter solutions per object and
	// only the default one is eligible.
	RequiresDefaultFlag bool
}

// Dataset-type group keys. The two-group split is a deliberate policy
// baked into the current surveys, not a generic N-way dispatch: Kepler
// photometry is comparatively low-outlier while the K2/TOI family is
// heavier-tailed and needs a robust scale estimate.
const (
	GroupKepler = "kepler"
	GroupToiK2  = "toi_k2"
)

// defaultFlagField marks the default parameter solution in K2 exports.
const defaultFlagField = "default_flag"

var toiK2FeatureMap = map[string]string{
	"orbital_period":          "pl_orbper",
	"transit_duration":        "pl_trandur",
	"transit_depth":           "pl_trandep",
	"impact_parameter":        "pl_imppar",
	"eccentricity":            "pl_orbeccen",
	"inclination":             "pl_orbincl",
	"planet_radius":           "pl_rade",
	"planet_equilibrium_temp": "pl_eqt",
	"insolation_flux":         "pl_insol",
	"stellar_temp":            "st_teff",
	"stellar_logg":            "st_logg",
	"stellar_radius":          "st_rad",
	"stellar_mass":            "st_mass",
	"stellar_metallicity":     "st_met",
}

// Specs lists the built-in survey catalogs in canonical order.
var Specs = []Spec{
	{
		Name:            "kepler",
		Filename:        "kepler.csv",
		LabelField:      "koi_disposition",
		PositiveLabels:  []string{"CONFIRMED"},
		NegativeLabels:  []string{"FALSE POSITIVE"},
		CandidateLabels: []string{"CANDIDATE"},
		FeatureMap: map[string]string{
			"orbital_period":          "koi_period",
			"transit_duration":        "koi_duration",
			"transit_depth":           "koi_depth",
			"impact_parameter":        "koi_impact",
			"eccentricity":            "koi_eccen",
			"inclination":             "koi_incl",
			"planet_radius":           "koi_prad",
			"planet_equilibrium_temp": "koi_teq",
			"insolation_flux":         "koi_insol",
			"stellar_temp":            "koi_steff",
			"stellar_logg":            "koi_slogg",
			"stellar_radius":          "koi_srad",
			"stellar_mass":            "koi_smass",
			"stellar_metallicity":     "koi_smet",
		},
		Group: GroupKepler,
	},
	{
		Name:                "k2",
		Filename:            "k2.csv",
		LabelField:          "disposition",
		PositiveLabels:      []string{"CONFIRMED"},
		NegativeLabels:      []string{"FALSE POSITIVE", "REFUTED"},
		CandidateLabels:     []string{"CANDIDATE"},
		FeatureMap:          toiK2FeatureMap,
		Group:               GroupToiK2,
		RequiresDefaultFlag: true,
	},
	{
		Name:            "toi",
		Filename:        "toi.csv",
		LabelField:      "tfopwg_disp",
		PositiveLabels:  []string{"CP", "KP"},
		NegativeLabels:  []string{"FP", "FA"},
		CandidateLabels: []string{"PC", "APC"},
		FeatureMap:      toiK2FeatureMap,
		Group:           GroupToiK2,
	},
}

// aliases maps alternate serving names onto built-in catalogs. The TESS
// mission publishes TOI-format tables, so "tess" scores through the TOI
// column map.
var aliases = map[string]string{
	"tess": "toi",
}

// Resolve returns the Spec for a catalog name.
//
// # Description
//
// Lookup is case-insensitive and accepts serving aliases ("tess" for
// "toi"). An unknown name is a configuration error for the caller, so
// the error lists the available options.
//
// # Inputs
//
//   - name: Catalog key or alias.
//
// # Outputs
//
//   - Spec: The matching catalog configuration.
//   - error: Non-nil when the name matches no catalog.
func Resolve(name string) (Spec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	for _, spec := range Specs {
		if spec.Name == key {
			return spec, nil
		}
	}
	return Spec{}, fmt.Errorf("unknown catalog %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the built-in catalog keys in canonical order.
func Names() []string {
	names := make([]string, 0, len(Specs))
	for _, spec := range Specs {
		names = append(names, spec.Name)
	}
	return names
}

// Groups returns the distinct dataset-type group keys in sorted order.
func Groups() []string {
	return []string{GroupKepler, GroupToiK2}
}
