// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog harmonizes heterogeneous survey catalogs into one
// canonical feature contract.
//
// # Description
//
// Each supported survey (Kepler, K2, TESS TOI) publishes transit signals
// under its own column names and disposition vocabulary. This package maps
// every raw catalog row into a fixed, ordered vector of 14 physical
// features and a binary training label, driven entirely by per-catalog
// configuration values (Spec) rather than per-catalog code paths.
//
// # Thread Safety
//
// All exported values are immutable after package init. Extraction
// functions are pure and safe for concurrent use.
package catalog

// NumFeatures is the width of the canonical feature vector.
const NumFeatures = 14

// Canonical feature indexes. Order is part of the persisted model
// contract: trained artifacts record this order and scoring must
// reproduce it exactly.
const (
	FeatOrbitalPeriod = iota
	FeatTransitDuration
	FeatTransitDepth
	FeatImpactParameter
	FeatEccentricity
	FeatInclination
	FeatPlanetRadius
	FeatEquilibriumTemp
	FeatInsolationFlux
	FeatStellarTemp
	FeatStellarLogg
	FeatStellarRadius
	FeatStellarMass
	FeatStellarMetallicity
)

// FeatureColumns lists the canonical feature names in contract order.
var FeatureColumns = [NumFeatures]string{
	"orbital_period",
	"transit_duration",
	"transit_depth",
	"impact_parameter",
	"eccentricity",
	"inclination",
	"planet_radius",
	"planet_equilibrium_temp",
	"insolation_flux",
	"stellar_temp",
	"stellar_logg",
	"stellar_radius",
	"stellar_mass",
	"stellar_metallicity",
}

// IndicatorColumn is the synthetic column appended after the canonical
// features so a single shared model can learn per-group corrections.
const IndicatorColumn = "dataset_type_id"

// SemanticNames maps canonical column names (plus the group indicator)
// to human-readable, unit-bearing labels for reports and exports.
var SemanticNames = map[string]string{
	"orbital_period":          "Orbital Period (days)",
	"transit_duration":        "Transit Duration (hours)",
	"transit_depth":           "Transit Depth (ppm)",
	"impact_parameter":        "Impact Parameter",
	"eccentricity":            "Eccentricity",
	"inclination":             "Inclination (degrees)",
	"planet_radius":           "Planet Radius (Earth radii)",
	"planet_equilibrium_temp": "Planet Equilibrium Temperature (K)",
	"insolation_flux":         "Insolation Flux (Earth flux)",
	"stellar_temp":            "Stellar Effective Temperature (K)",
	"stellar_logg":            "Stellar Surface Gravity (log10(cm/s^2))",
	"stellar_radius":          "Stellar Radius (solar radii)",
	"stellar_mass":            "Stellar Mass (solar masses)",
	"stellar_metallicity":     "Stellar Metallicity ([Fe/H])",
	IndicatorColumn:           "Dataset Type Indicator",
}

// FeatureOrder returns the canonical column names as a fresh slice,
// suitable for embedding in persisted artifacts.
func FeatureOrder() []string {
	order := make([]string, NumFeatures)
	copy(order, FeatureColumns[:])
	return order
}
