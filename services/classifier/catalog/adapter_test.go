// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"math"
	"testing"
)

func TestSafeFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain", "3.14", 3.14},
		{"integer", "42", 42},
		{"negative", "-0.5", -0.5},
		{"scientific", "1.2e3", 1200},
		{"whitespace", "  7.5  ", 7.5},
		{"empty", "", math.NaN()},
		{"blank", "   ", math.NaN()},
		{"garbage", "n/a", math.NaN()},
		{"partial number", "12abc", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeFloat(tt.input)
			if math.IsNaN(tt.want) {
				if !math.IsNaN(got) {
					t.Errorf("SafeFloat(%q) = %v, want NaN", tt.input, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("SafeFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFeatureVector_AllMissing(t *testing.T) {
	var all FeatureVector
	for i := range all {
		all[i] = math.NaN()
	}
	if !all.AllMissing() {
		t.Error("vector of NaNs should be all-missing")
	}

	one := all
	one[FeatOrbitalPeriod] = 12.5
	if one.AllMissing() {
		t.Error("vector with one real value should not be all-missing")
	}
}

func keplerRecord(disposition string) map[string]string {
	return map[string]string{
		"koi_disposition": disposition,
		"koi_period":      "9.48",
		"koi_duration":    "2.95",
		"koi_depth":       "615.8",
		"koi_prad":        "2.26",
		"koi_steff":       "5455",
	}
}

func TestExtract_Kepler(t *testing.T) {
	spec, err := Resolve("kepler")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		disposition   string
		wantLabel     int
		wantCandidate bool
		wantReason    DropReason
	}{
		{"confirmed", "CONFIRMED", 1, false, DropNone},
		{"false positive", "FALSE POSITIVE", 0, false, DropNone},
		{"candidate", "CANDIDATE", 1, true, DropNone},
		{"lowercase normalized", "confirmed", 1, false, DropNone},
		{"unknown disposition", "AMBIGUOUS", 0, false, DropUnlabeled},
		{"empty disposition", "", 0, false, DropUnlabeled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			example, reason := Extract(spec, keplerRecord(tt.disposition))
			if reason != tt.wantReason {
				t.Fatalf("Extract() reason = %v, want %v", reason, tt.wantReason)
			}
			if reason != DropNone {
				return
			}
			if example.Label != tt.wantLabel {
				t.Errorf("Label = %d, want %d", example.Label, tt.wantLabel)
			}
			if example.IsCandidate != tt.wantCandidate {
				t.Errorf("IsCandidate = %v, want %v", example.IsCandidate, tt.wantCandidate)
			}
			if example.Catalog != "kepler" || example.Group != GroupKepler {
				t.Errorf("Catalog/Group = %q/%q, want kepler/%s", example.Catalog, example.Group, GroupKepler)
			}
		})
	}
}

func TestExtract_AllMissingFeaturesDropped(t *testing.T) {
	spec, err := Resolve("kepler")
	if err != nil {
		t.Fatal(err)
	}

	record := map[string]string{"koi_disposition": "CONFIRMED"}
	_, reason := Extract(spec, record)
	if reason != DropNoFeatures {
		t.Errorf("reason = %v, want DropNoFeatures", reason)
	}

	// One usable feature is enough to keep the row.
	record["koi_period"] = "3.5"
	example, reason := Extract(spec, record)
	if reason != DropNone {
		t.Fatalf("reason = %v, want DropNone", reason)
	}
	if example.Features[FeatOrbitalPeriod] != 3.5 {
		t.Errorf("orbital period = %v, want 3.5", example.Features[FeatOrbitalPeriod])
	}
	if !math.IsNaN(example.Features[FeatStellarMass]) {
		t.Error("unmapped values should stay NaN")
	}
}

func TestExtract_K2DefaultFlagGate(t *testing.T) {
	spec, err := Resolve("k2")
	if err != nil {
		t.Fatal(err)
	}

	base := map[string]string{
		"disposition": "CONFIRMED",
		"pl_orbper":   "41.7",
	}

	tests := []struct {
		name string
		flag string
		want DropReason
	}{
		{"flag 1", "1", DropNone},
		{"flag TRUE", "TRUE", DropNone},
		{"flag true", "true", DropNone},
		{"flag 0", "0", DropNotDefault},
		{"flag FALSE", "FALSE", DropNotDefault},
		{"flag absent", "", DropNotDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := map[string]string{}
			for k, v := range base {
				record[k] = v
			}
			if tt.flag != "" {
				record["default_flag"] = tt.flag
			}
			_, reason := Extract(spec, record)
			if reason != tt.want {
				t.Errorf("reason = %v, want %v", reason, tt.want)
			}
		})
	}
}

func TestExtract_K2Refuted(t *testing.T) {
	spec, err := Resolve("k2")
	if err != nil {
		t.Fatal(err)
	}
	record := map[string]string{
		"default_flag": "1",
		"disposition":  "REFUTED",
		"pl_orbper":    "12.1",
	}
	example, reason := Extract(spec, record)
	if reason != DropNone {
		t.Fatalf("reason = %v, want DropNone", reason)
	}
	if example.Label != 0 || example.IsCandidate {
		t.Errorf("REFUTED should be a non-candidate negative, got label=%d candidate=%v",
			example.Label, example.IsCandidate)
	}
}

func TestExtract_TOILabels(t *testing.T) {
	spec, err := Resolve("toi")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		disposition   string
		wantLabel     int
		wantCandidate bool
	}{
		{"CP", 1, false},
		{"KP", 1, false},
		{"FP", 0, false},
		{"FA", 0, false},
		{"PC", 1, true},
		{"APC", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.disposition, func(t *testing.T) {
			record := map[string]string{
				"tfopwg_disp": tt.disposition,
				"pl_orbper":   "5.2",
			}
			example, reason := Extract(spec, record)
			if reason != DropNone {
				t.Fatalf("reason = %v, want DropNone", reason)
			}
			if example.Label != tt.wantLabel || example.IsCandidate != tt.wantCandidate {
				t.Errorf("label/candidate = %d/%v, want %d/%v",
					example.Label, example.IsCandidate, tt.wantLabel, tt.wantCandidate)
			}
		})
	}
}
