// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  bool
	}{
		{"kepler", "kepler", "kepler", false},
		{"k2", "k2", "k2", false},
		{"toi", "toi", "toi", false},
		{"tess alias", "tess", "toi", false},
		{"case insensitive", "KEPLER", "kepler", false},
		{"alias case insensitive", "TESS", "toi", false},
		{"whitespace trimmed", "  toi  ", "toi", false},
		{"unknown", "corot", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Resolve(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !strings.Contains(err.Error(), "available") {
					t.Errorf("error should list available catalogs: %v", err)
				}
				return
			}
			if spec.Name != tt.wantName {
				t.Errorf("Resolve(%q).Name = %q, want %q", tt.input, spec.Name, tt.wantName)
			}
		})
	}
}

func TestSpecs_FeatureMapsCoverCanonicalColumns(t *testing.T) {
	for _, spec := range Specs {
		t.Run(spec.Name, func(t *testing.T) {
			if len(spec.FeatureMap) != NumFeatures {
				t.Errorf("feature map has %d entries, want %d", len(spec.FeatureMap), NumFeatures)
			}
			for _, feature := range FeatureColumns {
				if _, ok := spec.FeatureMap[feature]; !ok {
					t.Errorf("feature map missing canonical column %q", feature)
				}
			}
		})
	}
}

func TestSpecs_LabelFamiliesDisjoint(t *testing.T) {
	for _, spec := range Specs {
		t.Run(spec.Name, func(t *testing.T) {
			seen := map[string]string{}
			families := map[string][]string{
				"positive":  spec.PositiveLabels,
				"negative":  spec.NegativeLabels,
				"candidate": spec.CandidateLabels,
			}
			for family, labels := range families {
				for _, label := range labels {
					if prior, dup := seen[label]; dup {
						t.Errorf("label %q appears in both %s and %s families", label, prior, family)
					}
					seen[label] = family
				}
			}
		})
	}
}

func TestSpecs_OnlyK2GatesOnDefaultFlag(t *testing.T) {
	for _, spec := range Specs {
		want := spec.Name == "k2"
		if spec.RequiresDefaultFlag != want {
			t.Errorf("catalog %q RequiresDefaultFlag = %v, want %v", spec.Name, spec.RequiresDefaultFlag, want)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	want := []string{"kepler", "k2", "toi"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestGroups(t *testing.T) {
	groups := Groups()
	if len(groups) != 2 || groups[0] != GroupKepler || groups[1] != GroupToiK2 {
		t.Errorf("Groups() = %v, want [%s %s]", groups, GroupKepler, GroupToiK2)
	}
}
