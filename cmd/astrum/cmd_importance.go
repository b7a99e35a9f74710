// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AstrumAI/AstrumFOSS/services/classifier/bundle"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/ensemble"
)

var importanceCmd = &cobra.Command{
	Use:   "importance",
	Short: "Reports which features the trained model relies on",
	Long: `Reads the trained bundle and reports per-feature importance, both by
total split gain and by split count, as JSON sorted by gain.`,
	Run: runImportance,
}

var (
	importanceArtifactDir string
	importanceOutput      string
)

// featureImportance is one feature's share of the model.
type featureImportance struct {
	Column   string  `json:"column"`
	Semantic string  `json:"semantic_name,omitempty"`
	Gain     float64 `json:"gain"`
	Splits   float64 `json:"splits"`
}

func init() {
	importanceCmd.Flags().StringVar(&importanceArtifactDir, "artifacts", "models", "directory holding the trained model artifacts")
	importanceCmd.Flags().StringVar(&importanceOutput, "output", "", "write JSON to this file instead of stdout")
	rootCmd.AddCommand(importanceCmd)
}

func runImportance(cmd *cobra.Command, _ []string) {
	log := logger.Slog()

	artifact, err := bundle.Load(importanceArtifactDir)
	if err != nil {
		log.Error("Failed to load model artifacts", "dir", importanceArtifactDir, "error", err)
		os.Exit(1)
	}

	gains, err := artifact.Model.Importance(ensemble.ImportanceGain)
	if err != nil {
		log.Error("Failed to compute gain importance", "error", err)
		os.Exit(1)
	}
	splits, err := artifact.Model.Importance(ensemble.ImportanceSplit)
	if err != nil {
		log.Error("Failed to compute split importance", "error", err)
		os.Exit(1)
	}

	columns := append(append([]string{}, artifact.FeatureOrder...), catalog.IndicatorColumn)
	report := make([]featureImportance, len(columns))
	for i, column := range columns {
		report[i] = featureImportance{
			Column:   column,
			Semantic: catalog.SemanticNames[column],
			Gain:     gains[i],
			Splits:   splits[i],
		}
	}
	sort.SliceStable(report, func(i, j int) bool { return report[i].Gain > report[j].Gain })

	payload := struct {
		RunID      string              `json:"run_id"`
		Importance []featureImportance `json:"importance"`
	}{RunID: artifact.RunID, Importance: report}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Error("Failed to encode report", "error", err)
		os.Exit(1)
	}

	if importanceOutput == "" {
		fmt.Println(string(encoded))
		return
	}
	if err := os.WriteFile(importanceOutput, append(encoded, '\n'), 0640); err != nil {
		log.Error("Failed to write report", "path", importanceOutput, "error", err)
		os.Exit(1)
	}
	log.Info("Importance report written", "path", importanceOutput)
}
