// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AstrumAI/AstrumFOSS/pkg/validation"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/bundle"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/ensemble"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/trainer"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Trains the shared classifier across all available catalogs",
	Long: `Loads every catalog CSV found in the data directory, cross-validates a
single gradient-boosted model across them, and writes the model and
preprocessor artifacts to the artifact directory.

A YAML scenario file can describe the run; flags override its values.`,
	Run: runTrain,
}

var (
	trainScenarioPath    string
	trainDataDir         string
	trainArtifactDir     string
	trainFolds           int
	trainSeed            uint64
	trainIncludeCands    bool
	trainCandidateWeight float64
)

func init() {
	trainCmd.Flags().StringVar(&trainScenarioPath, "scenario", "", "YAML scenario file describing the run")
	trainCmd.Flags().StringVar(&trainDataDir, "data-dir", "data", "directory holding the catalog CSV files")
	trainCmd.Flags().StringVar(&trainArtifactDir, "artifacts", "models", "directory to write model artifacts to")
	trainCmd.Flags().IntVar(&trainFolds, "folds", 5, "stratified cross-validation fold count")
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 42, "seed for fold assignment and tree subsampling")
	trainCmd.Flags().BoolVar(&trainIncludeCands, "include-candidates", false, "train on unresolved candidate rows as weak positives")
	trainCmd.Flags().Float64Var(&trainCandidateWeight, "candidate-weight", 1.0, "sample weight for candidate rows when included")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) {
	log := logger.Slog()

	dataDir := trainDataDir
	artifactDir := trainArtifactDir
	params := ensemble.DefaultParams()
	cfg := trainer.Config{
		Folds:             trainFolds,
		IncludeCandidates: trainIncludeCands,
		CandidateWeight:   trainCandidateWeight,
		Seed:              trainSeed,
		Logger:            log,
	}

	var wantCatalogs []string
	if trainScenarioPath != "" {
		scenario, err := loadScenario(trainScenarioPath)
		if err != nil {
			log.Error("Failed to load scenario", "path", trainScenarioPath, "error", err)
			os.Exit(1)
		}
		log.Info("Scenario loaded", "id", scenario.Metadata.ID, "version", scenario.Metadata.Version)

		dataDir = scenario.Data.Dir
		wantCatalogs = scenario.Data.Catalogs
		if scenario.Artifacts.Dir != "" {
			artifactDir = scenario.Artifacts.Dir
		}
		applyScenarioTraining(scenario, &cfg)
		applyScenarioModel(scenario, &params)

		// Flags set explicitly on the command line win over the file.
		if cmd.Flags().Changed("data-dir") {
			dataDir = trainDataDir
		}
		if cmd.Flags().Changed("artifacts") {
			artifactDir = trainArtifactDir
		}
		if cmd.Flags().Changed("folds") {
			cfg.Folds = trainFolds
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = trainSeed
		}
		if cmd.Flags().Changed("include-candidates") {
			cfg.IncludeCandidates = trainIncludeCands
		}
		if cmd.Flags().Changed("candidate-weight") {
			cfg.CandidateWeight = trainCandidateWeight
		}
	}
	params.Seed = cfg.Seed
	cfg.Capability = ensemble.NewBooster(params)

	ctx := context.Background()
	datasets, err := catalog.LoadAll(ctx, dataDir, log)
	if err != nil {
		log.Error("Failed to load catalogs", "data_dir", dataDir, "error", err)
		os.Exit(1)
	}
	datasets, err = filterDatasets(datasets, wantCatalogs)
	if err != nil {
		log.Error("Invalid catalog selection", "error", err)
		os.Exit(1)
	}

	run, err := trainer.New(cfg)
	if err != nil {
		log.Error("Failed to configure trainer", "error", err)
		os.Exit(1)
	}

	artifact, report, err := run.Train(ctx, datasets)
	if err != nil {
		log.Error("Training failed", "error", err)
		os.Exit(1)
	}
	report.Log(log)

	if err := bundle.Save(artifact, artifactDir); err != nil {
		log.Error("Failed to persist artifacts", "dir", artifactDir, "error", err)
		os.Exit(1)
	}

	fmt.Printf("\nTraining completed.\n")
	fmt.Printf("   Run ID:    %s\n", report.RunID)
	fmt.Printf("   Artifacts: %s\n", artifactDir)
	fmt.Printf("   CV:        %s\n", report.Summary.Mean.String())
}

func applyScenarioTraining(scenario *TrainScenario, cfg *trainer.Config) {
	if scenario.Training.Folds != 0 {
		cfg.Folds = scenario.Training.Folds
	}
	if scenario.Training.Seed != 0 {
		cfg.Seed = scenario.Training.Seed
	}
	cfg.IncludeCandidates = scenario.Training.IncludeCandidates
	if scenario.Training.CandidateWeight != 0 {
		cfg.CandidateWeight = scenario.Training.CandidateWeight
	}
}

func applyScenarioModel(scenario *TrainScenario, params *ensemble.Params) {
	if scenario.Model.Trees != 0 {
		params.Trees = scenario.Model.Trees
	}
	if scenario.Model.LearningRate != 0 {
		params.LearningRate = scenario.Model.LearningRate
	}
	if scenario.Model.MaxDepth != 0 {
		params.MaxDepth = scenario.Model.MaxDepth
	}
	if scenario.Model.MinChildSamples != 0 {
		params.MinChildSamples = scenario.Model.MinChildSamples
	}
	if scenario.Model.Subsample != 0 {
		params.Subsample = scenario.Model.Subsample
	}
	if scenario.Model.Colsample != 0 {
		params.Colsample = scenario.Model.Colsample
	}
}

// filterDatasets keeps only the named catalogs. An empty selection
// keeps everything.
func filterDatasets(datasets []catalog.Dataset, names []string) ([]catalog.Dataset, error) {
	if len(names) == 0 {
		return datasets, nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		safe, err := validation.SanitizeCatalogName(name)
		if err != nil {
			return nil, err
		}
		spec, err := catalog.Resolve(safe)
		if err != nil {
			return nil, err
		}
		want[spec.Name] = true
	}
	var kept []catalog.Dataset
	for _, dataset := range datasets {
		if want[dataset.Catalog] {
			kept = append(kept, dataset)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("no loaded catalog matches the scenario selection %v", names)
	}
	return kept, nil
}
