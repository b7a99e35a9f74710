// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TrainScenario is a declarative description of one training run,
// loaded from a YAML file. CLI flags override scenario values.
//
// Example:
//
//	metadata:
//	  id: shared_v2
//	  version: "2.1"
//	data:
//	  dir: ./data
//	  catalogs: [kepler, k2, toi]
//	training:
//	  folds: 5
//	  seed: 42
//	  include_candidates: true
//	  candidate_weight: 0.35
//	model:
//	  trees: 400
//	  learning_rate: 0.03
//	  max_depth: 6
//	artifacts:
//	  dir: ./models
type TrainScenario struct {
	Metadata struct {
		ID      string `yaml:"id" validate:"required"`
		Version string `yaml:"version"`
	} `yaml:"metadata"`

	Data struct {
		Dir      string   `yaml:"dir" validate:"required"`
		Catalogs []string `yaml:"catalogs" validate:"omitempty,dive,oneof=kepler k2 toi tess"`
	} `yaml:"data"`

	Training struct {
		Folds             int     `yaml:"folds" validate:"omitempty,gte=2,lte=20"`
		Seed              uint64  `yaml:"seed"`
		IncludeCandidates bool    `yaml:"include_candidates"`
		CandidateWeight   float64 `yaml:"candidate_weight" validate:"omitempty,gt=0,lte=1"`
	} `yaml:"training"`

	Model struct {
		Trees           int     `yaml:"trees" validate:"omitempty,gte=1,lte=5000"`
		LearningRate    float64 `yaml:"learning_rate" validate:"omitempty,gt=0,lte=1"`
		MaxDepth        int     `yaml:"max_depth" validate:"omitempty,gte=1,lte=16"`
		MinChildSamples int     `yaml:"min_child_samples" validate:"omitempty,gte=1"`
		Subsample       float64 `yaml:"subsample" validate:"omitempty,gt=0,lte=1"`
		Colsample       float64 `yaml:"colsample" validate:"omitempty,gt=0,lte=1"`
	} `yaml:"model"`

	Artifacts struct {
		Dir string `yaml:"dir"`
	} `yaml:"artifacts"`
}

var scenarioValidator struct {
	once     sync.Once
	validate *validator.Validate
}

func validateScenario(scenario *TrainScenario) error {
	scenarioValidator.once.Do(func() {
		scenarioValidator.validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := scenarioValidator.validate.Struct(scenario); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}
	return nil
}

// loadScenario reads and validates a scenario file.
func loadScenario(path string) (*TrainScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var scenario TrainScenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}
