// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AstrumAI/AstrumFOSS/pkg/validation"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/bundle"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/catalog"
	"github.com/AstrumAI/AstrumFOSS/services/classifier/scoring"
)

var predictCmd = &cobra.Command{
	Use:   "predict [csv-file]",
	Short: "Scores catalog rows against the trained classifier",
	Long: `Reads rows from an exoplanet-archive CSV export, scores each one with the
trained bundle, and writes a copy of the input with predicted
disposition, probability, and confidence columns appended.

The output file is written next to the input as {input}_scored.csv
unless --output is given.`,
	Args: cobra.ExactArgs(1),
	Run:  runPredict,
}

var (
	predictCatalog     string
	predictArtifactDir string
	predictOutput      string
	candidateThreshold float64
	confirmedThreshold float64
)

func init() {
	predictCmd.Flags().StringVar(&predictCatalog, "catalog", "", "catalog the rows come from (kepler, k2, toi; tess is an alias for toi)")
	predictCmd.Flags().StringVar(&predictArtifactDir, "artifacts", "models", "directory holding the trained model artifacts")
	predictCmd.Flags().StringVar(&predictOutput, "output", "", "output CSV path (default: {input}_scored.csv)")
	predictCmd.Flags().Float64Var(&candidateThreshold, "candidate-threshold", 0.4, "probability at or above which a row is a CANDIDATE")
	predictCmd.Flags().Float64Var(&confirmedThreshold, "confirmed-threshold", 0.7, "probability at or above which a row is CONFIRMED")
	_ = predictCmd.MarkFlagRequired("catalog")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) {
	log := logger.Slog()
	inputPath := args[0]

	catalogName, err := validation.SanitizeCatalogName(predictCatalog)
	if err != nil {
		log.Error("Invalid catalog", "error", err)
		os.Exit(1)
	}

	table, err := catalog.ReadTable(inputPath)
	if err != nil {
		log.Error("Failed to read input", "path", inputPath, "error", err)
		os.Exit(1)
	}
	if len(table.Records) == 0 {
		log.Error("Input file has no data rows", "path", inputPath)
		os.Exit(1)
	}

	artifact, err := bundle.Load(predictArtifactDir)
	if err != nil {
		log.Error("Failed to load model artifacts", "dir", predictArtifactDir, "error", err)
		os.Exit(1)
	}
	engine, err := scoring.NewEngine(artifact)
	if err != nil {
		log.Error("Failed to build scoring engine", "error", err)
		os.Exit(1)
	}

	thresholds := scoring.Thresholds{Candidate: candidateThreshold, Confirmed: confirmedThreshold}
	predictions, err := engine.Predict(catalogName, table.Records, thresholds)
	if err != nil {
		log.Error("Scoring failed", "error", err)
		os.Exit(1)
	}

	outputPath := predictOutput
	if outputPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = base + "_scored.csv"
	}
	if err := writeScoredCSV(outputPath, table, predictions); err != nil {
		log.Error("Failed to write scored output", "path", outputPath, "error", err)
		os.Exit(1)
	}

	allMissing := 0
	for _, p := range predictions {
		if p.AllMissing {
			allMissing++
		}
	}
	log.Info("Scoring completed",
		"run_id", artifact.RunID,
		"catalog", catalogName,
		"scored", len(predictions),
		"all_missing", allMissing,
		"output", outputPath,
	)
	fmt.Printf("Scored %d rows (%d fully imputed) -> %s\n", len(predictions), allMissing, outputPath)
}

// writeScoredCSV echoes the input columns and appends the prediction
// columns. Every row carries a prediction; rows with no usable
// feature were imputed to their group medians before scoring.
func writeScoredCSV(path string, table *catalog.Table, predictions []scoring.Prediction) error {
	handle, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer handle.Close()

	writer := csv.NewWriter(handle)
	defer writer.Flush()

	header := append(append([]string{}, table.Header...),
		"predicted_label", "predicted_disposition", "probability", "confidence")
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, record := range table.Records {
		row := make([]string, 0, len(header))
		for _, column := range table.Header {
			row = append(row, record[column])
		}
		p := predictions[i]
		row = append(row,
			strconv.Itoa(int(p.Class)),
			p.Disposition,
			strconv.FormatFloat(p.Probability, 'f', 6, 64),
			strconv.FormatFloat(p.Confidence, 'f', 6, 64),
		)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
