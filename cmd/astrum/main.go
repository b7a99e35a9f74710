// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AstrumAI/AstrumFOSS/pkg/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:   "astrum",
		Short: "A CLI to train and run the shared exoplanet transit classifier",
		Long: `Astrum trains one gradient-boosted classifier across the Kepler, K2,
and TESS Object of Interest catalogs and scores new transit signals
against it. Training produces a portable artifact bundle; predict and
importance read it back.`,
	}

	logLevel string
	logDir   string
	logJSON  bool

	logger *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "also write JSON logs to this directory")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "json-logs", false, "emit stderr logs as JSON")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(logLevel),
			LogDir:  logDir,
			Service: "cli",
			JSON:    logJSON,
		})
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	}
}
