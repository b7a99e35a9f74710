// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for user-provided values.
//
// This package validates inputs that end up in file paths or log
// output. Validating at the boundary prevents path traversal through
// catalog names and keeps run identifiers predictable downstream.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// catalogPattern matches valid catalog names.
// Allows: lowercase letters and digits, max 16 characters.
var catalogPattern = regexp.MustCompile(`^[a-z][a-z0-9]{0,15}$`)

// ValidateCatalogName validates a catalog name before it is used to
// resolve a column mapping or build a data file path.
//
// Valid names:
//   - 1-16 characters
//   - Lowercase letters a-z
//   - Digits 0-9 after the first character
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidateCatalogName(name); err != nil {
//	    return fmt.Errorf("invalid catalog: %w", err)
//	}
func ValidateCatalogName(name string) error {
	if name == "" {
		return fmt.Errorf("catalog name cannot be empty")
	}

	if !catalogPattern.MatchString(name) {
		return fmt.Errorf("invalid catalog name: %q (must be 1-16 lowercase alphanumeric chars starting with a letter)", name)
	}

	return nil
}

// SanitizeCatalogName normalizes and validates a catalog name.
// Returns the lowercase trimmed name if valid, or an error.
//
// Use this when accepting names from flags or scenario files:
//
//	safeName, err := validation.SanitizeCatalogName(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeCatalogName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if err := ValidateCatalogName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// runIDPattern matches UUID-shaped run identifiers.
var runIDPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ValidateRunID validates a training run identifier as produced by
// the trainer (UUID v4, lowercase).
func ValidateRunID(runID string) error {
	if runID == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	if !runIDPattern.MatchString(runID) {
		return fmt.Errorf("invalid run id: %q (must be a lowercase UUID)", runID)
	}
	return nil
}
