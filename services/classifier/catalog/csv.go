// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// RowIterator yields string-keyed records from a tabular source.
//
// # Description
//
// The extraction code consumes rows through this capability instead of
// parsing files itself, so tests and upstream services can feed rows
// from memory, uploads, or other readers. The iterator must call fn for
// every record and stop early when fn returns false.
type RowIterator func(fn func(record map[string]string) bool) error

// IterateRows returns a RowIterator over an exoplanet-archive CSV file.
//
// # Description
//
// Archive exports prefix the header with '#' comment lines describing
// the query. The first non-comment line is taken as the header; every
// following line becomes one record keyed by the trimmed header names.
// Values are whitespace-trimmed. Short rows leave trailing columns
// empty rather than failing, matching how the archive pads exports.
//
// # Inputs
//
//   - path: CSV file location.
//
// # Outputs
//
//   - RowIterator: Iterator over the file's records.
func IterateRows(path string) RowIterator {
	return func(fn func(record map[string]string) bool) error {
		handle, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open catalog file: %w", err)
		}
		defer handle.Close()
		return iterateReader(handle, fn)
	}
}

// IterateReaderRows returns a RowIterator over an in-memory CSV stream,
// using the same comment-skipping header rules as IterateRows.
func IterateReaderRows(r io.Reader) RowIterator {
	return func(fn func(record map[string]string) bool) error {
		return iterateReader(r, fn)
	}
}

func iterateReader(r io.Reader, fn func(record map[string]string) bool) error {
	buffered := bufio.NewReader(r)

	header, err := readHeader(buffered)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return nil
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read catalog row: %w", err)
		}
		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				record[name] = strings.TrimSpace(fields[i])
			} else {
				record[name] = ""
			}
		}
		if !fn(record) {
			return nil
		}
	}
}

// Table is a fully materialized catalog export with its header order
// preserved. Used when the output must echo the input columns, such
// as scored-CSV generation.
type Table struct {
	Header  []string
	Records []map[string]string
}

// ReadTable reads an entire catalog CSV into memory, applying the
// same comment-skipping header rules as IterateRows.
func ReadTable(path string) (*Table, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer handle.Close()

	buffered := bufio.NewReader(handle)
	header, err := readHeader(buffered)
	if err != nil {
		return nil, err
	}
	table := &Table{Header: header}
	if len(header) == 0 {
		return table, nil
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}
		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				record[name] = strings.TrimSpace(fields[i])
			} else {
				record[name] = ""
			}
		}
		table.Records = append(table.Records, record)
	}
}

// readHeader scans past leading '#' comment lines and splits the first
// real line into trimmed column names.
func readHeader(r *bufio.Reader) ([]string, error) {
	for {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read catalog header: %w", err)
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}
		columns := strings.Split(trimmed, ",")
		for i, col := range columns {
			columns[i] = strings.TrimSpace(col)
		}
		return columns, nil
	}
}
