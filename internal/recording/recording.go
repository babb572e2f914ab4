// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package recording reads and writes session captures: one record per
// line, fields comma-joined in schema order, values as decimal text,
// no header line.
package recording

import (
	"bufio"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gomugic/internal/datagram"
)

// Write renders records oldest-first onto w.
func Write(w io.Writer, schema *datagram.Schema, records []datagram.Datagram) error {
	bw := bufio.NewWriter(w)
	for i := range records {
		if _, err := bw.WriteString(schema.FormatLine(&records[i]) + "\n"); err != nil {
			return fmt.Errorf("recording write: %w", err)
		}
	}
	return bw.Flush()
}

// Save writes records to a file, replacing any previous content.
func Save(path string, schema *datagram.Schema, records []datagram.Datagram) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recording create: %w", err)
	}
	defer f.Close()
	if err := Write(f, schema, records); err != nil {
		return err
	}
	log.Infof("recording: wrote %d records to %s", len(records), path)
	return nil
}

// Read parses a recording from r into positional value sequences,
// skipping blank lines. A malformed line fails the whole read; a
// truncated recording should not silently replay.
func Read(r io.Reader, schema *datagram.Schema) ([][]float64, error) {
	var records [][]float64
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		values, err := schema.ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("recording line %d: %w", lineNum, err)
		}
		records = append(records, values)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("recording read: %w", err)
	}
	return records, nil
}

// Load reads a recording file.
func Load(path string, schema *datagram.Schema) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recording open: %w", err)
	}
	defer f.Close()
	return Read(f, schema)
}
