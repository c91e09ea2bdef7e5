// Package ndjson streams records to newline-delimited JSON files, one
// complete document per line. Writes go straight to the file so that a
// mid-run crash leaves every previously written record intact.
package ndjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteError reports a local filesystem failure.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type Writer struct {
	file  *os.File
	path  string
	count int
}

// Create opens path for writing, creating parent directories as needed.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, &WriteError{Path: path, Err: err}
		}
	}

	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}

	return &Writer{file: file, path: path}, nil
}

// Write appends item as a single compacted JSON line. Compaction only strips
// inter-token whitespace, so field order and values pass through verbatim.
func (w *Writer) Write(item json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, item); err != nil {
		return &WriteError{Path: w.path, Err: fmt.Errorf("invalid JSON record: %w", err)}
	}

	buf.WriteByte('\n')

	if _, err := w.file.Write(buf.Bytes()); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}

	w.count++

	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() int {
	return w.count
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Close() error {
	if err := w.file.Close(); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}

	return nil
}

// WriteBinary writes a complete binary payload (e.g. a PDF) as a single
// file. Binary content is never line-delimited.
func WriteBinary(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	return nil
}
