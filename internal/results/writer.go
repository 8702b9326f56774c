// Package results persists harness output as line-delimited JSON.
//
// Files are written to a temporary sibling and renamed into place, so a run
// that fails midway never leaves a truncated file behind under the final name.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Record is one emitted line of the core pipeline. Field order is the wire order.
type Record struct {
	ID      string `json:"id"`
	TaskSet string `json:"task_set"`
	Output  string `json:"output"`
	Trace   string `json:"trace"`
}

// WriteError reports that the destination could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write results to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Write stores records at path, one JSON object per line, joined by a single
// newline with no trailing newline. Existing content is replaced.
func Write(path string, records []Record) error {
	return WriteLines(path, records, false)
}

// WriteLines stores items at path as JSON lines. With terminate set every
// line, including the last, ends in a newline.
func WriteLines[T any](path string, items []T, terminate bool) error {
	var buf bytes.Buffer
	if err := EncodeLines(&buf, items, terminate); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return writeFile(path, buf.Bytes())
}

// WriteJSON stores v at path as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return writeFile(path, data)
}

// EncodeLines writes items to w as compact JSON lines without HTML escaping.
func EncodeLines[T any](w io.Writer, items []T, terminate bool) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range items {
		if err := enc.Encode(items[i]); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}

	out := buf.Bytes()
	if !terminate && len(out) > 0 {
		out = out[:len(out)-1]
	}
	_, err := w.Write(out)
	return err
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, destMode(path)); err != nil {
		_ = os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// destMode keeps the permissions of an existing destination. New files get 0644.
func destMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		return fi.Mode().Perm()
	}
	return 0o644
}
