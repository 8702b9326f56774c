package task

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// MaxLineBytes bounds a single record line.
const MaxLineBytes = 16 << 20

// LoadError reports that the task file could not be opened or read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load tasks from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ParseError reports a line that is not a JSON object. One bad line fails
// the whole batch.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads every task from a line-delimited JSON file.
func Load(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	tasks, err := Decode(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return tasks, nil
}

// Decode parses line-delimited JSON records from r. Blank lines are skipped;
// the first malformed line aborts decoding and nothing is returned.
func Decode(r io.Reader) ([]Task, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	var tasks []Task
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		t, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Err: err}
		}
		t.Line = lineNo
		tasks = append(tasks, t)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: lineNo + 1, Err: fmt.Errorf("record exceeds %d bytes: %w", MaxLineBytes, err)}
		}
		return nil, err
	}
	return tasks, nil
}

func parseLine(line []byte) (Task, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Task{}, fmt.Errorf("invalid record: %w", err)
	}
	if fields == nil {
		return Task{}, fmt.Errorf("invalid record: not a JSON object")
	}
	return New(fields)
}
