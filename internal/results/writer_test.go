package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJoinsWithoutTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	records := []Record{
		{ID: "t1", TaskSet: "Adversarial Fact Verification", Output: "Answer: Paris", Trace: "Selected authoritative source."},
		{ID: "t2", TaskSet: "Multi-Step Tool-Augmented Reasoning", Output: `{"x":1}`, Trace: "Computed from structured data."},
	}

	require.NoError(t, Write(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `{"id":"t1","task_set":"Adversarial Fact Verification","output":"Answer: Paris","trace":"Selected authoritative source."}` + "\n" +
		`{"id":"t2","task_set":"Multi-Step Tool-Augmented Reasoning","output":"{\"x\":1}","trace":"Computed from structured data."}`
	assert.Equal(t, want, string(data))
}

func TestWriteEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	require.NoError(t, Write(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale\n", 100)), 0o644))

	require.NoError(t, Write(path, []Record{{ID: "only"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"only","task_set":"","output":"","trace":""}`, string(data))
}

func TestWriteKeepsExistingPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "results.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, Write(path, []Record{{ID: "a"}}))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestWriteNewFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "results.jsonl")
	require.NoError(t, Write(path, []Record{{ID: "a"}}))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(filepath.Join(dir, "results.jsonl"), []Record{{ID: "a"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "results.jsonl", entries[0].Name())
}

func TestWriteUnwritableDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "results.jsonl")

	err := Write(path, []Record{{ID: "a"}})
	require.Error(t, err)

	var werr *WriteError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, path, werr.Path)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestEncodeLinesDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeLines(&buf, []Record{{ID: "a", Output: "<p>&</p>"}}, true))

	assert.Equal(t, `{"id":"a","task_set":"","output":"<p>&</p>","trace":""}`+"\n", buf.String())
}

func TestEncodeLinesEachLineIsARecord(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{{ID: "a", Output: "line one\nline two"}, {ID: "b"}, {ID: "c"}}
	require.NoError(t, EncodeLines(&buf, records, false))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		var r Record
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		assert.Equal(t, records[i], r)
	}
}

func TestWriteJSONIndents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(data))
}
