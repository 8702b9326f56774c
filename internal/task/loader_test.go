package task

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTasks(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPreservesOrder(t *testing.T) {
	path := writeTasks(t, `{"id":"t1","task_set":"Adversarial Fact Verification","ground_truth":"Paris"}
{"id":"t2","task_set":"Multi-Step Tool-Augmented Reasoning","ground_truth":{"x":1}}
{"id":"t3","task_set":"Unknown Category"}
`)

	tasks, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, CategoryFactVerification, tasks[0].Category())
	assert.Equal(t, "t2", tasks[1].ID)
	assert.Equal(t, CategoryToolReasoning, tasks[1].Category())
	assert.Equal(t, "t3", tasks[2].ID)
	assert.Equal(t, CategoryOther, tasks[2].Category())
	assert.Equal(t, []int{1, 2, 3}, []int{tasks[0].Line, tasks[1].Line, tasks[2].Line})
}

func TestDecodeSkipsBlankLines(t *testing.T) {
	dense := `{"id":"a","task_set":"x"}
{"id":"b","task_set":"y"}`
	sparse := "\n" + `{"id":"a","task_set":"x"}` + "\n   \n\t\n" + `{"id":"b","task_set":"y"}` + "\n\n"

	want, err := Decode(strings.NewReader(dense))
	require.NoError(t, err)
	got, err := Decode(strings.NewReader(sparse))
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].TaskSet, got[i].TaskSet)
	}
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, 5, got[1].Line)
}

func TestDecodeEmptyInput(t *testing.T) {
	tasks, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDecodeMalformedLineAbortsBatch(t *testing.T) {
	input := `{"id":"t1","task_set":"x"}
{"id": "t2", broken
{"id":"t3","task_set":"x"}`

	tasks, err := Decode(strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, tasks)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, line := range []string{`[1,2]`, `"text"`, `42`, `null`} {
		t.Run(line, func(t *testing.T) {
			_, err := Decode(strings.NewReader(line))
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "want ParseError, got %v", err)
			assert.Equal(t, 1, perr.Line)
		})
	}
}

func TestDecodeRejectsNonStringIdentity(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"id":7,"task_set":"x"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldType))
}

func TestDecodeAllowsMissingTaskSet(t *testing.T) {
	tasks, err := Decode(strings.NewReader(`{"id":"t9"}`))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "", tasks[0].TaskSet)
	assert.False(t, tasks[0].Has(FieldTaskSet))
	assert.Equal(t, CategoryOther, tasks[0].Category())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)

	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadMalformedReportsPath(t *testing.T) {
	path := writeTasks(t, "{\"id\":\"ok\"}\nnot json\n")
	_, err := Load(path)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.Contains(t, err.Error(), path)
}

func TestLoadAcceptsLinesBeyondScannerDefault(t *testing.T) {
	big := strings.Repeat("x", 1<<20)
	path := writeTasks(t, `{"id":"t1","task_set":"Adversarial Fact Verification","ground_truth":"`+big+`"}
{"id":"t2","task_set":"Constrained Policy Generation"}
`)

	tasks, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	gt, err := tasks[0].StringField(FieldGroundTruth)
	require.NoError(t, err)
	assert.Len(t, gt, 1<<20)
}

func TestLoadOversizedLineFailsBatch(t *testing.T) {
	oversized := strings.Repeat("x", MaxLineBytes+1)
	path := writeTasks(t, "{\"id\":\"t1\",\"task_set\":\"x\"}\n"+oversized+"\n{\"id\":\"t3\"}\n")

	tasks, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, tasks)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.True(t, errors.Is(err, bufio.ErrTooLong))

	var lerr *LoadError
	assert.False(t, errors.As(err, &lerr))
}
