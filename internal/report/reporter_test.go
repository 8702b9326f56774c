package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"evalharness/internal/regression"
	"evalharness/internal/scoring"
	"evalharness/internal/validate"
)

func ptr(v float64) *float64 { return &v }

func sampleReport() *scoring.Report {
	return &scoring.Report{
		PerTask: []scoring.TaskScore{
			{ID: "AFV-001", TaskSet: "Adversarial Fact Verification", Metrics: map[string]any{"determinism_index": 1.0}},
			{ID: "CPG-001", TaskSet: "Constrained Policy Generation", Metrics: map[string]any{}},
		},
		Summary: map[string]scoring.SetSummary{
			"Adversarial Fact Verification": {AvgDeterminismIndex: ptr(1.0), AvgHallucinationRate: ptr(0.0), AvgLatencyMs: ptr(2.5)},
			"Constrained Policy Generation": {},
		},
		Order: []string{"Adversarial Fact Verification", "Constrained Policy Generation"},
	}
}

func TestReporterScoresConsole(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReporter(&buf, FormatConsole).Scores(sampleReport(), nil); err != nil {
		t.Fatalf("Scores console failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"EVALUATION SCORES",
		"Adversarial Fact Verification",
		"100.00%",
		"2.5 ms",
		"n/a",
		"Total: 2 results | Task sets: 2",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console report missing %q:\n%s", want, output)
		}
	}
	if strings.Index(output, "Adversarial") > strings.Index(output, "Constrained") {
		t.Errorf("task sets should follow first-seen order")
	}
}

func TestReporterScoresJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReporter(&buf, FormatJSON).Scores(sampleReport(), nil); err != nil {
		t.Fatalf("Scores JSON failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if _, ok := decoded["per_task"]; !ok {
		t.Fatalf("expected per_task in JSON output")
	}
	if _, ok := decoded["Order"]; ok {
		t.Fatalf("Order must not be serialized")
	}
	if _, ok := decoded["gates"]; ok {
		t.Fatalf("gates must be omitted without a battery")
	}
}

func TestReporterScoresJSONWithGates(t *testing.T) {
	var buf bytes.Buffer
	gates := []regression.Result{
		{GateID: "afv-grounded", Error: "avg_hallucination_rate = 0.5000 above max 0.1000", Value: ptr(0.5)},
	}
	if err := NewReporter(&buf, FormatJSON).Scores(sampleReport(), gates); err != nil {
		t.Fatalf("Scores JSON failed: %v", err)
	}

	var decoded struct {
		PerTask []scoring.TaskScore `json:"per_task"`
		Gates   []regression.Result `json:"gates"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output must be a single JSON document: %v", err)
	}
	if len(decoded.PerTask) != 2 {
		t.Fatalf("per_task len = %d, want 2", len(decoded.PerTask))
	}
	if len(decoded.Gates) != 1 || decoded.Gates[0].GateID != "afv-grounded" || decoded.Gates[0].Success {
		t.Fatalf("unexpected gates: %+v", decoded.Gates)
	}
}

func TestReporterScoresConsoleWithGates(t *testing.T) {
	var buf bytes.Buffer
	gates := []regression.Result{{GateID: "afv-stable", Success: true, Value: ptr(1)}}
	if err := NewReporter(&buf, FormatConsole).Scores(sampleReport(), gates); err != nil {
		t.Fatal(err)
	}
	output := buf.String()
	if strings.Index(output, "EVALUATION SCORES") > strings.Index(output, "REGRESSION GATES") {
		t.Fatalf("gates should follow the score table:\n%s", output)
	}
	if !strings.Contains(output, "Gates: 1/1 passed") {
		t.Fatalf("missing gate summary:\n%s", output)
	}
}

func TestReporterFindings(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatConsole)

	if err := r.Findings("tasks.jsonl", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "tasks.jsonl: valid") {
		t.Fatalf("expected success line, got %q", buf.String())
	}

	buf.Reset()
	findings := []validate.Finding{{Line: 3, Message: "missing key: id"}}
	if err := r.Findings("tasks.jsonl", findings); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[L3] missing key: id") || !strings.Contains(buf.String(), "1 problem(s)") {
		t.Fatalf("unexpected findings output: %q", buf.String())
	}
}

func TestReporterFindingsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReporter(&buf, FormatJSON).Findings("tasks.jsonl", nil); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Valid    bool               `json:"valid"`
		Findings []validate.Finding `json:"findings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !decoded.Valid || decoded.Findings == nil || len(decoded.Findings) != 0 {
		t.Fatalf("unexpected decoded value: %+v", decoded)
	}
}

func TestReporterGates(t *testing.T) {
	var buf bytes.Buffer
	gates := []regression.Result{
		{GateID: "afv-stable", Success: true, Value: ptr(1)},
		{GateID: "afv-grounded", Error: "avg_hallucination_rate = 0.5000 above max 0.1000", Value: ptr(0.5)},
	}
	if err := NewReporter(&buf, FormatConsole).Gates(gates); err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	for _, want := range []string{"REGRESSION GATES", "afv-stable", "above max", "Gates: 1/2 passed"} {
		if !strings.Contains(output, want) {
			t.Errorf("gates output missing %q:\n%s", want, output)
		}
	}
}
