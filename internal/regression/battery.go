// Package regression checks a score report against a YAML battery of
// per-task_set metric gates, so a batch can fail CI when quality drifts.
package regression

import (
	"fmt"
	"os"

	"evalharness/internal/scoring"

	"gopkg.in/yaml.v3"
)

// Gate metrics, named after the score summary fields.
const (
	MetricDeterminism   = "avg_determinism_index"
	MetricHallucination = "avg_hallucination_rate"
	MetricSourceAcc     = "avg_source_prioritization_accuracy"
	MetricLatency       = "avg_latency_ms"
)

// Battery is a collection of gates.
type Battery struct {
	Version int    `yaml:"version"`
	Gates   []Gate `yaml:"gates"`
}

// Gate bounds one summary metric of one task_set. At least one of Min and
// Max must be set.
type Gate struct {
	ID      string   `yaml:"id"`
	TaskSet string   `yaml:"task_set"`
	Metric  string   `yaml:"metric"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
}

// Result captures the outcome of one gate.
type Result struct {
	GateID  string   `json:"gate"`
	Success bool     `json:"success"`
	Value   *float64 `json:"value"`
	Error   string   `json:"error,omitempty"`
}

// LoadBattery reads a YAML battery file from disk.
func LoadBattery(path string) (*Battery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Battery
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse battery YAML: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &b, nil
}

// Validate rejects gates that could never be evaluated.
func (b *Battery) Validate() error {
	seen := make(map[string]bool, len(b.Gates))
	for i, g := range b.Gates {
		if g.ID == "" {
			return fmt.Errorf("gate %d: missing id", i)
		}
		if seen[g.ID] {
			return fmt.Errorf("gate %q: duplicate id", g.ID)
		}
		seen[g.ID] = true
		if _, ok := metricValue(scoring.SetSummary{}, g.Metric); !ok {
			return fmt.Errorf("gate %q: unknown metric %q", g.ID, g.Metric)
		}
		if g.Min == nil && g.Max == nil {
			return fmt.Errorf("gate %q: needs min or max", g.ID)
		}
	}
	return nil
}

// Check evaluates every gate in order. A task_set absent from the report or
// a metric without samples fails the gate.
func Check(b *Battery, rep *scoring.Report) []Result {
	if b == nil || len(b.Gates) == 0 {
		return nil
	}

	results := make([]Result, 0, len(b.Gates))
	for _, g := range b.Gates {
		res := Result{GateID: g.ID}

		summary, ok := rep.Summary[g.TaskSet]
		if !ok {
			res.Error = fmt.Sprintf("task_set %q not in report", g.TaskSet)
			results = append(results, res)
			continue
		}

		v, _ := metricValue(summary, g.Metric)
		res.Value = v
		switch {
		case v == nil:
			res.Error = fmt.Sprintf("%s has no samples", g.Metric)
		case g.Min != nil && *v < *g.Min:
			res.Error = fmt.Sprintf("%s = %.4f below min %.4f", g.Metric, *v, *g.Min)
		case g.Max != nil && *v > *g.Max:
			res.Error = fmt.Sprintf("%s = %.4f above max %.4f", g.Metric, *v, *g.Max)
		default:
			res.Success = true
		}
		results = append(results, res)
	}
	return results
}

// Failed counts unsuccessful results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

func metricValue(s scoring.SetSummary, metric string) (*float64, bool) {
	switch metric {
	case MetricDeterminism:
		return s.AvgDeterminismIndex, true
	case MetricHallucination:
		return s.AvgHallucinationRate, true
	case MetricSourceAcc:
		return s.AvgSourcePrioritizationAccuracy, true
	case MetricLatency:
		return s.AvgLatencyMs, true
	default:
		return nil, false
	}
}
