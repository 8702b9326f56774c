// Package scoring grades a results file against the tasks that produced it
// and aggregates the grades per task set.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"evalharness/internal/metrics"
	"evalharness/internal/task"
)

// UnknownTaskSet labels results whose task set cannot be determined.
const UnknownTaskSet = "UNKNOWN"

// TaskScore is the graded metrics of one result.
type TaskScore struct {
	ID      string         `json:"id"`
	TaskSet string         `json:"task_set"`
	Metrics map[string]any `json:"metrics"`
}

// SetSummary averages numeric metrics over a task set. A nil average means
// no result in the set carried that metric.
type SetSummary struct {
	AvgDeterminismIndex             *float64 `json:"avg_determinism_index"`
	AvgHallucinationRate            *float64 `json:"avg_hallucination_rate"`
	AvgSourcePrioritizationAccuracy *float64 `json:"avg_source_prioritization_accuracy"`
	AvgLatencyMs                    *float64 `json:"avg_latency_ms"`
}

// Report is the full scoring output.
type Report struct {
	PerTask []TaskScore           `json:"per_task"`
	Summary map[string]SetSummary `json:"summary"`
	// Order lists task sets in first-seen order.
	Order []string `json:"-"`
}

// Score grades every result record. Results are matched to tasks by id;
// results without a matching task are still scored with what they carry.
func Score(tasks, results []task.Task) (*Report, error) {
	byID := make(map[string]task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	report := &Report{
		PerTask: make([]TaskScore, 0, len(results)),
		Summary: make(map[string]SetSummary),
	}
	bySet := make(map[string][]map[string]any)

	for _, r := range results {
		t, known := byID[r.ID]

		set := UnknownTaskSet
		switch {
		case r.Has(task.FieldTaskSet):
			set = r.TaskSet
		case known && t.Has(task.FieldTaskSet):
			set = t.TaskSet
		}

		m, err := resultMetrics(r)
		if err != nil {
			return nil, fmt.Errorf("result %q (line %d): %w", r.ID, r.Line, err)
		}

		trace := optionalString(r, "trace")
		if task.ParseCategory(set) == task.CategoryFactVerification {
			m["source_prioritization_accuracy"] = sourceAccuracy(t, r, trace)
		}
		if _, ok := m["reasoning_transparency"]; !ok {
			m["reasoning_transparency"] = metrics.Transparency(trace)
		}

		report.PerTask = append(report.PerTask, TaskScore{ID: r.ID, TaskSet: set, Metrics: m})
		if _, seen := bySet[set]; !seen {
			report.Order = append(report.Order, set)
		}
		bySet[set] = append(bySet[set], m)
	}

	for set, ms := range bySet {
		latencies := make([]map[string]any, 0, len(ms))
		for _, m := range ms {
			if eff, ok := m["performance_efficiency"].(map[string]any); ok {
				latencies = append(latencies, eff)
			}
		}
		report.Summary[set] = SetSummary{
			AvgDeterminismIndex:             mean(ms, "determinism_index"),
			AvgHallucinationRate:            mean(ms, "hallucination_rate"),
			AvgSourcePrioritizationAccuracy: mean(ms, "source_prioritization_accuracy"),
			AvgLatencyMs:                    mean(latencies, "latency_ms"),
		}
	}

	return report, nil
}

// FindTitles returns the titles mentioned in text, ignoring case.
func FindTitles(titles []string, text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, title := range titles {
		if strings.Contains(lower, strings.ToLower(title)) {
			hits = append(hits, title)
		}
	}
	return hits
}

func sourceAccuracy(t, r task.Task, trace string) float64 {
	auth, _ := t.AuthoritativeSource()

	referenced, err := referencedSources(r)
	if err != nil || len(referenced) == 0 {
		sources, _ := t.Sources()
		titles := make([]string, 0, len(sources))
		for _, s := range sources {
			titles = append(titles, s.Title)
		}
		referenced = FindTitles(titles, lastOutput(r)+" "+trace)
	}
	return metrics.SourcePrioritizationAccuracy(referenced, auth)
}

func referencedSources(r task.Task) ([]string, error) {
	raw, err := r.Field("referenced_sources")
	if err != nil {
		return nil, err
	}
	var refs []string
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("referenced_sources: %w", task.ErrFieldType)
	}
	return refs, nil
}

func resultMetrics(r task.Task) (map[string]any, error) {
	raw, err := r.Field("metrics")
	if errors.Is(err, task.ErrFieldMissing) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("metrics: %w", task.ErrFieldType)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// lastOutput prefers last_output and falls back to output.
func lastOutput(r task.Task) string {
	if r.Has("last_output") {
		return optionalString(r, "last_output")
	}
	return optionalString(r, "output")
}

func optionalString(r task.Task, name string) string {
	s, err := r.StringField(name)
	if err != nil {
		return ""
	}
	return s
}

func mean(items []map[string]any, key string) *float64 {
	var sum float64
	n := 0
	for _, m := range items {
		if v, ok := m[key].(float64); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
