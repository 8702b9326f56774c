// Package metrics scores simulated answers: how stable repeated outputs are,
// whether an answer reflects its ground truth, and whether it relied on the
// authoritative source.
package metrics

import (
	"encoding/json"
	"strings"

	"evalharness/internal/task"

	"github.com/pmezard/go-difflib/difflib"
)

// Jaccard is the overlap of whitespace-separated token sets. Two empty
// strings are identical.
func Jaccard(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}

	inter := 0
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(max(1, union))
}

// SequenceRatio is the character-level similarity ratio 2*M/T, where M is the
// number of matched characters and T the combined length.
func SequenceRatio(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// DeterminismIndex averages 0.5*Jaccard + 0.5*SequenceRatio over every pair
// of outputs. Fewer than two outputs are trivially deterministic.
func DeterminismIndex(outputs []string) float64 {
	if len(outputs) < 2 {
		return 1.0
	}

	var acc float64
	pairs := 0
	for i := 0; i < len(outputs); i++ {
		for j := i + 1; j < len(outputs); j++ {
			acc += 0.5*Jaccard(outputs[i], outputs[j]) + 0.5*SequenceRatio(outputs[i], outputs[j])
			pairs++
		}
	}
	return acc / float64(pairs)
}

// HallucinationRate is 0 when the rendered ground truth appears verbatim in
// output and 1 otherwise. Objects render as compact JSON, other values as
// their text. A nil groundTruth always counts as a hallucination.
func HallucinationRate(output string, groundTruth json.RawMessage) float64 {
	if groundTruth == nil {
		return 1.0
	}

	var rendered string
	if isObject(groundTruth) {
		rendered = task.CompactJSON(groundTruth)
	} else {
		rendered = task.Text(groundTruth)
	}

	rendered = strings.TrimSpace(rendered)
	if rendered != "" && strings.Contains(output, rendered) {
		return 0.0
	}
	return 1.0
}

// SourcePrioritizationAccuracy is 1 when the authoritative title is among the
// referenced ones.
func SourcePrioritizationAccuracy(referenced []string, authoritative string) float64 {
	if authoritative == "" {
		return 0.0
	}
	for _, r := range referenced {
		if r == authoritative {
			return 1.0
		}
	}
	return 0.0
}

// Transparency labels whether a reasoning trace was recorded.
func Transparency(trace string) string {
	if trace != "" {
		return "present"
	}
	return "missing"
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
