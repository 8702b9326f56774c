// Package report renders scoring and validation outcomes for operators.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"evalharness/internal/regression"
	"evalharness/internal/scoring"
	"evalharness/internal/validate"

	"github.com/charmbracelet/lipgloss"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

const rule = "───────────────────────────────────────────────────────────────"

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// Reporter formats and outputs results.
type Reporter struct {
	writer io.Writer
	format string
}

// NewReporter creates a new reporter. Unknown formats fall back to console.
func NewReporter(writer io.Writer, format string) *Reporter {
	return &Reporter{writer: writer, format: format}
}

// scoresDocument is the JSON form of a scoring run. Gates is present only
// when a regression battery was checked.
type scoresDocument struct {
	*scoring.Report
	Gates []regression.Result `json:"gates,omitempty"`
}

// Scores outputs a scoring report followed by any regression gate results.
func (r *Reporter) Scores(rep *scoring.Report, gates []regression.Result) error {
	if r.format == FormatJSON {
		return r.writeJSON(scoresDocument{Report: rep, Gates: gates})
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("EVALUATION SCORES") + "\n")
	sb.WriteString(rule + "\n")

	for _, set := range setOrder(rep) {
		s := rep.Summary[set]
		count := 0
		for _, ts := range rep.PerTask {
			if ts.TaskSet == set {
				count++
			}
		}
		sb.WriteString(fmt.Sprintf("%s  (%d tasks)\n", titleStyle.Render(displaySet(set)), count))
		sb.WriteString(fmt.Sprintf("  Determinism Index:         %s\n", formatAvg(s.AvgDeterminismIndex, false)))
		sb.WriteString(fmt.Sprintf("  Hallucination Rate:        %s\n", formatAvg(s.AvgHallucinationRate, true)))
		sb.WriteString(fmt.Sprintf("  Source Prioritization:     %s\n", formatAvg(s.AvgSourcePrioritizationAccuracy, false)))
		sb.WriteString(fmt.Sprintf("  Avg Latency:               %s\n", formatLatency(s.AvgLatencyMs)))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Total: %d results | Task sets: %d\n", len(rep.PerTask), len(rep.Summary)))
	if _, err := io.WriteString(r.writer, sb.String()); err != nil {
		return err
	}
	if gates == nil {
		return nil
	}
	_, err := io.WriteString(r.writer, "\n")
	if err != nil {
		return err
	}
	return r.Gates(gates)
}

// Findings outputs validation findings. With no findings it reports success.
func (r *Reporter) Findings(path string, findings []validate.Finding) error {
	if r.format == FormatJSON {
		if findings == nil {
			findings = []validate.Finding{}
		}
		return r.writeJSON(struct {
			Path     string             `json:"path"`
			Valid    bool               `json:"valid"`
			Findings []validate.Finding `json:"findings"`
		}{Path: path, Valid: len(findings) == 0, Findings: findings})
	}

	var sb strings.Builder
	if len(findings) == 0 {
		sb.WriteString(okStyle.Render("✓ "+path+": valid") + "\n")
	} else {
		for _, f := range findings {
			sb.WriteString(f.String() + "\n")
		}
		sb.WriteString(badStyle.Render(fmt.Sprintf("✗ %s: %d problem(s)", path, len(findings))) + "\n")
	}
	_, err := io.WriteString(r.writer, sb.String())
	return err
}

// Gates outputs regression gate results.
func (r *Reporter) Gates(results []regression.Result) error {
	if r.format == FormatJSON {
		return r.writeJSON(results)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("REGRESSION GATES") + "\n")
	sb.WriteString(rule + "\n")
	for _, res := range results {
		if res.Success {
			sb.WriteString(okStyle.Render("✓ "+res.GateID) + "\n")
			continue
		}
		sb.WriteString(badStyle.Render("✗ "+res.GateID) + "  " + res.Error + "\n")
	}
	failed := regression.Failed(results)
	sb.WriteString(fmt.Sprintf("Gates: %d/%d passed\n", len(results)-failed, len(results)))
	_, err := io.WriteString(r.writer, sb.String())
	return err
}

func (r *Reporter) writeJSON(v any) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setOrder prefers first-seen order and falls back to sorted names.
func setOrder(rep *scoring.Report) []string {
	if len(rep.Order) == len(rep.Summary) {
		return rep.Order
	}
	sets := make([]string, 0, len(rep.Summary))
	for s := range rep.Summary {
		sets = append(sets, s)
	}
	sort.Strings(sets)
	return sets
}

func displaySet(set string) string {
	if set == "" {
		return "(empty task_set)"
	}
	return set
}

// formatAvg renders a 0..1 average as a percentage. lowerIsBetter flips
// the colour threshold.
func formatAvg(v *float64, lowerIsBetter bool) string {
	if v == nil {
		return dimStyle.Render("n/a")
	}
	text := fmt.Sprintf("%.2f%%", *v*100)
	good := *v >= 0.5
	if lowerIsBetter {
		good = *v < 0.5
	}
	if good {
		return okStyle.Render(text)
	}
	return badStyle.Render(text)
}

func formatLatency(v *float64) string {
	if v == nil {
		return dimStyle.Render("n/a")
	}
	return fmt.Sprintf("%.1f ms", *v)
}
