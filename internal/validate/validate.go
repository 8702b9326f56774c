// Package validate checks a task batch for the fields each category needs
// before it is run or scored.
package validate

import (
	"fmt"

	"evalharness/internal/task"
)

// Finding is one problem in a task file.
type Finding struct {
	Line    int    `json:"line"`
	TaskID  string `json:"id,omitempty"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[L%d] %s", f.Line, f.Message)
}

// required lists the fields a category cannot do without.
var required = map[task.Category][]string{
	task.CategoryFactVerification: {task.FieldAuthoritativeSource},
	task.CategoryToolReasoning:    {task.FieldFilings, task.FieldGroundTruth},
	task.CategoryPolicyGeneration: {task.FieldConstraints},
}

// Check returns every finding in file order. An empty result means the batch
// is valid.
func Check(tasks []task.Task) []Finding {
	var findings []Finding
	firstSeen := make(map[string]int)

	for _, t := range tasks {
		add := func(format string, args ...any) {
			findings = append(findings, Finding{Line: t.Line, TaskID: t.ID, Message: fmt.Sprintf(format, args...)})
		}

		for _, k := range []string{task.FieldTaskSet, task.FieldID} {
			if !t.Has(k) {
				add("missing key: %s", k)
			}
		}

		c := t.Category()
		for _, k := range required[c] {
			if !t.Has(k) {
				add("%s missing %s", abbreviation(c), k)
			}
		}

		if t.ID == "" {
			continue
		}
		if line, dup := firstSeen[t.ID]; dup {
			add("duplicate id %q (first seen on line %d)", t.ID, line)
		} else {
			firstSeen[t.ID] = t.Line
		}
	}
	return findings
}

func abbreviation(c task.Category) string {
	switch c {
	case task.CategoryFactVerification:
		return "AFV"
	case task.CategoryToolReasoning:
		return "MSR"
	case task.CategoryPolicyGeneration:
		return "CPG"
	default:
		return c.String()
	}
}
