// Package simulator produces the deterministic stand-in responses the
// harness records for each task. It never calls a model: every answer is a
// pure function of the task.
package simulator

import (
	"encoding/json"
	"fmt"

	"evalharness/internal/task"

	"go.uber.org/zap"
)

// Fixed outputs and traces per category.
const (
	AnswerPrefix = "Answer: "

	TraceFactVerification = "Selected authoritative source."
	TraceToolReasoning    = "Computed from structured data."
	TracePolicy           = "Checked against constraints."

	PolicyOutput = "Policy response within constraints."

	// MissingGroundTruth stands in for an absent ground_truth in fact
	// verification answers.
	MissingGroundTruth = "<missing ground_truth>"
)

// Result is the simulated response for one task.
type Result struct {
	Output string
	Trace  string
}

// Simulator dispatches a task to its category's response policy.
type Simulator struct {
	strict bool
	logger *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithStrictGroundTruth makes Respond fail when a category that needs
// ground_truth finds it missing, instead of degrading to a placeholder.
func WithStrictGroundTruth(strict bool) Option {
	return func(s *Simulator) { s.strict = strict }
}

// WithLogger sets the logger used to report degraded answers.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Simulator. Without options it never fails.
func New(opts ...Option) *Simulator {
	s := &Simulator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var lenient = New()

// Simulate answers t with the default, never-failing policy.
func Simulate(t task.Task) Result {
	r, _ := lenient.Respond(t)
	return r
}

// Respond answers t. An error is only possible in strict mode.
func (s *Simulator) Respond(t task.Task) (Result, error) {
	switch t.Category() {
	case task.CategoryFactVerification:
		gt, err := s.groundTruth(t)
		if err != nil {
			return Result{}, err
		}
		text := MissingGroundTruth
		if gt != nil {
			text = task.Text(gt)
		}
		return Result{Output: AnswerPrefix + text, Trace: TraceFactVerification}, nil

	case task.CategoryToolReasoning:
		gt, err := s.groundTruth(t)
		if err != nil {
			return Result{}, err
		}
		out := "null"
		if gt != nil {
			out = task.CompactJSON(gt)
		}
		return Result{Output: out, Trace: TraceToolReasoning}, nil

	case task.CategoryPolicyGeneration, task.CategoryOther:
		return Result{Output: PolicyOutput, Trace: TracePolicy}, nil

	default:
		panic(fmt.Sprintf("simulator: unhandled category %d", int(t.Category())))
	}
}

// groundTruth returns nil, nil for a missing value in lenient mode.
func (s *Simulator) groundTruth(t task.Task) (json.RawMessage, error) {
	gt, err := t.GroundTruth()
	if err == nil {
		return gt, nil
	}
	if s.strict {
		return nil, fmt.Errorf("task %q: %w", t.ID, err)
	}
	s.logger.Warn("ground truth unavailable, answering with placeholder",
		zap.String("task_id", t.ID),
		zap.Stringer("category", t.Category()),
		zap.Error(err))
	return nil, nil
}
