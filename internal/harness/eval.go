package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evalharness/internal/logging"
	"evalharness/internal/metrics"
	"evalharness/internal/results"
	"evalharness/internal/simulator"
	"evalharness/internal/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultEvalPath = "eval.jsonl"
	DefaultRuns     = 10
)

// EvalOptions configures a repeated-run evaluation.
type EvalOptions struct {
	Options
	Runs int

	// Now is the clock used for latency measurement. Defaults to time.Now.
	Now func() time.Time
}

// Efficiency is the cost side of an evaluation.
type Efficiency struct {
	LatencyMs   int64 `json:"latency_ms"`
	ComputeCost int   `json:"compute_cost"`
}

// EvalMetrics are the per-task scores of an evaluation.
type EvalMetrics struct {
	DeterminismIndex      float64    `json:"determinism_index"`
	HallucinationRate     float64    `json:"hallucination_rate"`
	ReasoningTransparency string     `json:"reasoning_transparency"`
	PerformanceEfficiency Efficiency `json:"performance_efficiency"`
	ErrorRecoveryPattern  string     `json:"error_recovery_pattern"`
}

// EvalRecord is one line of an evaluation file.
type EvalRecord struct {
	ID         string      `json:"id"`
	TaskSet    string      `json:"task_set"`
	Metrics    EvalMetrics `json:"metrics"`
	LastOutput string      `json:"last_output"`
	// Trace is kept so the scorer can judge transparency and source use.
	Trace string `json:"trace"`
}

// Eval simulates every task Runs times and records stability and grounding
// metrics per task.
func Eval(ctx context.Context, opts EvalOptions) ([]EvalRecord, error) {
	if opts.OutputPath == "" {
		opts.OutputPath = DefaultEvalPath
	}
	opts.applyDefaults()
	if opts.Runs == 0 {
		opts.Runs = DefaultRuns
	}
	if opts.Runs < 0 {
		return nil, fmt.Errorf("runs must be positive, got %d", opts.Runs)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	log := opts.Logger.With(zap.String("run_id", uuid.NewString()))
	tasks, err := loadTasks(log, opts.TasksPath)
	if err != nil {
		return nil, err
	}

	sim := simulator.New(
		simulator.WithStrictGroundTruth(opts.StrictGroundTruth),
		simulator.WithLogger(logging.For(log, logging.CategorySimulator)),
	)
	evalLog := logging.For(log, logging.CategoryEval)

	records := make([]EvalRecord, 0, len(tasks))
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("eval aborted before task %q: %w", t.ID, err)
		}

		rec, err := evalTask(sim, t, opts.Runs, opts.Now)
		if err != nil {
			return nil, fmt.Errorf("evaluate line %d: %w", t.Line, err)
		}
		evalLog.Debug("task evaluated",
			zap.String("task_id", t.ID),
			zap.Float64("determinism_index", rec.Metrics.DeterminismIndex),
			zap.Float64("hallucination_rate", rec.Metrics.HallucinationRate))
		records = append(records, rec)
	}

	if err := results.WriteLines(opts.OutputPath, records, true); err != nil {
		return nil, err
	}
	evalLog.Info("evaluation written",
		zap.String("path", opts.OutputPath),
		zap.Int("records", len(records)),
		zap.Int("runs", opts.Runs))

	fmt.Fprintf(opts.Stdout, "Wrote %s\n", opts.OutputPath)
	return records, nil
}

func evalTask(sim *simulator.Simulator, t task.Task, runs int, now func() time.Time) (EvalRecord, error) {
	outputs := make([]string, 0, runs)
	var last simulator.Result
	var lastLatency time.Duration

	for i := 0; i < runs; i++ {
		start := now()
		res, err := sim.Respond(t)
		if err != nil {
			return EvalRecord{}, err
		}
		lastLatency = now().Sub(start)
		outputs = append(outputs, res.Output)
		last = res
	}

	gt, err := t.GroundTruth()
	if err != nil && !errors.Is(err, task.ErrFieldMissing) {
		return EvalRecord{}, err
	}

	return EvalRecord{
		ID:      t.ID,
		TaskSet: t.TaskSet,
		Metrics: EvalMetrics{
			DeterminismIndex:      metrics.DeterminismIndex(outputs),
			HallucinationRate:     metrics.HallucinationRate(last.Output, gt),
			ReasoningTransparency: metrics.Transparency(last.Trace),
			PerformanceEfficiency: Efficiency{LatencyMs: lastLatency.Milliseconds(), ComputeCost: -1},
			ErrorRecoveryPattern:  "none",
		},
		LastOutput: last.Output,
		Trace:      last.Trace,
	}, nil
}
