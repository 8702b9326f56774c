// Package harness drives the evaluation pipeline: load the task batch,
// simulate a response for every task in order, then persist the results.
//
// A run is a single linear pass. Any load, parse, simulation, or write error
// aborts the whole batch and no output file is produced.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"

	"evalharness/internal/logging"
	"evalharness/internal/results"
	"evalharness/internal/simulator"
	"evalharness/internal/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default file locations, relative to the working directory.
const (
	DefaultTasksPath   = "tasks.jsonl"
	DefaultResultsPath = "results.jsonl"
)

// Options configures a pipeline run.
type Options struct {
	TasksPath  string
	OutputPath string

	// StrictGroundTruth fails the run when a task that needs ground_truth
	// does not carry one.
	StrictGroundTruth bool

	Logger *zap.Logger
	// Stdout receives the completion notice. Defaults to os.Stdout.
	Stdout io.Writer
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	TasksPath  string
	OutputPath string
	Tasks      int
	ByCategory map[task.Category]int
}

func (o *Options) applyDefaults() {
	if o.TasksPath == "" {
		o.TasksPath = DefaultTasksPath
	}
	if o.OutputPath == "" {
		o.OutputPath = DefaultResultsPath
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
}

// Run executes the pipeline and prints "Wrote <output>" once the results are
// on disk.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	opts.applyDefaults()

	runID := uuid.NewString()
	log := opts.Logger.With(zap.String("run_id", runID))

	tasks, err := loadTasks(log, opts.TasksPath)
	if err != nil {
		return nil, err
	}

	sim := simulator.New(
		simulator.WithStrictGroundTruth(opts.StrictGroundTruth),
		simulator.WithLogger(logging.For(log, logging.CategorySimulator)),
	)

	summary := &Summary{
		RunID:      runID,
		TasksPath:  opts.TasksPath,
		OutputPath: opts.OutputPath,
		ByCategory: make(map[task.Category]int),
	}

	records := make([]results.Record, 0, len(tasks))
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run aborted before task %q: %w", t.ID, err)
		}

		res, err := sim.Respond(t)
		if err != nil {
			return nil, fmt.Errorf("simulate line %d: %w", t.Line, err)
		}
		records = append(records, results.Record{
			ID:      t.ID,
			TaskSet: t.TaskSet,
			Output:  res.Output,
			Trace:   res.Trace,
		})
		summary.ByCategory[t.Category()]++
	}
	summary.Tasks = len(records)

	writerLog := logging.For(log, logging.CategoryWriter)
	if err := results.Write(opts.OutputPath, records); err != nil {
		writerLog.Error("writing results failed", zap.String("path", opts.OutputPath), zap.Error(err))
		return nil, err
	}
	writerLog.Info("results written",
		zap.String("path", opts.OutputPath),
		zap.Int("records", len(records)))

	fmt.Fprintf(opts.Stdout, "Wrote %s\n", opts.OutputPath)
	return summary, nil
}

func loadTasks(log *zap.Logger, path string) ([]task.Task, error) {
	loaderLog := logging.For(log, logging.CategoryLoader)
	tasks, err := task.Load(path)
	if err != nil {
		loaderLog.Error("loading tasks failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	loaderLog.Info("tasks loaded", zap.String("path", path), zap.Int("count", len(tasks)))
	return tasks, nil
}
