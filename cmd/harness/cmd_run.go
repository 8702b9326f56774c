package main

import (
	"evalharness/internal/harness"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runTasks string
	runOut   string
)

// runCmd is the explicit form of the root command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a response for every task and write the results",
	Long: `Loads the task file, simulates one response per task according to its
task_set and writes one result line per task, in input order.

The results file is only replaced once every task has been processed; a
malformed input line aborts the run and leaves any previous results intact.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	bindRunFlags(runCmd)
}

func bindRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runTasks, "tasks", "", "Task file (default from config: tasks.jsonl)")
	cmd.Flags().StringVar(&runOut, "out", "", "Results file (default from config: results.jsonl)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c := currentConfig()
	summary, err := harness.Run(ctx, harness.Options{
		TasksPath:         firstNonEmpty(runTasks, c.Paths.Tasks),
		OutputPath:        firstNonEmpty(runOut, c.Paths.Results),
		StrictGroundTruth: c.Simulator.StrictGroundTruth,
		Logger:            currentLogger(),
		Stdout:            cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("run_id", summary.RunID),
		zap.Int("tasks", summary.Tasks),
	}
	for cat, n := range summary.ByCategory {
		fields = append(fields, zap.Int(cat.String(), n))
	}
	currentLogger().Debug("run summary", fields...)
	return nil
}
