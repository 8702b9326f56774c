package main

import (
	"evalharness/internal/harness"

	"github.com/spf13/cobra"
)

var (
	evalTasks string
	evalOut   string
	evalRuns  int
)

// evalCmd repeats the simulation per task and records stability metrics.
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run every task repeatedly and record determinism and grounding metrics",
	Long: `Simulates each task --runs times and writes one evaluation line per task with
determinism_index, hallucination_rate, reasoning_transparency and
performance_efficiency, plus the last output and trace.

Examples:
  harness eval
  harness eval --runs 3 --out eval.jsonl`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalTasks, "tasks", "", "Task file (default from config)")
	evalCmd.Flags().StringVar(&evalOut, "out", "", "Evaluation file (default from config: eval.jsonl)")
	evalCmd.Flags().IntVar(&evalRuns, "runs", 0, "Simulations per task (default from config: 10)")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c := currentConfig()
	runs := evalRuns
	if runs == 0 {
		runs = c.Eval.Runs
	}

	_, err := harness.Eval(ctx, harness.EvalOptions{
		Options: harness.Options{
			TasksPath:         firstNonEmpty(evalTasks, c.Paths.Tasks),
			OutputPath:        firstNonEmpty(evalOut, c.Paths.Eval, harness.DefaultEvalPath),
			StrictGroundTruth: c.Simulator.StrictGroundTruth,
			Logger:            currentLogger(),
			Stdout:            cmd.OutOrStdout(),
		},
		Runs: runs,
	})
	return err
}
