package main

import (
	"fmt"

	"evalharness/internal/logging"
	"evalharness/internal/regression"
	"evalharness/internal/report"
	"evalharness/internal/results"
	"evalharness/internal/scoring"
	"evalharness/internal/task"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scoreTasks   string
	scoreResults string
	scoreOut     string
	scoreFormat  string
	scoreBattery string
)

// scoreCmd scores a results or evaluation file against its tasks.
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a results file against its tasks",
	Long: `Joins each result line with its task by id, adds source prioritization
accuracy for fact verification tasks and aggregates metrics per task_set.

The report is written as indented JSON to --out and printed to stdout.
With --battery, every regression gate in the YAML file is checked against
the per-task_set averages and any failing gate makes the command fail.

Examples:
  harness score --tasks tasks.jsonl --results eval.jsonl
  harness score --tasks tasks.jsonl --results eval.jsonl --format json
  harness score --results eval.jsonl --battery battery.yaml`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreTasks, "tasks", "", "Task file (default from config)")
	scoreCmd.Flags().StringVar(&scoreResults, "results", "", "Results or evaluation file (default from config: eval.jsonl)")
	scoreCmd.Flags().StringVar(&scoreOut, "out", "", "Score report file (default from config: scores.json)")
	scoreCmd.Flags().StringVar(&scoreFormat, "format", report.FormatConsole, "Output format (console, json)")
	scoreCmd.Flags().StringVar(&scoreBattery, "battery", "", "Regression gate file (default from config: none)")
}

func runScore(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	log := logging.For(currentLogger(), logging.CategoryScoring)

	tasksPath := firstNonEmpty(scoreTasks, c.Paths.Tasks)
	resultsPath := firstNonEmpty(scoreResults, c.Paths.Eval)
	outPath := firstNonEmpty(scoreOut, c.Paths.Scores, "scores.json")
	batteryPath := firstNonEmpty(scoreBattery, c.Paths.Battery)

	switch scoreFormat {
	case "", report.FormatConsole, report.FormatJSON:
	default:
		return fmt.Errorf("unknown format %q (expected console|json)", scoreFormat)
	}

	var battery *regression.Battery
	if batteryPath != "" {
		b, err := regression.LoadBattery(batteryPath)
		if err != nil {
			return err
		}
		battery = b
	}

	tasks, err := task.Load(tasksPath)
	if err != nil {
		return err
	}
	rows, err := task.Load(resultsPath)
	if err != nil {
		return err
	}

	rep, err := scoring.Score(tasks, rows)
	if err != nil {
		return fmt.Errorf("score %s: %w", resultsPath, err)
	}
	if err := results.WriteJSON(outPath, rep); err != nil {
		return err
	}
	log.Info("scores written",
		zap.String("path", outPath),
		zap.Int("results", len(rows)),
		zap.Int("task_sets", len(rep.Summary)))

	var gates []regression.Result
	failed := 0
	if battery != nil {
		gates = regression.Check(battery, rep)
		failed = regression.Failed(gates)
		log.Info("regression gates checked",
			zap.String("battery", batteryPath),
			zap.Int("gates", len(gates)),
			zap.Int("failed", failed))
	}

	if err := report.NewReporter(cmd.OutOrStdout(), scoreFormat).Scores(rep, gates); err != nil {
		return err
	}
	if scoreFormat != report.FormatJSON {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d regression gate(s) failed", failed, len(gates))
	}
	return nil
}
