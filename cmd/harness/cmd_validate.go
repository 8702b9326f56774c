package main

import (
	"fmt"

	"evalharness/internal/logging"
	"evalharness/internal/report"
	"evalharness/internal/task"
	"evalharness/internal/validate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var validateFormat string

// validateCmd checks a task file for the fields each task_set needs.
var validateCmd = &cobra.Command{
	Use:   "validate [tasks.jsonl]",
	Short: "Check a task file for missing or duplicate fields",
	Long: `Reports, per line, missing id or task_set keys, category-specific required
fields (authoritative_source, filings, ground_truth, constraints) and
duplicate ids. Exits non-zero when any problem is found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateFormat, "format", report.FormatConsole, "Output format (console, json)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := currentConfig().Paths.Tasks
	if len(args) == 1 {
		path = args[0]
	}

	tasks, err := task.Load(path)
	if err != nil {
		return err
	}

	findings := validate.Check(tasks)
	logging.For(currentLogger(), logging.CategoryValidate).Info("validation finished",
		zap.String("path", path),
		zap.Int("tasks", len(tasks)),
		zap.Int("findings", len(findings)))

	if err := report.NewReporter(cmd.OutOrStdout(), validateFormat).Findings(path, findings); err != nil {
		return err
	}
	if len(findings) > 0 {
		return fmt.Errorf("%s: %d problem(s) found", path, len(findings))
	}
	return nil
}
