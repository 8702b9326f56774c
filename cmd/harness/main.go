package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"evalharness/internal/config"
	"evalharness/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Resolved in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger

	newLogger = logging.New
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "harness",
	Short: "Evaluation harness for simulated model responses",
	Long: `harness reads a JSON Lines task file, produces one simulated response per
task according to its task_set, and writes the results as JSON Lines.

Run without arguments to process tasks.jsonl into results.jsonl.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		cfg = loaded

		logger, err = newLogger(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		logging.For(logger, logging.CategoryBoot).Debug("configuration resolved",
			zap.String("config", configPath),
			zap.String("tasks", cfg.Paths.Tasks),
			zap.String("results", cfg.Paths.Results),
			zap.Bool("strict_ground_truth", cfg.Simulator.StrictGroundTruth))
		return nil
	},
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file (optional)")

	bindRunFlags(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the command tree and flushes the logger whether or not the
// command failed.
func execute(args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	return err
}

// currentConfig returns the resolved config, or defaults when the command
// is invoked without PersistentPreRunE.
func currentConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// currentLogger mirrors currentConfig for the logger.
func currentLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
