package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/puzzlebench/arc-explainer/internal/arc"
	"github.com/puzzlebench/arc-explainer/internal/extract"
)

var (
	analyzeTask     string
	analyzeProvider string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single puzzle with one provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		provider, err := extract.ParseProvider(analyzeProvider)
		if err != nil {
			return err
		}

		task, err := loadTaskArg(analyzeTask)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		exp, err := env.Solver.Analyze(ctx, task, provider)
		if err != nil {
			return eris.Wrapf(err, "analyze puzzle %s", task.ID)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(exp)
	},
}

// loadTaskArg resolves a task argument that is either a path to a task
// JSON file or a bare puzzle ID under the configured tasks directory.
func loadTaskArg(arg string) (*arc.Task, error) {
	if _, err := os.Stat(arg); err == nil {
		return arc.LoadTask(arg)
	}
	return arc.LoadTask(filepath.Join(cfg.Data.TasksDir, arg+".json"))
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTask, "task", "", "task JSON file or puzzle ID (required)")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "openai", "provider: openai, anthropic, gemini, grok, deepseek, openrouter")
	_ = analyzeCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(analyzeCmd)
}
