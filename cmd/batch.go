package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/puzzlebench/arc-explainer/internal/arc"
	"github.com/puzzlebench/arc-explainer/internal/extract"
)

var (
	batchDir      string
	batchProvider string
	batchLimit    int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze every task in a directory with one provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		provider, err := extract.ParseProvider(batchProvider)
		if err != nil {
			return err
		}

		dir := batchDir
		if dir == "" {
			dir = cfg.Data.TasksDir
		}

		tasks, err := arc.LoadDir(dir)
		if err != nil {
			return eris.Wrapf(err, "load tasks from %s", dir)
		}
		if len(tasks) == 0 {
			return eris.Errorf("no task files in %s", dir)
		}
		if batchLimit > 0 && len(tasks) > batchLimit {
			tasks = tasks[:batchLimit]
		}

		zap.L().Info("starting batch",
			zap.Int("tasks", len(tasks)),
			zap.String("provider", provider.String()),
			zap.Int("max_concurrent", cfg.Batch.MaxConcurrent),
		)

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Solver.AnalyzeBatch(ctx, tasks, provider)
		if err != nil {
			return eris.Wrap(err, "batch run")
		}

		summary := map[string]any{
			"analyzed": result.Analyzed,
			"correct":  result.Correct,
			"failed":   result.Failed,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "task directory (default from config)")
	batchCmd.Flags().StringVar(&batchProvider, "provider", "openai", "provider: openai, anthropic, gemini, grok, deepseek, openrouter")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "analyze at most N tasks (0 = all)")
	rootCmd.AddCommand(batchCmd)
}
