package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/puzzlebench/arc-explainer/internal/explain"
	"github.com/puzzlebench/arc-explainer/internal/extract"
)

var (
	validateTask     string
	validateResponse string
	validateProvider string
	validateModel    string
	validateSave     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Score a saved raw provider response against a task, offline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		provider, err := extract.ParseProvider(validateProvider)
		if err != nil {
			return err
		}

		task, err := loadTaskArg(validateTask)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(validateResponse)
		if err != nil {
			return eris.Wrap(err, "read response file")
		}

		prediction, extractErr := extract.Extract(raw, provider)
		if extractErr != nil {
			zap.L().Warn("extraction failed",
				zap.String("puzzle_id", task.ID),
				zap.String("provider", provider.String()),
				zap.Error(extractErr),
			)
		}

		exp := explain.Build(task, prediction, explain.Usage{}, explain.Meta{
			Provider:  provider.String(),
			ModelName: validateModel,
			Raw:       string(raw),
		})

		if validateSave {
			if err := cfg.Validate("analyze"); err != nil {
				return err
			}
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := st.SaveExplanation(ctx, &exp); err != nil {
				return eris.Wrap(err, "save explanation")
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(exp)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateTask, "task", "", "task JSON file or puzzle ID (required)")
	validateCmd.Flags().StringVar(&validateResponse, "response", "", "raw provider response file (required)")
	validateCmd.Flags().StringVar(&validateProvider, "provider", "openai", "provider that produced the response")
	validateCmd.Flags().StringVar(&validateModel, "model", "", "model name to record")
	validateCmd.Flags().BoolVar(&validateSave, "save", false, "persist the scored record")
	_ = validateCmd.MarkFlagRequired("task")
	_ = validateCmd.MarkFlagRequired("response")
	rootCmd.AddCommand(validateCmd)
}
