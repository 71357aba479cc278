package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/puzzlebench/arc-explainer/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "arc-explainer",
	Short: "Analyze ARC puzzles with LLM providers and score the answers",
	Long:  "Sends ARC puzzle tasks to OpenAI, Anthropic, Gemini, Grok, DeepSeek, or OpenRouter, extracts the predicted grids from whatever JSON the model managed to produce, validates them against the expected outputs, and persists the scored explanations.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
