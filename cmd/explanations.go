package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/puzzlebench/arc-explainer/internal/store"
)

var (
	listPuzzle   string
	listProvider string
	listModel    string
	listLimit    int
	listOffset   int
)

var explanationsCmd = &cobra.Command{
	Use:   "explanations",
	Short: "Query stored explanations",
}

var explanationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored explanations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		exps, err := st.ListExplanations(ctx, store.Filter{
			PuzzleID:  listPuzzle,
			Provider:  listProvider,
			ModelName: listModel,
			Limit:     listLimit,
			Offset:    listOffset,
		})
		if err != nil {
			return eris.Wrap(err, "list explanations")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(exps)
	},
}

var explanationsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one explanation by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		exp, err := st.GetExplanation(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "get explanation")
		}
		if exp == nil {
			return eris.Errorf("no explanation with id %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(exp)
	},
}

func init() {
	explanationsListCmd.Flags().StringVar(&listPuzzle, "puzzle", "", "filter by puzzle ID")
	explanationsListCmd.Flags().StringVar(&listProvider, "provider", "", "filter by provider")
	explanationsListCmd.Flags().StringVar(&listModel, "model", "", "filter by model name")
	explanationsListCmd.Flags().IntVar(&listLimit, "limit", 0, "max rows (default 100)")
	explanationsListCmd.Flags().IntVar(&listOffset, "offset", 0, "rows to skip")
	explanationsCmd.AddCommand(explanationsListCmd)
	explanationsCmd.AddCommand(explanationsGetCmd)
	rootCmd.AddCommand(explanationsCmd)
}
