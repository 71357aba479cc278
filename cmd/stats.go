package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/puzzlebench/arc-explainer/internal/stats"
	"github.com/puzzlebench/arc-explainer/internal/store"
)

var (
	statsPuzzle   string
	statsProvider string
	statsLimit    int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize model performance across stored explanations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		exps, err := st.ListExplanations(ctx, store.Filter{
			PuzzleID: statsPuzzle,
			Provider: statsProvider,
			Limit:    statsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list explanations")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats.Summarize(exps))
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsPuzzle, "puzzle", "", "restrict to one puzzle ID")
	statsCmd.Flags().StringVar(&statsProvider, "provider", "", "restrict to one provider")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10000, "max records to aggregate")
	rootCmd.AddCommand(statsCmd)
}
