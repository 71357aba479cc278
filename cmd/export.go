package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/puzzlebench/arc-explainer/internal/export"
	"github.com/puzzlebench/arc-explainer/internal/store"
)

var (
	exportOut      string
	exportPuzzle   string
	exportProvider string
	exportModel    string
	exportLimit    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored explanations to CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		exps, err := st.ListExplanations(ctx, store.Filter{
			PuzzleID:  exportPuzzle,
			Provider:  exportProvider,
			ModelName: exportModel,
			Limit:     exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list explanations")
		}

		switch strings.ToLower(filepath.Ext(exportOut)) {
		case ".csv":
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			if err := export.WriteCSV(f, exps); err != nil {
				return err
			}
		case ".xlsx":
			if err := export.WriteXLSX(exportOut, exps); err != nil {
				return err
			}
		default:
			return eris.Errorf("unsupported output format %q (use .csv or .xlsx)", filepath.Ext(exportOut))
		}

		zap.L().Info("export complete",
			zap.String("file", exportOut),
			zap.Int("rows", len(exps)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file, .csv or .xlsx (required)")
	exportCmd.Flags().StringVar(&exportPuzzle, "puzzle", "", "filter by puzzle ID")
	exportCmd.Flags().StringVar(&exportProvider, "provider", "", "filter by provider")
	exportCmd.Flags().StringVar(&exportModel, "model", "", "filter by model name")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 10000, "max rows to export")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
