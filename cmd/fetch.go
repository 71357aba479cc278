package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/puzzlebench/arc-explainer/internal/dataset"
)

var (
	fetchURL string
	fetchDir string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the task archive and install it into the tasks directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		url := fetchURL
		if url == "" {
			url = cfg.Data.ArchiveURL
		}
		dir := fetchDir
		if dir == "" {
			dir = cfg.Data.TasksDir
		}
		if url == "" {
			return eris.New("no archive URL configured")
		}

		f := dataset.NewFetcher(dataset.Options{})
		installed, err := f.Install(ctx, url, dir)
		if err != nil {
			return eris.Wrap(err, "install tasks")
		}

		if installed == 0 {
			zap.L().Info("tasks already up to date", zap.String("dir", dir))
		} else {
			zap.L().Info("tasks installed",
				zap.String("dir", dir),
				zap.Int("tasks", installed),
			)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "task archive URL (default from config)")
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "", "tasks directory (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
