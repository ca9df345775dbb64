package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	relinterr "relint/internal/errors"
	"relint/internal/history"
)

var (
	historyLimit int
	historyReset bool
	historyShow  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past batches",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of batches to list")
	historyCmd.Flags().BoolVar(&historyReset, "reset", false, "Drop all recorded history")
	historyCmd.Flags().StringVar(&historyShow, "show", "", "Show per-file results for a batch ID")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	dir := cfg.History.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspaceFlag, dir)
	}
	store, err := history.Open(dir, logger)
	if err != nil {
		return relinterr.Wrap(relinterr.HistoryUnavailable, "open history", err)
	}
	defer func() { _ = store.Close() }()

	if historyReset {
		if err := store.Reset(); err != nil {
			return err
		}
		fmt.Println("history cleared")
		return nil
	}

	if historyShow != "" {
		results, err := store.Results(historyShow)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s exit=%d %s\n", r.Path, r.ExitCode, r.Duration.Round(time.Millisecond))
			if r.Output != "" {
				fmt.Println(r.Output)
			}
		}
		return nil
	}

	batches, err := store.ListBatches(historyLimit)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Println("no batches recorded")
		return nil
	}
	for _, b := range batches {
		fmt.Printf("%s  %-8s %s  files=%d ok=%d failed=%d config=%d incomplete=%d  %s\n",
			b.ID, b.Mode, b.StartedAt.Local().Format("2006-01-02 15:04:05"),
			b.FilesTotal, b.Succeeded, b.Failed, b.ConfigErrors, b.Incomplete,
			b.Duration.Round(time.Millisecond))
	}
	return nil
}
