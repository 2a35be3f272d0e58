package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"buyloop/internal/storage"
	"buyloop/internal/tui/styles"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List recorded runs, newest first, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.historyDir()
			if err != nil {
				return err
			}
			store, err := storage.NewStore(dir)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return showRun(a, store, args[0])
			}

			items := store.List()
			if len(items) == 0 {
				fmt.Fprintln(a.out, styles.Subtle.Render("No runs recorded yet."))
				return nil
			}
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}

			fmt.Fprintf(a.out, "%-20s %-15s %-10s %-8s %-8s %-8s %s\n",
				"TIME", "STATUS", "ATTEMPTS", "BOUGHT", "FAILED", "DECODE", "ID")
			for _, it := range items {
				s := it.Summary
				fmt.Fprintf(a.out, "%-20s %-15s %-10s %-8d %-8d %-8d %s\n",
					it.Timestamp.Local().Format("2006-01-02 15:04:05"),
					s.Status,
					fmt.Sprintf("%d/%d", s.Attempts, s.MaxAttempts),
					s.Stats.Success, s.Stats.Fail, s.Stats.DecodeErrors,
					it.ID,
				)
			}
			return nil
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	return historyCmd
}

func showRun(a *app, store *storage.Store, id string) error {
	it := store.Get(id)
	if it == nil {
		return fmt.Errorf("no recorded run with id %q", id)
	}

	s := it.Summary.Stats
	row := func(label string, value any) {
		fmt.Fprintf(a.out, "%s%v\n", styles.Label.Render(label), value)
	}
	row("ID", it.ID)
	row("Time", it.Timestamp.Local().Format(time.RFC3339))
	row("Endpoint", it.Config.Endpoint)
	row("Payload", it.Payload)
	row("Status", it.Summary.Status)
	row("Attempts", fmt.Sprintf("%d/%d", it.Summary.Attempts, it.Summary.MaxAttempts))
	row("Successful", s.Success)
	row("Failed", fmt.Sprintf("%d (transport %d)", s.Fail, s.TransportErrors))
	row("Decode errors", s.DecodeErrors)
	row("Duration", fmt.Sprintf("%.2fs", s.ElapsedSeconds))
	row("Average rate", fmt.Sprintf("%.2f req/s", s.RequestsPerSec))
	row("Latency (ms)", fmt.Sprintf("avg %.1f | p99 %.1f", s.MeanMs, s.P99Ms))
	return nil
}
