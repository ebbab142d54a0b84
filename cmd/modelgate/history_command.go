package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"modelgate/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent request outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled in the configuration")
			}
			if _, err := os.Stat(cfg.History.Path); err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet")
					return nil
				}
				return fmt.Errorf("inspect history database: %w", err)
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet")
				return nil
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				model := entry.ModelUsed
				if model == "" {
					model = entry.RequestedModel
				}
				if model == "" {
					model = "-"
				}
				rows = append(rows, []string{
					entry.CreatedAt.Local().Format(time.DateTime),
					entry.Task,
					model,
					colorizeStatus(out, entry.Status),
					strconv.Itoa(entry.Attempts),
					fmt.Sprintf("%dms", entry.ElapsedMS),
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Task", "Model", "Status", "Attempts", "Elapsed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	return cmd
}
