package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"modelgate/internal/inference"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show the configured model catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			catalog := cfg.Catalog()
			rows := make([][]string, 0, len(inference.Tasks()))
			for _, task := range inference.Tasks() {
				entry := catalog[task]
				defaultModel := entry.Default
				if defaultModel == "" {
					defaultModel = "-"
				}
				fallbacks := "-"
				if len(entry.Fallbacks) > 0 {
					fallbacks = strings.Join(entry.Fallbacks, ", ")
				}
				rows = append(rows, []string{string(task), defaultModel, fallbacks})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Task", "Default", "Fallbacks"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
