package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aiptx/aiptx-go/internal/config"
	"github.com/aiptx/aiptx-go/internal/dao"
	"github.com/aiptx/aiptx-go/internal/database"
	"github.com/aiptx/aiptx-go/internal/history"
)

// newHistoryCommand creates the history command.
func newHistoryCommand() *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List locally recorded scans",
		Long:  `List scans recorded in the local history database. Requires history.enabled in the configuration`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.NewLoader(configPath).Load()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("scan history is not enabled in the configuration")
			}

			db, err := database.Open(cfg.History)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}

			recorder := history.NewRecorder(dao.NewHistoryDAO(db))
			records, err := recorder.List(limit)
			if err != nil {
				return err
			}

			fmt.Printf("Recorded scans: %d\n", len(records))
			for _, r := range records {
				when := time.Unix(r.CreatedAt, 0).Format(time.RFC3339)
				fmt.Printf("  %s %s %s [%s]", when, r.JobID, r.Target, r.Status)
				if r.FindingsCount > 0 {
					fmt.Printf(" findings=%d", r.FindingsCount)
				}
				if r.Error != "" {
					fmt.Printf(" error=%q", r.Error)
				}
				fmt.Println()
			}
			return nil
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to list")

	return historyCmd
}
