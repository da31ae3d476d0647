package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCommand creates the status command.
func newStatusCommand() *cobra.Command {
	var jobID string

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show server health or the state of one scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			client, cfg, err := newClient()
			if err != nil {
				return err
			}

			if jobID != "" {
				job, err := client.GetScanStatus(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				fmt.Printf("Job:      %s\n", job.ID)
				fmt.Printf("Status:   %s\n", job.Status)
				if job.Phase != "" {
					fmt.Printf("Phase:    %s (%d%%)\n", job.Phase, job.Progress)
				}
				fmt.Printf("Findings: %d\n", job.FindingsCount)
				if job.Error != "" {
					fmt.Printf("Error:    %s\n", job.Error)
				}
				return nil
			}

			health, err := client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("server %s unreachable: %w", cfg.ServerURL, err)
			}
			fmt.Printf("Server:   %s\n", cfg.ServerURL)
			fmt.Printf("Status:   %s\n", health.Status)
			fmt.Printf("Version:  %s\n", health.Version)
			fmt.Printf("Uptime:   %ds\n", health.Uptime)
			fmt.Printf("Database: %v\n", health.Components.Database)
			fmt.Printf("LLM:      %v\n", health.Components.LLM)
			for name, ok := range health.Components.Scanners {
				fmt.Printf("Scanner %s: %v\n", name, ok)
			}
			if client.Ready(cmd.Context()) {
				fmt.Println("Ready:    yes")
			} else {
				fmt.Println("Ready:    no")
			}
			return nil
		},
	}

	statusCmd.Flags().StringVar(&jobID, "job", "", "Show the status of this scan job instead")

	return statusCmd
}
