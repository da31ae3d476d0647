package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newToolsCommand creates the tools command.
func newToolsCommand() *cobra.Command {
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List the security tools available on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			client, _, err := newClient()
			if err != nil {
				return err
			}

			tools, err := client.ListTools(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println("Available Tools:")
			fmt.Println("================")
			for _, tool := range tools {
				marker := " "
				if !tool.Available {
					marker = "✗"
				}
				fmt.Printf("\n•%s %s", marker, tool.Name)
				if tool.Phase != "" {
					fmt.Printf(" (%s)", tool.Phase)
				}
				fmt.Println()
				if tool.Description != "" {
					fmt.Printf("  %s\n", tool.Description)
				}
				if len(tool.Keywords) > 0 {
					fmt.Printf("  Keywords: %s\n", strings.Join(tool.Keywords, ", "))
				}
			}
			if len(tools) == 0 {
				fmt.Println("No tools reported")
			}
			return nil
		},
	}

	return toolsCmd
}
