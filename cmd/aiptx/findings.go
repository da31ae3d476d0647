package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiptx/aiptx-go/internal/report"
	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// newFindingsCommand creates the findings command.
func newFindingsCommand() *cobra.Command {
	var (
		projectID int64
		severity  string
		ftype     string
		sarifPath string
	)

	findingsCmd := &cobra.Command{
		Use:   "findings",
		Short: "List findings stored on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			client, _, err := newClient()
			if err != nil {
				return err
			}

			filter := &aiptx.FindingsFilter{
				ProjectID: projectID,
				Severity:  aiptx.Severity(severity),
				Type:      aiptx.FindingType(ftype),
			}
			findings, err := client.ListFindings(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if sarifPath != "" {
				if sarifPath == "-" {
					return report.WriteSarif(os.Stdout, "", findings)
				}
				if err := report.SaveSarif(sarifPath, "", findings); err != nil {
					return err
				}
				fmt.Printf("Wrote %d findings to %s\n", len(findings), sarifPath)
				return nil
			}

			fmt.Printf("Findings: %d\n", len(findings))
			for _, f := range findings {
				marker := ""
				if f.FalsePositive {
					marker = " [false positive]"
				}
				fmt.Printf("  [%s] %s: %s%s\n", f.Severity, f.Type, f.Value, marker)
				if f.Description != "" {
					fmt.Printf("      %s\n", f.Description)
				}
			}
			return nil
		},
	}

	findingsCmd.Flags().Int64Var(&projectID, "project", 0, "Filter by project id")
	findingsCmd.Flags().StringVar(&severity, "severity", "", "Filter by severity")
	findingsCmd.Flags().StringVar(&ftype, "type", "", "Filter by finding type")
	findingsCmd.Flags().StringVar(&sarifPath, "sarif", "", "Write results as SARIF to this file, or - for stdout")

	return findingsCmd
}
