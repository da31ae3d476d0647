package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aiptx/aiptx-go/cmd/aiptx/scan"
	"github.com/aiptx/aiptx-go/cmd/aiptx/server"
	"github.com/aiptx/aiptx-go/internal/config"
	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

var configPath string

func Execute() error {
	var rootCmd = &cobra.Command{
		Use:   "aiptx",
		Short: "Client for the AIPTX AI penetration testing server",
		Long:  `aiptx drives scans on an AIPTX server: submit targets, follow progress and findings live, and manage projects and sessions`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path (default $HOME/.aiptx.yaml)")

	rootCmd.AddCommand(scan.NewScanCommand())
	rootCmd.AddCommand(scan.NewListProfilesCommand())
	rootCmd.AddCommand(server.NewServerCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newToolsCommand())
	rootCmd.AddCommand(newFindingsCommand())
	rootCmd.AddCommand(newProjectsCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd.ExecuteContext(context.Background())
}

// newClient builds an API client from the resolved configuration.
func newClient() (*aiptx.Client, *config.Config, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, nil, err
	}
	return aiptx.NewClient(cfg.ServerURL, cfg.APIKey, aiptx.WithTimeout(cfg.Timeout)), cfg, nil
}
