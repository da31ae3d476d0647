package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// newProjectsCommand creates the projects command group.
func newProjectsCommand() *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects on the server",
	}

	projectsCmd.AddCommand(newProjectsListCommand())
	projectsCmd.AddCommand(newProjectsCreateCommand())
	projectsCmd.AddCommand(newProjectsDeleteCommand())
	projectsCmd.AddCommand(newProjectsSessionsCommand())

	return projectsCmd
}

func newProjectsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			client, _, err := newClient()
			if err != nil {
				return err
			}

			projects, err := client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Projects: %d\n", len(projects))
			for _, p := range projects {
				fmt.Printf("  #%d %s (%s)\n", p.ID, p.Name, p.Target)
				if p.Description != "" {
					fmt.Printf("      %s\n", p.Description)
				}
			}
			return nil
		},
	}
}

func newProjectsCreateCommand() *cobra.Command {
	var (
		name        string
		target      string
		description string
		scope       []string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			client, _, err := newClient()
			if err != nil {
				return err
			}

			project, err := client.CreateProject(cmd.Context(), &aiptx.ProjectCreate{
				Name:        name,
				Target:      target,
				Description: description,
				Scope:       scope,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created project #%d %s\n", project.ID, project.Name)
			return nil
		},
	}

	createCmd.Flags().StringVarP(&name, "name", "n", "", "Project name (required)")
	createCmd.Flags().StringVarP(&target, "target", "t", "", "Primary target (required)")
	createCmd.Flags().StringVar(&description, "description", "", "Project description")
	createCmd.Flags().StringSliceVar(&scope, "scope", nil, "In-scope hosts or CIDRs")
	createCmd.MarkFlagRequired("name")
	createCmd.MarkFlagRequired("target")

	return createCmd
}

func newProjectsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}

			client, _, err := newClient()
			if err != nil {
				return err
			}

			if err := client.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Deleted project #%d\n", id)
			return nil
		},
	}
}

func newProjectsSessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <project-id>",
		Short: "List a project's scan sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}

			client, _, err := newClient()
			if err != nil {
				return err
			}

			sessions, err := client.ListSessions(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Printf("Sessions: %d\n", len(sessions))
			for _, s := range sessions {
				fmt.Printf("  #%d %s", s.ID, s.Name)
				if s.Status != "" {
					fmt.Printf(" [%s]", s.Status)
				}
				if s.Phase != "" {
					fmt.Printf(" phase=%s", s.Phase)
				}
				fmt.Println()
			}
			return nil
		},
	}
}
