package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// Profile is a reusable scan definition stored as YAML.
type Profile struct {
	Description string   `yaml:"description,omitempty"`
	Target      string   `yaml:"target,omitempty"`
	Mode        string   `yaml:"mode,omitempty"`
	AI          bool     `yaml:"ai,omitempty"`
	Exploit     bool     `yaml:"exploit,omitempty"`
	Phases      []string `yaml:"phases,omitempty"`
}

// LoadProfile reads a profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &profile, nil
}

// Apply copies the profile's settings onto a request. Flags given on the
// command line overwrite these afterwards.
func (p *Profile) Apply(req *aiptx.ScanRequest) {
	if p.Target != "" {
		req.Target = p.Target
	}
	if p.Mode != "" {
		req.Mode = aiptx.ScanMode(p.Mode)
	}
	if p.AI {
		req.AI = true
	}
	if p.Exploit {
		req.Exploit = true
	}
	if len(p.Phases) > 0 {
		req.Phases = p.Phases
	}
}

// NewListProfilesCommand creates the list-profiles command.
func NewListProfilesCommand() *cobra.Command {
	var profileDir string

	listProfilesCmd := &cobra.Command{
		Use:   "list-profiles",
		Short: "List available scan profiles",
		Long:  `List all scan profile files in the profile directory with their descriptions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			files, err := os.ReadDir(profileDir)
			if err != nil {
				return fmt.Errorf("failed to read profile directory %s: %w", profileDir, err)
			}

			fmt.Println("Available Profiles:")
			fmt.Println("===================")

			count := 0
			for _, file := range files {
				if !strings.HasSuffix(file.Name(), ".yaml") && !strings.HasSuffix(file.Name(), ".yml") {
					continue
				}
				count++

				fmt.Printf("\n• %s\n", strings.TrimSuffix(file.Name(), filepath.Ext(file.Name())))
				fmt.Printf("  File: %s\n", file.Name())

				profile, err := LoadProfile(filepath.Join(profileDir, file.Name()))
				if err != nil {
					continue
				}
				if profile.Description != "" {
					fmt.Printf("  Description: %s\n", profile.Description)
				}
				if profile.Target != "" {
					fmt.Printf("  Target: %s\n", profile.Target)
				}
			}

			if count == 0 {
				fmt.Printf("No profile files found in %s\n", profileDir)
			}
			return nil
		},
	}

	listProfilesCmd.Flags().StringVar(&profileDir, "dir", "./profiles", "Profile directory path")

	return listProfilesCmd
}
