package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/rpm-repo-composer/internal/config"
	"github.com/open-edge-platform/rpm-repo-composer/internal/repo"
)

// createListCommand creates the list subcommand
func createListCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list the configured projects",
		Args:  cobra.NoArgs,
		RunE:  executeList,
	}
	return listCmd
}

// executeList handles the list command logic
func executeList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return &repo.ConfigError{Err: err}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configured projects:")
	for _, p := range cfg.Projects {
		fmt.Fprintf(out, "  - %s (name: %s, keep_versions: %d)\n", p.Repo, p.Name, p.KeepVersions)
	}
	return nil
}
