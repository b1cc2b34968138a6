package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/logger"
)

// Global command flags
var (
	configPath string
	outputDir  string
	verbose    bool
	logLevel   string
)

// createRootCommand builds the CLI root with all subcommands attached.
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rpm-repo-composer",
		Short: "maintain an RPM repository fed by GitHub release assets",
		Long: `rpm-repo-composer keeps a static RPM repository in sync with the
release assets of a configured set of GitHub projects. Each run downloads
new .rpm assets, prunes versions beyond the configured retention, rebuilds
the repository metadata with createrepo_c and optionally GPG-signs the
result for publication via static hosting.

Running without a subcommand is equivalent to "sync".`,
		Args:         cobra.NoArgs,
		RunE:         executeSync,
		SilenceUsage: true,
	}
	addSyncFlags(rootCmd.Flags())

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "projects.yaml",
		"Path to the projects.yaml config file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "repo",
		"Output directory for the repository (usually a gh-pages checkout)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn or error (overrides --verbose)")

	rootCmd.AddCommand(createSyncCommand())
	rootCmd.AddCommand(createListCommand())
	attachLoggingHooks(rootCmd)
	return rootCmd
}

// resolveRequestedLogLevel prefers an explicit --log-level over the
// --verbose fallback.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd != nil {
		if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
			return "debug"
		}
	}
	return ""
}

// attachLoggingHooks installs the logger setup on every subcommand so each
// entry point initializes logging the same way.
func attachLoggingHooks(root *cobra.Command) {
	hook := func(cmd *cobra.Command, args []string) error {
		level := resolveRequestedLogLevel(cmd)
		if level == "" {
			level = "info"
		}
		return logger.InitLevel(level)
	}
	root.PersistentPreRunE = hook
	for _, cmd := range root.Commands() {
		cmd.PersistentPreRunE = hook
	}
}

func main() {
	rootCmd := createRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
