package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/open-edge-platform/rpm-repo-composer/internal/config"
	"github.com/open-edge-platform/rpm-repo-composer/internal/github"
	"github.com/open-edge-platform/rpm-repo-composer/internal/pkgfetcher"
	"github.com/open-edge-platform/rpm-repo-composer/internal/repo"
	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/network"
)

// Sync command flags
var (
	projectFilter string
	dryRun        bool
	gpgKey        string
	noSign        bool
	workers       int
)

// downloadTimeout bounds one asset download end to end so a stalled
// connection cannot hang a worker forever.
const downloadTimeout = 300 * time.Second

// createSyncCommand creates the sync subcommand
func createSyncCommand() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "synchronize the repository with upstream releases",
		Long: `Sync fetches the latest release assets of every configured project,
applies the per-project retention policy, downloads new packages, prunes old
ones and regenerates the repository metadata. Use --dry-run to print the
plan without touching anything.`,
		Args: cobra.NoArgs,
		RunE: executeSync,
	}

	addSyncFlags(syncCmd.Flags())
	return syncCmd
}

func addSyncFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&projectFilter, "project", "p", "",
		"Process only this project (name or owner/repo)")
	flags.BoolVarP(&dryRun, "dry-run", "n", false,
		"Compute and print the plan without downloading or deleting anything")
	flags.StringVarP(&gpgKey, "gpg-key", "k", "",
		"GPG key ID used for signing (signing becomes required)")
	flags.BoolVar(&noSign, "no-sign", false,
		"Skip GPG signing entirely")
	flags.IntVar(&workers, "workers", 4,
		"Number of concurrent asset downloads")
}

// executeSync handles the sync command execution logic
func executeSync(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return &repo.ConfigError{Err: err}
	}

	projects, err := selectProjects(cfg, projectFilter)
	if err != nil {
		return &repo.ConfigError{Err: err}
	}

	client := github.NewClient("")
	fetcher := newFetcher(client.Token(), workers)

	coordinator := repo.NewCoordinator(cfg, &repo.GitHubLister{Client: client}, fetcher, repo.Options{
		OutputDir: outputDir,
		DryRun:    dryRun,
		GPGKey:    gpgKey,
		NoSign:    noSign,
	})

	log.Infof("processing %d project(s)", len(projects))
	summary, err := coordinator.Run(projects)
	if err != nil {
		return err
	}
	if summary.Failed() {
		failed := 0
		for _, r := range summary.Results {
			if r.Err != nil {
				failed++
			}
		}
		return fmt.Errorf("%d project(s) failed to sync", failed)
	}
	return nil
}

// newFetcher builds the download pool used by sync.
func newFetcher(token string, workers int) *pkgfetcher.Fetcher {
	return &pkgfetcher.Fetcher{
		Client:   network.NewSecureHTTPClient(downloadTimeout),
		Token:    token,
		Workers:  workers,
		Attempts: 3,
		Backoff:  pkgfetcher.ExponentialBackoff{Base: 2 * time.Second},
	}
}

// selectProjects narrows the configured projects to the --project filter.
func selectProjects(cfg *config.Config, filter string) ([]*config.Project, error) {
	if filter == "" {
		out := make([]*config.Project, 0, len(cfg.Projects))
		for i := range cfg.Projects {
			out = append(out, &cfg.Projects[i])
		}
		return out, nil
	}
	p := cfg.FindProject(filter)
	if p == nil {
		return nil, fmt.Errorf("project %q not found in config", filter)
	}
	return []*config.Project{p}, nil
}
