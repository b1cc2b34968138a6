package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/open-edge-platform/rpm-repo-composer/internal/config"
)

func resetFlags() {
	configPath = "projects.yaml"
	outputDir = "repo"
	verbose = false
	logLevel = ""
	projectFilter = ""
	dryRun = false
	gpgKey = ""
	noSign = false
	workers = 4
}

func TestResolveRequestedLogLevelExplicit(t *testing.T) {
	defer resetFlags()
	resetFlags()

	logLevel = "warn"
	verbose = true
	root := createRootCommand()
	if got := resolveRequestedLogLevel(root); got != "warn" {
		t.Fatalf("explicit level must win, got %q", got)
	}
}

func TestResolveRequestedLogLevelVerbose(t *testing.T) {
	defer resetFlags()
	resetFlags()

	root := createRootCommand()
	if err := root.PersistentFlags().Set("verbose", "true"); err != nil {
		t.Fatalf("setting verbose: %v", err)
	}
	if got := resolveRequestedLogLevel(root); got != "debug" {
		t.Fatalf("verbose must imply debug, got %q", got)
	}
}

func TestResolveRequestedLogLevelDefault(t *testing.T) {
	defer resetFlags()
	resetFlags()

	root := createRootCommand()
	if got := resolveRequestedLogLevel(root); got != "" {
		t.Fatalf("expected empty default, got %q", got)
	}
}

func TestLoggingHookAttachedToSubcommands(t *testing.T) {
	root := createRootCommand()
	for _, name := range []string{"sync", "list"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("finding %s: %v", name, err)
		}
		if cmd.PersistentPreRunE == nil {
			t.Errorf("%s is missing the logging hook", name)
		}
	}
}

func TestRootDefaultsToSync(t *testing.T) {
	root := createRootCommand()
	if root.RunE == nil {
		t.Fatal("bare invocation must run sync")
	}
	for _, name := range []string{"project", "dry-run", "gpg-key", "no-sign", "workers"} {
		if root.Flags().Lookup(name) == nil {
			t.Errorf("root is missing sync flag --%s", name)
		}
	}
}

func TestListCommandOutput(t *testing.T) {
	defer resetFlags()
	resetFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, "projects.yaml")
	content := `projects:
  - repo: acme/tool
    keep_versions: 2
  - repo: acme/other
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	root := createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"list", "-c", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Configured projects:", "acme/tool", "keep_versions: 2", "acme/other"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestListCommandBadConfig(t *testing.T) {
	defer resetFlags()
	resetFlags()

	root := createRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"list", "-c", filepath.Join(t.TempDir(), "absent.yaml")})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestNewFetcherBoundsDownloads(t *testing.T) {
	f := newFetcher("tok", 6)
	if f.Client == nil || f.Client.Timeout != 300*time.Second {
		t.Fatalf("downloads must carry an HTTP timeout, got %+v", f.Client)
	}
	if f.Workers != 6 || f.Token != "tok" {
		t.Fatalf("unexpected fetcher config: %+v", f)
	}
	if f.Attempts < 2 || f.Backoff == nil {
		t.Fatalf("downloads must retry with backoff: %+v", f)
	}
}

func TestSelectProjects(t *testing.T) {
	cfg := &config.Config{Projects: []config.Project{
		{Repo: "acme/alpha", Name: "alpha"},
		{Repo: "acme/beta", Name: "beta"},
	}}

	all, err := selectProjects(cfg, "")
	if err != nil {
		t.Fatalf("no filter: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both projects, got %d", len(all))
	}

	one, err := selectProjects(cfg, "acme/beta")
	if err != nil {
		t.Fatalf("repo filter: %v", err)
	}
	if len(one) != 1 || one[0].Repo != "acme/beta" {
		t.Fatalf("unexpected selection: %+v", one)
	}

	if _, err := selectProjects(cfg, "nope"); err == nil {
		t.Fatal("unknown filter must error")
	}
}
