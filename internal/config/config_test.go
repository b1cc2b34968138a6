package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const fullConfig = `settings:
  name: my-packages
  baseurl: https://example.github.io/repo
  description: My Packages
  architectures: [x86_64]
  sign_packages: false
projects:
  - repo: acme/widget
    keep_versions: 2
    asset_pattern: "x86_64"
  - repo: acme/gadget
    name: gizmo
`

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Settings.Name != "my-packages" {
		t.Errorf("settings.name = %q", cfg.Settings.Name)
	}
	if cfg.SignPackagesEnabled() {
		t.Error("sign_packages: false must disable package signing")
	}
	if len(cfg.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(cfg.Projects))
	}
	if cfg.Projects[0].Name != "widget" {
		t.Errorf("default name should be repo tail, got %q", cfg.Projects[0].Name)
	}
	if cfg.Projects[1].Name != "gizmo" {
		t.Errorf("explicit name must win, got %q", cfg.Projects[1].Name)
	}
	if !cfg.Projects[0].MatchesAsset("widget-1.0-1.x86_64.rpm") {
		t.Error("asset pattern should match")
	}
	if cfg.Projects[0].MatchesAsset("widget-1.0-1.aarch64.rpm") {
		t.Error("asset pattern should reject non-matching filename")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "projects:\n  - repo: acme/app\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Settings.Name != "github-packages" {
		t.Errorf("default name, got %q", cfg.Settings.Name)
	}
	if len(cfg.Settings.Architectures) != 2 {
		t.Errorf("default architectures, got %v", cfg.Settings.Architectures)
	}
	if !cfg.SignPackagesEnabled() {
		t.Error("sign_packages must default to true")
	}
	if cfg.Projects[0].KeepVersions != 0 {
		t.Errorf("default keep_versions, got %d", cfg.Projects[0].KeepVersions)
	}
	// No pattern configured: everything matches.
	if !cfg.Projects[0].MatchesAsset("anything.rpm") {
		t.Error("absent pattern must match all assets")
	}
}

func TestLoadPatternIsCaseInsensitive(t *testing.T) {
	cfg, err := Load(writeConfig(t, "projects:\n  - repo: acme/app\n    asset_pattern: Linux\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Projects[0].MatchesAsset("app-1.0-1.linux.x86_64.rpm") {
		t.Error("pattern matching must be case-insensitive")
	}
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	cases := map[string]string{
		"no projects":        "settings:\n  name: x\n",
		"empty project list": "projects: []\n",
		"repo not owner/name": "projects:\n  - repo: justaname\n",
		"negative keep":      "projects:\n  - repo: a/b\n    keep_versions: -1\n",
		"keep not integer":   "projects:\n  - repo: a/b\n    keep_versions: two\n",
		"duplicate repo":     "projects:\n  - repo: a/b\n  - repo: a/b\n",
		"invalid pattern":    "projects:\n  - repo: a/b\n    asset_pattern: \"[\"\n",
		"not yaml":           "projects: [unclosed\n",
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestFindProject(t *testing.T) {
	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p := cfg.FindProject("acme/widget"); p == nil || p.Name != "widget" {
		t.Error("lookup by repo failed")
	}
	if p := cfg.FindProject("gizmo"); p == nil || p.Repo != "acme/gadget" {
		t.Error("lookup by name failed")
	}
	if cfg.FindProject("nope") != nil {
		t.Error("unknown project must return nil")
	}
}
