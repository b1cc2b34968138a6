package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/open-edge-platform/rpm-repo-composer/internal/config"
)

func testSettings() config.Settings {
	return config.Settings{
		Name:        "my-packages",
		BaseURL:     "https://example.github.io/repo/",
		Description: "My Packages",
	}
}

func readRepoFile(t *testing.T, settings config.Settings, gpgKey string, signPackages bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "my-packages.repo")
	if err := WriteRepoFile(path, settings, gpgKey, signPackages); err != nil {
		t.Fatalf("writing repo file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading repo file: %v", err)
	}
	return string(data)
}

func TestWriteRepoFileUnsigned(t *testing.T) {
	content := readRepoFile(t, testSettings(), "", false)

	for _, want := range []string{
		"[my-packages]",
		"name=My Packages",
		"baseurl=https://example.github.io/repo/packages",
		"enabled=1",
		"gpgcheck=0",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in:\n%s", want, content)
		}
	}
	if strings.Contains(content, "repo_gpgcheck") {
		t.Error("unsigned repo must not enable repo_gpgcheck")
	}
}

func TestWriteRepoFileMetadataOnlySigning(t *testing.T) {
	content := readRepoFile(t, testSettings(), "ABCDEF", false)

	if !strings.Contains(content, "gpgcheck=0\nrepo_gpgcheck=1") {
		t.Errorf("expected metadata-only gpg flags in:\n%s", content)
	}
	if !strings.Contains(content, "gpgkey=https://example.github.io/repo/RPM-GPG-KEY-my-packages") {
		t.Errorf("missing gpgkey line in:\n%s", content)
	}
}

func TestWriteRepoFilePackageSigning(t *testing.T) {
	content := readRepoFile(t, testSettings(), "ABCDEF", true)

	if !strings.Contains(content, "gpgcheck=1\nrepo_gpgcheck=1") {
		t.Errorf("expected full gpg flags in:\n%s", content)
	}
}
