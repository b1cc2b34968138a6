package repo

import (
	"fmt"
	"os"
	"strings"

	"github.com/open-edge-platform/rpm-repo-composer/internal/config"
)

// WriteRepoFile generates the yum .repo definition for easy installation.
// Content derives purely from configuration and whether signing ran: no
// dynamic repository state leaks in here.
func WriteRepoFile(path string, settings config.Settings, gpgKey string, signPackages bool) error {
	// baseurl must point at packages/ where repodata/ lives
	packagesURL := strings.TrimRight(settings.BaseURL, "/") + "/packages"

	var gpgLines string
	if gpgKey != "" {
		keyURL := fmt.Sprintf("%s/RPM-GPG-KEY-%s", strings.TrimRight(settings.BaseURL, "/"), settings.Name)
		if signPackages {
			// Both individual packages and repo metadata are signed
			gpgLines = fmt.Sprintf("gpgcheck=1\nrepo_gpgcheck=1\ngpgkey=%s", keyURL)
		} else {
			// Only repo metadata is signed, not individual packages
			gpgLines = fmt.Sprintf("gpgcheck=0\nrepo_gpgcheck=1\ngpgkey=%s", keyURL)
		}
	} else {
		gpgLines = "gpgcheck=0"
	}

	content := fmt.Sprintf("[%s]\nname=%s\nbaseurl=%s\nenabled=1\n%s\n",
		settings.Name, settings.Description, packagesURL, gpgLines)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing repo file %s: %w", path, err)
	}
	return nil
}
