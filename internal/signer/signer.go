// Package signer wraps GPG signing of the repository metadata and of
// individual packages. gpg and rpm run as external tools; signature
// verification is done in-process.
package signer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/shell"
)

// Signer signs with the given GPG key ID, or the default key when empty.
type Signer struct {
	KeyID string
}

// Available reports whether gpg exists on the host.
func (s *Signer) Available() bool {
	return shell.IsCommandExist("gpg")
}

// SignRepoMetadata creates a detached armored signature repomd.xml.asc next
// to repodataDir's repomd.xml.
func (s *Signer) SignRepoMetadata(repodataDir string) error {
	repomdPath := filepath.Join(repodataDir, "repomd.xml")
	if _, err := os.Stat(repomdPath); err != nil {
		return fmt.Errorf("repomd.xml not found in %s: %w", repodataDir, err)
	}

	cmd := "gpg --batch --yes --detach-sign --armor"
	if s.KeyID != "" {
		cmd += fmt.Sprintf(" --local-user %q", s.KeyID)
	}
	cmd += fmt.Sprintf(" %q", repomdPath)

	if _, err := shell.ExecCmd(cmd, nil); err != nil {
		return fmt.Errorf("signing repository metadata: %w", err)
	}
	logger.Logger().Infof("signed %s", repomdPath)
	return nil
}

// ExportPublicKey writes the armored public key to destPath so repository
// users can import it.
func (s *Signer) ExportPublicKey(destPath string) error {
	cmd := "gpg --armor --export"
	if s.KeyID != "" {
		cmd += fmt.Sprintf(" %q", s.KeyID)
	}
	cmd += fmt.Sprintf(" > %q", destPath)

	if _, err := shell.ExecCmd(cmd, nil); err != nil {
		return fmt.Errorf("exporting public key: %w", err)
	}

	info, err := os.Stat(destPath)
	if err != nil || info.Size() == 0 {
		os.Remove(destPath)
		return fmt.Errorf("gpg exported an empty key to %s", destPath)
	}
	return nil
}

// SignPackage signs one rpm in place with rpm --addsign.
func (s *Signer) SignPackage(rpmPath string) error {
	if !shell.IsCommandExist("rpm") {
		return fmt.Errorf("rpm not found on host")
	}
	cmd := fmt.Sprintf("rpm --define %q --addsign %q",
		"_gpg_name "+s.KeyID, rpmPath)
	if _, err := shell.ExecCmd(cmd, nil); err != nil {
		return fmt.Errorf("signing package %s: %w", filepath.Base(rpmPath), err)
	}
	return nil
}

// VerifyDetached checks an armored detached signature against the exported
// public key. Run after signing so a bad key setup is caught before
// publication instead of by every client.
func VerifyDetached(pubKeyPath, signedPath, sigPath string) error {
	keyFile, err := os.Open(pubKeyPath)
	if err != nil {
		return fmt.Errorf("opening public key: %w", err)
	}
	defer keyFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}

	signed, err := os.Open(signedPath)
	if err != nil {
		return fmt.Errorf("opening signed file: %w", err)
	}
	defer signed.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("opening signature: %w", err)
	}
	defer sig.Close()

	if _, err := openpgp.CheckArmoredDetachedSignature(keyring, signed, sig, nil); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
