// Package repomd drives repository metadata generation and sanity-checks
// the result. createrepo_c does the heavy lifting as an external tool; this
// package only invokes it and reads back what it produced.
package repomd

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/logger"
	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/shell"
)

// Generate runs createrepo_c (falling back to createrepo) over packagesDir,
// producing the repodata/ index alongside the packages.
func Generate(packagesDir string) error {
	log := logger.Logger()

	cmd := "createrepo_c"
	if !shell.IsCommandExist(cmd) {
		cmd = "createrepo"
		if !shell.IsCommandExist(cmd) {
			return fmt.Errorf("neither createrepo_c nor createrepo found on host")
		}
	}

	log.Infof("generating repository metadata with %s", cmd)
	if _, err := shell.ExecCmdWithStream(fmt.Sprintf("%s --update %q", cmd, packagesDir), nil); err != nil {
		return fmt.Errorf("running %s: %w", cmd, err)
	}
	return nil
}

// Verify cross-checks the generated metadata against the manifest: the
// package count recorded in primary.xml.gz must match the number of tracked
// files. Catches a createrepo run over the wrong directory before anything
// gets published.
func Verify(packagesDir string, expectedPackages int) error {
	repomdPath := filepath.Join(packagesDir, "repodata", "repomd.xml")
	href, err := primaryHref(repomdPath)
	if err != nil {
		return err
	}

	count, err := countPrimaryPackages(filepath.Join(packagesDir, filepath.FromSlash(href)))
	if err != nil {
		return err
	}
	if count != expectedPackages {
		return fmt.Errorf("metadata lists %d packages, manifest tracks %d", count, expectedPackages)
	}
	logger.Logger().Infof("metadata verified: %d package(s) indexed", count)
	return nil
}

// primaryHref walks repomd.xml for the <data type="primary"> location href.
func primaryHref(repomdPath string) (string, error) {
	f, err := os.Open(repomdPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", repomdPath, err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "data" {
			continue
		}
		var isPrimary bool
		for _, attr := range se.Attr {
			if attr.Name.Local == "type" && attr.Value == "primary" {
				isPrimary = true
				break
			}
		}
		if !isPrimary {
			if err := dec.Skip(); err != nil {
				return "", fmt.Errorf("error skipping token: %w", err)
			}
			continue
		}

		// Inside <data type="primary">, look for <location href="..."/>
		for {
			tok2, err := dec.Token()
			if err != nil {
				if err == io.EOF {
					break
				}
				return "", err
			}
			if ee, ok := tok2.(xml.EndElement); ok && ee.Name.Local == "data" {
				break
			}
			if le, ok := tok2.(xml.StartElement); ok && le.Name.Local == "location" {
				for _, attr := range le.Attr {
					if attr.Name.Local == "href" {
						return attr.Value, nil
					}
				}
			}
		}
	}
	return "", fmt.Errorf("primary location not found in %s", repomdPath)
}

// countPrimaryPackages reads the packages attribute off the <metadata> root
// of primary.xml.gz.
func countPrimaryPackages(primaryPath string) (int, error) {
	f, err := os.Open(primaryPath)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", primaryPath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("decompressing %s: %w", primaryPath, err)
	}
	defer gz.Close()

	dec := xml.NewDecoder(gz)
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "metadata" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "packages" {
				n, err := strconv.Atoi(attr.Value)
				if err != nil {
					return 0, fmt.Errorf("bad packages attribute %q: %w", attr.Value, err)
				}
				return n, nil
			}
		}
		return 0, fmt.Errorf("metadata element in %s has no packages attribute", primaryPath)
	}
	return 0, fmt.Errorf("no metadata element in %s", primaryPath)
}
