// Package rpminfo reads the descriptive header fields out of a downloaded
// rpm so the manifest can carry package metadata, not just filenames.
package rpminfo

import (
	"fmt"
	"os"

	"github.com/sassoftware/go-rpmutils"
)

// Info is the descriptive subset of an rpm header recorded per package.
type Info struct {
	Name        string
	Summary     string
	Description string
	License     string
	Vendor      string
	Homepage    string
}

// Read extracts Info from the rpm at path. A tag missing from the header
// degrades to an empty field; only an unreadable file or a corrupt header
// errors.
func Read(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		return Info{}, fmt.Errorf("reading rpm header of %s: %w", path, err)
	}

	get := func(tag int) string {
		s, err := rpm.Header.GetString(tag)
		if err != nil {
			return ""
		}
		return s
	}
	return Info{
		Name:        get(rpmutils.NAME),
		Summary:     get(rpmutils.SUMMARY),
		Description: get(rpmutils.DESCRIPTION),
		License:     get(rpmutils.LICENSE),
		Vendor:      get(rpmutils.VENDOR),
		Homepage:    get(rpmutils.URL),
	}, nil
}
