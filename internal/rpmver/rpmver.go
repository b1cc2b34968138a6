// Package rpmver turns .rpm filenames into comparable version keys.
package rpmver

import (
	"regexp"
	"strings"

	"github.com/sassoftware/go-rpmutils"
)

// Version is the ordering key extracted from a package filename. When the
// filename does not follow the name-version-release.arch.rpm convention,
// Opaque carries the whole filename (minus extension) and ordering degrades
// to plain lexical comparison.
type Version struct {
	Name    string
	Version string
	Release string
	Arch    string
	Opaque  string
}

var (
	// name-version-release.arch.rpm; version and release carry no hyphens,
	// arch carries no dots.
	nvraPattern = regexp.MustCompile(`^(.+)-([^-]+)-([^-]+)\.([^.]+)\.rpm$`)
	// name-version.arch.rpm, release omitted entirely
	nvaPattern = regexp.MustCompile(`^(.+)-([^-]+)\.([^.]+)\.rpm$`)
)

// Extract parses a package filename into a Version. It never fails: a
// filename outside the expected convention yields an opaque key.
func Extract(filename string) Version {
	if m := nvraPattern.FindStringSubmatch(filename); m != nil {
		return Version{Name: m[1], Version: m[2], Release: m[3], Arch: m[4]}
	}
	if m := nvaPattern.FindStringSubmatch(filename); m != nil {
		return Version{Name: m[1], Version: m[2], Arch: m[3]}
	}
	return Version{Opaque: strings.TrimSuffix(filename, ".rpm")}
}

// IsOpaque reports whether the filename failed to parse and the key is a
// plain lexical one. Keyed off Name because a structured parse always has
// one, while degenerate filenames like "" or ".rpm" leave even Opaque empty.
func (v Version) IsOpaque() bool { return v.Name == "" }

// Key returns a stable string identifying this version. Architecture
// variants of one release share a Key, which is what groups them for
// retention purposes.
func (v Version) Key() string {
	if v.IsOpaque() {
		return v.Opaque
	}
	if v.Release == "" {
		return v.Version
	}
	return v.Version + "-" + v.Release
}

// Compare orders two Versions: negative when a is older than b, zero when
// equal, positive when newer. Structured keys use rpm version-release
// semantics via rpmvercmp; a missing release sorts before any present
// release. The order is total: an opaque key sorts before every structured
// one, so unparseable filenames never displace real versions, and opaque
// keys order lexically among themselves.
func Compare(a, b Version) int {
	if a.IsOpaque() || b.IsOpaque() {
		switch {
		case a.IsOpaque() && b.IsOpaque():
			return strings.Compare(a.Key(), b.Key())
		case a.IsOpaque():
			return -1
		default:
			return 1
		}
	}
	if c := rpmutils.Vercmp(a.Version, b.Version); c != 0 {
		return c
	}
	switch {
	case a.Release == "" && b.Release == "":
		return 0
	case a.Release == "":
		return -1
	case b.Release == "":
		return 1
	}
	return rpmutils.Vercmp(a.Release, b.Release)
}
