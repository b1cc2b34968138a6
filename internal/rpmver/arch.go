package rpmver

import (
	"regexp"
	"strings"
)

// archPatterns maps canonical architecture names to the filename spellings
// seen across upstream release assets.
var archPatterns = map[string][]*regexp.Regexp{
	"x86_64":  compileAll(`x86_64`, `amd64`, `x64`),
	"aarch64": compileAll(`aarch64`, `arm64`),
	"i686":    compileAll(`i686`, `i386`, `x86[^_]`),
	"armv7hl": compileAll(`armv7hl`, `armhf`),
	"noarch":  compileAll(`noarch`),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// DetectArch returns the canonical architecture a filename advertises, or
// an empty string when none of the known spellings appear.
func DetectArch(filename string) string {
	lower := strings.ToLower(filename)
	for _, arch := range []string{"x86_64", "aarch64", "i686", "armv7hl", "noarch"} {
		for _, pattern := range archPatterns[arch] {
			if pattern.MatchString(lower) {
				return arch
			}
		}
	}
	return ""
}

// IsSourcePackage reports whether the filename is a source rpm, which is
// never published to the binary repository.
func IsSourcePackage(filename string) bool {
	return strings.Contains(filename, ".src.rpm") || strings.Contains(filename, ".srpm")
}
