package uhubctl

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// NoDescVersion is the first uhubctl release that understands -N (--nodesc).
const NoDescVersion = "v2.5.0"

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// Version is the version reported by `uhubctl -v`.
type Version struct {
	raw    string
	semver string
}

// ParseVersion extracts the first MAJOR.MINOR[.PATCH] from s. Git-describe
// suffixes such as "v2.5.0-12-gdeadbee" are ignored. A string without a
// version yields an unknown Version.
func ParseVersion(s string) Version {
	raw := strings.TrimSpace(s)
	m := versionPattern.FindStringSubmatch(raw)
	if m == nil {
		return Version{raw: raw}
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v := "v" + m[1] + "." + m[2] + "." + patch
	if !semver.IsValid(v) {
		return Version{raw: raw}
	}
	return Version{raw: raw, semver: v}
}

// Known reports whether a version number could be extracted.
func (v Version) Known() bool {
	return v.semver != ""
}

// Semver returns the canonical "vX.Y.Z" form, or "" when unknown.
func (v Version) Semver() string {
	return v.semver
}

// String returns the version as printed by the binary.
func (v Version) String() string {
	if v.raw == "" {
		return "unknown"
	}
	return v.raw
}

// AtLeast reports whether v >= min. Unknown versions are never at least
// anything.
func (v Version) AtLeast(min string) bool {
	if !v.Known() {
		return false
	}
	return semver.Compare(v.semver, min) >= 0
}

// SupportsNoDesc reports whether this uhubctl accepts -N.
func (v Version) SupportsNoDesc() bool {
	return v.AtLeast(NoDescVersion)
}
