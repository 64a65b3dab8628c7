package appx

import "golang.org/x/mod/semver"

// VersionCore is the SemVer core of the version of appx. Meant to
// be overridden at build time for releases.
var VersionCore = "0.1.0"

// SemVer returns the canonicalized version of appx.
func SemVer() string {
	return semver.Canonical("v" + VersionCore)
}
