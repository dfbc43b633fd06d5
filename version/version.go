// Copyright IBM Corp. 2018, 2025
// SPDX-License-Identifier: MPL-2.0

// Package version holds the version of the bootjar library and tool.
package version

import (
	"github.com/apparentlymart/go-versions/versions"
)

var (
	Version           = "0.3.0"
	VersionPrerelease = "dev"
	VersionMetadata   = ""
)

// String returns the full version, such as "0.3.0-dev".
func String() string {
	v := Version
	if VersionPrerelease != "" {
		v += "-" + VersionPrerelease
	}
	if VersionMetadata != "" {
		v += "+" + VersionMetadata
	}
	return v
}

// Parsed returns the full version as a semantic version. It panics if the
// variables above were overridden at link time with an invalid version.
func Parsed() versions.Version {
	return versions.MustParseVersion(String())
}
