// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package bootjar

import (
	"net/url"

	"github.com/hashicorp/go-bootjar/archive"
)

// The capability interfaces below each cover one concern of building an
// executable archive. [Container] implements all of them; code that only
// needs one concern can accept the narrower interface.

// ManifestWriter writes the Spring Boot manifest.
type ManifestWriter interface {
	SetSpringBootManifest(startClass string) error
	SetSpringBootManifestVersion(startClass, bootVersion string) error
}

// BootInfResourceAdder places framework-private resources in the boot-info
// directory.
type BootInfResourceAdder interface {
	AddBootInfResource(resourceName string) error
	AddBootInfResourceAs(resourceName, target string) error
	AddBootInfFile(file string) error
	AddBootInfFileAs(file, target string) error
	AddBootInfURL(u *url.URL, target string) error
	AddBootInfAsset(asset archive.Asset, target string) error
	AddBootInfPackageResource(pkg, name string) error
	AddBootInfPackageResourceAs(pkg, name, target string) error
	AddBootInfPackageResources(pkg string, names ...string) error
}

// LauncherLibraryAdder merges launcher libraries into the bootstrap class
// path.
type LauncherLibraryAdder interface {
	AddLauncherLibrary(lib *archive.Archive) error
	AddLauncherLibraries(libs ...*archive.Archive) error
	AddLauncherLibraryGroups(groups ...[]*archive.Archive) error
}

// LauncherClassAdder adds and removes classes of the bootstrap class path.
type LauncherClassAdder interface {
	AddLauncherClass(class string) error
	AddLauncherClasses(classes ...string) error
	AddLauncherPackage(pkg string) error
	AddLauncherPackages(recursive bool, pkgs ...string) error
	AddLauncherPackagesFiltered(recursive bool, filter archive.Filter, pkgs ...string) error
	AddDefaultLauncherPackage() error
	DeleteLauncherClass(class string) error
	DeleteLauncherClasses(classes ...string) error
	DeleteLauncherPackage(pkg string) error
	DeleteLauncherPackages(recursive bool, pkgs ...string) error
	DeleteLauncherPackagesFiltered(recursive bool, filter archive.Filter, pkgs ...string) error
	DeleteDefaultLauncherPackage() error
	AddLauncherServiceProvider(iface string, impls ...string) error
	AddLauncherServiceProviderAndClasses(iface string, impls ...string) error
}

// LibraryAdder nests application libraries in the libraries directory.
type LibraryAdder interface {
	AddAsLibrary(lib *archive.Archive) error
	AddAsLibraries(libs ...*archive.Archive) error
	AddAsLibraryFile(file string) error
}

var (
	_ ManifestWriter       = (*Container)(nil)
	_ BootInfResourceAdder = (*Container)(nil)
	_ LauncherLibraryAdder = (*Container)(nil)
	_ LauncherClassAdder   = (*Container)(nil)
	_ LibraryAdder         = (*Container)(nil)
)
