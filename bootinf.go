// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package bootjar

import (
	"errors"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-bootjar/archive"
	"github.com/hashicorp/go-bootjar/classpath"
)

// AddBootInfResource copies the named classpath resource into the boot-info
// directory, under the resource's base name. For example
// "config/application.yml" becomes BOOT-INF/application.yml.
func (c *Container) AddBootInfResource(resourceName string) error {
	if resourceName == "" {
		return invalidArgument("resource name must be specified")
	}
	return c.AddBootInfResourceAs(resourceName, classpath.BaseName(resourceName))
}

// AddBootInfResourceAs copies the named classpath resource to the given
// path relative to the boot-info directory.
func (c *Container) AddBootInfResourceAs(resourceName, target string) error {
	if resourceName == "" {
		return invalidArgument("resource name must be specified")
	}
	if target == "" {
		return invalidArgument("target must be specified")
	}
	asset, err := c.classPathResource(resourceName)
	if err != nil {
		return err
	}
	return c.addBootInf(asset, target)
}

// AddBootInfFile copies a local file into the boot-info directory under
// its base name. The file is read when the archive is exported.
func (c *Container) AddBootInfFile(file string) error {
	if file == "" {
		return invalidArgument("file must be specified")
	}
	return c.AddBootInfFileAs(file, filepath.Base(file))
}

// AddBootInfFileAs copies a local file to the given path relative to the
// boot-info directory.
func (c *Container) AddBootInfFileAs(file, target string) error {
	if file == "" {
		return invalidArgument("file must be specified")
	}
	if target == "" {
		return invalidArgument("target must be specified")
	}
	return c.addBootInf(archive.File(file), target)
}

// AddBootInfURL places the content found at u at the given path relative to
// the boot-info directory. The content is fetched when the archive is
// exported.
func (c *Container) AddBootInfURL(u *url.URL, target string) error {
	if u == nil {
		return invalidArgument("URL must be specified")
	}
	if target == "" {
		return invalidArgument("target must be specified")
	}
	return c.addBootInf(archive.URL(u, c.httpClient), target)
}

// AddBootInfAsset places arbitrary content at the given path relative to
// the boot-info directory.
func (c *Container) AddBootInfAsset(asset archive.Asset, target string) error {
	if asset == nil {
		return invalidArgument("asset must be specified")
	}
	if target == "" {
		return invalidArgument("target must be specified")
	}
	return c.addBootInf(asset, target)
}

// AddBootInfPackageResource copies a resource that lives in the given
// package into the boot-info directory, keeping its class loader name:
// resource "application.yml" of package "com.acme" becomes
// BOOT-INF/com/acme/application.yml.
func (c *Container) AddBootInfPackageResource(pkg, name string) error {
	if err := validateResourcePackage(pkg); err != nil {
		return err
	}
	if name == "" {
		return invalidArgument("resource name must be specified")
	}
	return c.AddBootInfPackageResourceAs(pkg, name, classpath.ResourceName(pkg, name))
}

// AddBootInfPackageResourceAs copies a resource that lives in the given
// package to the given path relative to the boot-info directory.
func (c *Container) AddBootInfPackageResourceAs(pkg, name, target string) error {
	if err := validateResourcePackage(pkg); err != nil {
		return err
	}
	if name == "" {
		return invalidArgument("resource name must be specified")
	}
	return c.AddBootInfResourceAs(classpath.ResourceName(pkg, name), target)
}

// AddBootInfPackageResources copies several resources of one package, as
// [Container.AddBootInfPackageResource] does. All arguments are checked
// before anything is added, but an I/O error part way through leaves the
// resources added so far in place.
func (c *Container) AddBootInfPackageResources(pkg string, names ...string) error {
	if err := validateResourcePackage(pkg); err != nil {
		return err
	}
	if len(names) == 0 {
		return invalidArgument("resource names must be specified")
	}
	for i, name := range names {
		if name == "" {
			return invalidArgument("resource name at index %d must not be empty", i)
		}
	}
	for _, name := range names {
		if err := c.AddBootInfPackageResource(pkg, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) addBootInf(asset archive.Asset, target string) error {
	root, err := c.layout.BootInfPath()
	if err != nil {
		return err
	}
	p, err := archive.Resolve(root, target)
	if err != nil {
		return invalidArgument("invalid target %q: %s", target, err)
	}
	return c.place(asset, p, "boot-inf resource")
}

func validateResourcePackage(pkg string) error {
	if pkg == "" {
		return invalidArgument("package must be specified")
	}
	if err := classpath.ValidatePackageName(pkg); err != nil {
		return invalidArgument("%s", err)
	}
	return nil
}

// classPathResource returns an asset for the named classpath resource,
// failing if the class path does not have it.
func (c *Container) classPathResource(resourceName string) (archive.Asset, error) {
	cp, err := c.classPathFS()
	if err != nil {
		return nil, err
	}
	name := strings.TrimLeft(resourceName, "/")
	if !fs.ValidPath(name) || name == "." {
		return nil, invalidArgument("invalid resource name %q", resourceName)
	}
	info, err := fs.Stat(cp, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, invalidArgument("resource %s not found on the class path", resourceName)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, invalidArgument("resource %s is a directory", resourceName)
	}
	return archive.FS(cp, name), nil
}
