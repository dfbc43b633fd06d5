// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package bootjar

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hashicorp/go-bootjar/archive"
)

// The operations in this file place the application itself, as opposed to
// the launcher, according to the active layout.

// AddClass copies a class, including its nested classes, from the class
// path to the layout's classes directory.
func (c *Container) AddClass(class string) error {
	return c.AddClasses(class)
}

// AddClasses copies several classes to the layout's classes directory.
func (c *Container) AddClasses(classes ...string) error {
	view, err := c.archive.View(c.layout.ClassesPath())
	if err != nil {
		return err
	}
	return c.addClasses(view, "class", classes)
}

// AddPackages copies the classes of the given packages, and of their
// sub-packages if recursive is true, to the layout's classes directory.
func (c *Container) AddPackages(recursive bool, pkgs ...string) error {
	if err := validatePackages(pkgs); err != nil {
		return err
	}
	view, err := c.archive.View(c.layout.ClassesPath())
	if err != nil {
		return err
	}
	return c.addPackages(view, "class", recursive, archive.IncludeAll, pkgs)
}

// AddAsResource copies a classpath resource to the same name beneath the
// layout's classes directory, where the application's class loader finds
// it again.
func (c *Container) AddAsResource(resourceName string) error {
	return c.AddAsResourceAs(resourceName, resourceName)
}

// AddAsResourceAs copies a classpath resource to the given path relative
// to the layout's classes directory.
func (c *Container) AddAsResourceAs(resourceName, target string) error {
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
	return c.placeUnder(c.layout.ClassesPath(), asset, target, "resource")
}

// AddAsWebResource places static web content at the given path relative to
// the layout's web directory, classes/static.
func (c *Container) AddAsWebResource(asset archive.Asset, target string) error {
	if asset == nil {
		return invalidArgument("asset must be specified")
	}
	if target == "" {
		return invalidArgument("target must be specified")
	}
	return c.placeUnder(c.layout.WebPath(), asset, target, "web resource")
}

// AddAsWebInfResource places content at the given path relative to the
// web-info directory, which only web archive layouts have.
func (c *Container) AddAsWebInfResource(asset archive.Asset, target string) error {
	if asset == nil {
		return invalidArgument("asset must be specified")
	}
	if target == "" {
		return invalidArgument("target must be specified")
	}
	root, err := c.layout.WebInfPath()
	if err != nil {
		return err
	}
	return c.placeUnder(root, asset, target, "web-inf resource")
}

// AddAsLibrary nests a library in the layout's libraries directory, under
// the library's name and without compression, as the launcher requires.
func (c *Container) AddAsLibrary(lib *archive.Archive) error {
	if lib == nil {
		return invalidArgument("library must be specified")
	}
	return c.AddAsLibraries(lib)
}

// AddAsLibraries nests several libraries in the layout's libraries
// directory.
func (c *Container) AddAsLibraries(libs ...*archive.Archive) error {
	if err := validateArchives("libraries", libs); err != nil {
		return err
	}
	for i, lib := range libs {
		if lib.Name() == "" {
			return invalidArgument("library at index %d has no name", i)
		}
	}
	for _, lib := range libs {
		if err := c.placeUnder(c.layout.LibrariesPath(), archive.Nested(lib), lib.Name(), "library"); err != nil {
			return err
		}
	}
	return nil
}

// AddAsLibraryFile nests a jar file from the local filesystem in the
// layout's libraries directory, under its base name. The file is read when
// the archive is exported.
func (c *Container) AddAsLibraryFile(file string) error {
	if file == "" {
		return invalidArgument("library file must be specified")
	}
	name := filepath.Base(file)
	if name == "." || name == string(filepath.Separator) {
		return invalidArgument("library file %q has no name", file)
	}
	return c.placeUnder(c.layout.LibrariesPath(), archive.Stored(archive.File(file)), name, "library")
}

// AddClassesDir adds a compiled classes directory, such as the output of
// javac, to the layout's classes directory. A .bootignore file at the root
// of the directory excludes content.
func (c *Container) AddClassesDir(dir string) error {
	if dir == "" {
		return invalidArgument("classes directory must be specified")
	}
	if err := c.archive.AddDir(dir, c.layout.ClassesPath()); err != nil {
		return err
	}
	c.logger.Debug("added classes directory", zap.String("dir", dir), zap.String("path", c.layout.ClassesPath()))
	return nil
}

func (c *Container) placeUnder(root string, asset archive.Asset, target, what string) error {
	p, err := archive.Resolve(root, target)
	if err != nil {
		return invalidArgument("invalid target %q: %s", target, err)
	}
	return c.place(asset, p, what)
}
