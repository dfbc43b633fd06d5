// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package bootjar

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/hashicorp/go-bootjar/archive"
	"github.com/hashicorp/go-bootjar/classpath"
)

// metaInfPath is the metadata directory that launcher libraries must not
// contribute, so that they never replace the archive's own manifest.
const metaInfPath = "/META-INF"

// AddLauncherLibrary merges the content of a library, typically
// spring-boot-loader.jar, into the bootstrap class path at the root of the
// archive. The library's META-INF directory is left out.
func (c *Container) AddLauncherLibrary(lib *archive.Archive) error {
	if lib == nil {
		return invalidArgument("launcher library must be specified")
	}
	return c.mergeLauncherLibrary(lib)
}

// AddLauncherLibraries merges several launcher libraries, in order. Later
// libraries win where two of them have the same entry.
func (c *Container) AddLauncherLibraries(libs ...*archive.Archive) error {
	if err := validateArchives("launcher libraries", libs); err != nil {
		return err
	}
	for _, lib := range libs {
		if err := c.mergeLauncherLibrary(lib); err != nil {
			return err
		}
	}
	return nil
}

// AddLauncherLibraryGroups merges groups of launcher libraries, such as
// the results of several dependency resolutions, in order.
func (c *Container) AddLauncherLibraryGroups(groups ...[]*archive.Archive) error {
	if len(groups) == 0 {
		return invalidArgument("launcher library groups must be specified")
	}
	for i, group := range groups {
		if group == nil {
			return invalidArgument("launcher library group at index %d must not be nil", i)
		}
		for j, lib := range group {
			if lib == nil {
				return invalidArgument("launcher library %d of group %d must not be nil", j, i)
			}
		}
	}
	for _, group := range groups {
		for _, lib := range group {
			if err := c.mergeLauncherLibrary(lib); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Container) mergeLauncherLibrary(lib *archive.Archive) error {
	if err := c.launcher.Merge(lib, archive.ExcludePrefix(metaInfPath)); err != nil {
		return err
	}
	c.logger.Debug("merged launcher library", zap.String("library", lib.Name()))
	return nil
}

// AddLauncherClass copies a class, including its nested classes, from the
// class path to the bootstrap class path.
func (c *Container) AddLauncherClass(class string) error {
	return c.AddLauncherClasses(class)
}

// AddLauncherClasses copies several classes to the bootstrap class path.
// Every class is looked up before anything is added.
func (c *Container) AddLauncherClasses(classes ...string) error {
	return c.addClasses(c.launcher, "launcher class", classes)
}

// AddLauncherPackage copies the classes of a package, but not of its
// sub-packages, to the bootstrap class path.
func (c *Container) AddLauncherPackage(pkg string) error {
	return c.AddLauncherPackages(false, pkg)
}

// AddLauncherPackages copies the classes of the given packages, and of
// their sub-packages if recursive is true, to the bootstrap class path.
func (c *Container) AddLauncherPackages(recursive bool, pkgs ...string) error {
	return c.AddLauncherPackagesFiltered(recursive, archive.IncludeAll, pkgs...)
}

// AddLauncherPackagesFiltered is like [Container.AddLauncherPackages] but
// only copies the classes whose archive path the filter accepts.
func (c *Container) AddLauncherPackagesFiltered(recursive bool, filter archive.Filter, pkgs ...string) error {
	if filter == nil {
		return invalidArgument("filter must be specified")
	}
	if err := validatePackages(pkgs); err != nil {
		return err
	}
	return c.addPackages(c.launcher, "launcher class", recursive, filter, pkgs)
}

// AddDefaultLauncherPackage copies the classes of the default package to
// the bootstrap class path.
func (c *Container) AddDefaultLauncherPackage() error {
	return c.addPackages(c.launcher, "launcher class", false, archive.IncludeAll, []string{""})
}

// DeleteLauncherClass removes a class and its nested classes from the
// bootstrap class path. Removing a class that is not there does nothing.
func (c *Container) DeleteLauncherClass(class string) error {
	return c.DeleteLauncherClasses(class)
}

// DeleteLauncherClasses removes several classes from the bootstrap class
// path.
func (c *Container) DeleteLauncherClasses(classes ...string) error {
	if err := validateClasses(classes); err != nil {
		return err
	}
	for _, class := range classes {
		file, _ := classpath.ClassFile(class)
		dir, base := path.Split(file)
		nested := strings.TrimSuffix(base, classpath.ClassSuffix) + "$"

		removed := c.launcher.DeleteMatching(dir, func(p string) bool {
			name := path.Base(p)
			return path.Dir(p) == archive.Join(c.launcher.Root(), dir) &&
				(name == base || (strings.HasPrefix(name, nested) && strings.HasSuffix(name, classpath.ClassSuffix)))
		})
		c.logger.Debug("deleted launcher class", zap.String("class", class), zap.Strings("paths", removed))
	}
	return nil
}

// DeleteLauncherPackage removes the classes of a package, but not of its
// sub-packages, from the bootstrap class path.
func (c *Container) DeleteLauncherPackage(pkg string) error {
	return c.DeleteLauncherPackages(false, pkg)
}

// DeleteLauncherPackages removes the classes of the given packages, and
// of their sub-packages if recursive is true, from the bootstrap class
// path.
func (c *Container) DeleteLauncherPackages(recursive bool, pkgs ...string) error {
	return c.DeleteLauncherPackagesFiltered(recursive, archive.IncludeAll, pkgs...)
}

// DeleteLauncherPackagesFiltered is like [Container.DeleteLauncherPackages]
// but only removes the classes whose archive path the filter accepts.
func (c *Container) DeleteLauncherPackagesFiltered(recursive bool, filter archive.Filter, pkgs ...string) error {
	if filter == nil {
		return invalidArgument("filter must be specified")
	}
	if err := validatePackages(pkgs); err != nil {
		return err
	}
	for _, pkg := range pkgs {
		c.deletePackage(pkg, recursive, filter)
	}
	return nil
}

// DeleteDefaultLauncherPackage removes the classes of the default package
// from the bootstrap class path.
func (c *Container) DeleteDefaultLauncherPackage() error {
	c.deletePackage("", false, archive.IncludeAll)
	return nil
}

func (c *Container) deletePackage(pkg string, recursive bool, filter archive.Filter) {
	dir := archive.Join(c.launcher.Root(), classpath.PackageDir(pkg))
	removed := c.launcher.DeleteMatching(classpath.PackageDir(pkg), func(p string) bool {
		if !strings.HasSuffix(p, classpath.ClassSuffix) {
			return false
		}
		if !recursive && path.Dir(p) != dir {
			return false
		}
		return filter(p)
	})
	c.logger.Debug("deleted launcher package",
		zap.String("package", pkg),
		zap.Bool("recursive", recursive),
		zap.Int("classes", len(removed)),
	)
}

// AddLauncherServiceProvider registers implementations of a service
// interface for the launcher's ServiceLoader, in
// META-INF/services/<interface> of the bootstrap class path.
func (c *Container) AddLauncherServiceProvider(iface string, impls ...string) error {
	if err := validateServiceProvider(iface, impls); err != nil {
		return err
	}

	var b strings.Builder
	for _, impl := range impls {
		b.WriteString(impl)
		b.WriteString("\n")
	}
	target := path.Join("META-INF/services", iface)
	if err := c.launcher.Add(archive.String(b.String()), target); err != nil {
		return err
	}
	c.logger.Debug("added launcher service provider", zap.String("interface", iface), zap.Strings("implementations", impls))
	return nil
}

// AddLauncherServiceProviderAndClasses registers a service provider, as
// [Container.AddLauncherServiceProvider] does, and also copies the
// interface and its implementations to the bootstrap class path.
func (c *Container) AddLauncherServiceProviderAndClasses(iface string, impls ...string) error {
	if err := validateServiceProvider(iface, impls); err != nil {
		return err
	}
	if err := c.AddLauncherClasses(append([]string{iface}, impls...)...); err != nil {
		return err
	}
	return c.AddLauncherServiceProvider(iface, impls...)
}

func validateServiceProvider(iface string, impls []string) error {
	if iface == "" {
		return invalidArgument("service interface must be specified")
	}
	if err := classpath.ValidateClassName(iface); err != nil {
		return invalidArgument("%s", err)
	}
	if len(impls) == 0 {
		return invalidArgument("service implementations must be specified")
	}
	return validateClasses(impls)
}

// addClasses copies the given classes, with their nested classes, from
// the class path into the view. All classes are looked up first.
func (c *Container) addClasses(view *archive.View, what string, classes []string) error {
	if err := validateClasses(classes); err != nil {
		return err
	}
	cp, err := c.classPathFS()
	if err != nil {
		return err
	}

	var files []string
	for _, class := range classes {
		found, err := classpath.ClassFiles(cp, class)
		if errors.Is(err, fs.ErrNotExist) {
			return invalidArgument("class %s not found on the class path", class)
		}
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	return c.addClassFiles(view, what, cp, files)
}

// addPackages copies the class files of the given packages from the class
// path into the view. A package without classes contributes nothing.
func (c *Container) addPackages(view *archive.View, what string, recursive bool, filter archive.Filter, pkgs []string) error {
	cp, err := c.classPathFS()
	if err != nil {
		return err
	}

	var files []string
	for _, pkg := range pkgs {
		found, err := classpath.PackageClassFiles(cp, pkg, recursive)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			c.logger.Debug("package has no classes", zap.String("package", pkg))
		}
		for _, f := range found {
			p, err := view.Resolve(f)
			if err != nil {
				return err
			}
			if filter(p) {
				files = append(files, f)
			}
		}
	}
	return c.addClassFiles(view, what, cp, files)
}

func (c *Container) addClassFiles(view *archive.View, what string, cp fs.FS, files []string) error {
	for _, f := range files {
		if err := view.Add(archive.FS(cp, f), f); err != nil {
			return err
		}
		c.logger.Debug("added "+what, zap.String("path", archive.Join(view.Root(), f)))
	}
	return nil
}

func validateClasses(classes []string) error {
	if len(classes) == 0 {
		return invalidArgument("classes must be specified")
	}
	for i, class := range classes {
		if class == "" {
			return invalidArgument("class at index %d must not be empty", i)
		}
		if err := classpath.ValidateClassName(class); err != nil {
			return invalidArgument("%s", err)
		}
	}
	return nil
}

func validatePackages(pkgs []string) error {
	if len(pkgs) == 0 {
		return invalidArgument("packages must be specified")
	}
	for i, pkg := range pkgs {
		if pkg == "" {
			return invalidArgument("package at index %d must not be empty", i)
		}
		if err := classpath.ValidatePackageName(pkg); err != nil {
			return invalidArgument("%s", err)
		}
	}
	return nil
}

func validateArchives(what string, libs []*archive.Archive) error {
	if len(libs) == 0 {
		return invalidArgument("%s must be specified", what)
	}
	for i, lib := range libs {
		if lib == nil {
			return invalidArgument("%s: archive at index %d must not be nil", what, i)
		}
	}
	return nil
}
