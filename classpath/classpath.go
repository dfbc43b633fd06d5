// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package classpath translates Java class, package and resource names into
// the slash-separated paths they occupy inside a class path, and finds the
// class files that make up a class or a package in an [fs.FS] standing in
// for a class loader.
package classpath

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// ClassSuffix is the file name extension of compiled classes.
const ClassSuffix = ".class"

// ErrInvalidName is returned for class and package names that cannot be
// turned into class path locations.
var ErrInvalidName = errors.New("invalid name")

// ValidateClassName checks that the given string is a plausible fully
// qualified class name, such as "com.acme.App" or "com.acme.App$Inner".
func ValidateClassName(class string) error {
	if class == "" {
		return fmt.Errorf("%w: class name must not be empty", ErrInvalidName)
	}
	return validateDotted(class)
}

// ValidatePackageName checks that the given string is a plausible package
// name. The empty string names the default package and is valid.
func ValidatePackageName(pkg string) error {
	if pkg == "" {
		return nil
	}
	return validateDotted(pkg)
}

func validateDotted(name string) error {
	if strings.ContainsAny(name, `/\ `) {
		return fmt.Errorf("%w: %q must use dots as separators", ErrInvalidName, name)
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidName, name)
		}
	}
	return nil
}

// ClassFile returns the class path location of the compiled form of the
// given class: "com.acme.App" is "com/acme/App.class".
func ClassFile(class string) (string, error) {
	if err := ValidateClassName(class); err != nil {
		return "", err
	}
	return strings.ReplaceAll(class, ".", "/") + ClassSuffix, nil
}

// PackageDir returns the class path directory of the given package:
// "com.acme" is "com/acme". The default package is the root, ".".
func PackageDir(pkg string) string {
	if pkg == "" {
		return "."
	}
	return strings.ReplaceAll(pkg, ".", "/")
}

// ResourceName returns the class loader name of a resource that lives in
// the given package, for example "com/acme/application.yml".
func ResourceName(pkg, name string) string {
	name = strings.TrimLeft(name, "/")
	if pkg == "" {
		return name
	}
	return PackageDir(pkg) + "/" + name
}

// BaseName returns the last element of a slash-separated resource name.
func BaseName(resource string) string {
	resource = strings.TrimRight(resource, "/")
	if i := strings.LastIndex(resource, "/"); i >= 0 {
		return resource[i+1:]
	}
	return resource
}

// ClassFiles returns the class path locations of the compiled class and of
// every class nested in it ("App$Inner.class", "App$1.class"), in lexical
// order. It fails with an error wrapping [fs.ErrNotExist] if the class
// itself cannot be found.
func ClassFiles(fsys fs.FS, class string) ([]string, error) {
	file, err := ClassFile(class)
	if err != nil {
		return nil, err
	}
	if _, err := fs.Stat(fsys, file); err != nil {
		return nil, fmt.Errorf("class %s not found: %w", class, err)
	}

	dir, base := path.Split(file)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}
	nestedPrefix := strings.TrimSuffix(base, ClassSuffix) + "$"

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	ret := []string{file}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, nestedPrefix) || !strings.HasSuffix(name, ClassSuffix) {
			continue
		}
		ret = append(ret, path.Join(dir, name))
	}
	sort.Strings(ret)
	return ret, nil
}

// PackageClassFiles returns the class path locations of the class files in
// the given package, and in all of its sub-packages if recursive is true, in
// lexical order. A package that does not exist has no class files.
func PackageClassFiles(fsys fs.FS, pkg string, recursive bool) ([]string, error) {
	if err := ValidatePackageName(pkg); err != nil {
		return nil, err
	}
	root := PackageDir(pkg)

	var ret []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if p != root && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(p, ClassSuffix) {
			ret = append(ret, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ret)
	return ret, nil
}
