// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"path"
	"strings"
)

// RootPath is the path of the root directory of every archive.
const RootPath = "/"

// normalizePath interprets the given string as a path inside an archive and
// returns its canonical absolute form, such as "/BOOT-INF/lib".
//
// Archive paths always use forward slashes. Leading slashes are optional on
// input and the empty string refers to the root directory. A path that uses
// ".." segments to climb above the root is rejected, since nothing can live
// outside of an archive.
func normalizePath(given string) (string, error) {
	p := strings.ReplaceAll(given, `\`, "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return RootPath, nil
	}

	clean := path.Clean(p)
	if clean == "." {
		return RootPath, nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q traverses above the archive root", given)
	}
	return "/" + clean, nil
}

// Join combines the given path elements into a single absolute archive
// path. It never fails: upward traversals that would climb above the root
// stop at the root, so callers that accept untrusted relative paths should
// use [Resolve] instead.
func Join(elems ...string) string {
	return path.Clean("/" + path.Join(elems...))
}

// Resolve interprets rel as a path relative to the archive directory root
// and returns the resulting absolute archive path, or an error if rel
// would traverse above root.
func Resolve(root, rel string) (string, error) {
	base, err := normalizePath(root)
	if err != nil {
		return "", err
	}
	sub, err := normalizePath(rel)
	if err != nil {
		return "", err
	}
	return Join(base, sub), nil
}

// isWithin reports whether p is dir itself or lives somewhere beneath it.
func isWithin(p, dir string) bool {
	if dir == RootPath {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// parentDirs returns every ancestor directory of p, excluding the root,
// ordered from the outermost inwards.
func parentDirs(p string) []string {
	var ret []string
	for dir := path.Dir(p); dir != RootPath && dir != "."; dir = path.Dir(dir) {
		ret = append(ret, dir)
	}
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret
}

// entryName converts an absolute archive path into the relative name used
// for the corresponding ZIP entry. Directory entries get a trailing slash.
func entryName(p string, dir bool) string {
	name := strings.TrimPrefix(p, "/")
	if dir {
		name += "/"
	}
	return name
}
