// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"sort"
)

// Filter decides whether the entry at the given absolute archive path
// takes part in an operation.
type Filter func(path string) bool

// IncludeAll is a [Filter] that accepts every path.
func IncludeAll(string) bool { return true }

// ExcludePrefix returns a [Filter] that rejects the given directory and
// everything beneath it.
func ExcludePrefix(dir string) Filter {
	dir = Join(dir)
	return func(p string) bool {
		return !isWithin(p, dir)
	}
}

// View is a handle on an [Archive] that is scoped to one of its
// directories. All paths given to a view are resolved relative to its root
// and all paths it returns are absolute archive paths.
//
// A view is a projection rather than a copy: changes made through a view
// are immediately visible through the archive and through every other
// view of it.
type View struct {
	archive *Archive
	root    string
}

// Root returns the absolute archive path of the view's root directory.
func (v *View) Root() string {
	return v.root
}

// Archive returns the archive the view projects.
func (v *View) Archive() *Archive {
	return v.archive
}

// Resolve returns the absolute archive path for a path relative to the
// view's root.
func (v *View) Resolve(rel string) (string, error) {
	return Resolve(v.root, rel)
}

// Add binds asset to the given path, replacing whatever asset was there.
func (v *View) Add(asset Asset, rel string) error {
	if asset == nil {
		return fmt.Errorf("asset must not be nil")
	}
	p, err := v.Resolve(rel)
	if err != nil {
		return err
	}

	v.archive.mu.Lock()
	defer v.archive.mu.Unlock()
	return v.archive.putLocked(asset, p)
}

// AddEmptyDir records an explicit directory, which will be exported even if
// no file is ever placed in it.
func (v *View) AddEmptyDir(rel string) error {
	p, err := v.Resolve(rel)
	if err != nil {
		return err
	}
	if p == RootPath {
		return nil
	}

	v.archive.mu.Lock()
	defer v.archive.mu.Unlock()
	if _, isFile := v.archive.files[p]; isFile {
		return fmt.Errorf("cannot add directory %s: it is a file", p)
	}
	for _, parent := range parentDirs(p) {
		if _, isFile := v.archive.files[parent]; isFile {
			return fmt.Errorf("cannot add directory %s: %s is a file", p, parent)
		}
	}
	if !v.archive.isDirLocked(p) {
		v.archive.dirs[p] = struct{}{}
	}
	return nil
}

// Get returns the asset stored at the given file path.
func (v *View) Get(rel string) (Asset, bool) {
	p, err := v.Resolve(rel)
	if err != nil {
		return nil, false
	}

	v.archive.mu.RLock()
	defer v.archive.mu.RUnlock()
	asset, ok := v.archive.files[p]
	return asset, ok
}

// Contains reports whether the given path names a file or a directory.
func (v *View) Contains(rel string) bool {
	p, err := v.Resolve(rel)
	if err != nil {
		return false
	}

	v.archive.mu.RLock()
	defer v.archive.mu.RUnlock()
	if _, ok := v.archive.files[p]; ok {
		return true
	}
	return v.archive.isDirLocked(p)
}

// IsDir reports whether the given path names a directory.
func (v *View) IsDir(rel string) bool {
	p, err := v.Resolve(rel)
	if err != nil {
		return false
	}

	v.archive.mu.RLock()
	defer v.archive.mu.RUnlock()
	return v.archive.isDirLocked(p)
}

// Delete removes the file or the explicit empty directory at the given
// path, reporting whether anything was removed. Directories that still
// have content are left alone; use [View.DeleteTree] for those.
func (v *View) Delete(rel string) bool {
	p, err := v.Resolve(rel)
	if err != nil {
		return false
	}

	v.archive.mu.Lock()
	defer v.archive.mu.Unlock()
	if _, ok := v.archive.files[p]; ok {
		delete(v.archive.files, p)
		return true
	}
	if _, ok := v.archive.dirs[p]; ok {
		delete(v.archive.dirs, p)
		return true
	}
	return false
}

// DeleteTree removes the given path and everything beneath it, returning
// the number of files removed.
func (v *View) DeleteTree(rel string) int {
	p, err := v.Resolve(rel)
	if err != nil {
		return 0
	}

	v.archive.mu.Lock()
	defer v.archive.mu.Unlock()
	n := 0
	for f := range v.archive.files {
		if isWithin(f, p) {
			delete(v.archive.files, f)
			n++
		}
	}
	for d := range v.archive.dirs {
		if isWithin(d, p) {
			delete(v.archive.dirs, d)
		}
	}
	return n
}

// DeleteMatching removes every file beneath the given directory for which
// match returns true, returning the removed paths in lexical order.
func (v *View) DeleteMatching(rel string, match Filter) []string {
	dir, err := v.Resolve(rel)
	if err != nil {
		return nil
	}

	v.archive.mu.Lock()
	defer v.archive.mu.Unlock()
	var removed []string
	for f := range v.archive.files {
		if isWithin(f, dir) && f != dir && match(f) {
			delete(v.archive.files, f)
			removed = append(removed, f)
		}
	}
	sort.Strings(removed)
	return removed
}

// List returns the absolute paths of the immediate children of the given
// directory, in lexical order.
func (v *View) List(rel string) []string {
	dir, err := v.Resolve(rel)
	if err != nil {
		return nil
	}

	v.archive.mu.RLock()
	defer v.archive.mu.RUnlock()
	return v.archive.listLocked(dir)
}

// Paths returns the absolute paths of every file beneath the view's root,
// in lexical order.
func (v *View) Paths() []string {
	v.archive.mu.RLock()
	defer v.archive.mu.RUnlock()
	var ret []string
	for p := range v.archive.files {
		if isWithin(p, v.root) {
			ret = append(ret, p)
		}
	}
	sort.Strings(ret)
	return ret
}

// Merge copies every file and explicit directory of src that the filter
// accepts into this view, keeping each entry's path relative to the root of
// src. The filter sees paths as they are in src. A nil filter accepts
// everything.
//
// Assets are shared rather than copied, so merging is cheap even for large
// libraries.
func (v *View) Merge(src *Archive, filter Filter) error {
	if src == nil {
		return fmt.Errorf("source archive must not be nil")
	}
	if filter == nil {
		filter = IncludeAll
	}

	// Take the snapshot first so that merging an archive into a view of
	// itself cannot deadlock.
	files, dirs := src.snapshot()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	v.archive.mu.Lock()
	defer v.archive.mu.Unlock()
	for _, p := range paths {
		if !filter(p) {
			continue
		}
		if err := v.archive.putLocked(files[p], Join(v.root, p)); err != nil {
			return fmt.Errorf("failed to merge %s from %s: %w", p, src.Name(), err)
		}
	}
	for _, d := range dirs {
		if !filter(d) {
			continue
		}
		target := Join(v.root, d)
		if _, isFile := v.archive.files[target]; isFile {
			return fmt.Errorf("failed to merge directory %s from %s: it is a file", d, src.Name())
		}
		if !v.archive.isDirLocked(target) {
			v.archive.dirs[target] = struct{}{}
		}
	}
	return nil
}
