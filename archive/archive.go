// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package archive is a small in-memory model of a JAR-like archive: a tree
// of absolute, slash-separated paths bound to [Asset] values, which can be
// assembled incrementally and then exported as a ZIP file.
//
// An [Archive] can hand out any number of [View] values, each of which is
// scoped to a directory of the archive. Views never copy: all of them share
// the archive's single backing tree.
package archive

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// Archive is a named tree of file assets and directories.
//
// All methods are safe to call concurrently, but Archive is designed for
// the single-threaded builder use case: the one lock inside it serializes
// every mutation of the tree, including mutations made through views.
type Archive struct {
	name string

	mu sync.RWMutex

	// files maps the absolute path of each file to its content.
	files map[string]Asset

	// dirs is the set of directories that were added explicitly. Parents of
	// files are implied and need not be recorded here.
	dirs map[string]struct{}
}

// New returns an empty archive with the given name. The name is used as the
// file name of the archive when it is nested in another one, for example
// "spring-web.jar".
func New(name string) *Archive {
	return &Archive{
		name:  name,
		files: make(map[string]Asset),
		dirs:  make(map[string]struct{}),
	}
}

// Name returns the name the archive was created with.
func (a *Archive) Name() string {
	return a.name
}

// String returns a short description of the archive, suitable for logs.
func (a *Archive) String() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return fmt.Sprintf("%s (%d files)", a.name, len(a.files))
}

// View returns a handle on the archive scoped to the given directory.
// Paths passed to the view's methods are relative to that directory.
func (a *Archive) View(root string) (*View, error) {
	p, err := normalizePath(root)
	if err != nil {
		return nil, err
	}
	return &View{archive: a, root: p}, nil
}

func (a *Archive) rootView() *View {
	return &View{archive: a, root: RootPath}
}

// Add binds asset to the given path, replacing whatever asset was there.
func (a *Archive) Add(asset Asset, p string) error {
	return a.rootView().Add(asset, p)
}

// AddEmptyDir records an explicit, possibly empty, directory.
func (a *Archive) AddEmptyDir(p string) error {
	return a.rootView().AddEmptyDir(p)
}

// Get returns the asset stored at the given file path.
func (a *Archive) Get(p string) (Asset, bool) {
	return a.rootView().Get(p)
}

// Contains reports whether the given path names a file or a directory in
// the archive.
func (a *Archive) Contains(p string) bool {
	return a.rootView().Contains(p)
}

// IsDir reports whether the given path names a directory in the archive,
// either explicit or implied by the files beneath it.
func (a *Archive) IsDir(p string) bool {
	return a.rootView().IsDir(p)
}

// Delete removes the file or the explicit empty directory at the given
// path, reporting whether anything was removed.
func (a *Archive) Delete(p string) bool {
	return a.rootView().Delete(p)
}

// DeleteTree removes the given path and everything beneath it, returning
// the number of files removed.
func (a *Archive) DeleteTree(p string) int {
	return a.rootView().DeleteTree(p)
}

// List returns the absolute paths of the immediate children of the given
// directory, in lexical order.
func (a *Archive) List(dir string) []string {
	return a.rootView().List(dir)
}

// Paths returns the absolute paths of every file in the archive, in lexical
// order.
func (a *Archive) Paths() []string {
	return a.rootView().Paths()
}

// Dirs returns the absolute paths of every directory in the archive,
// including the implied parents of files, in lexical order. The root
// directory is not included.
func (a *Archive) Dirs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dirsLocked()
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files)
}

// Merge copies every file and explicit directory of src that the filter
// accepts into the same paths of this archive. A nil filter accepts
// everything.
func (a *Archive) Merge(src *Archive, filter Filter) error {
	return a.rootView().Merge(src, filter)
}

// MergeAt is like [Archive.Merge] but places the merged entries beneath
// the given directory.
func (a *Archive) MergeAt(src *Archive, dir string, filter Filter) error {
	v, err := a.View(dir)
	if err != nil {
		return err
	}
	return v.Merge(src, filter)
}

// snapshot returns a consistent copy of the archive's bindings, so that
// the caller can read them without holding the lock.
func (a *Archive) snapshot() (map[string]Asset, []string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	files := make(map[string]Asset, len(a.files))
	for p, asset := range a.files {
		files[p] = asset
	}
	dirs := make([]string, 0, len(a.dirs))
	for d := range a.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return files, dirs
}

// exportSnapshot is like snapshot but returns every directory, including
// the implied parents of files, read under the same lock as the files.
func (a *Archive) exportSnapshot() (map[string]Asset, []string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	files := make(map[string]Asset, len(a.files))
	for p, asset := range a.files {
		files[p] = asset
	}
	return files, a.dirsLocked()
}

func (a *Archive) dirsLocked() []string {
	set := make(map[string]struct{}, len(a.dirs))
	for d := range a.dirs {
		set[d] = struct{}{}
		for _, parent := range parentDirs(d) {
			set[parent] = struct{}{}
		}
	}
	for p := range a.files {
		for _, parent := range parentDirs(p) {
			set[parent] = struct{}{}
		}
	}
	ret := make([]string, 0, len(set))
	for d := range set {
		ret = append(ret, d)
	}
	sort.Strings(ret)
	return ret
}

// isDirLocked reports whether p is an explicit directory or the parent of
// some file. The caller must hold at least a read lock.
func (a *Archive) isDirLocked(p string) bool {
	if p == RootPath {
		return true
	}
	if _, ok := a.dirs[p]; ok {
		return true
	}
	prefix := p + "/"
	for f := range a.files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	for d := range a.dirs {
		if strings.HasPrefix(d, prefix) {
			return true
		}
	}
	return false
}

// putLocked binds asset to the absolute path p. The caller must hold the
// write lock.
func (a *Archive) putLocked(asset Asset, p string) error {
	if p == RootPath {
		return fmt.Errorf("cannot add a file at the archive root")
	}
	for _, parent := range parentDirs(p) {
		if _, isFile := a.files[parent]; isFile {
			return fmt.Errorf("cannot add %s: %s is a file", p, parent)
		}
	}
	if _, isFile := a.files[p]; !isFile && a.isDirLocked(p) {
		return fmt.Errorf("cannot add %s: it is a directory", p)
	}
	a.files[p] = asset
	delete(a.dirs, p)
	// An explicit directory that now has content is implied by that
	// content, so there is no need to keep recording it.
	for _, parent := range parentDirs(p) {
		delete(a.dirs, parent)
	}
	return nil
}

func (a *Archive) listLocked(dir string) []string {
	seen := make(map[string]struct{})
	child := func(p string) {
		if !isWithin(p, dir) || p == dir {
			return
		}
		rest := strings.TrimPrefix(p, dir)
		rest = strings.TrimPrefix(rest, "/")
		first, _, _ := strings.Cut(rest, "/")
		seen[path.Join(dir, first)] = struct{}{}
	}
	for p := range a.files {
		child(p)
	}
	for d := range a.dirs {
		child(d)
	}
	ret := make([]string, 0, len(seen))
	for p := range seen {
		ret = append(ret, p)
	}
	sort.Strings(ret)
	return ret
}
