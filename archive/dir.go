// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-bootjar/internal/escapingfs"
	"github.com/hashicorp/go-bootjar/internal/ignorefiles"
)

// AddDir adds every file and directory found beneath the local directory
// dir to the archive, beneath the archive directory prefix.
//
// A ".bootignore" file at the root of dir selects what to leave out, with
// the usual .gitignore-like syntax. Without one, version control metadata
// and editor droppings are skipped. The ignore file itself is never added.
//
// Symlinks are followed as long as they point at a regular file inside of
// dir; any other symlink is skipped. File content is read lazily, when the
// archive is exported.
func (a *Archive) AddDir(dir, prefix string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	rules, err := ignorefiles.LoadPackageIgnoreRules(root)
	if err != nil {
		return err
	}

	view, err := a.View(prefix)
	if err != nil {
		return err
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == ignorefiles.IgnoreFileName {
			return nil
		}

		matchPath := rel
		if d.IsDir() {
			matchPath += "/"
		}
		result, err := rules.Excludes(matchPath)
		if err != nil {
			return err
		}
		if result.Excluded {
			if d.IsDir() && result.Dominating {
				return filepath.SkipDir
			}
			// Something beneath an excluded directory may still be
			// re-included by a later negated rule, so keep walking.
			return nil
		}

		switch {
		case d.IsDir():
			return view.AddEmptyDir(rel)
		case d.Type()&fs.ModeSymlink != 0:
			return addSymlinkedFile(view, root, p, rel)
		case d.Type().IsRegular():
			return view.Add(File(p), rel)
		}
		return nil
	})
}

func addSymlinkedFile(view *View, root, p, rel string) error {
	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		// Dangling links have nothing to contribute.
		return nil
	}
	within, err := escapingfs.TargetWithinRoot(root, target)
	if err != nil || !within {
		return err
	}
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return view.Add(File(target), rel)
}
