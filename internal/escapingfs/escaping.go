// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package escapingfs answers whether filesystem paths produced while
// exploding an archive stay inside the destination directory.
package escapingfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TargetWithinRoot reports whether target, once cleaned, is root itself or
// lies somewhere beneath it. Both paths must be of the same kind: either
// both absolute or both relative to the same directory.
func TargetWithinRoot(root string, target string) (bool, error) {
	if len(target) == 0 || len(root) == 0 {
		return false, nil
	}

	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return false, fmt.Errorf("couldn't find relative path: %w", err)
	}

	for _, component := range strings.Split(filepath.Clean(rel), string(os.PathSeparator)) {
		if component == ".." {
			return false, nil
		}
	}
	return true, nil
}

// LinkTargetWithinRoot reports whether a symlink placed at linkPath and
// pointing at linkTarget would resolve to somewhere inside root. Relative
// link targets are interpreted from the directory containing the link.
//
// Symlinks that already exist on disk are followed while resolving, both
// in the link's own directory and in the target, so that a chain of links
// such as "d -> ." and "a -> d/../x" cannot climb out of root. Components
// that do not exist yet are resolved lexically.
func LinkTargetWithinRoot(root, linkPath, linkTarget string) (bool, error) {
	realRoot, err := resolvePath(root)
	if err != nil {
		return false, err
	}
	dir, err := resolvePath(filepath.Dir(linkPath))
	if err != nil {
		return false, err
	}
	resolved, err := resolveFrom(dir, linkTarget, 0)
	if err != nil {
		return false, err
	}
	return TargetWithinRoot(realRoot, resolved)
}

// maxLinkHops matches the limit most kernels put on nested symlinks.
const maxLinkHops = 255

// resolvePath returns the absolute form of p with every existing symlink
// along it followed.
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("couldn't resolve %q: %w", p, err)
	}
	return resolveFrom("", abs, 0)
}

// resolveFrom interprets target relative to the already resolved directory
// dir, following existing symlinks one component at a time.
func resolveFrom(dir, target string, hops int) (string, error) {
	cur := dir
	if filepath.IsAbs(target) {
		vol := filepath.VolumeName(target)
		cur = vol + string(os.PathSeparator)
		target = target[len(vol):]
	}

	for _, part := range strings.Split(filepath.ToSlash(target), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			continue
		}

		next := filepath.Join(cur, part)
		fi, err := os.Lstat(next)
		if errors.Is(err, fs.ErrNotExist) {
			cur = next
			continue
		}
		if err != nil {
			return "", fmt.Errorf("couldn't evaluate %q: %w", next, err)
		}
		if fi.Mode()&fs.ModeSymlink == 0 {
			cur = next
			continue
		}

		if hops >= maxLinkHops {
			return "", fmt.Errorf("too many levels of symbolic links at %q", next)
		}
		link, err := os.Readlink(next)
		if err != nil {
			return "", fmt.Errorf("couldn't read symlink %q: %w", next, err)
		}
		cur, err = resolveFrom(cur, link, hops+1)
		if err != nil {
			return "", err
		}
	}
	return cur, nil
}
