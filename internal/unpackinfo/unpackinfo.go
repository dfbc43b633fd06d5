// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package unpackinfo describes where and how a single archive entry is
// written while exploding an archive into a directory.
package unpackinfo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/hashicorp/go-bootjar/internal/escapingfs"
)

// UnpackInfo stores the information needed to place an entry on disk and
// to restore its metadata once everything has been written.
type UnpackInfo struct {
	// Path is the absolute destination path of the entry.
	Path string

	OriginalAccessTime time.Time
	OriginalModTime    time.Time
	Mode               FileMode
}

// NewUnpackInfo validates the given entry header against the destination
// directory dst and returns where the entry must be written.
//
// Entries with absolute names are made relative to dst. An entry whose name
// climbs out of dst, or whose destination would be reached through a
// symlink that already exists beneath dst, is rejected. So is a file or
// directory entry whose own path is already taken by a symlink.
func NewUnpackInfo(dst string, header *zip.FileHeader) (UnpackInfo, error) {
	if header.Name == "" {
		return UnpackInfo{}, errors.New("invalid filename, entry name is empty")
	}

	root, err := filepath.Abs(dst)
	if err != nil {
		return UnpackInfo{}, fmt.Errorf("cannot resolve destination directory: %w", err)
	}

	name := strings.TrimLeft(filepath.FromSlash(header.Name), string(os.PathSeparator))
	target := filepath.Join(root, name)

	within, err := escapingfs.TargetWithinRoot(root, target)
	if err != nil {
		return UnpackInfo{}, err
	}
	if !within {
		return UnpackInfo{}, fmt.Errorf("invalid filename, traversal with \"..\" outside of current directory: %s", header.Name)
	}

	// Walk the intermediate directories that already exist. Writing
	// through a symlink placed by an earlier entry would let a crafted
	// archive reach outside of the destination.
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return UnpackInfo{}, err
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	for i := 1; i < len(parts); i++ {
		parent := filepath.Join(append([]string{root}, parts[:i]...)...)
		fi, err := os.Lstat(parent)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return UnpackInfo{}, fmt.Errorf("failed to evaluate path %q: %w", header.Name, err)
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return UnpackInfo{}, fmt.Errorf("cannot extract %q through symlink", header.Name)
		}
	}

	mode, err := NewFileMode(header.Mode())
	if err != nil {
		return UnpackInfo{}, fmt.Errorf("failed creating %q: unsupported file type: %w", header.Name, err)
	}

	// A symlink left at the destination by an earlier entry would be
	// followed when a file or directory is written there. A symlink entry
	// replaces it instead.
	if mode != Symlink {
		fi, err := os.Lstat(target)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return UnpackInfo{}, fmt.Errorf("failed to evaluate path %q: %w", header.Name, err)
		}
		if err == nil && fi.Mode()&fs.ModeSymlink != 0 {
			return UnpackInfo{}, fmt.Errorf("cannot extract %q through symlink", header.Name)
		}
	}

	modTime := header.Modified
	if modTime.IsZero() {
		modTime = header.ModTime()
	}

	return UnpackInfo{
		Path:               target,
		OriginalAccessTime: modTime,
		OriginalModTime:    modTime,
		Mode:               mode,
	}, nil
}

func (i UnpackInfo) IsDirectory() bool {
	return i.Mode == Dir
}

func (i UnpackInfo) IsSymlink() bool {
	return i.Mode == Symlink
}

func (i UnpackInfo) IsRegular() bool {
	return i.Mode == Regular || i.Mode == Executable
}

// RestoreInfo applies the entry's permissions and timestamps to the file
// that was written for it.
func (i UnpackInfo) RestoreInfo() error {
	if i.IsSymlink() {
		if CanMaintainSymlinkTimestamps() {
			return i.Lchtimes()
		}
		return nil
	}

	if err := os.Chmod(i.Path, i.Mode.Perm()); err != nil {
		return fmt.Errorf("failed setting permissions on %q: %w", i.Path, err)
	}
	if err := os.Chtimes(i.Path, i.OriginalAccessTime, i.OriginalModTime); err != nil {
		return fmt.Errorf("failed changing file times on %q: %w", i.Path, err)
	}
	return nil
}
