// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/hashicorp/go-bootjar/internal/copyutil"
	"github.com/hashicorp/go-bootjar/internal/escapingfs"
	"github.com/hashicorp/go-bootjar/internal/unpackinfo"
)

// Explode extracts the ZIP file read from src into the directory dst,
// creating it if necessary.
//
// Entries whose names would place them outside of dst, either by
// traversing upwards or by passing through a symlink, are rejected. So are
// entries that land on a symlink written by an earlier entry, and symlinks
// that point outside of dst once the links already extracted are followed.
// Permissions and modification times
// recorded in the archive are restored once everything has been written.
func Explode(src io.ReaderAt, size int64, dst string) error {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Directory timestamps change whenever something is written inside of
	// them, so they are restored last, deepest first.
	var dirs []unpackinfo.UnpackInfo

	for _, f := range zr.File {
		info, err := unpackinfo.NewUnpackInfo(dst, &f.FileHeader)
		if err != nil {
			return err
		}

		if info.IsDirectory() {
			if err := os.MkdirAll(info.Path, 0755); err != nil {
				return fmt.Errorf("failed creating directory %q: %w", f.Name, err)
			}
			dirs = append(dirs, info)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(info.Path), 0755); err != nil {
			return fmt.Errorf("failed creating parent of %q: %w", f.Name, err)
		}

		switch {
		case info.IsSymlink():
			err = explodeSymlink(dst, f, info)
		case info.IsRegular():
			err = explodeFile(f, info)
		default:
			err = fmt.Errorf("failed creating %q: unexpected file mode %s", f.Name, info.Mode)
		}
		if err != nil {
			return err
		}

		if err := info.RestoreInfo(); err != nil {
			return err
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		if err := dirs[i].RestoreInfo(); err != nil {
			return err
		}
	}
	return nil
}

// ExplodeFile is like [Explode] for a ZIP file on the local filesystem.
func ExplodeFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	return Explode(f, fi.Size(), dst)
}

func explodeFile(f *zip.File, info unpackinfo.UnpackInfo) (err error) {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(info.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode.Perm())
	if err != nil {
		return fmt.Errorf("failed creating file %q: %w", f.Name, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file %q: %w", f.Name, cerr)
		}
	}()

	// The declared size bounds the copy, so an entry cannot inflate to
	// more than its header admits.
	if err := copyutil.CopyWithLimit(out, rc, int64(f.UncompressedSize64)); err != nil {
		return fmt.Errorf("failed to copy %q: %w", f.Name, err)
	}
	return nil
}

// maxLinkTarget bounds the content of a symlink entry.
const maxLinkTarget = 4096

func explodeSymlink(dst string, f *zip.File, info unpackinfo.UnpackInfo) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", f.Name, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if err := copyutil.CopyWithLimit(&buf, rc, maxLinkTarget); err != nil {
		return fmt.Errorf("failed to read symlink target of %q: %w", f.Name, err)
	}
	target := buf.String()

	root, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	within, err := escapingfs.LinkTargetWithinRoot(root, info.Path, target)
	if err != nil {
		return err
	}
	if !within {
		return fmt.Errorf("invalid symlink (%q -> %q) has external target", f.Name, target)
	}

	// Replace whatever an earlier entry of the same name left behind.
	if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %q: %w", f.Name, err)
	}
	if err := os.Symlink(target, info.Path); err != nil {
		return fmt.Errorf("failed creating symlink (%q -> %q): %w", f.Name, target, err)
	}
	return nil
}
