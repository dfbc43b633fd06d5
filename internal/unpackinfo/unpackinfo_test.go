// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package unpackinfo

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
)

func header(name string, mode fs.FileMode) *zip.FileHeader {
	hdr := &zip.FileHeader{
		Name:     name,
		Modified: time.Date(2020, time.March, 4, 5, 6, 7, 0, time.UTC),
	}
	hdr.SetMode(mode)
	return hdr
}

func TestNewUnpackInfo(t *testing.T) {
	t.Run("disallow parent dir traversal", func(t *testing.T) {
		_, err := NewUnpackInfo("test", header("../test/some/path", 0644))
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		expected := "invalid filename, traversal with \"..\""
		if !strings.Contains(err.Error(), expected) {
			t.Fatalf("expected error to contain %q, got %q", expected, err)
		}
	})

	t.Run("disallow empty names", func(t *testing.T) {
		_, err := NewUnpackInfo("test", header("", 0644))
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("absolute names stay within the destination", func(t *testing.T) {
		dst := t.TempDir()
		result, err := NewUnpackInfo(dst, header("/BOOT-INF/classes/app.properties", 0644))
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		want := filepath.Join(dst, "BOOT-INF", "classes", "app.properties")
		if result.Path != want {
			t.Fatalf("wrong path\ngot:  %s\nwant: %s", result.Path, want)
		}
	})

	t.Run("disallow writing through symlinks", func(t *testing.T) {
		dst := t.TempDir()
		outside := t.TempDir()
		if err := os.Symlink(outside, filepath.Join(dst, "lib")); err != nil {
			t.Fatalf("failed to create symlink: %s", err)
		}

		_, err := NewUnpackInfo(dst, header("lib/evil.jar", 0644))
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		expected := "through symlink"
		if !strings.Contains(err.Error(), expected) {
			t.Fatalf("expected error to contain %q, got %q", expected, err)
		}
	})

	t.Run("disallow writing onto an existing symlink", func(t *testing.T) {
		dst := t.TempDir()
		if err := os.Symlink(filepath.Join("..", "escaped.txt"), filepath.Join(dst, "a")); err != nil {
			t.Fatalf("failed to create symlink: %s", err)
		}

		for _, mode := range []fs.FileMode{0644, 0755, fs.ModeDir | 0755} {
			_, err := NewUnpackInfo(dst, header("a", mode))
			if err == nil {
				t.Fatalf("mode %s: expected error, got nil", mode)
			}
			if !strings.Contains(err.Error(), "through symlink") {
				t.Fatalf("mode %s: expected a symlink error, got %q", mode, err)
			}
		}

		// A symlink entry replaces the existing link.
		if _, err := NewUnpackInfo(dst, header("a", fs.ModeSymlink|0777)); err != nil {
			t.Fatalf("unexpected error replacing a symlink: %s", err)
		}
	})

	t.Run("disallow unsupported file types", func(t *testing.T) {
		_, err := NewUnpackInfo(t.TempDir(), header("fifo", fs.ModeNamedPipe|0644))
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		expected := "unsupported file type"
		if !strings.Contains(err.Error(), expected) {
			t.Fatalf("expected error to contain %q, got %q", expected, err)
		}
	})

	t.Run("directory entries", func(t *testing.T) {
		dst := t.TempDir()
		result, err := NewUnpackInfo(dst, header("META-INF/", fs.ModeDir|0755))
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !result.IsDirectory() {
			t.Fatalf("expected a directory, got mode %s", result.Mode)
		}
		if result.IsRegular() || result.IsSymlink() {
			t.Fatalf("directory classified as another kind: %s", result.Mode)
		}
	})
}

func TestUnpackInfo_RestoreInfo(t *testing.T) {
	root := t.TempDir()

	exampleAccessTime := time.Date(2023, time.April, 1, 11, 22, 33, 0, time.UTC)
	exampleModTime := time.Date(2023, time.May, 29, 11, 22, 33, 0, time.UTC)

	dirPath := filepath.Join(root, "dir")
	filePath := filepath.Join(root, "file")
	symlinkPath := filepath.Join(root, "symlink")

	if err := os.Mkdir(dirPath, 0700); err != nil {
		t.Fatalf("failed to create directory: %s", err)
	}
	if err := os.WriteFile(filePath, []byte("Hello, World!"), 0600); err != nil {
		t.Fatalf("failed to create file: %s", err)
	}
	if err := os.Symlink(filePath, symlinkPath); err != nil {
		t.Fatalf("failed to create symlink: %s", err)
	}

	dirInfo := UnpackInfo{
		Path:               dirPath,
		OriginalAccessTime: exampleAccessTime,
		OriginalModTime:    exampleModTime,
		Mode:               Dir,
	}
	fileInfo := UnpackInfo{
		Path:               filePath,
		OriginalAccessTime: exampleAccessTime,
		OriginalModTime:    exampleModTime,
		Mode:               Executable,
	}
	symlinkInfo := UnpackInfo{
		Path:               symlinkPath,
		OriginalAccessTime: exampleAccessTime,
		OriginalModTime:    exampleModTime,
		Mode:               Symlink,
	}

	for _, info := range []UnpackInfo{dirInfo, fileInfo, symlinkInfo} {
		if err := info.RestoreInfo(); err != nil {
			t.Fatalf("failed to restore %s: %s", info.Path, err)
		}
	}

	dirStat, err := os.Stat(dirPath)
	if err != nil {
		t.Fatalf("failed to stat directory: %s", err)
	}
	if got, want := dirStat.Mode().Perm(), fs.FileMode(0755); got != want {
		t.Errorf("wrong directory permissions\ngot:  %s\nwant: %s", got, want)
	}
	if !dirStat.ModTime().Equal(exampleModTime) {
		t.Errorf("wrong directory mod time\ngot:  %s\nwant: %s", dirStat.ModTime(), exampleModTime)
	}

	fileStat, err := os.Stat(filePath)
	if err != nil {
		t.Fatalf("failed to stat file: %s", err)
	}
	if got, want := fileStat.Mode().Perm(), fs.FileMode(0755); got != want {
		t.Errorf("wrong file permissions\ngot:  %s\nwant: %s", got, want)
	}
	if !fileStat.ModTime().Equal(exampleModTime) {
		t.Errorf("wrong file mod time\ngot:  %s\nwant: %s", fileStat.ModTime(), exampleModTime)
	}

	if CanMaintainSymlinkTimestamps() {
		linkStat, err := os.Lstat(symlinkPath)
		if err != nil {
			t.Fatalf("failed to stat symlink: %s", err)
		}
		if !linkStat.ModTime().Truncate(time.Second).Equal(exampleModTime) {
			t.Errorf("wrong symlink mod time\ngot:  %s\nwant: %s", linkStat.ModTime(), exampleModTime)
		}
	}
}
