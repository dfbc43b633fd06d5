// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ManifestPath is where JAR tooling expects to find the archive manifest.
const ManifestPath = "/META-INF/MANIFEST.MF"

// DefaultModTime is the modification time recorded for every entry of an
// exported archive unless overridden with [WithModTime]. A fixed time makes
// the output reproducible.
var DefaultModTime = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

// ExportOption configures [Archive.WriteZip].
type ExportOption func(*exportConfig)

type exportConfig struct {
	modTime time.Time
}

// WithModTime sets the modification time recorded for every entry.
func WithModTime(t time.Time) ExportOption {
	return func(c *exportConfig) {
		c.modTime = t
	}
}

// WriteZip writes the archive to w as a ZIP file.
//
// The manifest directory and the manifest itself come first, as required
// by tools that stream JAR files, followed by every other directory and
// file in lexical order. Stored assets (see [Stored] and [Nested]) are
// written without compression; everything else is deflated.
func (a *Archive) WriteZip(w io.Writer, opts ...ExportOption) error {
	cfg := &exportConfig{modTime: DefaultModTime}
	for _, opt := range opts {
		opt(cfg)
	}

	files, dirs := a.exportSnapshot()

	type entry struct {
		path string
		dir  bool
	}
	entries := make([]entry, 0, len(files)+len(dirs))
	for _, d := range dirs {
		entries = append(entries, entry{path: d, dir: true})
	}
	for p := range files {
		entries = append(entries, entry{path: p})
	}
	sort.Slice(entries, func(i, j int) bool {
		ri, rj := exportRank(entries[i].path), exportRank(entries[j].path)
		if ri != rj {
			return ri < rj
		}
		return entryName(entries[i].path, entries[i].dir) < entryName(entries[j].path, entries[j].dir)
	})

	zw := zip.NewWriter(w)
	for _, e := range entries {
		name := entryName(e.path, e.dir)
		if e.dir {
			hdr := &zip.FileHeader{
				Name:     name,
				Method:   zip.Store,
				Modified: cfg.modTime,
			}
			hdr.SetMode(os.ModeDir | 0755)
			if _, err := zw.CreateHeader(hdr); err != nil {
				return fmt.Errorf("failed to write directory entry %s: %w", name, err)
			}
			continue
		}
		if err := writeZipFile(zw, name, files[e.path], cfg); err != nil {
			return err
		}
	}
	return zw.Close()
}

// WriteZipFile writes the archive as a ZIP file at the given filesystem
// path, creating or truncating it. The file is removed again if the
// archive cannot be written completely.
func (a *Archive) WriteZipFile(dst string, opts ...ExportOption) (err error) {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()
	return a.WriteZip(f, opts...)
}

func writeZipFile(zw *zip.Writer, name string, asset Asset, cfg *exportConfig) error {
	content, err := ReadAll(asset)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	hdr := &zip.FileHeader{
		Name:     name,
		Modified: cfg.modTime,
	}
	hdr.SetMode(0644)

	var fw io.Writer
	if isStored(asset) {
		// Stored entries carry their sizes and checksum in the local
		// header, so that readers which map nested jars in place never
		// need to look for a trailing data descriptor.
		hdr.Method = zip.Store
		// CreateRaw leaves the DOS timestamp to the caller.
		hdr.SetModTime(cfg.modTime) //nolint:staticcheck
		hdr.CRC32 = crc32.ChecksumIEEE(content)
		hdr.CompressedSize64 = uint64(len(content))
		hdr.UncompressedSize64 = uint64(len(content))
		fw, err = zw.CreateRaw(hdr)
	} else {
		hdr.Method = zip.Deflate
		fw, err = zw.CreateHeader(hdr)
	}
	if err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}
	if _, err := fw.Write(content); err != nil {
		return fmt.Errorf("failed to write content for %s: %w", name, err)
	}
	return nil
}

// exportRank keeps the manifest directory and the manifest at the front of
// an exported archive.
func exportRank(p string) int {
	switch p {
	case "/META-INF":
		return 0
	case ManifestPath:
		return 1
	default:
		return 2
	}
}

// ReadZip reads a ZIP file into a new archive with the given name.
//
// The content of every entry is read eagerly, so the returned archive does
// not depend on r once ReadZip returns. Entries that were stored without
// compression stay that way if the archive is exported again.
func ReadZip(r io.ReaderAt, size int64, name string) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", name, err)
	}

	ret := New(name)
	for _, f := range zr.File {
		p, err := normalizePath(f.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid entry in %s: %w", name, err)
		}
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			if err := ret.AddEmptyDir(p); err != nil {
				return nil, err
			}
			continue
		}

		content, err := readZipEntry(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from %s: %w", f.Name, name, err)
		}
		var asset Asset = bytesAsset(content)
		if f.Method == zip.Store {
			asset = Stored(asset)
		}
		if err := ret.Add(asset, p); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// ReadZipBytes is a convenience wrapper around [ReadZip] for content that
// is already in memory.
func ReadZipBytes(content []byte, name string) (*Archive, error) {
	return ReadZip(bytes.NewReader(content), int64(len(content)), name)
}

// OpenZipFile reads the ZIP file at the given filesystem path. The archive
// is named after the file's base name.
func OpenZipFile(src string) (*Archive, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ReadZip(f, info.Size(), filepath.Base(src))
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
