// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io"

	"golang.org/x/mod/sumdb/dirhash"
)

// ChecksumV1 returns a checksum of the names and content of every file in
// the archive, in the "h1:" format used by Go module sums.
//
// Unlike a checksum of the exported ZIP file, the result is independent of
// entry order, compression and timestamps, so it identifies archives that
// hold the same content no matter how they were written.
func (a *Archive) ChecksumV1() (string, error) {
	files, _ := a.snapshot()

	names := make([]string, 0, len(files))
	byName := make(map[string]Asset, len(files))
	for p, asset := range files {
		name := entryName(p, false)
		names = append(names, name)
		byName[name] = asset
	}

	sum, err := dirhash.Hash1(names, func(name string) (io.ReadCloser, error) {
		asset, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("no file %s in archive %s", name, a.name)
		}
		return asset.Open()
	})
	if err != nil {
		return "", fmt.Errorf("failed to checksum archive %s: %w", a.name, err)
	}
	return sum, nil
}
