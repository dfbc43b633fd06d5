// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package unpackinfo

import (
	"fmt"
	"io/fs"
)

// FileMode is the normalized kind and permission set of an extracted
// entry. Archive entries carry whatever mode bits the tool that built them
// chose, so only a handful of well-known modes are ever written to disk.
type FileMode uint32

const (
	Empty FileMode = 0
	// Dir is a directory.
	Dir FileMode = 0040755
	// Regular is a non-executable file.
	Regular FileMode = 0100644
	// Executable is a file with any execute bit set, such as a launch
	// script prepended to a fully executable jar.
	Executable FileMode = 0100755
	// Symlink is a symbolic link.
	Symlink FileMode = 0120777
)

// NewFileMode normalizes the mode recorded in an archive entry. Devices,
// pipes, sockets and temporary files are rejected.
func NewFileMode(mode fs.FileMode) (FileMode, error) {
	switch {
	case mode.IsDir():
		return Dir, nil
	case mode&fs.ModeSymlink != 0:
		return Symlink, nil
	case mode.IsRegular():
		if mode&fs.ModeTemporary != 0 {
			return Empty, fmt.Errorf("invalid file mode: %s", mode)
		}
		if mode&0111 != 0 {
			return Executable, nil
		}
		return Regular, nil
	}
	return Empty, fmt.Errorf("invalid file mode: %s", mode)
}

// Perm returns the permission bits to create the entry with.
func (m FileMode) Perm() fs.FileMode {
	return fs.FileMode(m).Perm()
}

func (m FileMode) String() string {
	return fmt.Sprintf("%07o", uint32(m))
}
