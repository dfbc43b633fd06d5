// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build linux || darwin

package unpackinfo

import (
	"golang.org/x/sys/unix"
)

// Lchtimes sets the access and modification times of the entry's path
// without following it if it is a symlink.
func (i UnpackInfo) Lchtimes() error {
	return unix.Lutimes(i.Path, []unix.Timeval{
		unix.NsecToTimeval(i.OriginalAccessTime.UnixNano()),
		unix.NsecToTimeval(i.OriginalModTime.UnixNano()),
	})
}

// CanMaintainSymlinkTimestamps reports whether [UnpackInfo.Lchtimes] is
// available. os.Chtimes follows symlinks, so link timestamps can only be
// restored through a platform-specific call.
func CanMaintainSymlinkTimestamps() bool {
	return true
}
