// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build !(linux || darwin)

package unpackinfo

import (
	"errors"
)

// Lchtimes is not available on this platform.
func (i UnpackInfo) Lchtimes() error {
	return errors.New("Lchtimes is not supported on this platform")
}

// CanMaintainSymlinkTimestamps reports whether [UnpackInfo.Lchtimes] is
// available.
func CanMaintainSymlinkTimestamps() bool {
	return false
}
