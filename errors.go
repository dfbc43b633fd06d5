// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package bootjar

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a required input is missing or
	// malformed. It is always raised before the archive is modified.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported is returned when an operation needs a directory that
	// the active layout does not define, such as BOOT-INF in a flat jar.
	ErrUnsupported = errors.New("unsupported operation")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}
