// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package copyutil copies untrusted streams with an upper bound on how much
// data will be accepted.
package copyutil

import (
	"errors"
	"fmt"
	"io"
)

// chunkSize is how much is copied per step while watching the limit.
const chunkSize = 1 << 20

// ErrLimitExceeded is returned by [CopyWithLimit] when the source has more
// data than the caller is willing to accept.
var ErrLimitExceeded = errors.New("copy limit exceeded")

// CopyWithLimit copies src into dst in chunks, failing with
// [ErrLimitExceeded] once more than limit bytes have been seen. Whatever
// was copied before the limit was hit stays in dst.
func CopyWithLimit(dst io.Writer, src io.Reader, limit int64) error {
	if limit < 0 {
		return fmt.Errorf("invalid copy limit %d", limit)
	}

	var total int64
	for {
		step := int64(chunkSize)
		if remaining := limit - total; remaining < step {
			// Ask for one byte more than we are allowed so that an exact
			// fit can be told apart from an overflow.
			step = remaining + 1
		}

		n, err := io.CopyN(dst, src, step)
		total += n
		if total > limit {
			return ErrLimitExceeded
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
