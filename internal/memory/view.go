// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"bytes"
	"fmt"
)

// View is a non-owning, read-only window onto a contiguous byte range.
//
// A View is only valid as long as the [Resource] it was taken from is open.
// The bytes must never be modified.
type View struct {
	data []byte
}

// Bytes returns the viewed bytes without copying them.
func (v View) Bytes() []byte {
	return v.data
}

// Len returns the number of viewed bytes.
func (v View) Len() int {
	return len(v.data)
}

// ByteSlice returns a copy of the viewed bytes that stays valid after the
// owning [Resource] is closed.
func (v View) ByteSlice() []byte {
	return bytes.Clone(v.data)
}

// String returns the viewed bytes as string.
func (v View) String() string {
	return string(v.data)
}

// Reader returns a reader over the viewed bytes.
func (v View) Reader() *bytes.Reader {
	return bytes.NewReader(v.data)
}

// Slice returns the sub view of length n starting at off.
func (v View) Slice(off, n int64) (View, error) {
	if off < 0 || n < 0 || off > int64(len(v.data)) || n > int64(len(v.data))-off {
		return View{}, fmt.Errorf("%w: [%d:+%d] of %d bytes", ErrOutOfRange, off, n, len(v.data))
	}

	return View{v.data[off : off+n : off+n]}, nil
}
