// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"errors"
	"io/fs"
)

var (
	// ErrClosed is returned if a closed [Resource] is used.
	ErrClosed = fs.ErrClosed

	// ErrOutOfRange is returned if a requested range exceeds the view.
	ErrOutOfRange = errors.New("range out of bounds")

	// ErrMmapUnsupported is returned if memory mapping is not available on
	// the platform or for the file.
	ErrMmapUnsupported = errors.New("memory mapping not supported")
)
