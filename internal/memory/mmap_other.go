// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !unix

package memory

import (
	"os"
)

// MmapSupported reports whether the platform supports memory mapping files.
const MmapSupported = false

func mmap(*os.File, int64) ([]byte, error) {
	return nil, ErrMmapUnsupported
}

func munmap([]byte) error {
	return nil
}
