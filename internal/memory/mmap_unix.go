// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package memory

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// MmapSupported reports whether the platform supports memory mapping files.
const MmapSupported = true

func mmap(file *os.File, size int64) ([]byte, error) {
	if size <= 0 || size > math.MaxInt {
		return nil, fmt.Errorf("%w: size %d", ErrMmapUnsupported, size)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return data, nil
}

func munmap(data []byte) error {
	err := unix.Munmap(data)
	if err != nil {
		return fmt.Errorf("munmap: %w", err)
	}

	return nil
}
