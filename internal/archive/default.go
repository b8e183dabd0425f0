// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package archive provides the container formats paths can descend into.
//
// Archives are zip, cpio and tar, the latter two optionally compressed.
// Single compressed streams and age encrypted files are containers with a
// single entry.
package archive

import (
	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/codec"
)

// Default returns a new registry with all formats of this package.
func Default() *backend.Registry {
	tar := &Tar{}
	cpio := &CPIO{}

	return backend.NewRegistry(
		&Zip{},
		tar,
		cpio,
		NewCompressed(tar, codec.Gzip, ".tar.gz", ".tgz"),
		NewCompressed(tar, codec.Zstd, ".tar.zst", ".tzst"),
		NewCompressed(tar, codec.LZ4, ".tar.lz4"),
		NewCompressed(cpio, codec.Gzip, ".cpio.gz"),
		NewCompressed(cpio, codec.Zstd, ".cpio.zst"),
		NewStream(codec.Gzip, ".gz"),
		NewStream(codec.Zstd, ".zst", ".zstd"),
		NewStream(codec.LZ4, ".lz4"),
		&Age{},
	)
}
