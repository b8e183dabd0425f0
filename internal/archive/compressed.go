// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"bytes"
	"fmt"

	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/codec"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

var (
	_ backend.Format   = (*Compressed)(nil)
	_ backend.Preparer = (*Compressed)(nil)
)

// Compressed is a [backend.Format] for an archive wrapped in a compressed
// stream, like a gzip compressed tar archive.
//
// The stream is decompressed once when the container is loaded. Entries are
// views into the decompressed archive.
type Compressed struct {
	inner      backend.Format
	method     codec.Method
	magic      []byte
	extensions []string
}

// NewCompressed creates a [Compressed] format for the inner archive format
// compressed with the given method. The extensions name the combined
// format, like ".tar.gz" and ".tgz".
func NewCompressed(inner backend.Format, method codec.Method, extensions ...string) *Compressed {
	return &Compressed{
		inner:      inner,
		method:     method,
		magic:      methodMagic(method),
		extensions: extensions,
	}
}

func (c *Compressed) Name() string {
	return c.inner.Name() + "+" + c.method.String()
}

func (c *Compressed) Match(name string) int {
	return backend.MatchExtension(name, c.extensions...)
}

func (c *Compressed) Probe(data []byte) bool {
	return len(c.magic) > 0 && bytes.HasPrefix(data, c.magic)
}

// Prepare decompresses the whole stream, up to [codec.DefaultLimit].
func (c *Compressed) Prepare(data []byte) ([]byte, error) {
	prepared, err := codec.Decompress(data, c.method, -1, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrDecode, err)
	}

	return prepared, nil
}

// Index indexes the decompressed archive with the inner format.
func (c *Compressed) Index(data []byte, name string) ([]backend.Record, error) {
	if !c.inner.Probe(data) {
		return nil, fmt.Errorf("decompressed data is not %s", c.inner.Name())
	}

	return c.inner.Index(data, backend.TrimExtension(name, c.extensions...)) //nolint:wrapcheck
}

func methodMagic(method codec.Method) []byte {
	switch method {
	case codec.Gzip:
		return magicGzip
	case codec.Zstd:
		return magicZstd
	case codec.LZ4:
		return magicLZ4
	default:
		return nil
	}
}
