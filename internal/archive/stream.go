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

var _ backend.Format = (*Stream)(nil)

// Stream is a [backend.Format] for a single compressed stream, like a gzip
// file. The container has exactly one entry, named like the container
// without the compression extension.
type Stream struct {
	method     codec.Method
	magic      []byte
	extensions []string
}

// NewStream creates a [Stream] format for the given compression method.
func NewStream(method codec.Method, extensions ...string) *Stream {
	return &Stream{
		method:     method,
		magic:      methodMagic(method),
		extensions: extensions,
	}
}

func (s *Stream) Name() string {
	return s.method.String()
}

func (s *Stream) Match(name string) int {
	return backend.MatchExtension(name, s.extensions...)
}

func (s *Stream) Probe(data []byte) bool {
	return len(s.magic) > 0 && bytes.HasPrefix(data, s.magic)
}

// Index returns the single entry. The stream is decoded once to determine
// its size, as no compression format stores it reliably.
func (s *Stream) Index(data []byte, name string) ([]backend.Record, error) {
	size, err := codec.DecodedSize(data, s.method, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrDecode, err)
	}

	return []backend.Record{{
		Name:           backend.TrimExtension(name, s.extensions...),
		CompressedSize: int64(len(data)),
		Size:           size,
		Method:         s.method,
	}}, nil
}
