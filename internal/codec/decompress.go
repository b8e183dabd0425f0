// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package codec decodes compressed byte streams into owned buffers.
package codec

import (
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	// ErrUnsupportedMethod is returned for unknown compression methods.
	ErrUnsupportedMethod = errors.New("unsupported compression method")

	// ErrSizeMismatch is returned if the decoded size differs from the
	// expected size.
	ErrSizeMismatch = errors.New("decoded size mismatch")

	// ErrTooLarge is returned if the decoded size exceeds the limit.
	ErrTooLarge = errors.New("decoded size exceeds limit")
)

const (
	// DefaultLimit is the maximum decoded size if no other is given.
	DefaultLimit int64 = 1 << 32

	// maxPrealloc bounds the capacity allocated ahead of decoding.
	maxPrealloc = 1 << 24

	// maxRatio is about the largest expansion of deflate.
	maxRatio = 1 << 10
)

// Method identifies the compression algorithm of an entry.
type Method uint8

const (
	// Store is uncompressed data.
	Store Method = iota
	// Deflate is a raw deflate stream without framing.
	Deflate
	// Bzip2 is a bzip2 stream.
	Bzip2
	// Zstd is one or more zstd frames.
	Zstd
	// Gzip is a gzip stream.
	Gzip
	// LZ4 is an LZ4 frame stream.
	LZ4
)

var methodNames = [...]string{
	Store:   "store",
	Deflate: "deflate",
	Bzip2:   "bzip2",
	Zstd:    "zstd",
	Gzip:    "gzip",
	LZ4:     "lz4",
}

// String returns the name of the method.
func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}

	return fmt.Sprintf("unknown(%d)", uint8(m))
}

// ParseMethod parses the name of a method.
func ParseMethod(name string) (Method, error) {
	for method, methodName := range methodNames {
		if methodName == name {
			return Method(method), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, name)
}

// Decompress decodes the compressed bytes with the given method into a newly
// allocated buffer.
//
// If size is not negative, the decoded data must have exactly that size.
// With a negative size, the stream is decoded until its end. Decoded data
// larger than limit is rejected with [ErrTooLarge]. A limit of 0 or less
// means [DefaultLimit]. For [Store] the input is returned without copy.
func Decompress(compressed []byte, method Method, size, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if size > limit {
		return nil, fmt.Errorf("%s: %w: %d bytes, limit %d", method, ErrTooLarge, size, limit)
	}

	var (
		data []byte
		err  error
	)

	if method == Store {
		data = compressed
	} else {
		data, err = decompress(compressed, method, size, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	if size < 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w: more than %d bytes", method, ErrTooLarge, limit)
	}

	if size >= 0 && int64(len(data)) != size {
		return nil, fmt.Errorf("%s: %w: got %d bytes, expected %d",
			method, ErrSizeMismatch, len(data), size)
	}

	return data, nil
}

// decompress reads the stream until its end. At most one byte more than
// expected is read, so oversized streams are detected without decoding all
// of them.
func decompress(compressed []byte, method Method, size, limit int64) ([]byte, error) {
	reader, err := newReader(compressed, method, limit)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	readLimit := limit
	if size >= 0 {
		readLimit = size
	}

	buf := bytes.NewBuffer(make([]byte, 0, prealloc(len(compressed), size)))

	_, err = io.Copy(buf, io.LimitReader(reader, readLimit+1))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return buf.Bytes(), nil
}

// prealloc returns the buffer capacity to allocate ahead of decoding. The
// declared size is not trusted, so it is bounded by the compressed size and
// a fixed maximum. The buffer grows if the data turns out larger.
func prealloc(compressedLen int, size int64) int {
	if size < 0 {
		size = int64(compressedLen) * 4
	}

	return int(min(size, int64(compressedLen)*maxRatio, maxPrealloc))
}

// newReader returns a decoding reader for the compressed bytes.
func newReader(compressed []byte, method Method, limit int64) (io.ReadCloser, error) {
	src := bytes.NewReader(compressed)

	switch method {
	case Deflate:
		return flate.NewReader(src), nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(src)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	case Gzip:
		reader, err := gzip.NewReader(src)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return reader, nil
	case Zstd:
		decoder, err := zstd.NewReader(src,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(uint64(limit)), //nolint:gosec
		)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return decoder.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
}

// DecodedSize decodes the stream to count its decoded size without keeping
// the decoded data. Streams larger than limit are rejected with
// [ErrTooLarge]. A limit of 0 or less means [DefaultLimit].
func DecodedSize(compressed []byte, method Method, limit int64) (int64, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if method == Store {
		return int64(len(compressed)), nil
	}

	reader, err := newReader(compressed, method, limit)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}
	defer reader.Close()

	size, err := io.Copy(io.Discard, io.LimitReader(reader, limit+1))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}

	if size > limit {
		return 0, fmt.Errorf("%s: %w: more than %d bytes", method, ErrTooLarge, limit)
	}

	return size, nil
}
