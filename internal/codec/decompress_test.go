// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package codec_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/aibor/mapfs/internal/codec"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, method codec.Method, data []byte) []byte {
	t.Helper()

	var (
		buf    bytes.Buffer
		writer io.WriteCloser
		err    error
	)

	switch method {
	case codec.Store:
		return data
	case codec.Deflate:
		writer, err = flate.NewWriter(&buf, flate.BestSpeed)
	case codec.Gzip:
		writer = gzip.NewWriter(&buf)
	case codec.Zstd:
		writer, err = zstd.NewWriter(&buf)
	case codec.LZ4:
		writer = lz4.NewWriter(&buf)
	default:
		t.Fatalf("no writer for %s", method)
	}

	require.NoError(t, err)

	_, err = writer.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func TestDecompress(t *testing.T) {
	plain := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 200))

	for _, method := range []codec.Method{
		codec.Store,
		codec.Deflate,
		codec.Gzip,
		codec.Zstd,
		codec.LZ4,
	} {
		t.Run(method.String(), func(t *testing.T) {
			compressed := compress(t, method, plain)

			t.Run("known size", func(t *testing.T) {
				data, err := codec.Decompress(compressed, method, int64(len(plain)), 0)
				require.NoError(t, err)
				assert.Equal(t, plain, data)
			})

			t.Run("unknown size", func(t *testing.T) {
				data, err := codec.Decompress(compressed, method, -1, 0)
				require.NoError(t, err)
				assert.Equal(t, plain, data)
			})

			t.Run("size mismatch", func(t *testing.T) {
				_, err := codec.Decompress(compressed, method, int64(len(plain)-1), 0)
				require.ErrorIs(t, err, codec.ErrSizeMismatch)
			})

			t.Run("decoded size", func(t *testing.T) {
				size, err := codec.DecodedSize(compressed, method, 0)
				require.NoError(t, err)
				assert.EqualValues(t, len(plain), size)
			})
		})
	}
}

func TestDecompressCorrupt(t *testing.T) {
	garbage := []byte("definitely not a compressed stream")

	for _, method := range []codec.Method{codec.Gzip, codec.Zstd, codec.LZ4} {
		t.Run(method.String(), func(t *testing.T) {
			_, err := codec.Decompress(garbage, method, -1, 0)
			require.Error(t, err)
		})
	}
}

func TestDecompressLimit(t *testing.T) {
	plain := make([]byte, 1<<20)

	tests := []struct {
		name        string
		method      codec.Method
		size        int64
		limit       int64
		expectedErr error
	}{
		{
			name:        "declared size beyond default limit",
			method:      codec.Deflate,
			size:        1 << 50,
			expectedErr: codec.ErrTooLarge,
		},
		{
			name:        "declared size beyond limit",
			method:      codec.Gzip,
			size:        int64(len(plain)),
			limit:       1024,
			expectedErr: codec.ErrTooLarge,
		},
		{
			name:        "declared size not backed by data",
			method:      codec.Deflate,
			size:        1 << 31,
			expectedErr: codec.ErrSizeMismatch,
		},
		{
			name:        "declared size not backed by zstd data",
			method:      codec.Zstd,
			size:        1 << 31,
			expectedErr: codec.ErrSizeMismatch,
		},
		{
			name:        "unknown size beyond limit",
			method:      codec.Deflate,
			size:        -1,
			limit:       1024,
			expectedErr: codec.ErrTooLarge,
		},
		{
			name:        "stored beyond limit",
			method:      codec.Store,
			size:        int64(len(plain)),
			limit:       1024,
			expectedErr: codec.ErrTooLarge,
		},
		{
			name:   "within limit",
			method: codec.LZ4,
			size:   int64(len(plain)),
			limit:  int64(len(plain)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := compress(t, tt.method, plain)

			data, err := codec.Decompress(compressed, tt.method, tt.size, tt.limit)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr == nil {
				assert.Equal(t, plain, data)
			}
		})
	}
}

func TestDecodedSizeLimit(t *testing.T) {
	compressed := compress(t, codec.Gzip, make([]byte, 4096))

	_, err := codec.DecodedSize(compressed, codec.Gzip, 4095)
	require.ErrorIs(t, err, codec.ErrTooLarge)

	size, err := codec.DecodedSize(compressed, codec.Gzip, 4096)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, size)
}

func TestMethodNames(t *testing.T) {
	for _, name := range []string{"store", "deflate", "bzip2", "zstd", "gzip", "lz4"} {
		method, err := codec.ParseMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, method.String())
	}

	_, err := codec.ParseMethod("brotli")
	require.ErrorIs(t, err, codec.ErrUnsupportedMethod)

	assert.Equal(t, "unknown(200)", codec.Method(200).String())

	_, err = codec.Decompress(nil, codec.Method(200), 0, 0)
	require.ErrorIs(t, err, codec.ErrUnsupportedMethod)
}
