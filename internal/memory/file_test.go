// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memory_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/mapfs/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestMapFile(t *testing.T) {
	content := make([]byte, 3*4096+17)
	for idx := range content {
		content[idx] = byte(idx * 7)
	}

	tests := []struct {
		name         string
		data         []byte
		useMmap      bool
		expectedKind memory.Kind
	}{
		{
			name:         "mapped",
			data:         content,
			useMmap:      true,
			expectedKind: memory.KindMapped,
		},
		{
			name:         "read without mmap",
			data:         content,
			expectedKind: memory.KindHeap,
		},
		{
			name:         "empty file is read",
			data:         []byte{},
			useMmap:      true,
			expectedKind: memory.KindHeap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expectedKind == memory.KindMapped && !memory.MmapSupported {
				t.Skip("mmap not supported")
			}

			path := writeFile(t, "file", tt.data)

			res, err := memory.MapFile(path, tt.useMmap)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedKind, res.Kind())
			assert.Equal(t, tt.data, res.Bytes())

			require.NoError(t, res.Close())
		})
	}
}

func TestMapFileNotExist(t *testing.T) {
	_, err := memory.MapFile(filepath.Join(t.TempDir(), "missing"), true)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMapFileReleasesMapping(t *testing.T) {
	if !memory.MmapSupported {
		t.Skip("mmap not supported")
	}

	path := writeFile(t, "file", []byte("mapped content"))
	before := memory.LiveMappings()

	for range 10_000 {
		res, err := memory.MapFile(path, true)
		require.NoError(t, err)

		sub, err := res.Slice(0, 6)
		require.NoError(t, err)

		require.NoError(t, res.Close())
		assert.Equal(t, "mapped", string(sub.Bytes()))
		require.NoError(t, sub.Close())
	}

	assert.Equal(t, before, memory.LiveMappings())
}
