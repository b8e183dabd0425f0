// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/mapfs/internal/memory"
)

func newTestDirectory(t *testing.T, useMmap bool) *Directory {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("beta"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty"), nil, 0o644))

	dir, err := NewDirectory(root, useMmap, nil)
	require.NoError(t, err)

	return dir
}

func TestDirectoryOpen(t *testing.T) {
	for _, useMmap := range []bool{true, false} {
		dir := newTestDirectory(t, useMmap)

		tests := []struct {
			name        string
			expected    string
			expectedErr error
		}{
			{name: "a.txt", expected: "alpha"},
			{name: "/sub/b.txt", expected: "beta"},
			{name: `sub\b.txt`, expected: "beta"},
			{name: "sub/../a.txt", expected: "alpha"},
			{name: "empty", expected: ""},
			{name: "missing.txt", expectedErr: ErrNotFound},
			{name: "a.txt/inner", expectedErr: ErrNotFound},
			{name: "sub", expectedErr: ErrNotRegular},
			{name: "../a.txt", expectedErr: ErrInvalidPath},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res, err := dir.Open(tt.name)
				require.ErrorIs(t, err, tt.expectedErr)

				if tt.expectedErr != nil {
					return
				}

				assert.Equal(t, tt.expected, string(res.Bytes()))
				require.NoError(t, res.Close())
			})
		}
	}
}

func TestDirectoryOpenShares(t *testing.T) {
	dir := newTestDirectory(t, true)
	liveBefore := memory.LiveMappings()

	first, err := dir.Open("a.txt")
	require.NoError(t, err)

	second, err := dir.Open("./a.txt")
	require.NoError(t, err)

	assert.Same(t, &first.Bytes()[0], &second.Bytes()[0])
	assert.Equal(t, 1, dir.files.Len())

	if memory.MmapSupported {
		assert.Equal(t, memory.KindMapped, first.Kind())
		assert.Equal(t, liveBefore+1, memory.LiveMappings())
	}

	require.NoError(t, first.Close())
	require.NoError(t, second.Close())

	assert.Equal(t, 0, dir.files.Len())
	assert.Equal(t, liveBefore, memory.LiveMappings())
}

func TestDirectoryStat(t *testing.T) {
	dir := newTestDirectory(t, false)

	entry, err := dir.Stat("sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "b.txt", Size: 4}, entry)

	entry, err = dir.Stat("sub")
	require.NoError(t, err)
	assert.True(t, entry.Dir)

	_, err = dir.Stat("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryList(t *testing.T) {
	dir := newTestDirectory(t, false)

	names := map[string]bool{}

	for entry, err := range dir.List("") {
		require.NoError(t, err)

		names[entry.Name] = entry.Dir
	}

	assert.Equal(t, map[string]bool{"a.txt": false, "empty": false, "sub": true}, names)

	for _, err := range dir.List("a.txt") {
		require.Error(t, err)
	}

	for _, err := range dir.List("missing") {
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestNewDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewDirectory(file, true, nil)
	require.ErrorIs(t, err, ErrNotDir)

	_, err = NewDirectory(filepath.Join(root, "missing"), true, nil)
	require.ErrorIs(t, err, ErrNotFound)

	dir, err := NewDirectory(root, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "dir:"+root, dir.String())
}
