// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mapfs_test

import (
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/mapfs"
)

func TestFSConformance(t *testing.T) {
	fsys := newFS(t)

	err := fstest.TestFS(fsys,
		"plain.txt",
		"empty.txt",
		"dir/sub/nested.txt",
		"assets/pack.zip",
		"assets/models.tar.gz",
	)
	require.NoError(t, err)
}

func TestFSMemoryConformance(t *testing.T) {
	data := buildZip(t,
		testFile{name: "readme.txt", data: []byte("stored readme")},
		testFile{name: "scene/scene.obj", data: sceneData, method: zip.Deflate},
		testFile{name: "scene/textures/wood.png", data: woodData},
	)

	fsys, err := mapfs.NewMemory(data, ".zip")
	require.NoError(t, err)
	t.Cleanup(func() { _ = fsys.Close() })

	err = fstest.TestFS(fsys,
		"readme.txt",
		"scene/scene.obj",
		"scene/textures/wood.png",
	)
	require.NoError(t, err)
}

func TestFSOpen(t *testing.T) {
	fsys := newFS(t)

	tests := []struct {
		name          string
		expectedDir   bool
		expectedSize  int64
		expectedErr   error
		expectedEntry []string
	}{
		{name: ".", expectedDir: true, expectedEntry: []string{"assets", "dir", "empty.txt", "plain.txt"}},
		{name: "plain.txt", expectedSize: 13},
		{name: "assets/pack.zip/readme.txt", expectedSize: 13},
		{name: "assets/pack.zip/scene", expectedDir: true, expectedEntry: []string{"scene.obj", "textures"}},
		{name: "assets/pack.zip/inner.zip/file.txt", expectedSize: 10},
		{name: "assets/missing", expectedErr: fs.ErrNotExist},
		{name: "/plain.txt", expectedErr: fs.ErrInvalid},
		{name: "dir/../plain.txt", expectedErr: fs.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := fsys.Open(tt.name)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr != nil {
				return
			}

			defer file.Close()

			info, err := file.Stat()
			require.NoError(t, err)
			assert.Equal(t, tt.expectedDir, info.IsDir())

			if !tt.expectedDir {
				assert.Equal(t, tt.expectedSize, info.Size())
				assert.Equal(t, fs.FileMode(0o444), info.Mode())

				return
			}

			dirFile, ok := file.(fs.ReadDirFile)
			require.True(t, ok)

			var names []string

			for {
				entries, err := dirFile.ReadDir(1)
				if err == io.EOF {
					break
				}

				require.NoError(t, err)
				require.Len(t, entries, 1)

				names = append(names, entries[0].Name())
			}

			assert.Equal(t, tt.expectedEntry, names)
		})
	}
}

func TestFSReadDirEntersContainers(t *testing.T) {
	fsys := newFS(t)

	entries, err := fs.ReadDir(fsys, "assets/pack.zip")
	require.NoError(t, err)

	var names []string

	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	assert.Equal(t, []string{"inner.zip", "readme.txt", "scene"}, names)
	assert.False(t, entries[0].IsDir())
	assert.True(t, entries[2].IsDir())

	info, err := fs.Stat(fsys, "assets/pack.zip")
	require.NoError(t, err)
	assert.False(t, info.IsDir(), "container files are regular files")
}

func TestFSReadFile(t *testing.T) {
	fsys := newFS(t)

	data, err := fs.ReadFile(fsys, "assets/pack.zip/scene/textures/wood.png")
	require.NoError(t, err)
	assert.Equal(t, woodData, data)

	_, err = fs.ReadFile(fsys, "assets/pack.zip/scene")
	require.ErrorIs(t, err, mapfs.ErrNotRegular)

	_, err = fs.ReadFile(fsys, "../plain.txt")
	require.ErrorIs(t, err, fs.ErrInvalid)
}

func TestFSClosedFile(t *testing.T) {
	fsys := newFS(t)

	file, err := fsys.Open("plain.txt")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	_, err = file.Read(make([]byte, 1))
	require.ErrorIs(t, err, fs.ErrClosed)

	_, err = file.Stat()
	require.ErrorIs(t, err, fs.ErrClosed)
}
