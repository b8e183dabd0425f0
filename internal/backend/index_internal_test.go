// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewIndex(t *testing.T) {
	idx, err := NewIndex([]Record{
		{Name: "./a/b/c.txt", Offset: 0, CompressedSize: 3, Size: 3},
		{Name: "/top.txt", Offset: 3, CompressedSize: 2, Size: 2},
		{Name: "empty/"},
		{Name: "../escape.txt", Offset: 0, CompressedSize: 1, Size: 1},
		{Name: "top.txt", Offset: 5, CompressedSize: 1, Size: 1},
	}, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())

	rec, err := idx.Lookup("a/b/c.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 3, rec.Size)

	rec, err = idx.Lookup("top.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 5, rec.Offset, "last record wins")

	_, err = idx.Lookup("a/b")
	require.ErrorIs(t, err, ErrNotRegular)

	_, err = idx.Lookup("escape.txt")
	require.ErrorIs(t, err, ErrNotFound)

	children, err := idx.Children("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "empty", "top.txt"}, children)

	children, err = idx.Children("a/b")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt"}, children)

	children, err = idx.Children("empty")
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = idx.Children("top.txt")
	require.ErrorIs(t, err, ErrNotDir)

	_, err = idx.Children("nope")
	require.ErrorIs(t, err, ErrNotFound)

	entry, err := idx.Stat("a")
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "a", Dir: true}, entry)

	entry, err = idx.Stat("a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "c.txt", Size: 3}, entry)

	records := idx.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "a/b/c.txt", records[0].Name)
}

func TestNewIndexOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{
			name: "beyond end",
			rec:  Record{Name: "a", Offset: 8, CompressedSize: 3},
		},
		{
			name: "negative offset",
			rec:  Record{Name: "a", Offset: -1, CompressedSize: 1},
		},
		{
			name: "overflow",
			rec:  Record{Name: "a", Offset: 1, CompressedSize: 1<<63 - 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex([]Record{tt.rec}, 10)
			require.Error(t, err)
		})
	}
}
