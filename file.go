// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mapfs

import (
	"bytes"
	"io"
	"path"

	"github.com/zeebo/blake3"

	"github.com/aibor/mapfs/internal/memory"
	"github.com/aibor/mapfs/internal/resolve"
)

// ByteView is a read-only view of the content of a [File]. It is valid until
// the file is closed.
type ByteView = memory.View

var _ io.Closer = (*File)(nil)

// File is an open regular file. It owns the memory its content lives in,
// which is released by [File.Close].
//
// The accessors are safe for concurrent use. The content must not be used
// after Close.
type File struct {
	resource *memory.Resource
	name     string
}

// openPath opens the regular file p names. It does not take over p.
func openPath(p *resolve.Path) (*File, error) {
	resource, err := p.Open()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &File{
		resource: resource,
		name:     p.String(),
	}, nil
}

// Bytes returns the content without copying it. The bytes must not be
// modified.
func (f *File) Bytes() []byte {
	return f.resource.Bytes()
}

// View returns the view of the content.
func (f *File) View() ByteView {
	return f.resource.View()
}

// Size returns the size of the content in bytes.
func (f *File) Size() int64 {
	return int64(f.resource.Len())
}

// Name returns the logical path of the file.
func (f *File) Name() string {
	return f.name
}

// Filename returns the base name of the file.
func (f *File) Filename() string {
	return path.Base(f.name)
}

// Pathname returns the logical directory of the file with trailing slash. It
// is empty for files in the root directory.
func (f *File) Pathname() string {
	dir, _ := path.Split(f.name)
	return dir
}

// Mapped reports whether the content lives in an OS memory mapping.
func (f *File) Mapped() bool {
	return f.resource.Kind() == memory.KindMapped
}

// Reader returns a new reader over the content.
func (f *File) Reader() *bytes.Reader {
	return f.resource.View().Reader()
}

// Digest returns the BLAKE3-256 hash of the content.
func (f *File) Digest() [32]byte {
	return blake3.Sum256(f.resource.Bytes())
}

// Close releases the memory of the file. It is idempotent.
func (f *File) Close() error {
	return f.resource.Close() //nolint:wrapcheck
}
