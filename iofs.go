// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mapfs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/resolve"
)

var (
	_ fs.FS         = (*FS)(nil)
	_ fs.StatFS     = (*FS)(nil)
	_ fs.ReadDirFS  = (*FS)(nil)
	_ fs.ReadFileFS = (*FS)(nil)
)

// Open implements [fs.FS].
//
// Container files are regular files. Paths through them are resolved as
// usual, so [FS.ReadDir] and paths like "a.zip/dir" work.
func (fsys *FS) Open(name string) (fs.File, error) {
	file, err := fsys.open(name)
	if err != nil {
		return nil, pathError("open", name, err)
	}

	return file, nil
}

// Stat implements [fs.StatFS].
func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	p, err := fsys.lookup(name)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	defer p.Close()

	entry, err := p.Stat()
	if err != nil {
		return nil, pathError("stat", name, err)
	}

	return fileInfo{entry}, nil
}

// ReadDir implements [fs.ReadDirFS]. Containers are entered.
func (fsys *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, pathError("readdir", name, ErrInvalidPath)
	}

	p, err := fsys.resolve(name, true)
	if err != nil {
		return nil, pathError("readdir", name, err)
	}
	defer p.Close()

	entries, err := readDir(p)
	if err != nil {
		return nil, pathError("readdir", name, err)
	}

	return entries, nil
}

// ReadFile implements [fs.ReadFileFS]. The returned bytes are a copy.
func (fsys *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, pathError("readfile", name, ErrInvalidPath)
	}

	file, err := fsys.OpenFile(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return file.View().ByteSlice(), nil
}

func (fsys *FS) open(name string) (fs.File, error) {
	p, err := fsys.lookup(name)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	entry, err := p.Stat()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if p.IsDir() {
		entries, err := readDir(p)
		if err != nil {
			return nil, err
		}

		return &openFile{info: fileInfo{entry}, entries: entries}, nil
	}

	file, err := openPath(p)
	if err != nil {
		return nil, err
	}

	return &openFile{
		info:   fileInfo{entry},
		file:   file,
		reader: file.Reader(),
	}, nil
}

// lookup resolves name as regular file or, if it is none, as directory.
func (fsys *FS) lookup(name string) (*resolve.Path, error) {
	if !fs.ValidPath(name) {
		return nil, ErrInvalidPath
	}

	if name == "." {
		return fsys.resolve(name, true)
	}

	p, err := fsys.resolve(name, false)
	if errors.Is(err, ErrNotRegular) {
		return fsys.resolve(name, true)
	}

	return p, err
}

func readDir(p *resolve.Path) ([]fs.DirEntry, error) {
	var entries []fs.DirEntry

	for entry, err := range p.List() {
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		entries = append(entries, fileInfo{entry})
	}

	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return entries, nil
}

var (
	_ fs.FileInfo = fileInfo{}
	_ fs.DirEntry = fileInfo{}
)

type fileInfo struct {
	entry backend.Entry
}

func (i fileInfo) Name() string               { return i.entry.Name }
func (i fileInfo) Size() int64                { return i.entry.Size }
func (i fileInfo) Mode() fs.FileMode          { return i.entry.Mode() }
func (fileInfo) ModTime() time.Time           { return time.Time{} }
func (i fileInfo) IsDir() bool                { return i.entry.Dir }
func (fileInfo) Sys() any                     { return nil }
func (i fileInfo) Type() fs.FileMode          { return i.Mode().Type() }
func (i fileInfo) Info() (fs.FileInfo, error) { return i, nil }
func (i fileInfo) String() string             { return fs.FormatFileInfo(i) }

var (
	_ fs.File        = (*openFile)(nil)
	_ fs.ReadDirFile = (*openFile)(nil)
	_ io.ReaderAt    = (*openFile)(nil)
	_ io.Seeker      = (*openFile)(nil)
)

// openFile is an [fs.File]. Regular files read from an open [File],
// directories hold their entries read at open.
type openFile struct {
	info    fileInfo
	file    *File
	reader  *bytes.Reader
	entries []fs.DirEntry
	offset  int
	closed  bool
}

// Stat implements [fs.File].
func (f *openFile) Stat() (fs.FileInfo, error) {
	if f.closed {
		return nil, ErrClosed
	}

	return f.info, nil
}

// Read implements [fs.File].
func (f *openFile) Read(b []byte) (int, error) {
	err := f.checkRegular()
	if err != nil {
		return 0, err
	}

	return f.reader.Read(b) //nolint:wrapcheck
}

// ReadAt implements [io.ReaderAt].
func (f *openFile) ReadAt(b []byte, off int64) (int, error) {
	err := f.checkRegular()
	if err != nil {
		return 0, err
	}

	return f.reader.ReadAt(b, off) //nolint:wrapcheck
}

// Seek implements [io.Seeker].
func (f *openFile) Seek(offset int64, whence int) (int64, error) {
	err := f.checkRegular()
	if err != nil {
		return 0, err
	}

	return f.reader.Seek(offset, whence) //nolint:wrapcheck
}

// Close implements [fs.File].
func (f *openFile) Close() error {
	f.closed = true

	if f.file == nil {
		return nil
	}

	return f.file.Close()
}

// ReadDir implements [fs.ReadDirFile].
func (f *openFile) ReadDir(count int) ([]fs.DirEntry, error) {
	if f.closed {
		return nil, ErrClosed
	}

	if !f.info.IsDir() {
		return nil, ErrNotDir
	}

	start := f.offset
	end := len(f.entries)
	available := end - start

	if available == 0 && count > 0 {
		return nil, io.EOF
	}

	if count > 0 && available > count {
		end = start + count
	}

	f.offset = end

	return f.entries[start:end], nil
}

func (f *openFile) checkRegular() error {
	switch {
	case f.closed:
		return ErrClosed
	case f.file == nil:
		return ErrNotRegular
	default:
		return nil
	}
}
