// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backend provides the namespaces paths are resolved in: real
// directories, in-memory blobs and parsed containers.
//
// All backends are immutable after construction and safe for concurrent use.
// Names are relative slash separated paths. The empty name and "." denote
// the root of the backend.
package backend

import (
	"io/fs"
	"iter"
	"path"
	"strings"

	"github.com/aibor/mapfs/internal/memory"
)

// Backend is a resolvable namespace.
type Backend interface {
	// Open returns the content of the regular entry with the given name.
	Open(name string) (*memory.Resource, error)

	// Stat returns information about the entry with the given name.
	Stat(name string) (Entry, error)

	// List returns the entries of the directory with the given name. The
	// sequence is produced lazily and can be iterated more than once.
	List(dir string) iter.Seq2[Entry, error]

	// String identifies the backend by kind and locator.
	String() string
}

// Entry describes an entry of a [Backend].
type Entry struct {
	// Name is the base name of the entry.
	Name string
	// Size is the size of the content in bytes.
	Size int64
	// Dir is true for directories.
	Dir bool
}

// Mode returns the file mode matching the entry type.
func (e Entry) Mode() fs.FileMode {
	if e.Dir {
		return fs.ModeDir | 0o555
	}

	return 0o444
}

// CleanName normalizes the given name into a relative slash separated path.
// Back slashes are treated as separators and leading slashes are dropped.
// The root is returned as empty string. It returns [ErrInvalidPath] for
// names that escape the root.
func CleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(path.Clean(name), "/")

	if name == "" || name == "." {
		return "", nil
	}

	if !fs.ValidPath(name) {
		return "", ErrInvalidPath
	}

	return name, nil
}

func singleError[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		yield(zero, err)
	}
}
