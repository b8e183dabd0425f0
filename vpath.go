// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mapfs

import (
	"io"
	"iter"
	"path"

	"github.com/aibor/mapfs/internal/resolve"
)

var _ io.Closer = (*VirtualPath)(nil)

// VirtualPath is a resolved location: the chain of containers crossed and
// the name of the entry in the innermost one.
//
// Paths derived from a VirtualPath reuse its chain. Containers already
// mounted are neither mounted nor parsed again. The chain stays usable until
// [VirtualPath.Close] is called, even after the [FS] is closed.
//
// A VirtualPath is safe for concurrent use.
type VirtualPath struct {
	path *resolve.Path
}

// String returns the logical path.
func (p *VirtualPath) String() string {
	return p.path.String()
}

// Name returns the base name of the logical path.
func (p *VirtualPath) Name() string {
	return p.path.Name()
}

// IsDir reports whether the path names a directory or an entered container.
func (p *VirtualPath) IsDir() bool {
	return p.path.IsDir()
}

// Depth returns the number of containers crossed from the root.
func (p *VirtualPath) Depth() int {
	return p.path.Depth()
}

// IndexLoads returns how often the index of the innermost container has been
// parsed. It is zero if the path does not cross a container.
func (p *VirtualPath) IndexLoads() int64 {
	container := p.path.Container()
	if container == nil {
		return 0
	}

	return container.IndexLoads()
}

// Open opens the regular file the path names.
func (p *VirtualPath) Open() (*File, error) {
	file, err := openPath(p.path)
	if err != nil {
		return nil, pathError("open", p.String(), err)
	}

	return file, nil
}

// Child resolves the regular file name relative to the path.
func (p *VirtualPath) Child(name string) (*VirtualPath, error) {
	return p.derive(name, p.path.Child)
}

// ChildDir resolves the directory name relative to the path. Containers are
// entered.
func (p *VirtualPath) ChildDir(name string) (*VirtualPath, error) {
	return p.derive(name, p.path.ChildDir)
}

// Sibling resolves the regular file name relative to the directory of the
// path.
func (p *VirtualPath) Sibling(name string) (*VirtualPath, error) {
	return p.derive(name, p.path.Sibling)
}

// OpenFile opens the regular file name relative to the path. Names of
// regular file paths are relative to their directory, names of directory
// paths are relative to the directory itself.
func (p *VirtualPath) OpenFile(name string) (*File, error) {
	derive := p.path.Sibling
	if p.path.IsDir() {
		derive = p.path.Child
	}

	child, err := derive(name)
	if err != nil {
		return nil, pathError("open", p.join(name), err)
	}
	defer child.Close()

	file, err := openPath(child)
	if err != nil {
		return nil, pathError("open", child.String(), err)
	}

	return file, nil
}

// List returns the names of the entries of the directory name relative to
// the path, like [VirtualPath.OpenFile].
func (p *VirtualPath) List(name string) iter.Seq2[string, error] {
	derive := p.path.SiblingDir
	if p.path.IsDir() {
		derive = p.path.ChildDir
	}

	return listNames(p.join(name), func() (*resolve.Path, error) {
		return derive(name)
	})
}

// Close releases the containers of the path. It is idempotent.
func (p *VirtualPath) Close() error {
	return p.path.Close()
}

func (p *VirtualPath) join(name string) string {
	return path.Join(p.String(), name)
}

func (p *VirtualPath) derive(name string, fn func(string) (*resolve.Path, error)) (*VirtualPath, error) {
	derived, err := fn(name)
	if err != nil {
		return nil, pathError("resolve", p.join(name), err)
	}

	return &VirtualPath{path: derived}, nil
}

// listNames resolves a directory with the given function each time the
// returned sequence is iterated and yields the names of its entries.
func listNames(name string, resolveDir func() (*resolve.Path, error)) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dir, err := resolveDir()
		if err != nil {
			yield("", pathError("list", name, err))
			return
		}
		defer dir.Close()

		for entry, err := range dir.List() {
			if err != nil {
				yield("", pathError("list", name, err))
				return
			}

			if !yield(entry.Name, nil) {
				return
			}
		}
	}
}
