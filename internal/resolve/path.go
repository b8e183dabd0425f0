// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"iter"
	"path"
	"strings"
	"sync/atomic"

	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/memory"
)

// Path is a resolved logical path: the chain of backends it crosses and the
// residual name in the last of them.
//
// A Path holds a reference of each container of its chain, so the chain
// stays usable until [Path.Close] is called. Deriving paths with
// [Path.Child] or [Path.Sibling] reuses the chain, so containers already
// mounted are neither mounted nor parsed again.
//
// A Path is immutable and safe for concurrent use.
type Path struct {
	resolver *Resolver
	frames   []frame
	// floor is the index of the frame of the logical root. Relative names
	// cannot climb above it.
	floor    int
	residual string
	dir      bool
	closed   atomic.Bool
}

func (p *Path) top() *frame {
	return &p.frames[len(p.frames)-1]
}

// String returns the logical path.
func (p *Path) String() string {
	return path.Join(p.top().prefix, p.residual)
}

// Name returns the base name of the logical path.
func (p *Path) Name() string {
	return path.Base(p.String())
}

// IsDir reports whether the path is a directory.
func (p *Path) IsDir() bool {
	return p.dir
}

// Depth returns the number of containers crossed from the logical root.
func (p *Path) Depth() int {
	return len(p.frames) - 1 - p.floor
}

// Container returns the innermost container of the chain, or nil if the
// path does not cross any.
func (p *Path) Container() *backend.Container {
	return p.top().container
}

// Open returns the content of the regular entry the path names.
func (p *Path) Open() (*memory.Resource, error) {
	if p.closed.Load() {
		return nil, backend.ErrClosed
	}

	if p.dir {
		return nil, backend.ErrNotRegular
	}

	return p.top().backend.Open(p.residual) //nolint:wrapcheck
}

// Stat returns the entry the path names.
func (p *Path) Stat() (backend.Entry, error) {
	if p.closed.Load() {
		return backend.Entry{}, backend.ErrClosed
	}

	if p.residual == "" && p.dir {
		return backend.Entry{Name: p.Name(), Dir: true}, nil
	}

	entry, err := p.top().backend.Stat(p.residual)
	if err != nil {
		return backend.Entry{}, err //nolint:wrapcheck
	}

	// Mounted containers are directories.
	entry.Dir = entry.Dir || p.dir

	return entry, nil
}

// List returns the entries of the directory the path names.
func (p *Path) List() iter.Seq2[backend.Entry, error] {
	return func(yield func(backend.Entry, error) bool) {
		if p.closed.Load() {
			yield(backend.Entry{}, backend.ErrClosed)
			return
		}

		if !p.dir {
			yield(backend.Entry{}, backend.ErrNotDir)
			return
		}

		for entry, err := range p.top().backend.List(p.residual) {
			if !yield(entry, err) {
				return
			}
		}
	}
}

// Child resolves the regular entry name relative to the path.
func (p *Path) Child(name string) (*Path, error) {
	return p.derive(p.residual, name, false)
}

// ChildDir resolves the directory name relative to the path. If name is a
// container, it is entered.
func (p *Path) ChildDir(name string) (*Path, error) {
	return p.derive(p.residual, name, true)
}

// Sibling resolves the regular entry name relative to the directory the
// entry of the path is in.
func (p *Path) Sibling(name string) (*Path, error) {
	return p.derive(p.parent(), name, false)
}

// SiblingDir resolves the directory name relative to the directory the entry
// of the path is in.
func (p *Path) SiblingDir(name string) (*Path, error) {
	return p.derive(p.parent(), name, true)
}

func (p *Path) parent() string {
	dir := path.Dir(p.residual)
	if dir == "." {
		return ""
	}

	return dir
}

// Close releases the references of the path. It is idempotent.
func (p *Path) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	return releaseFrames(p.frames)
}

// derive resolves name relative to dir within the last frame. Names climbing
// out of a container continue in the frames before.
func (p *Path) derive(dir, name string, wantDir bool) (*Path, error) {
	if p.closed.Load() {
		return nil, backend.ErrClosed
	}

	name = strings.ReplaceAll(name, "\\", "/")
	depth := len(p.frames) - 1
	joined := path.Join(dir, name)

	// Absolute names start at the logical root.
	if path.IsAbs(name) {
		depth = p.floor
		joined = path.Clean(strings.TrimLeft(name, "/"))
	}

	for joined == ".." || strings.HasPrefix(joined, "../") {
		if depth <= p.floor {
			return nil, backend.ErrInvalidPath
		}

		// The container root is the container entry in the frame before.
		joined = path.Join(p.frames[depth].name, joined)
		depth--
	}

	cleaned, err := backend.CleanName(joined)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	frames, err := retainFrames(p.frames[:depth+1])
	if err != nil {
		return nil, err
	}

	return p.resolver.resolve(frames, p.floor, cleaned, wantDir)
}

// check verifies that the residual name exists with the expected type.
func (p *Path) check() error {
	if p.residual == "" {
		// The root of a backend is a directory, apart from the single blob
		// of a memory backend. Opening tells the difference.
		return nil
	}

	entry, err := p.top().backend.Stat(p.residual)
	if err != nil {
		return err //nolint:wrapcheck
	}

	switch {
	case p.dir && !entry.Dir:
		return backend.ErrNotDir
	case !p.dir && entry.Dir:
		return backend.ErrNotRegular
	default:
		return nil
	}
}
