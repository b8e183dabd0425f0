// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mapfs

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/resolve"
)

// memoryBlobName is the base name of the single entry of an [FS] created
// with [NewMemory].
const memoryBlobName = "blob"

var _ io.Closer = (*FS)(nil)

// FS resolves logical paths that may cross container boundaries and opens
// the files they name.
//
// It is safe for concurrent use.
type FS struct {
	resolver *resolve.Resolver
	closed   atomic.Bool
	once     sync.Once
	closeErr error
}

// New creates a new [FS] rooted at the given host directory.
func New(dir string, opts ...Option) (*FS, error) {
	cfg := newConfig(opts)

	root, err := backend.NewDirectory(dir, cfg.useMmap, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("new directory: %w", err)
	}

	cfg.logger.Debug("File system created",
		slog.String("root", root.String()),
		slog.Bool("mmap", cfg.useMmap))

	return &FS{resolver: newResolver(root, cfg)}, nil
}

// NewMemory creates a new [FS] for a blob held in memory. The extension, like
// ".zip", tells the container format of the blob. If it matches a format,
// the blob is mounted and is the root directory. Otherwise, the root
// directory contains the blob as single file named "blob" with the given
// extension.
//
// The caller must not modify data while the FS or any file opened from it is
// in use.
func NewMemory(data []byte, ext string, opts ...Option) (*FS, error) {
	cfg := newConfig(opts)

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	name := memoryBlobName + ext
	root := backend.NewMemory(data, name)
	resolver := newResolver(root, cfg)

	if cfg.registry.Matches(name) {
		err := resolver.EnterRoot(name)
		if err != nil {
			return nil, fmt.Errorf("mount %s: %w", root, err)
		}
	}

	return &FS{resolver: resolver}, nil
}

func newResolver(root backend.Backend, cfg *config) *resolve.Resolver {
	return resolve.New(root, resolve.Options{
		Registry: cfg.registry,
		Password: resolve.PasswordFunc(cfg.passwords),
		MaxSize:  cfg.maxSize,
		Logger:   cfg.logger,
	})
}

// Resolve resolves the logical path of a regular file.
func (fsys *FS) Resolve(name string) (*VirtualPath, error) {
	p, err := fsys.resolve(name, false)
	if err != nil {
		return nil, pathError("resolve", name, err)
	}

	return &VirtualPath{path: p}, nil
}

// ResolveDir resolves the logical path of a directory. If the path names a
// container, it is entered.
func (fsys *FS) ResolveDir(name string) (*VirtualPath, error) {
	p, err := fsys.resolve(name, true)
	if err != nil {
		return nil, pathError("resolve", name, err)
	}

	return &VirtualPath{path: p}, nil
}

// OpenFile opens the regular file with the given logical path.
//
// The path may cross any number of containers, like
// "assets/pack.zip/models/tree.tar.gz/tree.obj".
func (fsys *FS) OpenFile(name string) (*File, error) {
	p, err := fsys.resolve(name, false)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	defer p.Close()

	file, err := openPath(p)
	if err != nil {
		return nil, pathError("open", name, err)
	}

	return file, nil
}

// OpenAt opens the regular file name relative to base. If base is nil, name
// is relative to the root. See [VirtualPath.OpenFile].
func (fsys *FS) OpenAt(base *VirtualPath, name string) (*File, error) {
	if base == nil {
		return fsys.OpenFile(name)
	}

	if fsys.closed.Load() {
		return nil, pathError("open", name, ErrClosed)
	}

	return base.OpenFile(name)
}

// List returns the names of the entries of the directory or container with
// the given logical path. The sequence is produced lazily and can be iterated
// more than once.
func (fsys *FS) List(name string) iter.Seq2[string, error] {
	return listNames(name, func() (*resolve.Path, error) {
		return fsys.resolve(name, true)
	})
}

// Close releases the containers mounted by the FS. Containers are kept
// mounted once a path through them was resolved, so their index is parsed
// only once. Files and paths that are still open stay valid until they are
// closed. It is idempotent.
func (fsys *FS) Close() error {
	fsys.once.Do(func() {
		fsys.closed.Store(true)
		fsys.closeErr = fsys.resolver.Close()
	})

	return fsys.closeErr
}

func (fsys *FS) resolve(name string, dir bool) (*resolve.Path, error) {
	if fsys.closed.Load() {
		return nil, ErrClosed
	}

	if dir {
		return fsys.resolver.ResolveDir(name) //nolint:wrapcheck
	}

	return fsys.resolver.Resolve(name) //nolint:wrapcheck
}
