// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package resolve splits logical paths at container boundaries and walks the
// resulting chain of backends.
//
// A logical path like "assets/pack.zip/models/tree.tar.gz/tree.obj" crosses
// two containers. Boundaries are detected by the container formats matching
// the name of a path prefix, not by any special syntax.
package resolve

import (
	"errors"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/aibor/mapfs/internal/backend"
)

// PasswordFunc returns the password for the container at the given logical
// path. It returns nil if there is none.
type PasswordFunc func(container string) []byte

// Options configures a [Resolver].
type Options struct {
	// Registry holds the container formats. Required.
	Registry *backend.Registry
	// Password is asked for container passwords at mount time. Optional.
	Password PasswordFunc
	// MaxSize limits the decoded size of container entries. Optional.
	MaxSize int64
	// Logger for debug messages. [slog.Default] if nil.
	Logger *slog.Logger
}

// Resolver resolves logical paths into [Path]s.
//
// Containers it mounts are kept until [Resolver.Close], so resolving paths
// through the same container entry again neither mounts nor parses it again.
//
// It is safe for concurrent use.
type Resolver struct {
	base     []frame
	mounts   backend.Mounts
	registry *backend.Registry
	password PasswordFunc
	maxSize  int64
	logger   *slog.Logger
}

// New creates a new [Resolver] with the given backend as root.
func New(root backend.Backend, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := opts.Registry
	if registry == nil {
		registry = backend.NewRegistry()
	}

	return &Resolver{
		base:     []frame{{backend: root}},
		registry: registry,
		password: opts.Password,
		maxSize:  opts.MaxSize,
		logger:   logger,
	}
}

// EnterRoot mounts the entry with the given name of the root backend as
// container. From then on, logical paths are relative to the container. It
// must be called before the resolver is used concurrently.
func (r *Resolver) EnterRoot(name string) error {
	root := r.base[len(r.base)-1]

	container, err := r.registry.Enter(root.backend, name, r.enterOptions(name))
	if err != nil {
		return err //nolint:wrapcheck
	}

	r.base = append(r.base, frame{
		backend:   container,
		container: container,
		name:      name,
	})

	return nil
}

// Close releases the containers mounted by [Resolver.EnterRoot] and the
// kept containers. Paths resolved before stay valid until they are closed.
func (r *Resolver) Close() error {
	return errors.Join(r.mounts.Close(), releaseFrames(r.base))
}

// Root returns the [Path] of the logical root directory.
func (r *Resolver) Root() (*Path, error) {
	frames, err := retainFrames(r.base)
	if err != nil {
		return nil, err
	}

	return &Path{
		resolver: r,
		frames:   frames,
		floor:    len(frames) - 1,
		dir:      true,
	}, nil
}

// Resolve resolves the logical path of a regular entry.
func (r *Resolver) Resolve(name string) (*Path, error) {
	root, err := r.Root()
	if err != nil {
		return nil, err
	}
	defer root.Close()

	return root.Child(name)
}

// ResolveDir resolves the logical path of a directory. If the path names a
// container, it is entered.
func (r *Resolver) ResolveDir(name string) (*Path, error) {
	root, err := r.Root()
	if err != nil {
		return nil, err
	}
	defer root.Close()

	return root.ChildDir(name)
}

func (r *Resolver) enterOptions(logical string) backend.EnterOptions {
	opts := backend.EnterOptions{
		MaxSize: r.maxSize,
		Logger:  r.logger,
	}

	if r.password != nil {
		opts.Password = r.password(logical)
	}

	return opts
}

// resolve walks name starting in the last of the given frames, which are
// owned by the call. It enters containers as long as the remaining name
// crosses a boundary.
func (r *Resolver) resolve(frames []frame, floor int, name string, dir bool) (*Path, error) {
	p := &Path{
		resolver: r,
		frames:   frames,
		floor:    floor,
		residual: name,
		dir:      dir,
	}

	var mountErr error

	for {
		mounted, err := r.enterDeepest(p)
		if !mounted {
			mountErr = err
			break
		}
	}

	err := p.check()
	if err == nil {
		return p, nil
	}

	// A failed mount explains a missing entry better.
	if mountErr != nil {
		err = mountErr
	}

	_ = releaseFrames(p.frames)

	return nil, err
}

// enterDeepest mounts the deepest container boundary of the residual name
// of p that can be mounted. It returns false and the error of the deepest
// failing candidate if there is none.
func (r *Resolver) enterDeepest(p *Path) (bool, error) {
	top := p.top()

	var firstErr error

	for _, prefix := range r.candidates(p.residual, p.dir) {
		entry, err := top.backend.Stat(prefix)
		if err != nil || entry.Dir {
			continue
		}

		logical := path.Join(top.prefix, prefix)

		container, err := r.mount(top.backend, prefix, entry.Size, logical)
		if err != nil {
			r.logger.Debug("Container candidate rejected",
				slog.String("path", logical),
				slog.Any("error", err))

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		p.frames = append(p.frames, frame{
			backend:   container,
			container: container,
			name:      prefix,
			prefix:    logical,
		})
		p.residual = strings.TrimPrefix(p.residual[len(prefix):], "/")

		return true, nil
	}

	return false, firstErr
}

// mount returns the container of the entry name of parent. Containers are
// shared with earlier resolutions through the same entry.
func (r *Resolver) mount(parent backend.Backend, name string, size int64, logical string) (*backend.Container, error) {
	key := parent.String() + "\x00" + name + "\x00" + strconv.FormatInt(size, 10)

	container, err := r.mounts.Acquire(key, func() (*backend.Container, error) {
		return r.registry.Enter(parent, name, r.enterOptions(logical)) //nolint:wrapcheck
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	r.logger.Debug("Container entered",
		slog.String("path", logical),
		slog.String("backend", parent.String()))

	return container, nil
}

// candidates returns the prefixes of name that may be containers, deepest
// first. The full name is only a candidate if withFull is true.
func (r *Resolver) candidates(name string, withFull bool) []string {
	var prefixes []string

	if withFull && name != "" && r.registry.Matches(name) {
		prefixes = append(prefixes, name)
	}

	for idx := strings.LastIndexByte(name, '/'); idx > 0; idx = strings.LastIndexByte(name[:idx], '/') {
		if prefix := name[:idx]; r.registry.Matches(prefix) {
			prefixes = append(prefixes, prefix)
		}
	}

	return prefixes
}

// frame is a backend of the chain of a [Path].
type frame struct {
	backend backend.Backend
	// container is set if the backend is a mounted container the frame
	// holds a reference of.
	container *backend.Container
	// name is the name of the container in the backend of the frame before.
	name string
	// prefix is the logical path of the backend root.
	prefix string
}

// retainFrames returns a copy of the frames with a new reference for each
// container.
func retainFrames(frames []frame) ([]frame, error) {
	for idx, f := range frames {
		if f.container != nil && !f.container.Retain() {
			_ = releaseFrames(frames[:idx])
			return nil, backend.ErrClosed
		}
	}

	return append(make([]frame, 0, len(frames)+1), frames...), nil
}

func releaseFrames(frames []frame) error {
	var errs []error

	for idx := len(frames) - 1; idx >= 0; idx-- {
		if container := frames[idx].container; container != nil {
			errs = append(errs, container.Close())
		}
	}

	return errors.Join(errs...)
}
