// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mapfs

import (
	"log/slog"

	"github.com/aibor/mapfs/internal/archive"
	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/codec"
	"github.com/aibor/mapfs/internal/memory"
)

// PasswordFunc returns the password for the container with the given logical
// path, or nil if there is none.
type PasswordFunc func(container string) []byte

type (
	// Registry holds the container formats paths can descend into.
	Registry = backend.Registry
	// Format is a container format. Formats may implement [Preparer] and
	// [Decrypter] as well.
	Format = backend.Format
	// Preparer turns the raw bytes of a container into the bytes the index
	// refers to, like decompressing a compressed tar.
	Preparer = backend.Preparer
	// Decrypter decrypts entries of containers with encrypted entries.
	Decrypter = backend.Decrypter
	// Record is an entry of a container index.
	Record = backend.Record
)

// DefaultFormats returns a new [Registry] with all built in container
// formats. Custom formats can be added with [Registry.Register].
func DefaultFormats() *Registry {
	return archive.Default()
}

// NewFormats returns a new [Registry] with the given formats only.
func NewFormats(formats ...Format) *Registry {
	return backend.NewRegistry(formats...)
}

// Option configures an [FS].
type Option func(*config)

type config struct {
	passwords PasswordFunc
	registry  *backend.Registry
	useMmap   bool
	maxSize   int64
	logger    *slog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		useMmap: memory.MmapSupported,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.registry == nil {
		cfg.registry = archive.Default()
	}

	return cfg
}

// WithPassword sets the password used for all encrypted containers.
func WithPassword(password string) Option {
	return func(c *config) {
		c.passwords = func(string) []byte {
			return []byte(password)
		}
	}
}

// WithPasswordFunc sets a function that returns the password for a
// container. It is called when the container is mounted.
func WithPasswordFunc(fn PasswordFunc) Option {
	return func(c *config) {
		c.passwords = fn
	}
}

// WithFormats replaces the default container formats. Use
// [NewFormats] without formats to disable containers.
func WithFormats(registry *Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithoutMmap disables memory mapping. Files are read into memory instead.
func WithoutMmap() Option {
	return func(c *config) {
		c.useMmap = false
	}
}

// DefaultMaxEntrySize is the default limit of the decoded size of a
// compressed or encrypted container entry.
const DefaultMaxEntrySize = codec.DefaultLimit

// WithMaxEntrySize limits the decoded size of compressed or encrypted
// container entries. Opening a larger entry fails with [ErrDecode]. The
// default is [DefaultMaxEntrySize].
func WithMaxEntrySize(size int64) Option {
	return func(c *config) {
		c.maxSize = size
	}
}

// WithLogger sets the logger for debug messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
