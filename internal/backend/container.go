// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
	"hash/crc32"
	"iter"
	"path"
	"sync"
	"sync/atomic"

	"github.com/aibor/mapfs/internal/codec"
	"github.com/aibor/mapfs/internal/memory"
)

var _ Backend = (*Container)(nil)

// Container is a [Backend] for the entries of a container format.
//
// It holds a share of the bytes of the entry it was mounted from, so those
// stay valid as long as the container is open, no matter if the parent
// backend is still in use. The index is parsed once, on first use. Stored
// entries are returned as views into the container bytes. Compressed or
// encrypted entries are decoded into heap buffers that are shared between
// concurrent opens of the same entry.
//
// A Container is reference counted. It is created with one reference,
// [Container.Retain] adds one and [Container.Close] drops one.
type Container struct {
	format   Format
	name     string
	id       string
	source   *memory.Resource
	password []byte
	// maxSize limits decoded entry sizes. [codec.DefaultLimit] if 0.
	maxSize int64

	refs atomic.Int64

	once     sync.Once
	data     *memory.Resource
	prepared *memory.Resource
	index    *Index
	err      error
	loads    atomic.Int64

	entries memory.Cache
}

// NewContainer creates a [Container] of the given format for the source
// bytes. It takes over the source resource. The parent identifies the
// backend the source was opened from and name is its path there.
func NewContainer(
	format Format,
	source *memory.Resource,
	parent string,
	name string,
	password []byte,
) *Container {
	container := &Container{
		format:   format,
		name:     name,
		id:       format.Name() + ":" + parent + "/" + name,
		source:   source,
		password: password,
	}
	container.refs.Store(1)

	return container
}

func (c *Container) String() string {
	return c.id
}

// Format returns the format of the container.
func (c *Container) Format() Format {
	return c.format
}

// IndexLoads returns how often the index has been parsed. It is at most 1.
func (c *Container) IndexLoads() int64 {
	return c.loads.Load()
}

// Retain adds a reference. It returns false if the container is already
// closed.
func (c *Container) Retain() bool {
	for {
		refs := c.refs.Load()
		if refs <= 0 {
			return false
		}

		if c.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

// Close drops a reference. The last one releases the container bytes.
// Resources opened from the container stay valid.
func (c *Container) Close() error {
	refs := c.refs.Add(-1)
	if refs > 0 {
		return nil
	}

	if refs < 0 {
		return ErrClosed
	}

	var errs []error

	if c.prepared != nil {
		errs = append(errs, c.prepared.Close())
	}

	errs = append(errs, c.source.Close())

	return errors.Join(errs...)
}

// Load parses the index unless already done. Concurrent callers wait for
// the first one. The outcome, successful or not, is kept for the lifetime
// of the container.
func (c *Container) Load() (*Index, error) {
	if c.refs.Load() <= 0 {
		return nil, ErrClosed
	}

	c.once.Do(c.load)

	return c.index, c.err
}

func (c *Container) load() {
	c.loads.Add(1)

	c.data = c.source

	if preparer, ok := c.format.(Preparer); ok {
		prepared, err := preparer.Prepare(c.source.Bytes())
		if err != nil {
			c.err = fmt.Errorf("%w: %s: %w", ErrUnsupportedContainer, c.format.Name(), err)
			return
		}

		c.prepared = memory.FromHeap(prepared)
		c.data = c.prepared
	}

	records, err := c.format.Index(c.data.Bytes(), path.Base(c.name))
	if err != nil {
		c.err = fmt.Errorf("%w: %s: %w", ErrUnsupportedContainer, c.format.Name(), err)
		return
	}

	c.index, err = NewIndex(records, int64(c.data.Len()))
	if err != nil {
		c.err = fmt.Errorf("%w: %s: %w", ErrUnsupportedContainer, c.format.Name(), err)
	}
}

// Open returns the content of the entry with the given name.
func (c *Container) Open(name string) (*memory.Resource, error) {
	idx, err := c.Load()
	if err != nil {
		return nil, err
	}

	rec, err := idx.Lookup(name)
	if err != nil {
		return nil, err
	}

	if rec.Aliasable() && (rec.Size < 0 || rec.Size == rec.CompressedSize) {
		return c.data.Slice(rec.Offset, rec.CompressedSize) //nolint:wrapcheck
	}

	return c.entries.Acquire(rec.Name, func() (*memory.Resource, error) {
		data, err := c.decode(rec)
		if err != nil {
			return nil, err
		}

		return memory.FromHeap(data), nil
	})
}

func (c *Container) decode(rec *Record) ([]byte, error) {
	view, err := c.data.View().Slice(rec.Offset, rec.CompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedContainer, err)
	}

	raw := view.Bytes()

	if rec.Encrypted {
		raw, err = c.decrypt(rec, raw)
		if err != nil {
			return nil, err
		}
	}

	data, err := codec.Decompress(raw, rec.Method, rec.Size, c.maxSize)
	if err != nil {
		if rec.Encrypted && !errors.Is(err, codec.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecryptionFailed, rec.Name, err)
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, rec.Name, err)
	}

	if rec.HasCRC && crc32.ChecksumIEEE(data) != rec.CRC32 {
		if rec.Encrypted {
			return nil, fmt.Errorf("%w: %s: checksum mismatch", ErrDecryptionFailed, rec.Name)
		}

		return nil, fmt.Errorf("%w: %s: checksum mismatch", ErrDecode, rec.Name)
	}

	return data, nil
}

func (c *Container) decrypt(rec *Record, raw []byte) ([]byte, error) {
	decrypter, ok := c.format.(Decrypter)
	if !ok {
		return nil, fmt.Errorf("%w: %s: encryption not supported by %s",
			ErrUnsupportedContainer, rec.Name, c.format.Name())
	}

	if len(c.password) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPasswordRequired, rec.Name)
	}

	plain, err := decrypter.Decrypt(rec, raw, c.password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Name, err)
	}

	return plain, nil
}

// Stat returns the entry with the given name.
func (c *Container) Stat(name string) (Entry, error) {
	idx, err := c.Load()
	if err != nil {
		return Entry{}, err
	}

	return idx.Stat(name)
}

// List returns the entries of the directory with the given name.
func (c *Container) List(dir string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		idx, err := c.Load()
		if err != nil {
			yield(Entry{}, err)
			return
		}

		names, err := idx.Children(dir)
		if err != nil {
			yield(Entry{}, err)
			return
		}

		cleaned, _ := CleanName(dir)

		for _, name := range names {
			entry, err := idx.Stat(path.Join(cleaned, name))
			if !yield(entry, err) {
				return
			}
		}
	}
}
