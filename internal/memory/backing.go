// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"sync/atomic"
)

// Kind describes where the bytes of a [Backing] live.
type Kind uint8

const (
	// KindHeap is an owned buffer on the Go heap, holding decoded, decrypted
	// or copied bytes.
	KindHeap Kind = iota
	// KindMapped is an OS memory mapping of a file.
	KindMapped
	// KindBorrowed is caller owned memory. Nothing is released.
	KindBorrowed
)

func (k Kind) String() string {
	switch k {
	case KindHeap:
		return "heap"
	case KindMapped:
		return "mmap"
	case KindBorrowed:
		return "borrowed"
	default:
		return "unknown"
	}
}

// Backing is a reference counted allocation shared by one or more
// [Resource]s.
//
// It starts with one reference. The release function runs exactly once,
// when the last reference is dropped.
type Backing struct {
	data    []byte
	kind    Kind
	refs    atomic.Int64
	free    func() error
	onFinal func()
}

func newBacking(data []byte, kind Kind, free func() error) *Backing {
	b := &Backing{
		data: data,
		kind: kind,
		free: free,
	}
	b.refs.Store(1)

	return b
}

// tryRetain adds a reference unless the backing is already released.
func (b *Backing) tryRetain() bool {
	for {
		refs := b.refs.Load()
		if refs <= 0 {
			return false
		}

		if b.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

func (b *Backing) release() error {
	refs := b.refs.Add(-1)
	if refs > 0 {
		return nil
	}

	if refs < 0 {
		panic("memory: backing released more often than retained")
	}

	if b.onFinal != nil {
		b.onFinal()
	}

	if b.free == nil {
		return nil
	}

	return b.free()
}
