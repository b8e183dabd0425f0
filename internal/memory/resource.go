// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"io"
	"sync"
	"sync/atomic"
)

var _ io.Closer = (*Resource)(nil)

// Resource is an owning handle on a [View]. It holds one share of the
// [Backing] the view points into.
//
// Close must be called exactly when the view is no longer needed. It is
// idempotent. Reading the view concurrently with Close is not allowed.
type Resource struct {
	backing *Backing
	view    View

	closed   atomic.Bool
	once     sync.Once
	closeErr error
}

func newResource(backing *Backing, view View) *Resource {
	return &Resource{
		backing: backing,
		view:    view,
	}
}

// FromHeap creates a [Resource] that owns the given buffer. The caller must
// not modify the buffer afterwards.
func FromHeap(data []byte) *Resource {
	return newResource(newBacking(data, KindHeap, nil), View{data})
}

// Borrow creates a [Resource] for caller owned memory. The caller must keep
// the memory unmodified for as long as the resource or any resource derived
// from it is open.
func Borrow(data []byte) *Resource {
	return newResource(newBacking(data, KindBorrowed, nil), View{data})
}

// View returns the view of the resource. It is empty once the resource is
// closed.
func (r *Resource) View() View {
	if r.closed.Load() {
		return View{}
	}

	return r.view
}

// Bytes is a shortcut for View().Bytes().
func (r *Resource) Bytes() []byte {
	return r.View().Bytes()
}

// Len returns the number of bytes of the view.
func (r *Resource) Len() int {
	return r.View().Len()
}

// Kind returns the kind of the underlying [Backing].
func (r *Resource) Kind() Kind {
	return r.backing.kind
}

// Closed reports whether the resource has been closed.
func (r *Resource) Closed() bool {
	return r.closed.Load()
}

// Slice returns a new [Resource] for the sub range of length n starting at
// off. It shares the backing, so no bytes are copied, and it stays valid
// after r is closed.
func (r *Resource) Slice(off, n int64) (*Resource, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	view, err := r.view.Slice(off, n)
	if err != nil {
		return nil, err
	}

	if !r.backing.tryRetain() {
		return nil, ErrClosed
	}

	return newResource(r.backing, view), nil
}

// Clone returns a new [Resource] with the same view sharing the backing.
func (r *Resource) Clone() (*Resource, error) {
	return r.Slice(0, int64(r.view.Len()))
}

// Close releases the share of the backing. The last close of a shared
// backing unmaps or drops it.
func (r *Resource) Close() error {
	r.once.Do(func() {
		r.closed.Store(true)
		r.closeErr = r.backing.release()
	})

	return r.closeErr
}
