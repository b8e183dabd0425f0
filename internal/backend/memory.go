// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"iter"

	"github.com/aibor/mapfs/internal/memory"
)

var _ Backend = (*Memory)(nil)

// Memory is a [Backend] for a single caller supplied blob.
//
// It has exactly one entry, which is opened by its name or by the empty
// name. Opening never copies and there is no OS resource to release. It is
// used to parse a blob held in memory as if it were a file system, with a
// container mounted on top of it.
type Memory struct {
	name   string
	source *memory.Resource
}

// NewMemory creates a [Memory] backend for the given bytes. The caller must
// not modify data while the backend or any resource opened from it is in
// use.
func NewMemory(data []byte, name string) *Memory {
	return &Memory{
		name:   name,
		source: memory.Borrow(data),
	}
}

// Name returns the name of the single entry.
func (m *Memory) Name() string {
	return m.name
}

func (m *Memory) String() string {
	return "memory:" + m.name
}

// Open returns the blob if name is empty or the name of the blob.
func (m *Memory) Open(name string) (*memory.Resource, error) {
	if !m.matches(name) {
		return nil, ErrNotFound
	}

	return m.source.Clone() //nolint:wrapcheck
}

// Stat returns the entry of the blob.
func (m *Memory) Stat(name string) (Entry, error) {
	if !m.matches(name) {
		return Entry{}, ErrNotFound
	}

	return m.entry(), nil
}

// List yields the entry of the blob for the root directory.
func (m *Memory) List(dir string) iter.Seq2[Entry, error] {
	cleaned, err := CleanName(dir)
	if err != nil {
		return singleError[Entry](err)
	}

	if cleaned != "" {
		if m.matches(cleaned) {
			return singleError[Entry](ErrNotDir)
		}

		return singleError[Entry](ErrNotFound)
	}

	return func(yield func(Entry, error) bool) {
		if m.name != "" {
			yield(m.entry(), nil)
		}
	}
}

func (m *Memory) entry() Entry {
	return Entry{
		Name: m.name,
		Size: int64(m.source.Len()),
	}
}

func (m *Memory) matches(name string) bool {
	cleaned, err := CleanName(name)
	if err != nil {
		return false
	}

	return cleaned == "" || cleaned == m.name
}
