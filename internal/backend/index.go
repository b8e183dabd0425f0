// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
)

// Index is the immutable lookup table of a container.
//
// Parent directories of all records exist implicitly. If a name occurs more
// than once, the last record wins.
type Index struct {
	records map[string]*Record
	dirs    map[string][]string
}

// NewIndex builds an [Index] from the given records. Records with names that
// cannot be addressed, like names escaping the root, are skipped. It returns
// an error if a record's data range exceeds dataSize.
func NewIndex(records []Record, dataSize int64) (*Index, error) {
	idx := &Index{
		records: make(map[string]*Record, len(records)),
	}
	children := map[string]map[string]struct{}{
		"": {},
	}

	for i := range records {
		rec := &records[i]

		name, isDir := normalizeRecordName(rec.Name)
		if name == "" {
			continue
		}

		rec.Name = name
		rec.Dir = rec.Dir || isDir

		if !rec.Dir {
			end := rec.Offset + rec.CompressedSize
			if rec.Offset < 0 || rec.CompressedSize < 0 || end < rec.Offset || end > dataSize {
				return nil, fmt.Errorf("entry %s: data range [%d:+%d] exceeds %d bytes",
					name, rec.Offset, rec.CompressedSize, dataSize)
			}
		}

		idx.records[name] = rec

		if rec.Dir {
			if _, exists := children[name]; !exists {
				children[name] = map[string]struct{}{}
			}
		}

		for name != "" {
			dir, base := path.Split(name)
			dir = strings.TrimSuffix(dir, "/")

			if _, exists := children[dir]; !exists {
				children[dir] = map[string]struct{}{}
			}

			children[dir][base] = struct{}{}
			name = dir
		}
	}

	idx.dirs = make(map[string][]string, len(children))
	for dir, names := range children {
		idx.dirs[dir] = slices.Sorted(maps.Keys(names))
	}

	return idx, nil
}

func normalizeRecordName(name string) (string, bool) {
	isDir := strings.HasSuffix(name, "/")

	cleaned, err := CleanName(strings.TrimPrefix(name, "./"))
	if err != nil {
		return "", false
	}

	return cleaned, isDir
}

// Len returns the number of records.
func (i *Index) Len() int {
	return len(i.records)
}

// Lookup returns the record of the regular entry with the given name.
func (i *Index) Lookup(name string) (*Record, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	rec, exists := i.records[cleaned]
	if exists && !rec.Dir {
		return rec, nil
	}

	if _, isDir := i.dirs[cleaned]; isDir {
		return nil, ErrNotRegular
	}

	return nil, ErrNotFound
}

// Stat returns the entry with the given name.
func (i *Index) Stat(name string) (Entry, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return Entry{}, err
	}

	if rec, exists := i.records[cleaned]; exists && !rec.Dir {
		return Entry{
			Name: path.Base(cleaned),
			Size: rec.Size,
		}, nil
	}

	if _, isDir := i.dirs[cleaned]; isDir {
		return Entry{
			Name: path.Base(cleaned),
			Dir:  true,
		}, nil
	}

	return Entry{}, ErrNotFound
}

// Children returns the sorted base names of the entries in the directory
// with the given name.
func (i *Index) Children(dir string) ([]string, error) {
	cleaned, err := CleanName(dir)
	if err != nil {
		return nil, err
	}

	names, isDir := i.dirs[cleaned]
	if isDir {
		return names, nil
	}

	if _, exists := i.records[cleaned]; exists {
		return nil, ErrNotDir
	}

	return nil, ErrNotFound
}

// Records returns all records sorted by name.
func (i *Index) Records() []*Record {
	return slices.SortedFunc(maps.Values(i.records), func(a, b *Record) int {
		return strings.Compare(a.Name, b.Name)
	})
}
