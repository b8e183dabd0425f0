// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

var liveMappings atomic.Int64

// LiveMappings returns the number of OS memory mappings currently held by
// open resources of this process.
func LiveMappings() int64 {
	return liveMappings.Load()
}

// MapFile returns a [Resource] with the content of the file at the given
// path.
//
// If useMmap is true, the file is memory mapped read-only. If mapping is not
// possible, like for empty files, non-regular files or on platforms without
// support, the file is read into a heap buffer instead. The file descriptor
// is closed before returning, the mapping stays valid until the resource is
// closed.
func MapFile(path string, useMmap bool) (*Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	if useMmap && info.Mode().IsRegular() && info.Size() > 0 {
		// Some file systems refuse mappings. Those are read instead.
		res, err := mapOpenFile(file, info.Size())
		if err == nil {
			return res, nil
		}
	}

	return readOpenFile(file, info)
}

func mapOpenFile(file *os.File, size int64) (*Resource, error) {
	data, err := mmap(file, size)
	if err != nil {
		return nil, err
	}

	liveMappings.Add(1)

	free := func() error {
		liveMappings.Add(-1)
		return munmap(data)
	}

	return newResource(newBacking(data, KindMapped, free), View{data}), nil
}

func readOpenFile(file *os.File, info os.FileInfo) (*Resource, error) {
	var (
		data []byte
		err  error
	)

	if info.Mode().IsRegular() && info.Size() > 0 {
		data = make([]byte, info.Size())
		_, err = io.ReadFull(file, data)
	} else {
		// Special nodes often report a size of zero while having content.
		data, err = io.ReadAll(file)
	}

	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return FromHeap(data), nil
}
