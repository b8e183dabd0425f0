// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/aibor/mapfs/internal/memory"
)

const readDirBatchSize = 64

var _ Backend = (*Directory)(nil)

// Directory is a [Backend] for a directory of the host file system.
//
// Regular files are memory mapped if enabled, otherwise or if mapping is not
// possible they are read into heap buffers. Repeated opens of an unchanged
// file share one mapping.
type Directory struct {
	root    string
	useMmap bool
	logger  *slog.Logger
	files   memory.Cache
}

// NewDirectory creates a new [Directory] rooted at the given directory path.
func NewDirectory(root string, useMmap bool, logger *slog.Logger) (*Directory, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, osError(err)
	}

	if !info.IsDir() {
		return nil, ErrNotDir
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Directory{
		root:    root,
		useMmap: useMmap && memory.MmapSupported,
		logger:  logger,
	}, nil
}

// Root returns the absolute host path of the directory.
func (d *Directory) Root() string {
	return d.root
}

func (d *Directory) String() string {
	return "dir:" + d.root
}

// Open maps or reads the file with the given name.
func (d *Directory) Open(name string) (*memory.Resource, error) {
	hostPath, err := d.hostPath(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(hostPath)
	if err != nil {
		return nil, osError(err)
	}

	if info.IsDir() {
		return nil, ErrNotRegular
	}

	key := hostPath + "\x00" + strconv.FormatInt(info.Size(), 10) +
		"\x00" + strconv.FormatInt(info.ModTime().UnixNano(), 10)

	return d.files.Acquire(key, func() (*memory.Resource, error) {
		res, err := memory.MapFile(hostPath, d.useMmap)
		if err != nil {
			return nil, osError(err)
		}

		if d.useMmap && res.Kind() != memory.KindMapped {
			d.logger.Debug("File read instead of mapped",
				slog.String("path", hostPath),
				slog.Int("size", res.Len()))
		}

		return res, nil
	})
}

// Stat returns information about the file with the given name.
func (d *Directory) Stat(name string) (Entry, error) {
	hostPath, err := d.hostPath(name)
	if err != nil {
		return Entry{}, err
	}

	info, err := os.Stat(hostPath)
	if err != nil {
		return Entry{}, osError(err)
	}

	return entryFromInfo(info), nil
}

// List returns the entries of the directory with the given name in batches.
func (d *Directory) List(dir string) iter.Seq2[Entry, error] {
	hostPath, err := d.hostPath(dir)
	if err != nil {
		return singleError[Entry](err)
	}

	return func(yield func(Entry, error) bool) {
		file, err := os.Open(hostPath)
		if err != nil {
			yield(Entry{}, osError(err))
			return
		}
		defer file.Close()

		for {
			dirEntries, err := file.ReadDir(readDirBatchSize)
			for _, dirEntry := range dirEntries {
				info, err := dirEntry.Info()
				if err != nil {
					// Entry vanished since reading the directory.
					if errors.Is(err, fs.ErrNotExist) {
						continue
					}

					yield(Entry{}, osError(err))

					return
				}

				if !yield(entryFromInfo(info), nil) {
					return
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				yield(Entry{}, osError(err))
				return
			}
		}
	}
}

func (d *Directory) hostPath(name string) (string, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return "", err
	}

	return filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}

func entryFromInfo(info fs.FileInfo) Entry {
	return Entry{
		Name: info.Name(),
		Size: info.Size(),
		Dir:  info.IsDir(),
	}
}

// osError keeps not-exist errors as they are and marks all other OS errors
// with [ErrIO]. Path components that are not directories count as not
// existing.
func osError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if errors.Is(err, syscall.ENOTDIR) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %w", ErrIO, err)
}
