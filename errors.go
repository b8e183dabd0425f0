// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mapfs

import (
	"io/fs"

	"github.com/aibor/mapfs/internal/backend"
)

// PathError records an error and the operation and logical path that caused
// it.
type PathError = fs.PathError

var (
	// ErrNotFound is returned if a path segment or leaf does not exist.
	ErrNotFound = backend.ErrNotFound

	// ErrInvalidPath is returned for paths escaping the root.
	ErrInvalidPath = backend.ErrInvalidPath

	// ErrClosed is returned if a closed [FS], [File] or [VirtualPath] is
	// used.
	ErrClosed = backend.ErrClosed

	// ErrNotRegular is returned if a file is requested but the path names a
	// directory.
	ErrNotRegular = backend.ErrNotRegular

	// ErrNotDir is returned if a directory is requested but the path names a
	// regular file that is not a container.
	ErrNotDir = backend.ErrNotDir

	// ErrUnsupportedContainer is returned if a name matches a container
	// format but its content is not valid.
	ErrUnsupportedContainer = backend.ErrUnsupportedContainer

	// ErrPasswordRequired is returned if an entry is encrypted and no
	// password is configured for its container.
	ErrPasswordRequired = backend.ErrPasswordRequired

	// ErrDecryptionFailed is returned if an entry cannot be decrypted,
	// usually because of a wrong password.
	ErrDecryptionFailed = backend.ErrDecryptionFailed

	// ErrDecode is returned if a compressed entry is corrupt or larger than
	// the limit set with [WithMaxEntrySize].
	ErrDecode = backend.ErrDecode

	// ErrIO is returned if the OS fails to map or read a file.
	ErrIO = backend.ErrIO

	// ErrAmbiguousPath is returned if a container name and content match
	// more than one format equally well.
	ErrAmbiguousPath = backend.ErrAmbiguousPath
)

func pathError(op, name string, err error) error {
	return &PathError{
		Op:   op,
		Path: name,
		Err:  err,
	}
}
