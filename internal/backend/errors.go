// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"errors"
	"io/fs"
)

var (
	// ErrNotFound is returned if a path segment or leaf does not exist.
	ErrNotFound = fs.ErrNotExist

	// ErrInvalidPath is returned for names that are not valid relative
	// slash separated paths.
	ErrInvalidPath = fs.ErrInvalid

	// ErrClosed is returned if a closed backend is used.
	ErrClosed = fs.ErrClosed

	// ErrNotRegular is returned if a leaf is requested but the entry is not a
	// regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrNotDir is returned if a directory is requested but the entry is not
	// one.
	ErrNotDir = errors.New("not a directory")

	// ErrUnsupportedContainer is returned if a name matches a known container
	// format but the content fails validation.
	ErrUnsupportedContainer = errors.New("unsupported container")

	// ErrPasswordRequired is returned if an entry is encrypted and no
	// password is given.
	ErrPasswordRequired = errors.New("password required")

	// ErrDecryptionFailed is returned if decryption fails, usually because
	// of a wrong password.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrDecode is returned if a compressed stream is corrupt.
	ErrDecode = errors.New("decode failed")

	// ErrIO is returned for OS level mapping or read failures.
	ErrIO = errors.New("i/o error")

	// ErrAmbiguousPath is returned if more than one container format of the
	// same specificity accepts an entry.
	ErrAmbiguousPath = errors.New("ambiguous container path")
)
