// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"strings"

	"github.com/aibor/mapfs/internal/codec"
)

// Format is a container format whose bytes form a nested file system.
type Format interface {
	// Name returns the short name of the format, like "zip".
	Name() string

	// Match reports how specific the format matches the given entry name.
	// It returns 0 if the name does not match at all. Higher values win, so
	// ".tar.gz" can take precedence over ".gz".
	Match(name string) int

	// Probe reports whether the data looks like this format, usually by
	// checking magic numbers. It must be cheap.
	Probe(data []byte) bool

	// Index parses the container index. The name is the base name of the
	// container entry. Offsets of the returned records refer to data.
	Index(data []byte, name string) ([]Record, error)
}

// Preparer is implemented by formats that need to transform the container
// bytes before indexing, like decompressing a compressed tar stream. Record
// offsets then refer to the prepared bytes.
type Preparer interface {
	Prepare(data []byte) ([]byte, error)
}

// Decrypter is implemented by formats supporting encrypted entries.
//
// Decrypt returns the plain, still compressed, bytes of the record. It
// returns [ErrDecryptionFailed] if the password does not match.
type Decrypter interface {
	Decrypt(rec *Record, raw, password []byte) ([]byte, error)
}

// Record is an entry of a container index.
type Record struct {
	// Name is the slash separated path of the entry in the container.
	Name string
	// Offset is the position of the raw entry data in the container data.
	Offset int64
	// CompressedSize is the length of the raw entry data.
	CompressedSize int64
	// Size is the decoded size. Negative if unknown.
	Size int64
	// Method is the compression method of the raw data after decryption.
	Method codec.Method
	// Encrypted is true if the raw data must be decrypted.
	Encrypted bool
	// CRC32 is the IEEE checksum of the decoded data, valid if HasCRC.
	CRC32  uint32
	HasCRC bool
	// Dir is true for explicit directory entries.
	Dir bool
	// Sys holds format specific data.
	Sys any
}

// Aliasable reports whether the entry data can be used as is, without
// decoding or decryption.
func (r *Record) Aliasable() bool {
	return r.Method == codec.Store && !r.Encrypted
}

// MatchExtension returns the length of the longest of the given extensions
// the name ends with, ignoring case. It returns 0 if none matches. The name
// must be longer than the extension.
func MatchExtension(name string, extensions ...string) int {
	lower := strings.ToLower(name)
	best := 0

	for _, ext := range extensions {
		if len(lower) > len(ext) && strings.HasSuffix(lower, ext) && len(ext) > best {
			best = len(ext)
		}
	}

	return best
}

// TrimExtension removes the longest matching of the given extensions from
// the name.
func TrimExtension(name string, extensions ...string) string {
	n := MatchExtension(name, extensions...)
	return name[:len(name)-n]
}
