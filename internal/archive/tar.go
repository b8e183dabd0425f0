// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aibor/mapfs/internal/backend"
)

const (
	tarBlockSize   = 512
	tarMagicOffset = 257
)

var _ backend.Format = (*Tar)(nil)

// Tar is the [backend.Format] for uncompressed tar archives.
//
// Only regular files and directories are indexed. Sparse files are skipped
// as their data is not contiguous.
type Tar struct{}

func (*Tar) Name() string {
	return "tar"
}

func (*Tar) Match(name string) int {
	return backend.MatchExtension(name, ".tar")
}

// Probe checks for the ustar magic. Archives in the pre POSIX format have
// none and are not detected.
func (*Tar) Probe(data []byte) bool {
	if len(data) < tarBlockSize {
		return false
	}

	return bytes.HasPrefix(data[tarMagicOffset:], []byte("ustar"))
}

// Index reads all headers. The data of an entry starts right after its
// header blocks.
func (*Tar) Index(data []byte, _ string) ([]backend.Record, error) {
	source := bytes.NewReader(data)
	reader := tar.NewReader(source)

	var records []backend.Record

	for {
		hdr, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}

		switch hdr.Typeflag {
		case tar.TypeReg, tar.TypeRegA: //nolint:staticcheck
			if isSparse(hdr) {
				continue
			}

			offset := source.Size() - int64(source.Len())
			if offset%tarBlockSize != 0 {
				return nil, fmt.Errorf("entry %s: unaligned data offset %d", hdr.Name, offset)
			}

			records = append(records, backend.Record{
				Name:           hdr.Name,
				Offset:         offset,
				CompressedSize: hdr.Size,
				Size:           hdr.Size,
			})
		case tar.TypeDir:
			records = append(records, backend.Record{
				Name: hdr.Name,
				Dir:  true,
			})
		}
	}
}

// isSparse reports whether the header describes a sparse file in one of the
// PAX sparse formats, which are presented as regular files.
func isSparse(hdr *tar.Header) bool {
	for key := range hdr.PAXRecords {
		if strings.HasPrefix(key, "GNU.sparse.") {
			return true
		}
	}

	return false
}
