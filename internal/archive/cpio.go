// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/cavaliergopher/cpio"

	"github.com/aibor/mapfs/internal/backend"
)

const (
	cpioHeaderLen     = 110
	cpioNameSizeField = 94
)

var _ backend.Format = (*CPIO)(nil)

// CPIO is the [backend.Format] for cpio archives in the SVR4 "newc" format
// with or without checksums, as used for Linux initramfs archives.
//
// Only regular files and directories are indexed.
type CPIO struct{}

func (*CPIO) Name() string {
	return "cpio"
}

func (*CPIO) Match(name string) int {
	return backend.MatchExtension(name, ".cpio")
}

func (*CPIO) Probe(data []byte) bool {
	return bytes.HasPrefix(data, []byte("070701")) ||
		bytes.HasPrefix(data, []byte("070702"))
}

// Index reads all headers. Data offsets are derived from the header layout
// and validated against the headers read.
func (c *CPIO) Index(data []byte, _ string) ([]backend.Record, error) {
	reader := cpio.NewReader(bytes.NewReader(data))

	var (
		records []backend.Record
		offset  int64
	)

	for {
		hdr, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}

		dataOffset, err := cpioDataOffset(data, offset, hdr.Name)
		if err != nil {
			return nil, err
		}

		offset = align4(dataOffset + hdr.Size)

		switch {
		case hdr.Mode.IsRegular():
			records = append(records, backend.Record{
				Name:           hdr.Name,
				Offset:         dataOffset,
				CompressedSize: hdr.Size,
				Size:           hdr.Size,
			})
		case hdr.Mode.IsDir():
			records = append(records, backend.Record{
				Name: hdr.Name,
				Dir:  true,
			})
		}
	}
}

// cpioDataOffset returns the offset of the data of the entry whose header
// starts at hdrOffset.
func cpioDataOffset(data []byte, hdrOffset int64, name string) (int64, error) {
	if hdrOffset+cpioHeaderLen > int64(len(data)) {
		return 0, fmt.Errorf("header at %d: truncated", hdrOffset)
	}

	hdr := data[hdrOffset : hdrOffset+cpioHeaderLen]
	if !(&CPIO{}).Probe(hdr) {
		return 0, fmt.Errorf("header at %d: bad magic", hdrOffset)
	}

	nameSize, err := strconv.ParseInt(string(hdr[cpioNameSizeField:cpioNameSizeField+8]), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("header at %d: name size: %w", hdrOffset, err)
	}

	nameStart := hdrOffset + cpioHeaderLen
	if nameStart+nameSize > int64(len(data)) || nameSize < 1 ||
		string(data[nameStart:nameStart+nameSize-1]) != name {
		return 0, fmt.Errorf("header at %d: name does not match %q", hdrOffset, name)
	}

	return hdrOffset + align4(cpioHeaderLen+nameSize), nil
}

func align4(n int64) int64 {
	return (n + 3) &^ 3
}
