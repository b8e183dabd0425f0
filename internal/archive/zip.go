// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zip"

	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/codec"
)

// Zip compression methods.
const (
	zipStore   = 0
	zipDeflate = 8
	zipBzip2   = 12
	zipZstd    = 93
	zipAES     = 99
)

const (
	zipFlagEncrypted  = 0x1
	zipFlagDescriptor = 0x8

	zipExtraAES = 0x9901
)

// methodUnsupported is reported for zip entries with a compression method
// the codec does not know. Decoding them fails.
const methodUnsupported = codec.Method(math.MaxUint8)

var (
	_ backend.Format    = (*Zip)(nil)
	_ backend.Decrypter = (*Zip)(nil)
)

// zipSys is the format specific data of encrypted zip records.
type zipSys struct {
	checkByte byte
	aes       *aesExtra
}

// Zip is the zip [backend.Format].
//
// Entries are stored, deflate, bzip2 or zstd compressed. Encrypted entries
// use the traditional PKWARE encryption or WinZip AES.
type Zip struct{}

func (*Zip) Name() string {
	return "zip"
}

func (*Zip) Match(name string) int {
	return backend.MatchExtension(name, ".zip", ".jar", ".apk", ".pk3")
}

func (*Zip) Probe(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04")) ||
		bytes.HasPrefix(data, []byte("PK\x05\x06"))
}

// Index reads the central directory.
func (*Zip) Index(data []byte, _ string) ([]backend.Record, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read central directory: %w", err)
	}

	records := make([]backend.Record, 0, len(reader.File))

	for _, file := range reader.File {
		rec := backend.Record{
			Name:           file.Name,
			CompressedSize: int64(file.CompressedSize64), //nolint:gosec
			Size:           int64(file.UncompressedSize64), //nolint:gosec
			CRC32:          file.CRC32,
			HasCRC:         true,
			Dir:            file.FileInfo().IsDir(),
		}

		if rec.Dir {
			records = append(records, rec)
			continue
		}

		rec.Offset, err = file.DataOffset()
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", file.Name, err)
		}

		method := file.Method

		if file.Flags&zipFlagEncrypted != 0 {
			rec.Encrypted = true
			sys := &zipSys{
				checkByte: byte(file.CRC32 >> 24),
			}

			if file.Flags&zipFlagDescriptor != 0 {
				sys.checkByte = byte(file.ModifiedTime >> 8)
			}

			if method == zipAES {
				sys.aes, err = parseAESExtra(file.Extra)
				if err != nil {
					return nil, fmt.Errorf("entry %s: %w", file.Name, err)
				}

				method = sys.aes.method
				// AE-2 does not store the checksum, the authentication
				// code covers the data instead.
				rec.HasCRC = sys.aes.vendorVersion == 1
			}

			rec.Sys = sys
		}

		rec.Method = zipMethod(method)
		records = append(records, rec)
	}

	return records, nil
}

// Decrypt returns the compressed data of the encrypted record.
func (*Zip) Decrypt(rec *backend.Record, raw, password []byte) ([]byte, error) {
	sys, ok := rec.Sys.(*zipSys)
	if !ok {
		return nil, fmt.Errorf("%w: no encryption header", backend.ErrDecode)
	}

	if sys.aes != nil {
		return decryptAES(sys.aes, raw, password)
	}

	return decryptZipCrypto(sys.checkByte, raw, password)
}

func zipMethod(method uint16) codec.Method {
	switch method {
	case zipStore:
		return codec.Store
	case zipDeflate:
		return codec.Deflate
	case zipBzip2:
		return codec.Bzip2
	case zipZstd:
		return codec.Zstd
	default:
		return methodUnsupported
	}
}

// aesExtra is the WinZip AES extra field.
type aesExtra struct {
	vendorVersion uint16
	strength      byte
	method        uint16
}

func parseAESExtra(extra []byte) (*aesExtra, error) {
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra)
		size := int(binary.LittleEndian.Uint16(extra[2:]))
		extra = extra[4:]

		if size > len(extra) {
			break
		}

		field := extra[:size]
		extra = extra[size:]

		if id != zipExtraAES {
			continue
		}

		if size < 7 || string(field[2:4]) != "AE" {
			return nil, fmt.Errorf("%w: malformed AES extra field", backend.ErrDecode)
		}

		return &aesExtra{
			vendorVersion: binary.LittleEndian.Uint16(field),
			strength:      field[4],
			method:        binary.LittleEndian.Uint16(field[5:]),
		}, nil
	}

	return nil, fmt.Errorf("%w: AES extra field missing", backend.ErrDecode)
}
