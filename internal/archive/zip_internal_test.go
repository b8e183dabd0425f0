// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"bytes"
	"crypto/aes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/codec"
)

type zipTestEntry struct {
	name     string
	data     []byte
	method   uint16
	password string
	// AES strength 1 to 3, traditional encryption if 0.
	strength byte
	// AES vendor version, AE-2 if 0.
	aeVersion uint16
}

func (e zipTestEntry) compressed(t *testing.T) []byte {
	t.Helper()

	switch e.method {
	case zipStore:
		return e.data
	case zipDeflate:
		var buf bytes.Buffer

		writer, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		_, err = writer.Write(e.data)
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		return buf.Bytes()
	case zipZstd:
		return compress(t, codec.Zstd, e.data)
	default:
		require.FailNow(t, "unsupported method")
		return nil
	}
}

func encryptZipCrypto(t *testing.T, password string, checkByte byte, data []byte) []byte {
	t.Helper()

	header := make([]byte, zipCryptoHeaderLen)
	_, err := rand.Read(header[:zipCryptoHeaderLen-1])
	require.NoError(t, err)

	header[zipCryptoHeaderLen-1] = checkByte

	plain := append(header, data...)
	raw := make([]byte, len(plain))
	keys := newZipCryptoKeys([]byte(password))

	for idx, b := range plain {
		raw[idx] = b ^ keys.stream()
		keys.update(b)
	}

	return raw
}

func encryptAES(t *testing.T, password string, strength byte, data []byte) []byte {
	t.Helper()

	keyLen, err := aesKeyLen(strength)
	require.NoError(t, err)

	salt := make([]byte, keyLen/2)
	_, err = rand.Read(salt)
	require.NoError(t, err)

	keys := deriveAESKeys([]byte(password), salt, keyLen)

	block, err := aes.NewCipher(keys.enc)
	require.NoError(t, err)

	ciphertext := make([]byte, len(data))
	xorCTR(block, ciphertext, data)

	mac := hmac.New(sha1.New, keys.auth)
	mac.Write(ciphertext)

	raw := append([]byte{}, salt...)
	raw = append(raw, keys.verifier...)
	raw = append(raw, ciphertext...)

	return append(raw, mac.Sum(nil)[:aesAuthLen]...)
}

func aesExtraField(version uint16, strength byte, method uint16) []byte {
	field := binary.LittleEndian.AppendUint16(nil, zipExtraAES)
	field = binary.LittleEndian.AppendUint16(field, 7)
	field = binary.LittleEndian.AppendUint16(field, version)
	field = append(field, 'A', 'E', strength)

	return binary.LittleEndian.AppendUint16(field, method)
}

func buildZip(t *testing.T, entries ...zipTestEntry) []byte {
	t.Helper()

	var buf bytes.Buffer

	writer := zip.NewWriter(&buf)

	for _, entry := range entries {
		compressed := entry.compressed(t)
		hdr := &zip.FileHeader{
			Name:               entry.name,
			Method:             entry.method,
			CRC32:              crc32.ChecksumIEEE(entry.data),
			UncompressedSize64: uint64(len(entry.data)),
		}

		switch {
		case entry.password == "":
		case entry.strength == 0:
			hdr.Flags |= zipFlagEncrypted
			compressed = encryptZipCrypto(t, entry.password, byte(hdr.CRC32>>24), compressed)
		default:
			version := entry.aeVersion
			if version == 0 {
				version = 2
				hdr.CRC32 = 0
			}

			hdr.Flags |= zipFlagEncrypted
			hdr.Extra = aesExtraField(version, entry.strength, entry.method)
			hdr.Method = zipAES
			compressed = encryptAES(t, entry.password, entry.strength, compressed)
		}

		hdr.CompressedSize64 = uint64(len(compressed))

		fileWriter, err := writer.CreateRaw(hdr)
		require.NoError(t, err)
		_, err = fileWriter.Write(compressed)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func TestZip(t *testing.T) {
	long := bytes.Repeat([]byte("zip content "), 500)

	data := buildZip(t,
		zipTestEntry{name: "dir/", method: zipStore},
		zipTestEntry{name: "dir/stored.txt", data: []byte("stored content"), method: zipStore},
		zipTestEntry{name: "deflated.txt", data: long, method: zipDeflate},
		zipTestEntry{name: "zstd.txt", data: long, method: zipZstd},
		zipTestEntry{name: `win\path.txt`, data: []byte("backslash"), method: zipStore},
	)

	container, err := mount(t, data, "a.zip", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.Equal(t, "zip", container.Format().Name())
	assert.Equal(t, "stored content", readEntry(t, container, "dir/stored.txt"))
	assert.Equal(t, string(long), readEntry(t, container, "deflated.txt"))
	assert.Equal(t, string(long), readEntry(t, container, "zstd.txt"))
	assert.Equal(t, "backslash", readEntry(t, container, "win/path.txt"))

	assertAliased(t, container, data, "dir/stored.txt")

	entry, err := container.Stat("dir")
	require.NoError(t, err)
	assert.True(t, entry.Dir)

	entry, err = container.Stat("zstd.txt")
	require.NoError(t, err)
	assert.EqualValues(t, len(long), entry.Size)
}

func TestZipExtensions(t *testing.T) {
	data := buildZip(t, zipTestEntry{name: "x", data: []byte("x"), method: zipStore})

	for _, name := range []string{"a.zip", "a.jar", "a.apk", "a.pk3", "A.ZIP"} {
		t.Run(name, func(t *testing.T) {
			container, err := mount(t, data, name, "")
			require.NoError(t, err)

			assert.Equal(t, "x", readEntry(t, container, "x"))
			require.NoError(t, container.Close())
		})
	}
}

func TestZipEncrypted(t *testing.T) {
	content := bytes.Repeat([]byte("secret content "), 100)

	entries := []zipTestEntry{
		{name: "zipcrypto-store.txt", method: zipStore},
		{name: "zipcrypto-deflate.txt", method: zipDeflate},
		{name: "aes128.txt", method: zipDeflate, strength: 1},
		{name: "aes192.txt", method: zipStore, strength: 2},
		{name: "aes256.txt", method: zipDeflate, strength: 3},
		{name: "aes256-ae1.txt", method: zipStore, strength: 3, aeVersion: 1},
	}

	for idx := range entries {
		entries[idx].data = content
		entries[idx].password = "hunter2"
	}

	data := buildZip(t, append(entries,
		zipTestEntry{name: "plain.txt", data: []byte("plain"), method: zipStore},
	)...)

	tests := []struct {
		name        string
		password    string
		expectedErr error
	}{
		{
			name:     "correct password",
			password: "hunter2",
		},
		{
			name:        "wrong password",
			password:    "hunter3",
			expectedErr: backend.ErrDecryptionFailed,
		},
		{
			name:        "no password",
			expectedErr: backend.ErrPasswordRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container, err := mount(t, data, "secret.zip", tt.password)
			require.NoError(t, err)
			t.Cleanup(func() { _ = container.Close() })

			for _, entry := range entries {
				res, err := container.Open(entry.name)
				if tt.expectedErr != nil {
					require.ErrorIs(t, err, tt.expectedErr, entry.name)
					continue
				}

				require.NoError(t, err, entry.name)
				assert.Equal(t, content, res.Bytes(), entry.name)
				require.NoError(t, res.Close())
			}

			assert.Equal(t, "plain", readEntry(t, container, "plain.txt"))
		})
	}
}

func TestXorCTRCounter(t *testing.T) {
	block, err := aes.NewCipher(make([]byte, 16))
	require.NoError(t, err)

	data := make([]byte, 3*aes.BlockSize+5)
	encrypted := make([]byte, len(data))
	xorCTR(block, encrypted, data)

	var counter, expected [aes.BlockSize]byte

	counter[0] = 2
	block.Encrypt(expected[:], counter[:])

	assert.Equal(t, expected[:], encrypted[aes.BlockSize:2*aes.BlockSize])

	decrypted := make([]byte, len(data))
	xorCTR(block, decrypted, encrypted)
	assert.Equal(t, data, decrypted)
}
