// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"fmt"
	"hash/crc32"

	"github.com/aibor/mapfs/internal/backend"
)

const zipCryptoHeaderLen = 12

// zipCryptoKeys is the state of the traditional PKWARE stream cipher.
type zipCryptoKeys [3]uint32

func newZipCryptoKeys(password []byte) *zipCryptoKeys {
	keys := &zipCryptoKeys{0x12345678, 0x23456789, 0x34567890}
	for _, b := range password {
		keys.update(b)
	}

	return keys
}

func crc32Update(crc uint32, b byte) uint32 {
	return crc32.IEEETable[byte(crc)^b] ^ (crc >> 8)
}

func (k *zipCryptoKeys) update(plain byte) {
	k[0] = crc32Update(k[0], plain)
	k[1] = (k[1]+(k[0]&0xff))*134775813 + 1
	k[2] = crc32Update(k[2], byte(k[1]>>24))
}

func (k *zipCryptoKeys) stream() byte {
	temp := k[2] | 2
	return byte((temp * (temp ^ 1)) >> 8)
}

func (k *zipCryptoKeys) decrypt(dst, src []byte) {
	for idx, c := range src {
		plain := c ^ k.stream()
		k.update(plain)
		dst[idx] = plain
	}
}

// decryptZipCrypto decrypts raw data of an entry with traditional PKWARE
// encryption. The last byte of the encryption header must match checkByte.
func decryptZipCrypto(checkByte byte, raw, password []byte) ([]byte, error) {
	if len(raw) < zipCryptoHeaderLen {
		return nil, fmt.Errorf("%w: encryption header truncated", backend.ErrDecode)
	}

	keys := newZipCryptoKeys(password)

	var header [zipCryptoHeaderLen]byte
	keys.decrypt(header[:], raw[:zipCryptoHeaderLen])

	if header[zipCryptoHeaderLen-1] != checkByte {
		return nil, fmt.Errorf("%w: password check failed", backend.ErrDecryptionFailed)
	}

	plain := make([]byte, len(raw)-zipCryptoHeaderLen)
	keys.decrypt(plain, raw[zipCryptoHeaderLen:])

	return plain, nil
}
