// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/aibor/mapfs/internal/backend"
)

const (
	aesIterations  = 1000
	aesVerifierLen = 2
	aesAuthLen     = 10
)

// aesKeyLen returns the key length for the given AES strength.
func aesKeyLen(strength byte) (int, error) {
	switch strength {
	case 1, 2, 3:
		return 8 + int(strength)*8, nil
	default:
		return 0, fmt.Errorf("%w: unknown AES strength %d", backend.ErrDecode, strength)
	}
}

type aesKeys struct {
	enc      []byte
	auth     []byte
	verifier []byte
}

func deriveAESKeys(password, salt []byte, keyLen int) aesKeys {
	key := pbkdf2.Key(password, salt, aesIterations, 2*keyLen+aesVerifierLen, sha1.New)

	return aesKeys{
		enc:      key[:keyLen],
		auth:     key[keyLen : 2*keyLen],
		verifier: key[2*keyLen:],
	}
}

// decryptAES decrypts raw data of a WinZip AES entry. The layout is salt,
// password verifier, cipher text and authentication code.
func decryptAES(extra *aesExtra, raw, password []byte) ([]byte, error) {
	keyLen, err := aesKeyLen(extra.strength)
	if err != nil {
		return nil, err
	}

	saltLen := keyLen / 2
	if len(raw) < saltLen+aesVerifierLen+aesAuthLen {
		return nil, fmt.Errorf("%w: encrypted data truncated", backend.ErrDecode)
	}

	salt := raw[:saltLen]
	verifier := raw[saltLen : saltLen+aesVerifierLen]
	ciphertext := raw[saltLen+aesVerifierLen : len(raw)-aesAuthLen]
	authCode := raw[len(raw)-aesAuthLen:]

	keys := deriveAESKeys(password, salt, keyLen)

	if subtle.ConstantTimeCompare(verifier, keys.verifier) != 1 {
		return nil, fmt.Errorf("%w: password verifier mismatch", backend.ErrDecryptionFailed)
	}

	mac := hmac.New(sha1.New, keys.auth)
	mac.Write(ciphertext)

	if !hmac.Equal(mac.Sum(nil)[:aesAuthLen], authCode) {
		return nil, fmt.Errorf("%w: authentication code mismatch", backend.ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(keys.enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrDecode, err)
	}

	plain := make([]byte, len(ciphertext))
	xorCTR(block, plain, ciphertext)

	return plain, nil
}

// xorCTR applies AES in counter mode with the little endian counter WinZip
// uses, starting at 1.
func xorCTR(block cipher.Block, dst, src []byte) {
	var (
		counter   [aes.BlockSize]byte
		keystream [aes.BlockSize]byte
	)

	for off := 0; off < len(src); off += aes.BlockSize {
		for idx := range counter {
			counter[idx]++
			if counter[idx] != 0 {
				break
			}
		}

		block.Encrypt(keystream[:], counter[:])

		end := min(off+aes.BlockSize, len(src))
		for idx := off; idx < end; idx++ {
			dst[idx] = src[idx] ^ keystream[idx-off]
		}
	}
}
