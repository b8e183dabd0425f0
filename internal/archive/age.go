// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/aibor/mapfs/internal/backend"
	"github.com/aibor/mapfs/internal/codec"
)

const (
	ageIntro     = "age-encryption.org/v1\n"
	ageNonceLen  = 16
	ageTagLen    = 16
	ageChunkSize = 64 << 10
)

var (
	_ backend.Format    = (*Age)(nil)
	_ backend.Decrypter = (*Age)(nil)
)

// Age is the [backend.Format] for files encrypted with age, binary or
// armored. The container has exactly one entry, named like the container
// without the ".age" extension. Only passphrase (scrypt) encryption is
// supported.
type Age struct{}

func (*Age) Name() string {
	return "age"
}

func (*Age) Match(name string) int {
	return backend.MatchExtension(name, ".age")
}

func (*Age) Probe(data []byte) bool {
	return bytes.HasPrefix(data, []byte(ageIntro)) ||
		bytes.HasPrefix(data, []byte(armor.Header))
}

// Index returns the single entry. Its size is derived from the payload
// length, which is split into chunks each carrying an authentication tag.
func (a *Age) Index(data []byte, name string) ([]backend.Record, error) {
	binary, err := dearmor(data)
	if err != nil {
		return nil, err
	}

	size, err := agePlainSize(binary)
	if err != nil {
		return nil, err
	}

	return []backend.Record{{
		Name:           backend.TrimExtension(name, ".age"),
		CompressedSize: int64(len(data)),
		Size:           size,
		Method:         codec.Store,
		Encrypted:      true,
	}}, nil
}

// Decrypt decrypts the whole file with the password as passphrase.
func (*Age) Decrypt(_ *backend.Record, raw, password []byte) ([]byte, error) {
	binary, err := dearmor(raw)
	if err != nil {
		return nil, err
	}

	identity, err := age.NewScryptIdentity(string(password))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrDecryptionFailed, err)
	}

	reader, err := age.Decrypt(bytes.NewReader(binary), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) || errors.Is(err, age.ErrIncorrectIdentity) {
			return nil, fmt.Errorf("%w: %w", backend.ErrDecryptionFailed, err)
		}

		return nil, fmt.Errorf("%w: %w", backend.ErrDecode, err)
	}

	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrDecryptionFailed, err)
	}

	return plain, nil
}

func dearmor(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte(armor.Header)) {
		return data, nil
	}

	binary, err := io.ReadAll(armor.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: armor: %w", backend.ErrDecode, err)
	}

	return binary, nil
}

// agePlainSize computes the plaintext size of a binary age file.
func agePlainSize(data []byte) (int64, error) {
	if !bytes.HasPrefix(data, []byte(ageIntro)) {
		return 0, errors.New("missing age header")
	}

	macLine := bytes.Index(data, []byte("\n--- "))
	if macLine < 0 {
		return 0, errors.New("age header not terminated")
	}

	headerEnd := bytes.IndexByte(data[macLine+1:], '\n')
	if headerEnd < 0 {
		return 0, errors.New("age header not terminated")
	}

	payload := int64(len(data) - (macLine + 1 + headerEnd + 1) - ageNonceLen)
	if payload < ageTagLen {
		return 0, errors.New("age payload truncated")
	}

	const sealedChunk = ageChunkSize + ageTagLen

	chunks := (payload + sealedChunk - 1) / sealedChunk
	if last := payload - (chunks-1)*sealedChunk; last < ageTagLen {
		return 0, errors.New("age payload truncated")
	}

	return payload - chunks*ageTagLen, nil
}
