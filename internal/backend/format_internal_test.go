// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeFormat is a container format for tests. Its data starts with magic,
// the records are given by the test.
type fakeFormat struct {
	name    string
	exts    []string
	magic   string
	records []Record
	err     error
}

func (f *fakeFormat) Name() string          { return f.name }
func (f *fakeFormat) Match(name string) int { return MatchExtension(name, f.exts...) }

func (f *fakeFormat) Probe(data []byte) bool {
	return bytes.HasPrefix(data, []byte(f.magic))
}

func (f *fakeFormat) Index([]byte, string) ([]Record, error) {
	if f.err != nil {
		return nil, f.err
	}

	// Index must not share records between containers.
	return append([]Record(nil), f.records...), nil
}

// xorFormat encrypts entries by xor with the first password byte.
type xorFormat struct {
	fakeFormat
}

var errWrongKey = errors.New("wrong key")

func (f *xorFormat) Decrypt(_ *Record, raw, password []byte) ([]byte, error) {
	if password[0] == 0 {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, errWrongKey)
	}

	plain := make([]byte, len(raw))
	for idx, b := range raw {
		plain[idx] = b ^ password[0]
	}

	return plain, nil
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		name     string
		exts     []string
		expected int
	}{
		{"a.zip", []string{".zip"}, 4},
		{"A.ZIP", []string{".zip"}, 4},
		{".zip", []string{".zip"}, 0},
		{"a.tar.gz", []string{".gz", ".tar.gz"}, 7},
		{"a.tgz", []string{".gz", ".tar.gz"}, 0},
		{"zip", []string{".zip"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchExtension(tt.name, tt.exts...))
		})
	}

	assert.Equal(t, "a.tar", TrimExtension("a.tar.gz", ".gz"))
	assert.Equal(t, "a", TrimExtension("a.tar.gz", ".gz", ".tar.gz"))
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name        string
		expected    string
		expectedErr error
	}{
		{"", "", nil},
		{".", "", nil},
		{"/", "", nil},
		{"/a/b", "a/b", nil},
		{"a//b/", "a/b", nil},
		{`a\b\c.txt`, "a/b/c.txt", nil},
		{"a/../b", "b", nil},
		{"../b", "", ErrInvalidPath},
		{"a/../../b", "", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := CleanName(tt.name)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, actual)
		})
	}
}
