// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aibor/mapfs"
)

const localConfigFile = ".mapfs.yaml"

// Config is the content of a config file.
type Config struct {
	// Dir is the root directory.
	Dir string `yaml:"dir"`
	// NoMmap disables memory mapping.
	NoMmap bool `yaml:"no_mmap"`
	// Debug enables debug output.
	Debug bool `yaml:"debug"`
	// Passwords maps glob patterns of container paths to passwords. Patterns
	// without slash match the base name of the container.
	Passwords map[string]string `yaml:"passwords"`
}

// LoadConfig reads the config from the given file. A missing file results in
// an empty config. Environment variables may be used and are expanded with
// [os.ExpandEnv].
func LoadConfig(fsys fs.FS, file string) (*Config, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}

		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config

	decoder := yaml.NewDecoder(bytes.NewBufferString(os.ExpandEnv(string(content))))
	decoder.KnownFields(true)

	err = decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}

	for pattern := range cfg.Passwords {
		_, err := path.Match(pattern, "")
		if err != nil {
			return nil, fmt.Errorf("password pattern %q: %w", pattern, err)
		}
	}

	return &cfg, nil
}

// PasswordFunc returns a [mapfs.PasswordFunc] that returns the password of the
// most specific matching pattern, or the fallback if none matches. Path
// patterns are more specific than base name patterns. Among those, patterns
// with less wildcards are more specific, then longer ones.
func (c *Config) PasswordFunc(fallback string) mapfs.PasswordFunc {
	patterns := slices.SortedFunc(maps.Keys(c.Passwords), comparePatterns)

	return func(container string) []byte {
		for _, pattern := range patterns {
			name := container
			if !strings.Contains(pattern, "/") {
				name = path.Base(container)
			}

			if ok, _ := path.Match(pattern, name); ok {
				return []byte(c.Passwords[pattern])
			}
		}

		if fallback == "" {
			return nil
		}

		return []byte(fallback)
	}
}

func comparePatterns(a, b string) int {
	isPath := func(pattern string) bool {
		return strings.Contains(pattern, "/")
	}

	wildcards := func(pattern string) int {
		return strings.Count(pattern, "*") +
			strings.Count(pattern, "?") +
			strings.Count(pattern, "[")
	}

	switch {
	case isPath(a) != isPath(b):
		if isPath(a) {
			return -1
		}

		return 1
	case wildcards(a) != wildcards(b):
		return wildcards(a) - wildcards(b)
	case len(a) != len(b):
		return len(b) - len(a)
	default:
		return strings.Compare(a, b)
	}
}
