// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"slices"

	"github.com/aibor/mapfs"
)

type command func(fsys *mapfs.FS, name string, out io.Writer) error

var commands = map[string]command{
	"ls":   list,
	"cat":  cat,
	"stat": stat,
}

// list prints the sorted names of the entries of the directory or container.
func list(fsys *mapfs.FS, name string, out io.Writer) error {
	var names []string

	for entry, err := range fsys.List(name) {
		if err != nil {
			return err //nolint:wrapcheck
		}

		names = append(names, entry)
	}

	slices.Sort(names)

	for _, entry := range names {
		fmt.Fprintln(out, entry)
	}

	return nil
}

// cat writes the content of the regular file.
func cat(fsys *mapfs.FS, name string, out io.Writer) error {
	file, err := fsys.OpenFile(name)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer file.Close()

	_, err = out.Write(file.Bytes())
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// stat prints details of the regular file.
func stat(fsys *mapfs.FS, name string, out io.Writer) error {
	file, err := fsys.OpenFile(name)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer file.Close()

	digest := file.Digest()

	fmt.Fprintf(out, "name:     %s\n", file.Name())
	fmt.Fprintf(out, "filename: %s\n", file.Filename())
	fmt.Fprintf(out, "pathname: %s\n", file.Pathname())
	fmt.Fprintf(out, "size:     %d\n", file.Size())
	fmt.Fprintf(out, "mapped:   %t\n", file.Mapped())
	fmt.Fprintf(out, "blake3:   %s\n", hex.EncodeToString(digest[:]))

	return nil
}
