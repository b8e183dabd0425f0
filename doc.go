// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mapfs opens files by logical paths that may point through any
// number of nested containers and exposes their content as memory views.
//
// Container boundaries need no special syntax. A path segment is a
// container if its name matches a registered container format and its
// content is valid for the format:
//
//	fsys, err := mapfs.New("assets")
//	if err != nil {
//	    return err
//	}
//	defer fsys.Close()
//
//	file, err := fsys.OpenFile("pack.zip/models/tree.tar.gz/tree.obj")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	mesh, err := parseObj(file.Bytes())
//
// Regular host files are memory mapped. Entries stored uncompressed in a
// container alias the bytes of the container, so no bytes are copied.
// Compressed and encrypted entries are decoded into owned buffers. Repeated
// and concurrent opens of the same entry share the mapping or the decoded
// buffer. The memory is released when the last [File] using it is closed.
//
// Files referenced by another file are opened relative to its
// [VirtualPath]. Containers already mounted for the path are reused:
//
//	scene, err := fsys.Resolve("pack.zip/scene/scene.gltf")
//	if err != nil {
//	    return err
//	}
//	defer scene.Close()
//
//	texture, err := scene.OpenFile("textures/wood.png")
//
// The default container formats are zip (stored, deflate, bzip2, zstd, with
// ZipCrypto and AES encryption), tar, cpio, tar and cpio compressed with
// gzip, zstd or lz4, single gzip, zstd and lz4 streams, and age encrypted
// files. Passwords are configured with [WithPassword] or
// [WithPasswordFunc].
//
// [FS] implements [io/fs.FS], so it can be used with [io/fs.WalkDir],
// [net/http.FS] and the like.
package mapfs
