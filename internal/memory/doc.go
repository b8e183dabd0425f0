// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package memory provides read-only byte views and the owning handles that
// keep them valid.
//
// A [Backing] is a reference counted allocation: an OS memory mapping of a
// file, a heap buffer holding decoded or copied bytes, or borrowed caller
// memory. A [Resource] holds exactly one share of a [Backing] and exposes a
// [View] on some range of it. Closing the last [Resource] sharing a
// [Backing] releases it, which unmaps OS mappings. Any number of resources
// may share one backing, each controlling when its own view becomes
// invalid.
//
// A [Cache] de-duplicates backings per key, so that repeated and concurrent
// opens of the same entry share the mapping or decoded buffer.
package memory
