// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc creates a new [Resource] for a [Cache] key.
type LoadFunc func() (*Resource, error)

// Cache shares live backings per key.
//
// As long as any [Resource] acquired for a key is open, further acquisitions
// share its backing instead of loading again. Concurrent first acquisitions
// load only once. Once the last resource of a key is closed, the backing is
// released and forgotten. The zero value is ready to use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	backing *Backing
	view    View
}

// Acquire returns a new [Resource] for the given key. It shares the live
// backing of the key if there is one, otherwise it calls load.
func (c *Cache) Acquire(key string, load LoadFunc) (*Resource, error) {
	for {
		if entry, ok := c.lookup(key); ok {
			return newResource(entry.backing, entry.view), nil
		}

		var created *Resource

		value, err, _ := c.group.Do(key, func() (any, error) {
			res, err := load()
			if err != nil {
				return nil, err
			}

			entry := cacheEntry{res.backing, res.view}
			c.store(key, entry)
			created = res

			return entry, nil
		})
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		entry, _ := value.(cacheEntry)
		retained := entry.backing.tryRetain()

		// The loading caller drops the initial reference only after it took
		// its own, so waiters sharing the result find the backing alive.
		if created != nil {
			_ = created.Close()
		}

		if retained {
			return newResource(entry.backing, entry.view), nil
		}
	}
}

// Len returns the number of live keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache) lookup(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists || !entry.backing.tryRetain() {
		return cacheEntry{}, false
	}

	return entry, true
}

func (c *Cache) store(key string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		c.entries = make(map[string]cacheEntry)
	}

	c.entries[key] = entry
	entry.backing.onFinal = func() { c.forget(key, entry.backing) }
}

func (c *Cache) forget(key string, backing *Backing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key].backing == backing {
		delete(c.entries, key)
	}
}
