// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MountFunc mounts a new [Container] for a [Mounts] key.
type MountFunc func() (*Container, error)

// Mounts shares mounted containers per key.
//
// It holds a reference of every container it mounted until [Mounts.Close],
// so a container entry is mounted and its index parsed once, no matter how
// often paths through it are resolved. Concurrent first acquisitions mount
// only once. Failed mounts are not kept. After Close, acquisitions mount
// without keeping the container. The zero value is ready to use.
type Mounts struct {
	mu         sync.Mutex
	containers map[string]*Container
	closed     bool
	group      singleflight.Group
}

// Acquire returns the container for the given key with a new reference. It
// shares the container of the key if there is one, otherwise it calls mount.
func (m *Mounts) Acquire(key string, mount MountFunc) (*Container, error) {
	for {
		if container, ok := m.lookup(key); ok {
			return container, nil
		}

		var created *Container

		value, err, _ := m.group.Do(key, func() (any, error) {
			// Another flight may have finished since the lookup above.
			if container, ok := m.lookup(key); ok {
				created = container
				return container, nil
			}

			container, err := mount()
			if err != nil {
				return nil, err
			}

			m.store(key, container)
			created = container

			return container, nil
		})
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		// The calling flight owns the reference it got from mount or lookup.
		if created != nil {
			return created, nil
		}

		container, _ := value.(*Container)
		if container.Retain() {
			return container, nil
		}
	}
}

// Len returns the number of kept containers.
func (m *Mounts) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.containers)
}

// Close drops the references of all kept containers. Containers still in
// use stay valid until their last reference is dropped. It is idempotent.
func (m *Mounts) Close() error {
	m.mu.Lock()
	containers := m.containers
	m.containers = nil
	m.closed = true
	m.mu.Unlock()

	errs := make([]error, 0, len(containers))
	for _, container := range containers {
		errs = append(errs, container.Close())
	}

	return errors.Join(errs...)
}

func (m *Mounts) lookup(key string) (*Container, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	container, exists := m.containers[key]
	if !exists || !container.Retain() {
		return nil, false
	}

	return container, true
}

// store keeps the container with a reference of its own, unless closed.
func (m *Mounts) store(key string, container *Container) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || !container.Retain() {
		return
	}

	if m.containers == nil {
		m.containers = make(map[string]*Container)
	}

	m.containers[key] = container
}
