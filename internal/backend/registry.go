// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/aibor/mapfs/internal/memory"
)

// Registry is an ordered set of container [Format]s.
//
// A registry must not be modified while it is used for resolution.
type Registry struct {
	formats []Format
}

// NewRegistry creates a new [Registry] with the given formats.
func NewRegistry(formats ...Format) *Registry {
	return &Registry{formats: formats}
}

// Register adds the given formats.
func (r *Registry) Register(formats ...Format) {
	r.formats = append(r.formats, formats...)
}

// Formats returns the registered formats.
func (r *Registry) Formats() []Format {
	return slices.Clone(r.formats)
}

// Matches reports whether any format matches the given name.
func (r *Registry) Matches(name string) bool {
	base := path.Base(name)

	for _, format := range r.formats {
		if format.Match(base) > 0 {
			return true
		}
	}

	return false
}

// candidates returns the formats matching the name, grouped by match
// specificity, most specific group first.
func (r *Registry) candidates(name string) [][]Format {
	base := path.Base(name)
	groups := map[int][]Format{}

	for _, format := range r.formats {
		if score := format.Match(base); score > 0 {
			groups[score] = append(groups[score], format)
		}
	}

	scores := make([]int, 0, len(groups))
	for score := range groups {
		scores = append(scores, score)
	}

	slices.Sort(scores)
	slices.Reverse(scores)

	result := make([][]Format, 0, len(scores))
	for _, score := range scores {
		result = append(result, groups[score])
	}

	return result
}

// EnterOptions configures [Registry.Enter].
type EnterOptions struct {
	// Password for encrypted entries of the new container.
	Password []byte
	// MaxSize limits the decoded size of entries of the new container.
	// codec.DefaultLimit if 0.
	MaxSize int64
	// Logger for debug messages. [slog.Default] if nil.
	Logger *slog.Logger
}

// Enter opens the entry with the given name in parent and mounts it as
// container of the matching format.
//
// Formats are tried by their match specificity. Within a group of the same
// specificity, every format accepting the bytes of the entry parses them. If
// exactly one succeeds, its container is returned. If more than one
// succeeds, it returns [ErrAmbiguousPath]. If none does, formats of lower
// specificity are tried. If none succeeds at all, it returns
// [ErrUnsupportedContainer]. The index of the returned container is already
// loaded.
func (r *Registry) Enter(parent Backend, name string, opts EnterOptions) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	groups := r.candidates(name)
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no format matches %s", ErrUnsupportedContainer, name)
	}

	source, err := parent.Open(name)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	var errs []error

	for _, group := range groups {
		var mounted []*Container

		for _, format := range group {
			if !format.Probe(source.Bytes()) {
				continue
			}

			container, err := mountFormat(format, source, parent, name, opts)
			if err != nil {
				logger.Debug("Container format rejected",
					slog.String("name", name),
					slog.String("format", format.Name()),
					slog.Any("error", err))

				errs = append(errs, err)

				continue
			}

			mounted = append(mounted, container)
		}

		switch len(mounted) {
		case 0:
			continue
		case 1:
			logger.Debug("Container mounted",
				slog.String("container", mounted[0].String()),
				slog.Int("size", source.Len()))

			return mounted[0], nil
		default:
			formats := make([]Format, 0, len(mounted))

			for _, container := range mounted {
				formats = append(formats, container.Format())
				_ = container.Close()
			}

			return nil, fmt.Errorf("%w: %s: formats %s", ErrAmbiguousPath, name, formatNames(formats))
		}
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s: content does not match %s",
			ErrUnsupportedContainer, name, formatNames(slices.Concat(groups...)))
	}

	return nil, errors.Join(errs...)
}

// mountFormat creates a container of the given format for a share of source and
// loads its index.
func mountFormat(format Format, source *memory.Resource, parent Backend, name string, opts EnterOptions) (*Container, error) {
	share, err := source.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone source: %w", err)
	}

	container := NewContainer(format, share, parent.String(), name, opts.Password)
	container.maxSize = opts.MaxSize

	_, err = container.Load()
	if err != nil {
		_ = container.Close()
		return nil, err
	}

	return container, nil
}

func formatNames(formats []Format) string {
	names := make([]string, 0, len(formats))
	for _, format := range formats {
		names = append(names, format.Name())
	}

	return strings.Join(names, ", ")
}
