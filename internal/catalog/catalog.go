/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package catalog holds the static, ordered list of media shown in the gallery.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCatalog indicates a catalog without entries.
	ErrEmptyCatalog = errors.New("catalog has no media")

	// ErrDuplicateID indicates two descriptors share an id.
	ErrDuplicateID = errors.New("duplicate media id")

	// ErrInvalidDescriptor indicates a descriptor missing its id or source.
	ErrInvalidDescriptor = errors.New("invalid media descriptor")
)

// MediaDescriptor identifies one gallery entry. Values are never mutated after construction.
type MediaDescriptor struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"src" yaml:"src"`
	Title  string `json:"title" yaml:"title"`
}

// Catalog is an immutable, ordered set of descriptors with unique ids.
type Catalog struct {
	entries []MediaDescriptor
	byID    map[string]int
}

// New validates descriptors and builds a catalog preserving their order.
func New(descriptors []MediaDescriptor) (*Catalog, error) {
	if len(descriptors) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		entries: make([]MediaDescriptor, 0, len(descriptors)),
		byID:    make(map[string]int, len(descriptors)),
	}
	for i, d := range descriptors {
		d.ID = strings.TrimSpace(d.ID)
		d.Source = strings.TrimSpace(d.Source)
		d.Title = strings.TrimSpace(d.Title)
		if d.ID == "" || d.Source == "" {
			return nil, fmt.Errorf("%w: entry %d needs id and src", ErrInvalidDescriptor, i)
		}
		if _, exists := c.byID[d.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		c.byID[d.ID] = len(c.entries)
		c.entries = append(c.entries, d)
	}
	return c, nil
}

// MustNew is New for static lists; it panics on invalid input.
func MustNew(descriptors []MediaDescriptor) *Catalog {
	c, err := New(descriptors)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the descriptors in catalog order.
func (c *Catalog) Entries() []MediaDescriptor {
	out := make([]MediaDescriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// IDs returns the descriptor ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, d := range c.entries {
		ids[i] = d.ID
	}
	return ids
}

// Lookup returns the descriptor with the given id.
func (c *Catalog) Lookup(id string) (MediaDescriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return MediaDescriptor{}, false
	}
	return c.entries[i], true
}

// BySource returns the first descriptor with the given source locator.
func (c *Catalog) BySource(source string) (MediaDescriptor, bool) {
	for _, d := range c.entries {
		if d.Source == source {
			return d, true
		}
	}
	return MediaDescriptor{}, false
}
