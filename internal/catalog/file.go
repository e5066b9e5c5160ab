/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk YAML layout:
//
//	media:
//	  - id: D1
//	    src: /D1.mov
//	    title: Product Generation
type fileDocument struct {
	Media []MediaDescriptor `yaml:"media"`
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

// Decode parses a YAML catalog document.
func Decode(r io.Reader) (*Catalog, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return New(doc.Media)
}

// Encode writes the catalog as a YAML document.
func Encode(w io.Writer, c *Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fileDocument{Media: c.Entries()}); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
