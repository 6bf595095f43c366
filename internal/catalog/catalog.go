// Package catalog imports product seed files into the product store.
package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"

	"storefront/internal/model"

	"gopkg.in/yaml.v3"
)

// Loader defines the interface for loading catalogue seed files.
type Loader interface {
	// Load reads a YAML seed file, gzip-compressed or plain, and returns its products.
	Load(ctx context.Context, path string) ([]model.Product, error)
}

// Store is the subset of the product repository used by the importer.
type Store interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	Insert(ctx context.Context, product *model.Product) (bool, error)
}

// seedFile is the on-disk layout of a catalogue seed.
type seedFile struct {
	Products []model.Product `yaml:"products"`
}

// gzipMagic is the two-byte gzip header.
var gzipMagic = []byte{0x1f, 0x8b}

// decode parses a seed document, transparently inflating gzip input.
func decode(r io.Reader) ([]model.Product, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(gzipMagic))
	if err == nil && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	} else {
		r = br
	}

	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Product{}, nil
		}
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	if seed.Products == nil {
		seed.Products = []model.Product{}
	}

	return seed.Products, nil
}

// Validate checks a seed product before it is stored.
func Validate(p model.Product) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("product id is required")
	case p.Name == "":
		return fmt.Errorf("product %s: name is required", p.ID)
	case !model.IsValidCategory(p.Category):
		return fmt.Errorf("product %s: unknown category %q", p.ID, p.Category)
	case p.Price.IsNegative():
		return fmt.Errorf("product %s: price must not be negative", p.ID)
	case !p.Price.Equal(p.Price.Round(2)):
		return fmt.Errorf("product %s: price %s has more than two decimal places", p.ID, p.Price)
	}
	return nil
}
