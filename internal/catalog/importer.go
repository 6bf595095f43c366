package catalog

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// ImportResult summarises a catalogue import.
type ImportResult struct {
	Files    int `json:"files"`
	Loaded   int `json:"loaded"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Importer loads seed files and writes new products to the store.
// Products already present are left untouched.
type Importer struct {
	loader Loader
	store  Store
	logger zerolog.Logger
}

// NewImporter creates a catalogue importer.
func NewImporter(loader Loader, store Store, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Import loads every path concurrently and inserts the products in file order.
// Any load or validation failure aborts the import before anything is written.
func (im *Importer) Import(ctx context.Context, paths []string) (*ImportResult, error) {
	im.logger.Info().Int("file_count", len(paths)).Msg("importing catalogue")

	type loadResult struct {
		index    int
		products []model.Product
		err      error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			products, err := im.loader.Load(ctx, path)
			resultChan <- loadResult{index: index, products: products, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	result := &ImportResult{Files: len(paths)}
	seen := make(map[string]string)
	var products []model.Product

	for i, r := range results {
		if r.err != nil {
			im.logger.Error().Err(r.err).Str("file", paths[i]).Msg("failed to load catalogue file")
			return nil, fmt.Errorf("failed to load catalogue file %s: %w", paths[i], r.err)
		}

		for _, p := range r.products {
			if err := Validate(p); err != nil {
				return nil, fmt.Errorf("invalid product in %s: %w", paths[i], err)
			}
			if first, dup := seen[p.ID]; dup {
				im.logger.Warn().
					Str("product_id", p.ID).
					Str("file", paths[i]).
					Str("first_file", first).
					Msg("duplicate product id, keeping first")
				continue
			}
			seen[p.ID] = paths[i]
			products = append(products, p)
		}
	}
	result.Loaded = len(products)

	for i := range products {
		p := &products[i]

		if p.Slug == "" {
			base := Slugify(p.Name)
			if base == "" {
				base = Slugify(p.ID)
			}
			slug, err := uniqueSlug(ctx, im.store, base)
			if err != nil {
				return result, fmt.Errorf("failed to generate slug for %s: %w", p.ID, err)
			}
			p.Slug = slug
		}

		inserted, err := im.store.Insert(ctx, p)
		if err != nil {
			return result, fmt.Errorf("failed to store product %s: %w", p.ID, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	im.logger.Info().
		Int("files", result.Files).
		Int("loaded", result.Loaded).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("catalogue import finished")

	return result, nil
}
