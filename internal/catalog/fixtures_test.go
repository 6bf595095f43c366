package catalog

import (
	"context"
	"sync"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

type productFixture struct {
	id, name, category, price string
}

func (f productFixture) product() model.Product {
	return model.Product{
		ID:       f.id,
		Name:     f.name,
		Category: f.category,
		Price:    decimal.RequireFromString(f.price),
	}
}

// memoryStore is an in-memory Store.
type memoryStore struct {
	mu       sync.Mutex
	products map[string]model.Product
	slugErr  error
}

func newMemoryStore(existing ...model.Product) *memoryStore {
	s := &memoryStore{products: map[string]model.Product{}}
	for _, p := range existing {
		s.products[p.ID] = p
	}
	return s
}

func (s *memoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugErr != nil {
		return false, s.slugErr
	}
	for _, p := range s.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) Insert(_ context.Context, p *model.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; ok {
		return false, nil
	}
	s.products[p.ID] = *p
	return true, nil
}

// mockLoader is a Loader backed by a function.
type mockLoader struct {
	loadFunc func(ctx context.Context, path string) ([]model.Product, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) ([]model.Product, error) {
	return m.loadFunc(ctx, path)
}
