package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id, category string, price string) model.Product {
	return model.Product{ID: id, Name: "Product " + id, Category: category, Price: decimal.RequireFromString(price)}
}

func TestProductService_GetAll(t *testing.T) {
	ctx := context.Background()

	products := []model.Product{
		testProduct("P001", model.CategoryDriver, "10.00"),
		testProduct("P002", model.CategoryIron, "20.00"),
	}

	tests := []struct {
		name          string
		limit         int
		offset        int
		expectedLimit int
		expectedOff   int
		repoErr       error
		wantErr       bool
	}{
		{name: "valid pagination", limit: 10, offset: 0, expectedLimit: 10, expectedOff: 0},
		{name: "zero limit uses default", limit: 0, offset: 0, expectedLimit: 10, expectedOff: 0},
		{name: "limit capped at 100", limit: 500, offset: 5, expectedLimit: 100, expectedOff: 5},
		{name: "negative offset clamped", limit: 20, offset: -3, expectedLimit: 20, expectedOff: 0},
		{name: "repository error", limit: 10, offset: 0, expectedLimit: 10, expectedOff: 0, repoErr: errors.New("db down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProductRepository)
			if tt.repoErr != nil {
				repo.On("GetAll", ctx, tt.expectedLimit, tt.expectedOff).Return(nil, tt.repoErr)
			} else {
				repo.On("GetAll", ctx, tt.expectedLimit, tt.expectedOff).Return(products, nil)
			}

			svc := NewProductService(repo, zerolog.Nop())
			result, err := svc.GetAll(ctx, tt.limit, tt.offset)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Len(t, result, 2)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestProductService_GetByID(t *testing.T) {
	ctx := context.Background()
	p := testProduct("P001", model.CategoryDriver, "10.00")

	t.Run("found", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("GetByID", ctx, "P001").Return(&p, nil)

		result, err := NewProductService(repo, zerolog.Nop()).GetByID(ctx, "P001")

		require.NoError(t, err)
		assert.Equal(t, "P001", result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("GetByID", ctx, "nope").Return(nil, nil)

		_, err := NewProductService(repo, zerolog.Nop()).GetByID(ctx, "nope")

		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		repo := new(MockProductRepository)

		_, err := NewProductService(repo, zerolog.Nop()).GetByID(ctx, "")

		assert.ErrorIs(t, err, model.ErrProductNotFound)
		repo.AssertNotCalled(t, "GetByID")
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("GetByID", ctx, "P001").Return(nil, errors.New("db down"))

		_, err := NewProductService(repo, zerolog.Nop()).GetByID(ctx, "P001")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrProductNotFound)
	})
}

func TestProductService_GetByIDs(t *testing.T) {
	ctx := context.Background()

	repo := new(MockProductRepository)
	repo.On("GetByIDs", ctx, []string{"P001"}).Return([]model.Product{testProduct("P001", model.CategoryWood, "1.00")}, nil)

	svc := NewProductService(repo, zerolog.Nop())

	result, err := svc.GetByIDs(ctx, []string{"P001"})
	require.NoError(t, err)
	assert.Len(t, result, 1)

	empty, err := svc.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	repo.AssertNumberOfCalls(t, "GetByIDs", 1)
}

func TestProductService_ListByCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("valid category", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("ListByCategory", ctx, model.CategoryWedge, 10, 0).
			Return([]model.Product{testProduct("W1", model.CategoryWedge, "99.00")}, nil)

		result, err := NewProductService(repo, zerolog.Nop()).ListByCategory(ctx, model.CategoryWedge, 0, 0)

		require.NoError(t, err)
		assert.Len(t, result, 1)
		repo.AssertExpectations(t)
	})

	t.Run("unknown category", func(t *testing.T) {
		repo := new(MockProductRepository)

		_, err := NewProductService(repo, zerolog.Nop()).ListByCategory(ctx, "ball", 10, 0)

		assert.ErrorIs(t, err, model.ErrInvalidCategory)
		repo.AssertNotCalled(t, "ListByCategory")
	})
}

func TestProductService_Featured(t *testing.T) {
	ctx := context.Background()

	repo := new(MockProductRepository)
	repo.On("Featured", ctx, 3).Return([]model.Product{
		testProduct("P1", model.CategoryPutter, "1.00"),
		testProduct("D1", model.CategoryDriver, "1.00"),
		testProduct("D2", model.CategoryDriver, "1.00"),
	}, nil)

	featured, err := NewProductService(repo, zerolog.Nop()).Featured(ctx)

	require.NoError(t, err)
	require.Len(t, featured, len(model.Categories))
	assert.Equal(t, model.CategoryDriver, featured[0].Category)
	assert.Len(t, featured[0].Products, 2)
	assert.Equal(t, model.CategoryWood, featured[1].Category)
	assert.NotNil(t, featured[1].Products)
	assert.Empty(t, featured[1].Products)
	assert.Equal(t, model.CategoryPutter, featured[5].Category)
	assert.Equal(t, "P1", featured[5].Products[0].ID)
}

func TestProductService_Categories(t *testing.T) {
	svc := NewProductService(new(MockProductRepository), zerolog.Nop())

	categories := svc.Categories()
	assert.Equal(t, model.Categories, categories)

	categories[0] = "changed"
	assert.Equal(t, model.CategoryDriver, model.Categories[0])
}
