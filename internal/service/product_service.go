package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// featuredPerCategory is how many products each category shows on the home page.
const featuredPerCategory = 3

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// normalisePage clamps pagination parameters.
func normalisePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = normalisePage(limit, offset)

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (s *productService) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to get products by IDs")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	return products, nil
}

// ListByCategory retrieves the products of a category.
func (s *productService) ListByCategory(ctx context.Context, category string, limit, offset int) ([]model.Product, error) {
	if !model.IsValidCategory(category) {
		s.logger.Debug().Str("category", category).Msg("unknown category")
		return nil, model.ErrInvalidCategory
	}

	limit, offset = normalisePage(limit, offset)

	products, err := s.productRepo.ListByCategory(ctx, category, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("category", category).Msg("failed to list products by category")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	return products, nil
}

// Featured returns up to three products per category, in category order.
func (s *productService) Featured(ctx context.Context) ([]model.CategoryProducts, error) {
	products, err := s.productRepo.Featured(ctx, featuredPerCategory)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get featured products")
		return nil, fmt.Errorf("failed to get featured products: %w", err)
	}

	byCategory := make(map[string][]model.Product, len(model.Categories))
	for _, p := range products {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	featured := make([]model.CategoryProducts, 0, len(model.Categories))
	for _, category := range model.Categories {
		list := byCategory[category]
		if list == nil {
			list = []model.Product{}
		}
		featured = append(featured, model.CategoryProducts{Category: category, Products: list})
	}

	return featured, nil
}

// Categories lists the product categories in display order.
func (s *productService) Categories() []string {
	return append([]string(nil), model.Categories...)
}
