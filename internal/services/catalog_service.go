package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"strings"

	"giftlist/internal/models"
	"giftlist/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProductCache is a read-through cache for single products.
type ProductCache interface {
	Get(ctx context.Context, id uint, load func(context.Context) (*models.Product, error)) (*models.Product, error)
	Invalidate(ctx context.Context, id uint)
}

// CatalogService owns the product catalog and its stock levels.
type CatalogService struct {
	store    repositories.Store
	cache    ProductCache
	validate *validator.Validate
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(store repositories.Store, cache ProductCache) *CatalogService {
	return &CatalogService{
		store:    store,
		cache:    cache,
		validate: validator.New(),
	}
}

// AddProduct validates and stores a new product, returning its ID.
func (s *CatalogService) AddProduct(ctx context.Context, name, brand string, price int64, initialQuantity int) (uint, error) {
	product := &models.Product{
		Name:            name,
		Brand:           brand,
		Price:           price,
		InStockQuantity: initialQuantity,
	}
	if err := s.validateProduct(product); err != nil {
		return 0, err
	}
	if err := s.store.Products().Create(ctx, product); err != nil {
		return 0, err
	}
	log.Printf("Added product %d (%s by %s)", product.ID, product.Name, product.Brand)
	return product.ID, nil
}

// GetProduct retrieves a product, going through the cache when one is set.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if s.cache == nil {
		return s.store.Products().GetByID(ctx, id)
	}
	return s.cache.Get(ctx, id, func(ctx context.Context) (*models.Product, error) {
		return s.store.Products().GetByID(ctx, id)
	})
}

// AdjustStock changes the stock of a product by delta and returns the new
// quantity. A change that would take stock below zero fails with
// models.ErrInsufficientStock and leaves the stock untouched.
func (s *CatalogService) AdjustStock(ctx context.Context, id uint, delta int) (int, error) {
	var qty int
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		var err error
		qty, err = tx.Products().AdjustStock(ctx, id, delta)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, id)
	return qty, nil
}

// Restock adds quantity units to a product's stock.
func (s *CatalogService) Restock(ctx context.Context, id uint, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: restock quantity must be positive, got %d", models.ErrValidation, quantity)
	}
	return s.AdjustStock(ctx, id, quantity)
}

// ListProducts yields the current catalog. Ranging it again re-queries.
func (s *CatalogService) ListProducts(ctx context.Context) iter.Seq2[models.Product, error] {
	return s.store.Products().All(ctx)
}

// DeleteProduct removes a product that no gift entry refers to.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Products().GetByID(ctx, id); err != nil {
			return err
		}
		refs, err := tx.Gifts().CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("product %d has %d gift entries: %w", id, refs, models.ErrProductInUse)
		}
		return tx.Products().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// CountProducts returns the size of the catalog.
func (s *CatalogService) CountProducts(ctx context.Context) (int64, error) {
	return s.store.Products().Count(ctx)
}

func (s *CatalogService) invalidate(ctx context.Context, id uint) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func (s *CatalogService) validateProduct(product *models.Product) error {
	err := s.validate.Struct(product)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
	return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(messages, "; "))
}
