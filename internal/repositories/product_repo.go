package repositories

import (
	"context"
	"iter"

	"giftlist/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	// All yields every product ordered by ID. Each range re-reads the
	// store, and the store may be used from inside the loop.
	All(ctx context.Context) iter.Seq2[models.Product, error]
	// AdjustStock adds delta to the stock level in a single conditional
	// update and returns the new quantity.
	AdjustStock(ctx context.Context, id uint, delta int) (int, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}
