package repositories

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"

	"giftlist/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create inserts a new product; the database assigns its ID.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// All reads products in pages ordered by ID. No query is open while a
// product is being yielded, so the caller may use the store in the loop.
func (r *GORMProductRepository) All(ctx context.Context) iter.Seq2[models.Product, error] {
	return func(yield func(models.Product, error) bool) {
		var last uint
		for {
			var page []models.Product
			err := r.db.WithContext(ctx).
				Where("id > ?", last).
				Order("id").
				Limit(listPageSize).
				Find(&page).Error
			if err != nil {
				yield(models.Product{}, fmt.Errorf("failed to list products: %w", err))
				return
			}
			for _, product := range page {
				if !yield(product, nil) {
					return
				}
			}
			if len(page) < listPageSize {
				return
			}
			last = page[len(page)-1].ID
		}
	}
}

// AdjustStock applies delta only if the result stays within
// [0, math.MaxInt], so concurrent adjustments never lose an update.
func (r *GORMProductRepository) AdjustStock(ctx context.Context, id uint, delta int) (int, error) {
	db := r.db.WithContext(ctx)
	cond, bound := stockBound(delta)
	res := db.Model(&models.Product{}).
		Where("id = ? AND "+cond, id, bound).
		Update("in_stock_quantity", gorm.Expr("in_stock_quantity + ?", delta))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to adjust stock for product %d: %w", id, res.Error)
	}

	product, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		if delta > 0 {
			return product.InStockQuantity, fmt.Errorf("%w: adding %d to the stock of product %d overflows",
				models.ErrValidation, delta, id)
		}
		return product.InStockQuantity, fmt.Errorf("product %d has %d in stock, cannot apply %d: %w",
			id, product.InStockQuantity, delta, models.ErrInsufficientStock)
	}
	return product.InStockQuantity, nil
}

// stockBound returns a condition on the current stock that holds exactly
// when adding delta stays within [0, math.MaxInt]. The bound itself never
// overflows, including for delta == math.MinInt.
func stockBound(delta int) (string, int) {
	if delta >= 0 {
		return "in_stock_quantity <= ?", math.MaxInt - delta
	}
	return "in_stock_quantity > ?", -(delta + 1)
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// Count returns the number of products in the catalog.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
