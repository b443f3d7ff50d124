package repositories

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"giftlist/internal/models"

	"gorm.io/gorm"
)

// GORMGiftRepository is a GORM implementation of GiftRepository.
type GORMGiftRepository struct {
	db *gorm.DB
}

// NewGORMGiftRepository creates a new instance of GORMGiftRepository.
func NewGORMGiftRepository(db *gorm.DB) *GORMGiftRepository {
	return &GORMGiftRepository{db: db}
}

// Create inserts an unpurchased entry.
func (r *GORMGiftRepository) Create(ctx context.Context, entry *models.GiftEntry) error {
	entry.ID = 0
	entry.Purchased = false
	entry.Product = nil
	if err := r.db.WithContext(ctx).Omit("Product").Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create gift entry: %w", err)
	}
	return nil
}

// GetByID retrieves a single entry by its ID.
func (r *GORMGiftRepository) GetByID(ctx context.Context, id uint) (*models.GiftEntry, error) {
	var entry models.GiftEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("gift %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get gift by ID %d: %w", id, err)
	}
	return &entry, nil
}

// All reads wedding list entries in pages ordered by ID.
func (r *GORMGiftRepository) All(ctx context.Context) iter.Seq2[models.GiftEntry, error] {
	return func(yield func(models.GiftEntry, error) bool) {
		var last uint
		for {
			var page []models.GiftEntry
			err := r.db.WithContext(ctx).
				Where("id > ?", last).
				Order("id").
				Limit(listPageSize).
				Find(&page).Error
			if err != nil {
				yield(models.GiftEntry{}, fmt.Errorf("failed to list gifts: %w", err))
				return
			}
			for _, entry := range page {
				if !yield(entry, nil) {
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

// MarkPurchased uses a conditional update so that of two racing callers
// exactly one sees a changed row.
func (r *GORMGiftRepository) MarkPurchased(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.GiftEntry{}).
		Where("id = ? AND purchased = ?", id, models.PurchaseFlag(false)).
		Update("purchased", models.PurchaseFlag(true))
	if res.Error != nil {
		return fmt.Errorf("failed to mark gift %d purchased: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// DeleteUnpurchased deletes the entry unless it has been purchased.
func (r *GORMGiftRepository) DeleteUnpurchased(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND purchased = ?", id, models.PurchaseFlag(false)).
		Delete(&models.GiftEntry{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete gift %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// CountByProduct returns how many entries reference the product.
func (r *GORMGiftRepository) CountByProduct(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.GiftEntry{}).
		Where("product_id = ?", productID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count gifts for product %d: %w", productID, err)
	}
	return n, nil
}

// explainMiss turns a conditional write that matched nothing into
// ErrNotFound or ErrAlreadyPurchased.
func (r *GORMGiftRepository) explainMiss(ctx context.Context, id uint) error {
	entry, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.Purchased {
		return fmt.Errorf("gift %d: %w", id, models.ErrAlreadyPurchased)
	}
	return fmt.Errorf("gift %d changed concurrently", id)
}
