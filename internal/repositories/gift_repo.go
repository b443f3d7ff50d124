package repositories

import (
	"context"
	"iter"

	"giftlist/internal/models"
)

// GiftRepository defines the interface for wedding list data access.
type GiftRepository interface {
	Create(ctx context.Context, entry *models.GiftEntry) error
	GetByID(ctx context.Context, id uint) (*models.GiftEntry, error)
	// All yields every entry ordered by ID, like ProductRepository.All.
	All(ctx context.Context) iter.Seq2[models.GiftEntry, error]
	// MarkPurchased flips an unpurchased entry to purchased. It fails with
	// models.ErrAlreadyPurchased if the entry was already purchased.
	MarkPurchased(ctx context.Context, id uint) error
	// DeleteUnpurchased removes an entry only while it is unpurchased.
	DeleteUnpurchased(ctx context.Context, id uint) error
	CountByProduct(ctx context.Context, productID uint) (int64, error)
}
