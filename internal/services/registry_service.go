package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"time"

	"giftlist/internal/models"
	"giftlist/internal/repositories"
)

// EventPublisher announces committed purchases to other systems.
type EventPublisher interface {
	PublishGiftPurchased(event models.PurchaseEvent) error
}

// RegistryService manages the wedding list and the purchase of gifts.
type RegistryService struct {
	store     repositories.Store
	catalog   *CatalogService
	publisher EventPublisher
	now       func() time.Time
}

// NewRegistryService creates a new RegistryService. publisher may be nil,
// in which case no purchase events are sent.
func NewRegistryService(store repositories.Store, catalog *CatalogService, publisher EventPublisher) *RegistryService {
	return &RegistryService{
		store:     store,
		catalog:   catalog,
		publisher: publisher,
		now:       time.Now,
	}
}

// AddEntry puts a gift on the wedding list. A nil productID creates a
// placeholder entry; otherwise the product must exist.
func (s *RegistryService) AddEntry(ctx context.Context, productID *uint) (uint, error) {
	entry := &models.GiftEntry{}
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if productID != nil {
			if _, err := tx.Products().GetByID(ctx, *productID); err != nil {
				return err
			}
			id := *productID
			entry.ProductID = &id
		}
		return tx.Gifts().Create(ctx, entry)
	})
	if err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// GetEntry retrieves a single wedding list entry.
func (s *RegistryService) GetEntry(ctx context.Context, id uint) (*models.GiftEntry, error) {
	return s.store.Gifts().GetByID(ctx, id)
}

// Purchase marks a gift as bought and takes one unit of its product out
// of stock. Both changes happen in one transaction. Buying a gift twice
// fails with models.ErrAlreadyPurchased; an empty stock fails with
// models.ErrInsufficientStock and leaves the gift unpurchased.
func (s *RegistryService) Purchase(ctx context.Context, entryID uint) error {
	var purchased models.GiftEntry
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		entry, err := tx.Gifts().GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Purchased {
			return fmt.Errorf("gift %d: %w", entryID, models.ErrAlreadyPurchased)
		}

		// Stock first, then the entry: the same order as every other
		// writer, so row locks cannot form a cycle.
		if entry.ProductID != nil {
			if _, err := tx.Products().AdjustStock(ctx, *entry.ProductID, -1); err != nil {
				if errors.Is(err, models.ErrInsufficientStock) && s.boughtMeanwhile(ctx, tx, entryID) {
					return fmt.Errorf("gift %d: %w", entryID, models.ErrAlreadyPurchased)
				}
				return err
			}
		}
		if err := tx.Gifts().MarkPurchased(ctx, entryID); err != nil {
			return err
		}
		purchased = *entry
		purchased.Purchased = true
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Gift %d purchased", entryID)
	if purchased.ProductID != nil && s.catalog != nil {
		s.catalog.invalidate(ctx, *purchased.ProductID)
	}
	s.publishPurchase(purchased)
	return nil
}

// boughtMeanwhile reports whether a concurrent purchase of the entry has
// committed. The last unit of stock going to that purchase should read as
// a double purchase, not as an empty shelf.
func (s *RegistryService) boughtMeanwhile(ctx context.Context, tx repositories.Store, entryID uint) bool {
	entry, err := tx.Gifts().GetByID(ctx, entryID)
	return err == nil && bool(entry.Purchased)
}

func (s *RegistryService) publishPurchase(entry models.GiftEntry) {
	if s.publisher == nil {
		return
	}
	event := models.PurchaseEvent{
		GiftID:      entry.ID,
		ProductID:   entry.ProductID,
		PurchasedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishGiftPurchased(event); err != nil {
		log.Printf("Warning: Failed to publish purchase event for gift %d: %v", entry.ID, err)
	}
}

// RemoveEntry takes an unpurchased gift off the wedding list. Purchased
// gifts are history and cannot be removed.
func (s *RegistryService) RemoveEntry(ctx context.Context, entryID uint) error {
	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		return tx.Gifts().DeleteUnpurchased(ctx, entryID)
	})
}

// ListEntries yields the wedding list. Ranging it again re-queries.
func (s *RegistryService) ListEntries(ctx context.Context) iter.Seq2[models.GiftEntry, error] {
	return s.store.Gifts().All(ctx)
}

// ListGifts returns every entry joined with its product.
func (s *RegistryService) ListGifts(ctx context.Context) ([]models.Gift, error) {
	products := make(map[uint]*models.Product)
	gifts := []models.Gift{}
	for entry, err := range s.store.Gifts().All(ctx) {
		if err != nil {
			return nil, err
		}
		gift := models.Gift{ID: entry.ID, Purchased: bool(entry.Purchased)}
		if entry.ProductID != nil {
			product, ok := products[*entry.ProductID]
			if !ok {
				product, err = s.store.Products().GetByID(ctx, *entry.ProductID)
				if err != nil {
					return nil, fmt.Errorf("gift %d: %w", entry.ID, err)
				}
				products[product.ID] = product
			}
			p := *product
			gift.Product = &p
		}
		gifts = append(gifts, gift)
	}
	return gifts, nil
}

// Report splits the wedding list into purchased and outstanding gifts.
func (s *RegistryService) Report(ctx context.Context) (*models.WeddingListReport, error) {
	gifts, err := s.ListGifts(ctx)
	if err != nil {
		return nil, err
	}
	report := &models.WeddingListReport{
		PurchasedGifts:    []models.Gift{},
		NotPurchasedGifts: []models.Gift{},
	}
	for _, gift := range gifts {
		if gift.Purchased {
			report.PurchasedGifts = append(report.PurchasedGifts, gift)
		} else {
			report.NotPurchasedGifts = append(report.NotPurchasedGifts, gift)
		}
	}
	return report, nil
}
