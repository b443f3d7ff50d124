package repositories

import (
	"context"
	"errors"
	"testing"

	"giftlist/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TransactionCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var productID, giftID uint
	err := store.Transaction(ctx, func(tx Store) error {
		product := &models.Product{Name: "Toaster", Brand: "Acme", Price: 2500, InStockQuantity: 3}
		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}
		productID = product.ID
		entry := &models.GiftEntry{ProductID: &product.ID}
		if err := tx.Gifts().Create(ctx, entry); err != nil {
			return err
		}
		giftID = entry.ID
		return nil
	})
	require.NoError(t, err)

	_, err = store.Products().GetByID(ctx, productID)
	assert.NoError(t, err)
	_, err = store.Gifts().GetByID(ctx, giftID)
	assert.NoError(t, err)
}

func TestMemoryStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	product := &models.Product{Name: "Toaster", Brand: "Acme", Price: 2500, InStockQuantity: 3}
	require.NoError(t, store.Products().Create(ctx, product))
	entry := &models.GiftEntry{ProductID: &product.ID}
	require.NoError(t, store.Gifts().Create(ctx, entry))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.Products().AdjustStock(ctx, product.ID, -1); err != nil {
			return err
		}
		if err := tx.Gifts().MarkPurchased(ctx, entry.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := store.Products().GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.InStockQuantity)
	stored, err := store.Gifts().GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, bool(stored.Purchased))
}

func TestMemoryStore_NestedTransactionRunsInline(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Transaction(ctx, func(tx Store) error {
		return tx.Transaction(ctx, func(inner Store) error {
			return inner.Products().Create(ctx, &models.Product{Name: "Lamp", Brand: "Acme"})
		})
	})
	require.NoError(t, err)

	n, err := store.Products().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewMemoryStore().Transaction(ctx, func(Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemoryProductRepository_AdjustStock(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Products()
	product := &models.Product{Name: "Kettle", Brand: "Acme", Price: 3000, InStockQuantity: 2}
	require.NoError(t, repo.Create(ctx, product))
	assert.Equal(t, uint(1), product.ID)

	qty, err := repo.AdjustStock(ctx, product.ID, -3)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, 2, qty)

	qty, err = repo.AdjustStock(ctx, product.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestMemoryGiftRepository_CountByProduct(t *testing.T) {
	ctx := context.Background()
	gifts := NewMemoryStore().Gifts()
	a, b := uint(1), uint(2)

	require.NoError(t, gifts.Create(ctx, &models.GiftEntry{ProductID: &a}))
	require.NoError(t, gifts.Create(ctx, &models.GiftEntry{ProductID: &a}))
	require.NoError(t, gifts.Create(ctx, &models.GiftEntry{ProductID: &b}))
	require.NoError(t, gifts.Create(ctx, &models.GiftEntry{}))

	n, err := gifts.CountByProduct(ctx, a)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
