package repositories

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"
	"sync"

	"giftlist/internal/models"
)

type memoryState struct {
	products      map[uint]models.Product
	gifts         map[uint]models.GiftEntry
	nextProductID uint
	nextGiftID    uint
}

func newMemoryState() *memoryState {
	return &memoryState{
		products:      make(map[uint]models.Product),
		gifts:         make(map[uint]models.GiftEntry),
		nextProductID: 1,
		nextGiftID:    1,
	}
}

func (s *memoryState) clone() *memoryState {
	c := *s
	c.products = maps.Clone(s.products)
	c.gifts = maps.Clone(s.gifts)
	return &c
}

// MemoryStore is an in-memory implementation of Store. Every call holds a
// single mutex; a transaction works on a copy of the state that replaces
// the live state only when the transaction succeeds.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memoryState
	inTx  bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:    &sync.Mutex{},
		state: newMemoryState(),
	}
}

// with runs fn against the current state, locking unless already inside
// a transaction.
func (s *MemoryStore) with(fn func(*memoryState) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.state)
}

// Products returns the in-memory product repository.
func (s *MemoryStore) Products() ProductRepository {
	return &MemoryProductRepository{store: s}
}

// Gifts returns the in-memory gift repository.
func (s *MemoryStore) Gifts() GiftRepository {
	return &MemoryGiftRepository{store: s}
}

// Transaction runs fn on a private copy of the state. Nested calls run
// inline in the enclosing transaction.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &MemoryStore{mu: s.mu, state: s.state.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	store *MemoryStore
}

// Create adds a new product with the next free ID.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	return r.store.with(func(st *memoryState) error {
		product.ID = st.nextProductID
		st.nextProductID++
		st.products[product.ID] = *product
		return nil
	})
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.store.with(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok {
			return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// All takes a snapshot when ranging starts.
func (r *MemoryProductRepository) All(_ context.Context) iter.Seq2[models.Product, error] {
	return func(yield func(models.Product, error) bool) {
		var snapshot []models.Product
		_ = r.store.with(func(st *memoryState) error {
			for _, id := range slices.Sorted(maps.Keys(st.products)) {
				snapshot = append(snapshot, st.products[id])
			}
			return nil
		})
		for _, p := range snapshot {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// AdjustStock adds delta unless the stock would go negative.
func (r *MemoryProductRepository) AdjustStock(_ context.Context, id uint, delta int) (int, error) {
	var qty int
	err := r.store.with(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok {
			return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
		}
		qty = p.InStockQuantity
		if delta > 0 && p.InStockQuantity > math.MaxInt-delta {
			return fmt.Errorf("%w: adding %d to the stock of product %d overflows", models.ErrValidation, delta, id)
		}
		if p.InStockQuantity+delta < 0 {
			return fmt.Errorf("product %d has %d in stock, cannot apply %d: %w",
				id, p.InStockQuantity, delta, models.ErrInsufficientStock)
		}
		p.InStockQuantity += delta
		qty = p.InStockQuantity
		st.products[id] = p
		return nil
	})
	return qty, err
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id uint) error {
	return r.store.with(func(st *memoryState) error {
		if _, ok := st.products[id]; !ok {
			return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
		}
		delete(st.products, id)
		return nil
	})
}

// Count returns the number of products.
func (r *MemoryProductRepository) Count(_ context.Context) (int64, error) {
	var n int64
	_ = r.store.with(func(st *memoryState) error {
		n = int64(len(st.products))
		return nil
	})
	return n, nil
}

// MemoryGiftRepository is an in-memory implementation of GiftRepository.
type MemoryGiftRepository struct {
	store *MemoryStore
}

// Create adds an unpurchased entry with the next free ID.
func (r *MemoryGiftRepository) Create(_ context.Context, entry *models.GiftEntry) error {
	return r.store.with(func(st *memoryState) error {
		entry.ID = st.nextGiftID
		entry.Purchased = false
		entry.Product = nil
		st.nextGiftID++
		st.gifts[entry.ID] = *entry
		return nil
	})
}

// GetByID returns an entry by its ID.
func (r *MemoryGiftRepository) GetByID(_ context.Context, id uint) (*models.GiftEntry, error) {
	var entry models.GiftEntry
	err := r.store.with(func(st *memoryState) error {
		e, ok := st.gifts[id]
		if !ok {
			return fmt.Errorf("gift %d: %w", id, models.ErrNotFound)
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// All takes a snapshot when ranging starts.
func (r *MemoryGiftRepository) All(_ context.Context) iter.Seq2[models.GiftEntry, error] {
	return func(yield func(models.GiftEntry, error) bool) {
		var snapshot []models.GiftEntry
		_ = r.store.with(func(st *memoryState) error {
			for _, id := range slices.Sorted(maps.Keys(st.gifts)) {
				snapshot = append(snapshot, st.gifts[id])
			}
			return nil
		})
		for _, e := range snapshot {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// MarkPurchased flips an unpurchased entry to purchased.
func (r *MemoryGiftRepository) MarkPurchased(_ context.Context, id uint) error {
	return r.store.with(func(st *memoryState) error {
		e, ok := st.gifts[id]
		if !ok {
			return fmt.Errorf("gift %d: %w", id, models.ErrNotFound)
		}
		if e.Purchased {
			return fmt.Errorf("gift %d: %w", id, models.ErrAlreadyPurchased)
		}
		e.Purchased = true
		st.gifts[id] = e
		return nil
	})
}

// DeleteUnpurchased removes an entry unless it has been purchased.
func (r *MemoryGiftRepository) DeleteUnpurchased(_ context.Context, id uint) error {
	return r.store.with(func(st *memoryState) error {
		e, ok := st.gifts[id]
		if !ok {
			return fmt.Errorf("gift %d: %w", id, models.ErrNotFound)
		}
		if e.Purchased {
			return fmt.Errorf("gift %d: %w", id, models.ErrAlreadyPurchased)
		}
		delete(st.gifts, id)
		return nil
	})
}

// CountByProduct returns how many entries reference the product.
func (r *MemoryGiftRepository) CountByProduct(_ context.Context, productID uint) (int64, error) {
	var n int64
	_ = r.store.with(func(st *memoryState) error {
		for _, e := range st.gifts {
			if e.ProductID != nil && *e.ProductID == productID {
				n++
			}
		}
		return nil
	})
	return n, nil
}
