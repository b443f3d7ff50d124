package repositories

import (
	"context"

	"gorm.io/gorm"
)

// listPageSize is the number of rows each listing query fetches.
var listPageSize = 100

// GORMStore is a Store backed by a gorm database handle.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// Products returns a product repository on the store's handle.
func (s *GORMStore) Products() ProductRepository {
	return NewGORMProductRepository(s.db)
}

// Gifts returns a gift repository on the store's handle.
func (s *GORMStore) Gifts() GiftRepository {
	return NewGORMGiftRepository(s.db)
}

// Transaction wraps fn in a database transaction. Nested calls become
// savepoints.
func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx})
	})
}
