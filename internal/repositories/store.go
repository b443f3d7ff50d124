package repositories

import "context"

// Store hands out the catalog and wedding list repositories and runs
// work spanning both inside one transaction.
type Store interface {
	Products() ProductRepository
	Gifts() GiftRepository
	// Transaction runs fn with repositories bound to a single transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
