package models

import "errors"

// Errors returned by the catalog and the registry. Callers match them
// with errors.Is; they are usually wrapped with the offending identifier.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyPurchased  = errors.New("gift already purchased")
	ErrProductInUse      = errors.New("product is referenced by the wedding list")
)
