package service

import "errors"

// Engine error taxonomy. Handlers map these to HTTP statuses; everything here
// is local to the failing operation, never a process-level failure.
var (
	// ErrInsufficientStock: requested quantity exceeds the total IN_STOCK
	// supply. The order is rejected with no partial commit.
	ErrInsufficientStock = errors.New("insufficient stock to fulfill requested quantity")

	// ErrConcurrencyConflict: a concurrent caller won the race on a shared
	// batch. The caller may retry the whole allocation.
	ErrConcurrencyConflict = errors.New("allocation conflicted with a concurrent reservation")

	// ErrTierNotFound: the retailer references a tier that does not resolve
	// to an active pricing tier. Data-integrity issue, not retryable.
	ErrTierNotFound = errors.New("assigned pricing tier not found or inactive")

	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidProduct  = errors.New("product not found")
	ErrInvalidRetailer = errors.New("retailer not found")
	ErrInvalidStrategy = errors.New("allocation strategy must be FEFO or FIFO")
)
