package services

import "errors"

var (
	// ErrInventoryNotFound: an adjustment referenced a product with no
	// registered stock row. Permanent for the delivery that carried it.
	ErrInventoryNotFound = errors.New("no inventory for product")

	// ErrInsufficientStock: applying the adjustment would drive quantity
	// negative. The row is left untouched.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidAdjustment: the ordered amount was zero or negative.
	ErrInvalidAdjustment = errors.New("adjustment amount must be positive")

	ErrNameRequired    = errors.New("product name is required")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
)
