package models

// Inventory is the single stock row for a product. Quantity is never negative;
// the reconciliation path rejects any adjustment that would drive it below zero.
type Inventory struct {
	ID        int64 `json:"id" db:"id"`
	ProductID int64 `json:"product_id" db:"product_id"`
	Quantity  int   `json:"quantity" db:"quantity"`
}
