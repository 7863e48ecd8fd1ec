package models

// StockAdjustment is the inbound order event instructing a stock decrement.
// MessageID is optional; when set it is used to suppress duplicate deliveries
// of the same event.
type StockAdjustment struct {
	MessageID     string `json:"message_id,omitempty"`
	ProductID     int64  `json:"product_id"`
	AmountOrdered int    `json:"amount_ordered"`
}
