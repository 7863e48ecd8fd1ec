package models

type Product struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Price       float64 `json:"price" db:"price"`
	Image       *Image  `json:"image,omitempty"`
}

// ProductCreate is the write-side payload for new products. The image file
// itself travels separately as a multipart part.
type ProductCreate struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}
