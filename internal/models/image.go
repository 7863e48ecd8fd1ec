package models

// Image is the stored object metadata for a product picture. URL holds the
// canonical reference recorded at upload time; read paths replace it with a
// freshly signed URL before returning the product.
type Image struct {
	ID          int64  `json:"id" db:"id"`
	FileName    string `json:"file_name" db:"file_name"`
	URL         string `json:"url" db:"url"`
	ContentType string `json:"content_type" db:"content_type"`
	Size        int64  `json:"size" db:"size"`
}
