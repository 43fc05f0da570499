package model

// Item is a physical asset identified by its barcode.
type Item struct {
	BarcodeID   string `json:"barcode_id" db:"barcode_id" validate:"required,max=128"`
	ShortID     string `json:"short_id" db:"short_id"`
	Name        string `json:"name" db:"name"`
	PicturePath string `json:"picture_path" db:"picture_path"`
	Description string `json:"description" db:"description"`
}
