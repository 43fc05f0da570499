package model

// User is a custodian of items, identified by their badge barcode.
type User struct {
	BarcodeID          string `json:"barcode_id" db:"barcode_id" validate:"required,max=128"`
	Name               string `json:"name" db:"name"`
	Company            string `json:"company" db:"company"`
	PicturePath        string `json:"picture_path" db:"picture_path"`
	UserType           string `json:"user_type" db:"user_type"`
	Description        string `json:"description" db:"description"`
	InitialCheckinInfo string `json:"initial_checkin_info" db:"initial_checkin_info"`
}
