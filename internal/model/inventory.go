package model

// InventoryItem is one pantry entry.
type InventoryItem struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Amount *float64 `json:"amount,omitempty"`
	Unit   *string  `json:"unit,omitempty"`
}

// InventoryFields are the writable fields of an inventory item.
type InventoryFields struct {
	Name   string
	Amount *float64
	Unit   *string
}

// InventoryRequest is the JSON body for creating or replacing an item.
type InventoryRequest struct {
	Name   string   `json:"name" validate:"required,max=255"`
	Amount *float64 `json:"amount" validate:"omitempty,gte=0"`
	Unit   *string  `json:"unit" validate:"omitempty,max=64"`
}
