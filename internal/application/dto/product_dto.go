package dto

import "github.com/shopspring/decimal"

// ProductInput entrada para crear o actualizar un producto en el backend.
type ProductInput struct {
	Name      string           `json:"name"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
	Unit      string           `json:"unit,omitempty"`
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	Category  string           `json:"category,omitempty"`
	Image     string           `json:"image,omitempty"`
}
