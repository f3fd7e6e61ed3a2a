package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario tal como lo expone el backend.
// Los campos opcionales son punteros: nil significa "no informado", distinto de cero.
type Product struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
	Unit      string           `json:"unit,omitempty"`
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	Category  string           `json:"category,omitempty"`
	Image     string           `json:"image,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Stock devuelve la cantidad actual; cero si el backend no la informó.
func (p Product) Stock() decimal.Decimal {
	if p.Quantity == nil {
		return decimal.Zero
	}
	return *p.Quantity
}

// HasStockInfo indica si el producto trae cantidad (sin ella no se evalúan alertas).
func (p Product) HasStockInfo() bool {
	return p.Quantity != nil
}
