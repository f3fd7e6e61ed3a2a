package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeStockIn      = "stock_in"     // entrada desde proveedor
	MovementTypeDistribution = "distribution" // salida hacia un departamento
)

// ProductSelection es una línea de un movimiento.
type ProductSelection struct {
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// LineValue devuelve cantidad * precio unitario (cero sin precio).
func (p ProductSelection) LineValue() decimal.Decimal {
	if p.UnitPrice == nil {
		return decimal.Zero
	}
	return p.Quantity.Mul(*p.UnitPrice)
}

// StockMovement representa una entrada (stock_in) o una distribución.
type StockMovement struct {
	ID           string             `json:"id"`
	MovementID   string             `json:"movementId"`
	Type         string             `json:"type"`
	DepartmentID string             `json:"departmentId,omitempty"`
	Department   *Department        `json:"department,omitempty"`
	Supplier     string             `json:"supplier,omitempty"`
	StockManager string             `json:"stockManager"`
	Products     []ProductSelection `json:"products"`
	TotalItems   decimal.Decimal    `json:"totalItems"`
	TotalValue   *decimal.Decimal   `json:"totalValue,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	Date         time.Time          `json:"date"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// IsValidMovementType indica si t es un tipo de movimiento soportado.
func IsValidMovementType(t string) bool {
	return t == MovementTypeStockIn || t == MovementTypeDistribution
}

// Totals calcula el total de ítems y el valor total de las líneas.
// hasValue es false si ninguna línea trae precio.
func Totals(lines []ProductSelection) (items, value decimal.Decimal, hasValue bool) {
	items, value = decimal.Zero, decimal.Zero
	for _, l := range lines {
		items = items.Add(l.Quantity)
		if l.UnitPrice != nil {
			value = value.Add(l.LineValue())
			hasValue = true
		}
	}
	return items, value, hasValue
}
