package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// FilterAll valor de filtro que significa "sin filtrar".
const FilterAll = "all"

// CreateMovementRequest body para registrar una entrada o distribución.
type CreateMovementRequest struct {
	Type         string                    `json:"type"`
	DepartmentID string                    `json:"departmentId,omitempty"`
	Supplier     string                    `json:"supplier,omitempty"`
	StockManager string                    `json:"stockManager"`
	Products     []entity.ProductSelection `json:"products"`
	TotalItems   *decimal.Decimal          `json:"totalItems,omitempty"`
	TotalValue   *decimal.Decimal          `json:"totalValue,omitempty"`
	Notes        string                    `json:"notes,omitempty"`
	Date         *time.Time                `json:"date,omitempty"`
}

// UpdateMovementRequest actualización parcial de un movimiento.
type UpdateMovementRequest struct {
	DepartmentID *string                   `json:"departmentId,omitempty"`
	Supplier     *string                   `json:"supplier,omitempty"`
	StockManager *string                   `json:"stockManager,omitempty"`
	Products     []entity.ProductSelection `json:"products,omitempty"`
	Notes        *string                   `json:"notes,omitempty"`
	Date         *time.Time                `json:"date,omitempty"`
}

// MovementFilters filtros de listado. Valores vacíos o "all" se omiten de la consulta.
type MovementFilters struct {
	Type       string     `query:"type"`
	Department string     `query:"department"`
	StartDate  *time.Time `query:"startDate"`
	EndDate    *time.Time `query:"endDate"`
	Page       int        `query:"page"`
	Limit      int        `query:"limit"`
}

// MovementPage página de movimientos. Items nunca es nil.
type MovementPage struct {
	Items      []entity.StockMovement `json:"items"`
	Pagination Pagination             `json:"pagination"`
}

// EmptyMovementPage página vacía usada en respuestas fallidas.
func EmptyMovementPage() *MovementPage {
	return &MovementPage{Items: []entity.StockMovement{}}
}
