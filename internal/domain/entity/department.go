package entity

import "time"

// Department representa un departamento destino de distribuciones (panadería, cocina, barra...).
type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`  // emoji
	Color       string    `json:"color,omitempty"` // hex, ej. "#FF8800"
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
