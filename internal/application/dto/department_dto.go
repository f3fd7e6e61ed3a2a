package dto

// DepartmentInput entrada para crear o actualizar un departamento.
type DepartmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

// NameCheckResponse resultado de GET /api/departments/check-name.
type NameCheckResponse struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
}
