package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// DefaultPage aplica valores por defecto si Page/Limit son cero o inválidos.
func (p *PageRequest) DefaultPage() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// Pagination metadatos de página que devuelve el backend.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Envelope cuerpo de respuesta de la API local: siempre trae success; data nunca es null en listados.
type Envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data"`
	Message    string            `json:"message,omitempty"`
	Code       string            `json:"code,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
