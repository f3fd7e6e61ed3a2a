package dto

// ClientInput entrada para crear o actualizar un cliente.
type ClientInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}
