package dto

// AppSettings configuración de negocio expuesta por /settings del backend.
type AppSettings struct {
	BusinessName string         `json:"businessName"`
	Currency     string         `json:"currency"`
	Timezone     string         `json:"timezone,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}
