package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// UsageSpikeRequest body de POST /api/notifications/usage-spike.
type UsageSpikeRequest struct {
	ProductName  string          `json:"productName"`
	UsageCount   decimal.Decimal `json:"usageCount"`
	AverageUsage decimal.Decimal `json:"averageUsage"`
}

// ScheduleResult resultado de evaluar una alerta.
type ScheduleResult struct {
	Scheduled bool   `json:"scheduled"`
	ID        string `json:"id,omitempty"`
	Reason    string `json:"reason,omitempty"` // motivo cuando no se programa
}

// NotificationRequest body de POST /api/notifications.
type NotificationRequest struct {
	Type  string         `json:"type"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// notificationTypes tipos que acepta el backend; vacío se toma como system.
var notificationTypes = map[string]bool{
	"":                              true,
	entity.NotificationSystem:       true,
	entity.NotificationLowStock:     true,
	entity.NotificationOutOfStock:   true,
	entity.NotificationUsageSpike:   true,
	entity.NotificationDailySummary: true,
	entity.NotificationWeeklyReport: true,
}

// Validate errores por campo; vacío si es válida.
func (r NotificationRequest) Validate() map[string]string {
	fields := map[string]string{}
	if r.Title == "" {
		fields["title"] = "requerido"
	}
	if !notificationTypes[r.Type] {
		fields["type"] = "tipo desconocido"
	}
	return fields
}
