package entity

import "time"

// Tipos de notificación.
const (
	NotificationLowStock     = "low_stock"
	NotificationOutOfStock   = "out_of_stock"
	NotificationUsageSpike   = "usage_spike"
	NotificationDailySummary = "daily_summary"
	NotificationWeeklyReport = "weekly_report"
	NotificationSystem       = "system"
)

// AppNotification notificación visible para el usuario (local o sincronizada con el backend).
type AppNotification struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Read       bool           `json:"read"`
	Persistent bool           `json:"persistent,omitempty"`
	Synced     bool           `json:"synced"` // true si existe en el backend
}

// TriggerKind tipo de disparador de una notificación local.
type TriggerKind string

const (
	TriggerImmediate TriggerKind = "immediate"
	TriggerAt        TriggerKind = "at"
	TriggerDaily     TriggerKind = "daily"
	TriggerWeekly    TriggerKind = "weekly"
)

// Trigger momento de entrega de una notificación local.
type Trigger struct {
	Kind    TriggerKind  `json:"kind"`
	At      time.Time    `json:"at,omitempty"`      // TriggerAt
	Hour    int          `json:"hour,omitempty"`    // Daily / Weekly
	Minute  int          `json:"minute,omitempty"`  // Daily / Weekly
	Weekday time.Weekday `json:"weekday,omitempty"` // Weekly
}

// Repeats indica si el disparador se rearma tras entregarse.
func (t Trigger) Repeats() bool {
	return t.Kind == TriggerDaily || t.Kind == TriggerWeekly
}

// Next próximo instante de entrega estrictamente posterior a now para disparadores
// diarios y semanales; now para inmediatos y para At ya vencidos.
func (t Trigger) Next(now time.Time) time.Time {
	switch t.Kind {
	case TriggerAt:
		if t.At.Before(now) {
			return now
		}
		return t.At
	case TriggerDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case TriggerWeekly:
		days := (int(t.Weekday) - int(now.Weekday()) + 7) % 7
		next := time.Date(now.Year(), now.Month(), now.Day()+days, t.Hour, t.Minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next
	default:
		return now
	}
}

// ScheduledNotification notificación registrada en la plataforma local pendiente de entrega.
type ScheduledNotification struct {
	ID       string          `json:"id"`
	Content  AppNotification `json:"content"`
	Trigger  Trigger         `json:"trigger"`
	NextFire time.Time       `json:"nextFire"`
}

// AlertState marca de deduplicación: la alerta de (producto, condición) ya se emitió.
type AlertState struct {
	ProductID string    `json:"productId"`
	Condition string    `json:"condition"` // low_stock | out_of_stock
	FiredAt   time.Time `json:"firedAt"`
}

// Device registro de token push.
type Device struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
	DeviceID string `json:"deviceId,omitempty"`
}
