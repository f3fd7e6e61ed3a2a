package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuietHours ventana en la que no se entregan alertas inmediatas. Formato "HH:MM" 24h; puede cruzar medianoche.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// NotificationSettings preferencias de alertas del usuario.
type NotificationSettings struct {
	LowStockEnabled     bool            `json:"lowStockEnabled"`
	OutOfStockEnabled   bool            `json:"outOfStockEnabled"`
	UsageSpikeEnabled   bool            `json:"usageSpikeEnabled"`
	DailySummaryEnabled bool            `json:"dailySummaryEnabled"`
	WeeklyReportEnabled bool            `json:"weeklyReportEnabled"`
	LowStockThreshold   decimal.Decimal `json:"lowStockThreshold"`
	UsageSpikeThreshold decimal.Decimal `json:"usageSpikeThreshold"` // porcentaje
	QuietHours          QuietHours      `json:"quietHours"`
	DailySummaryTime    string          `json:"dailySummaryTime"` // "HH:MM"
	WeeklyReportDay     time.Weekday    `json:"weeklyReportDay"`
	WeeklyReportTime    string          `json:"weeklyReportTime"` // "HH:MM"
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// DefaultNotificationSettings valores con los que arranca una sesión sin preferencias guardadas.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		LowStockEnabled:     true,
		OutOfStockEnabled:   true,
		UsageSpikeEnabled:   true,
		DailySummaryEnabled: true,
		WeeklyReportEnabled: true,
		LowStockThreshold:   decimal.NewFromInt(10),
		UsageSpikeThreshold: decimal.NewFromInt(50),
		QuietHours:          QuietHours{Enabled: false, Start: "22:00", End: "07:00"},
		DailySummaryTime:    "18:00",
		WeeklyReportDay:     time.Monday,
		WeeklyReportTime:    "09:00",
	}
}

// ClockTime hora del día en minutos desde medianoche.
type ClockTime struct {
	Hour, Minute int
}

// ParseClock interpreta "HH:MM" (24h).
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("hora inválida %q: se espera HH:MM", s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) minutes() int { return c.Hour*60 + c.Minute }

// Contains indica si t cae dentro de la ventana silenciosa. Start == End se considera ventana vacía.
func (q QuietHours) Contains(t time.Time) bool {
	if !q.Enabled {
		return false
	}
	start, err1 := ParseClock(q.Start)
	end, err2 := ParseClock(q.End)
	if err1 != nil || err2 != nil {
		return false
	}
	now := t.Hour()*60 + t.Minute()
	s, e := start.minutes(), end.minutes()
	switch {
	case s == e:
		return false
	case s < e:
		return now >= s && now < e
	default:
		return now >= s || now < e
	}
}

// EndAfter devuelve el próximo instante (>= t) en que termina la ventana silenciosa.
func (q QuietHours) EndAfter(t time.Time) time.Time {
	end, err := ParseClock(q.End)
	if err != nil {
		return t
	}
	candidate := time.Date(t.Year(), t.Month(), t.Day(), end.Hour, end.Minute, 0, 0, t.Location())
	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// Validate verifica umbrales no negativos y formatos de hora.
func (s NotificationSettings) Validate() map[string]string {
	fields := map[string]string{}
	if s.LowStockThreshold.IsNegative() {
		fields["lowStockThreshold"] = "debe ser >= 0"
	}
	if s.UsageSpikeThreshold.IsNegative() {
		fields["usageSpikeThreshold"] = "debe ser >= 0"
	}
	for key, v := range map[string]string{
		"dailySummaryTime": s.DailySummaryTime,
		"weeklyReportTime": s.WeeklyReportTime,
	} {
		if _, err := ParseClock(v); err != nil {
			fields[key] = err.Error()
		}
	}
	if s.QuietHours.Enabled {
		if _, err := ParseClock(s.QuietHours.Start); err != nil {
			fields["quietHours.start"] = err.Error()
		}
		if _, err := ParseClock(s.QuietHours.End); err != nil {
			fields["quietHours.end"] = err.Error()
		}
	}
	if s.WeeklyReportDay < time.Sunday || s.WeeklyReportDay > time.Saturday {
		fields["weeklyReportDay"] = "debe estar entre 0 (domingo) y 6 (sábado)"
	}
	return fields
}
