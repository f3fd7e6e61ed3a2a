// Package notification evalúa umbrales de stock, programa notificaciones locales y
// sincroniza la lista de notificaciones con el backend.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// Motivos por los que una alerta no se programa.
const (
	ReasonDisabled         = "disabled"
	ReasonAboveThreshold   = "above_threshold"
	ReasonBelowThreshold   = "below_threshold"
	ReasonNoBaseline       = "no_baseline"
	ReasonNotInitialized   = "not_initialized"
	ReasonPermissionDenied = "permission_denied"
)

// Estados del permiso de notificaciones.
const (
	PermissionUnknown = "unknown"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// Canales de la plataforma.
var (
	ChannelAlerts  = ports.Channel{ID: "stock-alerts", Name: "Alertas de stock", Importance: 5, Description: "Stock bajo, agotado y picos de consumo"}
	ChannelReports = ports.Channel{ID: "reports", Name: "Reportes", Importance: 3, Description: "Resumen diario y reporte semanal"}
)

// Textos usados mientras no hay datos del backend para el recordatorio.
const (
	DefaultDailyBody  = "Revisa el resumen de inventario del día"
	DefaultWeeklyBody = "Tu reporte semanal de inventario está listo"
)

var hundred = decimal.NewFromInt(100)

// Engine dueño de las preferencias y de la lista de notificaciones programadas.
type Engine struct {
	platform ports.NotificationPlatform
	settings repository.SettingsRepository
	inbox    repository.NotificationRepository
	log      *logger.Logger
	now      func() time.Time

	mu         sync.RWMutex
	permission string
	current    entity.NotificationSettings
	scheduled  []entity.ScheduledNotification
	daily      recurring
	weekly     recurring
}

// recurring notificación diaria/semanal vigente; se reemplaza al reprogramar.
type recurring struct {
	id      string
	content entity.AppNotification
}

// EngineOption personaliza el Engine.
type EngineOption func(*Engine)

// WithClock fija el reloj (tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine construye el motor. inbox recibe las alertas programadas; puede ser nil.
func NewEngine(platform ports.NotificationPlatform, settings repository.SettingsRepository, inbox repository.NotificationRepository, log *logger.Logger, opts ...EngineOption) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		platform:   platform,
		settings:   settings,
		inbox:      inbox,
		log:        log.Component("notifications"),
		now:        time.Now,
		permission: PermissionUnknown,
		current:    entity.DefaultNotificationSettings(),
		scheduled:  []entity.ScheduledNotification{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize carga las preferencias guardadas, configura los canales y pide permiso.
// Si el usuario deniega, todas las programaciones quedan deshabilitadas.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.settings != nil {
		stored, err := e.settings.Get(ctx)
		if err != nil {
			e.log.Warn().Err(err).Msg("leer preferencias; se usan valores por defecto")
		} else if stored != nil {
			e.mu.Lock()
			e.current = *stored
			e.mu.Unlock()
		}
	}
	for _, ch := range []ports.Channel{ChannelAlerts, ChannelReports} {
		if err := e.platform.ConfigureChannel(ctx, ch); err != nil {
			e.log.Warn().Err(err).Str("channel", ch.ID).Msg("configurar canal")
		}
	}

	granted, err := e.platform.RequestPermission(ctx)
	if err != nil {
		return domain.Wrap(domain.KindUnknown, "solicitar permiso de notificaciones", err)
	}
	e.mu.Lock()
	if granted {
		e.permission = PermissionGranted
	} else {
		e.permission = PermissionDenied
	}
	e.mu.Unlock()

	if !granted {
		e.log.Warn().Msg("permiso de notificaciones denegado: programación deshabilitada")
		return domain.NewError(domain.KindPermissionDenied, "el usuario denegó el permiso de notificaciones")
	}
	e.log.Info().Msg("notificaciones inicializadas")
	return e.Reload(ctx)
}

// Permission estado del permiso (unknown, granted, denied).
func (e *Engine) Permission() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.permission
}

// Permitted true si el permiso fue concedido.
func (e *Engine) Permitted() bool {
	return e.Permission() == PermissionGranted
}

func (e *Engine) ready() (dto.ScheduleResult, error) {
	switch e.Permission() {
	case PermissionGranted:
		return dto.ScheduleResult{}, nil
	case PermissionDenied:
		return dto.ScheduleResult{Reason: ReasonPermissionDenied},
			domain.NewError(domain.KindPermissionDenied, "permiso de notificaciones denegado")
	default:
		return dto.ScheduleResult{Reason: ReasonNotInitialized},
			domain.Wrap(domain.KindConflict, "notificaciones no inicializadas", domain.ErrNotInitialized)
	}
}

// Settings copia de las preferencias actuales.
func (e *Engine) Settings() entity.NotificationSettings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// UpdateSettings valida, persiste y aplica las preferencias. Los recordatorios diario y
// semanal se programan al habilitarse, se reprograman si cambia su hora y se cancelan al
// deshabilitarse; usan el último contenido conocido.
func (e *Engine) UpdateSettings(ctx context.Context, s entity.NotificationSettings) (entity.NotificationSettings, error) {
	if fields := s.Validate(); len(fields) > 0 {
		return e.Settings(), domain.Validation("preferencias inválidas", fields)
	}
	s.UpdatedAt = e.now()
	if e.settings != nil {
		if err := e.settings.Save(ctx, &s); err != nil {
			return e.Settings(), domain.Wrap(domain.KindServer, "guardar preferencias", err)
		}
	}
	e.mu.Lock()
	prev := e.current
	e.current = s
	daily, weekly := e.daily, e.weekly
	e.mu.Unlock()

	permitted := e.Permitted()
	if needsReschedule(daily.id != "", s.DailySummaryEnabled, permitted, prev.DailySummaryTime != s.DailySummaryTime) {
		if _, err := e.ScheduleDailySummary(ctx, daily.content.Body, daily.content.Data); err != nil {
			e.log.Warn().Err(err).Msg("reprogramar resumen diario")
		}
	}
	weeklyMoved := prev.WeeklyReportDay != s.WeeklyReportDay || prev.WeeklyReportTime != s.WeeklyReportTime
	if needsReschedule(weekly.id != "", s.WeeklyReportEnabled, permitted, weeklyMoved) {
		if _, err := e.ScheduleWeeklyReport(ctx, weekly.content.Body, weekly.content.Data); err != nil {
			e.log.Warn().Err(err).Msg("reprogramar reporte semanal")
		}
	}
	return s, nil
}

// needsReschedule decide si un recordatorio recurrente debe (re)programarse o cancelarse
// tras un cambio de preferencias.
func needsReschedule(scheduled, enabled, permitted, moved bool) bool {
	if !enabled {
		return scheduled
	}
	if !permitted {
		return false
	}
	return !scheduled || moved
}

// ScheduleLowStockAlert avisa de stock bajo cuando stock <= umbral (límite incluido).
func (e *Engine) ScheduleLowStockAlert(ctx context.Context, productName string, stock decimal.Decimal) (dto.ScheduleResult, error) {
	s := e.Settings()
	if !s.LowStockEnabled {
		return dto.ScheduleResult{Reason: ReasonDisabled}, nil
	}
	if res, err := e.ready(); err != nil {
		return res, err
	}
	if stock.GreaterThan(s.LowStockThreshold) {
		return dto.ScheduleResult{Reason: ReasonAboveThreshold}, nil
	}
	return e.scheduleAlert(ctx, entity.AppNotification{
		Type:  entity.NotificationLowStock,
		Title: "⚠️ Stock bajo",
		Body:  fmt.Sprintf("%s tiene solo %s unidades disponibles", productName, stock.String()),
		Data: map[string]any{
			"productName":  productName,
			"currentStock": stock.String(),
			"threshold":    s.LowStockThreshold.String(),
		},
	})
}

// ScheduleOutOfStockAlert avisa de un producto agotado. No depende de umbral.
func (e *Engine) ScheduleOutOfStockAlert(ctx context.Context, productName string) (dto.ScheduleResult, error) {
	if !e.Settings().OutOfStockEnabled {
		return dto.ScheduleResult{Reason: ReasonDisabled}, nil
	}
	if res, err := e.ready(); err != nil {
		return res, err
	}
	return e.scheduleAlert(ctx, entity.AppNotification{
		Type:       entity.NotificationOutOfStock,
		Title:      "🚫 Producto agotado",
		Body:       fmt.Sprintf("%s se ha agotado", productName),
		Data:       map[string]any{"productName": productName},
		Persistent: true,
	})
}

// SpikePercentage incremento porcentual de usage sobre average.
// ok es false si average <= 0: sin línea base no hay pico que medir.
func SpikePercentage(usage, average decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if !average.IsPositive() {
		return decimal.Zero, false
	}
	return usage.Sub(average).Div(average).Mul(hundred), true
}

// ScheduleUsageSpikeAlert avisa cuando el consumo supera al promedio en al menos el
// porcentaje configurado. Con promedio cero o negativo no se considera pico.
func (e *Engine) ScheduleUsageSpikeAlert(ctx context.Context, productName string, usage, average decimal.Decimal) (dto.ScheduleResult, error) {
	s := e.Settings()
	if !s.UsageSpikeEnabled {
		return dto.ScheduleResult{Reason: ReasonDisabled}, nil
	}
	if res, err := e.ready(); err != nil {
		return res, err
	}
	pct, ok := SpikePercentage(usage, average)
	if !ok {
		return dto.ScheduleResult{Reason: ReasonNoBaseline}, nil
	}
	if pct.LessThan(s.UsageSpikeThreshold) {
		return dto.ScheduleResult{Reason: ReasonBelowThreshold}, nil
	}
	return e.scheduleAlert(ctx, entity.AppNotification{
		Type:  entity.NotificationUsageSpike,
		Title: "📈 Pico de consumo",
		Body:  fmt.Sprintf("El consumo de %s subió %s%% sobre el promedio", productName, pct.Round(0).String()),
		Data: map[string]any{
			"productName":        productName,
			"usageCount":         usage.String(),
			"averageUsage":       average.String(),
			"increasePercentage": pct.Round(2).String(),
		},
	})
}

// ScheduleLocal programa una notificación inmediata sin pasar por las preferencias
// (respaldo cuando el backend no acepta la notificación). Respeta las horas de silencio.
func (e *Engine) ScheduleLocal(ctx context.Context, n entity.AppNotification) (dto.ScheduleResult, error) {
	if res, err := e.ready(); err != nil {
		return res, err
	}
	return e.scheduleAlert(ctx, n)
}

// ScheduleDailySummary programa el resumen diario a la hora configurada, reemplazando el anterior.
func (e *Engine) ScheduleDailySummary(ctx context.Context, body string, data map[string]any) (dto.ScheduleResult, error) {
	s := e.Settings()
	e.mu.RLock()
	prev := e.daily.id
	e.mu.RUnlock()
	content := entity.AppNotification{
		Type:  entity.NotificationDailySummary,
		Title: "📊 Resumen diario",
		Body:  nonEmpty(body, DefaultDailyBody),
		Data:  withChannel(data, ChannelReports.ID),
	}
	if !s.DailySummaryEnabled {
		e.cancelRecurring(ctx, prev)
		e.setDaily(recurring{content: content})
		return dto.ScheduleResult{Reason: ReasonDisabled}, nil
	}
	if res, err := e.ready(); err != nil {
		return res, err
	}
	at, err := entity.ParseClock(s.DailySummaryTime)
	if err != nil {
		return dto.ScheduleResult{}, domain.Validation("hora de resumen inválida", map[string]string{"dailySummaryTime": err.Error()})
	}
	e.cancelRecurring(ctx, prev)
	res, err := e.schedule(ctx, content, entity.Trigger{Kind: entity.TriggerDaily, Hour: at.Hour, Minute: at.Minute})
	if err == nil {
		e.setDaily(recurring{id: res.ID, content: content})
	}
	return res, err
}

// ScheduleWeeklyReport programa el reporte semanal en el día y hora configurados, reemplazando el anterior.
func (e *Engine) ScheduleWeeklyReport(ctx context.Context, body string, data map[string]any) (dto.ScheduleResult, error) {
	s := e.Settings()
	e.mu.RLock()
	prev := e.weekly.id
	e.mu.RUnlock()
	content := entity.AppNotification{
		Type:  entity.NotificationWeeklyReport,
		Title: "📋 Reporte semanal",
		Body:  nonEmpty(body, DefaultWeeklyBody),
		Data:  withChannel(data, ChannelReports.ID),
	}
	if !s.WeeklyReportEnabled {
		e.cancelRecurring(ctx, prev)
		e.setWeekly(recurring{content: content})
		return dto.ScheduleResult{Reason: ReasonDisabled}, nil
	}
	if res, err := e.ready(); err != nil {
		return res, err
	}
	at, err := entity.ParseClock(s.WeeklyReportTime)
	if err != nil {
		return dto.ScheduleResult{}, domain.Validation("hora de reporte inválida", map[string]string{"weeklyReportTime": err.Error()})
	}
	e.cancelRecurring(ctx, prev)
	res, err := e.schedule(ctx, content, entity.Trigger{
		Kind: entity.TriggerWeekly, Weekday: s.WeeklyReportDay, Hour: at.Hour, Minute: at.Minute,
	})
	if err == nil {
		e.setWeekly(recurring{id: res.ID, content: content})
	}
	return res, err
}

func (e *Engine) setDaily(r recurring) {
	e.mu.Lock()
	e.daily = r
	e.mu.Unlock()
}

func (e *Engine) setWeekly(r recurring) {
	e.mu.Lock()
	e.weekly = r
	e.mu.Unlock()
}

func (e *Engine) cancelRecurring(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := e.platform.Cancel(ctx, id); err != nil {
		e.log.Warn().Err(err).Str("id", id).Msg("cancelar notificación recurrente")
	}
}

// scheduleAlert programa una alerta inmediata (o diferida al fin de las horas de silencio)
// y la registra en la lista local.
func (e *Engine) scheduleAlert(ctx context.Context, n entity.AppNotification) (dto.ScheduleResult, error) {
	now := e.now()
	n.Data = withChannel(n.Data, ChannelAlerts.ID)
	trigger := entity.Trigger{Kind: entity.TriggerImmediate}
	if q := e.Settings().QuietHours; q.Contains(now) {
		trigger = entity.Trigger{Kind: entity.TriggerAt, At: q.EndAfter(now)}
		n.Data["deferredUntil"] = trigger.At.Format(time.RFC3339)
	}
	res, err := e.schedule(ctx, n, trigger)
	if err != nil {
		return res, err
	}
	if e.inbox != nil {
		n.ID = res.ID
		n.Timestamp = now
		if err := e.inbox.Upsert(ctx, &n); err != nil {
			e.log.Warn().Err(err).Str("id", n.ID).Msg("registrar notificación local")
		}
	}
	return res, nil
}

func (e *Engine) schedule(ctx context.Context, n entity.AppNotification, trigger entity.Trigger) (dto.ScheduleResult, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	id, err := e.platform.Schedule(ctx, n, trigger)
	if err != nil {
		e.log.Error().Err(err).Str("type", n.Type).Msg("programar notificación")
		return dto.ScheduleResult{}, domain.Wrap(domain.KindUnknown, "programar notificación", err)
	}
	e.log.Info().Str("id", id).Str("type", n.Type).Str("trigger", string(trigger.Kind)).Msg("notificación programada")
	if err := e.Reload(ctx); err != nil {
		e.log.Warn().Err(err).Msg("recargar notificaciones programadas")
	}
	return dto.ScheduleResult{Scheduled: true, ID: id}, nil
}

// Reload vuelve a leer de la plataforma la lista de notificaciones programadas.
func (e *Engine) Reload(ctx context.Context) error {
	list, err := e.platform.List(ctx)
	if err != nil {
		return err
	}
	if list == nil {
		list = []entity.ScheduledNotification{}
	}
	e.mu.Lock()
	e.scheduled = list
	e.mu.Unlock()
	return nil
}

// Scheduled lista vigente de la plataforma: las entregas de un solo disparo ya no aparecen.
// Si la plataforma no responde se devuelve la última lista leída.
func (e *Engine) Scheduled(ctx context.Context) []entity.ScheduledNotification {
	if err := e.Reload(ctx); err != nil {
		e.log.Warn().Err(err).Msg("recargar notificaciones programadas")
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]entity.ScheduledNotification, len(e.scheduled))
	copy(out, e.scheduled)
	return out
}

// Cancel cancela una notificación programada.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	if err := e.platform.Cancel(ctx, id); err != nil {
		return err
	}
	e.mu.Lock()
	if e.daily.id == id {
		e.daily = recurring{}
	}
	if e.weekly.id == id {
		e.weekly = recurring{}
	}
	e.mu.Unlock()
	return e.Reload(ctx)
}

// CancelAll cancela todas las notificaciones programadas.
func (e *Engine) CancelAll(ctx context.Context) error {
	if err := e.platform.CancelAll(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.daily, e.weekly = recurring{}, recurring{}
	e.mu.Unlock()
	return e.Reload(ctx)
}

// ReportFire próximo disparo de un recordatorio recurrente programado.
type ReportFire struct {
	Type string
	At   time.Time
}

// UpcomingReports próximos disparos del resumen diario y del reporte semanal vigentes,
// el más cercano primero.
func (e *Engine) UpcomingReports(now time.Time) []ReportFire {
	s := e.Settings()
	e.mu.RLock()
	dailyID, weeklyID := e.daily.id, e.weekly.id
	e.mu.RUnlock()

	var out []ReportFire
	if at, err := entity.ParseClock(s.DailySummaryTime); err == nil && dailyID != "" && s.DailySummaryEnabled {
		t := entity.Trigger{Kind: entity.TriggerDaily, Hour: at.Hour, Minute: at.Minute}
		out = append(out, ReportFire{Type: entity.NotificationDailySummary, At: t.Next(now)})
	}
	if at, err := entity.ParseClock(s.WeeklyReportTime); err == nil && weeklyID != "" && s.WeeklyReportEnabled {
		t := entity.Trigger{Kind: entity.TriggerWeekly, Weekday: s.WeeklyReportDay, Hour: at.Hour, Minute: at.Minute}
		out = append(out, ReportFire{Type: entity.NotificationWeeklyReport, At: t.Next(now)})
	}
	if len(out) == 2 && out[1].At.Before(out[0].At) {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func withChannel(data map[string]any, channel string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["channelId"] = channel
	return out
}

// MarkRead marca como leída una notificación de la lista local.
func (e *Engine) MarkRead(ctx context.Context, id string) error {
	if e.inbox == nil {
		return domain.ErrNotFound
	}
	return e.inbox.MarkRead(ctx, id)
}
