// Package agent controlador de nivel superior: dueño del estado de la sesión (productos,
// preferencias y notificaciones programadas) y de los procesos periódicos.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-agent/internal/application/catalog"
	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/movement"
	"github.com/jhoicas/Inventario-agent/internal/application/notification"
	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/application/report"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// Deps componentes ya construidos que el agente coordina.
type Deps struct {
	Products      *catalog.ProductStore
	Departments   *catalog.DepartmentService
	Clients       *catalog.ClientService
	Movements     *movement.Service
	Notifications *notification.Engine
	Monitor       *notification.StockMonitor
	Syncer        *notification.Syncer
	Reports       *report.Service
	Dashboard     ports.DashboardBackend
	Settings      ports.SettingsBackend
	// RefreshInterval cada cuánto se relee la lista de productos y se revisan los picos
	// de consumo (0 desactiva).
	RefreshInterval time.Duration
	// ReportLead antelación con la que se regenera el contenido de un recordatorio
	// antes de su disparo (por defecto 1 minuto).
	ReportLead time.Duration
}

// reportRecheck cada cuánto se revisan los próximos disparos aunque no haya ninguno cerca.
const reportRecheck = time.Minute

// Agent coordina los servicios. Todo acceso al estado pasa por sus componentes.
type Agent struct {
	Deps
	log *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started time.Time

	// spiked productos con pico ya avisado en la semana indicada.
	spikeMu sync.Mutex
	spiked  map[string]string
}

// New construye el agente y suscribe el monitor de stock a la lista de productos.
func New(d Deps, log *logger.Logger) *Agent {
	if log == nil {
		log = logger.Nop()
	}
	if d.ReportLead <= 0 {
		d.ReportLead = time.Minute
	}
	a := &Agent{Deps: d, log: log.Component("agent"), spiked: make(map[string]string)}
	if d.Products != nil && d.Monitor != nil {
		d.Products.Subscribe(d.Monitor.OnProducts)
	}
	return a
}

// Start inicializa notificaciones, carga productos, programa los reportes y arranca la
// sincronización. Un permiso denegado no impide arrancar: las alertas quedan deshabilitadas.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.cancel != nil {
		a.mu.Unlock()
		return domain.NewError(domain.KindConflict, "el agente ya está en marcha")
	}
	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.started = time.Now()
	a.mu.Unlock()

	if err := a.Notifications.Initialize(ctx); err != nil {
		if !errors.Is(err, domain.ErrPermissionDenied) {
			cancel()
			a.mu.Lock()
			a.cancel = nil
			a.mu.Unlock()
			return err
		}
		a.log.Warn().Msg("notificaciones deshabilitadas por el usuario")
	}

	if _, err := a.Products.Refresh(ctx); err != nil {
		a.log.Warn().Err(err).Msg("carga inicial de productos")
	}
	if err := a.ScheduleReports(ctx); err != nil {
		a.log.Warn().Err(err).Msg("programar reportes")
	}
	if err := a.CheckUsageSpikes(ctx); err != nil {
		a.log.Warn().Err(err).Msg("revisar picos de consumo")
	}

	if a.Syncer != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.Syncer.Run(runCtx)
		}()
	}
	if a.RefreshInterval > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.refreshLoop(runCtx)
		}()
	}
	if a.Reports != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.reportLoop(runCtx)
		}()
	}
	a.log.Info().Int("products", len(a.Products.Products())).
		Str("permission", a.Notifications.Permission()).Msg("agente iniciado")
	return nil
}

func (a *Agent) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Products.Refresh(ctx); err != nil && ctx.Err() == nil {
				a.log.Warn().Err(err).Msg("refresco periódico de productos")
			}
			if err := a.CheckUsageSpikes(ctx); err != nil && ctx.Err() == nil {
				a.log.Warn().Err(err).Msg("revisar picos de consumo")
			}
		}
	}
}

// reportLoop regenera el resumen diario y el reporte semanal poco antes de cada disparo
// para que cada entrega lleve datos del momento.
func (a *Agent) reportLoop(ctx context.Context) {
	for {
		if !sleep(ctx, a.untilNextReport(time.Now())) {
			return
		}
		due, last := a.dueReports(time.Now())
		if len(due) == 0 {
			continue
		}
		if err := a.RefreshReports(ctx, due...); err != nil && ctx.Err() == nil {
			a.log.Warn().Err(err).Strs("reports", due).Msg("regenerar recordatorios")
		}
		// Esperar a que pase el disparo para no regenerar el mismo dos veces.
		if !sleep(ctx, time.Until(last)+time.Second) {
			return
		}
	}
}

func (a *Agent) untilNextReport(now time.Time) time.Duration {
	wait := reportRecheck
	if fires := a.Notifications.UpcomingReports(now); len(fires) > 0 {
		if d := fires[0].At.Sub(now) - a.ReportLead; d < wait {
			wait = d
		}
	}
	return wait
}

// dueReports recordatorios cuyo disparo cae dentro de la antelación configurada.
func (a *Agent) dueReports(now time.Time) (types []string, last time.Time) {
	for _, f := range a.Notifications.UpcomingReports(now) {
		if f.At.Sub(now) > a.ReportLead {
			continue
		}
		types = append(types, f.Type)
		if f.At.After(last) {
			last = f.At
		}
	}
	return types, last
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Stop detiene los procesos periódicos y espera a que terminen.
func (a *Agent) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	a.wg.Wait()
	a.log.Info().Dur("uptime", time.Since(a.started)).Msg("agente detenido")
}

// Running indica si Start se ejecutó y Stop aún no.
func (a *Agent) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// ScheduleReports (re)programa el resumen diario y el reporte semanal con datos actuales.
func (a *Agent) ScheduleReports(ctx context.Context) error {
	return a.RefreshReports(ctx, entity.NotificationDailySummary, entity.NotificationWeeklyReport)
}

// RefreshReports reconstruye el contenido de los recordatorios indicados y los reprograma.
// Un recordatorio deshabilitado se cancela.
func (a *Agent) RefreshReports(ctx context.Context, types ...string) error {
	if !a.Notifications.Permitted() || a.Reports == nil {
		return nil
	}
	settings := a.Notifications.Settings()
	var errs []error
	for _, typ := range types {
		switch typ {
		case entity.NotificationDailySummary:
			body, data := a.Reports.DailySummary(ctx, settings.LowStockThreshold)
			if _, err := a.Notifications.ScheduleDailySummary(ctx, body, data); err != nil {
				errs = append(errs, err)
			}
		case entity.NotificationWeeklyReport:
			if err := a.scheduleWeekly(ctx, settings); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (a *Agent) scheduleWeekly(ctx context.Context, settings entity.NotificationSettings) error {
	if !settings.WeeklyReportEnabled {
		_, err := a.Notifications.ScheduleWeeklyReport(ctx, "", nil)
		return err
	}
	r, path, err := a.Reports.Weekly(ctx, settings.LowStockThreshold)
	if err != nil {
		return err
	}
	payload := map[string]any{"totalMovements": r.Stats.TotalMovements}
	if path != "" {
		payload["reportPath"] = path
	}
	_, err = a.Notifications.ScheduleWeeklyReport(ctx, report.WeeklyText(r), payload)
	return err
}

// UpdateSettings aplica las preferencias y, si se habilita algún recordatorio, lo
// programa con contenido recién construido.
func (a *Agent) UpdateSettings(ctx context.Context, s entity.NotificationSettings) (entity.NotificationSettings, error) {
	prev := a.Notifications.Settings()
	out, err := a.Notifications.UpdateSettings(ctx, s)
	if err != nil {
		return out, err
	}
	var enabled []string
	if out.DailySummaryEnabled && !prev.DailySummaryEnabled {
		enabled = append(enabled, entity.NotificationDailySummary)
	}
	if out.WeeklyReportEnabled && !prev.WeeklyReportEnabled {
		enabled = append(enabled, entity.NotificationWeeklyReport)
	}
	if len(enabled) > 0 {
		if err := a.RefreshReports(ctx, enabled...); err != nil {
			a.log.Warn().Err(err).Strs("reports", enabled).Msg("programar recordatorios habilitados")
		}
	}
	return out, nil
}

// CheckUsageSpikes compara el consumo semanal de los productos más usados con su promedio.
// Cada producto se avisa una vez por semana mientras siga en pico.
func (a *Agent) CheckUsageSpikes(ctx context.Context) error {
	if !a.Notifications.Permitted() || !a.Notifications.Settings().UsageSpikeEnabled || a.Movements == nil {
		return nil
	}
	stats, err := a.Movements.Statistics(ctx, movement.PeriodWeek)
	if err != nil {
		return err
	}
	year, week := time.Now().ISOWeek()
	current := fmt.Sprintf("%d-W%02d", year, week)

	var errs []error
	for _, u := range stats.TopProducts {
		key := u.ProductID
		if key == "" {
			key = u.ProductName
		}
		a.spikeMu.Lock()
		seen := a.spiked[key] == current
		a.spikeMu.Unlock()
		if seen {
			continue
		}
		res, err := a.Notifications.ScheduleUsageSpikeAlert(ctx, u.ProductName, u.Quantity, u.AverageUsage)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		a.spikeMu.Lock()
		switch {
		case res.Scheduled:
			a.spiked[key] = current
		case res.Reason == notification.ReasonBelowThreshold || res.Reason == notification.ReasonNoBaseline:
			delete(a.spiked, key)
		}
		a.spikeMu.Unlock()
	}
	return errors.Join(errs...)
}

// Notify publica una notificación en el backend; si el backend no la acepta se programa
// localmente.
func (a *Agent) Notify(ctx context.Context, in dto.NotificationRequest) (*entity.AppNotification, error) {
	if fields := in.Validate(); len(fields) > 0 {
		return nil, domain.Validation("notificación inválida", fields)
	}
	if a.Syncer == nil {
		return nil, domain.NewError(domain.KindConflict, "sincronización no configurada")
	}
	typ := in.Type
	if typ == "" {
		typ = entity.NotificationSystem
	}
	return a.Syncer.Notify(ctx, entity.AppNotification{
		Type:  typ,
		Title: in.Title,
		Body:  in.Body,
		Data:  in.Data,
	})
}

// AppSettings ajustes generales del negocio guardados en el backend.
func (a *Agent) AppSettings(ctx context.Context) (*dto.AppSettings, error) {
	return a.Settings.GetSettings(ctx)
}

// UpdateAppSettings actualiza los ajustes generales del negocio en el backend.
func (a *Agent) UpdateAppSettings(ctx context.Context, in dto.AppSettings) (*dto.AppSettings, error) {
	if in.BusinessName == "" {
		return nil, domain.Validation("ajustes inválidos", map[string]string{"businessName": "requerido"})
	}
	return a.Settings.UpdateSettings(ctx, in)
}

// Status resumen del estado del agente.
type Status struct {
	Running     bool                    `json:"running"`
	Permission  string                  `json:"permission"`
	Products    int                     `json:"products"`
	RefreshedAt time.Time               `json:"refreshedAt"`
	Scheduled   int                     `json:"scheduled"`
	Sync        notification.SyncStatus `json:"sync"`
}

// Status estado actual.
func (a *Agent) Status(ctx context.Context) Status {
	st := Status{
		Running:     a.Running(),
		Permission:  a.Notifications.Permission(),
		Products:    len(a.Products.Products()),
		RefreshedAt: a.Products.RefreshedAt(),
		Scheduled:   len(a.Notifications.Scheduled(ctx)),
	}
	if a.Syncer != nil {
		st.Sync = a.Syncer.Status()
	}
	return st
}

// DashboardStats estadísticas del backend; si falla se calculan con la lista local y
// local es true.
func (a *Agent) DashboardStats(ctx context.Context) (stats *entity.DashboardStats, local bool) {
	stats, err := a.Dashboard.DashboardStats(ctx)
	if err == nil && stats != nil {
		return stats, false
	}
	a.log.Warn().Err(err).Msg("dashboard del backend; se usa la lista local")
	st := report.LocalStats(a.Products.Products(), a.Notifications.Settings().LowStockThreshold)
	return &st, true
}
