package agent_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-agent/internal/application/agent"
	"github.com/jhoicas/Inventario-agent/internal/application/catalog"
	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/movement"
	"github.com/jhoicas/Inventario-agent/internal/application/notification"
	"github.com/jhoicas/Inventario-agent/internal/application/report"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/backend"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/localnotify"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/pdf"
)

// calls contadores de peticiones al backend falso.
type calls struct {
	registered atomic.Int32
	dashboard  atomic.Int32
	statistics atomic.Int32
	created    atomic.Int32
	settingsIn atomic.Value // último body de PUT /settings
	createDown atomic.Bool
}

// fakeServer backend falso con las rutas que usa el arranque del agente.
func fakeServer(t *testing.T, dashboardDown bool) (*httptest.Server, *calls) {
	t.Helper()
	c := &calls{}
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"success":true,"data":[
			{"id":"p1","name":"Harina","quantity":3,"unitPrice":2},
			{"id":"p2","name":"Azúcar","quantity":0},
			{"id":"p3","name":"Sal","quantity":80}]}`)
	})
	mux.HandleFunc("/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		if dashboardDown {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		n := c.dashboard.Add(1)
		write(w, fmt.Sprintf(`{"data":{"totalProducts":3,"lowStockCount":1,"outOfStockCount":1,"movementsToday":%d}}`, n*10))
	})
	mux.HandleFunc("/api/movements/statistics", func(w http.ResponseWriter, r *http.Request) {
		c.statistics.Add(1)
		write(w, `{"data":{"totalMovements":5,"stockInCount":2,"distributionCount":3,
			"topProducts":[{"productId":"p1","productName":"Harina","quantity":30,"averageUsage":10}]}}`)
	})
	mux.HandleFunc("/api/movements/department-stats", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"data":[]}`)
	})
	mux.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			body, _ := io.ReadAll(r.Body)
			c.settingsIn.Store(string(body))
			write(w, `{"data":`+string(body)+`}`)
			return
		}
		write(w, `{"data":{"businessName":"Panadería"}}`)
	})
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if c.createDown.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			n := c.created.Add(1)
			write(w, fmt.Sprintf(`{"data":{"id":"srv-new-%d","type":"system","title":"Aviso"}}`, n))
			return
		}
		write(w, `{"data":[{"id":"srv-1","type":"system","title":"Bienvenido"}]}`)
	})
	mux.HandleFunc("/notifications/register-device", func(w http.ResponseWriter, r *http.Request) {
		c.registered.Add(1)
		write(w, `{"success":true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, c
}

func build(t *testing.T, baseURL string, grant bool) (*agent.Agent, *localnotify.Platform) {
	t.Helper()
	return buildWith(t, baseURL, grant, func(*agent.Deps) {})
}

func buildWith(t *testing.T, baseURL string, grant bool, tune func(*agent.Deps)) (*agent.Agent, *localnotify.Platform) {
	t.Helper()
	client, err := backend.New(baseURL, 2*time.Second, nil)
	require.NoError(t, err)

	inbox := memory.NewNotificationRepository()
	platform := localnotify.New(grant, nil, localnotify.WithSink(&localnotify.RecorderSink{}))
	t.Cleanup(platform.Close)

	engine := notification.NewEngine(platform, memory.NewSettingsRepository(), inbox, nil)
	products := catalog.NewProductStore(client, nil)
	movements := movement.NewService(client, nil)

	deps := agent.Deps{
		Products:      products,
		Departments:   catalog.NewDepartmentService(client, nil),
		Clients:       catalog.NewClientService(client),
		Movements:     movements,
		Notifications: engine,
		Monitor:       notification.NewStockMonitor(engine, memory.NewAlertStateRepository(), nil),
		Syncer: notification.NewSyncer(client, inbox, engine,
			entity.Device{Token: "tok", Platform: "android"},
			notification.SyncConfig{Interval: time.Hour}, nil),
		Reports: report.NewService(report.Deps{
			Dashboard: client, Movements: client, Settings: client, Products: products,
			Generator: pdf.NewMarotoReportGenerator(), Dir: t.TempDir(),
		}, nil),
		Dashboard: client,
		Settings:  client,
	}
	tune(&deps)
	return agent.New(deps, nil), platform
}

func countType(list []entity.ScheduledNotification, kind string) int {
	n := 0
	for _, s := range list {
		if s.Content.Type == kind {
			n++
		}
	}
	return n
}

func TestStart_ProgramaAlertasYReportes(t *testing.T) {
	srv, registered := fakeServer(t, false)
	a, platform := build(t, srv.URL, true)

	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Stop)
	assert.True(t, a.Running())

	assert.Len(t, a.Products.Products(), 3)

	sched, err := platform.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, countType(sched, entity.NotificationDailySummary))
	assert.Equal(t, 1, countType(sched, entity.NotificationWeeklyReport))

	st := a.Status(context.Background())
	assert.Equal(t, notification.PermissionGranted, st.Permission)
	assert.Equal(t, 3, st.Products)

	assert.Eventually(t, func() bool { return registered.registered.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Las alertas inmediatas (Harina baja, Azúcar agotada, pico de Harina) quedan en la lista local.
	assert.Eventually(t, func() bool {
		list, _ := a.Syncer.Notifications(context.Background(), 0)
		types := map[string]bool{}
		for _, n := range list {
			types[n.Type] = true
		}
		return types[entity.NotificationLowStock] && types[entity.NotificationOutOfStock] &&
			types[entity.NotificationUsageSpike] && types[entity.NotificationSystem]
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStart_DobleArranque(t *testing.T) {
	srv, _ := fakeServer(t, false)
	a, _ := build(t, srv.URL, true)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Stop)

	assert.ErrorIs(t, a.Start(context.Background()), domain.ErrConflict)
}

func TestStart_PermisoDenegadoNoImpideArrancar(t *testing.T) {
	srv, registered := fakeServer(t, false)
	a, platform := build(t, srv.URL, false)

	require.NoError(t, a.Start(context.Background()))
	a.Stop()

	sched, _ := platform.List(context.Background())
	assert.Empty(t, sched)
	assert.Equal(t, notification.PermissionDenied, a.Status(context.Background()).Permission)
	assert.Zero(t, registered.registered.Load())
	assert.False(t, a.Running())
}

func TestDashboardStats_RespaldoLocal(t *testing.T) {
	srv, _ := fakeServer(t, true)
	a, _ := build(t, srv.URL, true)
	_, err := a.Products.Refresh(context.Background())
	require.NoError(t, err)

	stats, local := a.DashboardStats(context.Background())
	assert.True(t, local)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 1, stats.LowStockCount)
	assert.Equal(t, 1, stats.OutOfStockCount)
	assert.Equal(t, "6", stats.StockValue.String())
}

func TestStop_Idempotente(t *testing.T) {
	srv, _ := fakeServer(t, false)
	a, _ := build(t, srv.URL, true)
	a.Stop()
	require.NoError(t, a.Start(context.Background()))
	a.Stop()
	a.Stop()
	assert.False(t, a.Running())
}

func scheduledOf(t *testing.T, p *localnotify.Platform, kind string) []entity.ScheduledNotification {
	t.Helper()
	list, err := p.List(context.Background())
	require.NoError(t, err)
	var out []entity.ScheduledNotification
	for _, sn := range list {
		if sn.Content.Type == kind {
			out = append(out, sn)
		}
	}
	return out
}

func TestReportLoop_RegeneraContenidoAntesDelDisparo(t *testing.T) {
	srv, c := fakeServer(t, false)
	// Con una antelación de más de una semana ambos recordatorios están siempre por disparar.
	a, platform := buildWith(t, srv.URL, true, func(d *agent.Deps) { d.ReportLead = 8 * 24 * time.Hour })

	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Stop)

	require.Eventually(t, func() bool { return c.dashboard.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		daily := scheduledOf(t, platform, entity.NotificationDailySummary)
		return len(daily) == 1 && fmt.Sprint(daily[0].Content.Data["movementsToday"]) == "20"
	}, 2*time.Second, 10*time.Millisecond, "el resumen debe llevar las cifras de la segunda lectura")

	weekly := scheduledOf(t, platform, entity.NotificationWeeklyReport)
	require.Len(t, weekly, 1)
	assert.NotEmpty(t, weekly[0].Content.Data["reportPath"])
	assert.GreaterOrEqual(t, c.statistics.Load(), int32(2))
}

func TestReportLoop_SinDisparoCercanoNoRegenera(t *testing.T) {
	srv, c := fakeServer(t, false)
	a, _ := buildWith(t, srv.URL, true, func(d *agent.Deps) { d.ReportLead = time.Nanosecond })

	require.NoError(t, a.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	a.Stop()
	assert.Equal(t, int32(1), c.dashboard.Load())
}

func TestRefreshLoop_PicoUnaVezPorSemana(t *testing.T) {
	srv, c := fakeServer(t, false)
	a, _ := buildWith(t, srv.URL, true, func(d *agent.Deps) { d.RefreshInterval = 10 * time.Millisecond })

	require.NoError(t, a.Start(context.Background()))
	require.Eventually(t, func() bool { return c.statistics.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	a.Stop()

	list, err := a.Syncer.Notifications(context.Background(), 0)
	require.NoError(t, err)
	spikes := 0
	for _, n := range list {
		if n.Type == entity.NotificationUsageSpike {
			spikes++
		}
	}
	assert.Equal(t, 1, spikes)
}

func TestUpdateSettings_HabilitarReporteLoProgramaConDatosNuevos(t *testing.T) {
	srv, c := fakeServer(t, false)
	a, platform := build(t, srv.URL, true)
	ctx := context.Background()

	require.NoError(t, a.Notifications.Initialize(ctx))
	off := a.Notifications.Settings()
	off.DailySummaryEnabled = false
	off.WeeklyReportEnabled = false
	_, err := a.UpdateSettings(ctx, off)
	require.NoError(t, err)
	require.NoError(t, a.ScheduleReports(ctx))
	require.Empty(t, scheduledOf(t, platform, entity.NotificationDailySummary))
	require.Empty(t, scheduledOf(t, platform, entity.NotificationWeeklyReport))

	on := a.Notifications.Settings()
	on.DailySummaryEnabled = true
	on.WeeklyReportEnabled = true
	_, err = a.UpdateSettings(ctx, on)
	require.NoError(t, err)

	// La segunda lectura del dashboard es la de la habilitación.
	daily := scheduledOf(t, platform, entity.NotificationDailySummary)
	require.Len(t, daily, 1)
	assert.NotEqual(t, notification.DefaultDailyBody, daily[0].Content.Body)
	assert.Equal(t, int32(2), c.dashboard.Load())
	assert.Equal(t, "20", fmt.Sprint(daily[0].Content.Data["movementsToday"]))

	weekly := scheduledOf(t, platform, entity.NotificationWeeklyReport)
	require.Len(t, weekly, 1)
	assert.NotEmpty(t, weekly[0].Content.Data["reportPath"])
}

func TestNotify_BackendYRespaldoLocal(t *testing.T) {
	srv, c := fakeServer(t, false)
	a, platform := build(t, srv.URL, true)
	ctx := context.Background()
	require.NoError(t, a.Notifications.Initialize(ctx))

	n, err := a.Notify(ctx, dto.NotificationRequest{Title: "Inventario físico", Body: "Mañana a las 8"})
	require.NoError(t, err)
	assert.Equal(t, "srv-new-1", n.ID)
	assert.Empty(t, scheduledOf(t, platform, entity.NotificationSystem))

	c.createDown.Store(true)
	n, err = a.Notify(ctx, dto.NotificationRequest{Title: "Inventario físico", Body: "Mañana a las 8"})
	require.NoError(t, err)
	assert.False(t, n.Synced)
	assert.Eventually(t, func() bool {
		list, _ := a.Syncer.Notifications(ctx, 0)
		for _, got := range list {
			if got.ID == n.ID {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	_, err = a.Notify(ctx, dto.NotificationRequest{Type: "promo"})
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Fields, "title")
	assert.Contains(t, derr.Fields, "type")
}

func TestAppSettings_LeeYActualizaEnElBackend(t *testing.T) {
	srv, c := fakeServer(t, false)
	a, _ := build(t, srv.URL, true)
	ctx := context.Background()

	got, err := a.AppSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Panadería", got.BusinessName)

	out, err := a.UpdateAppSettings(ctx, dto.AppSettings{BusinessName: "Panadería Sur", Currency: "COP"})
	require.NoError(t, err)
	assert.Equal(t, "Panadería Sur", out.BusinessName)
	assert.Contains(t, c.settingsIn.Load(), `"currency":"COP"`)

	_, err = a.UpdateAppSettings(ctx, dto.AppSettings{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
