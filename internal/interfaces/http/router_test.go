package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-agent/internal/application/agent"
	"github.com/jhoicas/Inventario-agent/internal/application/auth"
	"github.com/jhoicas/Inventario-agent/internal/application/catalog"
	"github.com/jhoicas/Inventario-agent/internal/application/movement"
	"github.com/jhoicas/Inventario-agent/internal/application/notification"
	"github.com/jhoicas/Inventario-agent/internal/application/report"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/backend"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/localnotify"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Inventario-agent/internal/interfaces/http"
)

const testPassword = "secreta-123"

// remote backend REST falso; movementsDown simula la caída del listado de movimientos.
type remote struct {
	mu            sync.Mutex
	movementsDown bool
	lastMovement  map[string]any
	movementKeys  []string
	notifications int
}

func (r *remote) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
	mux.HandleFunc("/products", func(w http.ResponseWriter, req *http.Request) {
		write(w, http.StatusOK, `{"success":true,"data":[
			{"id":"p1","name":"Harina","quantity":3,"unitPrice":2},
			{"id":"p2","name":"Sal","quantity":80}]}`)
	})
	mux.HandleFunc("/departments", func(w http.ResponseWriter, req *http.Request) {
		write(w, http.StatusOK, `{"data":[{"id":"d1","name":"Bodega Central","isActive":true}]}`)
	})
	mux.HandleFunc("/dashboard/stats", func(w http.ResponseWriter, req *http.Request) {
		write(w, http.StatusOK, `{"data":{"totalProducts":2,"lowStockCount":1,"movementsToday":4}}`)
	})
	mux.HandleFunc("/api/movements", func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if req.Method == http.MethodPost {
			var body map[string]any
			_ = json.NewDecoder(req.Body).Decode(&body)
			r.lastMovement = body
			r.movementKeys = append(r.movementKeys, req.Header.Get("Idempotency-Key"))
			write(w, http.StatusCreated, `{"data":{"id":"m1","movementId":"MOV-001","type":"stock_in","products":[]}}`)
			return
		}
		if r.movementsDown {
			write(w, http.StatusInternalServerError, `{"code":"DB_TIMEOUT","message":"Operation buffering timed out"}`)
			return
		}
		write(w, http.StatusOK, `{"data":{"movements":[],"pagination":{"page":1,"limit":20,"total":0}}}`)
	})
	mux.HandleFunc("/api/movements/statistics", func(w http.ResponseWriter, req *http.Request) {
		write(w, http.StatusOK, `{"data":{"totalMovements":1}}`)
	})
	mux.HandleFunc("/api/movements/department-stats", func(w http.ResponseWriter, req *http.Request) {
		write(w, http.StatusOK, `{"data":[]}`)
	})
	mux.HandleFunc("/settings", func(w http.ResponseWriter, req *http.Request) {
		write(w, http.StatusOK, `{"data":{"businessName":"Panadería"}}`)
	})
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.mu.Lock()
			r.notifications++
			r.mu.Unlock()
			write(w, http.StatusCreated, `{"data":{"id":"srv-9","type":"system","title":"Inventario físico"}}`)
			return
		}
		write(w, http.StatusOK, `{"data":[]}`)
	})
	return mux
}

type testEnv struct {
	app    *fiber.App
	remote *remote
	agent  *agent.Agent
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	rm := &remote{}
	srv := httptest.NewServer(rm.handler())
	t.Cleanup(srv.Close)

	client, err := backend.New(srv.URL, 2*time.Second, nil)
	require.NoError(t, err)
	inbox := memory.NewNotificationRepository()
	platform := localnotify.New(true, nil, localnotify.WithSink(&localnotify.RecorderSink{}))
	t.Cleanup(platform.Close)
	engine := notification.NewEngine(platform, memory.NewSettingsRepository(), inbox, nil)
	products := catalog.NewProductStore(client, nil)

	a := agent.New(agent.Deps{
		Products:      products,
		Departments:   catalog.NewDepartmentService(client, nil),
		Clients:       catalog.NewClientService(client),
		Movements:     movement.NewService(client, nil),
		Notifications: engine,
		Monitor:       notification.NewStockMonitor(engine, memory.NewAlertStateRepository(), nil),
		Syncer:        notification.NewSyncer(client, inbox, engine, entity.Device{}, notification.SyncConfig{Interval: time.Hour}, nil),
		Reports:       report.NewService(report.Deps{Dashboard: client, Movements: client, Settings: client, Products: products}, nil),
		Dashboard:     client,
		Settings:      client,
	}, nil)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Stop)

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	authUC := auth.NewAuthUseCase([]entity.Operator{
		{Username: "maria", PasswordHash: hash, Role: entity.RoleEncargado},
		{Username: "luis", PasswordHash: hash, Role: entity.RoleLector},
	}, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer})

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{Agent: a, AuthUC: authUC, JWTSecret: testJWTSecret, JWTIssuer: testIssuer})
	return &testEnv{app: app, remote: rm, agent: a}
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"`+username+`","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return "Bearer " + out.Token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	return e.doWithHeaders(t, method, path, token, body, nil)
}

func (e *testEnv) doWithHeaders(t *testing.T, method, path, token, body string, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestHealth_SinToken(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"maria","password":"otra"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProducts_RequiereToken(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodGet, "/api/products", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProducts_ListaLocalYStockBajo(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "luis")

	env := decode(t, e.do(t, http.MethodGet, "/api/products", tok, ""))
	var list []entity.Product
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	env = decode(t, e.do(t, http.MethodGet, "/api/products/low-stock?threshold=5", tok, ""))
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Harina", list[0].Name)

	resp := e.do(t, http.MethodGet, "/api/products/low-stock?threshold=-1", tok, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProducts_LectorNoPuedeCrear(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodPost, "/api/products", e.login(t, "luis"), `{"name":"Levadura"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMovements_ValidacionConCampos(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodPost, "/api/movements", e.login(t, "maria"), `{"type":"distribution","products":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env := decode(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
	assert.Contains(t, env.Errors, "departmentId")
	assert.Contains(t, env.Errors, "products")
}

func TestMovements_EncargadoPorDefectoEsElOperador(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodPost, "/api/movements", e.login(t, "maria"),
		`{"type":"stock_in","supplier":"Molinos","products":[{"productId":"p1","quantity":5,"unit":"kg"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	e.remote.mu.Lock()
	defer e.remote.mu.Unlock()
	assert.Equal(t, "maria", e.remote.lastMovement["stockManager"])
	assert.NotNil(t, e.remote.lastMovement["totalItems"])
}

func TestMovements_FalloDelBackendDevuelveListaVacia(t *testing.T) {
	e := newEnv(t)
	e.remote.mu.Lock()
	e.remote.movementsDown = true
	e.remote.mu.Unlock()

	resp := e.do(t, http.MethodGet, "/api/movements?type=all", e.login(t, "luis"), "")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)

	env := decode(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "DB_TIMEOUT", env.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMovements_FechaInvalida(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodGet, "/api/movements?startDate=ayer", e.login(t, "luis"), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decode(t, resp)
	assert.Contains(t, env.Errors, "startDate")
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMovements_PeriodoInvalido(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodGet, "/api/movements/statistics?period=decade", e.login(t, "luis"), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDepartments_CheckName(t *testing.T) {
	e := newEnv(t)
	env := decode(t, e.do(t, http.MethodGet, "/api/departments/check-name?name=%20bodega%20CENTRAL%20", e.login(t, "luis"), ""))
	var out struct {
		Exists bool `json:"exists"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.True(t, out.Exists)

	env = decode(t, e.do(t, http.MethodGet, "/api/departments/check-name?name=bodega%20central&excludeId=d1", e.login(t, "luis"), ""))
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.False(t, out.Exists)
}

func TestNotificationSettings_ActualizacionParcial(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodPut, "/api/notifications/settings", e.login(t, "maria"), `{"lowStockThreshold":"5"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin cambia preferencias")

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	e.app = fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(e.app, apphttp.RouterDeps{
		Agent: e.agent,
		AuthUC: auth.NewAuthUseCase([]entity.Operator{{Username: "admin", PasswordHash: hash}},
			auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer}),
		JWTSecret: testJWTSecret,
	})
	tok := e.login(t, "admin")

	resp = e.do(t, http.MethodPut, "/api/notifications/settings", tok, `{"lowStockThreshold":"5","quietHours":{"enabled":true,"start":"23:00","end":"06:00"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := e.agent.Notifications.Settings()
	assert.Equal(t, "5", s.LowStockThreshold.String())
	assert.True(t, s.QuietHours.Enabled)
	assert.True(t, s.OutOfStockEnabled, "los campos ausentes se conservan")

	resp = e.do(t, http.MethodPut, "/api/notifications/settings", tok, `{"dailySummaryTime":"25:99"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decode(t, resp)
	assert.Contains(t, env.Errors, "dailySummaryTime")
	assert.Equal(t, "5", e.agent.Notifications.Settings().LowStockThreshold.String())
}

func TestUsageSpike_PromedioCeroNoEsPico(t *testing.T) {
	e := newEnv(t)
	env := decode(t, e.do(t, http.MethodPost, "/api/notifications/usage-spike", e.login(t, "maria"),
		`{"productName":"Harina","usageCount":10,"averageUsage":0}`))
	var res struct {
		Scheduled bool   `json:"scheduled"`
		Reason    string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Scheduled)
	assert.Equal(t, notification.ReasonNoBaseline, res.Reason)
}

func TestNotifications_ListaYDeleteInexistente(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "luis")

	env := decode(t, e.do(t, http.MethodGet, "/api/notifications", tok, ""))
	var list []entity.AppNotification
	require.NoError(t, json.Unmarshal(env.Data, &list))
	// Harina (3) queda bajo el umbral por defecto: la alerta se registró al arrancar.
	assert.NotEmpty(t, list)

	resp := e.do(t, http.MethodDelete, "/api/notifications/no-existe", tok, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, "/api/notifications", tok, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDashboardStats(t *testing.T) {
	e := newEnv(t)
	env := decode(t, e.do(t, http.MethodGet, "/api/dashboard/stats", e.login(t, "luis"), ""))
	assert.True(t, env.Success)
	assert.Empty(t, env.Message)
	var stats entity.DashboardStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.TotalProducts)
}

func TestRutaInexistente_SobreDeError(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodGet, "/no-existe", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decode(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestMovements_ReenvioConservaClaveDeIdempotencia(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, "maria")
	body := `{"type":"stock_in","supplier":"Molinos","products":[{"productId":"p1","quantity":5,"unit":"kg"}]}`
	headers := map[string]string{"Idempotency-Key": "tablet-3-000042"}

	for range 2 {
		resp := e.doWithHeaders(t, http.MethodPost, "/api/movements", token, body, headers)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := e.do(t, http.MethodPost, "/api/movements", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	e.remote.mu.Lock()
	defer e.remote.mu.Unlock()
	require.Len(t, e.remote.movementKeys, 3)
	assert.Equal(t, "tablet-3-000042", e.remote.movementKeys[0])
	assert.Equal(t, "tablet-3-000042", e.remote.movementKeys[1])
	assert.NotEmpty(t, e.remote.movementKeys[2])
	assert.NotEqual(t, "tablet-3-000042", e.remote.movementKeys[2])
}

func TestNotifications_PublicarEnBackend(t *testing.T) {
	e := newEnv(t)
	body := `{"title":"Inventario físico","body":"Mañana a las 8"}`

	resp := e.do(t, http.MethodPost, "/api/notifications", e.login(t, "luis"), body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/notifications", e.login(t, "maria"), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var n entity.AppNotification
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &n))
	assert.Equal(t, "srv-9", n.ID)
	assert.True(t, n.Synced)

	resp = e.do(t, http.MethodPost, "/api/notifications", e.login(t, "maria"), `{"body":"sin título"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode(t, resp).Errors, "title")

	e.remote.mu.Lock()
	assert.Equal(t, 1, e.remote.notifications)
	e.remote.mu.Unlock()
}

func TestAppSettings_LecturaYPermisos(t *testing.T) {
	e := newEnv(t)
	token := e.login(t, "luis")

	resp := e.do(t, http.MethodGet, "/api/settings", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(decode(t, resp).Data), "Panadería")

	resp = e.do(t, http.MethodPut, "/api/settings", e.login(t, "maria"), `{"businessName":"Otra"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
