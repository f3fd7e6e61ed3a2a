// Package backend implementa los puertos de salida hacia el backend REST de inventario.
//
// Todas las respuestas pasan por el mismo decodificador de sobre (data.data, data o cuerpo
// crudo) y todos los errores salen como *domain.Error clasificados por status HTTP y por
// el campo "code" del cuerpo; nunca se inspecciona el texto del mensaje.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// Verificar en tiempo de compilación que Client implementa los puertos.
var (
	_ ports.ProductBackend      = (*Client)(nil)
	_ ports.DepartmentBackend   = (*Client)(nil)
	_ ports.ClientBackend       = (*Client)(nil)
	_ ports.MovementBackend     = (*Client)(nil)
	_ ports.SettingsBackend     = (*Client)(nil)
	_ ports.DashboardBackend    = (*Client)(nil)
	_ ports.NotificationBackend = (*Client)(nil)
)

const maxBodyBytes = 4 << 20

// Client cliente HTTP del backend. Seguro para uso concurrente.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *logger.Logger
	userAgent  string
}

// Option personaliza el cliente.
type Option func(*Client)

// WithHTTPClient reemplaza el *http.Client (tests, transportes propios).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent fija la cabecera User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New construye el cliente. baseURL debe ser absoluta (esquema y host).
func New(baseURL string, timeout time.Duration, log *logger.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: URL base inválida %q", baseURL)
	}
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Component("backend"),
		userAgent:  "inventario-agent",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describe una llamada al backend.
type request struct {
	method  string
	path    string
	query   url.Values
	headers map[string]string
	body    any
}

// resource arma base/id con el id escapado como un único segmento de ruta.
func resource(base, id string, rest ...string) string {
	seg := url.PathEscape(id)
	switch id {
	case ".":
		seg = "%2E"
	case "..":
		seg = "%2E%2E"
	}
	return strings.Join(append([]string{base, seg}, rest...), "/")
}

// errorBody cuerpo de error del backend: {"success":false,"code":"...","message":"...","errors":{...}}.
type errorBody struct {
	Success *bool           `json:"success"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

// do ejecuta la petición y devuelve el cuerpo crudo de una respuesta exitosa.
func (c *Client) do(ctx context.Context, r request) (json.RawMessage, error) {
	endpoint := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		endpoint.RawQuery = r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, domain.Wrap(domain.KindValidation, "serializar request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint.String(), reader)
	if err != nil {
		return nil, domain.Wrap(domain.KindUnknown, "crear HTTP request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", r.method).Str("path", r.path).
			Dur("elapsed", time.Since(start)).Msg("petición al backend fallida")
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.Wrap(domain.KindNetwork, "leer respuesta", err)
	}

	c.log.Debug().Str("method", r.method).Str("path", r.path).
		Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("backend")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		derr := statusError(resp.StatusCode, raw)
		c.log.Warn().Str("method", r.method).Str("path", r.path).Int("status", resp.StatusCode).
			Str("code", derr.Code).Msg("backend respondió con error")
		return nil, derr
	}
	if derr := softError(resp.StatusCode, raw); derr != nil {
		return nil, derr
	}
	return bytes.TrimSpace(raw), nil
}

// call ejecuta la petición y decodifica el dato desenvuelto en out (puede ser nil).
func (c *Client) call(ctx context.Context, r request, out any) error {
	raw, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	data := unwrapData(raw)
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.Wrap(domain.KindServer, "respuesta del backend con formato inesperado", err)
	}
	return nil
}

// transportError clasifica errores sin respuesta HTTP: timeout o red.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.Wrap(domain.KindTimeout, "tiempo de espera agotado", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.Wrap(domain.KindTimeout, "tiempo de espera agotado", err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.Wrap(domain.KindNetwork, "petición cancelada", err)
	}
	return domain.Wrap(domain.KindNetwork, "no se pudo contactar al backend", err)
}

// statusError convierte una respuesta no-2xx en *domain.Error.
func statusError(status int, raw []byte) *domain.Error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	code := body.Code
	kind := domain.Classify(status, code)
	if code == "" {
		code = defaultCode(kind)
	}
	return &domain.Error{
		Kind:    kind,
		Status:  status,
		Code:    code,
		Message: msg,
		Fields:  parseFieldErrors(body.Errors),
	}
}

// softError detecta respuestas 2xx con {"success": false}.
func softError(status int, raw []byte) *domain.Error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var body errorBody
	if err := json.Unmarshal(trimmed, &body); err != nil || body.Success == nil || *body.Success {
		return nil
	}
	kind := domain.Classify(0, body.Code)
	if kind == domain.KindUnknown {
		kind = domain.KindServer
	}
	code := body.Code
	if code == "" {
		code = defaultCode(kind)
	}
	msg := body.Message
	if msg == "" {
		msg = "operación rechazada por el backend"
	}
	return &domain.Error{Kind: kind, Status: status, Code: code, Message: msg, Fields: parseFieldErrors(body.Errors)}
}

func defaultCode(kind domain.Kind) string {
	return domain.NewError(kind, "").Code
}

// parseFieldErrors acepta {"campo":"msg"} o [{"field":"campo","message":"msg"}].
func parseFieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap
	}
	var asList []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil
	}
	out := make(map[string]string, len(asList))
	for i, e := range asList {
		field := e.Field
		if field == "" {
			field = e.Path
		}
		if field == "" {
			field = fmt.Sprintf("%d", i)
		}
		msg := e.Message
		if msg == "" {
			msg = e.Msg
		}
		out[field] = msg
	}
	return out
}

// unwrapData tolera los tres sobres que usa el backend:
//
//	{"data": {"data": X}}  → X
//	{"data": X}            → X
//	X                      → X
//
// Solo se desciende en objetos cuyas claves son todas de sobre, así una entidad con su
// propio campo "data" (p. ej. una notificación) no se confunde con un sobre.
func unwrapData(raw []byte) json.RawMessage {
	data := json.RawMessage(bytes.TrimSpace(raw))
	for i := 0; i < 2; i++ {
		inner, ok := envelopeData(data)
		if !ok {
			break
		}
		data = inner
	}
	return data
}

var envelopeKeys = map[string]bool{
	"data": true, "success": true, "message": true, "code": true,
	"pagination": true, "total": true, "meta": true, "status": true,
}

func envelopeData(raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	inner, ok := obj["data"]
	if !ok {
		return nil, false
	}
	for k := range obj {
		if !envelopeKeys[k] {
			return nil, false
		}
	}
	return inner, true
}
