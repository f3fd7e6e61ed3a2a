package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrForbidden        = errors.New("acceso denegado")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrTimeout          = errors.New("tiempo de espera agotado")
	ErrNetwork          = errors.New("error de red")
	ErrServer           = errors.New("error del servidor")
	ErrPermissionDenied = errors.New("permiso de notificaciones denegado")
	ErrNotInitialized   = errors.New("servicio de notificaciones no inicializado")
	ErrUnknown          = errors.New("error desconocido")
)

// Kind clasifica un error de forma estructurada (nunca por texto del mensaje).
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindDuplicate        Kind = "duplicate"
	KindConflict         Kind = "conflict"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindTimeout          Kind = "timeout"
	KindNetwork          Kind = "network"
	KindServer           Kind = "server"
	KindPermissionDenied Kind = "permission_denied"
	KindUnknown          Kind = "unknown"
)

// Códigos de máquina que envía el backend en el campo "code" del cuerpo de error.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeDuplicate    = "DUPLICATE"
	CodeNotFound     = "NOT_FOUND"
	CodeDBTimeout    = "DB_TIMEOUT"
	CodeTimeout      = "TIMEOUT"
	CodeNetwork      = "NETWORK_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL"
)

// Error es el error estructurado que devuelven todos los servicios.
// Status es el código HTTP del backend (0 si la petición no llegó a responder).
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.Status, e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap permite errors.Is contra el sentinel del Kind y contra la causa original.
func (e *Error) Unwrap() []error {
	errs := []error{sentinelFor(e.Kind)}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewError construye un *Error con el Kind indicado.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: codeFor(kind), Message: message}
}

// Validation construye un error de validación con los campos inválidos.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Fields: fields}
}

// Wrap envuelve una causa con el Kind indicado.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Code: codeFor(kind), Message: message, Err: err}
}

// KindOf devuelve el Kind de err; KindUnknown si no es un *Error ni un sentinel conocido.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// Classify traduce status HTTP + código de máquina del backend a un Kind.
// El código tiene prioridad; el status es el respaldo.
func Classify(status int, code string) Kind {
	switch code {
	case CodeValidation:
		return KindValidation
	case CodeDuplicate:
		return KindDuplicate
	case CodeNotFound:
		return KindNotFound
	case CodeDBTimeout, CodeTimeout:
		return KindTimeout
	case CodeUnauthorized:
		return KindUnauthorized
	case CodeForbidden:
		return KindForbidden
	case CodeConflict:
		return KindConflict
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindServer
	}
	return KindUnknown
}

var sentinels = map[Kind]error{
	KindValidation:       ErrInvalidInput,
	KindNotFound:         ErrNotFound,
	KindDuplicate:        ErrDuplicate,
	KindConflict:         ErrConflict,
	KindUnauthorized:     ErrUnauthorized,
	KindForbidden:        ErrForbidden,
	KindTimeout:          ErrTimeout,
	KindNetwork:          ErrNetwork,
	KindServer:           ErrServer,
	KindPermissionDenied: ErrPermissionDenied,
	KindUnknown:          ErrUnknown,
}

func sentinelFor(kind Kind) error {
	if s, ok := sentinels[kind]; ok {
		return s
	}
	return ErrUnknown
}

func codeFor(kind Kind) string {
	switch kind {
	case KindValidation:
		return CodeValidation
	case KindDuplicate:
		return CodeDuplicate
	case KindNotFound:
		return CodeNotFound
	case KindTimeout:
		return CodeTimeout
	case KindNetwork:
		return CodeNetwork
	case KindUnauthorized:
		return CodeUnauthorized
	case KindForbidden:
		return CodeForbidden
	case KindConflict:
		return CodeConflict
	case KindPermissionDenied:
		return "PERMISSION_DENIED"
	}
	return CodeInternal
}

// IsNotFound atajo para errors.Is(err, ErrNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
