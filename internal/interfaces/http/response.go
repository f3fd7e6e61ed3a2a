package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain"
)

// ok responde 200 con el sobre {success:true, data}.
func ok(c *fiber.Ctx, data any) error {
	return c.JSON(dto.Envelope{Success: true, Data: data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(dto.Envelope{Success: true, Data: data})
}

// fail traduce err al status y sobre de error de la API local.
func fail(c *fiber.Ctx, err error) error {
	return failWith(c, err, nil)
}

// failList igual que fail pero con data [] para que el cliente nunca reciba null en listados.
func failList[T any](c *fiber.Ctx, err error, empty []T) error {
	if empty == nil {
		empty = []T{}
	}
	return failWith(c, err, empty)
}

func failWith(c *fiber.Ctx, err error, data any) error {
	status, body := errorBody(err)
	env := dto.Envelope{Success: false, Data: data, Code: body.Code, Message: body.Message, Errors: body.Errors}
	return c.Status(status).JSON(env)
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}

// errorBody status HTTP y cuerpo para err; los errores sin clasificar salen como 500.
func errorBody(err error) (int, dto.ErrorResponse) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		kind := domain.KindOf(err)
		derr = domain.NewError(kind, err.Error())
	}
	return statusFor(derr.Kind), dto.ErrorResponse{
		Code:    derr.Code,
		Message: derr.Message,
		Errors:  derr.Fields,
	}
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindDuplicate, domain.KindConflict:
		return fiber.StatusConflict
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindForbidden, domain.KindPermissionDenied:
		return fiber.StatusForbidden
	case domain.KindTimeout:
		return fiber.StatusGatewayTimeout
	case domain.KindNetwork, domain.KindServer:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler manejador de errores de Fiber: rutas inexistentes, panics recuperados y
// errores devueltos por handlers salen con el mismo sobre.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return c.Status(ferr.Code).JSON(dto.Envelope{Success: false, Code: httpCode(ferr.Code), Message: ferr.Message})
	}
	return fail(c, err)
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return domain.CodeNotFound
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "BODY_TOO_LARGE"
	}
	if status >= 500 {
		return domain.CodeInternal
	}
	return "HTTP_ERROR"
}
