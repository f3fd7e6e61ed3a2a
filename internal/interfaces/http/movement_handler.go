package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/movement"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// HeaderIdempotencyKey cabecera con la que el cliente reintenta un alta sin duplicarla.
const HeaderIdempotencyKey = "Idempotency-Key"

// MovementHandler maneja entradas de stock y distribuciones.
type MovementHandler struct {
	svc *movement.Service
}

// NewMovementHandler construye el handler.
func NewMovementHandler(svc *movement.Service) *MovementHandler {
	return &MovementHandler{svc: svc}
}

// Create godoc
// @Summary      Registrar movimiento de inventario
// @Description  stock_in (entrada de proveedor) o distribution (salida a un departamento).
// @Description  Los totales se calculan a partir de los productos si no vienen en el cuerpo.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                     false  "Clave para reintentar sin duplicar"
// @Param        body             body    dto.CreateMovementRequest  true   "Movimiento"
// @Success      201   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /api/movements [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.StockManager == "" {
		in.StockManager = GetUsername(c)
	}
	out, err := h.svc.Create(c.UserContext(), c.Get(HeaderIdempotencyKey), in)
	if err != nil {
		return fail(c, err)
	}
	return created(c, out)
}

// List godoc
// @Summary      Listar movimientos
// @Description  Los filtros vacíos o "all" no se envían al backend.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        type        query  string  false  "stock_in | distribution | all"
// @Param        department  query  string  false  "ID de departamento | all"
// @Param        startDate   query  string  false  "YYYY-MM-DD"
// @Param        endDate     query  string  false  "YYYY-MM-DD"
// @Param        page        query  int     false  "Página"
// @Param        limit       query  int     false  "Límite"
// @Success      200  {object}  dto.Envelope
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	f, err := parseFilters(c)
	if err != nil {
		return failList(c, err, []entity.StockMovement{})
	}
	page, err := h.svc.List(c.UserContext(), f)
	return h.page(c, page, err)
}

// Department godoc
// @Summary      Movimientos de un departamento
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del departamento"
// @Param        type  query  string  false  "stock_in | distribution | all"
// @Success      200  {object}  dto.Envelope
// @Router       /api/movements/department/{id} [get]
func (h *MovementHandler) Department(c *fiber.Ctx) error {
	f, err := parseFilters(c)
	if err != nil {
		return failList(c, err, []entity.StockMovement{})
	}
	page, err := h.svc.DepartmentMovements(c.UserContext(), c.Params("id"), f)
	return h.page(c, page, err)
}

func (h *MovementHandler) page(c *fiber.Ctx, page *dto.MovementPage, err error) error {
	if err != nil {
		return failList(c, err, page.Items)
	}
	return c.JSON(dto.Envelope{Success: true, Data: page.Items, Pagination: &page.Pagination})
}

// GetByID godoc
// @Summary      Obtener movimiento
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /api/movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// Update godoc
// @Summary      Actualizar movimiento
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID"
// @Param        body  body  dto.UpdateMovementRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.Envelope
// @Router       /api/movements/{id} [put]
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.svc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// Delete godoc
// @Summary      Eliminar movimiento
// @Tags         movements
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Router       /api/movements/{id} [delete]
func (h *MovementHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Statistics godoc
// @Summary      Estadísticas de movimientos del período
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        period  query  string  false  "day | week | month | year"  default(week)
// @Success      200  {object}  dto.Envelope
// @Failure      400  {object}  dto.Envelope
// @Router       /api/movements/statistics [get]
func (h *MovementHandler) Statistics(c *fiber.Ctx) error {
	out, err := h.svc.Statistics(c.UserContext(), c.Query("period"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// DepartmentStats godoc
// @Summary      Totales de distribución por departamento
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/movements/department-stats [get]
func (h *MovementHandler) DepartmentStats(c *fiber.Ctx) error {
	out, err := h.svc.DepartmentStats(c.UserContext())
	if err != nil {
		return failList(c, err, out)
	}
	return ok(c, out)
}

// parseFilters lee los filtros de la query; las fechas aceptan YYYY-MM-DD o RFC3339.
func parseFilters(c *fiber.Ctx) (dto.MovementFilters, error) {
	f := dto.MovementFilters{
		Type:       c.Query("type"),
		Department: c.Query("department"),
		Page:       c.QueryInt("page", 0),
		Limit:      c.QueryInt("limit", 0),
	}
	fields := map[string]string{}
	start, err := movement.ParseDate(c.Query("startDate"))
	if err != nil {
		fields["startDate"] = "formato YYYY-MM-DD"
	}
	end, err := movement.ParseDate(c.Query("endDate"))
	if err != nil {
		fields["endDate"] = "formato YYYY-MM-DD"
	}
	if len(fields) > 0 {
		return f, domain.Validation("filtros inválidos", fields)
	}
	f.StartDate, f.EndDate = start, end
	return f, nil
}
