package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-agent/internal/application/catalog"
	"github.com/jhoicas/Inventario-agent/internal/application/dto"
)

// DepartmentHandler maneja departamentos (destinos de distribución).
type DepartmentHandler struct {
	svc *catalog.DepartmentService
}

// NewDepartmentHandler construye el handler.
func NewDepartmentHandler(svc *catalog.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{svc: svc}
}

// List godoc
// @Summary      Listar departamentos
// @Tags         departments
// @Security     Bearer
// @Produce      json
// @Param        active  query  bool  false  "Solo activos"
// @Success      200  {object}  dto.Envelope
// @Router       /api/departments [get]
func (h *DepartmentHandler) List(c *fiber.Ctx) error {
	list := h.svc.List
	if c.QueryBool("active") {
		list = h.svc.Active
	}
	out, err := list(c.UserContext())
	if err != nil {
		return failList(c, err, out)
	}
	return ok(c, out)
}

// CheckName godoc
// @Summary      Verificar si el nombre de departamento ya existe
// @Tags         departments
// @Security     Bearer
// @Produce      json
// @Param        name       query  string  true   "Nombre"
// @Param        excludeId  query  string  false  "ID a excluir (edición)"
// @Success      200  {object}  dto.NameCheckResponse
// @Router       /api/departments/check-name [get]
func (h *DepartmentHandler) CheckName(c *fiber.Ctx) error {
	name := c.Query("name")
	exists, err := h.svc.CheckNameExists(c.UserContext(), name, c.Query("excludeId"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, dto.NameCheckResponse{Name: name, Exists: exists})
}

// GetByID godoc
// @Summary      Obtener departamento
// @Tags         departments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /api/departments/{id} [get]
func (h *DepartmentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// Create godoc
// @Summary      Crear departamento
// @Tags         departments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DepartmentInput  true  "Datos"
// @Success      201   {object}  dto.Envelope
// @Failure      409   {object}  dto.Envelope
// @Router       /api/departments [post]
func (h *DepartmentHandler) Create(c *fiber.Ctx) error {
	var in dto.DepartmentInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return created(c, out)
}

// Update godoc
// @Summary      Actualizar departamento
// @Tags         departments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID"
// @Param        body  body  dto.DepartmentInput  true  "Datos"
// @Success      200   {object}  dto.Envelope
// @Router       /api/departments/{id} [put]
func (h *DepartmentHandler) Update(c *fiber.Ctx) error {
	var in dto.DepartmentInput
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
// @Summary      Eliminar departamento
// @Tags         departments
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Router       /api/departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClientHandler maneja clientes.
type ClientHandler struct {
	svc *catalog.ClientService
}

// NewClientHandler construye el handler.
func NewClientHandler(svc *catalog.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

// List godoc
// @Summary      Listar clientes
// @Tags         clients
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/clients [get]
func (h *ClientHandler) List(c *fiber.Ctx) error {
	list, err := h.svc.List(c.UserContext())
	if err != nil {
		return failList(c, err, list)
	}
	return ok(c, list)
}

// GetByID godoc
// @Summary      Obtener cliente
// @Tags         clients
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.Envelope
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// Create godoc
// @Summary      Crear cliente
// @Tags         clients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ClientInput  true  "Datos"
// @Success      201   {object}  dto.Envelope
// @Router       /api/clients [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.ClientInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return created(c, out)
}

// Update godoc
// @Summary      Actualizar cliente
// @Tags         clients
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID"
// @Param        body  body  dto.ClientInput  true  "Datos"
// @Success      200   {object}  dto.Envelope
// @Router       /api/clients/{id} [put]
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	var in dto.ClientInput
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
// @Summary      Eliminar cliente
// @Tags         clients
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Router       /api/clients/{id} [delete]
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
