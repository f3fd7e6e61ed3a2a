package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/application/catalog"
	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// thresholdSource umbral de stock bajo vigente (lo da el motor de notificaciones).
type thresholdSource interface {
	Settings() entity.NotificationSettings
}

// ProductHandler maneja las peticiones HTTP de productos (protegido).
type ProductHandler struct {
	store    *catalog.ProductStore
	settings thresholdSource
}

// NewProductHandler construye el handler.
func NewProductHandler(store *catalog.ProductStore, settings thresholdSource) *ProductHandler {
	return &ProductHandler{store: store, settings: settings}
}

// List godoc
// @Summary      Listar productos (lista local del agente)
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	return ok(c, h.store.Products())
}

// Refresh godoc
// @Summary      Releer productos del backend
// @Description  Si el backend falla se devuelve la lista previa junto con el error.
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Failure      502  {object}  dto.Envelope
// @Router       /api/products/refresh [post]
func (h *ProductHandler) Refresh(c *fiber.Ctx) error {
	list, err := h.store.Refresh(c.UserContext())
	if err != nil {
		return failList(c, err, list)
	}
	return ok(c, list)
}

// LowStock godoc
// @Summary      Productos con stock bajo
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        threshold  query  number  false  "Umbral (por defecto el de las preferencias)"
// @Success      200  {object}  dto.Envelope
// @Router       /api/products/low-stock [get]
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	threshold := h.settings.Settings().LowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return badRequest(c, "VALIDATION_ERROR", "threshold debe ser un número >= 0")
		}
		threshold = d
	}
	return ok(c, h.store.LowStock(threshold))
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProductInput  true  "Datos del producto"
// @Success      201   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Failure      409   {object}  dto.Envelope
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.store.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return created(c, out)
}

// Update godoc
// @Summary      Actualizar producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.ProductInput  true  "Datos a actualizar"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Failure      404   {object}  dto.Envelope
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.store.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Tags         products
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.Envelope
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
