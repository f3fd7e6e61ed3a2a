package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/notification"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// notifier operaciones del agente que coordinan varias piezas (recordatorios, backend).
type notifier interface {
	UpdateSettings(ctx context.Context, s entity.NotificationSettings) (entity.NotificationSettings, error)
	Notify(ctx context.Context, in dto.NotificationRequest) (*entity.AppNotification, error)
}

// NotificationHandler preferencias, lista local y alertas manuales.
type NotificationHandler struct {
	engine   *notification.Engine
	syncer   *notification.Syncer
	notifier notifier
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(engine *notification.Engine, syncer *notification.Syncer, n notifier) *NotificationHandler {
	return &NotificationHandler{engine: engine, syncer: syncer, notifier: n}
}

// GetSettings godoc
// @Summary      Preferencias de notificación
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/notifications/settings [get]
func (h *NotificationHandler) GetSettings(c *fiber.Ctx) error {
	return ok(c, h.engine.Settings())
}

// UpdateSettings godoc
// @Summary      Actualizar preferencias de notificación
// @Description  Los campos ausentes conservan su valor actual.
// @Tags         notifications
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  entity.NotificationSettings  true  "Preferencias"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /api/notifications/settings [put]
func (h *NotificationHandler) UpdateSettings(c *fiber.Ctx) error {
	in := h.engine.Settings()
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.notifier.UpdateSettings(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// List godoc
// @Summary      Notificaciones locales (más recientes primero)
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Límite (0 = todas)"
// @Success      200  {object}  dto.Envelope
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	list, err := h.syncer.Notifications(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return failList(c, err, list)
	}
	return ok(c, list)
}

// Create godoc
// @Summary      Publicar una notificación
// @Description  Se crea en el backend; si el backend no responde se programa localmente.
// @Tags         notifications
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.NotificationRequest  true  "Notificación"
// @Success      201   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /api/notifications [post]
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var in dto.NotificationRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.notifier.Notify(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return created(c, out)
}

// UnreadCount godoc
// @Summary      Cantidad de notificaciones sin leer
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.syncer.UnreadCount(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"unread": n})
}

// MarkRead godoc
// @Summary      Marcar notificación como leída
// @Tags         notifications
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Failure      404  {object}  dto.Envelope
// @Router       /api/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.syncer.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead godoc
// @Summary      Marcar todas como leídas
// @Tags         notifications
// @Security     Bearer
// @Success      204
// @Router       /api/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	if err := h.syncer.MarkAllRead(c.UserContext()); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete godoc
// @Summary      Eliminar una notificación
// @Tags         notifications
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Router       /api/notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	if err := h.syncer.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Clear godoc
// @Summary      Vaciar la lista y cancelar las programadas
// @Tags         notifications
// @Security     Bearer
// @Success      204
// @Router       /api/notifications [delete]
func (h *NotificationHandler) Clear(c *fiber.Ctx) error {
	if err := h.syncer.Clear(c.UserContext()); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Scheduled godoc
// @Summary      Notificaciones locales pendientes de entrega
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/notifications/scheduled [get]
func (h *NotificationHandler) Scheduled(c *fiber.Ctx) error {
	list := h.engine.Scheduled(c.UserContext())
	if list == nil {
		list = []entity.ScheduledNotification{}
	}
	return ok(c, list)
}

// UsageSpike godoc
// @Summary      Evaluar un pico de consumo
// @Description  Programa la alerta si el consumo supera al promedio en más del umbral configurado.
// @Tags         notifications
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UsageSpikeRequest  true  "Consumo"
// @Success      200   {object}  dto.Envelope
// @Failure      403   {object}  dto.Envelope
// @Router       /api/notifications/usage-spike [post]
func (h *NotificationHandler) UsageSpike(c *fiber.Ctx) error {
	var in dto.UsageSpikeRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.ProductName == "" {
		return fail(c, domain.Validation("productName es requerido", map[string]string{"productName": "requerido"}))
	}
	res, err := h.engine.ScheduleUsageSpikeAlert(c.UserContext(), in.ProductName, in.UsageCount, in.AverageUsage)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, res)
}

// Sync godoc
// @Summary      Sincronizar ahora con el backend
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Failure      502  {object}  dto.Envelope
// @Router       /api/notifications/sync [post]
func (h *NotificationHandler) Sync(c *fiber.Ctx) error {
	if err := h.syncer.SyncNow(c.UserContext()); err != nil {
		return fail(c, err)
	}
	return ok(c, h.syncer.Status())
}
