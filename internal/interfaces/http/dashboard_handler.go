package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-agent/internal/application/agent"
	"github.com/jhoicas/Inventario-agent/internal/application/dto"
)

// DashboardHandler estadísticas del tablero y estado del agente.
type DashboardHandler struct {
	agent *agent.Agent
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(a *agent.Agent) *DashboardHandler {
	return &DashboardHandler{agent: a}
}

// Stats godoc
// @Summary      Estadísticas del tablero
// @Description  Si el backend no responde se calculan con la lista local; message lo indica.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/dashboard/stats [get]
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, local := h.agent.DashboardStats(c.UserContext())
	env := dto.Envelope{Success: true, Data: stats}
	if local {
		env.Message = "estadísticas calculadas con la lista local"
	}
	return c.JSON(env)
}

// Status godoc
// @Summary      Estado del agente (permiso, productos, sincronización)
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/agent/status [get]
func (h *DashboardHandler) Status(c *fiber.Ctx) error {
	return ok(c, h.agent.Status(c.UserContext()))
}

// AppSettings godoc
// @Summary      Ajustes generales del negocio
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/settings [get]
func (h *DashboardHandler) AppSettings(c *fiber.Ctx) error {
	out, err := h.agent.AppSettings(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// UpdateAppSettings godoc
// @Summary      Actualizar ajustes generales del negocio
// @Tags         settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AppSettings  true  "Ajustes"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /api/settings [put]
func (h *DashboardHandler) UpdateAppSettings(c *fiber.Ctx) error {
	var in dto.AppSettings
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.agent.UpdateAppSettings(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, out)
}

// Health godoc
// @Summary      Salud del proceso
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /health [get]
func (h *DashboardHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"running": h.agent.Running(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
