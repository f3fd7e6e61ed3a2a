package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-agent/internal/application/agent"
	"github.com/jhoicas/Inventario-agent/internal/application/auth"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Agent     *agent.Agent
	AuthUC    *auth.AuthUseCase
	JWTSecret string
	JWTIssuer string // vacío: no se valida iss
}

// Router registra las rutas de la API local.
func Router(app *fiber.App, deps RouterDeps) {
	a := deps.Agent
	dashboardHandler := NewDashboardHandler(a)
	app.Get("/health", dashboardHandler.Health)

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	writers := RequireRole(entity.RoleAdmin, entity.RoleEncargado)
	admins := RequireRole(entity.RoleAdmin)

	protected.Get("/agent/status", dashboardHandler.Status)
	protected.Get("/dashboard/stats", dashboardHandler.Stats)
	protected.Get("/settings", dashboardHandler.AppSettings)
	protected.Put("/settings", admins, dashboardHandler.UpdateAppSettings)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(a.Products, a.Notifications)
	products.Get("/", productHandler.List)
	products.Post("/refresh", productHandler.Refresh)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", writers, productHandler.Create)
	products.Put("/:id", writers, productHandler.Update)
	products.Delete("/:id", admins, productHandler.Delete)

	// Departments (check-name antes de /:id)
	departments := protected.Group("/departments")
	departmentHandler := NewDepartmentHandler(a.Departments)
	departments.Get("/", departmentHandler.List)
	departments.Get("/check-name", departmentHandler.CheckName)
	departments.Get("/:id", departmentHandler.GetByID)
	departments.Post("/", writers, departmentHandler.Create)
	departments.Put("/:id", writers, departmentHandler.Update)
	departments.Delete("/:id", admins, departmentHandler.Delete)

	// Clients
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(a.Clients)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Post("/", writers, clientHandler.Create)
	clients.Put("/:id", writers, clientHandler.Update)
	clients.Delete("/:id", admins, clientHandler.Delete)

	// Movements (rutas fijas antes de /:id)
	movements := protected.Group("/movements")
	movementHandler := NewMovementHandler(a.Movements)
	movements.Get("/", movementHandler.List)
	movements.Get("/statistics", movementHandler.Statistics)
	movements.Get("/department-stats", movementHandler.DepartmentStats)
	movements.Get("/department/:id", movementHandler.Department)
	movements.Get("/:id", movementHandler.GetByID)
	movements.Post("/", writers, movementHandler.Create)
	movements.Put("/:id", writers, movementHandler.Update)
	movements.Delete("/:id", admins, movementHandler.Delete)

	// Notifications
	notifications := protected.Group("/notifications")
	notificationHandler := NewNotificationHandler(a.Notifications, a.Syncer, a)
	notifications.Get("/settings", notificationHandler.GetSettings)
	notifications.Put("/settings", admins, notificationHandler.UpdateSettings)
	notifications.Get("/scheduled", notificationHandler.Scheduled)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Post("/usage-spike", writers, notificationHandler.UsageSpike)
	notifications.Post("/sync", notificationHandler.Sync)
	notifications.Post("/read-all", notificationHandler.MarkAllRead)
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/", writers, notificationHandler.Create)
	notifications.Delete("/", admins, notificationHandler.Clear)
	notifications.Post("/:id/read", notificationHandler.MarkRead)
	notifications.Delete("/:id", notificationHandler.Delete)
}
