package ports

import (
	"context"
	"net/url"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// Puertos de salida hacia el backend REST. Lo implementa backend.Client; los tests usan fakes.
// Todos los métodos devuelven *domain.Error clasificado por status y código de máquina.

// ProductBackend recurso /products.
type ProductBackend interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	CreateProduct(ctx context.Context, in dto.ProductInput) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id string, in dto.ProductInput) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// DepartmentBackend recurso /departments.
type DepartmentBackend interface {
	ListDepartments(ctx context.Context) ([]entity.Department, error)
	GetDepartment(ctx context.Context, id string) (*entity.Department, error)
	CreateDepartment(ctx context.Context, in dto.DepartmentInput) (*entity.Department, error)
	UpdateDepartment(ctx context.Context, id string, in dto.DepartmentInput) (*entity.Department, error)
	DeleteDepartment(ctx context.Context, id string) error
}

// ClientBackend recurso /clients.
type ClientBackend interface {
	ListClients(ctx context.Context) ([]entity.Client, error)
	GetClient(ctx context.Context, id string) (*entity.Client, error)
	CreateClient(ctx context.Context, in dto.ClientInput) (*entity.Client, error)
	UpdateClient(ctx context.Context, id string, in dto.ClientInput) (*entity.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// MovementBackend recurso /api/movements.
type MovementBackend interface {
	// CreateMovement envía idempotencyKey en la cabecera Idempotency-Key.
	CreateMovement(ctx context.Context, idempotencyKey string, in dto.CreateMovementRequest) (*entity.StockMovement, error)
	ListMovements(ctx context.Context, query url.Values) (*dto.MovementPage, error)
	GetMovement(ctx context.Context, id string) (*entity.StockMovement, error)
	UpdateMovement(ctx context.Context, id string, in dto.UpdateMovementRequest) (*entity.StockMovement, error)
	DeleteMovement(ctx context.Context, id string) error
	DepartmentStats(ctx context.Context) ([]entity.DepartmentStats, error)
	DepartmentMovements(ctx context.Context, departmentID string, query url.Values) (*dto.MovementPage, error)
	MovementStatistics(ctx context.Context, period string) (*entity.MovementStatistics, error)
}

// SettingsBackend recurso /settings.
type SettingsBackend interface {
	GetSettings(ctx context.Context) (*dto.AppSettings, error)
	UpdateSettings(ctx context.Context, in dto.AppSettings) (*dto.AppSettings, error)
}

// DashboardBackend recurso /dashboard.
type DashboardBackend interface {
	DashboardStats(ctx context.Context) (*entity.DashboardStats, error)
	LowStockProducts(ctx context.Context) ([]entity.Product, error)
}

// NotificationBackend recurso /notifications (lista sincronizada y registro de dispositivo).
type NotificationBackend interface {
	ListNotifications(ctx context.Context) ([]entity.AppNotification, error)
	CreateNotification(ctx context.Context, n entity.AppNotification) (*entity.AppNotification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	RegisterDevice(ctx context.Context, d entity.Device) error
}
