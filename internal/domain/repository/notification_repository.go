package repository

import (
	"context"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// NotificationRepository define el puerto de persistencia de la lista local de notificaciones.
type NotificationRepository interface {
	Upsert(ctx context.Context, n *entity.AppNotification) error
	GetByID(ctx context.Context, id string) (*entity.AppNotification, error)
	// List devuelve las notificaciones ordenadas por Timestamp descendente.
	List(ctx context.Context, limit int) ([]*entity.AppNotification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
