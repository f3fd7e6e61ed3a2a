package repository

import (
	"context"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// SettingsRepository persiste las preferencias de notificación.
// Get devuelve (nil, nil) si no hay preferencias guardadas.
type SettingsRepository interface {
	Get(ctx context.Context) (*entity.NotificationSettings, error)
	Save(ctx context.Context, s *entity.NotificationSettings) error
}
