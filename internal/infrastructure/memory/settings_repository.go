package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
)

// SettingsRepository preferencias en memoria: se pierden al reiniciar.
type SettingsRepository struct {
	mu       sync.RWMutex
	settings *entity.NotificationSettings
}

// NewSettingsRepository crea el repositorio sin preferencias guardadas.
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

var _ repository.SettingsRepository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(context.Context) (*entity.NotificationSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.settings == nil {
		return nil, nil
	}
	cp := *r.settings
	return &cp, nil
}

func (r *SettingsRepository) Save(_ context.Context, s *entity.NotificationSettings) error {
	cp := *s
	r.mu.Lock()
	r.settings = &cp
	r.mu.Unlock()
	return nil
}
