// Package memory implementaciones en memoria de los repositorios locales. Se usan cuando
// no hay DATABASE_URL y en los tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
)

// NotificationRepository lista local de notificaciones.
type NotificationRepository struct {
	mu    sync.RWMutex
	items map[string]entity.AppNotification
}

// NewNotificationRepository crea el repositorio vacío.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{items: make(map[string]entity.AppNotification)}
}

// Verify interface compliance
var _ repository.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Upsert(_ context.Context, n *entity.AppNotification) error {
	if n == nil || n.ID == "" {
		return domain.Validation("notificación sin id", map[string]string{"id": "requerido"})
	}
	cp := *n
	cp.Data = cloneData(n.Data)
	r.mu.Lock()
	r.items[n.ID] = cp
	r.mu.Unlock()
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id string) (*entity.AppNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	n.Data = cloneData(n.Data)
	return &n, nil
}

// List ordenadas por Timestamp descendente (ID como desempate). limit <= 0 devuelve todas.
func (r *NotificationRepository) List(_ context.Context, limit int) ([]*entity.AppNotification, error) {
	r.mu.RLock()
	out := make([]*entity.AppNotification, 0, len(r.items))
	for _, n := range r.items {
		n.Data = cloneData(n.Data)
		out = append(out, &n)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Read = true
	r.items[id] = n
	return nil
}

func (r *NotificationRepository) MarkAllRead(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.items {
		n.Read = true
		r.items[id] = n
	}
	return nil
}

func (r *NotificationRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *NotificationRepository) DeleteAll(context.Context) error {
	r.mu.Lock()
	r.items = make(map[string]entity.AppNotification)
	r.mu.Unlock()
	return nil
}

func cloneData(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
