package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
)

type alertKey struct{ productID, condition string }

// AlertStateRepository marcas de alertas emitidas.
type AlertStateRepository struct {
	mu     sync.RWMutex
	states map[alertKey]entity.AlertState
}

// NewAlertStateRepository crea el repositorio vacío.
func NewAlertStateRepository() *AlertStateRepository {
	return &AlertStateRepository{states: make(map[alertKey]entity.AlertState)}
}

var _ repository.AlertStateRepository = (*AlertStateRepository)(nil)

// Get devuelve (nil, nil) si no hay marca.
func (r *AlertStateRepository) Get(_ context.Context, productID, condition string) (*entity.AlertState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[alertKey{productID, condition}]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r *AlertStateRepository) Put(_ context.Context, st *entity.AlertState) error {
	r.mu.Lock()
	r.states[alertKey{st.ProductID, st.Condition}] = *st
	r.mu.Unlock()
	return nil
}

func (r *AlertStateRepository) Clear(_ context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.states {
		if k.productID == productID {
			delete(r.states, k)
		}
	}
	return nil
}
