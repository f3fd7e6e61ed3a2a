package repository

import (
	"context"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// AlertStateRepository guarda qué alertas de stock ya se emitieron para no repetirlas
// hasta que el producto se recupere.
type AlertStateRepository interface {
	Get(ctx context.Context, productID, condition string) (*entity.AlertState, error)
	Put(ctx context.Context, st *entity.AlertState) error
	// Clear elimina todas las marcas del producto (recuperación sobre el umbral).
	Clear(ctx context.Context, productID string) error
}
