package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
)

var _ repository.AlertStateRepository = (*AlertStateRepo)(nil)

// AlertStateRepo marcas de alertas ya emitidas por (producto, condición).
type AlertStateRepo struct {
	q Querier
}

// NewAlertStateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAlertStateRepository(q Querier) *AlertStateRepo {
	return &AlertStateRepo{q: q}
}

// Get devuelve (nil, nil) si no hay marca.
func (r *AlertStateRepo) Get(ctx context.Context, productID, condition string) (*entity.AlertState, error) {
	query := `
		SELECT product_id, condition, fired_at
		FROM agent_alert_states WHERE product_id = $1 AND condition = $2`
	var st entity.AlertState
	err := r.q.QueryRow(ctx, query, productID, condition).Scan(&st.ProductID, &st.Condition, &st.FiredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert state: %w", err)
	}
	return &st, nil
}

func (r *AlertStateRepo) Put(ctx context.Context, st *entity.AlertState) error {
	query := `
		INSERT INTO agent_alert_states (product_id, condition, fired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, condition) DO UPDATE SET fired_at = EXCLUDED.fired_at`
	if _, err := r.q.Exec(ctx, query, st.ProductID, st.Condition, st.FiredAt); err != nil {
		return fmt.Errorf("put alert state: %w", err)
	}
	return nil
}

// Clear elimina todas las marcas del producto.
func (r *AlertStateRepo) Clear(ctx context.Context, productID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM agent_alert_states WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear alert states: %w", err)
	}
	return nil
}
