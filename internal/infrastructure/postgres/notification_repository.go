package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo lista local de notificaciones sobre PostgreSQL (usable con pool o tx).
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

const notificationColumns = `id, type, title, body, data, ts, read, persistent, synced`

// Upsert inserta o reemplaza la notificación por ID.
func (r *NotificationRepo) Upsert(ctx context.Context, n *entity.AppNotification) error {
	if n == nil || n.ID == "" {
		return domain.Validation("notificación sin id", map[string]string{"id": "requerido"})
	}
	query := `
		INSERT INTO agent_notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type, title = EXCLUDED.title, body = EXCLUDED.body, data = EXCLUDED.data,
			ts = EXCLUDED.ts, read = EXCLUDED.read, persistent = EXCLUDED.persistent, synced = EXCLUDED.synced`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.Type, n.Title, n.Body, n.Data, n.Timestamp, n.Read, n.Persistent, n.Synced,
	)
	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}

// GetByID devuelve domain.ErrNotFound si no existe.
func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*entity.AppNotification, error) {
	query := `SELECT ` + notificationColumns + ` FROM agent_notifications WHERE id = $1`
	n, err := scanNotification(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// List ordenadas por ts descendente (id como desempate). limit <= 0 devuelve todas.
func (r *NotificationRepo) List(ctx context.Context, limit int) ([]*entity.AppNotification, error) {
	query := `SELECT ` + notificationColumns + ` FROM agent_notifications ORDER BY ts DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.AppNotification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE agent_notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `UPDATE agent_notifications SET read = TRUE WHERE NOT read`); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM agent_notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM agent_notifications`); err != nil {
		return fmt.Errorf("delete all notifications: %w", err)
	}
	return nil
}

func scanNotification(row pgx.Row) (*entity.AppNotification, error) {
	var n entity.AppNotification
	if err := row.Scan(
		&n.ID, &n.Type, &n.Title, &n.Body, &n.Data, &n.Timestamp, &n.Read, &n.Persistent, &n.Synced,
	); err != nil {
		return nil, err
	}
	return &n, nil
}
