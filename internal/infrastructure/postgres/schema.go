package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema tablas locales del agente. Idempotente.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS agent_notifications (
		id          TEXT PRIMARY KEY,
		type        TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		body        TEXT NOT NULL DEFAULT '',
		data        JSONB,
		ts          TIMESTAMPTZ NOT NULL,
		read        BOOLEAN NOT NULL DEFAULT FALSE,
		persistent  BOOLEAN NOT NULL DEFAULT FALSE,
		synced      BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS agent_notifications_ts_idx ON agent_notifications (ts DESC, id)`,
	`CREATE TABLE IF NOT EXISTS agent_notification_settings (
		id                     SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		low_stock_enabled      BOOLEAN NOT NULL,
		out_of_stock_enabled   BOOLEAN NOT NULL,
		usage_spike_enabled    BOOLEAN NOT NULL,
		daily_summary_enabled  BOOLEAN NOT NULL,
		weekly_report_enabled  BOOLEAN NOT NULL,
		low_stock_threshold    NUMERIC(18,4) NOT NULL,
		usage_spike_threshold  NUMERIC(18,4) NOT NULL,
		quiet_hours            JSONB NOT NULL,
		daily_summary_time     TEXT NOT NULL,
		weekly_report_day      SMALLINT NOT NULL,
		weekly_report_time     TEXT NOT NULL,
		updated_at             TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS agent_alert_states (
		product_id  TEXT NOT NULL,
		condition   TEXT NOT NULL,
		fired_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (product_id, condition)
	)`,
}

// EnsureSchema crea las tablas si no existen, en una sola transacción.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return RunInTx(ctx, pool, func(q Querier) error {
		for _, stmt := range schema {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}
