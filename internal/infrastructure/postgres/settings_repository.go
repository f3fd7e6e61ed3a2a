package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo preferencias de notificación en una única fila (id = 1).
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// Get devuelve (nil, nil) si no hay preferencias guardadas.
func (r *SettingsRepo) Get(ctx context.Context) (*entity.NotificationSettings, error) {
	query := `
		SELECT low_stock_enabled, out_of_stock_enabled, usage_spike_enabled, daily_summary_enabled,
		       weekly_report_enabled, low_stock_threshold, usage_spike_threshold, quiet_hours,
		       daily_summary_time, weekly_report_day, weekly_report_time, updated_at
		FROM agent_notification_settings WHERE id = 1`
	var (
		s   entity.NotificationSettings
		day int16
	)
	err := r.q.QueryRow(ctx, query).Scan(
		&s.LowStockEnabled, &s.OutOfStockEnabled, &s.UsageSpikeEnabled, &s.DailySummaryEnabled,
		&s.WeeklyReportEnabled, &s.LowStockThreshold, &s.UsageSpikeThreshold, &s.QuietHours,
		&s.DailySummaryTime, &day, &s.WeeklyReportTime, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	s.WeeklyReportDay = time.Weekday(day)
	return &s, nil
}

// Save inserta o reemplaza la fila de preferencias.
func (r *SettingsRepo) Save(ctx context.Context, s *entity.NotificationSettings) error {
	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO agent_notification_settings (
			id, low_stock_enabled, out_of_stock_enabled, usage_spike_enabled, daily_summary_enabled,
			weekly_report_enabled, low_stock_threshold, usage_spike_threshold, quiet_hours,
			daily_summary_time, weekly_report_day, weekly_report_time, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			low_stock_enabled = EXCLUDED.low_stock_enabled,
			out_of_stock_enabled = EXCLUDED.out_of_stock_enabled,
			usage_spike_enabled = EXCLUDED.usage_spike_enabled,
			daily_summary_enabled = EXCLUDED.daily_summary_enabled,
			weekly_report_enabled = EXCLUDED.weekly_report_enabled,
			low_stock_threshold = EXCLUDED.low_stock_threshold,
			usage_spike_threshold = EXCLUDED.usage_spike_threshold,
			quiet_hours = EXCLUDED.quiet_hours,
			daily_summary_time = EXCLUDED.daily_summary_time,
			weekly_report_day = EXCLUDED.weekly_report_day,
			weekly_report_time = EXCLUDED.weekly_report_time,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.LowStockEnabled, s.OutOfStockEnabled, s.UsageSpikeEnabled, s.DailySummaryEnabled,
		s.WeeklyReportEnabled, s.LowStockThreshold, s.UsageSpikeThreshold, s.QuietHours,
		s.DailySummaryTime, int16(s.WeeklyReportDay), s.WeeklyReportTime, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
