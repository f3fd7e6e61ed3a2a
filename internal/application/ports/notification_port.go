package ports

import (
	"context"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// Channel configuración de canal al estilo Android (id, nombre, importancia).
type Channel struct {
	ID          string
	Name        string
	Importance  int // 1 (mínima) .. 5 (máxima)
	Description string
}

// NotificationPlatform puerto hacia la API de notificaciones locales de la plataforma.
type NotificationPlatform interface {
	// RequestPermission devuelve false si el usuario deniega el permiso.
	RequestPermission(ctx context.Context) (bool, error)
	ConfigureChannel(ctx context.Context, ch Channel) error
	// Schedule registra la notificación y devuelve su identificador.
	Schedule(ctx context.Context, content entity.AppNotification, trigger entity.Trigger) (string, error)
	List(ctx context.Context) ([]entity.ScheduledNotification, error)
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
}

// ReportGenerator renderiza el reporte semanal a PDF.
type ReportGenerator interface {
	GenerateWeeklyReport(ctx context.Context, report entity.WeeklyReport) ([]byte, error)
}
