package localnotify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// Sink recibe las notificaciones en el momento de su entrega.
type Sink interface {
	Deliver(ctx context.Context, n entity.ScheduledNotification)
}

// LogSink escribe cada entrega en el log.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink crea el sink.
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSink{log: log.Component("delivery")}
}

func (s *LogSink) Deliver(_ context.Context, n entity.ScheduledNotification) {
	s.log.Info().Str("id", n.ID).Str("type", n.Content.Type).Str("trigger", string(n.Trigger.Kind)).
		Str("title", n.Content.Title).Str("body", n.Content.Body).Msg("notificación entregada")
}

// InboxSink guarda en la lista local cada entrega de una notificación recurrente
// (las alertas puntuales ya se registran al programarse).
type InboxSink struct {
	repo repository.NotificationRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewInboxSink crea el sink.
func NewInboxSink(repo repository.NotificationRepository, log *logger.Logger) *InboxSink {
	if log == nil {
		log = logger.Nop()
	}
	return &InboxSink{repo: repo, log: log.Component("delivery"), now: time.Now}
}

func (s *InboxSink) Deliver(ctx context.Context, n entity.ScheduledNotification) {
	if !n.Trigger.Repeats() {
		return
	}
	item := n.Content
	item.ID = uuid.New().String()
	item.Timestamp = s.now()
	item.Read = false
	item.Synced = false
	if err := s.repo.Upsert(ctx, &item); err != nil {
		s.log.Warn().Err(err).Str("type", item.Type).Msg("guardar entrega recurrente")
	}
}

// MultiSink reparte cada entrega entre varios sinks.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, n entity.ScheduledNotification) {
	for _, s := range m {
		s.Deliver(ctx, n)
	}
}

// RecorderSink acumula las entregas (tests y diagnóstico).
type RecorderSink struct {
	mu        sync.Mutex
	delivered []entity.ScheduledNotification
}

func (r *RecorderSink) Deliver(_ context.Context, n entity.ScheduledNotification) {
	r.mu.Lock()
	r.delivered = append(r.delivered, n)
	r.mu.Unlock()
}

// Delivered copia de las entregas registradas.
func (r *RecorderSink) Delivered() []entity.ScheduledNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.ScheduledNotification, len(r.delivered))
	copy(out, r.delivered)
	return out
}
