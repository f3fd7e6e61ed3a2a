// Package localnotify implementación en proceso de la API de notificaciones locales:
// permisos, canales, disparadores inmediatos, a hora fija, diarios y semanales.
package localnotify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

var _ ports.NotificationPlatform = (*Platform)(nil)

// Platform programa notificaciones con timers y las entrega a un Sink.
type Platform struct {
	grant bool
	sink  Sink
	log   *logger.Logger
	now   func() time.Time

	mu       sync.Mutex
	channels map[string]ports.Channel
	entries  map[string]*entry
	closed   bool
}

type entry struct {
	sn    entity.ScheduledNotification
	timer *time.Timer
}

// Option personaliza la plataforma.
type Option func(*Platform)

// WithSink destino de las entregas (por defecto LogSink).
func WithSink(s Sink) Option {
	return func(p *Platform) { p.sink = s }
}

// WithClock reloj para calcular el próximo disparo.
func WithClock(now func() time.Time) Option {
	return func(p *Platform) { p.now = now }
}

// New crea la plataforma. grant es la respuesta del "usuario" a la solicitud de permiso.
func New(grant bool, log *logger.Logger, opts ...Option) *Platform {
	if log == nil {
		log = logger.Nop()
	}
	p := &Platform{
		grant:    grant,
		log:      log.Component("localnotify"),
		now:      time.Now,
		channels: make(map[string]ports.Channel),
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sink == nil {
		p.sink = NewLogSink(log)
	}
	return p
}

func (p *Platform) RequestPermission(context.Context) (bool, error) {
	return p.grant, nil
}

func (p *Platform) ConfigureChannel(_ context.Context, ch ports.Channel) error {
	if ch.ID == "" {
		return domain.Validation("canal sin id", map[string]string{"id": "requerido"})
	}
	p.mu.Lock()
	p.channels[ch.ID] = ch
	p.mu.Unlock()
	return nil
}

// Channels canales configurados.
func (p *Platform) Channels() []ports.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.Channel, 0, len(p.channels))
	for _, ch := range p.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Schedule registra la notificación. Usa content.ID como identificador si viene informado.
func (p *Platform) Schedule(_ context.Context, content entity.AppNotification, trigger entity.Trigger) (string, error) {
	if !p.grant {
		return "", domain.NewError(domain.KindPermissionDenied, "permiso de notificaciones denegado")
	}
	if err := validateTrigger(trigger); err != nil {
		return "", err
	}
	id := content.ID
	if id == "" {
		id = uuid.New().String()
	}
	content.ID = id

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", domain.NewError(domain.KindConflict, "plataforma cerrada")
	}
	if old, ok := p.entries[id]; ok {
		old.timer.Stop()
	}
	e := &entry{sn: entity.ScheduledNotification{ID: id, Content: content, Trigger: trigger}}
	p.entries[id] = e
	p.arm(e, p.now())
	return id, nil
}

// arm programa el timer del próximo disparo. Requiere p.mu.
func (p *Platform) arm(e *entry, now time.Time) {
	next := NextFire(e.sn.Trigger, now)
	e.sn.NextFire = next
	id := e.sn.ID
	e.timer = time.AfterFunc(next.Sub(now), func() { p.fire(id) })
}

func (p *Platform) fire(id string) {
	p.mu.Lock()
	e, ok := p.entries[id]
	if !ok || p.closed {
		p.mu.Unlock()
		return
	}
	delivered := e.sn
	if e.sn.Trigger.Repeats() {
		// now puede caer unos instantes antes del disparo previsto si el timer se adelanta.
		now := p.now()
		if now.Before(delivered.NextFire) {
			now = delivered.NextFire
		}
		p.arm(e, now)
	} else {
		delete(p.entries, id)
	}
	p.mu.Unlock()

	p.sink.Deliver(context.Background(), delivered)
}

func (p *Platform) List(context.Context) ([]entity.ScheduledNotification, error) {
	p.mu.Lock()
	out := make([]entity.ScheduledNotification, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.sn)
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextFire.Equal(out[j].NextFire) {
			return out[i].ID < out[j].ID
		}
		return out[i].NextFire.Before(out[j].NextFire)
	})
	return out, nil
}

func (p *Platform) Cancel(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.timer.Stop()
	delete(p.entries, id)
	return nil
}

func (p *Platform) CancelAll(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, e := range p.entries {
		e.timer.Stop()
		delete(p.entries, id)
	}
	return nil
}

// Close detiene todos los timers; Schedule falla a partir de aquí.
func (p *Platform) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		e.timer.Stop()
	}
	p.closed = true
}

func validateTrigger(t entity.Trigger) error {
	fields := map[string]string{}
	switch t.Kind {
	case entity.TriggerImmediate:
	case entity.TriggerAt:
		if t.At.IsZero() {
			fields["at"] = "requerido"
		}
	case entity.TriggerDaily, entity.TriggerWeekly:
		if t.Hour < 0 || t.Hour > 23 {
			fields["hour"] = "debe estar entre 0 y 23"
		}
		if t.Minute < 0 || t.Minute > 59 {
			fields["minute"] = "debe estar entre 0 y 59"
		}
		if t.Kind == entity.TriggerWeekly && (t.Weekday < time.Sunday || t.Weekday > time.Saturday) {
			fields["weekday"] = "debe estar entre 0 y 6"
		}
	default:
		fields["kind"] = "disparador desconocido"
	}
	if len(fields) > 0 {
		return domain.Validation("disparador inválido", fields)
	}
	return nil
}

// NextFire próximo disparo de t después de now.
func NextFire(t entity.Trigger, now time.Time) time.Time {
	return t.Next(now)
}
