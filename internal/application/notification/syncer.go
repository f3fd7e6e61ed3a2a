package notification

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// SyncConfig intervalo base y backoff ante fallos consecutivos.
type SyncConfig struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	Jitter     float64 // fracción ± aplicada al retardo, 0..1
	// Rand devuelve un valor en [0,1); nil usa math/rand/v2.
	Rand func() float64
}

// SyncStatus estado visible de la sincronización.
type SyncStatus struct {
	LastSync   time.Time `json:"lastSync"`
	LastError  string    `json:"lastError,omitempty"`
	Failures   int       `json:"failures"`
	NextDelay  string    `json:"nextDelay"`
	Registered bool      `json:"deviceRegistered"`
}

// Syncer reconcilia la lista local de notificaciones con la del backend y registra el
// token push una vez concedido el permiso.
type Syncer struct {
	backend ports.NotificationBackend
	inbox   repository.NotificationRepository
	engine  *Engine
	device  entity.Device
	cfg     SyncConfig
	log     *logger.Logger
	now     func() time.Time

	mu         sync.Mutex
	failures   int
	registered bool
	lastSync   time.Time
	lastErr    error
}

// NewSyncer construye el sincronizador. device.Token vacío desactiva el registro push.
func NewSyncer(backend ports.NotificationBackend, inbox repository.NotificationRepository, engine *Engine, device entity.Device, cfg SyncConfig, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.MaxBackoff < cfg.Interval {
		cfg.MaxBackoff = cfg.Interval
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	if cfg.Jitter > 1 {
		cfg.Jitter = 1
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	return &Syncer{
		backend: backend,
		inbox:   inbox,
		engine:  engine,
		device:  device,
		cfg:     cfg,
		log:     log.Component("sync"),
		now:     time.Now,
	}
}

// Run sincroniza al arrancar y luego cada intervalo (con backoff si falla) hasta que ctx se cancele.
func (s *Syncer) Run(ctx context.Context) {
	for {
		if err := s.SyncNow(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn().Err(err).Int("failures", s.Failures()).Msg("sincronización fallida")
		}
		delay := s.NextDelay()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("sincronización detenida")
			return
		case <-timer.C:
		}
	}
}

// SyncNow ejecuta una ronda: registro de dispositivo (si aplica) y fusión de la lista.
func (s *Syncer) SyncNow(ctx context.Context) error {
	s.registerDevice(ctx)

	remote, err := s.backend.ListNotifications(ctx)
	if err == nil {
		err = s.merge(ctx, remote)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failures++
		s.lastErr = err
		return err
	}
	s.failures = 0
	s.lastErr = nil
	s.lastSync = s.now()
	return nil
}

func (s *Syncer) registerDevice(ctx context.Context) {
	s.mu.Lock()
	done := s.registered
	s.mu.Unlock()
	if done || s.device.Token == "" || s.engine == nil || !s.engine.Permitted() {
		return
	}
	if err := s.backend.RegisterDevice(ctx, s.device); err != nil {
		s.log.Warn().Err(err).Str("platform", s.device.Platform).Msg("registrar token push")
		return
	}
	s.mu.Lock()
	s.registered = true
	s.mu.Unlock()
	s.log.Info().Str("platform", s.device.Platform).Msg("token push registrado")
}

// merge aplica la lista del servidor: el servidor manda en las que conoce, las
// sincronizadas que ya no existen allí se eliminan y las locales sin sincronizar se conservan.
func (s *Syncer) merge(ctx context.Context, remote []entity.AppNotification) error {
	local, err := s.inbox.List(ctx, 0)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(remote))
	for i := range remote {
		n := remote[i]
		n.Synced = true
		if n.Timestamp.IsZero() {
			n.Timestamp = s.now()
		}
		seen[n.ID] = true
		if err := s.inbox.Upsert(ctx, &n); err != nil {
			return err
		}
	}
	removed := 0
	for _, n := range local {
		if n.Synced && !seen[n.ID] {
			if err := s.inbox.Delete(ctx, n.ID); err != nil && !domain.IsNotFound(err) {
				return err
			}
			removed++
		}
	}
	s.log.Debug().Int("remote", len(remote)).Int("removed", removed).Msg("notificaciones sincronizadas")
	return nil
}

// NextDelay intervalo base sin fallos; con n fallos consecutivos interval*2^n acotado
// por MaxBackoff, con jitter de ±Jitter.
func (s *Syncer) NextDelay() time.Duration {
	s.mu.Lock()
	failures := s.failures
	s.mu.Unlock()
	return s.delayFor(failures)
}

func (s *Syncer) delayFor(failures int) time.Duration {
	base := float64(s.cfg.Interval)
	if failures > 0 {
		base *= math.Pow(2, float64(min(failures, 30)))
	}
	if ceiling := float64(s.cfg.MaxBackoff); base > ceiling {
		base = ceiling
	}
	if s.cfg.Jitter > 0 {
		base *= 1 + s.cfg.Jitter*(2*s.cfg.Rand()-1)
	}
	if base > float64(s.cfg.MaxBackoff) {
		base = float64(s.cfg.MaxBackoff)
	}
	return time.Duration(base)
}

// Failures fallos consecutivos.
func (s *Syncer) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Status estado de la sincronización.
func (s *Syncer) Status() SyncStatus {
	s.mu.Lock()
	st := SyncStatus{LastSync: s.lastSync, Failures: s.failures, Registered: s.registered}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	failures := s.failures
	s.mu.Unlock()
	st.NextDelay = s.delayFor(failures).Round(time.Second).String()
	return st
}

// Notify crea la notificación en el backend; si falla, la programa localmente.
func (s *Syncer) Notify(ctx context.Context, n entity.AppNotification) (*entity.AppNotification, error) {
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now()
	}
	created, err := s.backend.CreateNotification(ctx, n)
	if err == nil {
		if err := s.inbox.Upsert(ctx, created); err != nil {
			s.log.Warn().Err(err).Str("id", created.ID).Msg("guardar notificación sincronizada")
		}
		return created, nil
	}
	s.log.Warn().Err(err).Str("type", n.Type).Msg("backend rechazó la notificación; se programa localmente")
	if s.engine == nil {
		return nil, err
	}
	res, lerr := s.engine.ScheduleLocal(ctx, n)
	if lerr != nil {
		return nil, lerr
	}
	n.ID = res.ID
	n.Synced = false
	return &n, nil
}

// Notifications lista local ordenada de la más reciente a la más antigua; nunca nil.
func (s *Syncer) Notifications(ctx context.Context, limit int) ([]*entity.AppNotification, error) {
	list, err := s.inbox.List(ctx, limit)
	if err != nil {
		return []*entity.AppNotification{}, err
	}
	if list == nil {
		list = []*entity.AppNotification{}
	}
	return list, nil
}

// UnreadCount notificaciones sin leer.
func (s *Syncer) UnreadCount(ctx context.Context) (int, error) {
	list, err := s.inbox.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead marca localmente y, si la notificación existe en el backend, también allí.
func (s *Syncer) MarkRead(ctx context.Context, id string) error {
	n, err := s.inbox.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.inbox.MarkRead(ctx, id); err != nil {
		return err
	}
	if n.Synced {
		return s.backend.MarkNotificationRead(ctx, id)
	}
	return nil
}

// MarkAllRead marca todas como leídas local y remotamente.
func (s *Syncer) MarkAllRead(ctx context.Context) error {
	if err := s.inbox.MarkAllRead(ctx); err != nil {
		return err
	}
	return s.backend.MarkAllNotificationsRead(ctx)
}

// Delete elimina una notificación local y, si estaba sincronizada, la remota.
func (s *Syncer) Delete(ctx context.Context, id string) error {
	n, err := s.inbox.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.Synced {
		if err := s.backend.DeleteNotification(ctx, id); err != nil && !domain.IsNotFound(err) {
			return err
		}
	}
	return s.inbox.Delete(ctx, id)
}

// Clear vacía la lista local y cancela las notificaciones programadas.
func (s *Syncer) Clear(ctx context.Context) error {
	if err := s.inbox.DeleteAll(ctx); err != nil {
		return err
	}
	if s.engine != nil {
		return s.engine.CancelAll(ctx)
	}
	return nil
}
