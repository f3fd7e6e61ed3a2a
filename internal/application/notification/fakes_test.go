package notification_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// fakePlatform plataforma de notificaciones en memoria.
type fakePlatform struct {
	mu        sync.Mutex
	grant     bool
	channels  []ports.Channel
	scheduled []entity.ScheduledNotification
	seq       int
	lists     int
	failNext  bool
}

func (p *fakePlatform) RequestPermission(context.Context) (bool, error) { return p.grant, nil }

func (p *fakePlatform) ConfigureChannel(_ context.Context, ch ports.Channel) error {
	p.channels = append(p.channels, ch)
	return nil
}

func (p *fakePlatform) Schedule(_ context.Context, n entity.AppNotification, tr entity.Trigger) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext {
		p.failNext = false
		return "", errors.New("plataforma no disponible")
	}
	p.seq++
	id := fmt.Sprintf("n%d", p.seq)
	p.scheduled = append(p.scheduled, entity.ScheduledNotification{ID: id, Content: n, Trigger: tr})
	return id, nil
}

func (p *fakePlatform) List(context.Context) ([]entity.ScheduledNotification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists++
	out := make([]entity.ScheduledNotification, len(p.scheduled))
	copy(out, p.scheduled)
	return out, nil
}

func (p *fakePlatform) Cancel(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.scheduled[:0]
	for _, s := range p.scheduled {
		if s.ID != id {
			out = append(out, s)
		}
	}
	p.scheduled = out
	return nil
}

func (p *fakePlatform) CancelAll(context.Context) error {
	p.mu.Lock()
	p.scheduled = nil
	p.mu.Unlock()
	return nil
}

func (p *fakePlatform) count(kind string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.scheduled {
		if s.Content.Type == kind {
			n++
		}
	}
	return n
}

// fakeNotificationBackend implementa ports.NotificationBackend.
type fakeNotificationBackend struct {
	mu         sync.Mutex
	remote     []entity.AppNotification
	listErr    error
	createErr  error
	registered []entity.Device
	readIDs    []string
	deleted    []string
	listCalls  int
}

func (b *fakeNotificationBackend) ListNotifications(context.Context) ([]entity.AppNotification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	out := make([]entity.AppNotification, len(b.remote))
	copy(out, b.remote)
	return out, nil
}

func (b *fakeNotificationBackend) CreateNotification(_ context.Context, n entity.AppNotification) (*entity.AppNotification, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	n.ID, n.Synced = "srv-1", true
	return &n, nil
}

func (b *fakeNotificationBackend) MarkNotificationRead(_ context.Context, id string) error {
	b.readIDs = append(b.readIDs, id)
	return nil
}

func (b *fakeNotificationBackend) MarkAllNotificationsRead(context.Context) error { return nil }

func (b *fakeNotificationBackend) DeleteNotification(_ context.Context, id string) error {
	b.deleted = append(b.deleted, id)
	return nil
}

func (b *fakeNotificationBackend) RegisterDevice(_ context.Context, d entity.Device) error {
	b.registered = append(b.registered, d)
	return nil
}
