package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-agent/internal/application/notification"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/memory"
)

func newSyncer(t *testing.T, b *fakeNotificationBackend, grant bool, cfg notification.SyncConfig) (*notification.Syncer, *memory.NotificationRepository, *fakePlatform) {
	t.Helper()
	p := &fakePlatform{grant: grant}
	inbox := memory.NewNotificationRepository()
	e := notification.NewEngine(p, memory.NewSettingsRepository(), inbox, nil,
		notification.WithClock(func() time.Time { return noon }))
	_ = e.Initialize(context.Background())
	device := entity.Device{Token: "ExponentPushToken[abc]", Platform: "android"}
	return notification.NewSyncer(b, inbox, e, device, cfg, nil), inbox, p
}

func TestBackoff_CreceSeAcotaYSeReinicia(t *testing.T) {
	b := &fakeNotificationBackend{listErr: domain.NewError(domain.KindNetwork, "sin red")}
	s, _, _ := newSyncer(t, b, true, notification.SyncConfig{
		Interval:   time.Minute,
		MaxBackoff: 10 * time.Minute,
	})
	ctx := context.Background()

	assert.Equal(t, time.Minute, s.NextDelay())

	want := []time.Duration{2 * time.Minute, 4 * time.Minute, 8 * time.Minute, 10 * time.Minute, 10 * time.Minute}
	for i, w := range want {
		require.Error(t, s.SyncNow(ctx))
		assert.Equal(t, w, s.NextDelay(), "fallo #%d", i+1)
	}
	assert.Equal(t, 5, s.Failures())

	b.listErr = nil
	require.NoError(t, s.SyncNow(ctx))
	assert.Equal(t, time.Minute, s.NextDelay())
	assert.Zero(t, s.Failures())
}

func TestBackoff_JitterAcotado(t *testing.T) {
	b := &fakeNotificationBackend{listErr: domain.NewError(domain.KindNetwork, "sin red")}
	r := 0.0
	s, _, _ := newSyncer(t, b, true, notification.SyncConfig{
		Interval:   time.Minute,
		MaxBackoff: 4 * time.Minute,
		Jitter:     0.5,
		Rand:       func() float64 { return r },
	})

	// Rand=0 → factor 0.5; Rand→1 → factor 1.5 acotado por MaxBackoff.
	assert.Equal(t, 30*time.Second, s.NextDelay())
	r = 0.999999
	assert.LessOrEqual(t, s.NextDelay(), 90*time.Second)

	for i := 0; i < 3; i++ {
		_ = s.SyncNow(context.Background())
	}
	assert.Equal(t, 4*time.Minute, s.NextDelay(), "el jitter nunca supera el tope")
	r = 0
	assert.Equal(t, 2*time.Minute, s.NextDelay())
}

func TestSync_FusionaConServidor(t *testing.T) {
	b := &fakeNotificationBackend{remote: []entity.AppNotification{
		{ID: "s1", Type: entity.NotificationSystem, Read: true, Timestamp: noon.Add(-time.Hour)},
		{ID: "s2", Type: entity.NotificationLowStock},
	}}
	s, inbox, _ := newSyncer(t, b, true, notification.SyncConfig{})
	ctx := context.Background()

	require.NoError(t, inbox.Upsert(ctx, &entity.AppNotification{ID: "s1", Read: false, Synced: true}))
	require.NoError(t, inbox.Upsert(ctx, &entity.AppNotification{ID: "gone", Synced: true}))
	require.NoError(t, inbox.Upsert(ctx, &entity.AppNotification{ID: "local", Synced: false}))

	require.NoError(t, s.SyncNow(ctx))

	list, err := s.Notifications(ctx, 0)
	require.NoError(t, err)
	ids := map[string]*entity.AppNotification{}
	for _, n := range list {
		ids[n.ID] = n
	}
	assert.Len(t, ids, 3)
	assert.True(t, ids["s1"].Read, "el servidor manda en el flag de leída")
	assert.True(t, ids["s2"].Synced)
	assert.Contains(t, ids, "local")
	assert.NotContains(t, ids, "gone")

	unread, err := s.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

func TestSync_RegistraTokenUnaVezConPermiso(t *testing.T) {
	b := &fakeNotificationBackend{}
	s, _, _ := newSyncer(t, b, true, notification.SyncConfig{})
	require.NoError(t, s.SyncNow(context.Background()))
	require.NoError(t, s.SyncNow(context.Background()))
	require.Len(t, b.registered, 1)
	assert.Equal(t, "android", b.registered[0].Platform)
	assert.True(t, s.Status().Registered)
}

func TestSync_SinPermisoNoRegistra(t *testing.T) {
	b := &fakeNotificationBackend{}
	s, _, _ := newSyncer(t, b, false, notification.SyncConfig{})
	require.NoError(t, s.SyncNow(context.Background()))
	assert.Empty(t, b.registered)
}

func TestNotify_RespaldoLocal(t *testing.T) {
	b := &fakeNotificationBackend{createErr: domain.NewError(domain.KindServer, "caído")}
	s, inbox, p := newSyncer(t, b, true, notification.SyncConfig{})

	n, err := s.Notify(context.Background(), entity.AppNotification{Type: entity.NotificationSystem, Title: "hola"})
	require.NoError(t, err)
	assert.False(t, n.Synced)
	assert.Equal(t, 1, p.count(entity.NotificationSystem))

	stored, err := inbox.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, "hola", stored.Title)
}

func TestNotify_Backend(t *testing.T) {
	b := &fakeNotificationBackend{}
	s, inbox, p := newSyncer(t, b, true, notification.SyncConfig{})

	n, err := s.Notify(context.Background(), entity.AppNotification{Type: entity.NotificationSystem})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", n.ID)
	assert.Empty(t, p.scheduled)
	_, err = inbox.GetByID(context.Background(), "srv-1")
	assert.NoError(t, err)
}

func TestMarkReadYDelete_PropaganSoloSincronizadas(t *testing.T) {
	b := &fakeNotificationBackend{}
	s, inbox, _ := newSyncer(t, b, true, notification.SyncConfig{})
	ctx := context.Background()
	require.NoError(t, inbox.Upsert(ctx, &entity.AppNotification{ID: "srv", Synced: true}))
	require.NoError(t, inbox.Upsert(ctx, &entity.AppNotification{ID: "loc"}))

	require.NoError(t, s.MarkRead(ctx, "srv"))
	require.NoError(t, s.MarkRead(ctx, "loc"))
	assert.Equal(t, []string{"srv"}, b.readIDs)

	require.NoError(t, s.Delete(ctx, "srv"))
	require.NoError(t, s.Delete(ctx, "loc"))
	assert.Equal(t, []string{"srv"}, b.deleted)

	assert.ErrorIs(t, s.MarkRead(ctx, "nada"), domain.ErrNotFound)
}

func TestRun_SeDetieneConElContexto(t *testing.T) {
	b := &fakeNotificationBackend{}
	s, _, _ := newSyncer(t, b, true, notification.SyncConfig{Interval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.listCalls >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run no terminó tras cancelar el contexto")
	}
}
