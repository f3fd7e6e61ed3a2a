package localnotify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/localnotify"
	"github.com/jhoicas/Inventario-agent/internal/infrastructure/memory"
)

func at(y int, m time.Month, d, h, mm int) time.Time {
	return time.Date(y, m, d, h, mm, 0, 0, time.UTC)
}

func TestNextFire(t *testing.T) {
	// 2026-10-14 es miércoles.
	now := at(2026, 10, 14, 12, 0)
	cases := []struct {
		name    string
		trigger entity.Trigger
		want    time.Time
	}{
		{"inmediato", entity.Trigger{Kind: entity.TriggerImmediate}, now},
		{"at futuro", entity.Trigger{Kind: entity.TriggerAt, At: now.Add(time.Hour)}, now.Add(time.Hour)},
		{"at vencido", entity.Trigger{Kind: entity.TriggerAt, At: now.Add(-time.Hour)}, now},
		{"diario más tarde hoy", entity.Trigger{Kind: entity.TriggerDaily, Hour: 18}, at(2026, 10, 14, 18, 0)},
		{"diario ya pasó", entity.Trigger{Kind: entity.TriggerDaily, Hour: 9, Minute: 30}, at(2026, 10, 15, 9, 30)},
		{"diario misma hora", entity.Trigger{Kind: entity.TriggerDaily, Hour: 12}, at(2026, 10, 15, 12, 0)},
		{"semanal viernes", entity.Trigger{Kind: entity.TriggerWeekly, Weekday: time.Friday, Hour: 9}, at(2026, 10, 16, 9, 0)},
		{"semanal lunes", entity.Trigger{Kind: entity.TriggerWeekly, Weekday: time.Monday, Hour: 9}, at(2026, 10, 19, 9, 0)},
		{"semanal hoy más tarde", entity.Trigger{Kind: entity.TriggerWeekly, Weekday: time.Wednesday, Hour: 13}, at(2026, 10, 14, 13, 0)},
		{"semanal hoy ya pasó", entity.Trigger{Kind: entity.TriggerWeekly, Weekday: time.Wednesday, Hour: 8}, at(2026, 10, 21, 8, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, localnotify.NextFire(tc.trigger, now))
		})
	}
}

func TestNextFire_CruzaFinDeAnio(t *testing.T) {
	now := at(2026, 12, 31, 23, 0) // jueves
	assert.Equal(t, at(2027, 1, 1, 7, 0),
		localnotify.NextFire(entity.Trigger{Kind: entity.TriggerDaily, Hour: 7}, now))
	assert.Equal(t, at(2027, 1, 4, 9, 0),
		localnotify.NextFire(entity.Trigger{Kind: entity.TriggerWeekly, Weekday: time.Monday, Hour: 9}, now))
}

func TestSchedule_InmediatoSeEntrega(t *testing.T) {
	rec := &localnotify.RecorderSink{}
	p := localnotify.New(true, nil, localnotify.WithSink(rec))
	t.Cleanup(p.Close)

	id, err := p.Schedule(context.Background(), entity.AppNotification{Type: entity.NotificationLowStock, Title: "x"},
		entity.Trigger{Kind: entity.TriggerImmediate})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Eventually(t, func() bool { return len(rec.Delivered()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, id, rec.Delivered()[0].ID)
	list, err := p.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "los disparadores puntuales salen de la lista al entregarse")
}

func TestSchedule_RecurrenteQuedaEnLista(t *testing.T) {
	now := at(2026, 10, 14, 12, 0)
	p := localnotify.New(true, nil, localnotify.WithClock(func() time.Time { return now }),
		localnotify.WithSink(&localnotify.RecorderSink{}))
	t.Cleanup(p.Close)

	id, err := p.Schedule(context.Background(), entity.AppNotification{ID: "daily", Type: entity.NotificationDailySummary},
		entity.Trigger{Kind: entity.TriggerDaily, Hour: 18})
	require.NoError(t, err)
	assert.Equal(t, "daily", id)

	list, _ := p.List(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, at(2026, 10, 14, 18, 0), list[0].NextFire)

	require.NoError(t, p.Cancel(context.Background(), "daily"))
	list, _ = p.List(context.Background())
	assert.Empty(t, list)
	assert.ErrorIs(t, p.Cancel(context.Background(), "daily"), domain.ErrNotFound)
}

func TestSchedule_DisparadorInvalido(t *testing.T) {
	p := localnotify.New(true, nil)
	t.Cleanup(p.Close)
	_, err := p.Schedule(context.Background(), entity.AppNotification{}, entity.Trigger{Kind: entity.TriggerDaily, Hour: 25})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = p.Schedule(context.Background(), entity.AppNotification{}, entity.Trigger{Kind: "cron"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSchedule_SinPermiso(t *testing.T) {
	p := localnotify.New(false, nil)
	ok, err := p.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = p.Schedule(context.Background(), entity.AppNotification{}, entity.Trigger{Kind: entity.TriggerImmediate})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestCancelAllYClose(t *testing.T) {
	p := localnotify.New(true, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := p.Schedule(ctx, entity.AppNotification{}, entity.Trigger{Kind: entity.TriggerAt, At: time.Now().Add(time.Hour)})
		require.NoError(t, err)
	}
	require.NoError(t, p.CancelAll(ctx))
	list, _ := p.List(ctx)
	assert.Empty(t, list)

	p.Close()
	_, err := p.Schedule(ctx, entity.AppNotification{}, entity.Trigger{Kind: entity.TriggerImmediate})
	assert.Error(t, err)
}

func TestConfigureChannel(t *testing.T) {
	p := localnotify.New(true, nil)
	require.NoError(t, p.ConfigureChannel(context.Background(), ports.Channel{ID: "b", Name: "B"}))
	require.NoError(t, p.ConfigureChannel(context.Background(), ports.Channel{ID: "a", Name: "A", Importance: 5}))
	assert.Error(t, p.ConfigureChannel(context.Background(), ports.Channel{}))

	chs := p.Channels()
	require.Len(t, chs, 2)
	assert.Equal(t, "a", chs[0].ID)
}

func TestInboxSink_SoloRecurrentes(t *testing.T) {
	repo := memory.NewNotificationRepository()
	sink := localnotify.NewInboxSink(repo, nil)
	ctx := context.Background()

	sink.Deliver(ctx, entity.ScheduledNotification{ID: "a", Content: entity.AppNotification{Type: entity.NotificationLowStock}, Trigger: entity.Trigger{Kind: entity.TriggerImmediate}})
	sink.Deliver(ctx, entity.ScheduledNotification{ID: "d", Content: entity.AppNotification{ID: "d", Type: entity.NotificationDailySummary}, Trigger: entity.Trigger{Kind: entity.TriggerDaily}})
	sink.Deliver(ctx, entity.ScheduledNotification{ID: "d", Content: entity.AppNotification{ID: "d", Type: entity.NotificationDailySummary}, Trigger: entity.Trigger{Kind: entity.TriggerDaily}})

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2, "cada entrega recurrente es una entrada nueva")
	assert.NotEqual(t, list[0].ID, list[1].ID)
	assert.Equal(t, entity.NotificationDailySummary, list[0].Type)
}
