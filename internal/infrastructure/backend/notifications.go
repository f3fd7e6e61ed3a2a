package backend

import (
	"context"
	"net/http"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// ListNotifications GET /notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]entity.AppNotification, error) {
	var out []entity.AppNotification
	if err := c.call(ctx, request{method: http.MethodGet, path: "/notifications"}, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Synced = true
	}
	if out == nil {
		out = []entity.AppNotification{}
	}
	return out, nil
}

// CreateNotification POST /notifications.
func (c *Client) CreateNotification(ctx context.Context, n entity.AppNotification) (*entity.AppNotification, error) {
	var out entity.AppNotification
	if err := c.call(ctx, request{method: http.MethodPost, path: "/notifications", body: n}, &out); err != nil {
		return nil, err
	}
	out.Synced = true
	return &out, nil
}

// MarkNotificationRead PUT /notifications/:id/read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.call(ctx, request{method: http.MethodPut, path: resource("/notifications", id, "read")}, nil)
}

// MarkAllNotificationsRead PUT /notifications/read-all.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.call(ctx, request{method: http.MethodPut, path: "/notifications/read-all"}, nil)
}

// DeleteNotification DELETE /notifications/:id.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.call(ctx, request{method: http.MethodDelete, path: resource("/notifications", id)}, nil)
}

// RegisterDevice POST /notifications/register-device.
func (c *Client) RegisterDevice(ctx context.Context, d entity.Device) error {
	return c.call(ctx, request{method: http.MethodPost, path: "/notifications/register-device", body: d}, nil)
}
