package backend

import (
	"context"
	"net/http"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
)

// GetSettings GET /settings.
func (c *Client) GetSettings(ctx context.Context) (*dto.AppSettings, error) {
	var out dto.AppSettings
	if err := c.call(ctx, request{method: http.MethodGet, path: "/settings"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings PUT /settings.
func (c *Client) UpdateSettings(ctx context.Context, in dto.AppSettings) (*dto.AppSettings, error) {
	var out dto.AppSettings
	if err := c.call(ctx, request{method: http.MethodPut, path: "/settings", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
