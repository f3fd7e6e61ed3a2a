package backend

import (
	"context"
	"net/http"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// ListClients GET /clients.
func (c *Client) ListClients(ctx context.Context) ([]entity.Client, error) {
	var out []entity.Client
	if err := c.call(ctx, request{method: http.MethodGet, path: "/clients"}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Client{}
	}
	return out, nil
}

// GetClient GET /clients/:id.
func (c *Client) GetClient(ctx context.Context, id string) (*entity.Client, error) {
	var out entity.Client
	if err := c.call(ctx, request{method: http.MethodGet, path: resource("/clients", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateClient POST /clients.
func (c *Client) CreateClient(ctx context.Context, in dto.ClientInput) (*entity.Client, error) {
	var out entity.Client
	if err := c.call(ctx, request{method: http.MethodPost, path: "/clients", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateClient PUT /clients/:id.
func (c *Client) UpdateClient(ctx context.Context, id string, in dto.ClientInput) (*entity.Client, error) {
	var out entity.Client
	if err := c.call(ctx, request{method: http.MethodPut, path: resource("/clients", id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClient DELETE /clients/:id.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.call(ctx, request{method: http.MethodDelete, path: resource("/clients", id)}, nil)
}
