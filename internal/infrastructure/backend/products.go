package backend

import (
	"context"
	"net/http"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// ListProducts GET /products.
func (c *Client) ListProducts(ctx context.Context) ([]entity.Product, error) {
	var out []entity.Product
	if err := c.call(ctx, request{method: http.MethodGet, path: "/products"}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Product{}
	}
	return out, nil
}

// GetProduct GET /products/:id.
func (c *Client) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	var out entity.Product
	if err := c.call(ctx, request{method: http.MethodGet, path: resource("/products", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct POST /products. Un nombre repetido llega como 409 o código DUPLICATE.
func (c *Client) CreateProduct(ctx context.Context, in dto.ProductInput) (*entity.Product, error) {
	var out entity.Product
	if err := c.call(ctx, request{method: http.MethodPost, path: "/products", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct PUT /products/:id.
func (c *Client) UpdateProduct(ctx context.Context, id string, in dto.ProductInput) (*entity.Product, error) {
	var out entity.Product
	if err := c.call(ctx, request{method: http.MethodPut, path: resource("/products", id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct DELETE /products/:id.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.call(ctx, request{method: http.MethodDelete, path: resource("/products", id)}, nil)
}
