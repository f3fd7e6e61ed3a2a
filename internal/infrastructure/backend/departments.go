package backend

import (
	"context"
	"net/http"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// ListDepartments GET /departments.
func (c *Client) ListDepartments(ctx context.Context) ([]entity.Department, error) {
	var out []entity.Department
	if err := c.call(ctx, request{method: http.MethodGet, path: "/departments"}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Department{}
	}
	return out, nil
}

// GetDepartment GET /departments/:id.
func (c *Client) GetDepartment(ctx context.Context, id string) (*entity.Department, error) {
	var out entity.Department
	if err := c.call(ctx, request{method: http.MethodGet, path: resource("/departments", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDepartment POST /departments.
func (c *Client) CreateDepartment(ctx context.Context, in dto.DepartmentInput) (*entity.Department, error) {
	var out entity.Department
	if err := c.call(ctx, request{method: http.MethodPost, path: "/departments", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDepartment PUT /departments/:id.
func (c *Client) UpdateDepartment(ctx context.Context, id string, in dto.DepartmentInput) (*entity.Department, error) {
	var out entity.Department
	if err := c.call(ctx, request{method: http.MethodPut, path: resource("/departments", id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDepartment DELETE /departments/:id.
func (c *Client) DeleteDepartment(ctx context.Context, id string) error {
	return c.call(ctx, request{method: http.MethodDelete, path: resource("/departments", id)}, nil)
}
