package backend

import (
	"context"
	"net/http"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// DashboardStats GET /dashboard/stats.
func (c *Client) DashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	var out entity.DashboardStats
	if err := c.call(ctx, request{method: http.MethodGet, path: "/dashboard/stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LowStockProducts GET /dashboard/low-stock.
func (c *Client) LowStockProducts(ctx context.Context) ([]entity.Product, error) {
	var out []entity.Product
	if err := c.call(ctx, request{method: http.MethodGet, path: "/dashboard/low-stock"}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Product{}
	}
	return out, nil
}
