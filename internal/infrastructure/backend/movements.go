package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

const movementsPath = "/api/movements"

// HeaderIdempotencyKey cabecera con la que el backend deduplica creaciones reintentadas.
const HeaderIdempotencyKey = "Idempotency-Key"

// CreateMovement POST /api/movements.
func (c *Client) CreateMovement(ctx context.Context, idempotencyKey string, in dto.CreateMovementRequest) (*entity.StockMovement, error) {
	var out entity.StockMovement
	r := request{method: http.MethodPost, path: movementsPath, body: in}
	if idempotencyKey != "" {
		r.headers = map[string]string{HeaderIdempotencyKey: idempotencyKey}
	}
	if err := c.call(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMovements GET /api/movements?type=&department=&startDate=&endDate=&page=&limit=.
func (c *Client) ListMovements(ctx context.Context, query url.Values) (*dto.MovementPage, error) {
	return c.movementPage(ctx, movementsPath, query)
}

// GetMovement GET /api/movements/:id.
func (c *Client) GetMovement(ctx context.Context, id string) (*entity.StockMovement, error) {
	var out entity.StockMovement
	if err := c.call(ctx, request{method: http.MethodGet, path: resource(movementsPath, id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMovement PUT /api/movements/:id.
func (c *Client) UpdateMovement(ctx context.Context, id string, in dto.UpdateMovementRequest) (*entity.StockMovement, error) {
	var out entity.StockMovement
	if err := c.call(ctx, request{method: http.MethodPut, path: resource(movementsPath, id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMovement DELETE /api/movements/:id.
func (c *Client) DeleteMovement(ctx context.Context, id string) error {
	return c.call(ctx, request{method: http.MethodDelete, path: resource(movementsPath, id)}, nil)
}

// DepartmentStats GET /api/movements/department-stats.
func (c *Client) DepartmentStats(ctx context.Context) ([]entity.DepartmentStats, error) {
	var out []entity.DepartmentStats
	if err := c.call(ctx, request{method: http.MethodGet, path: movementsPath + "/department-stats"}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.DepartmentStats{}
	}
	return out, nil
}

// DepartmentMovements GET /api/movements/department/:id.
func (c *Client) DepartmentMovements(ctx context.Context, departmentID string, query url.Values) (*dto.MovementPage, error) {
	return c.movementPage(ctx, movementsPath+"/department/"+departmentID, query)
}

// MovementStatistics GET /api/movements/statistics?period=.
func (c *Client) MovementStatistics(ctx context.Context, period string) (*entity.MovementStatistics, error) {
	var out entity.MovementStatistics
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if err := c.call(ctx, request{method: http.MethodGet, path: movementsPath + "/statistics", query: q}, &out); err != nil {
		return nil, err
	}
	if out.Period == "" {
		out.Period = period
	}
	return &out, nil
}

func (c *Client) movementPage(ctx context.Context, path string, query url.Values) (*dto.MovementPage, error) {
	raw, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return nil, err
	}
	items, pagination, err := decodePage(raw)
	if err != nil {
		return nil, err
	}
	page := dto.EmptyMovementPage()
	if err := json.Unmarshal(items, &page.Items); err != nil {
		return nil, domain.Wrap(domain.KindServer, "lista de movimientos con formato inesperado", err)
	}
	if page.Items == nil {
		page.Items = []entity.StockMovement{}
	}
	page.Pagination = pagination
	if page.Pagination.Total == 0 {
		page.Pagination.Total = len(page.Items)
	}
	return page, nil
}

// decodePage localiza el arreglo de elementos y la paginación en cualquiera de los sobres:
// [..], {"data":[..],"pagination":{..}}, {"data":{"movements":[..],"pagination":{..}}}.
func decodePage(raw json.RawMessage) (json.RawMessage, dto.Pagination, error) {
	var pagination dto.Pagination
	cur := raw
	for depth := 0; depth < 4; depth++ {
		if len(cur) == 0 || string(cur) == "null" {
			return json.RawMessage("[]"), pagination, nil
		}
		if cur[0] == '[' {
			return cur, pagination, nil
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return nil, pagination, domain.Wrap(domain.KindServer, "respuesta paginada con formato inesperado", err)
		}
		if p, ok := obj["pagination"]; ok {
			_ = json.Unmarshal(p, &pagination)
		}
		if t, ok := obj["total"]; ok && pagination.Total == 0 {
			_ = json.Unmarshal(t, &pagination.Total)
		}
		next, found := json.RawMessage(nil), false
		for _, key := range []string{"data", "movements", "items"} {
			if v, ok := obj[key]; ok {
				next, found = v, true
				break
			}
		}
		if !found {
			break
		}
		cur = next
	}
	return nil, pagination, domain.NewError(domain.KindServer, "respuesta paginada sin elementos")
}
