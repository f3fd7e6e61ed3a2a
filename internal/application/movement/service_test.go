package movement_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/movement"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// fakeBackend implementa ports.MovementBackend en memoria.
type fakeBackend struct {
	err        error
	page       *dto.MovementPage
	lastQuery  url.Values
	lastKey    string
	lastCreate dto.CreateMovementRequest
	lastDept   string
	period     string
}

func (f *fakeBackend) CreateMovement(_ context.Context, key string, in dto.CreateMovementRequest) (*entity.StockMovement, error) {
	f.lastKey, f.lastCreate = key, in
	if f.err != nil {
		return nil, f.err
	}
	return &entity.StockMovement{ID: "m1", MovementID: "MOV-001", Type: in.Type, Products: in.Products}, nil
}

func (f *fakeBackend) ListMovements(_ context.Context, q url.Values) (*dto.MovementPage, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeBackend) GetMovement(_ context.Context, id string) (*entity.StockMovement, error) {
	return &entity.StockMovement{ID: id}, f.err
}

func (f *fakeBackend) UpdateMovement(_ context.Context, id string, _ dto.UpdateMovementRequest) (*entity.StockMovement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.StockMovement{ID: id}, nil
}

func (f *fakeBackend) DeleteMovement(context.Context, string) error { return f.err }

func (f *fakeBackend) DepartmentStats(context.Context) ([]entity.DepartmentStats, error) {
	return nil, f.err
}

func (f *fakeBackend) DepartmentMovements(_ context.Context, id string, q url.Values) (*dto.MovementPage, error) {
	f.lastDept, f.lastQuery = id, q
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeBackend) MovementStatistics(_ context.Context, period string) (*entity.MovementStatistics, error) {
	f.period = period
	return &entity.MovementStatistics{Period: period}, f.err
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func validStockIn() dto.CreateMovementRequest {
	price := decimal.NewFromFloat(2.5)
	return dto.CreateMovementRequest{
		Type:         entity.MovementTypeStockIn,
		Supplier:     "Molinos del Sur",
		StockManager: "Ana",
		Products: []entity.ProductSelection{
			{ProductID: "p1", ProductName: "Harina", Quantity: dec(10), Unit: "kg", UnitPrice: &price},
			{ProductID: "p2", ProductName: "Azúcar", Quantity: dec(4), Unit: "kg"},
		},
	}
}

func TestBuildQuery_OmiteAll(t *testing.T) {
	q := movement.BuildQuery(dto.MovementFilters{Type: "all", Department: "all", Page: 1, Limit: 20})

	_, hasDept := q["department"]
	_, hasType := q["type"]
	assert.False(t, hasDept, "department=all no debe enviarse")
	assert.False(t, hasType, "type=all no debe enviarse")
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "20", q.Get("limit"))
}

func TestBuildQuery_OmiteVaciosYFormateaFechas(t *testing.T) {
	start := time.Date(2026, 3, 1, 15, 4, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	q := movement.BuildQuery(dto.MovementFilters{
		Type:       "distribution",
		Department: " ",
		StartDate:  &start,
		EndDate:    &end,
	})

	assert.Equal(t, url.Values{
		"type":      {"distribution"},
		"startDate": {"2026-03-01"},
		"endDate":   {"2026-03-31"},
	}, q)
}

func TestBuildQuery_AllSinDistinguirMayusculas(t *testing.T) {
	q := movement.BuildQuery(dto.MovementFilters{Department: "ALL"})
	assert.Empty(t, q)
}

func TestList_FalloDevuelveListaVacia(t *testing.T) {
	fb := &fakeBackend{err: domain.NewError(domain.KindServer, "caído")}
	svc := movement.NewService(fb, nil)

	page, err := svc.List(context.Background(), dto.MovementFilters{Department: "all"})

	require.Error(t, err)
	require.NotNil(t, page)
	assert.NotNil(t, page.Items, "Items nunca debe ser nil")
	assert.Empty(t, page.Items)
	assert.NotContains(t, fb.lastQuery, "department")
}

func TestList_PaginaNilDelBackend(t *testing.T) {
	svc := movement.NewService(&fakeBackend{}, nil)
	page, err := svc.List(context.Background(), dto.MovementFilters{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
}

func TestCreate_CompletaTotalesYClave(t *testing.T) {
	fb := &fakeBackend{}
	svc := movement.NewService(fb, nil)

	mov, err := svc.Create(context.Background(), "", validStockIn())

	require.NoError(t, err)
	assert.Equal(t, "MOV-001", mov.MovementID)
	assert.NotEmpty(t, fb.lastKey, "debe enviarse clave de idempotencia")
	require.NotNil(t, fb.lastCreate.TotalItems)
	assert.True(t, fb.lastCreate.TotalItems.Equal(dec(14)))
	require.NotNil(t, fb.lastCreate.TotalValue)
	assert.True(t, fb.lastCreate.TotalValue.Equal(dec(25)), "solo suman las líneas con precio")
}

func TestCreate_ClaveGeneradaSoloSiFalta(t *testing.T) {
	fb := &fakeBackend{}
	svc := movement.NewService(fb, nil)

	_, _ = svc.Create(context.Background(), "", validStockIn())
	first := fb.lastKey
	_, _ = svc.Create(context.Background(), "", validStockIn())
	assert.NotEqual(t, first, fb.lastKey, "sin clave recibida cada alta lleva una nueva")
}

func TestCreate_ReintentoConservaClave(t *testing.T) {
	fb := &fakeBackend{err: &domain.Error{Kind: domain.KindTimeout, Status: 504, Message: "timeout"}}
	svc := movement.NewService(fb, nil)

	_, err := svc.Create(context.Background(), " mov-2026-10-14-0007 ", validStockIn())
	require.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, "mov-2026-10-14-0007", fb.lastKey)

	fb.err = nil
	_, err = svc.Create(context.Background(), "mov-2026-10-14-0007", validStockIn())
	require.NoError(t, err)
	assert.Equal(t, "mov-2026-10-14-0007", fb.lastKey)
}

func TestCreate_ClaveDemasiadoLarga(t *testing.T) {
	fb := &fakeBackend{}
	_, err := movement.NewService(fb, nil).Create(context.Background(), strings.Repeat("k", 129), validStockIn())
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Fields, "idempotencyKey")
	assert.Empty(t, fb.lastKey)
}

func TestCreate_Validaciones(t *testing.T) {
	cases := map[string]struct {
		mutate func(*dto.CreateMovementRequest)
		field  string
	}{
		"sin productos":         {func(r *dto.CreateMovementRequest) { r.Products = nil }, "products"},
		"tipo inválido":         {func(r *dto.CreateMovementRequest) { r.Type = "transfer" }, "type"},
		"cantidad negativa":     {func(r *dto.CreateMovementRequest) { r.Products[0].Quantity = dec(-1) }, "products[0].quantity"},
		"distribución sin dept": {func(r *dto.CreateMovementRequest) { r.Type = entity.MovementTypeDistribution }, "departmentId"},
		"sin encargado":         {func(r *dto.CreateMovementRequest) { r.StockManager = "  " }, "stockManager"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fb := &fakeBackend{}
			in := validStockIn()
			tc.mutate(&in)

			_, err := movement.NewService(fb, nil).Create(context.Background(), "", in)

			require.ErrorIs(t, err, domain.ErrInvalidInput)
			var derr *domain.Error
			require.ErrorAs(t, err, &derr)
			assert.Contains(t, derr.Fields, tc.field)
			assert.Empty(t, fb.lastKey, "no se llama al backend si la validación falla")
		})
	}
}

func TestCreate_CantidadCeroEsValida(t *testing.T) {
	in := validStockIn()
	in.Products[0].Quantity = decimal.Zero
	_, err := movement.NewService(&fakeBackend{}, nil).Create(context.Background(), "", in)
	assert.NoError(t, err)
}

func TestCreate_PropagaTimeoutEstructurado(t *testing.T) {
	fb := &fakeBackend{err: &domain.Error{Kind: domain.KindTimeout, Status: 500, Code: domain.CodeDBTimeout, Message: "x"}}
	_, err := movement.NewService(fb, nil).Create(context.Background(), "", validStockIn())
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestStatistics_Periodos(t *testing.T) {
	fb := &fakeBackend{}
	svc := movement.NewService(fb, nil)

	st, err := svc.Statistics(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, movement.PeriodWeek, st.Period)

	_, err = svc.Statistics(context.Background(), "Month")
	require.NoError(t, err)
	assert.Equal(t, "month", fb.period)

	_, err = svc.Statistics(context.Background(), "decade")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDepartmentMovements_IgnoraFiltroDepartment(t *testing.T) {
	fb := &fakeBackend{page: &dto.MovementPage{}}
	svc := movement.NewService(fb, nil)

	page, err := svc.DepartmentMovements(context.Background(), "d1", dto.MovementFilters{Department: "d2", Type: "distribution"})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, "d1", fb.lastDept)
	assert.Empty(t, fb.lastQuery.Get("department"))
	assert.Equal(t, "distribution", fb.lastQuery.Get("type"))
}

func TestDepartmentStats_NuncaNil(t *testing.T) {
	stats, err := movement.NewService(&fakeBackend{}, nil).DepartmentStats(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stats)
}

func TestParseDate(t *testing.T) {
	d, err := movement.ParseDate("2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, 14, d.Day())

	d, err = movement.ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = movement.ParseDate("14/10/2026")
	assert.Error(t, err)
}
