package movement

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// Períodos aceptados por Statistics.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Service casos de uso de movimientos de stock (entradas y distribuciones).
// No guarda estado: cada llamada es una petición al backend.
type Service struct {
	backend ports.MovementBackend
	log     *logger.Logger
	newKey  func() string
}

// NewService construye el servicio.
func NewService(backend ports.MovementBackend, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		backend: backend,
		log:     log.Component("movements"),
		newKey:  func() string { return uuid.New().String() },
	}
}

// maxKeyLen longitud máxima aceptada para una clave de idempotencia recibida.
const maxKeyLen = 128

// Create valida y registra un movimiento. Completa TotalItems/TotalValue si no vienen.
// idempotencyKey viaja al backend tal cual para que un reintento con la misma clave no
// duplique stock; vacía se genera una nueva.
func (s *Service) Create(ctx context.Context, idempotencyKey string, in dto.CreateMovementRequest) (*entity.StockMovement, error) {
	fields := validateCreate(in)
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if len(idempotencyKey) > maxKeyLen {
		fields["idempotencyKey"] = "máximo " + strconv.Itoa(maxKeyLen) + " caracteres"
	}
	if len(fields) > 0 {
		return nil, domain.Validation("movimiento inválido", fields)
	}
	items, value, hasValue := entity.Totals(in.Products)
	if in.TotalItems == nil {
		in.TotalItems = &items
	}
	if in.TotalValue == nil && hasValue {
		in.TotalValue = &value
	}
	in.StockManager = strings.TrimSpace(in.StockManager)

	key := idempotencyKey
	if key == "" {
		key = s.newKey()
	}
	mov, err := s.backend.CreateMovement(ctx, key, in)
	if err != nil {
		ev := s.log.Warn().Err(err).Str("type", in.Type).Str("idempotency_key", key)
		if domain.KindOf(err) == domain.KindTimeout {
			ev = ev.Bool("db_timeout", true)
		}
		ev.Msg("registrar movimiento")
		return nil, err
	}
	s.log.Info().Str("movement_id", mov.MovementID).Str("type", mov.Type).
		Str("total_items", in.TotalItems.String()).Msg("movimiento registrado")
	return mov, nil
}

func validateCreate(in dto.CreateMovementRequest) map[string]string {
	fields := map[string]string{}
	if !entity.IsValidMovementType(in.Type) {
		fields["type"] = "debe ser stock_in o distribution"
	}
	if in.Type == entity.MovementTypeDistribution && strings.TrimSpace(in.DepartmentID) == "" {
		fields["departmentId"] = "requerido para distribuciones"
	}
	if strings.TrimSpace(in.StockManager) == "" {
		fields["stockManager"] = "requerido"
	}
	validateLines(in.Products, fields)
	return fields
}

func validateLines(lines []entity.ProductSelection, fields map[string]string) {
	if len(lines) == 0 {
		fields["products"] = "debe incluir al menos un producto"
		return
	}
	for i, l := range lines {
		prefix := "products[" + strconv.Itoa(i) + "]"
		if strings.TrimSpace(l.ProductID) == "" {
			fields[prefix+".productId"] = "requerido"
		}
		if l.Quantity.LessThan(decimal.Zero) {
			fields[prefix+".quantity"] = "debe ser >= 0"
		}
		if l.UnitPrice != nil && l.UnitPrice.LessThan(decimal.Zero) {
			fields[prefix+".unitPrice"] = "debe ser >= 0"
		}
	}
}

// List devuelve una página de movimientos. Ante error la página sigue siendo válida
// (Items vacío, nunca nil) y el error indica el motivo.
func (s *Service) List(ctx context.Context, f dto.MovementFilters) (*dto.MovementPage, error) {
	page, err := s.backend.ListMovements(ctx, BuildQuery(f))
	if err != nil {
		s.log.Warn().Err(err).Msg("listar movimientos")
		return dto.EmptyMovementPage(), err
	}
	return normalizePage(page), nil
}

// Get obtiene un movimiento por ID.
func (s *Service) Get(ctx context.Context, id string) (*entity.StockMovement, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Validation("id es requerido", map[string]string{"id": "requerido"})
	}
	return s.backend.GetMovement(ctx, id)
}

// Update actualiza un movimiento. Si se reemplazan las líneas se validan igual que al crear.
func (s *Service) Update(ctx context.Context, id string, in dto.UpdateMovementRequest) (*entity.StockMovement, error) {
	fields := map[string]string{}
	if strings.TrimSpace(id) == "" {
		fields["id"] = "requerido"
	}
	if in.Products != nil {
		validateLines(in.Products, fields)
	}
	if len(fields) > 0 {
		return nil, domain.Validation("actualización inválida", fields)
	}
	mov, err := s.backend.UpdateMovement(ctx, id, in)
	if err != nil {
		s.log.Warn().Err(err).Str("id", id).Msg("actualizar movimiento")
		return nil, err
	}
	return mov, nil
}

// Delete elimina un movimiento.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Validation("id es requerido", map[string]string{"id": "requerido"})
	}
	if err := s.backend.DeleteMovement(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("id", id).Msg("eliminar movimiento")
		return err
	}
	return nil
}

// DepartmentStats distribuciones agregadas por departamento. Nunca devuelve nil.
func (s *Service) DepartmentStats(ctx context.Context) ([]entity.DepartmentStats, error) {
	stats, err := s.backend.DepartmentStats(ctx)
	if err != nil {
		return []entity.DepartmentStats{}, err
	}
	if stats == nil {
		stats = []entity.DepartmentStats{}
	}
	return stats, nil
}

// DepartmentMovements movimientos de un departamento con los mismos filtros que List
// (el filtro Department se ignora: lo fija departmentID).
func (s *Service) DepartmentMovements(ctx context.Context, departmentID string, f dto.MovementFilters) (*dto.MovementPage, error) {
	if strings.TrimSpace(departmentID) == "" {
		return dto.EmptyMovementPage(), domain.Validation("departamento requerido", map[string]string{"departmentId": "requerido"})
	}
	f.Department = ""
	page, err := s.backend.DepartmentMovements(ctx, departmentID, BuildQuery(f))
	if err != nil {
		return dto.EmptyMovementPage(), err
	}
	return normalizePage(page), nil
}

// Statistics agregados del período (day|week|month|year; vacío = week).
func (s *Service) Statistics(ctx context.Context, period string) (*entity.MovementStatistics, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = PeriodWeek
	}
	switch period {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
	default:
		return nil, domain.Validation("período inválido", map[string]string{"period": "day, week, month o year"})
	}
	return s.backend.MovementStatistics(ctx, period)
}

func normalizePage(page *dto.MovementPage) *dto.MovementPage {
	if page == nil {
		return dto.EmptyMovementPage()
	}
	if page.Items == nil {
		page.Items = []entity.StockMovement{}
	}
	return page
}
