package notification

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/application/dto"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/internal/domain/repository"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// StockAlerter lo que StockMonitor necesita del Engine.
type StockAlerter interface {
	Settings() entity.NotificationSettings
	ScheduleLowStockAlert(ctx context.Context, productName string, stock decimal.Decimal) (dto.ScheduleResult, error)
	ScheduleOutOfStockAlert(ctx context.Context, productName string) (dto.ScheduleResult, error)
}

// StockMonitor evalúa la lista de productos tras cada refresco y emite una alerta por
// (producto, condición) hasta que el producto vuelve a estar sobre el umbral.
type StockMonitor struct {
	alerter StockAlerter
	states  repository.AlertStateRepository
	log     *logger.Logger
	now     func() time.Time
	timeout time.Duration
}

// NewStockMonitor construye el monitor.
func NewStockMonitor(alerter StockAlerter, states repository.AlertStateRepository, log *logger.Logger) *StockMonitor {
	if log == nil {
		log = logger.Nop()
	}
	return &StockMonitor{
		alerter: alerter,
		states:  states,
		log:     log.Component("stock-monitor"),
		now:     time.Now,
		timeout: 30 * time.Second,
	}
}

// OnProducts adaptador para catalog.ProductStore.Subscribe.
func (m *StockMonitor) OnProducts(products []entity.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if _, err := m.Evaluate(ctx, products); err != nil {
		m.log.Warn().Err(err).Msg("evaluar stock")
	}
}

// Evaluate revisa cada producto con cantidad informada y devuelve cuántas alertas se emitieron.
// Un permiso denegado corta la evaluación.
func (m *StockMonitor) Evaluate(ctx context.Context, products []entity.Product) (int, error) {
	threshold := m.alerter.Settings().LowStockThreshold
	fired := 0
	var errs []error
	for _, p := range products {
		if !p.HasStockInfo() {
			continue
		}
		stock := p.Stock()
		var (
			condition string
			schedule  func() (dto.ScheduleResult, error)
		)
		switch {
		case !stock.IsPositive():
			condition = entity.NotificationOutOfStock
			schedule = func() (dto.ScheduleResult, error) { return m.alerter.ScheduleOutOfStockAlert(ctx, p.Name) }
		case stock.LessThanOrEqual(threshold):
			condition = entity.NotificationLowStock
			schedule = func() (dto.ScheduleResult, error) { return m.alerter.ScheduleLowStockAlert(ctx, p.Name, stock) }
		default:
			if err := m.states.Clear(ctx, p.ID); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		prev, err := m.states.Get(ctx, p.ID, condition)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev != nil {
			continue
		}
		res, err := schedule()
		if err != nil {
			if errors.Is(err, domain.ErrPermissionDenied) || errors.Is(err, domain.ErrNotInitialized) {
				return fired, err
			}
			errs = append(errs, err)
			continue
		}
		if !res.Scheduled {
			continue
		}
		fired++
		if err := m.states.Put(ctx, &entity.AlertState{ProductID: p.ID, Condition: condition, FiredAt: m.now()}); err != nil {
			errs = append(errs, err)
		}
		m.log.Info().Str("product_id", p.ID).Str("condition", condition).Str("stock", stock.String()).Msg("alerta de stock emitida")
	}
	return fired, errors.Join(errs...)
}
