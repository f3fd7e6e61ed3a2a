// Package report arma el resumen diario y el reporte semanal de stock.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
	"github.com/jhoicas/Inventario-agent/pkg/logger"
)

// LowStockSource productos bajo umbral (catalog.ProductStore).
type LowStockSource interface {
	LowStock(threshold decimal.Decimal) []entity.Product
	Products() []entity.Product
}

// Service arma los reportes a partir del backend y de la lista local de productos.
type Service struct {
	dashboard ports.DashboardBackend
	movements ports.MovementBackend
	settings  ports.SettingsBackend
	products  LowStockSource
	generator ports.ReportGenerator
	dir       string
	log       *logger.Logger
	now       func() time.Time
}

// Deps dependencias del servicio. settings y generator pueden ser nil.
type Deps struct {
	Dashboard ports.DashboardBackend
	Movements ports.MovementBackend
	Settings  ports.SettingsBackend
	Products  LowStockSource
	Generator ports.ReportGenerator
	Dir       string
}

// NewService construye el servicio.
func NewService(d Deps, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		dashboard: d.Dashboard,
		movements: d.Movements,
		settings:  d.Settings,
		products:  d.Products,
		generator: d.Generator,
		dir:       d.Dir,
		log:       log.Component("reports"),
		now:       time.Now,
	}
}

// DailySummary texto del resumen diario. Si el backend no responde se resume la lista local.
func (s *Service) DailySummary(ctx context.Context, threshold decimal.Decimal) (string, map[string]any) {
	stats, err := s.dashboard.DashboardStats(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("estadísticas del dashboard; se usa la lista local")
		stats = s.localStats(threshold)
	}
	return SummaryText(*stats), map[string]any{
		"totalProducts":   stats.TotalProducts,
		"lowStockCount":   stats.LowStockCount,
		"outOfStockCount": stats.OutOfStockCount,
		"movementsToday":  stats.MovementsToday,
	}
}

func (s *Service) localStats(threshold decimal.Decimal) *entity.DashboardStats {
	if s.products == nil {
		return &entity.DashboardStats{}
	}
	st := LocalStats(s.products.Products(), threshold)
	return &st
}

// LocalStats estadísticas calculadas con la lista local de productos. Los que no
// informan cantidad solo cuentan en el total.
func LocalStats(products []entity.Product, threshold decimal.Decimal) entity.DashboardStats {
	st := entity.DashboardStats{TotalProducts: len(products)}
	for _, p := range products {
		if !p.HasStockInfo() {
			continue
		}
		switch {
		case !p.Stock().IsPositive():
			st.OutOfStockCount++
		case p.Stock().LessThanOrEqual(threshold):
			st.LowStockCount++
		}
		if p.UnitPrice != nil {
			st.StockValue = st.StockValue.Add(p.UnitPrice.Mul(p.Stock()))
		}
	}
	return st
}

// SummaryText una línea por indicador, omitiendo los que están en cero salvo el total.
func SummaryText(st entity.DashboardStats) string {
	parts := []string{fmt.Sprintf("%d productos", st.TotalProducts)}
	if st.LowStockCount > 0 {
		parts = append(parts, fmt.Sprintf("%d con stock bajo", st.LowStockCount))
	}
	if st.OutOfStockCount > 0 {
		parts = append(parts, fmt.Sprintf("%d agotados", st.OutOfStockCount))
	}
	parts = append(parts, fmt.Sprintf("%d movimientos hoy", st.MovementsToday))
	return strings.Join(parts, " · ")
}

// Weekly arma el reporte de la semana que termina hoy. Si hay generador, escribe el PDF
// en el directorio de reportes y devuelve su ruta.
func (s *Service) Weekly(ctx context.Context, threshold decimal.Decimal) (entity.WeeklyReport, string, error) {
	now := s.now()
	r := entity.WeeklyReport{
		From:      now.AddDate(0, 0, -7),
		To:        now,
		Threshold: threshold,
	}
	stats, err := s.movements.MovementStatistics(ctx, "week")
	if err != nil {
		return r, "", err
	}
	r.Stats = *stats

	depts, err := s.movements.DepartmentStats(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("estadísticas por departamento")
	}
	r.Departments = depts

	if s.products != nil {
		r.LowStock = s.products.LowStock(threshold)
	} else if low, err := s.dashboard.LowStockProducts(ctx); err == nil {
		r.LowStock = low
	}

	if s.settings != nil {
		if app, err := s.settings.GetSettings(ctx); err == nil && app != nil {
			r.BusinessName = app.BusinessName
		}
	}

	if s.generator == nil || s.dir == "" {
		return r, "", nil
	}
	doc, err := s.generator.GenerateWeeklyReport(ctx, r)
	if err != nil {
		return r, "", domain.Wrap(domain.KindUnknown, "generar reporte semanal", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return r, "", domain.Wrap(domain.KindUnknown, "crear directorio de reportes", err)
	}
	path := filepath.Join(s.dir, "reporte-semanal-"+now.Format("2006-01-02")+".pdf")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return r, "", domain.Wrap(domain.KindUnknown, "escribir reporte semanal", err)
	}
	s.log.Info().Str("path", path).Int("bytes", len(doc)).Msg("reporte semanal generado")
	return r, path, nil
}

// WeeklyText cuerpo de la notificación del reporte semanal.
func WeeklyText(r entity.WeeklyReport) string {
	return fmt.Sprintf("%d movimientos en la semana: %d entradas, %d distribuciones. %d productos con stock bajo.",
		r.Stats.TotalMovements, r.Stats.StockInCount, r.Stats.DistributionCount, len(r.LowStock))
}
