// Package pdf genera el reporte semanal de stock en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Negocio              │  Semana desde / hasta        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: movimientos / entradas / distribuciones / valor    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Departamento | Movs. | Unidades | Valor              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto con stock bajo | Stock | Unidad             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: umbral aplicado + fecha de generación               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-agent/internal/application/ports"
	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

var _ ports.ReportGenerator = (*MarotoReportGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa ports.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct {
	now func() time.Time
}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator {
	return &MarotoReportGenerator{now: time.Now}
}

// GenerateWeeklyReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateWeeklyReport(ctx context.Context, r entity.WeeklyReport) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte semanal de inventario", true).
		WithAuthor(nonEmpty(r.BusinessName, "Inventario"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(r.Stats))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("DISTRIBUCIÓN POR DEPARTAMENTO"))
	m.AddRows(departmentHeaderRow())
	m.AddRows(departmentRows(r.Departments)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(sectionTitle(fmt.Sprintf("PRODUCTOS CON STOCK BAJO (<= %s)", r.Threshold.String())))
	m.AddRows(lowStockHeaderRow())
	m.AddRows(lowStockRows(r.LowStock)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(g.now()))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(r entity.WeeklyReport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(r.BusinessName, "Inventario"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Reporte semanal de stock", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("SEMANA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(r.From.Format("02/01/2006")+" - "+r.To.Format("02/01/2006"), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
		),
	)
}

func summaryRow(st entity.MovementStatistics) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Align: align.Center, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Center, Top: 6}),
		)
	}
	return row.New(16).Add(
		cell("Movimientos", fmt.Sprintf("%d", st.TotalMovements)),
		cell("Entradas", fmt.Sprintf("%d (%s u.)", st.StockInCount, st.TotalItemsIn.StringFixed(0))),
		cell("Distribuciones", fmt.Sprintf("%d (%s u.)", st.DistributionCount, st.TotalItemsOut.StringFixed(0))),
		cell("Valor ingresado", "$"+formatMoney(st.TotalValueIn.StringFixed(0))),
	)
}

func sectionTitle(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
	}))
}

func departmentHeaderRow() core.Row {
	return row.New(8).Add(
		headerCell("Departamento", 6, align.Left),
		headerCell("Movs.", 2, align.Center),
		headerCell("Unidades", 2, align.Right),
		headerCell("Valor", 2, align.Right),
	)
}

func departmentRows(stats []entity.DepartmentStats) []core.Row {
	if len(stats) == 0 {
		return []core.Row{emptyRow("Sin distribuciones en la semana")}
	}
	rows := make([]core.Row, 0, len(stats))
	for _, d := range stats {
		rows = append(rows, row.New(7).Add(
			col.New(6).Add(text.New(d.DepartmentName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(fmt.Sprintf("%d", d.Movements), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(d.TotalItems.StringFixed(0), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(d.TotalValue.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func lowStockHeaderRow() core.Row {
	return row.New(8).Add(
		headerCell("Producto", 6, align.Left),
		headerCell("Stock", 3, align.Right),
		headerCell("Unidad", 3, align.Center),
	)
}

func lowStockRows(products []entity.Product) []core.Row {
	if len(products) == 0 {
		return []core.Row{emptyRow("Ningún producto bajo el umbral")}
	}
	rows := make([]core.Row, 0, len(products))
	for _, p := range products {
		stock := p.Stock()
		style := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if !stock.GreaterThan(decimal.Zero) {
			style.Color = colorAlert
			style.Style = fontstyle.Bold
		}
		rows = append(rows, row.New(7).Add(
			col.New(6).Add(text.New(p.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(stock.String(), style)),
			col.New(3).Add(text.New(nonEmpty(p.Unit, "-"), props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return rows
}

func emptyRow(msg string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 8, Color: colorGray, Align: align.Center, Top: 1}),
	))
}

func footerRow(generated time.Time) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("Generado el "+generated.Format("02/01/2006 15:04"), props.Text{
			Size: 6.5, Color: colorGray, Top: 2,
		}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
