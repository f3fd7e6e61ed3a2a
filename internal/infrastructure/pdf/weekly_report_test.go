package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-agent/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":       "0",
		"999":     "999",
		"25000":   "25.000",
		"1000000": "1.000.000",
		"-1500":   "-1.500",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in), in)
	}
}

func TestGenerateWeeklyReport(t *testing.T) {
	q := decimal.NewFromInt(0)
	report := entity.WeeklyReport{
		BusinessName: "Panadería Central",
		From:         time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		To:           time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC),
		Stats: entity.MovementStatistics{
			Period: "week", TotalMovements: 12, StockInCount: 4, DistributionCount: 8,
			TotalItemsIn: decimal.NewFromInt(120), TotalItemsOut: decimal.NewFromInt(90),
			TotalValueIn: decimal.NewFromInt(350000),
		},
		Departments: []entity.DepartmentStats{
			{DepartmentName: "Bakery", Movements: 5, TotalItems: decimal.NewFromInt(60), TotalValue: decimal.NewFromInt(120000)},
		},
		LowStock:  []entity.Product{{Name: "Harina", Quantity: &q, Unit: "kg"}},
		Threshold: decimal.NewFromInt(10),
	}

	out, err := NewMarotoReportGenerator().GenerateWeeklyReport(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un PDF")
}

func TestGenerateWeeklyReport_Vacio(t *testing.T) {
	out, err := NewMarotoReportGenerator().GenerateWeeklyReport(context.Background(), entity.WeeklyReport{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateWeeklyReport_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMarotoReportGenerator().GenerateWeeklyReport(ctx, entity.WeeklyReport{})
	assert.ErrorIs(t, err, context.Canceled)
}
