package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats resumen que devuelve /dashboard/stats.
type DashboardStats struct {
	TotalProducts    int             `json:"totalProducts"`
	TotalDepartments int             `json:"totalDepartments"`
	TotalClients     int             `json:"totalClients"`
	LowStockCount    int             `json:"lowStockCount"`
	OutOfStockCount  int             `json:"outOfStockCount"`
	MovementsToday   int             `json:"movementsToday"`
	StockValue       decimal.Decimal `json:"stockValue"`
}

// MovementStatistics agregados de movimientos por período (/api/movements/statistics).
type MovementStatistics struct {
	Period             string          `json:"period"`
	TotalMovements     int             `json:"totalMovements"`
	StockInCount       int             `json:"stockInCount"`
	DistributionCount  int             `json:"distributionCount"`
	TotalItemsIn       decimal.Decimal `json:"totalItemsIn"`
	TotalItemsOut      decimal.Decimal `json:"totalItemsOut"`
	TotalValueIn       decimal.Decimal `json:"totalValueIn"`
	TopProducts        []ProductUsage  `json:"topProducts,omitempty"`
}

// ProductUsage consumo de un producto en un período.
type ProductUsage struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     decimal.Decimal `json:"quantity"`
	AverageUsage decimal.Decimal `json:"averageUsage"`
}

// DepartmentStats distribuciones agregadas por departamento.
type DepartmentStats struct {
	DepartmentID   string          `json:"departmentId"`
	DepartmentName string          `json:"departmentName"`
	Movements      int             `json:"movements"`
	TotalItems     decimal.Decimal `json:"totalItems"`
	TotalValue     decimal.Decimal `json:"totalValue"`
}

// WeeklyReport datos del reporte semanal de stock.
type WeeklyReport struct {
	BusinessName string
	From, To     time.Time
	Stats        MovementStatistics
	Departments  []DepartmentStats
	LowStock     []Product
	Threshold    decimal.Decimal
}
