package repo

import (
	"time"

	"github.com/lwei/shoplite/internal/models"
	"github.com/shopspring/decimal"
)

type ProductSales struct {
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalQty    int             `json:"total_qty"`
}

type CategorySales struct {
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ReportRepository aggregates over non-reversed "out" entries only. Reversed
// entries are excluded from every sum and from the recent feed.
type ReportRepository interface {
	TopProducts(since, until time.Time, limit int) ([]ProductSales, error)
	CategorySales(since, until time.Time) ([]CategorySales, error)
	TotalAmount(since, until time.Time) (decimal.Decimal, error)
	AllTimeAmount() (decimal.Decimal, error)
	RecentSales(since, until time.Time, limit int) ([]models.Sale, error)
}
