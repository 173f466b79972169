package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SaleTypeIn  = "in"
	SaleTypeOut = "out"
)

// Sale is one ledger entry: a stock receipt ("in") or a sale ("out").
// After creation only IsReversed may change, and only from false to true.
type Sale struct {
	ID         int             `json:"id"`
	ProductID  int             `json:"product_id"`
	Quantity   int             `json:"quantity"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	UserID     int             `json:"user_id"`
	IsReversed bool            `json:"is_reversed"`
	CreatedAt  time.Time       `json:"created_at"`
}
