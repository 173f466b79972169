package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item. Stock is normally mutated only through
// ledger operations; direct edits are an admin escape hatch and are always
// audit-logged.
type Product struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CategoryID int             `json:"category_id"`
	Image      string          `json:"image,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at,omitempty"`
}
