package models

import "time"

// Log is an append-only audit record of an operator action. SaleID is set
// when the action documents a ledger entry.
type Log struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Action    string    `json:"action"`
	SaleID    *int      `json:"sale_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
