package repo

import "github.com/lwei/shoplite/internal/models"

// SaleRepository is the ledger engine. The three mutating operations are
// atomic: the stock change, the sale row and the audit log row commit
// together or not at all.
type SaleRepository interface {
	// RecordReceipt appends an "in" entry and increments the product's stock.
	RecordReceipt(productID, quantity, userID int) (models.Sale, error)
	// RecordSale appends an "out" entry, decrements stock via a conditional
	// update and computes amount = quantity x unit price at 2 decimals.
	// Returns ErrInsufficientStock without mutation when stock is short.
	RecordSale(productID, quantity, userID int) (models.Sale, error)
	// Reverse flips the entry's reversal flag exactly once and applies the
	// inverse stock delta. Only the original operator or an admin may call it.
	Reverse(saleID, userID int, isAdmin bool) (models.Sale, error)
	GetByID(id int) (models.Sale, error)
	Filter(sf SaleFilter) ([]models.Sale, int, error)
}
