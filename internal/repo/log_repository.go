package repo

import "github.com/lwei/shoplite/internal/models"

// LogRepository is append-only; audit rows are never updated or deleted.
type LogRepository interface {
	Append(userID int, action string, saleID *int) error
	GetAll(offset, limit int) ([]models.Log, int, error)
}
