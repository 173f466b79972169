package repo

import (
	"sync"
	"time"

	"github.com/lwei/shoplite/internal/models"
)

type InMemoryLogRepository struct {
	mu     sync.Mutex
	logs   []models.Log
	nextID int
}

func NewInMemoryLogRepository() *InMemoryLogRepository {
	return &InMemoryLogRepository{
		logs:   []models.Log{},
		nextID: 1,
	}
}

func (r *InMemoryLogRepository) Append(userID int, action string, saleID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs = append(r.logs, models.Log{
		ID:        r.nextID,
		UserID:    userID,
		Action:    action,
		SaleID:    saleID,
		CreatedAt: time.Now().UTC(),
	})
	r.nextID++
	return nil
}

func (r *InMemoryLogRepository) GetAll(offset, limit int) ([]models.Log, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := len(r.logs)
	// newest first
	reversed := make([]models.Log, 0, total)
	for i := total - 1; i >= 0; i-- {
		reversed = append(reversed, r.logs[i])
	}

	start := clamp(offset, 0, total)
	end := total
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return reversed[start:end], total, nil
}

// Clear removes all audit rows. Test helper.
func (r *InMemoryLogRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = []models.Log{}
	r.nextID = 1
}
