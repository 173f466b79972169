package repo

import (
	"strings"
	"sync"
	"time"

	"github.com/lwei/shoplite/internal/models"
)

// InMemoryProductRepository is an in-memory implementation of ProductRepository.
type InMemoryProductRepository struct {
	mu       sync.Mutex
	products []models.Product
	nextID   int
	sales    *InMemorySaleRepository
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: []models.Product{},
		nextID:   1,
	}
}

// SetSaleRepository lets Delete enforce the no-ledger-rows guard.
func (r *InMemoryProductRepository) SetSaleRepository(sales *InMemorySaleRepository) {
	r.sales = sales
}

func (r *InMemoryProductRepository) Create(p models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if existing.Name == p.Name {
			return models.Product{}, ErrDuplicatedValueUnique
		}
	}
	p.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products = append(r.products, p)
	return p, nil
}

func (r *InMemoryProductRepository) GetAll() ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Product{}, r.products...), nil
}

func (r *InMemoryProductRepository) GetByID(id int) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getByIDLocked(id)
}

func (r *InMemoryProductRepository) getByIDLocked(id int) (models.Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (r *InMemoryProductRepository) GetByName(name string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (r *InMemoryProductRepository) Update(p models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.products {
		if existing.ID == p.ID {
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = time.Now().UTC()
			r.products[i] = p
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (r *InMemoryProductRepository) Delete(id int) error {
	if r.sales != nil && r.sales.hasSalesFor(id) {
		return ErrProductHasSales
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return ErrProductNotFound
}

func (r *InMemoryProductRepository) Filter(pf ProductFilter) ([]models.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []models.Product
	for _, p := range r.products {
		if pf.Keyword != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(pf.Keyword)) {
			continue
		}
		if pf.CategoryID != nil && p.CategoryID != *pf.CategoryID {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	start := 0
	if pf.Offset != nil {
		start = clamp(*pf.Offset, 0, total)
	}
	end := total
	if pf.Limit != nil && *pf.Limit > 0 && start+*pf.Limit < end {
		end = start + *pf.Limit
	}
	return append([]models.Product{}, filtered[start:end]...), total, nil
}

// Clear removes all products. Test helper.
func (r *InMemoryProductRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = []models.Product{}
	r.nextID = 1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
