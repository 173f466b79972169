package repo

import (
	"fmt"
	"sync"
	"time"

	"github.com/lwei/shoplite/internal/models"
	"github.com/shopspring/decimal"
)

// InMemorySaleRepository implements the ledger engine against in-memory
// product and log repositories. It mirrors the transactional postgres
// implementation closely enough for the handler suites to exercise every
// ledger rule without a database.
type InMemorySaleRepository struct {
	mu       sync.Mutex
	sales    []models.Sale
	nextID   int
	products *InMemoryProductRepository
	logs     LogRepository
}

func NewInMemorySaleRepository(products *InMemoryProductRepository, logs LogRepository) *InMemorySaleRepository {
	return &InMemorySaleRepository{
		sales:    []models.Sale{},
		nextID:   1,
		products: products,
		logs:     logs,
	}
}

func (r *InMemorySaleRepository) RecordReceipt(productID, quantity, userID int) (models.Sale, error) {
	if quantity <= 0 {
		return models.Sale{}, ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, err := r.products.GetByID(productID)
	if err != nil {
		return models.Sale{}, err
	}
	product.Stock += quantity
	if _, err := r.products.Update(product); err != nil {
		return models.Sale{}, err
	}

	sale := r.appendLocked(models.Sale{
		ProductID: productID,
		Quantity:  quantity,
		Type:      models.SaleTypeIn,
		Amount:    decimal.Zero,
		UserID:    userID,
	})
	r.audit(userID, fmt.Sprintf("receipt: %s x %d", product.Name, quantity), sale.ID)
	return sale, nil
}

func (r *InMemorySaleRepository) RecordSale(productID, quantity, userID int) (models.Sale, error) {
	if quantity <= 0 {
		return models.Sale{}, ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, err := r.products.GetByID(productID)
	if err != nil {
		return models.Sale{}, err
	}
	if product.Stock < quantity {
		return models.Sale{}, ErrInsufficientStock
	}
	product.Stock -= quantity
	if _, err := r.products.Update(product); err != nil {
		return models.Sale{}, err
	}

	sale := r.appendLocked(models.Sale{
		ProductID: productID,
		Quantity:  quantity,
		Type:      models.SaleTypeOut,
		Amount:    product.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		UserID:    userID,
	})
	r.audit(userID, fmt.Sprintf("sale: %s x %d", product.Name, quantity), sale.ID)
	return sale, nil
}

func (r *InMemorySaleRepository) Reverse(saleID, userID int, isAdmin bool) (models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, s := range r.sales {
		if s.ID == saleID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Sale{}, ErrSaleNotFound
	}

	s := r.sales[idx]
	if !isAdmin && s.UserID != userID {
		return models.Sale{}, ErrNotOwner
	}
	if s.IsReversed {
		return models.Sale{}, ErrAlreadyReversed
	}

	product, err := r.products.GetByID(s.ProductID)
	if err != nil {
		return models.Sale{}, err
	}
	if s.Type == models.SaleTypeIn {
		product.Stock -= s.Quantity
	} else {
		product.Stock += s.Quantity
	}
	if _, err := r.products.Update(product); err != nil {
		return models.Sale{}, err
	}

	r.sales[idx].IsReversed = true
	s.IsReversed = true
	r.audit(userID, fmt.Sprintf("reversed %s: %s x %d", s.Type, product.Name, s.Quantity), s.ID)
	return s, nil
}

func (r *InMemorySaleRepository) GetByID(id int) (models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Sale{}, ErrSaleNotFound
}

func (r *InMemorySaleRepository) Filter(sf SaleFilter) ([]models.Sale, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []models.Sale
	for i := len(r.sales) - 1; i >= 0; i-- { // newest first
		s := r.sales[i]
		if sf.ProductID != nil && s.ProductID != *sf.ProductID {
			continue
		}
		if sf.Type != "" && s.Type != sf.Type {
			continue
		}
		if !sf.IncludeReversed && s.IsReversed {
			continue
		}
		if sf.Since != nil && s.CreatedAt.Before(*sf.Since) {
			continue
		}
		if sf.Until != nil && s.CreatedAt.After(*sf.Until) {
			continue
		}
		filtered = append(filtered, s)
	}

	total := len(filtered)
	start := 0
	if sf.Offset != nil {
		start = clamp(*sf.Offset, 0, total)
	}
	end := total
	if !sf.Unlimited {
		limit := defaultSaleLimit
		if sf.Limit != nil && *sf.Limit > 0 {
			limit = min(*sf.Limit, defaultSaleLimit)
		}
		if start+limit < end {
			end = start + limit
		}
	}
	return append([]models.Sale{}, filtered[start:end]...), total, nil
}

func (r *InMemorySaleRepository) appendLocked(s models.Sale) models.Sale {
	s.ID = r.nextID
	r.nextID++
	s.CreatedAt = time.Now().UTC()
	r.sales = append(r.sales, s)
	return s
}

func (r *InMemorySaleRepository) audit(userID int, action string, saleID int) {
	if r.logs != nil {
		_ = r.logs.Append(userID, action, &saleID)
	}
}

func (r *InMemorySaleRepository) hasSalesFor(productID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.ProductID == productID {
			return true
		}
	}
	return false
}

// AddSale inserts a pre-built ledger entry. Test helper.
func (r *InMemorySaleRepository) AddSale(s models.Sale) models.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.CreatedAt.IsZero() {
		return r.appendLocked(s)
	}
	s.ID = r.nextID
	r.nextID++
	r.sales = append(r.sales, s)
	return s
}

// Clear removes all ledger entries. Test helper.
func (r *InMemorySaleRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales = []models.Sale{}
	r.nextID = 1
}
