package repo

import (
	"sort"
	"time"

	"github.com/lwei/shoplite/internal/models"
	"github.com/shopspring/decimal"
)

// InMemoryReportRepository computes the dashboard aggregates from the
// in-memory repositories it is pointed at.
type InMemoryReportRepository struct {
	products   *InMemoryProductRepository
	categories *InMemoryCategoryRepository
	sales      *InMemorySaleRepository
}

func NewInMemoryReportRepository() *InMemoryReportRepository {
	return &InMemoryReportRepository{}
}

func (r *InMemoryReportRepository) SetRepositories(products *InMemoryProductRepository, categories *InMemoryCategoryRepository, sales *InMemorySaleRepository) {
	r.products = products
	r.categories = categories
	r.sales = sales
}

func (r *InMemoryReportRepository) outSales(since, until time.Time) []models.Sale {
	r.sales.mu.Lock()
	defer r.sales.mu.Unlock()

	var out []models.Sale
	for _, s := range r.sales.sales {
		if s.Type != models.SaleTypeOut || s.IsReversed {
			continue
		}
		if s.CreatedAt.Before(since) || s.CreatedAt.After(until) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *InMemoryReportRepository) TopProducts(since, until time.Time, limit int) ([]ProductSales, error) {
	byProduct := map[int]*ProductSales{}
	var order []int
	for _, s := range r.outSales(since, until) {
		ps, ok := byProduct[s.ProductID]
		if !ok {
			p, err := r.products.GetByID(s.ProductID)
			if err != nil {
				continue
			}
			ps = &ProductSales{Name: p.Name, TotalAmount: decimal.Zero}
			byProduct[s.ProductID] = ps
			order = append(order, s.ProductID)
		}
		ps.TotalAmount = ps.TotalAmount.Add(s.Amount)
		ps.TotalQty += s.Quantity
	}

	ranks := make([]ProductSales, 0, len(order))
	for _, id := range order {
		ranks = append(ranks, *byProduct[id])
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].TotalAmount.GreaterThan(ranks[j].TotalAmount)
	})
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

func (r *InMemoryReportRepository) CategorySales(since, until time.Time) ([]CategorySales, error) {
	byCategory := map[int]decimal.Decimal{}
	var order []int
	for _, s := range r.outSales(since, until) {
		p, err := r.products.GetByID(s.ProductID)
		if err != nil {
			continue
		}
		if _, ok := byCategory[p.CategoryID]; !ok {
			order = append(order, p.CategoryID)
		}
		byCategory[p.CategoryID] = byCategory[p.CategoryID].Add(s.Amount)
	}

	sales := make([]CategorySales, 0, len(order))
	for _, id := range order {
		c, err := r.categories.GetByID(id)
		if err != nil {
			continue
		}
		sales = append(sales, CategorySales{Name: c.Name, TotalAmount: byCategory[id]})
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].TotalAmount.GreaterThan(sales[j].TotalAmount)
	})
	return sales, nil
}

func (r *InMemoryReportRepository) TotalAmount(since, until time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range r.outSales(since, until) {
		total = total.Add(s.Amount)
	}
	return total, nil
}

func (r *InMemoryReportRepository) AllTimeAmount() (decimal.Decimal, error) {
	var farPast, farFuture = time.Time{}, time.Now().UTC().Add(24 * time.Hour)
	return r.TotalAmount(farPast, farFuture)
}

func (r *InMemoryReportRepository) RecentSales(since, until time.Time, limit int) ([]models.Sale, error) {
	sales := r.outSales(since, until)
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].CreatedAt.After(sales[j].CreatedAt)
	})
	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}
