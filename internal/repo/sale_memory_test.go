package repo

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lwei/shoplite/internal/models"
)

func newLedgerFixture(t *testing.T, stock int) (*InMemorySaleRepository, *InMemoryProductRepository, models.Product) {
	t.Helper()

	products := NewInMemoryProductRepository()
	logs := NewInMemoryLogRepository()
	sales := NewInMemorySaleRepository(products, logs)
	products.SetSaleRepository(sales)

	product, err := products.Create(models.Product{
		Name:       "Widget",
		Price:      decimal.NewFromFloat(5.00),
		Stock:      stock,
		CategoryID: 1,
	})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return sales, products, product
}

func TestRecordSale(t *testing.T) {
	sales, products, product := newLedgerFixture(t, 100)

	t.Run("Books amount at current price", func(t *testing.T) {
		sale, err := sales.RecordSale(product.ID, 30, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sale.Amount.Equal(decimal.NewFromFloat(150.00)) {
			t.Errorf("expected amount 150.00, got %v", sale.Amount)
		}
		p, _ := products.GetByID(product.ID)
		if p.Stock != 70 {
			t.Errorf("expected stock 70, got %d", p.Stock)
		}
	})

	t.Run("Rejects non-positive quantity", func(t *testing.T) {
		if _, err := sales.RecordSale(product.ID, 0, 1); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("expected ErrInvalidQuantity, got %v", err)
		}
		if _, err := sales.RecordReceipt(product.ID, -1, 1); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("Rejects oversell without partial effects", func(t *testing.T) {
		before, _ := products.GetByID(product.ID)
		_, total, _ := sales.Filter(SaleFilter{IncludeReversed: true})

		if _, err := sales.RecordSale(product.ID, before.Stock+1, 1); !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}

		after, _ := products.GetByID(product.ID)
		if after.Stock != before.Stock {
			t.Errorf("failed sale must not change stock: %d != %d", after.Stock, before.Stock)
		}
		_, totalAfter, _ := sales.Filter(SaleFilter{IncludeReversed: true})
		if totalAfter != total {
			t.Errorf("failed sale must not append a ledger entry")
		}
	})

	t.Run("Unknown product", func(t *testing.T) {
		if _, err := sales.RecordSale(9999, 1, 1); !errors.Is(err, ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got %v", err)
		}
	})
}

func TestReverse(t *testing.T) {
	sales, products, product := newLedgerFixture(t, 50)

	sale, err := sales.RecordSale(product.ID, 10, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("Owner check", func(t *testing.T) {
		if _, err := sales.Reverse(sale.ID, 99, false); !errors.Is(err, ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("Admin may reverse anyone's entry", func(t *testing.T) {
		reversed, err := sales.Reverse(sale.ID, 99, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reversed.IsReversed {
			t.Errorf("expected is_reversed true")
		}
		if !reversed.Amount.Equal(sale.Amount) {
			t.Errorf("reversal must keep the amount: %v != %v", reversed.Amount, sale.Amount)
		}
		p, _ := products.GetByID(product.ID)
		if p.Stock != 50 {
			t.Errorf("expected stock restored to 50, got %d", p.Stock)
		}
	})

	t.Run("Exactly once", func(t *testing.T) {
		if _, err := sales.Reverse(sale.ID, 7, false); !errors.Is(err, ErrAlreadyReversed) {
			t.Errorf("expected ErrAlreadyReversed, got %v", err)
		}
		p, _ := products.GetByID(product.ID)
		if p.Stock != 50 {
			t.Errorf("second reversal must not change stock: got %d", p.Stock)
		}
	})

	t.Run("Unknown sale", func(t *testing.T) {
		if _, err := sales.Reverse(9999, 7, true); !errors.Is(err, ErrSaleNotFound) {
			t.Errorf("expected ErrSaleNotFound, got %v", err)
		}
	})
}

// Stock plus the signed sum of non-reversed ledger entries must stay constant
// no matter how many goroutines hit the ledger at once.
func TestConcurrentLedgerConsistency(t *testing.T) {
	sales, products, product := newLedgerFixture(t, 200)

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				sales.RecordSale(product.ID, 3, 1)
			} else {
				sales.RecordReceipt(product.ID, 2, 1)
			}
		}(i)
	}
	wg.Wait()

	entries, _, err := sales.Filter(SaleFilter{IncludeReversed: true, Limit: intPtr(1000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	net := 0
	for _, s := range entries {
		if s.IsReversed {
			continue
		}
		if s.Type == models.SaleTypeIn {
			net += s.Quantity
		} else {
			net -= s.Quantity
		}
	}

	p, _ := products.GetByID(product.ID)
	if p.Stock != 200+net {
		t.Errorf("stock %d does not match initial 200 plus ledger net %d", p.Stock, net)
	}
	if p.Stock < 0 {
		t.Errorf("stock must never go negative, got %d", p.Stock)
	}
}

func TestProductDeleteGuard(t *testing.T) {
	sales, products, product := newLedgerFixture(t, 10)

	if _, err := sales.RecordSale(product.ID, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := products.Delete(product.ID); !errors.Is(err, ErrProductHasSales) {
		t.Errorf("expected ErrProductHasSales, got %v", err)
	}

	clean, _ := products.Create(models.Product{Name: "Untouched", Price: decimal.NewFromFloat(1.00), Stock: 1, CategoryID: 1})
	if err := products.Delete(clean.ID); err != nil {
		t.Errorf("expected delete to succeed, got %v", err)
	}
}

func intPtr(v int) *int { return &v }
