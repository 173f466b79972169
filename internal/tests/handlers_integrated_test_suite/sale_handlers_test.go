package handlers_integrated_test_suite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	api "github.com/lwei/shoplite/internal/http"
	handler "github.com/lwei/shoplite/internal/http/handlers"
)

func TestLedgerFlow(t *testing.T) {
	requireDB(t)
	t.Cleanup(clearLedgerTables)

	r := api.NewRouter()
	category := createCategory(r, "Integrated")
	w := createProduct(r, handler.ProductRequest{Name: "LedgerItem", Price: decimal.NewFromFloat(5.00), Stock: 100, CategoryID: category.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create product: %d", w.Code)
	}
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	t.Run("Receipt then sale", func(t *testing.T) {
		w := postLedgerEntry(r, fmt.Sprintf("/products/%d/receipts", created.Id), 20)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201 Created, got %d", w.Code)
		}

		w = postLedgerEntry(r, fmt.Sprintf("/products/%d/sales", created.Id), 30)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201 Created, got %d", w.Code)
		}
		var sale handler.SaleResponse
		json.NewDecoder(w.Body).Decode(&sale)
		if !sale.Amount.Equal(decimal.NewFromFloat(150.00)) {
			t.Errorf("expected amount 150.00, got %v", sale.Amount)
		}

		var stock int
		if err := database.QueryRow("SELECT stock FROM products WHERE id = $1", created.Id).Scan(&stock); err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if stock != 90 {
			t.Errorf("expected stock 90, got %d", stock)
		}
	})

	t.Run("Reversal restores stock exactly once", func(t *testing.T) {
		w := postLedgerEntry(r, fmt.Sprintf("/products/%d/sales", created.Id), 10)
		var sale handler.SaleResponse
		json.NewDecoder(w.Body).Decode(&sale)

		reverse := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/sales/%d/reverse", sale.ID), nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			return rec
		}

		if rec := reverse(); rec.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", rec.Code)
		}
		if rec := reverse(); rec.Code != http.StatusConflict {
			t.Errorf("expected 409 Conflict on second reversal, got %d", rec.Code)
		}

		var stock int
		database.QueryRow("SELECT stock FROM products WHERE id = $1", created.Id).Scan(&stock)
		if stock != 90 {
			t.Errorf("expected stock back at 90, got %d", stock)
		}
	})

	t.Run("Oversell rejected atomically", func(t *testing.T) {
		w := postLedgerEntry(r, fmt.Sprintf("/products/%d/sales", created.Id), 100000)
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409 Conflict, got %d", w.Code)
		}

		var count int
		database.QueryRow("SELECT COUNT(*) FROM sales WHERE product_id = $1 AND quantity = 100000", created.Id).Scan(&count)
		if count != 0 {
			t.Errorf("failed sale must not leave a ledger row")
		}
	})
}

// The conditional stock update must serialize concurrent sales so the on-hand
// count never goes negative.
func TestConcurrentSalesAgainstPostgres(t *testing.T) {
	requireDB(t)
	t.Cleanup(clearLedgerTables)

	r := api.NewRouter()
	category := createCategory(r, "Contended")
	w := createProduct(r, handler.ProductRequest{Name: "Scarce", Price: decimal.NewFromFloat(1.00), Stock: 10, CategoryID: category.ID})
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	const workers = 30
	var wg sync.WaitGroup
	codes := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = postLedgerEntry(r, fmt.Sprintf("/products/%d/sales", created.Id), 1).Code
		}(i)
	}
	wg.Wait()

	var sold int
	for _, code := range codes {
		if code == http.StatusCreated {
			sold++
		}
	}
	if sold != 10 {
		t.Errorf("expected exactly 10 successful sales, got %d", sold)
	}

	var stock int
	database.QueryRow("SELECT stock FROM products WHERE id = $1", created.Id).Scan(&stock)
	if stock != 0 {
		t.Errorf("expected stock 0, got %d", stock)
	}
}
