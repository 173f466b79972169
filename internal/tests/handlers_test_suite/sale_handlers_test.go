package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	api "github.com/lwei/shoplite/internal/http"
	handler "github.com/lwei/shoplite/internal/http/handlers"
	"github.com/lwei/shoplite/internal/models"
)

func TestRecordReceiptHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Beverages")
	w := createProduct(r, handler.ProductRequest{Name: "Cola", Price: decimal.NewFromFloat(2.50), Stock: 100, CategoryID: category.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create product: %d", w.Code)
	}
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	t.Run("Receipt increases stock", func(t *testing.T) {
		w := recordReceipt(r, created.Id, 20, clerkToken)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201 Created, got %d", w.Code)
		}

		var sale handler.SaleResponse
		json.NewDecoder(w.Body).Decode(&sale)
		if sale.Type != "in" {
			t.Errorf("expected type 'in', got %q", sale.Type)
		}
		if !sale.Amount.IsZero() {
			t.Errorf("expected zero amount for a receipt, got %v", sale.Amount)
		}

		if got := getProduct(r, created.Id).Stock; got != 120 {
			t.Errorf("expected stock 120, got %d", got)
		}
	})

	t.Run("Zero quantity rejected", func(t *testing.T) {
		w := recordReceipt(r, created.Id, 0, clerkToken)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 Bad Request, got %d", w.Code)
		}
	})

	t.Run("Negative quantity rejected", func(t *testing.T) {
		w := recordReceipt(r, created.Id, -5, clerkToken)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 Bad Request, got %d", w.Code)
		}
	})

	t.Run("Unknown product", func(t *testing.T) {
		w := recordReceipt(r, 99999, 10, clerkToken)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404 Not Found, got %d", w.Code)
		}
	})
}

func TestRecordSaleHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Coffee")
	w := createProduct(r, handler.ProductRequest{Name: "Espresso Beans", Price: decimal.NewFromFloat(5.00), Stock: 120, CategoryID: category.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create product: %d", w.Code)
	}
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	t.Run("Sale decrements stock and snapshots amount", func(t *testing.T) {
		w := recordSale(r, created.Id, 30, clerkToken)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201 Created, got %d", w.Code)
		}

		var sale handler.SaleResponse
		json.NewDecoder(w.Body).Decode(&sale)
		if !sale.Amount.Equal(decimal.NewFromFloat(150.00)) {
			t.Errorf("expected amount 150.00, got %v", sale.Amount)
		}
		if got := getProduct(r, created.Id).Stock; got != 90 {
			t.Errorf("expected stock 90, got %d", got)
		}
	})

	t.Run("Amount frozen against later price changes", func(t *testing.T) {
		w := recordSale(r, created.Id, 2, clerkToken)
		var sale handler.SaleResponse
		json.NewDecoder(w.Body).Decode(&sale)

		// Reprice the product, then re-read the entry.
		body, _ := json.Marshal(handler.ProductRequest{Name: "Espresso Beans", Price: decimal.NewFromFloat(9.99), Stock: 88, CategoryID: category.ID})
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/products/%d", created.Id), bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed to reprice product: %d", rec.Code)
		}

		stored, err := saleRepo.GetByID(sale.ID)
		if err != nil {
			t.Fatalf("sale not found: %v", err)
		}
		if !stored.Amount.Equal(decimal.NewFromFloat(10.00)) {
			t.Errorf("expected frozen amount 10.00, got %v", stored.Amount)
		}
	})

	t.Run("Oversell rejected", func(t *testing.T) {
		w := recordSale(r, created.Id, 100000, clerkToken)
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409 Conflict, got %d", w.Code)
		}
	})
}

func TestReverseSaleHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Snacks")
	w := createProduct(r, handler.ProductRequest{Name: "Trail Mix", Price: decimal.NewFromFloat(4.00), Stock: 50, CategoryID: category.ID})
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	t.Run("Reversal restores stock, amount unchanged", func(t *testing.T) {
		saleW := recordSale(r, created.Id, 10, clerkToken)
		var sale handler.SaleResponse
		json.NewDecoder(saleW.Body).Decode(&sale)

		if got := getProduct(r, created.Id).Stock; got != 40 {
			t.Fatalf("expected stock 40 after sale, got %d", got)
		}

		revW := reverseSale(r, sale.ID, clerkToken)
		if revW.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", revW.Code)
		}
		var reversed handler.SaleResponse
		json.NewDecoder(revW.Body).Decode(&reversed)
		if !reversed.IsReversed {
			t.Errorf("expected is_reversed true")
		}
		if !reversed.Amount.Equal(sale.Amount) {
			t.Errorf("reversal must not touch the amount: %v != %v", reversed.Amount, sale.Amount)
		}
		if got := getProduct(r, created.Id).Stock; got != 50 {
			t.Errorf("expected stock restored to 50, got %d", got)
		}
	})

	t.Run("Second reversal rejected", func(t *testing.T) {
		saleW := recordSale(r, created.Id, 5, clerkToken)
		var sale handler.SaleResponse
		json.NewDecoder(saleW.Body).Decode(&sale)

		if w := reverseSale(r, sale.ID, clerkToken); w.Code != http.StatusOK {
			t.Fatalf("first reversal failed: %d", w.Code)
		}
		if w := reverseSale(r, sale.ID, clerkToken); w.Code != http.StatusConflict {
			t.Errorf("expected 409 Conflict on second reversal, got %d", w.Code)
		}
		if got := getProduct(r, created.Id).Stock; got != 50 {
			t.Errorf("double reversal must not change stock again: got %d", got)
		}
	})

	t.Run("Receipt reversal decrements stock", func(t *testing.T) {
		recW := recordReceipt(r, created.Id, 8, clerkToken)
		var receipt handler.SaleResponse
		json.NewDecoder(recW.Body).Decode(&receipt)

		if w := reverseSale(r, receipt.ID, clerkToken); w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		if got := getProduct(r, created.Id).Stock; got != 50 {
			t.Errorf("expected stock back at 50, got %d", got)
		}
	})

	t.Run("Only operator or admin may reverse", func(t *testing.T) {
		// Entry recorded by admin; the clerk must not be able to reverse it.
		saleW := recordSale(r, created.Id, 1, adminToken)
		var sale handler.SaleResponse
		json.NewDecoder(saleW.Body).Decode(&sale)

		if w := reverseSale(r, sale.ID, clerkToken); w.Code != http.StatusForbidden {
			t.Errorf("expected 403 Forbidden, got %d", w.Code)
		}

		// Admin can reverse a clerk's entry.
		clerkSaleW := recordSale(r, created.Id, 1, clerkToken)
		var clerkSale handler.SaleResponse
		json.NewDecoder(clerkSaleW.Body).Decode(&clerkSale)

		if w := reverseSale(r, clerkSale.ID, adminToken); w.Code != http.StatusOK {
			t.Errorf("expected admin reversal to succeed, got %d", w.Code)
		}
	})

	t.Run("Unknown sale", func(t *testing.T) {
		if w := reverseSale(r, 99999, clerkToken); w.Code != http.StatusNotFound {
			t.Errorf("expected 404 Not Found, got %d", w.Code)
		}
	})
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Limited")
	w := createProduct(r, handler.ProductRequest{Name: "Last Units", Price: decimal.NewFromFloat(1.00), Stock: 10, CategoryID: category.ID})
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	const workers = 25
	var wg sync.WaitGroup
	codes := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = recordSale(r, created.Id, 1, clerkToken).Code
		}(i)
	}
	wg.Wait()

	var sold int
	for _, code := range codes {
		if code == http.StatusCreated {
			sold++
		} else if code != http.StatusConflict {
			t.Errorf("unexpected status %d", code)
		}
	}
	if sold != 10 {
		t.Errorf("expected exactly 10 successful sales, got %d", sold)
	}
	if got := getProduct(r, created.Id).Stock; got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}

func TestGetSalesHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Dairy")
	w := createProduct(r, handler.ProductRequest{Name: "Milk", Price: decimal.NewFromFloat(1.20), Stock: 30, CategoryID: category.ID})
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	recordReceipt(r, created.Id, 10, clerkToken)
	saleW := recordSale(r, created.Id, 4, clerkToken)
	var sale handler.SaleResponse
	json.NewDecoder(saleW.Body).Decode(&sale)
	reverseSale(r, sale.ID, clerkToken)
	recordSale(r, created.Id, 2, clerkToken)

	fetch := func(query string) handler.SalesSearchResult {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/sales"+query, nil)
		req.Header.Set("Authorization", "Bearer "+clerkToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		var resp handler.SalesSearchResult
		json.NewDecoder(w.Body).Decode(&resp)
		return resp
	}

	t.Run("Reversed entries hidden by default", func(t *testing.T) {
		resp := fetch("")
		if resp.Meta.TotalCount != 2 {
			t.Errorf("expected 2 entries, got %d", resp.Meta.TotalCount)
		}
		for _, s := range resp.Data {
			if s.IsReversed {
				t.Errorf("reversed entry leaked into default listing")
			}
		}
	})

	t.Run("include_reversed shows everything", func(t *testing.T) {
		resp := fetch("?include_reversed=true")
		if resp.Meta.TotalCount != 3 {
			t.Errorf("expected 3 entries, got %d", resp.Meta.TotalCount)
		}
	})

	t.Run("Type filter", func(t *testing.T) {
		resp := fetch("?type=in")
		if resp.Meta.TotalCount != 1 {
			t.Errorf("expected 1 receipt, got %d", resp.Meta.TotalCount)
		}
		if len(resp.Data) == 1 && resp.Data[0].Type != "in" {
			t.Errorf("expected type 'in', got %q", resp.Data[0].Type)
		}
	})

	t.Run("Invalid type rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sales?type=bogus", nil)
		req.Header.Set("Authorization", "Bearer "+clerkToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 Bad Request, got %d", w.Code)
		}
	})
}

func TestExportSalesHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Bakery")
	w := createProduct(r, handler.ProductRequest{Name: "Croissant", Price: decimal.NewFromFloat(2.20), Stock: 20, CategoryID: category.ID})
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)
	recordSale(r, created.Id, 3, clerkToken)

	t.Run("CSV export", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sales/export?format=csv", nil)
		req.Header.Set("Authorization", "Bearer "+clerkToken)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("expected text/csv, got %q", ct)
		}
	})

	t.Run("Export is never paged", func(t *testing.T) {
		// Well past the listing page cap.
		for i := 0; i < 120; i++ {
			saleRepo.AddSale(models.Sale{
				ProductID: created.Id,
				Quantity:  1,
				Type:      models.SaleTypeOut,
				Amount:    decimal.NewFromFloat(2.20),
				UserID:    clerkID,
			})
		}

		req := httptest.NewRequest(http.MethodGet, "/sales/export?format=json", nil)
		req.Header.Set("Authorization", "Bearer "+clerkToken)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", rec.Code)
		}
		var exported []handler.SaleResponse
		json.NewDecoder(rec.Body).Decode(&exported)
		if len(exported) != 121 {
			t.Errorf("expected all 121 entries in the export, got %d", len(exported))
		}
	})

	t.Run("Missing format rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sales/export", nil)
		req.Header.Set("Authorization", "Bearer "+clerkToken)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 Bad Request, got %d", rec.Code)
		}
	})
}
