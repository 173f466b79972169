package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	api "github.com/lwei/shoplite/internal/http"
	handler "github.com/lwei/shoplite/internal/http/handlers"
)

func TestCreateProductHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Hardware")

	t.Run("Valid product", func(t *testing.T) {
		w := createProduct(r, handler.ProductRequest{Name: "Hammer", Price: decimal.NewFromFloat(12.30), Stock: 5, CategoryID: category.ID})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201 Created, got %d", w.Code)
		}
		var created handler.ProductResponse
		json.NewDecoder(w.Body).Decode(&created)
		if created.Id == 0 {
			t.Errorf("expected an assigned ID")
		}
		if created.Stock != 5 {
			t.Errorf("expected stock 5, got %d", created.Stock)
		}
	})

	t.Run("Duplicate name rejected", func(t *testing.T) {
		w := createProduct(r, handler.ProductRequest{Name: "Hammer", Price: decimal.NewFromFloat(9.99), Stock: 1, CategoryID: category.ID})
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409 Conflict, got %d", w.Code)
		}
	})

	t.Run("Validation errors", func(t *testing.T) {
		w := createProduct(r, handler.ProductRequest{Name: "", Price: decimal.NewFromFloat(-1), Stock: -2, CategoryID: 0})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 Bad Request, got %d", w.Code)
		}
		var errs []handler.ProductValidationError
		json.NewDecoder(w.Body).Decode(&errs)
		if len(errs) != 4 {
			t.Errorf("expected 4 validation errors, got %d: %v", len(errs), errs)
		}
	})

	t.Run("Unknown category rejected", func(t *testing.T) {
		w := createProduct(r, handler.ProductRequest{Name: "Wrench", Price: decimal.NewFromFloat(8.00), Stock: 2, CategoryID: 9999})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 Bad Request, got %d", w.Code)
		}
	})

	t.Run("Non-admin forbidden", func(t *testing.T) {
		body, _ := json.Marshal(handler.ProductRequest{Name: "Pliers", Price: decimal.NewFromFloat(3.00), Stock: 1, CategoryID: category.ID})
		req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+clerkToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403 Forbidden, got %d", w.Code)
		}
	})
}

func TestGetProductsHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	tools := createCategory(r, "Tools")
	garden := createCategory(r, "Garden")
	createProduct(r, handler.ProductRequest{Name: "Drill", Price: decimal.NewFromFloat(60.00), Stock: 3, CategoryID: tools.ID})
	createProduct(r, handler.ProductRequest{Name: "Screwdriver", Price: decimal.NewFromFloat(6.00), Stock: 9, CategoryID: tools.ID})
	createProduct(r, handler.ProductRequest{Name: "Shovel", Price: decimal.NewFromFloat(15.00), Stock: 4, CategoryID: garden.ID})

	fetch := func(query string) handler.ProductsSearchResult {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/products"+query, nil)
		req.Header.Set("Authorization", "Bearer "+clerkToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		var resp handler.ProductsSearchResult
		json.NewDecoder(w.Body).Decode(&resp)
		return resp
	}

	t.Run("All products", func(t *testing.T) {
		resp := fetch("")
		if resp.Meta.TotalCount != 3 {
			t.Errorf("expected 3 products, got %d", resp.Meta.TotalCount)
		}
	})

	t.Run("Keyword filter", func(t *testing.T) {
		resp := fetch("?keyword=driver")
		if resp.Meta.TotalCount != 1 {
			t.Errorf("expected 1 product, got %d", resp.Meta.TotalCount)
		}
	})

	t.Run("Category filter", func(t *testing.T) {
		resp := fetch(fmt.Sprintf("?category_id=%d", tools.ID))
		if resp.Meta.TotalCount != 2 {
			t.Errorf("expected 2 products, got %d", resp.Meta.TotalCount)
		}
	})
}

func TestDeleteProductHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Stationery")
	w := createProduct(r, handler.ProductRequest{Name: "Notebook", Price: decimal.NewFromFloat(3.50), Stock: 10, CategoryID: category.ID})
	var created handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&created)

	deleteProduct := func(id int) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/products/%d", id), nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Refused while ledger entries reference it", func(t *testing.T) {
		recordSale(r, created.Id, 1, clerkToken)
		if w := deleteProduct(created.Id); w.Code != http.StatusConflict {
			t.Errorf("expected 409 Conflict, got %d", w.Code)
		}
	})

	t.Run("Deletes a product without history", func(t *testing.T) {
		w2 := createProduct(r, handler.ProductRequest{Name: "Eraser", Price: decimal.NewFromFloat(0.80), Stock: 50, CategoryID: category.ID})
		var fresh handler.ProductResponse
		json.NewDecoder(w2.Body).Decode(&fresh)

		if w := deleteProduct(fresh.Id); w.Code != http.StatusNoContent {
			t.Errorf("expected 204 No Content, got %d", w.Code)
		}
	})

	t.Run("Unknown product", func(t *testing.T) {
		if w := deleteProduct(99999); w.Code != http.StatusNotFound {
			t.Errorf("expected 404 Not Found, got %d", w.Code)
		}
	})
}

func TestBatchDeleteProductsHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	category := createCategory(r, "Cleaning")
	var ids []int
	for _, name := range []string{"Soap", "Sponge", "Bleach"} {
		w := createProduct(r, handler.ProductRequest{Name: name, Price: decimal.NewFromFloat(2.00), Stock: 5, CategoryID: category.ID})
		var created handler.ProductResponse
		json.NewDecoder(w.Body).Decode(&created)
		ids = append(ids, created.Id)
	}
	recordSale(r, ids[2], 1, clerkToken) // Bleach now has history

	body, _ := json.Marshal(handler.BatchDeleteRequest{ProductIDs: append(ids, 99999)})
	req := httptest.NewRequest(http.MethodPost, "/products/batch_delete", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var result handler.BatchDeleteResult
	json.NewDecoder(w.Body).Decode(&result)
	if result.DeletedCount != 2 {
		t.Errorf("expected 2 deleted, got %d", result.DeletedCount)
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 errors (history + unknown), got %v", result.Errors)
	}
}
