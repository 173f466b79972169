package handlers_test_suite

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	api "github.com/lwei/shoplite/internal/http"
	handler "github.com/lwei/shoplite/internal/http/handlers"
)

func TestGetDashboardHandler(t *testing.T) {
	t.Cleanup(clearCatalogAndLedger)
	r := api.NewRouter()

	drinks := createCategory(r, "Drinks")
	food := createCategory(r, "Food")

	w := createProduct(r, handler.ProductRequest{Name: "Lemonade", Price: decimal.NewFromFloat(3.00), Stock: 100, CategoryID: drinks.ID})
	var lemonade handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&lemonade)

	w = createProduct(r, handler.ProductRequest{Name: "Sandwich", Price: decimal.NewFromFloat(5.50), Stock: 100, CategoryID: food.ID})
	var sandwich handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&sandwich)

	recordSale(r, lemonade.Id, 10, clerkToken)        // 30.00
	recordSale(r, sandwich.Id, 4, clerkToken)         // 22.00
	recordReceipt(r, lemonade.Id, 50, clerkToken)     // receipts never count
	revW := recordSale(r, sandwich.Id, 2, clerkToken) // 11.00, then reversed
	var reversed handler.SaleResponse
	json.NewDecoder(revW.Body).Decode(&reversed)
	reverseSale(r, reversed.ID, clerkToken)

	dashboard := func(query string) handler.DashboardResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/reports/dashboard"+query, nil)
		req.Header.Set("Authorization", "Bearer "+clerkToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}
		var resp handler.DashboardResponse
		json.NewDecoder(w.Body).Decode(&resp)
		return resp
	}

	t.Run("Totals exclude receipts and reversed entries", func(t *testing.T) {
		resp := dashboard("")
		want := decimal.NewFromFloat(52.00)
		if !resp.TodayTotal.Equal(want) {
			t.Errorf("expected today total %v, got %v", want, resp.TodayTotal)
		}
		if !resp.AllTimeTotal.Equal(want) {
			t.Errorf("expected all-time total %v, got %v", want, resp.AllTimeTotal)
		}
	})

	t.Run("Product ranks ordered by revenue", func(t *testing.T) {
		resp := dashboard("")
		if len(resp.SaleRanks) != 2 {
			t.Fatalf("expected 2 ranked products, got %d", len(resp.SaleRanks))
		}
		if resp.SaleRanks[0].Name != "Lemonade" {
			t.Errorf("expected Lemonade first, got %q", resp.SaleRanks[0].Name)
		}
		if !resp.SaleRanks[0].TotalAmount.Equal(decimal.NewFromFloat(30.00)) {
			t.Errorf("expected 30.00 for Lemonade, got %v", resp.SaleRanks[0].TotalAmount)
		}
	})

	t.Run("Category breakdown", func(t *testing.T) {
		resp := dashboard("")
		totals := map[string]decimal.Decimal{}
		for _, c := range resp.CategorySales {
			totals[c.Name] = c.TotalAmount
		}
		if !totals["Drinks"].Equal(decimal.NewFromFloat(30.00)) {
			t.Errorf("expected Drinks 30.00, got %v", totals["Drinks"])
		}
		if !totals["Food"].Equal(decimal.NewFromFloat(22.00)) {
			t.Errorf("expected Food 22.00, got %v", totals["Food"])
		}
	})

	t.Run("Recent feed skips reversed entries", func(t *testing.T) {
		resp := dashboard("")
		for _, s := range resp.RecentSales {
			if s.IsReversed {
				t.Errorf("reversed entry in recent feed")
			}
			if s.Type != "out" {
				t.Errorf("receipt in recent feed")
			}
		}
	})

	t.Run("Empty range", func(t *testing.T) {
		resp := dashboard("?start_date=2020-01-01&end_date=2020-01-02")
		if !resp.RangeTotal.IsZero() {
			t.Errorf("expected zero total for an empty range, got %v", resp.RangeTotal)
		}
	})
}
