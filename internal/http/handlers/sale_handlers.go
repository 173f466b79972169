package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lwei/shoplite/internal/models"
	repo "github.com/lwei/shoplite/internal/repo"
)

// RecordReceiptHandler godoc
// @Summary Record a stock receipt ("in" ledger entry)
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param receipt body LedgerRequest true "Quantity received"
// @Success 201 {object} SaleResponse
// @Failure 400 {string} string "Invalid quantity"
// @Failure 404 {string} string "Product not found"
// @Router /products/{id}/receipts [post]
func RecordReceiptHandler(w http.ResponseWriter, r *http.Request) {
	recordLedgerEntry(w, r, models.SaleTypeIn)
}

// RecordSaleHandler godoc
// @Summary Record a sale ("out" ledger entry)
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param sale body LedgerRequest true "Quantity sold"
// @Success 201 {object} SaleResponse
// @Failure 400 {string} string "Invalid quantity"
// @Failure 404 {string} string "Product not found"
// @Failure 409 {string} string "Insufficient stock"
// @Router /products/{id}/sales [post]
func RecordSaleHandler(w http.ResponseWriter, r *http.Request) {
	recordLedgerEntry(w, r, models.SaleTypeOut)
}

func recordLedgerEntry(w http.ResponseWriter, r *http.Request, saleType string) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	var req LedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	caller, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var sale models.Sale
	if saleType == models.SaleTypeIn {
		sale, err = saleRepo.RecordReceipt(id, req.Quantity, caller.UserID)
	} else {
		sale, err = saleRepo.RecordSale(id, req.Quantity, caller.UserID)
	}
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrInvalidQuantity):
			http.Error(w, "quantity must be greater than zero", http.StatusBadRequest)
		case errors.Is(err, repo.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrInsufficientStock):
			http.Error(w, "insufficient stock", http.StatusConflict)
		default:
			log.Printf("could not record %s for product %d: %v", saleType, id, err)
			http.Error(w, "could not record ledger entry", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toSaleResponse(sale))
}

// ReverseSaleHandler godoc
// @Summary Reverse a ledger entry once, restoring its stock effect
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "Sale ID"
// @Success 200 {object} SaleResponse
// @Failure 403 {string} string "Not the operator or an admin"
// @Failure 404 {string} string "Sale not found"
// @Failure 409 {string} string "Already reversed"
// @Router /sales/{id}/reverse [post]
func ReverseSaleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid sale ID", http.StatusBadRequest)
		return
	}

	caller, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	sale, err := saleRepo.Reverse(id, caller.UserID, caller.IsAdmin)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrSaleNotFound):
			http.Error(w, "sale not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrNotOwner):
			http.Error(w, "only the operator or an admin may reverse", http.StatusForbidden)
		case errors.Is(err, repo.ErrAlreadyReversed):
			http.Error(w, "sale already reversed", http.StatusConflict)
		default:
			log.Printf("could not reverse sale %d: %v", id, err)
			http.Error(w, "could not reverse sale", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSaleResponse(sale))
}

// GetSalesHandler godoc
// @Summary List ledger entries
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param type query string false "Entry type (in or out)"
// @Param since query string false "Filter from timestamp (RFC3339)"
// @Param until query string false "Filter until timestamp (RFC3339)"
// @Param include_reversed query bool false "Include reversed entries"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} SalesSearchResult
// @Failure 400 {string} string "Invalid input"
// @Router /sales [get]
func GetSalesHandler(w http.ResponseWriter, r *http.Request) {
	sf, err := saleFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sales, total, err := saleRepo.Filter(sf)
	if err != nil {
		log.Printf("could not retrieve sales: %v", err)
		http.Error(w, "could not retrieve sales", http.StatusInternalServerError)
		return
	}

	writeSalesResult(w, sales, total)
}

// GetProductSalesHandler godoc
// @Summary List non-reversed "out" entries for one product
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} SalesSearchResult
// @Failure 404 {string} string "Product not found"
// @Router /products/{id}/sales [get]
func GetProductSalesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	if _, err := productRepo.GetByID(id); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}

	sf := repo.SaleFilter{ProductID: &id, Type: models.SaleTypeOut}
	sales, total, err := saleRepo.Filter(sf)
	if err != nil {
		log.Printf("could not retrieve sales for product %d: %v", id, err)
		http.Error(w, "could not retrieve sales", http.StatusInternalServerError)
		return
	}

	writeSalesResult(w, sales, total)
}

func saleFilterFromQuery(r *http.Request) (repo.SaleFilter, error) {
	var sf repo.SaleFilter

	if t := r.URL.Query().Get("type"); t != "" {
		if t != models.SaleTypeIn && t != models.SaleTypeOut {
			return sf, errors.New("type must be 'in' or 'out'")
		}
		sf.Type = t
	}

	sinceStr := r.URL.Query().Get("since")
	untilStr := r.URL.Query().Get("until")

	// URL query parameters replace + with a space, which breaks the RFC3339
	// timezone offset; undo that substitution before parsing.
	if len(sinceStr) == len(time.RFC3339) && sinceStr[len(sinceStr)-6] == ' ' {
		sinceStr = sinceStr[:len(sinceStr)-6] + "+" + sinceStr[len(sinceStr)-5:]
	}
	if len(untilStr) == len(time.RFC3339) && untilStr[len(untilStr)-6] == ' ' {
		untilStr = untilStr[:len(untilStr)-6] + "+" + untilStr[len(untilStr)-5:]
	}

	if sinceStr != "" {
		ts, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return sf, errors.New("invalid since date format")
		}
		sf.Since = &ts
	}
	if untilStr != "" {
		ts, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			return sf, errors.New("invalid until date format")
		}
		sf.Until = &ts
	}

	sf.IncludeReversed = r.URL.Query().Get("include_reversed") == "true"

	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return sf, errors.New("limit must be greater than zero")
		}
		sf.Limit = &v
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return sf, errors.New("offset must be zero or positive")
		}
		sf.Offset = &v
	}

	return sf, nil
}

func writeSalesResult(w http.ResponseWriter, sales []models.Sale, total int) {
	response := SalesSearchResult{
		Data: make([]SaleResponse, len(sales)),
		Meta: Meta{TotalCount: total},
	}
	for i, s := range sales {
		response.Data[i] = toSaleResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func toSaleResponse(s models.Sale) SaleResponse {
	return SaleResponse{
		ID:         s.ID,
		ProductID:  s.ProductID,
		Quantity:   s.Quantity,
		Type:       s.Type,
		Amount:     s.Amount,
		UserID:     s.UserID,
		IsReversed: s.IsReversed,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
	}
}
