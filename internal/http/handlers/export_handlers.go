package handlers

import (
	"encoding/csv"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"
)

// ExportSalesHandler godoc
// @Summary Export the sale ledger
// @Tags ledger
// @Produce text/csv, application/json
// @Security BearerAuth
// @Param format query string true "Export format (csv or json)"
// @Param type query string false "Entry type (in or out)"
// @Param since query string false "Filter from timestamp (RFC3339)"
// @Param until query string false "Filter until timestamp (RFC3339)"
// @Param include_reversed query bool false "Include reversed entries"
// @Success 200 {file} file
// @Failure 400 {string} string "Invalid input"
// @Failure 500 {string} string "Internal error"
// @Router /sales/export [get]
func ExportSalesHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "csv" && format != "json" {
		http.Error(w, "format must be 'csv' or 'json'", http.StatusBadRequest)
		return
	}

	sf, err := saleFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// An export covers the full matching range, never a page.
	sf.Offset = nil
	sf.Limit = nil
	sf.Unlimited = true

	sales, _, err := saleRepo.Filter(sf)
	if err != nil {
		log.Printf("could not export sales: %v", err)
		http.Error(w, "could not retrieve sales", http.StatusInternalServerError)
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="sales.json"`)

		out := make([]SaleResponse, len(sales))
		for i, s := range sales {
			out[i] = toSaleResponse(s)
		}
		json.NewEncoder(w).Encode(out)

	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)

		csvWriter := csv.NewWriter(w)
		_ = csvWriter.Write([]string{"id", "product_id", "quantity", "type", "amount", "user_id", "is_reversed", "created_at"})
		for _, s := range sales {
			_ = csvWriter.Write([]string{
				strconv.Itoa(s.ID),
				strconv.Itoa(s.ProductID),
				strconv.Itoa(s.Quantity),
				s.Type,
				s.Amount.StringFixed(2),
				strconv.Itoa(s.UserID),
				strconv.FormatBool(s.IsReversed),
				s.CreatedAt.Format(time.RFC3339),
			})
		}
		csvWriter.Flush()
	}
}
