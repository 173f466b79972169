package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lwei/shoplite/internal/models"
)

type csvRow struct {
	Name     string
	Price    decimal.Decimal
	Stock    int
	Category string
}

func parseCSV(file multipart.File) ([]csvRow, error) {
	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV header")
	}

	index := map[string]int{}
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "price", "stock", "category"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column '%s'", required)
		}
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %v", err)
		}

		price, _ := decimal.NewFromString(strings.TrimSpace(record[index["price"]]))
		row := csvRow{
			Name:     strings.TrimSpace(record[index["name"]]),
			Price:    price,
			Stock:    parseInt(record[index["stock"]]),
			Category: strings.TrimSpace(record[index["category"]]),
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func validateRow(r csvRow) error {
	if r.Name == "" {
		return errors.New("missing name")
	}
	if !r.Price.IsPositive() {
		return errors.New("invalid price")
	}
	if r.Stock < 0 {
		return errors.New("invalid stock")
	}
	if r.Category == "" {
		return errors.New("missing category")
	}
	return nil
}

// ImportProductsHandler godoc
// @Summary Import products via CSV
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file (columns: name,price,stock,category)"
// @Param mode query string false "Import mode (skip|update)"
// @Success 200 {object} ImportProductsResult
// @Failure 400 {string} string "Invalid file"
// @Failure 500 {string} string "Internal error"
// @Router /products/import [post]
// @Security BearerAuth
func ImportProductsHandler(w http.ResponseWriter, r *http.Request) {
	mode := strings.ToLower(r.URL.Query().Get("mode"))
	if mode != "update" {
		mode = "skip" // default
	}

	caller, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	records, err := parseCSV(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	categoryIDs, err := categoryIDsByName()
	if err != nil {
		http.Error(w, "could not load categories", http.StatusInternalServerError)
		return
	}

	var imported int
	var errorsList []ProductValidationError

	for i, rec := range records {
		rowNum := i + 2 // header is row 1

		if err := validateRow(rec); err != nil {
			errorsList = append(errorsList, ProductValidationError{Description: fmt.Sprintf("row %d: %v", rowNum, err)})
			continue
		}

		categoryID, ok := categoryIDs[strings.ToLower(rec.Category)]
		if !ok {
			created, err := categoryRepo.Create(models.Category{Name: rec.Category})
			if err != nil {
				errorsList = append(errorsList, ProductValidationError{Description: fmt.Sprintf("row %d: could not create category '%s'", rowNum, rec.Category)})
				continue
			}
			categoryID = created.ID
			categoryIDs[strings.ToLower(rec.Category)] = categoryID
		}

		existing, err := productRepo.GetByName(rec.Name)
		if err == nil && existing.ID != 0 {
			if mode == "skip" {
				errorsList = append(errorsList, ProductValidationError{Description: fmt.Sprintf("row %d: product '%s' already exists", rowNum, rec.Name)})
				continue
			}
			existing.Price = rec.Price
			existing.Stock = rec.Stock
			existing.CategoryID = categoryID
			if _, err := productRepo.Update(existing); err != nil {
				errorsList = append(errorsList, ProductValidationError{Description: fmt.Sprintf("row %d: failed to update '%s'", rowNum, rec.Name)})
				continue
			}
			imported++
			continue
		}

		newProduct := models.Product{
			Name:       rec.Name,
			Price:      rec.Price,
			Stock:      rec.Stock,
			CategoryID: categoryID,
		}
		if _, err := productRepo.Create(newProduct); err != nil {
			errorsList = append(errorsList, ProductValidationError{Description: fmt.Sprintf("row %d: %v", rowNum, err)})
			continue
		}
		imported++
	}

	_ = logRepo.Append(caller.UserID, fmt.Sprintf("imported %d products via CSV (mode %s)", imported, mode), nil)

	err = writeJSON(w, http.StatusOK, ImportProductsResult{
		ImportedProductsCount: imported,
		Errors:                errorsList,
	})

	if err != nil {
		http.Error(w, "", http.StatusInternalServerError)
	}
}

// ImportTemplateHandler godoc
// @Summary Download the CSV import template
// @Tags import
// @Produce text/csv
// @Success 200 {file} file
// @Router /products/import/template [get]
// @Security BearerAuth
func ImportTemplateHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="products_template.csv"`)

	csvWriter := csv.NewWriter(w)
	_ = csvWriter.Write([]string{"name", "price", "stock", "category"})
	_ = csvWriter.Write([]string{"Espresso Beans 1kg", "18.50", "24", "Coffee"})
	csvWriter.Flush()
}

func categoryIDsByName() (map[string]int, error) {
	categories, err := categoryRepo.GetAll()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int, len(categories))
	for _, c := range categories {
		ids[strings.ToLower(c.Name)] = c.ID
	}
	return ids, nil
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}
