package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	models "github.com/lwei/shoplite/internal/models"
	repo "github.com/lwei/shoplite/internal/repo"
)

// CreateProductHandler godoc
// @Summary Create a new product
// @Description Adds a product to the catalog
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body ProductRequest true "Product to add"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} []ProductValidationError
// @Router /products [post]
func CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	validationErrors := validateProduct(req)
	if len(validationErrors) > 0 {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(validationErrors)
		return
	}

	if _, err := categoryRepo.GetByID(req.CategoryID); err != nil {
		http.Error(w, "category not found", http.StatusBadRequest)
		return
	}

	product := models.Product{
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
		CategoryID: req.CategoryID,
		Image:      req.Image,
	}
	created, err := productRepo.Create(product)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "could not create product: product name duplicated", http.StatusConflict)
			return
		}
		http.Error(w, "could not create product", http.StatusInternalServerError)
		return
	}

	caller, _ := identityFromRequest(r)
	_ = logRepo.Append(caller.UserID, fmt.Sprintf("created product: %s", created.Name), nil)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toProductResponse(created))
}

// GetProductsHandler godoc
// @Summary List products with keyword/category filters and pagination
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param keyword query string false "Name filter"
// @Param category_id query int false "Category filter"
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} ProductsSearchResult
// @Failure 500 {string} string "Internal error"
// @Router /products [get]
func GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	pf := repo.ProductFilter{Keyword: r.URL.Query().Get("keyword")}

	if s := r.URL.Query().Get("category_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid category ID", http.StatusBadRequest)
			return
		}
		pf.CategoryID = &id
	}

	page := 1
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			page = v
		}
	}
	offset := (page - 1) * perPage
	limit := perPage
	pf.Offset = &offset
	pf.Limit = &limit

	products, total, err := productRepo.Filter(pf)
	if err != nil {
		http.Error(w, "could not fetch products", http.StatusInternalServerError)
		return
	}

	response := ProductsSearchResult{
		Data: make([]ProductResponse, len(products)),
		Meta: Meta{TotalCount: total},
	}
	for i, p := range products {
		response.Data[i] = toProductResponse(p)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetProductByIDHandler godoc
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Router /products/{id} [get]
func GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductResponse(product))
}

// UpdateProductHandler godoc
// @Summary Update a product
// @Description Direct stock edits bypass the ledger and are audit-logged.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param product body ProductRequest true "New product fields"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} []ProductValidationError
// @Failure 404 {string} string "Not found"
// @Router /products/{id} [put]
func UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	validationErrors := validateProduct(req)
	if len(validationErrors) > 0 {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(validationErrors)
		return
	}

	existing, err := productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}

	if _, err := categoryRepo.GetByID(req.CategoryID); err != nil {
		http.Error(w, "category not found", http.StatusBadRequest)
		return
	}

	updated := models.Product{
		ID:         id,
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
		CategoryID: req.CategoryID,
		Image:      req.Image,
		CreatedAt:  existing.CreatedAt,
	}
	updated, err = productRepo.Update(updated)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not update product", http.StatusInternalServerError)
		return
	}

	caller, _ := identityFromRequest(r)
	action := fmt.Sprintf("edited product: %s", updated.Name)
	if existing.Stock != updated.Stock {
		action = fmt.Sprintf("edited product: %s (stock %d -> %d, bypasses ledger)", updated.Name, existing.Stock, updated.Stock)
	}
	_ = logRepo.Append(caller.UserID, action, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductResponse(updated))
}

// DeleteProductHandler godoc
// @Summary Delete a product
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204 {string} string "Deleted"
// @Failure 404 {string} string "Not found"
// @Failure 409 {string} string "Product has ledger entries"
// @Router /products/{id} [delete]
func DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}

	if err := productRepo.Delete(id); err != nil {
		switch {
		case errors.Is(err, repo.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrProductHasSales):
			http.Error(w, "product has ledger entries", http.StatusConflict)
		default:
			http.Error(w, "could not delete product", http.StatusInternalServerError)
		}
		return
	}

	caller, _ := identityFromRequest(r)
	_ = logRepo.Append(caller.UserID, fmt.Sprintf("deleted product: %s", product.Name), nil)

	w.WriteHeader(http.StatusNoContent)
}

// BatchDeleteProductsHandler godoc
// @Summary Delete several products at once
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ids body BatchDeleteRequest true "Product IDs"
// @Success 200 {object} BatchDeleteResult
// @Failure 400 {string} string "Invalid input"
// @Router /products/batch_delete [post]
func BatchDeleteProductsHandler(w http.ResponseWriter, r *http.Request) {
	var req BatchDeleteRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if len(req.ProductIDs) == 0 {
		http.Error(w, "no product IDs given", http.StatusBadRequest)
		return
	}

	caller, _ := identityFromRequest(r)
	result := BatchDeleteResult{}
	for _, id := range req.ProductIDs {
		product, err := productRepo.GetByID(id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("product %d: not found", id))
			continue
		}
		if err := productRepo.Delete(id); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("product %d: %v", id, err))
			continue
		}
		_ = logRepo.Append(caller.UserID, fmt.Sprintf("deleted product: %s", product.Name), nil)
		result.DeletedCount++
	}

	if err := writeJSON(w, http.StatusOK, result); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{
		Id:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		CategoryID: p.CategoryID,
		Image:      p.Image,
	}
}
