package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lwei/shoplite/internal/models"
	"github.com/lwei/shoplite/internal/repo"
)

// GetCategoriesHandler godoc
// @Summary List all categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Router /categories [get]
func GetCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := categoryRepo.GetAll()
	if err != nil {
		http.Error(w, "could not fetch categories", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categories)
}

// CreateCategoryHandler godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body CategoryRequest true "Category name"
// @Success 201 {object} models.Category
// @Failure 400 {string} string "Invalid input"
// @Failure 409 {string} string "Name taken"
// @Router /categories [post]
func CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	created, err := categoryRepo.Create(models.Category{Name: req.Name})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "category already exists", http.StatusConflict)
			return
		}
		http.Error(w, "could not create category", http.StatusInternalServerError)
		return
	}

	caller, _ := identityFromRequest(r)
	_ = logRepo.Append(caller.UserID, fmt.Sprintf("created category: %s", created.Name), nil)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// UpdateCategoryHandler godoc
// @Summary Rename a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param category body CategoryRequest true "New name"
// @Success 200 {object} models.Category
// @Failure 404 {string} string "Not found"
// @Failure 409 {string} string "Name taken"
// @Router /categories/{id} [put]
func UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid category ID", http.StatusBadRequest)
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	updated, err := categoryRepo.Update(models.Category{ID: id, Name: req.Name})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrCategoryNotFound):
			http.Error(w, "category not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrDuplicatedValueUnique):
			http.Error(w, "category already exists", http.StatusConflict)
		default:
			http.Error(w, "could not update category", http.StatusInternalServerError)
		}
		return
	}

	caller, _ := identityFromRequest(r)
	_ = logRepo.Append(caller.UserID, fmt.Sprintf("renamed category: %s", updated.Name), nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// DeleteCategoryHandler godoc
// @Summary Delete a category without products
// @Tags categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204 {string} string "Deleted"
// @Failure 404 {string} string "Not found"
// @Failure 409 {string} string "Category has products"
// @Router /categories/{id} [delete]
func DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid category ID", http.StatusBadRequest)
		return
	}

	category, err := categoryRepo.GetByID(id)
	if err != nil {
		http.Error(w, "category not found", http.StatusNotFound)
		return
	}

	if err := categoryRepo.Delete(id); err != nil {
		switch {
		case errors.Is(err, repo.ErrCategoryNotFound):
			http.Error(w, "category not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrCategoryInUse):
			http.Error(w, "category has products", http.StatusConflict)
		default:
			http.Error(w, "could not delete category", http.StatusInternalServerError)
		}
		return
	}

	caller, _ := identityFromRequest(r)
	_ = logRepo.Append(caller.UserID, fmt.Sprintf("deleted category: %s", category.Name), nil)

	w.WriteHeader(http.StatusNoContent)
}
