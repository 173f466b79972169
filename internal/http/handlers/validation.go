package handlers

import (
	"strings"

	"github.com/shopspring/decimal"
)

type ProductValidationError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func validateProduct(p ProductRequest) []ProductValidationError {
	errs := []ProductValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ProductValidationError{Field: "Name", Description: "Name is required"})
	}
	if p.Price.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, ProductValidationError{Field: "Price", Description: "Price must be greater than zero"})
	}
	if p.Stock < 0 {
		errs = append(errs, ProductValidationError{Field: "Stock", Description: "Stock cannot be negative"})
	}
	if p.CategoryID <= 0 {
		errs = append(errs, ProductValidationError{Field: "CategoryID", Description: "Category is required"})
	}
	return errs
}
