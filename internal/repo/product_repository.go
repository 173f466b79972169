package repo

import "github.com/lwei/shoplite/internal/models"

// ProductRepository defines the interface for product data operations.
type ProductRepository interface {
	Create(product models.Product) (models.Product, error)
	GetAll() ([]models.Product, error)
	GetByID(id int) (models.Product, error)
	GetByName(name string) (models.Product, error)
	Update(product models.Product) (models.Product, error)
	Delete(id int) error
	Filter(pf ProductFilter) ([]models.Product, int, error)
}
