package repo

import "github.com/lwei/shoplite/internal/models"

type CategoryRepository interface {
	Create(category models.Category) (models.Category, error)
	GetAll() ([]models.Category, error)
	GetByID(id int) (models.Category, error)
	Update(category models.Category) (models.Category, error)
	// Delete fails with ErrCategoryInUse while products reference the category.
	Delete(id int) error
}
