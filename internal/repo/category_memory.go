package repo

import (
	"sync"

	"github.com/lwei/shoplite/internal/models"
)

type InMemoryCategoryRepository struct {
	mu         sync.Mutex
	categories []models.Category
	nextID     int
	products   *InMemoryProductRepository
}

func NewInMemoryCategoryRepository(products *InMemoryProductRepository) *InMemoryCategoryRepository {
	return &InMemoryCategoryRepository{
		categories: []models.Category{},
		nextID:     1,
		products:   products,
	}
}

func (r *InMemoryCategoryRepository) Create(c models.Category) (models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.categories {
		if existing.Name == c.Name {
			return models.Category{}, ErrDuplicatedValueUnique
		}
	}
	c.ID = r.nextID
	r.nextID++
	r.categories = append(r.categories, c)
	return c, nil
}

func (r *InMemoryCategoryRepository) GetAll() ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Category{}, r.categories...), nil
}

func (r *InMemoryCategoryRepository) GetByID(id int) (models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, ErrCategoryNotFound
}

func (r *InMemoryCategoryRepository) Update(c models.Category) (models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.categories {
		if existing.Name == c.Name && existing.ID != c.ID {
			return models.Category{}, ErrDuplicatedValueUnique
		}
	}
	for i, existing := range r.categories {
		if existing.ID == c.ID {
			r.categories[i] = c
			return c, nil
		}
	}
	return models.Category{}, ErrCategoryNotFound
}

func (r *InMemoryCategoryRepository) Delete(id int) error {
	if r.products != nil {
		products, _ := r.products.GetAll()
		for _, p := range products {
			if p.CategoryID == id {
				return ErrCategoryInUse
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.categories {
		if c.ID == id {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			return nil
		}
	}
	return ErrCategoryNotFound
}

// Clear removes all categories. Test helper.
func (r *InMemoryCategoryRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = []models.Category{}
	r.nextID = 1
}
