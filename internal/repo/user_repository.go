package repo

import "github.com/lwei/shoplite/internal/models"

type UserRepository interface {
	GetByUsername(username string) (models.User, error)
	GetByID(id int) (models.User, error)
	GetAll() ([]models.User, error)
	CreateUser(u models.User) (models.User, error)
	Update(u models.User) (models.User, error)
	// Delete fails with ErrLastAdmin when the target is the last remaining
	// active admin.
	Delete(id int) error
}
