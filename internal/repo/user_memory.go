package repo

import (
	"sync"
	"time"

	"github.com/lwei/shoplite/internal/models"
)

type InMemoryUserRepository struct {
	mu     sync.Mutex
	users  []models.User
	nextID int
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:  []models.User{},
		nextID: 1,
	}
}

func (r *InMemoryUserRepository) GetByUsername(username string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(id int) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *InMemoryUserRepository) GetAll() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.User{}, r.users...), nil
}

func (r *InMemoryUserRepository) CreateUser(u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username {
			return models.User{}, ErrDuplicatedValueUnique
		}
		if u.Email != "" && existing.Email == u.Email {
			return models.User{}, ErrDuplicatedValueUnique
		}
	}
	u.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryUserRepository) Update(u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.ID == u.ID {
			continue
		}
		if existing.Username == u.Username {
			return models.User{}, ErrDuplicatedValueUnique
		}
		if u.Email != "" && existing.Email == u.Email {
			return models.User{}, ErrDuplicatedValueUnique
		}
	}
	for i, existing := range r.users {
		if existing.ID == u.ID {
			// The last active admin can be neither demoted nor deactivated.
			if existing.IsAdmin && existing.IsActive && !(u.IsAdmin && u.IsActive) {
				activeAdmins := 0
				for _, other := range r.users {
					if other.IsAdmin && other.IsActive {
						activeAdmins++
					}
				}
				if activeAdmins <= 1 {
					return models.User{}, ErrLastAdmin
				}
			}
			u.CreatedAt = existing.CreatedAt
			u.UpdatedAt = time.Now().UTC()
			r.users[i] = u
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *InMemoryUserRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, u := range r.users {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrUserNotFound
	}

	if r.users[idx].IsAdmin && r.users[idx].IsActive {
		activeAdmins := 0
		for _, u := range r.users {
			if u.IsAdmin && u.IsActive {
				activeAdmins++
			}
		}
		if activeAdmins <= 1 {
			return ErrLastAdmin
		}
	}

	r.users = append(r.users[:idx], r.users[idx+1:]...)
	return nil
}

// Clear removes all users. Test helper.
func (r *InMemoryUserRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = []models.User{}
	r.nextID = 1
}
