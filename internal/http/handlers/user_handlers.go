package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lwei/shoplite/internal/models"
	repo "github.com/lwei/shoplite/internal/repo"
)

// GetUsersHandler godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /users [get]
func GetUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := userRepo.GetAll()
	if err != nil {
		log.Printf("could not retrieve users: %v", err)
		http.Error(w, "could not retrieve users", http.StatusInternalServerError)
		return
	}

	response := make([]UserResponse, len(users))
	for i, u := range users {
		response[i] = toUserResponse(u)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetUserByIDHandler godoc
// @Summary Get a user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {string} string "User not found"
// @Router /users/{id} [get]
func GetUserByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// UpdateUserHandler godoc
// @Summary Update a user's profile, credentials, role or active flag
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body UserUpdateRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {string} string "Invalid input"
// @Failure 403 {string} string "Wrong current password"
// @Failure 404 {string} string "User not found"
// @Failure 409 {string} string "Username already taken"
// @Router /users/{id} [put]
func UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	var req UserUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	caller, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	user, err := userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch user", http.StatusInternalServerError)
		return
	}

	var changes []string

	if req.Username != nil && *req.Username != user.Username {
		if *req.Username == "" {
			http.Error(w, "username cannot be empty", http.StatusBadRequest)
			return
		}
		changes = append(changes, fmt.Sprintf("username '%s' -> '%s'", user.Username, *req.Username))
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
		changes = append(changes, "email")
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			http.Error(w, "password must be at least 6 characters", http.StatusBadRequest)
			return
		}
		// A user changing their own password must prove the current one;
		// admins resetting someone else's skip that check.
		if caller.UserID == id {
			if req.OldPassword == nil ||
				bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*req.OldPassword)) != nil {
				http.Error(w, "current password is incorrect", http.StatusForbidden)
				return
			}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "could not hash password", http.StatusInternalServerError)
			return
		}
		user.PasswordHash = string(hash)
		changes = append(changes, "password")
	}
	if req.IsAdmin != nil && *req.IsAdmin != user.IsAdmin {
		user.IsAdmin = *req.IsAdmin
		changes = append(changes, fmt.Sprintf("is_admin=%t", user.IsAdmin))
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		user.IsActive = *req.IsActive
		changes = append(changes, fmt.Sprintf("is_active=%t", user.IsActive))
	}

	updated, err := userRepo.Update(user)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrUserNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrDuplicatedValueUnique):
			http.Error(w, "username already taken", http.StatusConflict)
		case errors.Is(err, repo.ErrLastAdmin):
			http.Error(w, "cannot demote or deactivate the last admin", http.StatusConflict)
		default:
			log.Printf("could not update user %d: %v", id, err)
			http.Error(w, "could not update user", http.StatusInternalServerError)
		}
		return
	}

	if len(changes) > 0 {
		_ = logRepo.Append(caller.UserID, fmt.Sprintf("updated user '%s' (%v)", updated.Username, changes), nil)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(updated))
}

// DeleteUserHandler godoc
// @Summary Delete a user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204 {string} string "No content"
// @Failure 404 {string} string "User not found"
// @Failure 409 {string} string "Last admin"
// @Router /users/{id} [delete]
func DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	caller, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if caller.UserID == id {
		http.Error(w, "cannot delete your own account", http.StatusConflict)
		return
	}

	target, err := userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch user", http.StatusInternalServerError)
		return
	}

	if err := userRepo.Delete(id); err != nil {
		switch {
		case errors.Is(err, repo.ErrUserNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrLastAdmin):
			http.Error(w, "cannot delete the last admin", http.StatusConflict)
		default:
			log.Printf("could not delete user %d: %v", id, err)
			http.Error(w, "could not delete user", http.StatusInternalServerError)
		}
		return
	}

	_ = logRepo.Append(caller.UserID, fmt.Sprintf("deleted user '%s'", target.Username), nil)
	w.WriteHeader(http.StatusNoContent)
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		IsActive: u.IsActive,
	}
}
