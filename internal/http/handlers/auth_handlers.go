package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/lwei/shoplite/internal/auth"
	"github.com/lwei/shoplite/internal/http/lockout"
	"github.com/lwei/shoplite/internal/models"
	"github.com/lwei/shoplite/internal/repo"
)

const (
	loginLockStrikes    = 5
	registerLockStrikes = 10
)

// RegisterHandler godoc
// @Summary Register a new account; it stays pending until an admin activates it
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "username, password and optional email"
// @Success 201 {object} RegisterResult
// @Failure 400 {string} string "Invalid input"
// @Failure 409 {string} string "User exists"
// @Failure 429 {string} string "Too many attempts"
// @Router /register [post]
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if locked, remaining := registerAttempts.Locked(ip); locked {
		http.Error(w, fmt.Sprintf("too many registration attempts, retry in %d minutes", int(remaining.Minutes())+1), http.StatusTooManyRequests)
		return
	}

	var creds CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	if creds.Username == "" || creds.Password == "" {
		http.Error(w, "missing credentials", http.StatusBadRequest)
		return
	}

	if len(creds.Username) < 3 || len(creds.Password) < 6 {
		http.Error(w, "username or password too short", http.StatusBadRequest)
		return
	}

	registerAttempts.RecordFailure(ip)
	if locked, _ := registerAttempts.Locked(ip); locked {
		lockout.NotifyLockout(ip, "register", registerLockStrikes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Username:     creds.Username,
		PasswordHash: string(hashed),
		Email:        creds.Email,
		IsAdmin:      false,
		IsActive:     false, // pending until approved
	}

	if _, err := userRepo.CreateUser(user); err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "username or email already exists", http.StatusConflict)
		} else {
			http.Error(w, "failed to register user", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	err = json.NewEncoder(w).Encode(RegisterResult{
		Message: "registered, awaiting admin approval",
	})

	if err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

// LoginHandler godoc
// @Summary Authenticate user and return JWT and refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body UserLogin true "username and password"
// @Success 200 {object} LoginResult
// @Failure 400 {string} string "Invalid input"
// @Failure 401 {string} string "Unauthorized"
// @Failure 423 {string} string "Account locked"
// @Router /login [post]
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	if locked, remaining := loginAttempts.Locked(credentials.Username); locked {
		http.Error(w, fmt.Sprintf("too many failed logins, retry in %d minutes", int(remaining.Minutes())+1), http.StatusLocked)
		return
	}

	user, err := userRepo.GetByUsername(credentials.Username)
	if err != nil {
		recordLoginFailure(credentials.Username)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credentials.Password)) != nil {
		recordLoginFailure(credentials.Username)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if !user.IsActive {
		recordLoginFailure(credentials.Username)
		http.Error(w, "account not activated", http.StatusUnauthorized)
		return
	}

	loginAttempts.RecordSuccess(credentials.Username)

	token, err := auth.GenerateToken(user)
	if err != nil {
		http.Error(w, "could not generate token", http.StatusInternalServerError)
		return
	}

	refresh, err := newRefreshToken()
	if err != nil {
		http.Error(w, "could not generate token", http.StatusInternalServerError)
		return
	}
	auth.SetRefreshToken(refresh, user.Username)

	err = json.NewEncoder(w).Encode(LoginResult{Token: token, RefreshToken: refresh})

	if err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

// RefreshHandler godoc
// @Summary Exchange a refresh token for a fresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param token body RefreshRequest true "refresh token"
// @Success 200 {object} LoginResult
// @Failure 401 {string} string "Invalid refresh token"
// @Router /refresh [post]
func RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	username, ok := auth.ConsumeRefreshToken(req.RefreshToken)
	if !ok {
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	user, err := userRepo.GetByUsername(username)
	if err != nil || !user.IsActive {
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		http.Error(w, "could not generate token", http.StatusInternalServerError)
		return
	}
	refresh, err := newRefreshToken()
	if err != nil {
		http.Error(w, "could not generate token", http.StatusInternalServerError)
		return
	}
	auth.SetRefreshToken(refresh, user.Username)

	if err := json.NewEncoder(w).Encode(LoginResult{Token: token, RefreshToken: refresh}); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

// RegisterAsAdminHandler godoc
// @Summary Create user with explicit admin/active flags
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user body RegisterAsAdminRequest true "User to create"
// @Success 201 {object} UserResponse
// @Failure 400 {string} string "Invalid input"
// @Failure 403 {string} string "Forbidden"
// @Failure 409 {string} string "User exists"
// @Router /admin/users [post]
func RegisterAsAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterAsAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		Email:        req.Email,
		IsAdmin:      req.IsAdmin,
		IsActive:     req.IsActive,
	}

	created, err := userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "username or email already exists", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	caller, _ := identityFromRequest(r)
	_ = logRepo.Append(caller.UserID, fmt.Sprintf("created user: %s", created.Username), nil)

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toUserResponse(created)); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

func recordLoginFailure(username string) {
	if username == "" {
		return
	}
	loginAttempts.RecordFailure(username)
	if locked, _ := loginAttempts.Locked(username); locked {
		lockout.NotifyLockout(username, "login", loginLockStrikes)
	}
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
