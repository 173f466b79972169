package handlers_integrated_test_suite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lwei/shoplite/internal/db"
	api "github.com/lwei/shoplite/internal/http"
	handler "github.com/lwei/shoplite/internal/http/handlers"
	"github.com/lwei/shoplite/internal/models"
	"github.com/lwei/shoplite/internal/repo"
)

var (
	token    string
	userRepo *repo.PostgresUserRepository
	database *sql.DB
)

func init() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return // every test calls requireDB and skips
	}
	setupTestRepos(dbURL, "secret")

	r := api.NewRouter()
	var err error
	token, err = generateToken(r, "admin", "secret")
	if err != nil {
		panic(fmt.Sprintf("error generating token: %v", err))
	}
}

// requireDB skips the test unless DATABASE_URL points at a live postgres.
func requireDB(t *testing.T) {
	t.Helper()
	if database == nil {
		t.Skip("DATABASE_URL not set, skipping integrated test")
	}
}

func setupTestRepos(dbURL, password string) {
	var err error
	database, err = db.Connect(dbURL)
	if err != nil {
		log.Fatal("❌ Could not connect to database:", err)
	}

	handler.SetProductRepo(repo.NewPostgresProductRepository(database))
	handler.SetCategoryRepo(repo.NewPostgresCategoryRepository(database))
	handler.SetSaleRepo(repo.NewPostgresSaleRepository(database))
	handler.SetLogRepo(repo.NewPostgresLogRepository(database))
	handler.SetReportRepo(repo.NewPostgresReportRepository(database))
	handler.SetHealthDB(database)

	userRepo = repo.NewPostgresUserRepository(database)
	handler.SetUserRepo(userRepo)

	createAdminIfNotExists(password)
}

func createAdminIfNotExists(password string) {
	if _, err := userRepo.GetByUsername("admin"); err == nil {
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	_, err := userRepo.CreateUser(models.User{
		Username:     "admin",
		PasswordHash: string(hash),
		IsAdmin:      true,
		IsActive:     true,
	})
	if err != nil {
		fmt.Println("error creating admin user", err)
	}
}

func generateToken(r http.Handler, username, password string) (string, error) {
	payload := handler.UserLogin{Username: username, Password: password}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.LoginResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("token decoding failed: %v", err)
	}
	return resp.Token, nil
}

func clearLedgerTables() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := database.ExecContext(ctx, "TRUNCATE TABLE sales, logs, products, categories RESTART IDENTITY CASCADE")
	if err != nil {
		fmt.Println(fmt.Errorf("failed to truncate ledger tables: %w", err))
	}
}

func createCategory(r http.Handler, name string) models.Category {
	body, _ := json.Marshal(handler.CategoryRequest{Name: name})
	req := httptest.NewRequest(http.MethodPost, "/categories", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var created models.Category
	json.NewDecoder(w.Body).Decode(&created)
	return created
}

func createProduct(r http.Handler, p handler.ProductRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(p)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postLedgerEntry(r http.Handler, path string, quantity int) *httptest.ResponseRecorder {
	body, _ := json.Marshal(handler.LedgerRequest{Quantity: quantity})
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
