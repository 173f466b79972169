package handlers_test_suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lwei/shoplite/internal/auth"
	api "github.com/lwei/shoplite/internal/http"
	handler "github.com/lwei/shoplite/internal/http/handlers"
	"github.com/lwei/shoplite/internal/models"
	"github.com/lwei/shoplite/internal/repo"
)

var (
	adminToken string
	clerkToken string

	productRepo  *repo.InMemoryProductRepository
	categoryRepo *repo.InMemoryCategoryRepository
	saleRepo     *repo.InMemorySaleRepository
	userRepo     *repo.InMemoryUserRepository
	logRepo      *repo.InMemoryLogRepository

	loginTracker    *auth.MemoryAttemptTracker
	registerTracker *auth.MemoryAttemptTracker

	adminID int
	clerkID int

	// Each request through the anonymous group gets its own synthetic client
	// address so the per-IP rate limiter never interferes with a test.
	nextAddr atomic.Int64
)

func init() {
	setupTestRepos("secret")
	r := api.NewRouter()

	var err error
	adminToken, err = generateToken(r, "admin", "secret")
	if err != nil {
		panic(fmt.Sprintf("error generating admin token: %v", err))
	}
	clerkToken, err = generateToken(r, "clerk", "secret")
	if err != nil {
		panic(fmt.Sprintf("error generating clerk token: %v", err))
	}
}

func setupTestRepos(password string) {
	productRepo = repo.NewInMemoryProductRepository()
	handler.SetProductRepo(productRepo)

	logRepo = repo.NewInMemoryLogRepository()
	handler.SetLogRepo(logRepo)

	saleRepo = repo.NewInMemorySaleRepository(productRepo, logRepo)
	productRepo.SetSaleRepository(saleRepo)
	handler.SetSaleRepo(saleRepo)

	categoryRepo = repo.NewInMemoryCategoryRepository(productRepo)
	handler.SetCategoryRepo(categoryRepo)

	userRepo = repo.NewInMemoryUserRepository()
	handler.SetUserRepo(userRepo)

	reportRepo := repo.NewInMemoryReportRepository()
	reportRepo.SetRepositories(productRepo, categoryRepo, saleRepo)
	handler.SetReportRepo(reportRepo)

	loginTracker = auth.NewMemoryAttemptTracker(5, 10*time.Minute)
	handler.SetLoginAttemptTracker(loginTracker)
	registerTracker = auth.NewMemoryAttemptTracker(10, time.Hour)
	handler.SetRegisterAttemptTracker(registerTracker)

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	admin, _ := userRepo.CreateUser(models.User{
		Username:     "admin",
		PasswordHash: string(hash),
		IsAdmin:      true,
		IsActive:     true,
	})
	adminID = admin.ID
	clerk, _ := userRepo.CreateUser(models.User{
		Username:     "clerk",
		PasswordHash: string(hash),
		IsActive:     true,
	})
	clerkID = clerk.ID
}

func clearCatalogAndLedger() {
	saleRepo.Clear()
	productRepo.Clear()
	categoryRepo.Clear()
	logRepo.Clear()
}

func freshAddr() string {
	n := nextAddr.Add(1)
	return fmt.Sprintf("10.0.%d.%d:1234", (n/256)%256, n%256)
}

func generateToken(r http.Handler, username, password string) (string, error) {
	w := login(r, username, password)

	var resp handler.LoginResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("token decoding failed: %v", err)
	}
	return resp.Token, nil
}

func login(r http.Handler, username, password string) *httptest.ResponseRecorder {
	payload := handler.UserLogin{Username: username, Password: password}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.RemoteAddr = freshAddr()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createCategory(r http.Handler, name string) models.Category {
	body, _ := json.Marshal(handler.CategoryRequest{Name: name})
	req := httptest.NewRequest(http.MethodPost, "/categories", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var created models.Category
	json.NewDecoder(w.Body).Decode(&created)
	return created
}

func createProduct(r http.Handler, p handler.ProductRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(p)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func recordReceipt(r http.Handler, productID, quantity int, token string) *httptest.ResponseRecorder {
	return postLedgerEntry(r, fmt.Sprintf("/products/%d/receipts", productID), quantity, token)
}

func recordSale(r http.Handler, productID, quantity int, token string) *httptest.ResponseRecorder {
	return postLedgerEntry(r, fmt.Sprintf("/products/%d/sales", productID), quantity, token)
}

func postLedgerEntry(r http.Handler, path string, quantity int, token string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(handler.LedgerRequest{Quantity: quantity})
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func reverseSale(r http.Handler, saleID int, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/sales/%d/reverse", saleID), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getProduct(r http.Handler, productID int) handler.ProductResponse {
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/products/%d", productID), nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.ProductResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func multipartCSV(csvContent string, filename string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, _ := writer.CreateFormFile("file", filename)
	part.Write([]byte(csvContent))

	writer.Close()
	return &buf, writer.FormDataContentType()
}
