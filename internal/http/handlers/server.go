package handlers

import (
	"database/sql"
	"time"

	"github.com/lwei/shoplite/internal/auth"
	repo "github.com/lwei/shoplite/internal/repo"
)

var (
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
	saleRepo     repo.SaleRepository
	userRepo     repo.UserRepository
	logRepo      repo.LogRepository
	reportRepo   repo.ReportRepository

	healthDB *sql.DB

	// Lockout policy: 5 login failures per username lock for 10 minutes;
	// 10 registration attempts per IP lock for 1 hour.
	loginAttempts    auth.AttemptTracker = auth.NewMemoryAttemptTracker(5, 10*time.Minute)
	registerAttempts auth.AttemptTracker = auth.NewMemoryAttemptTracker(10, time.Hour)

	perPage = 10
)

func SetProductRepo(r repo.ProductRepository) {
	productRepo = r
}

func SetCategoryRepo(r repo.CategoryRepository) {
	categoryRepo = r
}

func SetSaleRepo(r repo.SaleRepository) {
	saleRepo = r
}

func SetUserRepo(r repo.UserRepository) {
	userRepo = r
}

func SetLogRepo(r repo.LogRepository) {
	logRepo = r
}

func SetReportRepo(r repo.ReportRepository) {
	reportRepo = r
}

func SetHealthDB(db *sql.DB) {
	healthDB = db
}

func SetLoginAttemptTracker(t auth.AttemptTracker) {
	loginAttempts = t
}

func SetRegisterAttemptTracker(t auth.AttemptTracker) {
	registerAttempts = t
}

func SetPerPage(n int) {
	if n > 0 {
		perPage = n
	}
}
