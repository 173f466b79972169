package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/lwei/shoplite/internal/repo"
)

type ProductRequest struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CategoryID int             `json:"category_id"`
	Image      string          `json:"image,omitempty"`
}

type ProductResponse struct {
	Id         int             `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CategoryID int             `json:"category_id"`
	Image      string          `json:"image,omitempty"`
}

type Meta struct {
	TotalCount int `json:"total_count"`
}

type ProductsSearchResult struct {
	Data []ProductResponse `json:"data"`
	Meta Meta              `json:"meta,omitempty"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type LedgerRequest struct {
	Quantity int `json:"quantity"`
}

type SaleResponse struct {
	ID         int             `json:"id"`
	ProductID  int             `json:"product_id"`
	Quantity   int             `json:"quantity"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	UserID     int             `json:"user_id"`
	IsReversed bool            `json:"is_reversed"`
	CreatedAt  string          `json:"created_at"`
}

type SalesSearchResult struct {
	Data []SaleResponse `json:"data"`
	Meta Meta           `json:"meta,omitempty"`
}

type DashboardResponse struct {
	SaleRanks     []repo.ProductSales  `json:"sale_ranks"`
	CategorySales []repo.CategorySales `json:"category_sales"`
	TodayTotal    decimal.Decimal      `json:"today_total"`
	YesterdayTotal decimal.Decimal     `json:"yesterday_total"`
	RangeTotal    decimal.Decimal      `json:"range_total"`
	AllTimeTotal  decimal.Decimal      `json:"all_time_total"`
	RecentSales   []SaleResponse       `json:"recent_sales"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type UserLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterResult struct {
	Message string `json:"message"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RegisterAsAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

type UserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

type UserUpdateRequest struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	OldPassword *string `json:"old_password,omitempty"`
	IsAdmin     *bool   `json:"is_admin,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type BatchDeleteRequest struct {
	ProductIDs []int `json:"product_ids"`
}

type BatchDeleteResult struct {
	DeletedCount int      `json:"deleted"`
	Errors       []string `json:"errors,omitempty"`
}

type ImportProductsResult struct {
	ImportedProductsCount int                      `json:"imported"`
	Errors                []ProductValidationError `json:"errors"`
}

type LogResponse struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	Action    string `json:"action"`
	SaleID    *int   `json:"sale_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

type LogsSearchResult struct {
	Data []LogResponse `json:"data"`
	Meta Meta          `json:"meta,omitempty"`
}
