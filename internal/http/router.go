package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/lwei/shoplite/internal/http/handlers"
)

func NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handlers.HealthHandler)
	r.Get("/swagger/*", httpSwagger.Handler())

	// Anonymous endpoints, per-IP rate limited.
	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware)
		r.Post("/register", handlers.RegisterHandler)
		r.Post("/login", handlers.LoginHandler)
		r.Post("/refresh", handlers.RefreshHandler)
	})

	// Authenticated staff endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Get("/products", handlers.GetProductsHandler)
		r.Get("/products/{id}", handlers.GetProductByIDHandler)
		r.Get("/products/{id}/sales", handlers.GetProductSalesHandler)

		r.Post("/products/{id}/receipts", handlers.RecordReceiptHandler)
		r.Post("/products/{id}/sales", handlers.RecordSaleHandler)
		r.Post("/sales/{id}/reverse", handlers.ReverseSaleHandler)
		r.Get("/sales", handlers.GetSalesHandler)
		r.Get("/sales/export", handlers.ExportSalesHandler)

		r.Get("/reports/dashboard", handlers.GetDashboardHandler)

		r.Get("/categories", handlers.GetCategoriesHandler)

		// Admin-only catalog and account administration.
		r.Group(func(r chi.Router) {
			r.Use(AdminMiddleware)

			r.Post("/products", handlers.CreateProductHandler)
			r.Put("/products/{id}", handlers.UpdateProductHandler)
			r.Delete("/products/{id}", handlers.DeleteProductHandler)
			r.Post("/products/batch_delete", handlers.BatchDeleteProductsHandler)
			r.Post("/products/import", handlers.ImportProductsHandler)
			r.Get("/products/import/template", handlers.ImportTemplateHandler)

			r.Post("/categories", handlers.CreateCategoryHandler)
			r.Put("/categories/{id}", handlers.UpdateCategoryHandler)
			r.Delete("/categories/{id}", handlers.DeleteCategoryHandler)

			r.Get("/users", handlers.GetUsersHandler)
			r.Get("/users/{id}", handlers.GetUserByIDHandler)
			r.Put("/users/{id}", handlers.UpdateUserHandler)
			r.Delete("/users/{id}", handlers.DeleteUserHandler)
			r.Post("/admin/users", handlers.RegisterAsAdminHandler)

			r.Get("/logs", handlers.GetLogsHandler)
		})
	})

	return r
}
