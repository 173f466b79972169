package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lwei/shoplite/internal/models"
	"github.com/shopspring/decimal"
)

type PostgresReportRepository struct {
	db *sql.DB
}

func NewPostgresReportRepository(db *sql.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

// Every query below filters on type = 'out' AND is_reversed = FALSE; reversed
// entries never count toward any aggregate.

func (r *PostgresReportRepository) TopProducts(since, until time.Time, limit int) ([]ProductSales, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.name, SUM(s.amount) AS total_amount, SUM(s.quantity) AS total_qty
		FROM sales s
		JOIN products p ON s.product_id = p.id
		WHERE s.type = 'out' AND s.is_reversed = FALSE
			AND s.created_at >= $1 AND s.created_at <= $2
		GROUP BY p.id, p.name
		ORDER BY total_amount DESC
		LIMIT $3
	`, since, until, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranks []ProductSales
	for rows.Next() {
		var ps ProductSales
		if err := rows.Scan(&ps.Name, &ps.TotalAmount, &ps.TotalQty); err != nil {
			return nil, err
		}
		ranks = append(ranks, ps)
	}
	return ranks, rows.Err()
}

func (r *PostgresReportRepository) CategorySales(since, until time.Time) ([]CategorySales, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, SUM(s.amount) AS total_amount
		FROM sales s
		JOIN products p ON s.product_id = p.id
		JOIN categories c ON p.category_id = c.id
		WHERE s.type = 'out' AND s.is_reversed = FALSE
			AND s.created_at >= $1 AND s.created_at <= $2
		GROUP BY c.id, c.name
		ORDER BY total_amount DESC
	`, since, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []CategorySales
	for rows.Next() {
		var cs CategorySales
		if err := rows.Scan(&cs.Name, &cs.TotalAmount); err != nil {
			return nil, err
		}
		sales = append(sales, cs)
	}
	return sales, rows.Err()
}

func (r *PostgresReportRepository) TotalAmount(since, until time.Time) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM sales
		WHERE type = 'out' AND is_reversed = FALSE
			AND created_at >= $1 AND created_at <= $2
	`, since, until).Scan(&total)
	return total, err
}

func (r *PostgresReportRepository) AllTimeAmount() (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM sales
		WHERE type = 'out' AND is_reversed = FALSE
	`).Scan(&total)
	return total, err
}

func (r *PostgresReportRepository) RecentSales(since, until time.Time, limit int) ([]models.Sale, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, type, amount, user_id, is_reversed, created_at
		FROM sales
		WHERE type = 'out' AND is_reversed = FALSE
			AND created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, since, until, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Quantity, &s.Type, &s.Amount, &s.UserID, &s.IsReversed, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
