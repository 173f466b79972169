package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lwei/shoplite/internal/models"
	"github.com/shopspring/decimal"
)

type PostgresSaleRepository struct {
	db *sql.DB
}

func NewPostgresSaleRepository(db *sql.DB) *PostgresSaleRepository {
	return &PostgresSaleRepository{db: db}
}

// RecordReceipt increments stock and appends an "in" entry with amount 0.
func (r *PostgresSaleRepository) RecordReceipt(productID, quantity, userID int) (models.Sale, error) {
	if quantity <= 0 {
		return models.Sale{}, ErrInvalidQuantity
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Sale{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = $2
		WHERE id = $3
		RETURNING name
	`, quantity, time.Now().UTC(), productID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sale{}, ErrProductNotFound
	}
	if err != nil {
		return models.Sale{}, err
	}

	sale := models.Sale{
		ProductID: productID,
		Quantity:  quantity,
		Type:      models.SaleTypeIn,
		Amount:    decimal.Zero,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := insertSale(ctx, tx, &sale); err != nil {
		return models.Sale{}, err
	}
	action := fmt.Sprintf("receipt: %s x %d", name, quantity)
	if err := appendLog(ctx, tx, userID, action, &sale.ID); err != nil {
		return models.Sale{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Sale{}, fmt.Errorf("failed to commit receipt: %w", err)
	}
	return sale, nil
}

// RecordSale decrements stock with a conditional update so that two
// concurrent sales can never both pass the stock check and oversell.
func (r *PostgresSaleRepository) RecordSale(productID, quantity, userID int) (models.Sale, error) {
	if quantity <= 0 {
		return models.Sale{}, ErrInvalidQuantity
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Sale{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	var price decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		UPDATE products SET stock = stock - $1, updated_at = $2
		WHERE id = $3 AND stock >= $1
		RETURNING name, price
	`, quantity, time.Now().UTC(), productID).Scan(&name, &price)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the product is missing or the stock check failed; tell them apart.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return models.Sale{}, err
		}
		if !exists {
			return models.Sale{}, ErrProductNotFound
		}
		return models.Sale{}, ErrInsufficientStock
	}
	if err != nil {
		return models.Sale{}, err
	}

	sale := models.Sale{
		ProductID: productID,
		Quantity:  quantity,
		Type:      models.SaleTypeOut,
		Amount:    price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := insertSale(ctx, tx, &sale); err != nil {
		return models.Sale{}, err
	}
	action := fmt.Sprintf("sale: %s x %d", name, quantity)
	if err := appendLog(ctx, tx, userID, action, &sale.ID); err != nil {
		return models.Sale{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Sale{}, fmt.Errorf("failed to commit sale: %w", err)
	}
	return sale, nil
}

// Reverse applies the inverse stock delta and flips the reversal flag exactly
// once. The original row is never deleted and its amount is never adjusted.
func (r *PostgresSaleRepository) Reverse(saleID, userID int, isAdmin bool) (models.Sale, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Sale{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var s models.Sale
	err = tx.QueryRowContext(ctx, `
		SELECT id, product_id, quantity, type, amount, user_id, is_reversed, created_at
		FROM sales WHERE id = $1 FOR UPDATE
	`, saleID).Scan(&s.ID, &s.ProductID, &s.Quantity, &s.Type, &s.Amount, &s.UserID, &s.IsReversed, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return models.Sale{}, err
	}

	if !isAdmin && s.UserID != userID {
		return models.Sale{}, ErrNotOwner
	}
	if s.IsReversed {
		return models.Sale{}, ErrAlreadyReversed
	}

	delta := s.Quantity
	if s.Type == models.SaleTypeIn {
		delta = -s.Quantity
	}

	var name string
	err = tx.QueryRowContext(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = $2
		WHERE id = $3
		RETURNING name
	`, delta, time.Now().UTC(), s.ProductID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sale{}, ErrProductNotFound
	}
	if err != nil {
		return models.Sale{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sales SET is_reversed = TRUE WHERE id = $1`, s.ID); err != nil {
		return models.Sale{}, err
	}
	s.IsReversed = true

	action := fmt.Sprintf("reversed %s: %s x %d", s.Type, name, s.Quantity)
	if err := appendLog(ctx, tx, userID, action, &s.ID); err != nil {
		return models.Sale{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Sale{}, fmt.Errorf("failed to commit reversal: %w", err)
	}
	return s, nil
}

func (r *PostgresSaleRepository) GetByID(id int) (models.Sale, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var s models.Sale
	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, quantity, type, amount, user_id, is_reversed, created_at
		FROM sales WHERE id = $1
	`, id).Scan(&s.ID, &s.ProductID, &s.Quantity, &s.Type, &s.Amount, &s.UserID, &s.IsReversed, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sale{}, ErrSaleNotFound
	}
	return s, err
}

const defaultSaleLimit = 100

func (r *PostgresSaleRepository) Filter(sf SaleFilter) ([]models.Sale, int, error) {
	whereClause, args := saleWhereClause(sf)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var total int
	countQuery := "SELECT COUNT(*) FROM sales " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	query := `SELECT id, product_id, quantity, type, amount, user_id, is_reversed, created_at FROM sales ` +
		whereClause + " ORDER BY created_at DESC"
	argIdx := len(args) + 1

	if !sf.Unlimited {
		limit := defaultSaleLimit
		if sf.Limit != nil && *sf.Limit > 0 {
			limit = min(*sf.Limit, defaultSaleLimit)
		}
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
		argIdx++
	}

	if sf.Offset != nil && *sf.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, *sf.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Quantity, &s.Type, &s.Amount, &s.UserID, &s.IsReversed, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		sales = append(sales, s)
	}
	return sales, total, rows.Err()
}

func saleWhereClause(sf SaleFilter) (string, []any) {
	whereClause := "WHERE 1=1"
	args := []any{}
	argIdx := 1

	if sf.ProductID != nil {
		whereClause += fmt.Sprintf(" AND product_id = $%d", argIdx)
		args = append(args, *sf.ProductID)
		argIdx++
	}
	if sf.Type != "" {
		whereClause += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, sf.Type)
		argIdx++
	}
	if !sf.IncludeReversed {
		whereClause += " AND is_reversed = FALSE"
	}
	if sf.Since != nil {
		whereClause += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *sf.Since)
		argIdx++
	}
	if sf.Until != nil {
		whereClause += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *sf.Until)
	}

	return whereClause, args
}

func insertSale(ctx context.Context, tx *sql.Tx, s *models.Sale) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO sales (product_id, quantity, type, amount, user_id, is_reversed, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING id
	`, s.ProductID, s.Quantity, s.Type, s.Amount, s.UserID, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

func appendLog(ctx context.Context, tx *sql.Tx, userID int, action string, saleID *int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO logs (user_id, action, sale_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, action, saleID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
