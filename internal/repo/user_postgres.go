package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lwei/shoplite/internal/models"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, username, password_hash, COALESCE(email, ''), is_admin, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

func (r *PostgresUserRepository) GetByUsername(username string) (models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetByID(id int) (models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetAll() ([]models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepository) CreateUser(u models.User) (models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	var email any
	if u.Email != "" {
		email = u.Email
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, email, is_admin, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id
	`, u.Username, u.PasswordHash, email, u.IsAdmin, u.IsActive, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil && strings.Contains(err.Error(), "unique constraint") {
		return models.User{}, ErrDuplicatedValueUnique
	}
	return u, err
}

// Update rewrites a user row. Demoting or deactivating the last active admin
// is rejected; the row lock plus the admin count in the same transaction keep
// two concurrent updates from stripping the last two admins.
func (r *PostgresUserRepository) Update(u models.User) (models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var wasAdmin, wasActive bool
	err = tx.QueryRowContext(ctx, `SELECT is_admin, is_active FROM users WHERE id = $1 FOR UPDATE`, u.ID).Scan(&wasAdmin, &wasActive)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}

	if wasAdmin && wasActive && !(u.IsAdmin && u.IsActive) {
		var adminCount int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_admin = TRUE AND is_active = TRUE`).Scan(&adminCount); err != nil {
			return models.User{}, err
		}
		if adminCount <= 1 {
			return models.User{}, ErrLastAdmin
		}
	}

	u.UpdatedAt = time.Now().UTC()
	var email any
	if u.Email != "" {
		email = u.Email
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE users SET username = $1, password_hash = $2, email = $3, is_admin = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`, u.Username, u.PasswordHash, email, u.IsAdmin, u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		if strings.Contains(err.Error(), "unique constraint") {
			return models.User{}, ErrDuplicatedValueUnique
		}
		return models.User{}, err
	}
	return u, tx.Commit()
}

// Delete removes a user. The row lock plus the admin count in the same
// transaction keep two concurrent deletes from removing the last two admins.
func (r *PostgresUserRepository) Delete(id int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var isAdmin, isActive bool
	err = tx.QueryRowContext(ctx, `SELECT is_admin, is_active FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&isAdmin, &isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if isAdmin && isActive {
		var adminCount int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_admin = TRUE AND is_active = TRUE`).Scan(&adminCount); err != nil {
			return err
		}
		if adminCount <= 1 {
			return ErrLastAdmin
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}
