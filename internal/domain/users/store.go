package users

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"bodyshop/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	CreateAndInvite(ctx context.Context, user *User, token string, exp time.Duration) error
	Activate(ctx context.Context, token string) error
	Delete(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, userID int64, updates map[string]any) error
	UpdateRole(ctx context.Context, userID int64, role string) (previousRole string, err error)
	SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error
	ListAdmin(ctx context.Context, filter AdminListFilter) ([]AdminUserRow, int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
        SELECT id, first_name, last_name, email, phone, password, role, is_active, created_at, updated_at
        FROM users
        WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
        SELECT id, first_name, last_name, email, phone, password, role, is_active, created_at, updated_at
        FROM users
        WHERE email = $1 AND is_active = true`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *Repository) scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Password.hash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) create(ctx context.Context, tx pgx.Tx, user *User) error {
	query := `
        INSERT INTO users (first_name, last_name, password, email, phone, role)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	if user.Role == "" {
		user.Role = "client"
	}

	err := tx.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Password.hash, user.Email, user.Phone, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return ErrDuplicateEmail
			case "users_phone_key":
				return ErrDuplicatePhoneNumber
			}
		}
		return err
	}
	return nil
}

// CreateAndInvite stores the user and their hashed activation token in one
// transaction.
func (r *Repository) CreateAndInvite(ctx context.Context, user *User, token string, exp time.Duration) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		if err := r.create(ctx, tx, user); err != nil {
			return err
		}

		query := `INSERT INTO user_invitations (token, user_id, expiry) VALUES ($1, $2, $3)`
		if _, err := tx.Exec(ctx, query, token, user.ID, time.Now().Add(exp)); err != nil {
			return err
		}
		return nil
	})
}

// Activate flips is_active for the user behind a plain activation token and
// burns the invitation.
func (r *Repository) Activate(ctx context.Context, plainToken string) error {
	hash := sha256.Sum256([]byte(plainToken))
	hashToken := hex.EncodeToString(hash[:])

	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var userID int64
		query := `SELECT user_id FROM user_invitations WHERE token = $1 AND expiry > $2`
		err := tx.QueryRow(ctx, query, hashToken, time.Now()).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET is_active = true, updated_at = now() WHERE id = $1`, userID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM user_invitations WHERE user_id = $1`, userID); err != nil {
			return err
		}
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// UpdateProfile applies a partial update to the caller-editable columns.
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	allowed := map[string]bool{"first_name": true, "last_name": true, "phone": true}

	setClauses := []string{}
	args := []any{}
	argPos := 1

	for field, value := range updates {
		if !allowed[field] {
			return fmt.Errorf("field %q is not updatable", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argPos))
		args = append(args, value)
		argPos++
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = now() WHERE id = $%d`,
		strings.Join(setClauses, ", "), argPos)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole swaps the user's role and reports the previous one so the
// caller can audit the change.
func (r *Repository) UpdateRole(ctx context.Context, userID int64, role string) (string, error) {
	valid := map[string]bool{"client": true, "staff": true, "admin": true}
	if !valid[role] {
		return "", fmt.Errorf("invalid role %q", role)
	}

	var previous string
	err := database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, role, userID)
		return err
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, refreshToken, userID)
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	var token string
	err := r.db.QueryRow(ctx, `SELECT COALESCE(refresh_token, '') FROM users WHERE id = $1`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return token, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = NULL, updated_at = now() WHERE id = $1`, userID)
	return err
}

func (r *Repository) ListAdmin(ctx context.Context, filter AdminListFilter) ([]AdminUserRow, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 25
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if filter.Role != nil {
		where += fmt.Sprintf(" AND u.role = $%d", argPos)
		args = append(args, *filter.Role)
		argPos++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.email ILIKE $%d)", argPos, argPos, argPos)
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users u "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT u.id, u.first_name, u.last_name, u.email, u.phone, u.role, u.is_active,
               (SELECT COUNT(*) FROM bookings b WHERE b.user_id = u.id) AS bookings_count,
               (SELECT MAX(b.created_at) FROM bookings b WHERE b.user_id = u.id) AS last_booking_at,
               u.created_at
        FROM users u %s
        ORDER BY u.created_at DESC
        LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []AdminUserRow
	for rows.Next() {
		var row AdminUserRow
		if err := rows.Scan(&row.ID, &row.FirstName, &row.LastName, &row.Email, &row.Phone,
			&row.Role, &row.IsActive, &row.BookingsCount, &row.LastBookingAt, &row.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}
