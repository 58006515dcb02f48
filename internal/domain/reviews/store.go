package reviews

import (
	"context"
	"errors"
	"fmt"

	"bodyshop/internal/database"
	"bodyshop/internal/domain/bookings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id int64) (*Review, error)
	ListApproved(ctx context.Context, limit int) ([]PublicReview, error)
	ListAdmin(ctx context.Context, filter ListFilter) ([]Review, int, error)
	UpdateStatus(ctx context.Context, id int64, status string) (previous string, err error)
	Delete(ctx context.Context, id int64) (*Review, error)
	CountPending(ctx context.Context) (int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const reviewColumns = `id, user_id, booking_id, rating, comment, status, created_at, updated_at`

func scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.BookingID, &rv.Rating, &rv.Comment, &rv.Status, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

// Create stores a review for one of the author's completed bookings. The
// booking check runs in the same transaction as the insert.
func (r *Repository) Create(ctx context.Context, review *Review) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx,
			`SELECT status FROM bookings WHERE id = $1 AND user_id = $2`,
			review.BookingID, review.UserID,
		).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return bookings.ErrNotFound
			}
			return err
		}
		if status != bookings.StatusCompleted {
			return ErrNotReviewable
		}

		review.Status = StatusPending
		query := `
            INSERT INTO reviews (user_id, booking_id, rating, comment, status)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, created_at, updated_at`

		err = tx.QueryRow(ctx, query,
			review.UserID, review.BookingID, review.Rating, review.Comment, review.Status,
		).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrAlreadyReviewed
			}
			return err
		}
		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	return scanReview(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) ListApproved(ctx context.Context, limit int) ([]PublicReview, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
        SELECT rv.id, u.first_name || ' ' || LEFT(u.last_name, 1) || '.', s.name, rv.rating, rv.comment, rv.created_at
        FROM reviews rv
        JOIN users u ON u.id = rv.user_id
        JOIN bookings b ON b.id = rv.booking_id
        JOIN services s ON s.id = b.service_id
        WHERE rv.status = $1
        ORDER BY rv.created_at DESC
        LIMIT $2`

	rows, err := r.db.Query(ctx, query, StatusApproved, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PublicReview
	for rows.Next() {
		var pr PublicReview
		if err := rows.Scan(&pr.ID, &pr.CustomerName, &pr.ServiceName, &pr.Rating, &pr.Comment, &pr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (r *Repository) ListAdmin(ctx context.Context, filter ListFilter) ([]Review, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 25
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	where := ""
	args := []any{}
	argPos := 1
	if filter.Status != nil {
		where = fmt.Sprintf("WHERE status = $%d", argPos)
		args = append(args, *filter.Status)
		argPos++
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM reviews "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT %s FROM reviews %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d`, reviewColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// UpdateStatus sets the moderation status under a row lock and reports the
// previous status for auditing.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	var previous string
	err := database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT status FROM reviews WHERE id = $1 FOR UPDATE`, id).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE reviews SET status = $1, updated_at = now() WHERE id = $2`, status, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

// Delete removes the review and returns the deleted record for auditing.
func (r *Repository) Delete(ctx context.Context, id int64) (*Review, error) {
	query := `DELETE FROM reviews WHERE id = $1 RETURNING ` + reviewColumns
	return scanReview(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE status = $1`, StatusPending).Scan(&n)
	return n, err
}
