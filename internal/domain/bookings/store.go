package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bodyshop/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, b *Booking, capacity int, refFn func(int64) (string, error)) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetByUser(ctx context.Context, userID int64) ([]UserBooking, error)
	ListAdmin(ctx context.Context, filter ListFilter) ([]AdminBookingRow, int, error)
	UpdateStatus(ctx context.Context, id int64, status string) (previous string, err error)
	Cancel(ctx context.Context, id int64) (previous string, err error)
	GetDropOffsForDate(ctx context.Context, date time.Time) ([]time.Time, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const bookingColumns = `id, reference, user_id, service_id, vehicle_make, vehicle_model, vehicle_year, vehicle_plate, damage_note, drop_off_at, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.ServiceID, &b.VehicleMake, &b.VehicleModel,
		&b.VehicleYear, &b.VehiclePlate, &b.DamageNote, &b.DropOffAt, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts the booking and stamps its reference code in one
// transaction. The capacity check locks the live bookings sharing the
// drop-off slot before counting them.
func (r *Repository) Create(ctx context.Context, b *Booking, capacity int, refFn func(int64) (string, error)) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var taken int
		err := tx.QueryRow(ctx, `
            SELECT COUNT(*) FROM (
                SELECT 1 FROM bookings
                WHERE drop_off_at = $1 AND status <> $2
                FOR UPDATE
            ) held`, b.DropOffAt, StatusCancelled).Scan(&taken)
		if err != nil {
			return err
		}
		if capacity > 0 && taken >= capacity {
			return ErrSlotFull
		}

		query := `
            INSERT INTO bookings (reference, user_id, service_id, vehicle_make, vehicle_model, vehicle_year, vehicle_plate, damage_note, drop_off_at, status)
            VALUES ('', $1, $2, $3, $4, $5, $6, $7, $8, $9)
            RETURNING id, created_at, updated_at`

		b.Status = StatusPending
		err = tx.QueryRow(ctx, query,
			b.UserID, b.ServiceID, b.VehicleMake, b.VehicleModel, b.VehicleYear,
			b.VehiclePlate, b.DamageNote, b.DropOffAt, b.Status,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return err
		}

		reference, err := refFn(b.ID)
		if err != nil {
			return fmt.Errorf("generate reference: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE bookings SET reference = $1 WHERE id = $2`, reference, b.ID); err != nil {
			return err
		}
		b.Reference = reference
		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetByUser(ctx context.Context, userID int64) ([]UserBooking, error) {
	query := `
        SELECT b.id, b.reference, s.name, b.vehicle_make, b.vehicle_model, b.drop_off_at, b.status, b.created_at
        FROM bookings b
        JOIN services s ON s.id = b.service_id
        WHERE b.user_id = $1
        ORDER BY b.drop_off_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserBooking
	for rows.Next() {
		var ub UserBooking
		if err := rows.Scan(&ub.BookingID, &ub.Reference, &ub.ServiceName, &ub.VehicleMake,
			&ub.VehicleModel, &ub.DropOffAt, &ub.Status, &ub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ub)
	}
	return out, rows.Err()
}

func (r *Repository) ListAdmin(ctx context.Context, filter ListFilter) ([]AdminBookingRow, int, error) {
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

	if filter.Status != nil {
		where += fmt.Sprintf(" AND b.status = $%d", argPos)
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Date != nil {
		where += fmt.Sprintf(" AND b.drop_off_at >= $%d AND b.drop_off_at < $%d", argPos, argPos+1)
		dayStart := filter.Date.Truncate(24 * time.Hour)
		args = append(args, dayStart, dayStart.Add(24*time.Hour))
		argPos += 2
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM bookings b "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT b.id, b.reference, u.first_name || ' ' || u.last_name, u.phone, u.email,
               s.name, b.vehicle_make, b.vehicle_model, b.vehicle_plate, b.drop_off_at, b.status, b.created_at
        FROM bookings b
        JOIN users u ON u.id = b.user_id
        JOIN services s ON s.id = b.service_id
        %s
        ORDER BY b.drop_off_at ASC
        LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []AdminBookingRow
	for rows.Next() {
		var row AdminBookingRow
		if err := rows.Scan(&row.BookingID, &row.Reference, &row.CustomerName, &row.CustomerPhone,
			&row.CustomerEmail, &row.ServiceName, &row.VehicleMake, &row.VehicleModel,
			&row.VehiclePlate, &row.DropOffAt, &row.Status, &row.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// UpdateStatus moves the booking along the status machine under a row lock
// and reports the previous status for auditing.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	var previous string
	err := database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if !ValidTransition(previous, status) {
			return ErrInvalidTransition
		}
		_, err = tx.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, status, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

// Cancel is the owner-facing cancellation: only pending and confirmed
// bookings can still be cancelled.
func (r *Repository) Cancel(ctx context.Context, id int64) (string, error) {
	var previous string
	err := database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if !Cancellable(previous) {
			return ErrNotCancellable
		}
		_, err = tx.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, StatusCancelled, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

// GetDropOffsForDate returns the drop-off times of live bookings on the given
// calendar day. The handler buckets them into hourly slots.
func (r *Repository) GetDropOffsForDate(ctx context.Context, date time.Time) ([]time.Time, error) {
	dayStart := date.Truncate(24 * time.Hour)
	query := `
        SELECT drop_off_at FROM bookings
        WHERE drop_off_at >= $1 AND drop_off_at < $2 AND status <> $3`

	rows, err := r.db.Query(ctx, query, dayStart, dayStart.Add(24*time.Hour), StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
