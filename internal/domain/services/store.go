package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bodyshop/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id int64) (*Service, error)
	GetBySlug(ctx context.Context, slug string) (*Service, error)
	List(ctx context.Context, activeOnly bool) ([]Service, error)
	Update(ctx context.Context, id int64, changes Changes) (old Changes, err error)
	Delete(ctx context.Context, id int64) (*Service, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const serviceColumns = `id, name, slug, description, category, price_min_cents, price_max_cents, estimated_days, active, created_at, updated_at`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.Category,
		&s.PriceMinCents, &s.PriceMaxCents, &s.EstimatedDays, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) Create(ctx context.Context, s *Service) error {
	query := `
        INSERT INTO services (name, slug, description, category, price_min_cents, price_max_cents, estimated_days, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		s.Name, s.Slug, s.Description, s.Category, s.PriceMinCents, s.PriceMaxCents, s.EstimatedDays, s.Active,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	return scanService(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE slug = $1`
	return scanService(r.db.QueryRow(ctx, query, slug))
}

func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY category, name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

var updatableServiceColumns = map[string]bool{
	"name":            true,
	"description":     true,
	"category":        true,
	"price_min_cents": true,
	"price_max_cents": true,
	"estimated_days":  true,
	"active":          true,
}

// Update applies a partial update and returns the prior values of exactly the
// touched columns, for the audit trail.
func (r *Repository) Update(ctx context.Context, id int64, changes Changes) (Changes, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	for field := range changes {
		if !updatableServiceColumns[field] {
			return nil, fmt.Errorf("field %q is not updatable", field)
		}
	}

	old := Changes{}
	err := database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		current, err := scanService(tx.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		currentByColumn := map[string]any{
			"name":            current.Name,
			"description":     current.Description,
			"category":        current.Category,
			"price_min_cents": current.PriceMinCents,
			"price_max_cents": current.PriceMaxCents,
			"estimated_days":  current.EstimatedDays,
			"active":          current.Active,
		}

		setClauses := []string{}
		args := []any{}
		argPos := 1
		for field, value := range changes {
			old[field] = currentByColumn[field]
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argPos))
			args = append(args, value)
			argPos++
		}
		args = append(args, id)

		query := fmt.Sprintf(`UPDATE services SET %s, updated_at = now() WHERE id = $%d`,
			strings.Join(setClauses, ", "), argPos)
		_, err = tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

// Delete removes the service and returns the deleted record for auditing.
func (r *Repository) Delete(ctx context.Context, id int64) (*Service, error) {
	query := `DELETE FROM services WHERE id = $1 RETURNING ` + serviceColumns
	return scanService(r.db.QueryRow(ctx, query, id))
}
