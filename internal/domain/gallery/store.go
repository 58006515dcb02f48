package gallery

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, photo *Photo) error
	GetByID(ctx context.Context, id int64) (*Photo, error)
	List(ctx context.Context) ([]Photo, error)
	Delete(ctx context.Context, id int64) (*Photo, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, photo *Photo) error {
	query := `
        INSERT INTO gallery_photos (title, caption, kind, url, public_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		photo.Title, photo.Caption, photo.Kind, photo.URL, photo.PublicID,
	).Scan(&photo.ID, &photo.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Photo, error) {
	query := `SELECT id, title, caption, kind, url, public_id, created_at FROM gallery_photos WHERE id = $1`
	return scanPhoto(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) List(ctx context.Context) ([]Photo, error) {
	query := `SELECT id, title, caption, kind, url, public_id, created_at FROM gallery_photos ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Delete removes the row and returns it so the handler can both delete the
// cloudinary asset and audit the removal.
func (r *Repository) Delete(ctx context.Context, id int64) (*Photo, error) {
	query := `DELETE FROM gallery_photos WHERE id = $1 RETURNING id, title, caption, kind, url, public_id, created_at`
	return scanPhoto(r.db.QueryRow(ctx, query, id))
}

func scanPhoto(row pgx.Row) (*Photo, error) {
	var p Photo
	err := row.Scan(&p.ID, &p.Title, &p.Caption, &p.Kind, &p.URL, &p.PublicID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
