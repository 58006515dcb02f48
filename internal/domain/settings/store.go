package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bodyshop/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, next Settings) (old *Settings, err error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// The settings table holds exactly one row, keyed id = 1.
const settingsRowID = 1

func (r *Repository) Get(ctx context.Context) (*Settings, error) {
	query := `SELECT phone, email, address, business_hours, open_hour, close_hour, slot_capacity, updated_at
              FROM shop_settings WHERE id = $1`
	return scanSettings(r.db.QueryRow(ctx, query, settingsRowID))
}

// Update replaces the settings row under a row lock and returns the prior
// record for auditing. Read-modify-write cycles stay inside this call.
func (r *Repository) Update(ctx context.Context, next Settings) (*Settings, error) {
	var old *Settings
	err := database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var err error
		old, err = scanSettings(tx.QueryRow(ctx,
			`SELECT phone, email, address, business_hours, open_hour, close_hour, slot_capacity, updated_at
             FROM shop_settings WHERE id = $1 FOR UPDATE`, settingsRowID))
		if err != nil {
			return err
		}

		hours, err := json.Marshal(next.BusinessHours)
		if err != nil {
			return fmt.Errorf("marshal business hours: %w", err)
		}

		_, err = tx.Exec(ctx, `
            UPDATE shop_settings
            SET phone = $1, email = $2, address = $3, business_hours = $4,
                open_hour = $5, close_hour = $6, slot_capacity = $7, updated_at = now()
            WHERE id = $8`,
			next.Phone, next.Email, next.Address, hours,
			next.OpenHour, next.CloseHour, next.SlotCapacity, settingsRowID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

func scanSettings(row pgx.Row) (*Settings, error) {
	var s Settings
	var hours []byte
	err := row.Scan(&s.Phone, &s.Email, &s.Address, &hours, &s.OpenHour, &s.CloseHour, &s.SlotCapacity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &s.BusinessHours); err != nil {
			return nil, fmt.Errorf("unmarshal business hours: %w", err)
		}
	}
	return &s, nil
}
