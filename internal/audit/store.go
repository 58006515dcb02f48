package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, entry *Entry) error {
	oldValues, err := marshalValues(entry.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newValues, err := marshalValues(entry.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}
	metadata, err := marshalValues(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
        INSERT INTO audit_logs (actor_id, action, resource, record_id, old_values, new_values, ip_address, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id`

	return r.db.QueryRow(ctx, query,
		entry.ActorID,
		entry.Action,
		entry.Resource,
		entry.RecordID,
		oldValues,
		newValues,
		nullableString(entry.IPAddress),
		metadata,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if filter.Resource != "" {
		where += fmt.Sprintf(" AND resource = $%d", argPos)
		args = append(args, filter.Resource)
		argPos++
	}
	if filter.ActorID != nil {
		where += fmt.Sprintf(" AND actor_id = $%d", argPos)
		args = append(args, *filter.ActorID)
		argPos++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_logs " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT id, actor_id, action, resource, record_id, old_values, new_values, COALESCE(ip_address, ''), metadata, created_at
        FROM audit_logs %s
        ORDER BY created_at DESC, id DESC
        LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var oldValues, newValues, metadata []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Resource, &e.RecordID, &oldValues, &newValues, &e.IPAddress, &metadata, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := unmarshalValues(oldValues, &e.OldValues); err != nil {
			return nil, 0, err
		}
		if err := unmarshalValues(newValues, &e.NewValues); err != nil {
			return nil, 0, err
		}
		if err := unmarshalValues(metadata, &e.Metadata); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func marshalValues(values map[string]any) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	return json.Marshal(values)
}

func unmarshalValues(data []byte, dst *map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
