package services

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("service not found")
	ErrDuplicateSlug = errors.New("a service with that slug already exists")
)

// Service is one entry in the repair catalog (dent removal, respray, ...).
type Service struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	PriceMinCents int       `json:"price_min_cents"`
	PriceMaxCents int       `json:"price_max_cents"`
	EstimatedDays int       `json:"estimated_days"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Changes maps column -> new value for a partial update. The store reports
// the prior values of the touched columns for auditing.
type Changes map[string]any
