package storage

import (
	"bodyshop/internal/audit"
	"bodyshop/internal/domain/bookings"
	"bodyshop/internal/domain/gallery"
	"bodyshop/internal/domain/reviews"
	"bodyshop/internal/domain/services"
	"bodyshop/internal/domain/settings"
	"bodyshop/internal/domain/users"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Container aggregates every repository behind one handle.
type Container struct {
	Users     users.Store
	Services  services.Store
	Bookings  bookings.Store
	Reviews   reviews.Store
	Gallery   gallery.Store
	Settings  settings.Store
	AuditLogs audit.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		Users:     users.NewRepository(db),
		Services:  services.NewRepository(db),
		Bookings:  bookings.NewRepository(db),
		Reviews:   reviews.NewRepository(db),
		Gallery:   gallery.NewRepository(db),
		Settings:  settings.NewRepository(db),
		AuditLogs: audit.NewRepository(db),
	}
}
