package bookings

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrSlotFull          = errors.New("no capacity left for that drop-off slot")
	ErrNotCancellable    = errors.New("booking can no longer be cancelled")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// Booking statuses. A booking moves pending -> confirmed -> in_progress ->
// completed; cancelled is reachable from pending and confirmed only.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var validTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// ValidTransition reports whether from -> to is a legal move. Re-asserting
// the current status is allowed so status updates stay idempotent.
func ValidTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether a booking in this status may still be
// cancelled by its owner.
func Cancellable(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

func KnownStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Booking is a repair appointment.
type Booking struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"reference"`
	UserID       int64     `json:"user_id"`
	ServiceID    int64     `json:"service_id"`
	VehicleMake  string    `json:"vehicle_make"`
	VehicleModel string    `json:"vehicle_model"`
	VehicleYear  int       `json:"vehicle_year"`
	VehiclePlate string    `json:"vehicle_plate"`
	DamageNote   string    `json:"damage_note"`
	DropOffAt    time.Time `json:"drop_off_at"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserBooking is the customer-facing listing row.
type UserBooking struct {
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	ServiceName string    `json:"service_name"`
	VehicleMake string    `json:"vehicle_make"`
	VehicleModel string   `json:"vehicle_model"`
	DropOffAt   time.Time `json:"drop_off_at"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminBookingRow is the staff-facing listing row.
type AdminBookingRow struct {
	BookingID     int64     `json:"booking_id"`
	Reference     string    `json:"reference"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	CustomerEmail string    `json:"customer_email"`
	ServiceName   string    `json:"service_name"`
	VehicleMake   string    `json:"vehicle_make"`
	VehicleModel  string    `json:"vehicle_model"`
	VehiclePlate  string    `json:"vehicle_plate"`
	DropOffAt     time.Time `json:"drop_off_at"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListFilter narrows the staff booking listing.
type ListFilter struct {
	Status *string
	Date   *time.Time // calendar day of the drop-off slot
	Page   int
	Limit  int
}
