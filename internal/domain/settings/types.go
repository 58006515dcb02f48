package settings

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("shop settings not found")

// Settings is the single shop-settings record. Handlers never hold one of
// these across requests; every read and write goes through the store.
type Settings struct {
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	Address       string            `json:"address"`
	BusinessHours map[string]string `json:"business_hours"` // weekday -> "08:00-17:30", absent = closed
	OpenHour      int               `json:"open_hour"`      // first drop-off slot, 24h clock
	CloseHour     int               `json:"close_hour"`     // last drop-off slot is CloseHour-1
	SlotCapacity  int               `json:"slot_capacity"`  // concurrent drop-offs per hourly slot
	UpdatedAt     time.Time         `json:"updated_at"`
}
