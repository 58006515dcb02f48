package gallery

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("gallery photo not found")

// Photo is one before/after shot of a completed repair.
type Photo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Caption   string    `json:"caption,omitempty"`
	Kind      string    `json:"kind"` // "before" or "after"
	URL       string    `json:"url"`
	PublicID  string    `json:"-"` // cloudinary asset id, needed for deletion
	CreatedAt time.Time `json:"created_at"`
}
