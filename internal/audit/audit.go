// Package audit records who changed what. Entries are append-only and used
// for traceability, never for access control.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entry is one audited mutation.
type Entry struct {
	ID        int64          `json:"id"`
	ActorID   int64          `json:"actor_id"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	RecordID  int64          `json:"record_id"`
	OldValues map[string]any `json:"old_values,omitempty"`
	NewValues map[string]any `json:"new_values,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter narrows audit listings.
type Filter struct {
	Resource string
	ActorID  *int64
	Page     int
	Limit    int
}

type Store interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
}

// Writer records entries after authorized mutations. Audit writes are
// best-effort: a failed insert is surfaced to the operational log and never
// fails the request that caused it. A crash between the mutation commit and
// the audit insert loses the entry; that tradeoff is accepted, not hidden.
type Writer struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewWriter(store Store, logger *zap.SugaredLogger) *Writer {
	return &Writer{store: store, logger: logger}
}

// Record persists the entry, swallowing storage errors after logging them.
func (w *Writer) Record(ctx context.Context, entry Entry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := w.store.Insert(ctx, &entry); err != nil {
		w.logger.Errorw("audit write failed",
			"error", err,
			"actor_id", entry.ActorID,
			"action", entry.Action,
			"resource", entry.Resource,
			"record_id", entry.RecordID,
		)
	}
}
