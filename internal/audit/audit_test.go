package audit

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubStore struct {
	entries []Entry
	err     error
}

func (s *stubStore) Insert(_ context.Context, entry *Entry) error {
	if s.err != nil {
		return s.err
	}
	entry.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubStore) List(context.Context, Filter) ([]Entry, int, error) {
	return s.entries, len(s.entries), nil
}

func TestWriterRecord(t *testing.T) {
	store := &stubStore{}
	w := NewWriter(store, zap.NewNop().Sugar())

	w.Record(context.Background(), Entry{
		ActorID:   3,
		Action:    ActionUpdate,
		Resource:  "reviews",
		RecordID:  11,
		OldValues: map[string]any{"status": "pending"},
		NewValues: map[string]any{"status": "approved"},
		IPAddress: "10.0.0.1",
	})

	if len(store.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(store.entries))
	}
	e := store.entries[0]
	if e.Action != ActionUpdate || e.Resource != "reviews" || e.RecordID != 11 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.OldValues["status"] != "pending" || e.NewValues["status"] != "approved" {
		t.Errorf("value capture wrong: %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not defaulted")
	}
}

func TestWriterRecordStorageFailureIsNonFatal(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	w := NewWriter(store, zap.NewNop().Sugar())

	// Must not panic and must not propagate the error anywhere.
	w.Record(context.Background(), Entry{ActorID: 1, Action: ActionDelete, Resource: "reviews", RecordID: 2})

	if len(store.entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(store.entries))
	}
}
