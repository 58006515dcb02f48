package refcode

import (
	"strings"
	"testing"
)

func TestBookingRef(t *testing.T) {
	g, err := NewGenerator("test-salt")
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	seen := make(map[string]bool)
	for id := int64(1); id <= 100; id++ {
		ref, err := g.BookingRef(id)
		if err != nil {
			t.Fatalf("BookingRef(%d): %v", id, err)
		}
		if !strings.HasPrefix(ref, "BS-") {
			t.Fatalf("ref %q missing prefix", ref)
		}
		if len(ref) < len("BS-")+6 {
			t.Fatalf("ref %q too short", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate ref %q", ref)
		}
		seen[ref] = true

		for _, c := range ref[3:] {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("ref %q contains %q outside alphabet", ref, c)
			}
		}
	}
}

func TestBookingRefStablePerSalt(t *testing.T) {
	g1, _ := NewGenerator("salt-a")
	g2, _ := NewGenerator("salt-a")
	g3, _ := NewGenerator("salt-b")

	r1, _ := g1.BookingRef(42)
	r2, _ := g2.BookingRef(42)
	r3, _ := g3.BookingRef(42)

	if r1 != r2 {
		t.Errorf("same salt produced %q and %q", r1, r2)
	}
	if r1 == r3 {
		t.Errorf("different salts produced identical ref %q", r1)
	}
}
