package ids

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUID_NewID(t *testing.T) {
	var gen UUID
	a, b := gen.NewID(), gen.NewID()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("parse %q: %v", a, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected v7 uuid, got v%d", parsed.Version())
	}
}
