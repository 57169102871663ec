package id_test

import (
	"strings"
	"testing"
	"time"

	"github.com/examai/backend/internal/id"
)

func TestGenerateID(t *testing.T) {
	a := id.GenerateID()
	b := id.GenerateID()

	if len(a) != 16 {
		t.Errorf("expected 16 characters, got %d", len(a))
	}
	if a == b {
		t.Error("expected different IDs")
	}
}

func TestSessionID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := id.SessionID(now)
	b := id.SessionID(now)

	if !strings.HasPrefix(a, "session-1700000000123-") {
		t.Errorf("unexpected session id %q", a)
	}
	if a == b {
		t.Errorf("expected distinct ids within one millisecond, got %q twice", a)
	}
}

func TestImportedSessionID_Unique(t *testing.T) {
	a := id.ImportedSessionID(42)
	b := id.ImportedSessionID(42)

	if !strings.HasPrefix(a, "session-42-") {
		t.Errorf("unexpected prefix in %q", a)
	}
	if a == b {
		t.Error("expected imported ids to differ for the same creation time")
	}
}

func TestGroupID(t *testing.T) {
	if got := id.GroupID(time.UnixMilli(5)); !strings.HasPrefix(got, "group-5-") {
		t.Errorf("unexpected group id %q", got)
	}
}
