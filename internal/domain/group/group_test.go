package group_test

import (
	"strings"
	"testing"
	"time"

	"github.com/examai/backend/internal/domain/group"
)

func TestNewGroup(t *testing.T) {
	g := group.New([]string{"Session Group 2", "Biology"}, time.UnixMilli(77))

	if g.Name != "Session Group 3" {
		t.Errorf("expected name %q, got %q", "Session Group 3", g.Name)
	}
	if !strings.HasPrefix(g.ID, "group-77-") {
		t.Errorf("unexpected id %q", g.ID)
	}
}

func TestNewGroup_UniqueIDs(t *testing.T) {
	now := time.Now()
	g1 := group.New(nil, now)
	g2 := group.New(nil, now)

	if g1.ID == g2.ID {
		t.Error("expected different IDs for groups created at the same instant")
	}
}

func TestNextNumber(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  int
	}{
		{"no groups", nil, 1},
		{"ignores custom names", []string{"Physics", "Session Group"}, 1},
		{"picks highest", []string{"Session Group 1", "Session Group 7", "Session Group 3"}, 8},
		{"exact match only", []string{"Session Group 4 copy"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := group.NextNumber(tt.names); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
