package group

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/examai/backend/internal/id"
)

// UnknownName is used when a session joins a group that has no named member.
const UnknownName = "Unknown Group"

var defaultNamePattern = regexp.MustCompile(`^Session Group (\d+)$`)

// Group gathers sessions under a shared name. Membership lives on the
// sessions themselves; a group exists while at least one session carries
// its id.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// New creates a group with a generated id and the next default name.
func New(existingNames []string, now time.Time) *Group {
	return &Group{
		ID:   id.GroupID(now),
		Name: DefaultName(NextNumber(existingNames)),
	}
}

// DefaultName formats the name given to new and imported groups.
func DefaultName(n int) string {
	return fmt.Sprintf("Session Group %d", n)
}

// NextNumber is one past the highest N among names matching
// "Session Group N".
func NextNumber(names []string) int {
	maxNum := 0
	for _, name := range names {
		m := defaultNamePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxNum {
			maxNum = n
		}
	}
	return maxNum + 1
}
