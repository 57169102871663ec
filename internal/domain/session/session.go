package session

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/examai/backend/internal/domain/examresult"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
	"github.com/examai/backend/internal/domain/questionbank"
	"github.com/examai/backend/internal/id"
)

const autoNameMaxRunes = 20

var defaultNamePattern = regexp.MustCompile(`^Session (\d+)$`)

// Bundle is the state a session owns.
type Bundle struct {
	RawInput string                     `json:"rawInput"`
	Config   practicesession.QuizConfig `json:"config"`
	History  []examresult.ExamResult    `json:"history"`
	Progress practicesession.Progress   `json:"progress"`
}

// NewBundle returns an empty bundle with the default quiz config.
func NewBundle() Bundle {
	return Bundle{
		Config:   practicesession.DefaultConfig(),
		History:  []examresult.ExamResult{},
		Progress: practicesession.Progress{UsedRandomIndices: []int{}},
	}
}

// IsEmpty reports whether the bundle has neither bank text nor history.
func (b Bundle) IsEmpty() bool {
	return b.RawInput == "" && len(b.History) == 0
}

// Clone copies the bundle's slices so the copy can be mutated freely.
func (b Bundle) Clone() Bundle {
	history := make([]examresult.ExamResult, len(b.History))
	copy(history, b.History)
	return Bundle{
		RawInput: b.RawInput,
		Config:   b.Config,
		History:  history,
		Progress: b.Progress.Clone(),
	}
}

// normalize replaces nil slices so a decoded bundle encodes as it would
// have been written.
func (b *Bundle) normalize() {
	if b.History == nil {
		b.History = []examresult.ExamResult{}
	}
	if b.Progress.UsedRandomIndices == nil {
		b.Progress.UsedRandomIndices = []int{}
	}
	if !b.Config.Mode.Valid() {
		b.Config.Mode = practicesession.ModeSerial
	}
}

// Session is one stored workspace.
type Session struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreatedAt    int64  `json:"createdAt"`
	LastModified int64  `json:"lastModified"`
	IsFavorite   bool   `json:"isFavorite,omitempty"`
	GroupID      string `json:"groupId,omitempty"`
	GroupName    string `json:"groupName,omitempty"`
	Data         Bundle `json:"data"`
}

// New creates an empty session named name.
func New(name string, now time.Time) *Session {
	ms := now.UnixMilli()
	return &Session{
		ID:           id.SessionID(now),
		Name:         name,
		CreatedAt:    ms,
		LastModified: ms,
		Data:         NewBundle(),
	}
}

// HasDefaultName reports whether the name is still a generated "Session N".
func (s *Session) HasDefaultName() bool {
	return defaultNamePattern.MatchString(s.Name)
}

// Apply writes the live bundle back into the session. A session still
// carrying its generated name is renamed after its first exam once history
// exists.
func (s *Session) Apply(b Bundle, now time.Time) {
	s.Data = b.Clone()
	s.LastModified = now.UnixMilli()

	if len(b.History) == 0 || !s.HasDefaultName() {
		return
	}
	if name, ok := AutoName(b); ok {
		s.Name = name
	}
}

// AutoName derives a display name from the first exam's name, else from the
// bank title.
func AutoName(b Bundle) (string, bool) {
	var name string
	if len(b.History) > 0 {
		name = b.History[0].ExamName
	}
	if name == "" {
		name, _ = questionbank.ExtractTitle(b.RawInput)
	}
	if name == "" {
		return "", false
	}
	return Truncate(name, autoNameMaxRunes), true
}

// Truncate shortens s to n runes followed by "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// InGroup reports whether the session carries a group tag.
func (s *Session) InGroup() bool {
	return s.GroupID != ""
}
