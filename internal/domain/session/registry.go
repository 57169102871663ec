package session

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/examai/backend/internal/domain/group"
	"github.com/examai/backend/internal/domain/questionbank"
	"github.com/examai/backend/internal/id"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrGroupNotFound = errors.New("group not found")
	ErrEmptyName     = errors.New("name must not be empty")
	ErrSelfGroup     = errors.New("cannot group a session with itself")
)

// Registry is the ordered session list plus the active session id. It is
// not safe for concurrent use.
type Registry struct {
	sessions []*Session
	activeID string
}

// NewRegistry wraps loaded state. An active id that names no session is
// kept until EnsureActive repairs it.
func NewRegistry(sessions []*Session, activeID string) *Registry {
	for _, s := range sessions {
		s.Data.normalize()
	}
	return &Registry{sessions: sessions, activeID: activeID}
}

// Sessions returns the sessions in display order.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

func (r *Registry) Len() int { return len(r.sessions) }

func (r *Registry) ActiveID() string { return r.activeID }

// Active returns the active session, or nil.
func (r *Registry) Active() *Session {
	s, _ := r.Find(r.activeID)
	return s
}

func (r *Registry) Find(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	for _, s := range r.sessions {
		if s.ID == sessionID {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

// EnsureActive guarantees exactly one active session: an empty registry
// gets a fresh "Session 1", a dangling active id falls back to the first
// session. It reports whether anything changed.
func (r *Registry) EnsureActive(now time.Time) bool {
	if len(r.sessions) == 0 {
		s := New("Session 1", now)
		r.sessions = []*Session{s}
		r.activeID = s.ID
		return true
	}
	if r.Active() == nil {
		r.activeID = r.sessions[0].ID
		return true
	}
	return false
}

// nextNumber is one past the highest N among names "Session N".
func (r *Registry) nextNumber() int {
	maxNum := 0
	for _, s := range r.sessions {
		m := defaultNamePattern.FindStringSubmatch(s.Name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxNum {
			maxNum = n
		}
	}
	return maxNum + 1
}

// Create adds an empty session at the front and makes it active.
func (r *Registry) Create(now time.Time) *Session {
	s := New(fmt.Sprintf("Session %d", r.nextNumber()), now)
	r.Insert(s)
	return s
}

// Insert puts s at the front of the list and makes it active.
func (r *Registry) Insert(s *Session) {
	for r.has(s.ID) {
		s.ID = id.SessionID(time.UnixMilli(s.CreatedAt))
	}
	s.Data.normalize()
	r.sessions = append([]*Session{s}, r.sessions...)
	r.activeID = s.ID
}

func (r *Registry) has(sessionID string) bool {
	_, err := r.Find(sessionID)
	return err == nil
}

func (r *Registry) Select(sessionID string) error {
	if _, err := r.Find(sessionID); err != nil {
		return err
	}
	r.activeID = sessionID
	return nil
}

// Delete removes a session. Deleting the active session selects the first
// remaining one.
func (r *Registry) Delete(sessionID string) error {
	if _, err := r.Find(sessionID); err != nil {
		return err
	}
	r.removeWhere(func(s *Session) bool { return s.ID == sessionID })
	return nil
}

func (r *Registry) removeWhere(match func(*Session) bool) []string {
	var removed []string
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if match(s) {
			removed = append(removed, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	r.sessions = kept

	if r.Active() == nil {
		r.activeID = ""
		if len(r.sessions) > 0 {
			r.activeID = r.sessions[0].ID
		}
	}
	return removed
}

func (r *Registry) Rename(sessionID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	s, err := r.Find(sessionID)
	if err != nil {
		return err
	}
	s.Name = name
	return nil
}

// ToggleFavorite flips the flag and returns its new value.
func (r *Registry) ToggleFavorite(sessionID string) (bool, error) {
	s, err := r.Find(sessionID)
	if err != nil {
		return false, err
	}
	s.IsFavorite = !s.IsFavorite
	return s.IsFavorite, nil
}

// ClearAll drops every session and the active id.
func (r *Registry) ClearAll() {
	r.sessions = nil
	r.activeID = ""
}

// ===== Groups =====

// GroupView is a group derived from its members.
type GroupView struct {
	group.Group
	SessionIDs []string `json:"sessionIds"`
	Favorite   bool     `json:"favorite"`
}

// Groups lists groups in order of first appearance. A group's name is
// taken from its first member.
func (r *Registry) Groups() []GroupView {
	var views []GroupView
	index := make(map[string]int)
	for _, s := range r.sessions {
		if !s.InGroup() {
			continue
		}
		i, ok := index[s.GroupID]
		if !ok {
			name := s.GroupName
			if name == "" {
				name = group.UnknownName
			}
			views = append(views, GroupView{Group: group.Group{ID: s.GroupID, Name: name}, Favorite: true})
			i = len(views) - 1
			index[s.GroupID] = i
		}
		views[i].SessionIDs = append(views[i].SessionIDs, s.ID)
		views[i].Favorite = views[i].Favorite && s.IsFavorite
	}
	return views
}

func (r *Registry) members(groupID string) []*Session {
	var out []*Session
	for _, s := range r.sessions {
		if groupID != "" && s.GroupID == groupID {
			out = append(out, s)
		}
	}
	return out
}

// Members returns the sessions tagged with groupID.
func (r *Registry) Members(groupID string) ([]*Session, error) {
	members := r.members(groupID)
	if len(members) == 0 {
		return nil, ErrGroupNotFound
	}
	return members, nil
}

func (r *Registry) groupNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range r.sessions {
		if s.GroupName == "" {
			continue
		}
		if _, ok := seen[s.GroupName]; ok {
			continue
		}
		seen[s.GroupName] = struct{}{}
		names = append(names, s.GroupName)
	}
	return names
}

func (r *Registry) newGroup(now time.Time) *group.Group {
	return group.New(r.groupNames(), now)
}

// CreateGroup tags both sessions with a fresh "Session Group N".
func (r *Registry) CreateGroup(sourceID, targetID string, now time.Time) (*group.Group, error) {
	if sourceID == targetID {
		return nil, ErrSelfGroup
	}
	source, err := r.Find(sourceID)
	if err != nil {
		return nil, err
	}
	target, err := r.Find(targetID)
	if err != nil {
		return nil, err
	}

	g := r.newGroup(now)
	for _, s := range []*Session{source, target} {
		s.GroupID = g.ID
		s.GroupName = g.Name
	}
	return g, nil
}

// MoveToGroup tags a session with groupID, copying the group's name from an
// existing member.
func (r *Registry) MoveToGroup(sessionID, groupID string) error {
	s, err := r.Find(sessionID)
	if err != nil {
		return err
	}
	name := group.UnknownName
	for _, m := range r.members(groupID) {
		if m.GroupName != "" {
			name = m.GroupName
			break
		}
	}
	s.GroupID = groupID
	s.GroupName = name
	return nil
}

// MoveToRoot clears a session's group tag.
func (r *Registry) MoveToRoot(sessionID string) error {
	s, err := r.Find(sessionID)
	if err != nil {
		return err
	}
	s.GroupID = ""
	s.GroupName = ""
	return nil
}

func (r *Registry) RenameGroup(groupID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	members, err := r.Members(groupID)
	if err != nil {
		return err
	}
	for _, s := range members {
		s.GroupName = name
	}
	return nil
}

// DeleteGroup deletes every member session and returns their ids.
func (r *Registry) DeleteGroup(groupID string) ([]string, error) {
	if _, err := r.Members(groupID); err != nil {
		return nil, err
	}
	return r.removeWhere(func(s *Session) bool { return s.GroupID == groupID }), nil
}

// ToggleGroupFavorite sets every member to the negation of "all members
// are favorites" and returns the new value.
func (r *Registry) ToggleGroupFavorite(groupID string) (bool, error) {
	members, err := r.Members(groupID)
	if err != nil {
		return false, err
	}
	allFav := true
	for _, s := range members {
		allFav = allFav && s.IsFavorite
	}
	for _, s := range members {
		s.IsFavorite = !allFav
	}
	return !allFav, nil
}

// ===== Import =====

// ImportSingle merges a backup into the active session when that session is
// empty, otherwise inserts it as a new active session. It returns the
// session that received the data and whether it was merged.
func (r *Registry) ImportSingle(b *SingleBackup, now time.Time) (*Session, bool) {
	name, ok := questionbank.ExtractTitle(b.Bundle.RawInput)
	if !ok || name == "" {
		name = "Imported " + now.Format("15:04:05")
	}
	bundle := b.Bundle.Clone()
	bundle.normalize()

	if active := r.Active(); active != nil && active.Data.IsEmpty() {
		active.Name = name
		active.LastModified = now.UnixMilli()
		active.Data = bundle
		return active, true
	}

	s := New(name, now)
	s.Data = bundle
	r.Insert(s)
	return s, false
}

// ImportBatch adds every session of the batch under one new group, with
// fresh ids, and re-sorts the list newest first.
func (r *Registry) ImportBatch(batch *SessionBatch, now time.Time) *group.Group {
	g := r.newGroup(now)
	for _, src := range batch.Sessions {
		s := *src
		createdAt := s.CreatedAt
		if createdAt == 0 {
			createdAt = now.UnixMilli()
			s.CreatedAt = createdAt
		}
		s.ID = id.ImportedSessionID(createdAt)
		s.GroupID = g.ID
		s.GroupName = g.Name
		s.Data = s.Data.Clone()
		s.Data.normalize()
		r.sessions = append(r.sessions, &s)
	}
	sort.SliceStable(r.sessions, func(i, j int) bool {
		return r.sessions[i].CreatedAt > r.sessions[j].CreatedAt
	})
	return g
}
