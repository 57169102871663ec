package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	practicesession "github.com/examai/backend/internal/domain/practice_session"
	"github.com/examai/backend/internal/domain/questionbank"
	"github.com/examai/backend/internal/domain/session"
	"github.com/examai/backend/internal/service"
	"github.com/examai/backend/internal/store"
)

// bank builds a titled bank of n questions whose answer is always ক.
func bank(title string, n int) string {
	blocks := make([]string, n)
	for i := range blocks {
		blocks[i] = fmt.Sprintf("Question %d | a%d | b%d | c%d | d%d | ক", i+1, i, i, i, i)
	}
	raw := strings.Join(blocks, " ###\n")
	if title != "" {
		raw = "***" + title + "***\n" + raw
	}
	return raw
}

// wrongLabel picks any label other than the correct one.
func wrongLabel(q questionbank.Question) string {
	for _, l := range questionbank.OptionLabels {
		if l != q.Answer {
			return l
		}
	}
	return ""
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	backend, err := store.NewSQLite(filepath.Join(t.TempDir(), "examai.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	st := store.New(backend, zerolog.Nop())
	t.Cleanup(func() { st.Close() })
	return st
}

func newWorkspace(t *testing.T, st *store.Store) *service.Workspace {
	t.Helper()
	c := &clock{t: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)}
	ws := service.NewWorkspace(st, zerolog.Nop(),
		service.WithRand(rand.New(rand.NewSource(7))),
		service.WithClock(c.now),
	)
	if err := ws.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return ws
}

func TestWorkspace_InitCreatesFirstSession(t *testing.T) {
	ws := newWorkspace(t, newStore(t))

	list := ws.Sessions()
	if len(list.Sessions) != 1 || list.Sessions[0].Name != "Session 1" {
		t.Fatalf("expected a fresh Session 1, got %+v", list.Sessions)
	}
	if list.ActiveID != list.Sessions[0].ID {
		t.Error("expected the fresh session to be active")
	}
}

func TestWorkspace_SessionsCreatedAtSameInstant(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	ws := service.NewWorkspace(newStore(t), zerolog.Nop(),
		service.WithClock(func() time.Time { return fixed }),
	)
	if err := ws.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	a, err := ws.CreateSession(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ws.CreateSession(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q twice", a.ID)
	}

	before := len(ws.Sessions().Sessions)
	if err := ws.DeleteSession(ctx, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := ws.Sessions()
	if len(list.Sessions) != before-1 {
		t.Fatalf("expected %d sessions after deleting one, got %d", before-1, len(list.Sessions))
	}
	found := false
	for _, s := range list.Sessions {
		found = found || s.ID == b.ID
	}
	if !found {
		t.Errorf("expected %s to survive deleting %s", b.ID, a.ID)
	}
}

func TestWorkspace_MigratesLegacyState(t *testing.T) {
	ctx := context.Background()
	backend, err := store.NewSQLite(filepath.Join(t.TempDir(), "legacy.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	_ = backend.Set(ctx, store.KeyLegacyRawInput, bank("Old", 3))
	_ = backend.Set(ctx, store.KeyLegacyNextSerial, "2")
	st := store.New(backend, zerolog.Nop())
	t.Cleanup(func() { st.Close() })

	ws := newWorkspace(t, st)

	state := ws.State()
	if len(state.Questions) != 3 || state.Bundle.Progress.NextSerialIndex != 2 {
		t.Errorf("expected legacy bank and progress, got %d questions / %+v", len(state.Questions), state.Bundle.Progress)
	}
	if _, err := st.LoadSessions(ctx); err != nil {
		t.Errorf("expected migrated sessions to be persisted, got %v", err)
	}
}

func TestWorkspace_SetRawInputAppliesSmartDefaults(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))

	state, err := ws.SetRawInput(ctx, bank("Physics", 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Title != "Physics" || len(state.Questions) != 10 {
		t.Errorf("unexpected parse %q / %d", state.Title, len(state.Questions))
	}
	if state.Bundle.Config.QuestionLimit != 10 {
		t.Errorf("expected limit capped to the bank size, got %d", state.Bundle.Config.QuestionLimit)
	}
	if state.Bundle.Config.TimeMinutes != practicesession.FlexInt(practicesession.TimeForLimit(10)) {
		t.Errorf("expected suggested time, got %d", state.Bundle.Config.TimeMinutes)
	}
}

func TestWorkspace_SetConfigRecomputesTime(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))
	_, _ = ws.SetRawInput(ctx, bank("", 50))

	cfg := ws.State().Bundle.Config
	cfg.QuestionLimit = 20
	state, err := ws.SetConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Bundle.Config.TimeMinutes != 12 {
		t.Errorf("expected 12 minutes for 20 questions, got %d", state.Bundle.Config.TimeMinutes)
	}

	cfg = state.Bundle.Config
	cfg.QuestionLimit = 30
	cfg.TimeMinutes = 45
	state, _ = ws.SetConfig(ctx, cfg)
	if state.Bundle.Config.TimeMinutes != 45 {
		t.Errorf("expected an explicit time to be kept, got %d", state.Bundle.Config.TimeMinutes)
	}
}

func TestWorkspace_ExamFlow(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))
	_, _ = ws.SetRawInput(ctx, bank("Chemistry", 5))

	attempt, err := ws.StartExam(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempt.Questions) != 5 || attempt.Label != "Exam 1" || attempt.ExamName != "Chemistry" {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if ws.State().Bundle.Progress.NextSerialIndex != 5 {
		t.Error("expected progress to advance on start")
	}

	for i, q := range attempt.Questions {
		label := wrongLabel(q)
		if i < 3 {
			label = q.Answer
		}
		if i == 4 {
			label = ""
		}
		if err := ws.Answer(i, label); err != nil {
			t.Fatalf("unexpected answer error: %v", err)
		}
	}
	if err := ws.Answer(9, "ক"); !errors.Is(err, service.ErrQuestionIndex) {
		t.Errorf("expected ErrQuestionIndex, got %v", err)
	}
	if err := ws.Answer(0, "x"); !errors.Is(err, service.ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel, got %v", err)
	}

	result, err := ws.Submit(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stats.Correct != 3 || result.Stats.Wrong != 1 || result.Stats.Skipped != 1 {
		t.Errorf("unexpected stats %+v", result.Stats)
	}
	if _, err := ws.Attempt(); !errors.Is(err, service.ErrNoActiveQuiz) {
		t.Error("expected the attempt to end on submit")
	}

	history := ws.History()
	if len(history.Results) != 1 || history.Results[0].Label != "1" || history.Results[0].Score != 2.75 {
		t.Errorf("unexpected history %+v", history.Results)
	}

	list := ws.Sessions()
	if list.Sessions[0].Name != "Chemistry" {
		t.Errorf("expected the session to be renamed after its first exam, got %q", list.Sessions[0].Name)
	}
}

func TestWorkspace_Retake(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))
	_, _ = ws.SetRawInput(ctx, bank("Bio", 4))

	_, _ = ws.StartExam(ctx)
	first, _ := ws.Submit(ctx)

	retake, err := ws.Retake(ctx, first.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retake.ParentExamID == nil || *retake.ParentExamID != first.ID || retake.Label != "Exam 1.1" {
		t.Fatalf("unexpected retake %+v", retake)
	}
	second, _ := ws.Submit(ctx)

	again, err := ws.Retake(ctx, second.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *again.ParentExamID != first.ID || again.Label != "Exam 1.2" {
		t.Errorf("expected a retake of a retake to link to the root, got %+v", again)
	}

	if _, err := ws.Retake(ctx, 42); !errors.Is(err, service.ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}

func TestWorkspace_SubmitAttemptIgnoresStaleID(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))
	_, _ = ws.SetRawInput(ctx, bank("", 3))

	old, _ := ws.StartExam(ctx)
	_ = ws.Abandon()
	_, _ = ws.StartExam(ctx)

	if _, err := ws.SubmitAttempt(ctx, old.ID); !errors.Is(err, service.ErrNoActiveQuiz) {
		t.Errorf("expected a stale attempt to be rejected, got %v", err)
	}
	if ws.AttemptID() == "" {
		t.Error("expected the newer attempt to keep running")
	}
}

func TestWorkspace_StartExamWithEmptyBank(t *testing.T) {
	ws := newWorkspace(t, newStore(t))

	if _, err := ws.StartExam(context.Background()); !errors.Is(err, practicesession.ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}
}

func TestWorkspace_UpdateResult(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))
	_, _ = ws.SetRawInput(ctx, bank("Math", 2))
	a, _ := ws.StartExam(ctx)
	_ = ws.Answer(0, wrongLabel(a.Questions[0]))
	r, _ := ws.Submit(ctx)

	half := 0.5
	name := "  Midterm  "
	entry, err := ws.UpdateResult(ctx, r.ID, &half, &name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.NegativeMark != 0.5 || entry.ExamName != "Midterm" || entry.Score != -0.5 {
		t.Errorf("unexpected entry %+v", entry)
	}

	bad := 0.3
	if _, err := ws.UpdateResult(ctx, r.ID, &bad, nil); err == nil {
		t.Error("expected an invalid negative mark to be rejected")
	}
}

func TestWorkspace_ResetClearsProgressAndHistory(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))
	_, _ = ws.SetRawInput(ctx, bank("", 3))
	_, _ = ws.StartExam(ctx)
	_, _ = ws.Submit(ctx)

	state, err := ws.Reset(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state.Bundle.History) != 0 || state.Bundle.Progress.NextSerialIndex != 0 {
		t.Errorf("expected a clean slate, got %+v", state.Bundle)
	}
	if state.Bundle.RawInput == "" {
		t.Error("expected the bank text to survive a reset")
	}
}

func TestWorkspace_SwitchingSessionAbandonsQuiz(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))
	_, _ = ws.SetRawInput(ctx, bank("", 3))
	_, _ = ws.StartExam(ctx)

	created, err := ws.CreateSession(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != "Session 2" {
		t.Errorf("expected Session 2, got %q", created.Name)
	}
	if ws.AttemptID() != "" {
		t.Error("expected the quiz to be abandoned")
	}
	if ws.State().Bundle.RawInput != "" {
		t.Error("expected the new session's empty bundle to be live")
	}
}

func TestWorkspace_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	ws := newWorkspace(t, st)
	_, _ = ws.SetRawInput(ctx, bank("Geo", 2))
	second, _ := ws.CreateSession(ctx)
	_ = ws.RenameSession(ctx, second.ID, "Notes")

	reloaded := newWorkspace(t, st)
	list := reloaded.Sessions()
	if len(list.Sessions) != 2 || list.ActiveID != second.ID {
		t.Fatalf("unexpected reloaded list %+v", list)
	}
	if list.Sessions[0].Name != "Notes" {
		t.Errorf("expected the rename to persist, got %q", list.Sessions[0].Name)
	}
	if !strings.Contains(list.Sessions[1].Data.RawInput, "***Geo***") {
		t.Error("expected the first session's bank to persist")
	}
}

func TestWorkspace_Groups(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))
	a := ws.Sessions().ActiveID
	b, _ := ws.CreateSession(ctx)
	c, _ := ws.CreateSession(ctx)

	g, err := ws.CreateGroup(ctx, a, b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ws.MoveToGroup(ctx, c.ID, g.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	members, filename, err := ws.ExportGroup(g.ID)
	if err != nil || len(members) != 3 {
		t.Fatalf("expected three members, got %d / %v", len(members), err)
	}
	if filename != "GroupBackup_Session_Group_1.json" {
		t.Errorf("unexpected filename %q", filename)
	}

	removed, err := ws.DeleteGroup(ctx, g.ID)
	if err != nil || len(removed) != 3 {
		t.Fatalf("expected three removed sessions, got %v / %v", removed, err)
	}
	list := ws.Sessions()
	if len(list.Sessions) != 1 || list.Sessions[0].Name != "Session 1" {
		t.Errorf("expected a fresh session after deleting everything, got %+v", list.Sessions)
	}
}

func TestWorkspace_ImportSingleAndBatch(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t, newStore(t))

	single := fmt.Sprintf(`{"version":1,"timestamp":1,"rawInput":%q,"config":null,"progress":null,"history":[]}`, bank("Imported", 2))
	outcome, err := ws.Import(ctx, []byte(single))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != "single" || !outcome.Merged {
		t.Errorf("expected a merge into the empty active session, got %+v", outcome)
	}
	if len(ws.State().Questions) != 2 {
		t.Error("expected the imported bank to be live")
	}

	backup, _, err := ws.Backup(ws.Sessions().ActiveID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backup.Version != session.BackupVersion {
		t.Errorf("unexpected backup version %v", backup.Version)
	}

	all, filename := ws.ExportAll()
	if !strings.HasPrefix(filename, "ExamAi_Backup_") {
		t.Errorf("unexpected export filename %q", filename)
	}
	data, _ := json.Marshal(all)

	outcome, err = ws.Import(ctx, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != "batch" || outcome.Imported != 1 || outcome.Group == nil {
		t.Errorf("unexpected batch outcome %+v", outcome)
	}
	if got := len(ws.Sessions().Sessions); got != 2 {
		t.Errorf("expected two sessions after batch import, got %d", got)
	}

	if _, err := ws.Import(ctx, []byte(`{"foo":1}`)); !errors.Is(err, session.ErrInvalidImport) {
		t.Errorf("expected ErrInvalidImport, got %v", err)
	}
}

func TestWorkspace_ClearAll(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	ws := newWorkspace(t, st)
	_, _ = ws.SetRawInput(ctx, bank("", 2))
	_, _ = ws.CreateSession(ctx)

	if err := ws.ClearAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := ws.Sessions()
	if len(list.Sessions) != 1 || list.Sessions[0].Data.RawInput != "" {
		t.Errorf("expected a single empty session, got %+v", list.Sessions)
	}
}
