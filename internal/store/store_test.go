package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/examai/backend/internal/ai"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
	"github.com/examai/backend/internal/domain/session"
	"github.com/examai/backend/internal/store"
)

func newSQLite(t *testing.T) *store.SQLiteBackend {
	t.Helper()
	backend, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func newStore(t *testing.T) (*store.Store, store.Backend) {
	t.Helper()
	backend := newSQLite(t)
	return store.New(backend, zerolog.Nop()), backend
}

func TestSQLiteBackend_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	backend := newSQLite(t)

	if _, err := backend.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := backend.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := backend.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("unexpected error on overwrite: %v", err)
	}
	if got, _ := backend.Get(ctx, "k"); got != "v2" {
		t.Errorf("expected v2, got %q", got)
	}

	if err := backend.Delete(ctx, "k", "never-set"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := backend.Get(ctx, "k"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected deleted key to be gone, got %v", err)
	}
}

func TestSQLiteBackend_Clear(t *testing.T) {
	ctx := context.Background()
	backend := newSQLite(t)
	_ = backend.Set(ctx, "a", "1")
	_ = backend.Set(ctx, "b", "2")

	if err := backend.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := backend.Get(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Error("expected every key to be cleared")
	}
}

func TestStore_SessionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	if _, err := s.LoadSessions(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on a fresh store, got %v", err)
	}

	sess := session.New("Session 1", time.UnixMilli(1000))
	sess.Data.RawInput = "Q | a | b | c | d | ক"
	sess.IsFavorite = true
	if err := s.SaveWorkspace(ctx, []*session.Session{sess}, sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := s.LoadSessions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != sess.ID || loaded[0].Data.RawInput != sess.Data.RawInput || !loaded[0].IsFavorite {
		t.Errorf("unexpected sessions %+v", loaded)
	}
	if active, _ := s.LoadActiveID(ctx); active != sess.ID {
		t.Errorf("expected active id %q, got %q", sess.ID, active)
	}
}

func TestStore_MalformedSessions(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	_ = backend.Set(ctx, store.KeySessions, "{not json")

	if _, err := s.LoadSessions(ctx); !errors.Is(err, store.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestStore_BackfillsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)
	_ = backend.Set(ctx, store.KeySessions, `[{"id":"a","name":"A","lastModified":500,"data":{"rawInput":"","config":{"timeMinutes":"15","questionLimit":"25","mode":"serial","shuffleOptions":true},"history":[],"progress":{"nextSerialIndex":0,"usedRandomIndices":[]}}}]`)

	loaded, err := s.LoadSessions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded[0].CreatedAt != 500 {
		t.Errorf("expected createdAt backfilled from lastModified, got %d", loaded[0].CreatedAt)
	}
	if loaded[0].Data.Config.TimeMinutes != 15 {
		t.Errorf("expected string numbers to decode, got %+v", loaded[0].Data.Config)
	}
}

func TestStore_LoadLegacy(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)

	if _, ok, err := s.LoadLegacy(ctx); ok || err != nil {
		t.Fatalf("expected no legacy state, got %v / %v", ok, err)
	}

	_ = backend.Set(ctx, store.KeyLegacyRawInput, "Q | a | b | c | d | ক")
	_ = backend.Set(ctx, store.KeyLegacyConfig, `{"timeMinutes":10,"questionLimit":5,"mode":"rand_limited","shuffleOptions":false}`)
	_ = backend.Set(ctx, store.KeyLegacyNextSerial, "3")
	_ = backend.Set(ctx, store.KeyLegacyUsedRandom, "[1,2]")
	_ = backend.Set(ctx, store.KeyLegacyHistory, "garbage")

	bundle, ok, err := s.LoadLegacy(ctx)
	if err != nil || !ok {
		t.Fatalf("expected legacy state, got %v / %v", ok, err)
	}
	if bundle.Config.Mode != practicesession.ModeRandomLimited || bundle.Config.QuestionLimit != 5 {
		t.Errorf("unexpected config %+v", bundle.Config)
	}
	if bundle.Progress.NextSerialIndex != 3 || len(bundle.Progress.UsedRandomIndices) != 2 {
		t.Errorf("unexpected progress %+v", bundle.Progress)
	}
	if bundle.History == nil || len(bundle.History) != 0 {
		t.Errorf("expected malformed history to fall back to empty, got %v", bundle.History)
	}
}

func TestStore_AIConfig(t *testing.T) {
	ctx := context.Background()
	s, backend := newStore(t)

	if _, err := s.LoadAIConfig(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_ = backend.Set(ctx, store.KeyLegacyAPIKey, "legacy-key")
	cfg, err := s.LoadAIConfig(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ai.ProviderGemini || cfg.APIKey != "legacy-key" || cfg.Model != ai.DefaultGeminiModel {
		t.Errorf("unexpected migrated config %+v", cfg)
	}

	custom := ai.Config{Provider: ai.ProviderCustom, BaseURL: "http://localhost:11434/v1", Model: "llama3"}
	if err := s.SaveAIConfig(ctx, custom); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := backend.Get(ctx, store.KeyLegacyAPIKey); !errors.Is(err, store.ErrNotFound) {
		t.Error("expected saving to drop the legacy key")
	}
	if cfg, _ := s.LoadAIConfig(ctx); cfg == nil || *cfg != custom {
		t.Errorf("expected %+v, got %+v", custom, cfg)
	}

	if err := s.DeleteAIConfig(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.LoadAIConfig(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

// Runs only when a Redis server is available.
func TestRedisBackend(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	backend, err := store.NewRedis(ctx, url, "examai-test:", zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() {
		_ = backend.Clear(ctx)
		backend.Close()
	})

	if err := backend.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := backend.Get(ctx, "k"); err != nil || got != "v" {
		t.Errorf("expected v, got %q / %v", got, err)
	}
	if err := backend.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := backend.Get(ctx, "k"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
}
