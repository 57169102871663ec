package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/examai/backend/internal/ai"
	"github.com/examai/backend/internal/domain/examresult"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
	"github.com/examai/backend/internal/domain/session"
)

// Store reads and writes application state on top of a Backend. Values are
// JSON documents, one per key.
type Store struct {
	backend Backend
	log     zerolog.Logger
}

func New(backend Backend, log zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		log:     log.With().Str("component", "store").Logger(),
	}
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.backend.Set(ctx, key, string(data))
}

// ============================================================================
// Sessions
// ============================================================================

// LoadSessions returns ErrNotFound when no session map is stored and
// ErrMalformed when it cannot be decoded.
func (s *Store) LoadSessions(ctx context.Context) ([]*session.Session, error) {
	var sessions []*session.Session
	if err := s.getJSON(ctx, KeySessions, &sessions); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	kept := sessions[:0]
	for _, sess := range sessions {
		if sess == nil {
			continue
		}
		if sess.CreatedAt == 0 {
			sess.CreatedAt = sess.LastModified
		}
		if sess.CreatedAt == 0 {
			sess.CreatedAt = now
		}
		kept = append(kept, sess)
	}
	return kept, nil
}

func (s *Store) LoadActiveID(ctx context.Context) (string, error) {
	return s.backend.Get(ctx, KeyActiveSession)
}

// SaveWorkspace writes the session list and the active id. The two writes
// are not atomic.
func (s *Store) SaveWorkspace(ctx context.Context, sessions []*session.Session, activeID string) error {
	if sessions == nil {
		sessions = []*session.Session{}
	}
	if err := s.setJSON(ctx, KeySessions, sessions); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	if err := s.backend.Set(ctx, KeyActiveSession, activeID); err != nil {
		return fmt.Errorf("save active session: %w", err)
	}
	return nil
}

// LoadLegacy reads the pre-session single-bundle layout. It reports false
// when there is no legacy bank text. Malformed legacy parts fall back to
// their defaults.
func (s *Store) LoadLegacy(ctx context.Context) (session.Bundle, bool, error) {
	bundle := session.NewBundle()

	raw, err := s.backend.Get(ctx, KeyLegacyRawInput)
	if errors.Is(err, ErrNotFound) || (err == nil && raw == "") {
		return bundle, false, nil
	}
	if err != nil {
		return bundle, false, err
	}
	bundle.RawInput = raw

	var history []examresult.ExamResult
	if err := s.getJSON(ctx, KeyLegacyHistory, &history); err == nil {
		bundle.History = history
	} else if !errors.Is(err, ErrNotFound) {
		s.log.Warn().Err(err).Msg("Ignoring legacy history")
	}

	var cfg practicesession.QuizConfig
	if err := s.getJSON(ctx, KeyLegacyConfig, &cfg); err == nil && cfg.Mode.Valid() {
		bundle.Config = cfg
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Warn().Err(err).Msg("Ignoring legacy config")
	}

	if v, err := s.backend.Get(ctx, KeyLegacyNextSerial); err == nil {
		if n, convErr := strconv.Atoi(v); convErr == nil {
			bundle.Progress.NextSerialIndex = n
		}
	}

	var used []int
	if err := s.getJSON(ctx, KeyLegacyUsedRandom, &used); err == nil && used != nil {
		bundle.Progress.UsedRandomIndices = used
	}

	if bundle.History == nil {
		bundle.History = []examresult.ExamResult{}
	}
	return bundle, true, nil
}

// ClearAll removes every stored key.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.backend.Clear(ctx)
}

// ============================================================================
// AI config
// ============================================================================

// LoadAIConfig returns the stored provider config. A legacy bare Gemini key
// is upgraded to a config. ErrNotFound means nothing is configured.
func (s *Store) LoadAIConfig(ctx context.Context) (*ai.Config, error) {
	var cfg ai.Config
	err := s.getJSON(ctx, KeyAIConfig, &cfg)
	if err == nil {
		return &cfg, nil
	}
	if errors.Is(err, ErrMalformed) {
		s.log.Warn().Err(err).Msg("Ignoring stored AI config")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	key, err := s.backend.Get(ctx, KeyLegacyAPIKey)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrNotFound
	}
	return &ai.Config{Provider: ai.ProviderGemini, APIKey: key, Model: ai.DefaultGeminiModel}, nil
}

// SaveAIConfig stores cfg and drops any legacy key.
func (s *Store) SaveAIConfig(ctx context.Context, cfg ai.Config) error {
	if err := s.setJSON(ctx, KeyAIConfig, cfg); err != nil {
		return err
	}
	return s.backend.Delete(ctx, KeyLegacyAPIKey)
}

func (s *Store) DeleteAIConfig(ctx context.Context) error {
	return s.backend.Delete(ctx, KeyAIConfig, KeyLegacyAPIKey)
}
