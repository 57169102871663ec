package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrMalformed = errors.New("malformed stored value")
)

// Keys mirror the names the browser build kept in local storage, so a
// dump of either can be read by the other.
const (
	KeySessions      = "qm_sessions"
	KeyActiveSession = "qm_active_session_id"
	KeyAIConfig      = "qm_ai_config"

	// Single-session layout used before sessions existed.
	KeyLegacyRawInput   = "qm_raw_input"
	KeyLegacyHistory    = "qm_history"
	KeyLegacyConfig     = "qm_config"
	KeyLegacyNextSerial = "qm_next_serial"
	KeyLegacyUsedRandom = "qm_used_random"
	KeyLegacyAPIKey     = "qm_user_api_key"
)

// Backend is a string key/value store. Get returns ErrNotFound for an
// absent key.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
	Close() error
}
