package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/examai/backend/internal/domain/examresult"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
)

// ErrInvalidImport matches every ImportError.
var ErrInvalidImport = errors.New("invalid import")

// ImportError explains why a payload was rejected. Nothing is imported
// when it is returned.
type ImportError struct {
	Reason string
}

func (e *ImportError) Error() string {
	return "invalid import: " + e.Reason
}

func (e *ImportError) Is(target error) bool {
	return target == ErrInvalidImport
}

func importErr(format string, args ...any) error {
	return &ImportError{Reason: fmt.Sprintf(format, args...)}
}

// ImportPayload is either a *SingleBackup or a *SessionBatch.
type ImportPayload interface {
	importPayload()
}

// SingleBackup is one session bundle as written by a session backup.
type SingleBackup struct {
	Version   float64
	Timestamp int64
	Bundle    Bundle
}

// SessionBatch is an array of stored sessions from a full or group export.
type SessionBatch struct {
	Sessions []*Session
	// Skipped counts entries missing an id or data.
	Skipped int
}

func (*SingleBackup) importPayload() {}
func (*SessionBatch) importPayload() {}

var validate = validator.New(validator.WithRequiredStructEnabled())

type batchEntryProbe struct {
	ID   string          `json:"id" validate:"required"`
	Data json.RawMessage `json:"data" validate:"required"`
}

type backupProbe struct {
	Version   float64         `json:"version" validate:"required"`
	Timestamp int64           `json:"timestamp"`
	RawInput  *string         `json:"rawInput"`
	Config    json.RawMessage `json:"config"`
	Progress  json.RawMessage `json:"progress"`
	History   json.RawMessage `json:"history"`
}

// ParseImport classifies and validates an uploaded backup.
func ParseImport(data []byte) (ImportPayload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, importErr("empty file")
	}

	switch trimmed[0] {
	case '[':
		batch, err := parseBatch(trimmed)
		if err != nil {
			return nil, err
		}
		return batch, nil
	case '{':
		single, err := parseSingle(trimmed)
		if err != nil {
			return nil, err
		}
		return single, nil
	default:
		return nil, importErr("expected a JSON object or array")
	}
}

func parseBatch(data []byte) (*SessionBatch, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, importErr("malformed session list: %v", err)
	}

	batch := &SessionBatch{}
	for _, raw := range entries {
		var probe batchEntryProbe
		if err := json.Unmarshal(raw, &probe); err != nil || isNull(probe.Data) || validate.Struct(probe) != nil {
			batch.Skipped++
			continue
		}
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			batch.Skipped++
			continue
		}
		batch.Sessions = append(batch.Sessions, &s)
	}

	if len(batch.Sessions) == 0 {
		return nil, importErr("no sessions with an id and data")
	}
	return batch, nil
}

func parseSingle(data []byte) (*SingleBackup, error) {
	var probe backupProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, importErr("malformed backup: %v", err)
	}
	if err := validate.Struct(probe); err != nil {
		return nil, importErr("missing version")
	}
	if probe.RawInput == nil && isNull(probe.History) {
		return nil, importErr("backup has neither rawInput nor history")
	}

	bundle := NewBundle()
	if probe.RawInput != nil {
		bundle.RawInput = *probe.RawInput
	}
	if !isNull(probe.Config) {
		var cfg practicesession.QuizConfig
		if err := json.Unmarshal(probe.Config, &cfg); err != nil {
			return nil, importErr("malformed config: %v", err)
		}
		bundle.Config = cfg
	}
	if !isNull(probe.Progress) {
		var progress practicesession.Progress
		if err := json.Unmarshal(probe.Progress, &progress); err != nil {
			return nil, importErr("malformed progress: %v", err)
		}
		bundle.Progress = progress
	}
	if !isNull(probe.History) {
		var history []examresult.ExamResult
		if err := json.Unmarshal(probe.History, &history); err != nil {
			return nil, importErr("malformed history: %v", err)
		}
		bundle.History = history
	}
	bundle.normalize()

	return &SingleBackup{
		Version:   probe.Version,
		Timestamp: probe.Timestamp,
		Bundle:    bundle,
	}, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
