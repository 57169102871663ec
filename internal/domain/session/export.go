package session

import (
	"regexp"
	"time"

	"github.com/examai/backend/internal/domain/examresult"
	practicesession "github.com/examai/backend/internal/domain/practice_session"
)

// BackupVersion is written into every single-session backup.
const BackupVersion = 1

var (
	filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9\x{0980}-\x{09FF}_-]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Backup is the single-session file format.
type Backup struct {
	Version   int                        `json:"version"`
	Timestamp int64                      `json:"timestamp"`
	RawInput  string                     `json:"rawInput"`
	Config    practicesession.QuizConfig `json:"config"`
	Progress  practicesession.Progress   `json:"progress"`
	History   []examresult.ExamResult    `json:"history"`
}

// NewBackup snapshots a session. The timestamp is the session's creation
// time.
func NewBackup(s *Session) Backup {
	data := s.Data.Clone()
	data.normalize()
	return Backup{
		Version:   BackupVersion,
		Timestamp: s.CreatedAt,
		RawInput:  data.RawInput,
		Config:    data.Config,
		Progress:  data.Progress,
		History:   data.History,
	}
}

// BackupFilename is ExamAi_<name>_<YYYY-MM-DD>_<HH-MM-SS>.json with every
// character outside ASCII alphanumerics, Bengali, '-' and '_' replaced.
func BackupFilename(name string, now time.Time) string {
	if name == "" {
		name = "Session"
	}
	safe := filenameUnsafe.ReplaceAllString(name, "_")
	return "ExamAi_" + safe + "_" + now.UTC().Format("2006-01-02") + "_" + now.Format("15-04-05") + ".json"
}

// GroupBackupFilename is GroupBackup_<name with whitespace runs as '_'>.json.
func GroupBackupFilename(name string) string {
	return "GroupBackup_" + whitespaceRun.ReplaceAllString(name, "_") + ".json"
}

// ExportFilename names a full export.
func ExportFilename(now time.Time) string {
	return "ExamAi_Backup_" + now.UTC().Format("2006-01-02") + ".json"
}
