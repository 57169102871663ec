package id

import (
	"crypto/rand"
	"fmt"
	"time"
)

// GenerateID creates a unique 16-character alphanumeric ID.
func GenerateID() string {
	return randomString(16)
}

// SessionID returns an id of the form session-<unix ms>-<suffix>. The
// suffix keeps sessions created in the same millisecond apart.
func SessionID(now time.Time) string {
	return fmt.Sprintf("session-%d-%s", now.UnixMilli(), randomString(5))
}

// ImportedSessionID returns a collision-resistant id for a session restored
// from a backup, keyed on its original creation time.
func ImportedSessionID(createdAt int64) string {
	return fmt.Sprintf("session-%d-%s", createdAt, randomString(5))
}

// GroupID returns an id of the form group-<unix ms>-<suffix>.
func GroupID(now time.Time) string {
	return fmt.Sprintf("group-%d-%s", now.UnixMilli(), randomString(4))
}

func randomString(n int) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}
	return string(b)
}
