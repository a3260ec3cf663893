package storage

import (
	"context"
	"time"

	"github.com/zippoxer/codex-search/core"
)

// FileStamp identifies one version of a session file as parsed with a given
// preview length. A cached session is only valid for an identical stamp.
type FileStamp struct {
	Path         string
	ModTime      time.Time
	Size         int64
	PreviewChars int
}

// Matches reports whether two stamps describe the same parse.
func (s FileStamp) Matches(other FileStamp) bool {
	return s.Path == other.Path &&
		s.ModTime.Equal(other.ModTime) &&
		s.Size == other.Size &&
		s.PreviewChars == other.PreviewChars
}

// SessionCache stores parsed sessions keyed by file path.
// Implementations must be thread-safe and support concurrent access.
type SessionCache interface {
	// GetSession returns the session cached for stamp.Path.
	// Returns ErrNotFound when no entry exists and ErrStale when the entry
	// was written for a different stamp.
	GetSession(ctx context.Context, stamp FileStamp) (*core.Session, error)

	// PutSession stores session under stamp.Path, replacing any previous entry.
	PutSession(ctx context.Context, stamp FileStamp, session *core.Session) error

	// DeleteSessions removes the entries for paths. Missing paths are ignored.
	DeleteSessions(ctx context.Context, paths ...string) error

	// CountSessions returns the number of cached entries.
	CountSessions(ctx context.Context) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
