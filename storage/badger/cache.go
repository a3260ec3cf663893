package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/zippoxer/codex-search/core"
	"github.com/zippoxer/codex-search/storage"
)

// SessionCache implements storage.SessionCache for BadgerDB.
type SessionCache struct {
	backend *Backend
}

var _ storage.SessionCache = (*SessionCache)(nil)

// NewSessionCache opens or creates a session cache in dir.
func NewSessionCache(dir string, logger *slog.Logger) (storage.SessionCache, error) {
	backend, err := OpenBackend(dir, false, logger)
	if err != nil {
		return nil, err
	}
	return newSessionCache(backend), nil
}

func newSessionCache(backend *Backend) *SessionCache {
	return &SessionCache{backend: backend}
}

// GetSession returns the session cached for stamp.Path.
func (c *SessionCache) GetSession(ctx context.Context, stamp storage.FileStamp) (*core.Session, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}

	var session *core.Session
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSessionKey(stamp.Path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			session, err = storage.UnmarshalSession(stamp, val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// PutSession stores session under stamp.Path.
func (c *SessionCache) PutSession(ctx context.Context, stamp storage.FileStamp, session *core.Session) error {
	if err := c.check(ctx); err != nil {
		return err
	}

	value, err := storage.MarshalSession(stamp, session)
	if err != nil {
		return err
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSessionKey(stamp.Path), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteSessions removes the entries for paths.
func (c *SessionCache) DeleteSessions(ctx context.Context, paths ...string) error {
	if err := c.check(ctx); err != nil {
		return err
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		for _, path := range paths {
			if err := tx.Delete(makeSessionKey(path)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountSessions returns the number of cached entries.
func (c *SessionCache) CountSessions(ctx context.Context) (int, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}

	count := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Close closes the underlying backend.
func (c *SessionCache) Close() error {
	if c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}

func (c *SessionCache) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}
