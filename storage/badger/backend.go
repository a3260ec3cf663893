package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const (
	// Entries are parsed sessions of a few KiB; small tables keep a cold
	// open fast.
	memTableSize     = 8 << 20
	valueLogFileSize = 32 << 20
	gcDiscardRatio   = 0.5
)

// Backend owns the badger handle behind a SessionCache.
type Backend struct {
	db       *badger.DB
	inMemory bool
	logger   *slog.Logger
}

// slogAdapter routes badger's printf-style logging into slog.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Errorf(msg string, items ...any) {
	a.logger.Error("badger: " + fmt.Sprintf(msg, items...))
}

func (a *slogAdapter) Warningf(msg string, items ...any) {
	a.logger.Warn("badger: " + fmt.Sprintf(msg, items...))
}

// Badger's info output is chatty; it goes to debug.
func (a *slogAdapter) Infof(msg string, items ...any) {
	a.logger.Debug("badger: " + fmt.Sprintf(msg, items...))
}

func (a *slogAdapter) Debugf(msg string, items ...any) {
	a.logger.Debug("badger: " + fmt.Sprintf(msg, items...))
}

// OpenBackend opens the cache database in dir, creating the directory when
// needed. With inMemory set dir is ignored. A nil logger means
// slog.Default().
func OpenBackend(dir string, inMemory bool, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !inMemory {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}

	db, err := badger.Open(cacheOptions(dir, inMemory, logger))
	if err != nil {
		return nil, fmt.Errorf("opening cache in %q: %w", dir, err)
	}

	return &Backend{
		db:       db,
		inMemory: inMemory,
		logger:   logger,
	}, nil
}

// cacheOptions trades durability for size: a lost write only costs a
// reparse.
func cacheOptions(dir string, inMemory bool, logger *slog.Logger) badger.Options {
	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	return opts.
		WithLogger(&slogAdapter{logger: logger}).
		WithCompression(options.None).
		WithNumVersionsToKeep(1).
		WithSyncWrites(false).
		WithMemTableSize(memTableSize).
		WithValueLogFileSize(valueLogFileSize)
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("cache path %s is not a directory", dir)
	}
	return nil
}

// Close compacts the value log once and closes the database.
func (b *Backend) Close() error {
	if !b.inMemory {
		err := b.db.RunValueLogGC(gcDiscardRatio)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
			b.logger.Warn("error compacting session cache", "err", err)
		}
	}
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes fn within a transaction, read-write when isWrite is set.
// The transaction is discarded unless fn commits it.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}
