package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/cartwise/storage"
)

// sequenceLease is how many ids a sequence reserves per disk write.
const sequenceLease = 100

// Backend owns the BadgerDB instance that holds request logs.
type Backend struct {
	db       *badger.DB
	inMemory bool
	logger   *slog.Logger
}

// BackendOption adjusts the BadgerDB options before the database opens.
type BackendOption func(*badger.Options)

// WithSyncWrites makes every commit wait for an fsync.
func WithSyncWrites(sync bool) BackendOption {
	return func(o *badger.Options) {
		o.SyncWrites = sync
	}
}

// WithValueLogFileSize caps the size of one value log file.
func WithValueLogFileSize(size int64) BackendOption {
	return func(o *badger.Options) {
		o.ValueLogFileSize = size
	}
}

// slogAdapter routes badger's printf-style logging into slog. Badger's info
// chatter is demoted to debug.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Errorf(format string, args ...any) {
	a.logger.Error(line(format, args))
}

func (a *slogAdapter) Warningf(format string, args ...any) {
	a.logger.Warn(line(format, args))
}

func (a *slogAdapter) Infof(format string, args ...any) {
	a.logger.Debug(line(format, args))
}

func (a *slogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(line(format, args))
}

func line(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

// OpenBackend opens the request-log database in dir, creating the directory
// when missing. With inMemory nothing touches disk and dir is ignored.
func OpenBackend(dir string, inMemory bool, opts ...BackendOption) (*Backend, error) {
	var bopts badger.Options
	if inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		bopts = badger.DefaultOptions(dir)
	}

	logger := slog.Default().With("component", "badger")
	bopts.Logger = &slogAdapter{logger: logger}
	// Request logs are small JSON documents
	bopts.Compression = options.None
	for _, opt := range opts {
		opt(&bopts)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening request log database: %w", err)
	}
	return &Backend{db: db, inMemory: inMemory, logger: logger}, nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: directory is required", storage.ErrInvalidPath)
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		info, err = os.Stat(dir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", storage.ErrInvalidPath, dir)
	}
	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn in a transaction that is discarded afterwards; write
// transactions must be committed by fn.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns the named id sequence.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), sequenceLease)
}

// CollectGarbage rewrites value log files until no file has at least
// discardRatio of stale data. Run it after pruning.
func (b *Backend) CollectGarbage(discardRatio float64) error {
	if b.inMemory {
		return nil
	}
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	rewritten := 0
	for {
		err := b.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return err
		}
		rewritten++
	}
	b.logger.Debug("value log garbage collected", "rewritten", rewritten)
	return nil
}
