// Package badger is the BadgerDB-backed record store. Each airman is one
// JSON value keyed by unique id, so replacing a person is a single Set and
// a reader never observes a partially written person.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = domain.ErrNotFound

// Backend wraps a BadgerDB instance and provides the record-store operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at path, creating the directory if
// needed. With inMemory set, path is ignored and nothing touches disk.
func OpenBackend(path string, inMemory bool, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", path)
		}
		opts = badger.DefaultOptions(path)
	}

	// Only warnings and errors from badger reach the service log.
	opts.Logger = warnOnly{&badgerLoggerAdapter{logger: logger.With("component", "badger")}}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Backend{db: db, logger: logger}, nil
}

type warnOnly struct{ badger.Logger }

func (warnOnly) Infof(string, ...any)  {}
func (warnOnly) Debugf(string, ...any) {}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// CheckReadiness reports whether the store is open.
func (b *Backend) CheckReadiness(_ context.Context) error {
	if b.db.IsClosed() {
		return errors.New("record store is closed")
	}
	return nil
}
