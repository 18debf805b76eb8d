package evalcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/m-mizutani/goerr/v2"
)

// BadgerConfig holds settings for the BadgerDB-backed Store
type BadgerConfig struct {
	// Path is the directory for database files. Ignored when InMemory is
	// true.
	Path string

	// InMemory keeps all data in process memory, losing it on Close
	InMemory bool

	// SyncWrites makes every write wait for fsync
	SyncWrites bool

	// GCDiscardRatio is the minimum garbage ratio before a value log file
	// is rewritten during Sweep
	GCDiscardRatio float64

	// Logger receives BadgerDB's internal log output. Internal logging is
	// disabled when nil.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns settings for persistent production use
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCDiscardRatio: 0.5,
	}
}

// BadgerStore is a Store on an embedded BadgerDB. Entries carry a native
// TTL, so Sweep only reclaims value log space instead of scanning keys.
type BadgerStore struct {
	db       *badger.DB
	inMemory bool
	gcRatio  float64
}

var _ Store = &BadgerStore{}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, goerr.New("path is required for a persistent cache store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open cache database", goerr.V("path", cfg.Path))
	}

	ratio := cfg.GCDiscardRatio
	if ratio <= 0 {
		ratio = 0.5
	}

	return &BadgerStore{
		db:       db,
		inMemory: cfg.InMemory,
		gcRatio:  ratio,
	}, nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to read cache entry", goerr.V("key", key))
	}

	return value, true, nil
}

func (s *BadgerStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to write cache entry", goerr.V("key", key))
	}

	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete cache entry", goerr.V("key", key))
	}

	return nil
}

func (s *BadgerStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	removed := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			key := it.Item().KeyCopy(nil)
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to delete cache entries", goerr.V("prefix", prefix))
	}

	return removed, nil
}

// Sweep rewrites value log files once their garbage exceeds the configured
// ratio. Expired keys are already invisible to readers through the native
// TTL, so the return value is always 0.
func (s *BadgerStore) Sweep(ctx context.Context) (int, error) {
	if s.inMemory {
		return 0, nil
	}

	for {
		err := s.db.RunValueLogGC(s.gcRatio)
		if err == badger.ErrNoRewrite {
			return 0, nil
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to run cache garbage collection")
		}
	}
}

func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close cache database")
	}
	return nil
}
