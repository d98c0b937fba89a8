// Package badgerstore persists the registry in a BadgerDB directory, one key
// per entity.
package badgerstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/acksell/hbnb/models"
	"github.com/acksell/hbnb/storage"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// DefaultPath is the database directory used when no path is configured.
const DefaultPath = "hbnb.badger"

// Options configures the BadgerDB store.
type Options struct {
	// Path to the database directory.
	Path string
	// InMemory keeps everything in memory; Path is ignored.
	InMemory bool
	// Logger receives badger's own log output. If nil, logging is disabled.
	Logger *zap.Logger
}

// Store is a storage.Backend backed by BadgerDB.
type Store struct {
	db *badger.DB
}

var _ storage.Backend = (*Store)(nil)

// New opens the BadgerDB database.
func New(opts Options) (*Store, error) {
	path := opts.Path
	if path == "" && !opts.InMemory {
		path = DefaultPath
	}
	badgerOpts := badger.DefaultOptions(path)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}

	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(newLogger(opts.Logger))
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load scans the object prefix in key order, which is insertion order.
func (s *Store) Load(ctx context.Context, classes *models.Registry) ([]*models.Entity, error) {
	var out []*models.Entity
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = objectPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(objectPrefix); it.ValidForPrefix(objectPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, key, err := decodeKey(it.Item().Key())
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrMalformed, err)
			}

			var attrs map[string]models.Value
			if err := it.Item().Value(func(val []byte) error {
				item, err := DeserializeItem(val)
				if err != nil {
					return err
				}
				attrs, err = fromItem(item)
				return err
			}); err != nil {
				return fmt.Errorf("%w: %s: %w", storage.ErrMalformed, key, err)
			}

			ent, err := storage.Restore(classes, key, attrs)
			if err != nil {
				return err
			}
			out = append(out, ent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Save replaces every stored object in a single transaction.
func (s *Store) Save(ctx context.Context, entities []*models.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = objectPrefix
		opts.PrefetchValues = false

		var stale [][]byte
		it := txn.NewIterator(opts)
		for it.Seek(objectPrefix); it.ValidForPrefix(objectPrefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete stale object: %w", err)
			}
		}

		for i, ent := range entities {
			item, err := toItem(ent.ToMap())
			if err != nil {
				return fmt.Errorf("encode %s: %w", ent.Key(), err)
			}
			itemBytes, err := SerializeItem(item)
			if err != nil {
				return fmt.Errorf("serialize %s: %w", ent.Key(), err)
			}
			if err := txn.Set(encodeKey(uint64(i+1), ent.Key()), itemBytes); err != nil {
				return fmt.Errorf("set %s: %w", ent.Key(), err)
			}
		}
		return nil
	})
}

// logger bridges badger.Logger onto zap.
type logger struct {
	s *zap.SugaredLogger
}

func newLogger(l *zap.Logger) badger.Logger {
	return logger{s: l.Named("badger").Sugar()}
}

func (l logger) Errorf(format string, args ...any) {
	l.s.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l logger) Warningf(format string, args ...any) {
	l.s.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l logger) Infof(format string, args ...any) {
	l.s.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l logger) Debugf(format string, args ...any) {
	l.s.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
