// Package sqlstore persists the registry in a SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/acksell/hbnb/models"
	"github.com/acksell/hbnb/storage"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultPath is the database file used when no path is configured.
const DefaultPath = "hbnb.db"

const schema = `CREATE TABLE IF NOT EXISTS objects (
	seq   INTEGER NOT NULL,
	key   TEXT    NOT NULL PRIMARY KEY,
	class TEXT    NOT NULL,
	body  TEXT    NOT NULL
)`

// Options configures a Store.
type Options struct {
	Path   string
	Logger *zap.Logger
}

// Store is a storage.Backend backed by one SQLite table.
type Store struct {
	sqlDB  *sql.DB
	logger *zap.Logger
}

var _ storage.Backend = (*Store)(nil)

// Open opens the SQLite database and creates the objects table.
func Open(ctx context.Context, opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = DefaultPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, logger: logger.With(zap.String("path", path))}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load reads every object ordered by sequence.
func (s *Store) Load(ctx context.Context, classes *models.Registry) ([]*models.Entity, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT key, class, body FROM objects ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var out []*models.Entity
	for rows.Next() {
		var key, class, body string
		if err := rows.Scan(&key, &class, &body); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		var attrs map[string]models.Value
		if err := json.Unmarshal([]byte(body), &attrs); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", storage.ErrMalformed, key, err)
		}
		ent, err := storage.Restore(classes, key, attrs)
		if err != nil {
			return nil, err
		}
		if ent.ClassName() != class {
			return nil, fmt.Errorf("%w: %s: class column %q", storage.ErrMalformed, key, class)
		}
		out = append(out, ent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return out, nil
}

// Save rewrites the objects table in one transaction.
func (s *Store) Save(ctx context.Context, entities []*models.Entity) (err error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM objects`); err != nil {
		return fmt.Errorf("clear objects: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO objects (seq, key, class, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ent := range entities {
		body, mErr := json.Marshal(ent.ToMap())
		if mErr != nil {
			err = fmt.Errorf("encode %s: %w", ent.Key(), mErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, i+1, ent.Key(), ent.ClassName(), string(body)); err != nil {
			return fmt.Errorf("insert %s: %w", ent.Key(), err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("wrote objects", zap.Int("entities", len(entities)))
	return nil
}
