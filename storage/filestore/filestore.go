// Package filestore persists the registry as a single JSON document mapping
// composite keys to attribute mappings.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/acksell/hbnb/models"
	"github.com/acksell/hbnb/storage"
	"go.uber.org/zap"
)

// DefaultPath is the durable file used when no path is configured.
const DefaultPath = "file.json"

// Options configures a Store.
type Options struct {
	Path   string
	Logger *zap.Logger
}

// Store is a storage.Backend backed by one JSON file.
type Store struct {
	path   string
	logger *zap.Logger
}

var _ storage.Backend = (*Store)(nil)

// New creates a store for the file at opts.Path. The file is not touched
// until Load or Save.
func New(opts Options) *Store {
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger.With(zap.String("path", path))}
}

// Path returns the location of the durable file.
func (s *Store) Path() string { return s.path }

// Load reads the durable file. A missing file yields no entities.
func (s *Store) Load(ctx context.Context, classes *models.Registry) ([]*models.Entity, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("durable file absent, starting empty")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	records, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrMalformed, s.path, err)
	}
	out := make([]*models.Entity, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ent, err := storage.Restore(classes, rec.key, rec.attrs)
		if err != nil {
			return nil, err
		}
		out = append(out, ent)
	}
	return out, nil
}

// Save rewrites the durable file with entities, in order. The new content
// is written to a temporary file in the same directory and renamed over the
// old one.
func (s *Store) Save(ctx context.Context, entities []*models.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeDocument(entities)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.logger.Debug("wrote durable file", zap.Int("entities", len(entities)), zap.Int("bytes", len(data)))
	return nil
}

func (s *Store) Close() error { return nil }

type record struct {
	key   string
	attrs map[string]models.Value
}

// decodeDocument walks the top-level object token by token so entry order
// survives; a plain map decode would lose it.
func decodeDocument(data []byte) ([]record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var records []record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		var attrs map[string]models.Value
		if err := dec.Decode(&attrs); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if attrs == nil {
			return nil, fmt.Errorf("%s: expected object", key)
		}
		records = append(records, record{key: key, attrs: attrs})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after document")
	}
	return records, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func encodeDocument(entities []*models.Entity) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ent := range entities {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ent.Key())
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(ent.ToMap())
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ent.Key(), err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
