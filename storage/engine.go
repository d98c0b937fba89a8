// Package storage holds the in-memory registry of entities and governs when
// it is written to a durable Backend.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/acksell/hbnb/models"
	"github.com/google/btree"
	"go.uber.org/zap"
)

var (
	// ErrMalformed is returned when the durable representation cannot be
	// turned back into entities.
	ErrMalformed = errors.New("malformed durable store")
	// ErrDuplicateID is returned when an id is already used by an entity of
	// another class.
	ErrDuplicateID = errors.New("id already registered")
	ErrNotFound    = errors.New("not found")
)

// Backend is a durable representation of the registry.
type Backend interface {
	// Load returns the stored entities in insertion order. A backend that
	// has never been written returns no entities and no error.
	Load(ctx context.Context, classes *models.Registry) ([]*models.Entity, error)
	// Save replaces the stored entities with the given ones.
	Save(ctx context.Context, entities []*models.Entity) error
	Close() error
}

// Options configures an Engine.
type Options struct {
	Backend Backend
	Classes *models.Registry
	Logger  *zap.Logger
}

// Engine maps composite keys to entities in insertion order.
type Engine struct {
	backend Backend
	classes *models.Registry
	logger  *zap.Logger

	byKey map[string]*slot
	byID  map[string]string
	order *btree.BTreeG[*slot]
	seq   uint64
}

type slot struct {
	seq    uint64
	entity *models.Entity
}

func less(l, r *slot) bool { return l.seq < r.seq }

// New creates an empty engine. Call Reload to populate it.
func New(opts Options) (*Engine, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("storage: backend is required")
	}
	if opts.Classes == nil {
		return nil, fmt.Errorf("storage: class registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		backend: opts.Backend,
		classes: opts.Classes,
		logger:  logger,
	}
	e.reset()
	return e, nil
}

// Open creates an engine and loads it from the backend.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := e.Reload(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) reset() {
	e.byKey = make(map[string]*slot)
	e.byID = make(map[string]string)
	e.order = btree.NewG(2, less)
	e.seq = 0
}

// Classes returns the class registry entities are restored through.
func (e *Engine) Classes() *models.Registry { return e.classes }

// Register inserts ent, or replaces the entity stored under the same
// composite key while keeping its position.
func (e *Engine) Register(ent *models.Entity) error {
	key := ent.Key()
	if other, ok := e.Lookup(ent.ID()); ok && other.Key() != key {
		return fmt.Errorf("register %s: %w (as %s)", key, ErrDuplicateID, other.Key())
	}
	if s, ok := e.byKey[key]; ok {
		s.entity = ent
		return nil
	}
	e.seq++
	s := &slot{seq: e.seq, entity: ent}
	e.byKey[key] = s
	e.byID[ent.ID()] = key
	e.order.ReplaceOrInsert(s)
	e.logger.Debug("registered entity", zap.String("key", key))
	return nil
}

// Get returns the entity stored under class and id.
func (e *Engine) Get(class, id string) (*models.Entity, bool) {
	s, ok := e.byKey[models.Key(class, id)]
	if !ok {
		return nil, false
	}
	return s.entity, true
}

// Lookup returns the entity with the given id, whatever its class.
func (e *Engine) Lookup(id string) (*models.Entity, bool) {
	key, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	return e.byKey[key].entity, true
}

// All returns the entities of class in insertion order. An empty class
// returns every entity.
func (e *Engine) All(class string) []*models.Entity {
	var out []*models.Entity
	e.order.Ascend(func(s *slot) bool {
		if class == "" || s.entity.ClassName() == class {
			out = append(out, s.entity)
		}
		return true
	})
	return out
}

// Count returns the number of entities of class, or of all entities when
// class is empty.
func (e *Engine) Count(class string) int {
	if class == "" {
		return len(e.byKey)
	}
	n := 0
	e.order.Ascend(func(s *slot) bool {
		if s.entity.ClassName() == class {
			n++
		}
		return true
	})
	return n
}

// Delete removes the entity stored under class and id.
func (e *Engine) Delete(class, id string) error {
	key := models.Key(class, id)
	s, ok := e.byKey[key]
	if !ok {
		return fmt.Errorf("delete %s: %w", key, ErrNotFound)
	}
	e.order.Delete(s)
	delete(e.byKey, key)
	delete(e.byID, id)
	e.logger.Debug("deleted entity", zap.String("key", key))
	return nil
}

// Save writes every entity, in order, to the backend.
func (e *Engine) Save(ctx context.Context) error {
	all := e.All("")
	if err := e.backend.Save(ctx, all); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	e.logger.Debug("saved registry", zap.Int("entities", len(all)))
	return nil
}

// Reload replaces the registry with the backend contents. On error the
// registry is left untouched.
func (e *Engine) Reload(ctx context.Context) error {
	loaded, err := e.backend.Load(ctx, e.classes)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	fresh := &Engine{backend: e.backend, classes: e.classes, logger: e.logger}
	fresh.reset()
	for _, ent := range loaded {
		if err := fresh.Register(ent); err != nil {
			return fmt.Errorf("load: %w: %w", ErrMalformed, err)
		}
	}
	e.byKey, e.byID, e.order, e.seq = fresh.byKey, fresh.byID, fresh.order, fresh.seq
	e.logger.Debug("loaded registry", zap.Int("entities", len(loaded)))
	return nil
}

// Close releases the backend.
func (e *Engine) Close() error {
	return e.backend.Close()
}
