package storage

import (
	"fmt"

	"github.com/acksell/hbnb/models"
)

// Restore rebuilds the entity stored under key from its attribute mapping.
// The class marker selects the class, and key must match the restored
// entity. Every failure wraps ErrMalformed.
func Restore(classes *models.Registry, key string, attrs map[string]models.Value) (*models.Entity, error) {
	keyClass, _, ok := models.SplitKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: key %q is not <class>.<id>", ErrMalformed, key)
	}
	marker, ok := attrs[models.FieldClass]
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing %s", ErrMalformed, key, models.FieldClass)
	}
	name, ok := marker.Str()
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s is not a string", ErrMalformed, key, models.FieldClass)
	}
	if name != keyClass {
		return nil, fmt.Errorf("%w: %s: %s is %q", ErrMalformed, key, models.FieldClass, name)
	}
	class, ok := classes.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown class %q", ErrMalformed, key, name)
	}
	ent, err := class.Restore(attrs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, key, err)
	}
	if ent.Key() != key {
		return nil, fmt.Errorf("%w: key %s does not match entity %s", ErrMalformed, key, ent.Key())
	}
	return ent, nil
}
