package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Reserved attribute names.
const (
	FieldID        = "id"
	FieldClass     = "__class__"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// ErrProtectedField is returned when setting a reserved attribute.
var ErrProtectedField = errors.New("protected attribute")

// IsProtected reports whether name is reserved and cannot be set.
func IsProtected(name string) bool {
	switch name {
	case FieldID, FieldClass, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// Key returns the composite registry key for a class tag and id.
func Key(class, id string) string {
	return class + "." + id
}

// SplitKey splits a composite key at its first dot.
func SplitKey(key string) (class, id string, ok bool) {
	return strings.Cut(key, ".")
}

// Entity is an instance of a Class with an open attribute bag.
type Entity struct {
	class     *Class
	id        string
	createdAt time.Time
	updatedAt time.Time
	attrs     map[string]Value
}

func (e *Entity) Class() *Class        { return e.class }
func (e *Entity) ClassName() string    { return e.class.Name }
func (e *Entity) ID() string           { return e.id }
func (e *Entity) CreatedAt() time.Time { return e.createdAt }
func (e *Entity) UpdatedAt() time.Time { return e.updatedAt }

// Key returns the composite registry key of the entity.
func (e *Entity) Key() string { return Key(e.class.Name, e.id) }

// Get returns a stored attribute, falling back to the declared default.
func (e *Entity) Get(name string) (Value, bool) {
	if v, ok := e.attrs[name]; ok {
		return v, true
	}
	if f, ok := e.class.Field(name); ok {
		return f.Default, true
	}
	return Value{}, false
}

// Set stores an attribute. It does not touch the entity.
func (e *Entity) Set(name string, v Value) error {
	if IsProtected(name) {
		return fmt.Errorf("set %s: %w", name, ErrProtectedField)
	}
	if !v.IsValid() {
		return fmt.Errorf("set %s: invalid value", name)
	}
	e.attrs[name] = v
	return nil
}

// Touch records a modification at now. updated_at never moves backwards.
func (e *Entity) Touch(now time.Time) {
	if now.After(e.updatedAt) {
		e.updatedAt = now
	}
}

// AttrNames returns the stored attribute names: declared fields in
// declaration order first, then the rest in lexical order.
func (e *Entity) AttrNames() []string {
	names := make([]string, 0, len(e.attrs))
	seen := make(map[string]bool, len(e.attrs))
	for _, f := range e.class.Fields {
		if _, ok := e.attrs[f.Name]; ok {
			names = append(names, f.Name)
			seen[f.Name] = true
		}
	}
	var extra []string
	for name := range e.attrs {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// ToMap serializes the entity into its durable attribute mapping.
func (e *Entity) ToMap() map[string]Value {
	m := make(map[string]Value, len(e.attrs)+4)
	for k, v := range e.attrs {
		m[k] = v
	}
	m[FieldClass] = String(e.class.Name)
	m[FieldID] = String(e.id)
	m[FieldCreatedAt] = String(FormatTime(e.createdAt))
	m[FieldUpdatedAt] = String(FormatTime(e.updatedAt))
	return m
}

// String returns the canonical form "[Class] (id) {attrs}".
func (e *Entity) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] (%s) {", e.class.Name, e.id)
	fmt.Fprintf(&b, "%s: %s, ", Quote(FieldID), Quote(e.id))
	fmt.Fprintf(&b, "%s: %s, ", Quote(FieldCreatedAt), e.createdAt.String())
	fmt.Fprintf(&b, "%s: %s", Quote(FieldUpdatedAt), e.updatedAt.String())
	for _, name := range e.AttrNames() {
		fmt.Fprintf(&b, ", %s: %s", Quote(name), e.attrs[name].Repr())
	}
	b.WriteByte('}')
	return b.String()
}

// Restore rebuilds an entity of class c from a durable attribute mapping.
// The id and timestamps are taken as stored; the class marker is dropped.
func (c *Class) Restore(m map[string]Value) (*Entity, error) {
	id, err := stringAttr(m, FieldID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("restore %s: empty id", c.Name)
	}
	e := &Entity{class: c, id: id, attrs: make(map[string]Value, len(m))}
	if e.createdAt, err = timeAttr(m, FieldCreatedAt); err != nil {
		return nil, err
	}
	if e.updatedAt, err = timeAttr(m, FieldUpdatedAt); err != nil {
		return nil, err
	}
	if e.updatedAt.Before(e.createdAt) {
		return nil, fmt.Errorf("restore %s: %s precedes %s", Key(c.Name, id), FieldUpdatedAt, FieldCreatedAt)
	}
	for k, v := range m {
		if IsProtected(k) {
			continue
		}
		if !v.IsValid() {
			return nil, fmt.Errorf("restore %s: attribute %s: invalid value", Key(c.Name, id), k)
		}
		e.attrs[k] = v
	}
	return e, nil
}

func stringAttr(m map[string]Value, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", fmt.Errorf("missing %s", name)
	}
	s, ok := v.Str()
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %s", name, v.Kind())
	}
	return s, nil
}

func timeAttr(m map[string]Value, name string) (time.Time, error) {
	s, err := stringAttr(m, name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}
