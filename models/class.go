package models

import (
	"math"
	"strconv"
	"sync"
)

// Field is a declared attribute of a class with its default value.
type Field struct {
	Name    string
	Default Value
}

// Class describes an entity variant: its tag and declared fields.
type Class struct {
	Name   string
	Fields []Field
}

// Field returns the declared field with the given name.
func (c *Class) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// New creates a fresh entity of this class.
func (c *Class) New(id Identity) *Entity {
	now := id.Now()
	return &Entity{
		class:     c,
		id:        id.NewID(),
		createdAt: now,
		updatedAt: now,
		attrs:     make(map[string]Value),
	}
}

// Conform converts v to the kind of the declared field name when that can
// be done without losing information. Undeclared names and untyped
// declarations return v unchanged.
func (c *Class) Conform(name string, v Value) Value {
	f, ok := c.Field(name)
	if !ok {
		return v
	}
	switch f.Default.Kind() {
	case KindString:
		switch v.Kind() {
		case KindInt:
			return String(strconv.FormatInt(v.i, 10))
		case KindFloat:
			return String(FormatFloat(v.f))
		}
	case KindInt:
		switch v.Kind() {
		case KindFloat:
			if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<53 {
				return Number(int64(v.f))
			}
		case KindString:
			if IsIntLiteral(v.s) {
				if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
					return Number(i)
				}
			}
		}
	case KindFloat:
		switch v.Kind() {
		case KindInt:
			return Number(float64(v.i))
		case KindString:
			if IsFloatLiteral(v.s) {
				if f, err := strconv.ParseFloat(v.s, 64); err == nil {
					return Number(f)
				}
			}
		}
	}
	return v
}

// Registry maps class tags to classes, preserving registration order.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
	order   []string
}

// NewRegistry creates a registry holding the given classes.
func NewRegistry(classes ...*Class) *Registry {
	r := &Registry{classes: make(map[string]*Class)}
	for _, c := range classes {
		r.Add(c)
	}
	return r
}

// Add registers c, replacing any class with the same tag.
func (r *Registry) Add(c *Class) *Class {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.classes[c.Name] = c
	return c
}

// Lookup returns the class registered under name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// Names returns the registered class tags in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
