package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/constraints"
)

// Kind is the type of an attribute value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a typed attribute value. The zero Value is invalid.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	m    map[string]Value
	l    []Value
}

// String creates a string Value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Int creates an integer Value.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float creates a floating-point Value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Numeric is a constraint for all numeric types.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Number creates a Value from any numeric type. Floating-point types
// produce a float Value, everything else an integer Value.
func Number[T Numeric](v T) Value {
	switch n := any(v).(type) {
	case float32:
		return Float(float64(n))
	case float64:
		return Float(n)
	default:
		return Int(int64(v))
	}
}

// Map creates a nested mapping Value. The map is copied.
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// List creates a list Value.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, l: cp}
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) IntVal() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) FloatVal() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// MapVal returns a copy of the nested mapping.
func (v Value) MapVal() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return Map(v.m).m, true
}

// ListVal returns a copy of the list items.
func (v Value) ListVal() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return List(v.l...).l, true
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, a := range v.m {
			b, ok := o.m[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	case KindList:
		if len(v.l) != len(o.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(o.l[i]) {
				return false
			}
		}
		return true
	}
	return true
}

// FromInterface converts a decoded document value into a Value.
// json.Number values keep their integer or float kind.
func FromInterface(in any) (Value, error) {
	switch x := in.(type) {
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case json.Number:
		return ParseNumber(x.String())
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case time.Time:
		return String(FormatTime(x)), nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			val, err := FromInterface(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = val
		}
		return Value{kind: KindMap, m: m}, nil
	case []any:
		l := make([]Value, len(x))
		for i, item := range x {
			val, err := FromInterface(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			l[i] = val
		}
		return Value{kind: KindList, l: l}, nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute value type %T", in)
	}
}

var (
	intLiteral   = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatLiteral = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// IsIntLiteral reports whether s is a plain decimal integer.
func IsIntLiteral(s string) bool { return intLiteral.MatchString(s) }

// IsFloatLiteral reports whether s is a decimal number literal. Integer
// literals also match.
func IsFloatLiteral(s string) bool { return floatLiteral.MatchString(s) }

// ErrNumberRange is returned by ParseNumber for an integer literal that does
// not fit in 64 bits.
var ErrNumberRange = errors.New("integer literal out of range")

// ParseNumber parses a decimal literal into an int Value when it has no
// fraction or exponent, and a float Value otherwise. Integer literals that
// overflow int64 are rejected with ErrNumberRange rather than narrowed.
func ParseNumber(s string) (Value, error) {
	if IsIntLiteral(s) {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse number %q: %w", s, ErrNumberRange)
		}
		return Number(i), nil
	}
	if !IsFloatLiteral(s) {
		return Value{}, fmt.Errorf("invalid number %q", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("parse number %q: %w", s, err)
	}
	return Number(f), nil
}

// FormatFloat renders f so that it always reads back as a float: integral
// values keep a trailing ".0".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return nil, fmt.Errorf("unsupported float value %v", v.f)
		}
		return []byte(FormatFloat(v.f)), nil
	case KindMap:
		return json.Marshal(v.m)
	case KindList:
		return json.Marshal(v.l)
	default:
		return nil, fmt.Errorf("marshal invalid value")
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Repr renders the value for the canonical entity string.
func (v Value) Repr() string {
	var b strings.Builder
	v.writeRepr(&b)
	return b.String()
}

func (v Value) writeRepr(b *strings.Builder) {
	switch v.kind {
	case KindString:
		b.WriteString(Quote(v.s))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(FormatFloat(v.f))
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Quote(k))
			b.WriteString(": ")
			v.m[k].writeRepr(b)
		}
		b.WriteByte('}')
	case KindList:
		b.WriteByte('[')
		for i, item := range v.l {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeRepr(b)
		}
		b.WriteByte(']')
	default:
		b.WriteString("<invalid>")
	}
}

func (v Value) String() string { return v.Repr() }

var (
	quoteReplacer       = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\t", `\t`)
	doubleQuoteReplacer = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`)
)

// Quote wraps s in single quotes, or in double quotes when s contains a
// single quote and no double quote. Escapes keep the result on one line.
func Quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + doubleQuoteReplacer.Replace(s) + `"`
	}
	return "'" + quoteReplacer.Replace(s) + "'"
}
