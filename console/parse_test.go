package console

import (
	"testing"

	"github.com/acksell/hbnb/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var valueComparer = cmp.Comparer(models.Value.Equal)

func TestParseKeyword(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantArgs []string
		wantDict *Dict
		wantErr  bool
	}{
		{
			name:     "command only",
			input:    "all",
			wantName: "all",
		},
		{
			name:     "class and id",
			input:    "show User 1234-abcd",
			wantName: "show",
			wantArgs: []string{"User", "1234-abcd"},
		},
		{
			name:     "extra whitespace",
			input:    "  show \t User   42  ",
			wantName: "show",
			wantArgs: []string{"User", "42"},
		},
		{
			name:     "quoted value keeps quotes and spaces",
			input:    `update User 42 first_name "Betty Holberton"`,
			wantName: "update",
			wantArgs: []string{"User", "42", "first_name", `"Betty Holberton"`},
		},
		{
			name:     "dictionary after id",
			input:    `update Place 42 {'max_guest': 4, "name": "Loft"}`,
			wantName: "update",
			wantArgs: []string{"Place", "42"},
			wantDict: &Dict{Pairs: []Pair{
				{Name: "max_guest", Value: models.Int(4)},
				{Name: "name", Value: models.String("Loft")},
			}},
		},
		{
			name:     "dictionary elsewhere is a plain argument",
			input:    `update Place 42 note {x}`,
			wantName: "update",
			wantArgs: []string{"Place", "42", "note", "{x}"},
		},
		{
			name:     "trailing arguments after dictionary ignored",
			input:    `update Place 42 {'a': 1} extra`,
			wantName: "update",
			wantArgs: []string{"Place", "42"},
			wantDict: &Dict{Pairs: []Pair{{Name: "a", Value: models.Int(1)}}},
		},
		{
			name:     "apostrophe inside bare token",
			input:    `update User 42 last_name O'Brien`,
			wantName: "update",
			wantArgs: []string{"User", "42", "last_name", "O'Brien"},
		},
		{
			name:     "quoted token continues after closing quote",
			input:    `update User 42 'a b'c d`,
			wantName: "update",
			wantArgs: []string{"User", "42", "'a b'c", "d"},
		},
		{
			name:    "unterminated quote",
			input:   `update User 42 name "Betty`,
			wantErr: true,
		},
		{
			name:    "unbalanced dictionary",
			input:   `update User 42 {'a': 1`,
			wantErr: true,
		},
		{
			name:    "malformed dictionary",
			input:   `update User 42 {'a' 1}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseKeyword(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, cmd.Name)
			assert.Equal(t, tt.wantArgs, cmd.Args)
			if diff := cmp.Diff(tt.wantDict, cmd.Dict, valueComparer); diff != "" {
				t.Errorf("dict mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDot(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantArgs []string
		wantDict *Dict
		wantErr  bool
	}{
		{
			name:     "no arguments",
			input:    "User.all()",
			wantName: "all",
			wantArgs: []string{"User"},
		},
		{
			name:     "empty class",
			input:    ".count()",
			wantName: "count",
			wantArgs: []string{""},
		},
		{
			name:     "id only",
			input:    `User.show("1234")`,
			wantName: "show",
			wantArgs: []string{"User", `"1234"`},
		},
		{
			name:     "attribute and value",
			input:    `City.update(42, max_guest, 98)`,
			wantName: "update",
			wantArgs: []string{"City", "42", "max_guest", "98"},
		},
		{
			name:     "quoted value with comma",
			input:    `User.update("42", "first_name", "Doe, John")`,
			wantName: "update",
			wantArgs: []string{"User", `"42"`, `"first_name"`, `"Doe, John"`},
		},
		{
			name:     "dictionary after comma",
			input:    `Place.update("42", {'latitude': 7.5, 'tags': ['a', "b"]})`,
			wantName: "update",
			wantArgs: []string{"Place", `"42"`},
			wantDict: &Dict{Pairs: []Pair{
				{Name: "latitude", Value: models.Float(7.5)},
				{Name: "tags", Value: models.List(models.String("a"), models.String("b"))},
			}},
		},
		{
			name:     "dictionary without comma",
			input:    `Place.update(42{'rooms': 2})`,
			wantName: "update",
			wantArgs: []string{"Place", "42"},
			wantDict: &Dict{Pairs: []Pair{{Name: "rooms", Value: models.Int(2)}}},
		},
		{
			name:    "missing closing paren",
			input:   "User.show(42",
			wantErr: true,
		},
		{
			name:    "no dot",
			input:   "show(42)",
			wantErr: true,
		},
		{
			name:    "class with spaces",
			input:   "My Model.all()",
			wantErr: true,
		},
		{
			name:    "malformed dictionary",
			input:   "Place.update(42, {'a': })",
			wantErr: true,
		},
		{
			name:    "text after dictionary",
			input:   "Place.update(42, {'a': 1} junk)",
			wantErr: true,
		},
		{
			name:     "apostrophe inside bare argument",
			input:    `User.update(42, last_name, O'Brien)`,
			wantName: "update",
			wantArgs: []string{"User", "42", "last_name", "O'Brien"},
		},
		{
			name:     "quoted argument after apostrophe",
			input:    `User.update(42, note, "it's, fine")`,
			wantName: "update",
			wantArgs: []string{"User", "42", "note", `"it's, fine"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseDot(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, cmd.Name)
			assert.Equal(t, tt.wantArgs, cmd.Args)
			if diff := cmp.Diff(tt.wantDict, cmd.Dict, valueComparer); diff != "" {
				t.Errorf("dict mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDict(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Pair
		wantErr bool
	}{
		{
			name:  "empty",
			input: "{}",
			want:  []Pair{},
		},
		{
			name:  "mixed scalars",
			input: `{'s': 'x', "i": -3, 'f': 2.5, 'e': 1e2}`,
			want: []Pair{
				{Name: "s", Value: models.String("x")},
				{Name: "i", Value: models.Int(-3)},
				{Name: "f", Value: models.Float(2.5)},
				{Name: "e", Value: models.Float(100)},
			},
		},
		{
			name:  "nested and trailing comma",
			input: `{ 'owner' : {'name': 'Ann', 'age': 30}, 'ids': [1, [2]], }`,
			want: []Pair{
				{Name: "owner", Value: models.Map(map[string]models.Value{
					"name": models.String("Ann"),
					"age":  models.Int(30),
				})},
				{Name: "ids", Value: models.List(models.Int(1), models.List(models.Int(2)))},
			},
		},
		{
			name:  "escapes",
			input: `{'q': 'it\'s', "d": "say \"hi\""}`,
			want: []Pair{
				{Name: "q", Value: models.String("it's")},
				{Name: "d", Value: models.String(`say "hi"`)},
			},
		},
		{
			name:  "bare key",
			input: `{max_guest: 3}`,
			want:  []Pair{{Name: "max_guest", Value: models.Int(3)}},
		},
		{
			name:  "repeated key kept in order",
			input: `{'a': 1, 'a': 2}`,
			want: []Pair{
				{Name: "a", Value: models.Int(1)},
				{Name: "a", Value: models.Int(2)},
			},
		},
		{name: "missing colon", input: `{'a' 1}`, wantErr: true},
		{name: "missing value", input: `{'a': }`, wantErr: true},
		{name: "unterminated string", input: `{'a': 'x}`, wantErr: true},
		{name: "unsupported literal", input: `{'a': True}`, wantErr: true},
		{name: "bad number", input: `{'a': 1.2.3}`, wantErr: true},
		{name: "missing separator", input: `{'a': 1 'b': 2}`, wantErr: true},
		{name: "unclosed", input: `{'a': 1`, wantErr: true},
		{name: "not a dictionary", input: `[1]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, n, err := ParseDict(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var dictErr *DictError
				assert.ErrorAs(t, err, &dictErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			if diff := cmp.Diff(tt.want, d.Pairs, valueComparer); diff != "" {
				t.Errorf("pairs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		raw  string
		want models.Value
	}{
		{"98", models.Int(98)},
		{"-4", models.Int(-4)},
		{"7.2", models.Float(7.2)},
		{"1e3", models.Float(1000)},
		{"hello", models.String("hello")},
		{`"Betty Holberton"`, models.String("Betty Holberton")},
		{`'98'`, models.String("98")},
		{`"'nested'"`, models.String("'nested'")},
		{`"unbalanced`, models.String(`"unbalanced`)},
		{"nan", models.String("nan")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := coerce(tt.raw)
			assert.True(t, tt.want.Equal(got), "got %s (%s), want %s (%s)", got, got.Kind(), tt.want, tt.want.Kind())
		})
	}
}
