package console

import (
	"fmt"

	"github.com/acksell/hbnb/models"
)

// Pair is one key/value entry of a dictionary literal.
type Pair struct {
	Name  string
	Value models.Value
}

// Dict is a parsed dictionary literal. Pairs keep source order; a repeated
// key appears once per occurrence.
type Dict struct {
	Pairs []Pair
}

// ParseDict parses the dictionary literal at the start of src, ignoring
// leading whitespace. It returns the number of bytes consumed.
//
// Grammar:
//
//	dict   = "{" [ pair { "," pair } [ "," ] ] "}"
//	pair   = key ":" value
//	key    = string | identifier
//	value  = string | number | dict | list
//	list   = "[" [ value { "," value } [ "," ] ] "]"
//	string = "'" ... "'" | '"' ... '"'
func ParseDict(src string) (*Dict, int, error) {
	p := &dictParser{src: src}
	p.skipSpace()
	pairs, err := p.object()
	if err != nil {
		return nil, p.pos, err
	}
	return &Dict{Pairs: pairs}, p.pos, nil
}

type dictParser struct {
	src string
	pos int
}

func (p *dictParser) errorf(format string, args ...any) error {
	return &DictError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *dictParser) eof() bool { return p.pos >= len(p.src) }

func (p *dictParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *dictParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *dictParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.pos++
	return nil
}

func (p *dictParser) object() ([]Pair, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	pairs := []Pair{}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return pairs, nil
		}
		key, err := p.key()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Name: key, Value: val})

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}
}

func (p *dictParser) list() (models.Value, error) {
	if err := p.expect('['); err != nil {
		return models.Value{}, err
	}
	var items []models.Value
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			return models.List(items...), nil
		}
		val, err := p.value()
		if err != nil {
			return models.Value{}, err
		}
		items = append(items, val)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
		default:
			return models.Value{}, p.errorf("expected ',' or ']'")
		}
	}
}

func (p *dictParser) key() (string, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.str()
	case isIdentStart(c):
		start := p.pos
		for !p.eof() && isIdentPart(p.peek()) {
			p.pos++
		}
		return p.src[start:p.pos], nil
	case p.eof():
		return "", p.errorf("expected key, got end of input")
	default:
		return "", p.errorf("expected key, got %q", c)
	}
}

func (p *dictParser) value() (models.Value, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '{':
		pairs, err := p.object()
		if err != nil {
			return models.Value{}, err
		}
		m := make(map[string]models.Value, len(pairs))
		for _, pair := range pairs {
			m[pair.Name] = pair.Value
		}
		return models.Map(m), nil
	case c == '[':
		return p.list()
	case c == '\'' || c == '"':
		s, err := p.str()
		if err != nil {
			return models.Value{}, err
		}
		return models.String(s), nil
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.number()
	case p.eof():
		return models.Value{}, p.errorf("expected value, got end of input")
	default:
		return models.Value{}, p.errorf("unsupported value starting with %q", c)
	}
}

func (p *dictParser) number() (models.Value, error) {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if !isDigit(c) && c != '-' && c != '+' && c != '.' && c != 'e' && c != 'E' {
			break
		}
		p.pos++
	}
	v, err := models.ParseNumber(p.src[start:p.pos])
	if err != nil {
		p.pos = start
		return models.Value{}, p.errorf("%v", err)
	}
	return v, nil
}

func (p *dictParser) str() (string, error) {
	quote := p.src[p.pos]
	start := p.pos
	p.pos++
	var out []byte
	for !p.eof() {
		c := p.src[p.pos]
		p.pos++
		switch {
		case c == quote:
			return string(out), nil
		case c == '\\' && !p.eof():
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\\', '\'', '"':
				out = append(out, esc)
			default:
				out = append(out, '\\', esc)
			}
		default:
			out = append(out, c)
		}
	}
	p.pos = start
	return "", p.errorf("unterminated string")
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
