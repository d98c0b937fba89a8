package console

import (
	"errors"
	"fmt"
	"strings"
)

// Command is the notation-independent form of one input line.
type Command struct {
	// Name is the command keyword, e.g. "show".
	Name string
	// Args holds the positional arguments in order: class tag, id, then
	// any extra arguments. Quotes are kept as typed.
	Args []string
	// Dict is set when a dictionary literal follows the id.
	Dict *Dict
	// Line is the input line the command was parsed from.
	Line string
}

// Arg returns the i-th positional argument, or "" when absent.
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// dictArg is the position a dictionary literal takes: after class and id.
const dictArg = 2

var errNotDotCall = errors.New("not a dot call")

// ParseKeyword parses "<command> [<class>] [<id>] [<args>...]".
func ParseKeyword(line string) (Command, error) {
	toks, err := tokenize(line)
	if err != nil {
		return Command{}, err
	}
	if len(toks) == 0 {
		return Command{}, fmt.Errorf("empty line")
	}
	if toks[0].dict {
		return Command{}, fmt.Errorf("command expected, got dictionary literal")
	}
	cmd := Command{Name: toks[0].text, Line: line}
	for _, tok := range toks[1:] {
		if tok.dict && len(cmd.Args) == dictArg {
			d, n, err := ParseDict(tok.text)
			if err != nil {
				return Command{}, err
			}
			if rest := strings.TrimSpace(tok.text[n:]); rest != "" {
				return Command{}, fmt.Errorf("unexpected %q after dictionary literal", rest)
			}
			cmd.Dict = d
			break
		}
		cmd.Args = append(cmd.Args, tok.text)
	}
	return cmd, nil
}

// ParseDot parses "<class>.<command>(<args>)". The class may be empty.
func ParseDot(line string) (Command, error) {
	line = strings.TrimSpace(line)
	dot := strings.IndexByte(line, '.')
	if dot < 0 {
		return Command{}, errNotDotCall
	}
	open := strings.IndexByte(line[dot:], '(')
	if open < 0 || !strings.HasSuffix(line, ")") {
		return Command{}, errNotDotCall
	}
	open += dot
	class, method := line[:dot], line[dot+1:open]
	if class != "" && !isIdent(class) {
		return Command{}, fmt.Errorf("invalid class tag %q", class)
	}
	if !isIdent(method) {
		return Command{}, fmt.Errorf("invalid method %q", method)
	}

	cmd := Command{Name: method, Args: []string{class}, Line: line}
	raw := strings.TrimSpace(line[open+1 : len(line)-1])
	if raw == "" {
		return cmd, nil
	}

	i, err := indexTopLevel(raw, ",{")
	if err != nil {
		return Command{}, err
	}
	if i < 0 {
		cmd.Args = append(cmd.Args, raw)
		return cmd, nil
	}
	cmd.Args = append(cmd.Args, strings.TrimSpace(raw[:i]))

	rest := raw[i:]
	if rest[0] == ',' {
		rest = rest[1:]
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "{") {
		d, n, err := ParseDict(rest)
		if err != nil {
			return Command{}, err
		}
		if trailing := strings.TrimSpace(rest[n:]); trailing != "" {
			return Command{}, fmt.Errorf("unexpected %q after dictionary literal", trailing)
		}
		cmd.Dict = d
		return cmd, nil
	}
	parts, err := splitTopLevel(rest, ',')
	if err != nil {
		return Command{}, err
	}
	for _, part := range parts {
		cmd.Args = append(cmd.Args, strings.TrimSpace(part))
	}
	return cmd, nil
}

type token struct {
	text string
	dict bool
}

// tokenize splits a keyword-notation line on whitespace. A token opening
// with a quote runs to the matching quote and may contain spaces; quotes
// inside a bare token are ordinary bytes. A token starting with '{' runs to
// its balanced '}'.
func tokenize(line string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(line) {
		if isSpace(line[i]) {
			i++
			continue
		}
		if line[i] == '{' {
			end, err := scanBalanced(line, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{text: line[i:end], dict: true})
			i = end
			continue
		}
		start := i
		var quote byte
		if c := line[i]; c == '\'' || c == '"' {
			quote = c
			i++
		}
		for i < len(line) && (quote != 0 || !isSpace(line[i])) {
			if line[i] == quote {
				quote = 0
			}
			i++
		}
		if quote != 0 {
			return nil, fmt.Errorf("unterminated quote in %q", line[start:])
		}
		toks = append(toks, token{text: line[start:i]})
	}
	return toks, nil
}

// scanBalanced returns the index just past the bracket group opening at
// s[start].
func scanBalanced(s string, start int) (int, error) {
	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced %q", s[start])
}

// indexTopLevel returns the index of the first byte of chars found outside
// quotes and brackets, or -1.
func indexTopLevel(s, chars string) (int, error) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		if depth == 0 && strings.IndexByte(chars, c) >= 0 {
			return i, nil
		}
		switch c {
		case '\'', '"':
			if argStart(s, i) {
				quote = c
			}
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
	}
	if quote != 0 {
		return -1, fmt.Errorf("unterminated quote in %q", s)
	}
	return -1, nil
}

// argStart reports whether s[i] is the first byte of an argument or item.
func argStart(s string, i int) bool {
	for i--; i >= 0; i-- {
		switch c := s[i]; {
		case isSpace(c):
			continue
		case c == ',' || c == ':' || c == '{' || c == '[' || c == '(':
			return true
		default:
			return false
		}
	}
	return true
}

func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	for {
		i, err := indexTopLevel(s, string(sep))
		if err != nil {
			return nil, err
		}
		if i < 0 {
			return append(parts, s), nil
		}
		parts = append(parts, s[:i])
		s = s[i+1:]
	}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
