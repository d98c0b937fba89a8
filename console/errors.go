package console

import "fmt"

// UserError is a non-fatal, user-facing command failure. It is printed as
// "** <message> **".
type UserError struct {
	msg string
}

func (e *UserError) Error() string { return e.msg }

var (
	ErrClassNameMissing  = &UserError{msg: "class name missing"}
	ErrClassNotExist     = &UserError{msg: "class doesn't exist"}
	ErrInstanceIDMissing = &UserError{msg: "instance id missing"}
	ErrNoInstanceFound   = &UserError{msg: "no instance found"}
	ErrAttrNameMissing   = &UserError{msg: "attribute name missing"}
	ErrValueMissing      = &UserError{msg: "value missing"}
)

// SyntaxError is returned for lines that match neither notation.
type SyntaxError struct {
	Line string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unknown syntax %q: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("unknown syntax %q", e.Line)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// DictError is returned when a dictionary literal cannot be parsed.
type DictError struct {
	Pos int
	Msg string
}

func (e *DictError) Error() string {
	return fmt.Sprintf("dictionary literal at offset %d: %s", e.Pos, e.Msg)
}
