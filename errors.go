package cif

import "fmt"

// ErrorKind classifies errors returned by this package.
type ErrorKind int

const (
	// LexicalError reports malformed input text: a reserved leading
	// character in a bare value, an out of range number or an unterminated
	// string.
	LexicalError ErrorKind = iota + 1
	// SyntaxError reports tokens in the wrong place: a missing data_
	// header, an incomplete loop or a misplaced save frame.
	SyntaxError
	// KeyError reports a lookup of a tag that is not present.
	KeyError
	// MismatchError reports access to a value or token as the wrong kind.
	MismatchError
)

func (k ErrorKind) String() string {
	switch k {
	case LexicalError:
		return "lexical error"
	case SyntaxError:
		return "syntax error"
	case KeyError:
		return "key error"
	case MismatchError:
		return "mismatch error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the error type returned by every operation in this package.
type Error struct {
	Kind ErrorKind
	Line int    // Line of the failure, 0 when there is no input position.
	Tag  string // Requested tag for KeyError.
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error on line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, &cif.Error{Kind: cif.KeyError}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Tag == "" || t.Tag == e.Tag)
}
