package cif

import "strconv"

// TokenType represents the type of a lexical token in CIF.
type TokenType int

const (
	TokenEOF TokenType = iota

	// Reserved words.
	TokenLoop   // loop_
	TokenStop   // stop_
	TokenGlobal // global_

	// Headers.
	TokenData    // data_<name>.
	TokenSave    // save_<name>.
	TokenSaveEnd // save_ alone, closes a save frame.

	// Tag name, always starting with '_'.
	TokenTag

	// Value tokens.
	TokenNumber       // Numeric literal, uncertainty digits spliced in.
	TokenString       // Quoted, multi-line or bare string.
	TokenQuestionMark // ? (unknown value).
	TokenDot          // . (inapplicable value).
)

// Token represents a lexical token from CIF input. Value holds the text of
// Tag, String, Data and Save tokens and Number the payload of Number tokens.
// The text is owned by the token: it is copied out of the input buffer.
type Token struct {
	Type   TokenType
	Value  string
	Number float64
	Line   int // Line number (1-based) where the token ends.
}

// String returns the token as it would be written in a CIF file.
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "<eof>"
	case TokenLoop:
		return "loop_"
	case TokenStop:
		return "stop_"
	case TokenGlobal:
		return "global_"
	case TokenData:
		return "data_" + t.Value
	case TokenSave:
		return "save_" + t.Value
	case TokenSaveEnd:
		return "save_"
	case TokenTag, TokenString:
		return t.Value
	case TokenNumber:
		return strconv.FormatFloat(t.Number, 'g', -1, 64)
	case TokenQuestionMark:
		return "?"
	case TokenDot:
		return "."
	default:
		return "Unknown(" + strconv.Itoa(int(t.Type)) + ")"
	}
}

// isValue returns true if the token can be used as a data value.
func (t Token) isValue() bool {
	switch t.Type {
	case TokenNumber, TokenString, TokenQuestionMark, TokenDot:
		return true
	}
	return false
}

// value converts a value token to its Value.
func (t Token) value() (Value, error) {
	switch t.Type {
	case TokenDot, TokenQuestionMark:
		return Missing(), nil
	case TokenNumber:
		return Number(t.Number), nil
	case TokenString:
		return String(t.Value), nil
	default:
		return Value{}, &Error{Kind: MismatchError, Msg: "tried to access value data on a non-value token " + t.String()}
	}
}

// tag returns the tag name carried by a Tag token.
func (t Token) tag() (string, error) {
	if t.Type != TokenTag {
		return "", &Error{Kind: MismatchError, Msg: "tried to access tag data on a non-tag token " + t.String()}
	}
	return t.Value, nil
}
