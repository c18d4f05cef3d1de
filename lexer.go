package cif

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// lexer tokenizes CIF input held in a single in-memory buffer.
type lexer struct {
	data []byte // The whole input.
	pos  int    // Current position in data.
	line int    // Current line number (1-based).
}

// reservedWords are matched case-insensitively against the start of every
// bare word. Entries with prefix set match any word beginning with them;
// the remainder is the block or frame name for data_ and save_.
var reservedWords = []struct {
	word   []byte
	typ    TokenType
	prefix bool
}{
	{[]byte("data_"), TokenData, true},
	{[]byte("save_"), TokenSave, true},
	{[]byte("loop_"), TokenLoop, true},
	{[]byte("stop_"), TokenStop, true},
	{[]byte("global_"), TokenGlobal, false},
}

// newLexer creates a new lexer over data. The lexer never modifies data.
func newLexer(data []byte) *lexer {
	return &lexer{data: data, line: 1}
}

// next scans and returns the next token. Once the input is exhausted every
// call returns an EOF token.
func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	if l.done() {
		return Token{Type: TokenEOF, Line: l.line}, nil
	}

	switch c := l.data[l.pos]; {
	case c == '\'' || c == '"':
		return l.scanQuotedString()
	case c == ';' && l.previousIsEOL():
		return l.scanTextField()
	default:
		return l.scanWord()
	}
}

// done reports whether the whole input has been consumed.
func (l *lexer) done() bool {
	return l.pos >= len(l.data)
}

// advance consumes one byte and keeps the line counter up to date. A "\r\n"
// pair counts as a single line ending, a lone '\r' as one.
func (l *lexer) advance() byte {
	if l.done() {
		return 0
	}

	c := l.data[l.pos]
	l.pos++

	switch c {
	case '\n':
		l.line++
	case '\r':
		if l.done() || l.data[l.pos] != '\n' {
			l.line++
		}
	}

	return c
}

// previousIsEOL reports whether the current byte starts a line.
func (l *lexer) previousIsEOL() bool {
	return l.pos == 0 || isEOL(l.data[l.pos-1])
}

// nextIsSpace reports whether the byte after the current one is whitespace
// or the end of input.
func (l *lexer) nextIsSpace() bool {
	return l.pos+1 >= len(l.data) || isWhitespace(l.data[l.pos+1])
}

// skipSpaceAndComments skips whitespace and '#' comments up to the next token.
func (l *lexer) skipSpaceAndComments() {
	for !l.done() {
		c := l.data[l.pos]
		switch {
		case isWhitespace(c):
			l.advance()
		case c == '#':
			for !l.done() && !isEOL(l.data[l.pos]) {
				l.advance()
			}
		default:
			return
		}
	}
}

// scanQuotedString scans a single or double quoted string. The closing
// quote must be followed by whitespace or the end of input; any other
// quote character is part of the string. There are no escapes.
func (l *lexer) scanQuotedString() (Token, error) {
	startLine := l.line
	quote := l.advance()
	start := l.pos

	for !l.done() {
		if l.data[l.pos] == quote && l.nextIsSpace() {
			str := string(l.data[start:l.pos])
			l.advance()
			return Token{Type: TokenString, Value: str, Line: l.line}, nil
		}
		l.advance()
	}

	return Token{}, l.errorf(LexicalError, "unterminated quoted string starting on line %d", startLine)
}

// scanTextField scans a multi-line string opened by a ';' at the start of a
// line. It ends at the next ';' at the start of a line, which is consumed.
func (l *lexer) scanTextField() (Token, error) {
	startLine := l.line
	l.advance() // Consume opening ';'.
	start := l.pos

	for !l.done() {
		if l.data[l.pos] == ';' && l.previousIsEOL() {
			str := string(l.data[start:l.pos])
			l.advance()
			return Token{Type: TokenString, Value: str, Line: l.line}, nil
		}
		l.advance()
	}

	return Token{}, l.errorf(LexicalError, "unterminated text field starting on line %d", startLine)
}

// scanWord scans a whitespace delimited word: a reserved word, a header, a
// tag or a bare value.
func (l *lexer) scanWord() (Token, error) {
	start := l.pos
	l.advance()
	for !l.done() && isWordChar(l.data[l.pos]) {
		l.advance()
	}
	word := l.data[start:l.pos]

	for _, rw := range reservedWords {
		if rw.prefix {
			if len(word) < len(rw.word) || !bytes.EqualFold(word[:len(rw.word)], rw.word) {
				continue
			}
		} else if !bytes.EqualFold(word, rw.word) {
			continue
		}

		tk := Token{Type: rw.typ, Line: l.line}
		switch rw.typ {
		case TokenData:
			tk.Value = string(word[len(rw.word):])
		case TokenSave:
			if len(word) == len(rw.word) {
				tk.Type = TokenSaveEnd
			} else {
				tk.Value = string(word[len(rw.word):])
			}
		}
		return tk, nil
	}

	return l.valueToken(word)
}

// valueToken classifies a bare word which is not a reserved word.
func (l *lexer) valueToken(word []byte) (Token, error) {
	if len(word) == 1 {
		switch word[0] {
		case '?':
			return Token{Type: TokenQuestionMark, Line: l.line}, nil
		case '.':
			return Token{Type: TokenDot, Line: l.line}, nil
		}
	}

	c := word[0]
	if c == '_' {
		tag := string(word)
		if !IsTagName(tag) {
			return Token{}, l.errorf(LexicalError, "invalid tag name '%s'", tag)
		}
		return Token{Type: TokenTag, Value: tag, Line: l.line}, nil
	}

	if isDigit(c) || c == '+' || c == '-' || c == '.' {
		num, ok, err := l.parseNumber(word)
		if err != nil {
			return Token{}, err
		}
		if ok {
			return Token{Type: TokenNumber, Number: num, Line: l.line}, nil
		}
	}

	if c == '$' || c == '[' || c == ']' {
		return Token{}, l.errorf(LexicalError,
			"invalid string value '%s': '%c' is not allowed as the first character of unquoted strings",
			word, c,
		)
	}

	return Token{Type: TokenString, Value: string(word), Line: l.line}, nil
}

// parseNumber parses a numeric literal, handling the value(uncertainty)
// notation by appending the uncertainty digits to the mantissa:
// "42.5(3)" reads as 42.53. ok is false if the word is not a number.
func (l *lexer) parseNumber(word []byte) (float64, bool, error) {
	s := string(word)
	if n := len(s); n >= 4 && s[n-1] == ')' {
		if lparen := strings.LastIndexByte(s, '('); lparen >= 0 {
			s = s[:lparen] + s[lparen+1:n-1]
		}
	}
	// CIF numbers are decimal: no digit separators, no hex.
	if strings.ContainsAny(s, "_xX") {
		return 0, false, nil
	}

	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange && math.IsInf(num, 0) {
			return 0, false, l.errorf(LexicalError, "real value %s is too big for 64-bit float type", word)
		}
		return 0, false, nil
	}
	// ParseFloat also reads "inf" and "nan", which are plain words in CIF.
	if math.IsInf(num, 0) || math.IsNaN(num) {
		return 0, false, nil
	}

	return num, true, nil
}

// errorf creates an error carrying the current line number.
func (l *lexer) errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

// IsTagName reports whether name is a valid CIF tag: an underscore followed
// by at least one printable, non-blank ASCII character.
func IsTagName(name string) bool {
	if len(name) < 2 || name[0] != '_' {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isNonBlankChar(name[i]) {
			return false
		}
	}
	return true
}

// Helper functions for character classification.
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isEOL(c byte) bool {
	return c == '\n' || c == '\r'
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || isEOL(c)
}

// isNonBlankChar reports whether c is printable, non-blank ASCII.
func isNonBlankChar(c byte) bool {
	return c > 32 && c < 127
}

// isWordChar reports whether c continues a bare word. Bytes of multi-byte
// UTF-8 sequences are accepted so text is not split mid-character.
func isWordChar(c byte) bool {
	return isNonBlankChar(c) || c >= 0x80
}
