package syntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JarryShaw/walrus/internal/position"
)

// ParseError reports a tokenization or parse failure against the
// original source text.
type ParseError struct {
	Msg   string
	Pos   position.Position
	AtEOF bool // input ended mid-construct; the REPL uses this to keep reading
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// tabSize is the tab stop used for indentation comparison, matching
// the CPython tokenizer.
const tabSize = 8

// Tokenize splits source into a complete token stream. The
// concatenation of every token's prefix and value reproduces source
// byte for byte, except for the synthetic newline inserted when the
// input does not end in one (that token has an empty value).
func Tokenize(source, filename string) ([]Token, error) {
	t := &tokenizer{
		src:         source,
		cursor:      position.Position{Filename: filename, Line: 1, Column: 1, Offset: 0},
		indents:     []int{0},
		atLineStart: true,
	}
	var tokens []Token
	for {
		if len(t.queue) == 0 {
			if err := t.fill(); err != nil {
				return nil, err
			}
		}
		tok := t.queue[0]
		t.queue = t.queue[1:]
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

type tokenizer struct {
	src         string
	i           int // byte offset of the scan point
	cursor      position.Position
	indents     []int
	queue       []Token
	depth       int // bracket nesting; newlines inside brackets are prefix
	atLineStart bool
	sawToken    bool // a real token was emitted on the current logical line
}

// fill scans one real token (plus any indent bookkeeping tokens that
// precede it) into the queue.
func (t *tokenizer) fill() error {
	prefixStart := t.i

	if t.atLineStart && t.depth == 0 {
		if err := t.scanLineStart(prefixStart); err != nil {
			return err
		}
		if len(t.queue) > 0 && t.queue[len(t.queue)-1].Type == TokenEOF {
			return nil
		}
	}

	t.scanPrefix()
	prefix := t.src[prefixStart:t.i]

	if t.i >= len(t.src) {
		if t.depth > 0 {
			return &ParseError{Msg: "unexpected end of file inside brackets", Pos: t.cursor, AtEOF: true}
		}
		if t.sawToken {
			// Input ended without a trailing newline; close the
			// logical line with a zero-width newline token.
			t.emit(TokenNewline, "", prefix)
			t.atLineStart = true
			t.sawToken = false
			return nil
		}
		for len(t.indents) > 1 {
			t.indents = t.indents[:len(t.indents)-1]
			t.emit(TokenDedent, "", "")
		}
		t.emit(TokenEOF, "", prefix)
		return nil
	}

	c, _ := utf8.DecodeRuneInString(t.src[t.i:])
	switch {
	case c == '\n' || c == '\r':
		value := t.scanNewline()
		t.emit(TokenNewline, value, prefix)
		t.atLineStart = true
		t.sawToken = false
		return nil
	case isIdentStart(c):
		return t.scanNameOrString(prefix)
	case c >= '0' && c <= '9':
		t.emit(TokenNumber, t.scanNumber(), prefix)
		t.sawToken = true
		return nil
	case c == '.' && t.i+1 < len(t.src) && t.src[t.i+1] >= '0' && t.src[t.i+1] <= '9':
		t.emit(TokenNumber, t.scanNumber(), prefix)
		t.sawToken = true
		return nil
	case c == '"' || c == '\'':
		value, err := t.scanString(t.i)
		if err != nil {
			return err
		}
		t.emit(TokenString, value, prefix)
		t.sawToken = true
		return nil
	default:
		value, ok := t.scanOperator()
		if !ok {
			return &ParseError{Msg: fmt.Sprintf("invalid character %q", c), Pos: t.cursor.Advance(prefix)}
		}
		t.emit(TokenOp, value, prefix)
		t.sawToken = true
		return nil
	}
}

// scanLineStart measures indentation, swallowing blank and
// comment-only lines into the prefix, and queues indent or dedent
// tokens as the indentation level changes.
func (t *tokenizer) scanLineStart(prefixStart int) error {
	for {
		col := 0
		for t.i < len(t.src) {
			switch t.src[t.i] {
			case ' ':
				col++
			case '\t':
				col += tabSize - col%tabSize
			case '\f':
				col = 0
			default:
				goto measured
			}
			t.i++
		}
	measured:
		if t.i >= len(t.src) {
			// Trailing whitespace before EOF stays in the prefix.
			prefix := t.src[prefixStart:t.i]
			for len(t.indents) > 1 {
				t.indents = t.indents[:len(t.indents)-1]
				t.emit(TokenDedent, "", "")
			}
			t.emit(TokenEOF, "", prefix)
			return nil
		}
		c := t.src[t.i]
		if c == '#' {
			for t.i < len(t.src) && t.src[t.i] != '\n' && t.src[t.i] != '\r' {
				t.i++
			}
			continue
		}
		if c == '\n' || c == '\r' {
			t.scanNewline()
			continue
		}

		t.atLineStart = false
		top := t.indents[len(t.indents)-1]
		if col > top {
			t.indents = append(t.indents, col)
			t.emit(TokenIndent, "", "")
		} else {
			for col < t.indents[len(t.indents)-1] {
				t.indents = t.indents[:len(t.indents)-1]
				t.emit(TokenDedent, "", "")
			}
			if col != t.indents[len(t.indents)-1] {
				pos := t.cursor.Advance(t.src[prefixStart:t.i])
				return &ParseError{Msg: "unindent does not match any outer indentation level", Pos: pos}
			}
		}
		return nil
	}
}

// scanPrefix consumes mid-line junk: spaces, tabs, form feeds,
// comments, backslash continuations, and newlines inside brackets.
func (t *tokenizer) scanPrefix() {
	for t.i < len(t.src) {
		c := t.src[t.i]
		switch {
		case c == ' ' || c == '\t' || c == '\f':
			t.i++
		case c == '\\' && t.i+1 < len(t.src) && (t.src[t.i+1] == '\n' || t.src[t.i+1] == '\r'):
			t.i++
			t.scanNewline()
		case c == '#':
			for t.i < len(t.src) && t.src[t.i] != '\n' && t.src[t.i] != '\r' {
				t.i++
			}
		case (c == '\n' || c == '\r') && t.depth > 0:
			t.scanNewline()
		default:
			return
		}
	}
}

// scanNewline consumes a single line break, accepting LF, CRLF and CR.
func (t *tokenizer) scanNewline() string {
	start := t.i
	if t.src[t.i] == '\r' {
		t.i++
		if t.i < len(t.src) && t.src[t.i] == '\n' {
			t.i++
		}
	} else {
		t.i++
	}
	return t.src[start:t.i]
}

func (t *tokenizer) scanNameOrString(prefix string) error {
	start := t.i
	for t.i < len(t.src) {
		c, size := utf8.DecodeRuneInString(t.src[t.i:])
		if !isIdentCont(c) {
			break
		}
		t.i += size
	}
	name := t.src[start:t.i]

	// A string prefix (r, b, u, f and combinations) followed by a
	// quote begins a string literal, not a name.
	if len(name) <= 2 && t.i < len(t.src) && (t.src[t.i] == '"' || t.src[t.i] == '\'') && isStringPrefix(name) {
		value, err := t.scanString(start)
		if err != nil {
			return err
		}
		t.emit(TokenString, value, prefix)
		t.sawToken = true
		return nil
	}

	if IsKeyword(name) {
		t.emit(TokenKeyword, name, prefix)
	} else {
		t.emit(TokenName, name, prefix)
	}
	t.sawToken = true
	return nil
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "b", "u", "f", "rb", "br", "fr", "rf":
		return true
	}
	return false
}

// scanString scans a string literal whose prefix letters start at
// start and whose opening quote sits at the current scan point.
// F-strings are kept as single opaque tokens, the way the pre-3.12
// CPython tokenizer treats them.
func (t *tokenizer) scanString(start int) (string, error) {
	startPos := t.cursor.Advance(t.src[t.cursor.Offset:start])
	quote := t.src[t.i]
	triple := strings.HasPrefix(t.src[t.i:], strings.Repeat(string(quote), 3))
	if triple {
		t.i += 3
		closer := strings.Repeat(string(quote), 3)
		for t.i < len(t.src) {
			if t.src[t.i] == '\\' && t.i+1 < len(t.src) {
				t.i += 2
				continue
			}
			if strings.HasPrefix(t.src[t.i:], closer) {
				t.i += 3
				return t.src[start:t.i], nil
			}
			t.i++
		}
		return "", &ParseError{Msg: "unterminated triple-quoted string", Pos: startPos, AtEOF: true}
	}

	t.i++
	for t.i < len(t.src) {
		c := t.src[t.i]
		if c == '\\' && t.i+1 < len(t.src) && t.src[t.i+1] != '\r' {
			t.i += 2
			continue
		}
		if c == '\\' && t.i+1 < len(t.src) {
			// escaped newline inside a single-quoted string
			t.i++
			t.scanNewline()
			continue
		}
		if c == '\n' || c == '\r' {
			return "", &ParseError{Msg: "unterminated string literal", Pos: startPos}
		}
		if c == quote {
			t.i++
			return t.src[start:t.i], nil
		}
		t.i++
	}
	return "", &ParseError{Msg: "unterminated string literal", Pos: startPos, AtEOF: true}
}

func (t *tokenizer) scanNumber() string {
	start := t.i
	src := t.src
	isDigitish := func(b byte) bool {
		return b == '_' || (b >= '0' && b <= '9') ||
			(b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F') ||
			b == 'o' || b == 'O' || b == 'x' || b == 'X'
	}
	if src[t.i] == '0' && t.i+1 < len(src) && (src[t.i+1] == 'x' || src[t.i+1] == 'X' ||
		src[t.i+1] == 'o' || src[t.i+1] == 'O' || src[t.i+1] == 'b' || src[t.i+1] == 'B') {
		t.i += 2
		for t.i < len(src) && isDigitish(src[t.i]) {
			t.i++
		}
		return src[start:t.i]
	}
	for t.i < len(src) && (src[t.i] == '_' || (src[t.i] >= '0' && src[t.i] <= '9')) {
		t.i++
	}
	if t.i < len(src) && src[t.i] == '.' {
		t.i++
		for t.i < len(src) && (src[t.i] == '_' || (src[t.i] >= '0' && src[t.i] <= '9')) {
			t.i++
		}
	}
	if t.i < len(src) && (src[t.i] == 'e' || src[t.i] == 'E') {
		j := t.i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && src[j] >= '0' && src[j] <= '9' {
			t.i = j
			for t.i < len(src) && (src[t.i] == '_' || (src[t.i] >= '0' && src[t.i] <= '9')) {
				t.i++
			}
		}
	}
	if t.i < len(src) && (src[t.i] == 'j' || src[t.i] == 'J') {
		t.i++
	}
	return src[start:t.i]
}

// operator tables, longest match first
var operators3 = []string{"**=", "//=", ">>=", "<<=", "..."}

var operators2 = []string{
	"**", "//", ">>", "<<", "<=", ">=", "==", "!=", "->", ":=",
	"+=", "-=", "*=", "/=", "%=", "@=", "&=", "|=", "^=",
}

const operators1 = "+-*/%@&|^~<>()[]{},:.;="

func (t *tokenizer) scanOperator() (string, bool) {
	rest := t.src[t.i:]
	for _, op := range operators3 {
		if strings.HasPrefix(rest, op) {
			t.i += 3
			return op, true
		}
	}
	for _, op := range operators2 {
		if strings.HasPrefix(rest, op) {
			t.i += 2
			return op, true
		}
	}
	c := rest[0]
	if strings.IndexByte(operators1, c) < 0 {
		return "", false
	}
	switch c {
	case '(', '[', '{':
		t.depth++
	case ')', ']', '}':
		if t.depth > 0 {
			t.depth--
		}
	}
	t.i++
	return string(c), true
}

func (t *tokenizer) emit(tt TokenType, value, prefix string) {
	pos := t.cursor.Advance(prefix)
	t.queue = append(t.queue, Token{Type: tt, Value: value, Prefix: prefix, Pos: pos})
	t.cursor = pos.Advance(value)
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentCont(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c) ||
		unicode.Is(unicode.Mn, c) || unicode.Is(unicode.Mc, c) || unicode.Is(unicode.Pc, c)
}
