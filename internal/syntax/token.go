// Package syntax implements a lossless concrete syntax tree for
// Python source code, covering the 3.8 grammar up to and including
// assignment expressions. Every byte of the input is retained: each
// token carries a prefix holding the whitespace, comments, blank
// lines and line continuations that precede it, so re-serializing an
// unmodified tree reproduces the original text exactly.
package syntax

import (
	"fmt"

	"github.com/JarryShaw/walrus/internal/position"
)

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenNewline
	TokenIndent
	TokenDedent

	// Literals and names
	TokenName
	TokenKeyword
	TokenNumber
	TokenString

	// Operators and delimiters carry their exact text in the value
	TokenOp
)

// tokenNames provides string representations for token types
var tokenNames = map[TokenType]string{
	TokenEOF:     "EOF",
	TokenError:   "ERROR",
	TokenNewline: "NEWLINE",
	TokenIndent:  "INDENT",
	TokenDedent:  "DEDENT",
	TokenName:    "NAME",
	TokenKeyword: "KEYWORD",
	TokenNumber:  "NUMBER",
	TokenString:  "STRING",
	TokenOp:      "OP",
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Token represents a lexical token with position information.
// Prefix holds all source text between the previous token and this
// one: spaces, tabs, comments, blank lines, form feeds and
// backslash-newline continuations. Indent and dedent tokens are
// zero-width; the indentation itself lives in the prefix of the
// first real token on the line.
type Token struct {
	Type   TokenType
	Value  string
	Prefix string
	Pos    position.Position // position of Value, after the prefix
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Value: %q, Pos: %s}", t.Type, t.Value, t.Pos)
}

// keywords holds the Python 3.8 reserved words.
var keywords = map[string]bool{
	"False": true, "None": true, "True": true,
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true,
}

// IsKeyword reports whether name is a Python reserved word.
func IsKeyword(name string) bool {
	return keywords[name]
}
