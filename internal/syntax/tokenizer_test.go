package syntax

import (
	"errors"
	"strings"
	"testing"
)

func TestTokenizeStream(t *testing.T) {
	tokens, err := Tokenize("x = 1\n", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		typ    TokenType
		value  string
		prefix string
	}{
		{TokenName, "x", ""},
		{TokenOp, "=", " "},
		{TokenNumber, "1", " "},
		{TokenNewline, "\n", ""},
		{TokenEOF, "", ""},
	}
	if len(tokens) != len(want) {
		t.Fatalf("token count = %d, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Value != w.value || tokens[i].Prefix != w.prefix {
			t.Fatalf("tokens[%d] = {%v %q %q}, want {%v %q %q}",
				i, tokens[i].Type, tokens[i].Value, tokens[i].Prefix, w.typ, w.value, w.prefix)
		}
	}
}

func TestTokenizeLossless(t *testing.T) {
	tests := []string{
		"",
		"x = 1\n",
		"# only a comment\n",
		"\n\n\nx = 1\n\n",
		"x = 1  # trailing comment\n",
		"if a:\n    b = 1\n    # indented comment\n    c = 2\nd = 3\n",
		"total = (1 +\n         2 +\n         3)\n",
		"val = 1 + \\\n    2\n",
		"x = 1\r\ny = 2\r\n",
		"s = '''multi\nline\n'''\n",
		"t = rb'\\x00' 'adjacent' \"more\"\n",
		"u = f'{a!r:>{width}}'\n",
		"items = [\n    1,\n    2,  # inline\n]\n",
		"if x:\n\ty = 1\n",
	}
	for i, src := range tests {
		tokens, err := Tokenize(src, "<test>")
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		var b strings.Builder
		for _, tok := range tokens {
			b.WriteString(tok.Prefix)
			b.WriteString(tok.Value)
		}
		if b.String() != src {
			t.Fatalf("tests[%d] - reconstruction mismatch:\ngot  %q\nwant %q", i, b.String(), src)
		}
	}
}

func TestTokenizeIndentation(t *testing.T) {
	tokens, err := Tokenize("if a:\n    b\nc\n", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var kinds []TokenType
	for _, tok := range tokens {
		kinds = append(kinds, tok.Type)
	}
	want := []TokenType{
		TokenKeyword, TokenName, TokenOp, TokenNewline,
		TokenIndent, TokenName, TokenNewline,
		TokenDedent, TokenName, TokenNewline,
		TokenEOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestTokenizeOperators(t *testing.T) {
	tokens, err := Tokenize("(n := a ** b // c)\n", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ops []string
	for _, tok := range tokens {
		if tok.Type == TokenOp {
			ops = append(ops, tok.Value)
		}
	}
	want := []string{"(", ":=", "**", "//", ")"}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops[%d] = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestTokenizeSyntheticNewline(t *testing.T) {
	tokens, err := Tokenize("x = 1", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) < 2 {
		t.Fatalf("too few tokens: %v", tokens)
	}
	nl := tokens[len(tokens)-2]
	if nl.Type != TokenNewline || nl.Value != "" {
		t.Fatalf("expected zero-width newline before EOF, got {%v %q}", nl.Type, nl.Value)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		atEOF bool
	}{
		{"unterminated string", "s = 'abc\n", false},
		{"string hits EOF", "s = 'abc", true},
		{"unterminated triple", "s = '''abc\ndef\n", true},
		{"unclosed bracket", "x = (1 +\n", true},
		{"bad dedent", "if a:\n        b\n    c\n", false},
		{"invalid character", "x = 1 ?\n", false},
	}
	for i, tt := range tests {
		_, err := Tokenize(tt.src, "<test>")
		if err == nil {
			t.Fatalf("tests[%d] %s - expected an error", i, tt.name)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("tests[%d] %s - error type %T", i, tt.name, err)
		}
		if pe.AtEOF != tt.atEOF {
			t.Fatalf("tests[%d] %s - AtEOF = %v, want %v", i, tt.name, pe.AtEOF, tt.atEOF)
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens, err := Tokenize("a = 1\nbb = 2\n", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tok := range tokens {
		if tok.Type == TokenName && tok.Value == "bb" {
			if tok.Pos.Line != 2 || tok.Pos.Column != 1 {
				t.Fatalf("bb at %d:%d, want 2:1", tok.Pos.Line, tok.Pos.Column)
			}
			return
		}
	}
	t.Fatalf("name bb not found")
}
