package syntax

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []string{
		"",
		"x = 1\n",
		"# comment only\n",
		"x = 1  # trailing\n",
		"x, y = y, x\n",
		"x += 1\ny //= 2\nz **= 3\n",
		"x: int = 0\nans: 'List[int]'\n",
		"del a[0], b\n",
		"assert x, 'message'\n",
		"global a, b\n",
		"pass\n",
		"if x: y = 1; z = 2\n",
		"def f(a, b=1, *args, c, **kw):\n    return a\n",
		"def g(x, /, y, *, z):\n    pass\n",
		"def h() -> 'int':\n    return 0\n",
		"class A(Base, metaclass=M):\n    '''doc'''\n    x = 0\n",
		"class B:\n    pass\n",
		"@dec\n@mod.attr(arg)\ndef g():\n    pass\n",
		"async def h():\n    await other()\n",
		"async def j():\n    async for i in aiter():\n        pass\n    async with actx() as c:\n        pass\n",
		"for i in range(10):\n    print(i)\nelse:\n    pass\n",
		"while True:\n    break\nelse:\n    done()\n",
		"try:\n    pass\nexcept ValueError as e:\n    raise RuntimeError('x') from e\nexcept Exception:\n    pass\nelse:\n    pass\nfinally:\n    cleanup()\n",
		"with open('f') as fp, closing(q) as c:\n    fp.read()\n",
		"import os.path as osp, sys\n",
		"from . import x\n",
		"from ..pkg.mod import (a, b as bb)\n",
		"from mod import *\n",
		"def gen():\n    yield 1\n    x = yield\n    yield from src\n",
		"l = [x**2 for x in range(10) if x % 2 == 0]\n",
		"d = {k: v for k, v in items}\n",
		"st = {1, 2, *rest}\n",
		"dd = {**base, 'k': 1}\n",
		"g = (x for x in y)\n",
		"nested = [[y for y in row] for row in grid]\n",
		"sl = m[1:2, ::3, ..., None]\n",
		"c = a if b else d\n",
		"f(x, *a, k=1, **kw)\n",
		"fn = lambda a, *, b=2: a + b\n",
		"r = a < b <= c != d\n",
		"b = a is not None and c not in d or not e\n",
		"m = x @ y\n",
		"chain = a.b.c(d)[e].f\n",
		"neg = -x ** ~y\n",
		"total = (1 +\n         2 +\n         3)\n",
		"val = 1 + \\\n    2\n",
		"x = (n := f())\n",
		"ys = [(y := f(x)) for x in xs]\n",
		"if a:\n    b = 1\n    # indented comment\n\n    c = 2\nd = 3\n",
		"x = 1\r\nif a:\r\n    pass\r\n",
		"s = '''multi\nline\n'''\n",
		"t = rb'\\x00' 'adjacent' \"more\"\n",
		"last = 'no trailing newline'",
		"if deep:\n    if deeper:\n        if deepest:\n            pass\n",
	}
	for i, src := range tests {
		tree, err := Parse(src, "<test>")
		if err != nil {
			t.Fatalf("tests[%d] - parse error for %q: %v", i, src, err)
		}
		if got := tree.Code(); got != src {
			t.Fatalf("tests[%d] - round trip mismatch:\ngot  %q\nwant %q", i, got, src)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		atEOF bool
	}{
		{"malformed parameter list", "def f(:\n    pass\n", false},
		{"missing colon", "if x\n    pass\n", false},
		{"dangling header", "if x:", true},
		{"open bracket", "x = (1 +", true},
		{"stray indent", "    x = 1\n", false},
	}
	for i, tt := range tests {
		_, err := Parse(tt.src, "<test>")
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

func TestParseNamedExprShape(t *testing.T) {
	tree, err := Parse("x = (n := f())\n", "<test>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var named *Internal
	Walk(tree.Root, func(n Node) bool {
		if in, ok := n.(*Internal); ok && in.Kind() == KindNamedExpr {
			named = in
		}
		return true
	})
	if named == nil {
		t.Fatalf("no assignment expression found")
	}
	if named.NumChildren() != 3 {
		t.Fatalf("children = %d, want 3", named.NumChildren())
	}
	target, ok := named.Child(0).(*Leaf)
	if !ok || target.Kind() != KindName || target.Value != "n" {
		t.Fatalf("target = %v", named.Child(0))
	}
	if op, ok := named.Child(1).(*Leaf); !ok || op.Value != ":=" {
		t.Fatalf("operator = %v", named.Child(1))
	}
}

func TestParseTreeMutation(t *testing.T) {
	tree, err := Parse("a = 1\nb = 2\n", "<test>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	stmts := tree.Root.Children()
	// New statement spliced between the two originals.
	insert, err := Parse("c = 3\n", "<test>")
	if err != nil {
		t.Fatalf("parse insert: %v", err)
	}
	stmt := insert.Root.Child(0)
	if !tree.Root.InsertBefore(stmts[1], stmt) {
		t.Fatalf("InsertBefore failed")
	}
	if got, want := tree.Code(), "a = 1\nc = 3\nb = 2\n"; got != want {
		t.Fatalf("code = %q, want %q", got, want)
	}
	if stmt.Parent() != tree.Root {
		t.Fatalf("inserted statement not reparented")
	}
}
