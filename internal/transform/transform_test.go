package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/JarryShaw/walrus/internal/diagnostic"
	"github.com/JarryShaw/walrus/internal/syntax"
)

func TestRewriteIdentity(t *testing.T) {
	tests := []string{
		"",
		"x = 1\n",
		"# leading comment\n\nif cond:\n    pass  # tail\n",
		"def f(a, b=2):\n    return a + b\n",
		"x = 1\r\ny = 2\r\n",
		"last = 'no trailing newline'",
	}
	for i, src := range tests {
		res, err := Rewrite(src, Options{})
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if res.Changed {
			t.Fatalf("tests[%d] - reported change on walrus-free input", i)
		}
		if res.Source != src {
			t.Fatalf("tests[%d] - source not preserved:\ngot  %q\nwant %q", i, res.Source, src)
		}
	}
}

func TestRewriteStatementLevel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "if test",
			in:   "if (n := len(a)) > 5:\n    print(n)\n",
			out:  "n = len(a)\nif (n) > 5:\n    print(n)\n",
		},
		{
			name: "spacing preserved",
			in:   "x=( n :=f() )  # tail\n",
			out:  "n = f()\nx=( n )  # tail\n",
		},
		{
			name: "nested value",
			in:   "x = (a := (b := f()) + 1)\n",
			out:  "b = f()\na = (b) + 1\nx = (a)\n",
		},
		{
			name: "siblings hoist in source order",
			in:   "x = (a := 1) + (b := 2)\n",
			out:  "a = 1\nb = 2\nx = (a) + (b)\n",
		},
		{
			name: "inside function body",
			in:   "def g():\n    if (n := calc()):\n        return n\n",
			out:  "def g():\n    n = calc()\n    if (n):\n        return n\n",
		},
		{
			name: "for iterable",
			in:   "for x in (r := rng()):\n    use(x, r)\n",
			out:  "r = rng()\nfor x in (r):\n    use(x, r)\n",
		},
		{
			name: "leading comprehension iterable is eager",
			in:   "ys = [x for x in (r := rng())]\n",
			out:  "r = rng()\nys = [x for x in (r)]\n",
		},
	}
	for i, tt := range tests {
		res, err := Rewrite(tt.in, Options{})
		if err != nil {
			t.Fatalf("tests[%d] %s - unexpected error: %v", i, tt.name, err)
		}
		if !res.Changed {
			t.Fatalf("tests[%d] %s - expected a rewrite", i, tt.name)
		}
		if res.Source != tt.out {
			t.Fatalf("tests[%d] %s - wrong output:\ngot  %q\nwant %q", i, tt.name, res.Source, tt.out)
		}
	}
}

func TestRewriteWhile(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "re-hoist at body end",
			in:   "while (block := f.read(64)):\n    process(block)\n",
			out:  "block = f.read(64)\nwhile (block):\n    process(block)\n    block = f.read(64)\n",
		},
		{
			name: "re-hoist before continue",
			in: "while (n := nxt()) is not None:\n" +
				"    if n < 0:\n" +
				"        continue\n" +
				"    use(n)\n",
			out: "n = nxt()\n" +
				"while (n) is not None:\n" +
				"    if n < 0:\n" +
				"        n = nxt()\n" +
				"        continue\n" +
				"    use(n)\n" +
				"    n = nxt()\n",
		},
		{
			name: "missing final newline gains one for the re-hoist",
			in:   "while (b := read()):\n    use(b)",
			out:  "b = read()\nwhile (b):\n    use(b)\n    b = read()\n",
		},
		{
			name: "else clause survives",
			in: "while (v := poll()):\n" +
				"    handle(v)\n" +
				"else:\n" +
				"    done()\n",
			out: "v = poll()\n" +
				"while (v):\n" +
				"    handle(v)\n" +
				"    v = poll()\n" +
				"else:\n" +
				"    done()\n",
		},
	}
	for i, tt := range tests {
		res, err := Rewrite(tt.in, Options{})
		if err != nil {
			t.Fatalf("tests[%d] %s - unexpected error: %v", i, tt.name, err)
		}
		if res.Source != tt.out {
			t.Fatalf("tests[%d] %s - wrong output:\ngot  %q\nwant %q", i, tt.name, res.Source, tt.out)
		}
	}
}

func TestRewriteComprehension(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "element references loop variable",
			in:   "ys = [(y := f(x)) for x in xs]\n",
			out: "def _walrus_0(x):\n" +
				"    global y\n" +
				"    y = f(x)\n" +
				"    return y\n" +
				"ys = [(_walrus_0(x)) for x in xs]\n",
		},
		{
			name: "condition clause",
			in:   "ys = [y for x in xs if (y := f(x))]\n",
			out: "def _walrus_0(x):\n" +
				"    global y\n" +
				"    y = f(x)\n" +
				"    return y\n" +
				"ys = [y for x in xs if (_walrus_0(x))]\n",
		},
		{
			name: "generator argument",
			in:   "total = sum((y := f(x)) for x in xs)\n",
			out: "def _walrus_0(x):\n" +
				"    global y\n" +
				"    y = f(x)\n" +
				"    return y\n" +
				"total = sum((_walrus_0(x)) for x in xs)\n",
		},
		{
			name: "value ignores loop variable",
			in:   "ys = [(c := bump()) for x in xs]\n",
			out: "def _walrus_0():\n" +
				"    global c\n" +
				"    c = bump()\n" +
				"    return c\n" +
				"ys = [(_walrus_0()) for x in xs]\n",
		},
	}
	for i, tt := range tests {
		res, err := Rewrite(tt.in, Options{})
		if err != nil {
			t.Fatalf("tests[%d] %s - unexpected error: %v", i, tt.name, err)
		}
		if res.Source != tt.out {
			t.Fatalf("tests[%d] %s - wrong output:\ngot  %q\nwant %q", i, tt.name, res.Source, tt.out)
		}
	}
}

func TestRewriteLazyPositions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "or right operand",
			in:   "x = a or (n := f())\n",
			out: "def _walrus_0():\n" +
				"    global n\n" +
				"    n = f()\n" +
				"    return n\n" +
				"x = a or (_walrus_0())\n",
		},
		{
			name: "elif test",
			in: "if a:\n" +
				"    pass\n" +
				"elif (n := f()):\n" +
				"    pass\n",
			out: "def _walrus_0():\n" +
				"    global n\n" +
				"    n = f()\n" +
				"    return n\n" +
				"if a:\n" +
				"    pass\n" +
				"elif (_walrus_0()):\n" +
				"    pass\n",
		},
		{
			name: "ternary else in function gets nonlocal",
			in: "def g(a):\n" +
				"    return 0 if a else (n := calc())\n",
			out: "def g(a):\n" +
				"    n = locals().get(\"n\")\n" +
				"    def _walrus_0():\n" +
				"        nonlocal n\n" +
				"        n = calc()\n" +
				"        return n\n" +
				"    return 0 if a else (_walrus_0())\n",
		},
		{
			name: "inline suite",
			in:   "if cond: use((n := f()))\n",
			out: "def _walrus_0():\n" +
				"    global n\n" +
				"    n = f()\n" +
				"    return n\n" +
				"if cond: use((_walrus_0()))\n",
		},
	}
	for i, tt := range tests {
		res, err := Rewrite(tt.in, Options{})
		if err != nil {
			t.Fatalf("tests[%d] %s - unexpected error: %v", i, tt.name, err)
		}
		if res.Source != tt.out {
			t.Fatalf("tests[%d] %s - wrong output:\ngot  %q\nwant %q", i, tt.name, res.Source, tt.out)
		}
	}
}

func TestRewriteLambda(t *testing.T) {
	res, err := Rewrite("f = lambda: (y := g())\n", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "def _walrus_0():\n" +
		"    global y\n" +
		"    y = g()\n" +
		"    return y\n" +
		"f = lambda: (_walrus_0())\n"
	if res.Source != want {
		t.Fatalf("wrong output:\ngot  %q\nwant %q", res.Source, want)
	}

	// A value reading the lambda's own parameter cannot move out.
	src := "f = lambda x: (y := x + 1)\n"
	res, err = Rewrite(src, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Changed || res.Source != src {
		t.Fatalf("expected input left alone, got %q", res.Source)
	}
	if !res.Diagnostics.HasErrors() {
		t.Fatalf("expected a diagnostic for the lambda parameter")
	}
	items := res.Diagnostics.Items()
	if items[0].Kind != diagnostic.UnhoistableContext {
		t.Fatalf("wrong diagnostic kind: %v", items[0].Kind)
	}
}

func TestRewriteDiagnostics(t *testing.T) {
	// Attribute targets are not plain names.
	src := "x = (a.b := 1)\n"
	res, err := Rewrite(src, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Changed {
		t.Fatalf("expected no rewrite for unsupported target")
	}
	items := res.Diagnostics.Items()
	if len(items) != 1 || items[0].Kind != diagnostic.UnsupportedTarget {
		t.Fatalf("expected one UnsupportedTarget diagnostic, got %v", items)
	}

	// Broken input fails the whole file but keeps the source.
	res, err = Rewrite("def f(:\n", Options{Filename: "bad.py"})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if res.Source != "def f(:\n" {
		t.Fatalf("source not preserved on parse failure")
	}
	items = res.Diagnostics.Items()
	if len(items) != 1 || items[0].Kind != diagnostic.ParseFailure {
		t.Fatalf("expected one ParseFailure diagnostic, got %v", items)
	}
}

func TestRewriteMixedFailure(t *testing.T) {
	// One bad occurrence does not stop the others.
	src := "f = lambda x: (y := x)\n" +
		"if (n := len(a)) > 5:\n" +
		"    pass\n"
	res, err := Rewrite(src, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("expected one rewrite, got %d", res.Count)
	}
	if !strings.Contains(res.Source, "n = len(a)\nif (n) > 5:") {
		t.Fatalf("eager occurrence not rewritten: %q", res.Source)
	}
	if !strings.Contains(res.Source, "lambda x: (y := x)") {
		t.Fatalf("refused occurrence should stay put: %q", res.Source)
	}
	if res.Diagnostics.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", res.Diagnostics.Len())
	}
}

func TestRewriteNameAllocation(t *testing.T) {
	src := "_walrus_0 = 1\n" +
		"x = a or (n := f())\n"
	res, err := Rewrite(src, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Source, "def _walrus_1():") {
		t.Fatalf("allocator should skip the taken name: %q", res.Source)
	}
	if strings.Contains(res.Source, "def _walrus_0") {
		t.Fatalf("allocator reused a taken name: %q", res.Source)
	}
}

func TestRewriteCRLF(t *testing.T) {
	src := "if (n := f()):\r\n    pass\r\n"
	res, err := Rewrite(src, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "n = f()\r\nif (n):\r\n    pass\r\n"
	if res.Source != want {
		t.Fatalf("wrong output:\ngot  %q\nwant %q", res.Source, want)
	}
}

func TestRewriteIdempotent(t *testing.T) {
	src := "while (block := f.read(64)):\n    process(block)\n"
	first, err := Rewrite(src, Options{})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := Rewrite(first.Source, Options{})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second.Changed || second.Source != first.Source {
		t.Fatalf("second pass should be a no-op, got %q", second.Source)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		class HoistClass
		lazy  bool
	}{
		{"expression statement", "(n := f())\n", StatementLevel, false},
		{"assignment value", "x = (n := f())\n", StatementLevel, false},
		{"if test", "if (n := f()):\n    pass\n", ConditionalTest, false},
		{"while test", "while (n := f()):\n    pass\n", ConditionalTest, false},
		{"elif test", "if a:\n    pass\nelif (n := f()):\n    pass\n", ConditionalTest, true},
		{"or right side", "x = a or (n := f())\n", StatementLevel, true},
		{"and left side", "x = (n := f()) and b\n", StatementLevel, false},
		{"ternary condition", "x = 1 if (n := f()) else 2\n", StatementLevel, false},
		{"ternary body", "x = (n := f()) if a else 2\n", StatementLevel, true},
		{"assert message", "assert ok, (n := msg())\n", StatementLevel, true},
		{"comprehension element", "x = [(n := f(i)) for i in r]\n", ComprehensionClause, false},
		{"lambda body", "f = lambda: (n := g())\n", LambdaBody, true},
		{"chained comparison tail", "x = a < b < (n := f())\n", StatementLevel, true},
	}
	for i, tt := range tests {
		tree, err := syntax.Parse(tt.src, "<test>")
		if err != nil {
			t.Fatalf("tests[%d] %s - parse: %v", i, tt.name, err)
		}
		nodes := Locate(tree)
		if len(nodes) != 1 {
			t.Fatalf("tests[%d] %s - expected one node, got %d", i, tt.name, len(nodes))
		}
		c := Classify(nodes[0])
		if c.Class != tt.class {
			t.Fatalf("tests[%d] %s - class = %v, want %v", i, tt.name, c.Class, tt.class)
		}
		if c.Lazy != tt.lazy {
			t.Fatalf("tests[%d] %s - lazy = %v, want %v", i, tt.name, c.Lazy, tt.lazy)
		}
		if c.Anchor == nil {
			t.Fatalf("tests[%d] %s - missing anchor", i, tt.name)
		}
	}
}

func TestAllocatorPerScope(t *testing.T) {
	src := "def a():\n    pass\ndef b():\n    pass\n"
	tree, err := syntax.Parse(src, "<test>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	alloc := NewAllocator(tree)
	var defs []*syntax.Internal
	syntax.Walk(tree.Root, func(n syntax.Node) bool {
		if in, ok := n.(*syntax.Internal); ok && in.Kind() == syntax.KindFuncDef {
			defs = append(defs, in)
		}
		return true
	})
	if len(defs) != 2 {
		t.Fatalf("expected two function definitions, got %d", len(defs))
	}
	if got := alloc.Reserve(defs[0]); got != "_walrus_0" {
		t.Fatalf("first scope start = %q", got)
	}
	// The second scope starts numbering over but may not reuse a
	// name taken anywhere in the file.
	if got := alloc.Reserve(defs[1]); got != "_walrus_1" {
		t.Fatalf("second scope = %q", got)
	}
}
