package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JarryShaw/walrus/internal/diagnostic"
	"github.com/JarryShaw/walrus/internal/position"
	"github.com/JarryShaw/walrus/internal/syntax"
)

// Options controls a single conversion.
type Options struct {
	// Filename appears in diagnostics; empty means "<string>".
	Filename string
	// LineSep overrides the newline sequence used for synthesized
	// lines. When empty the separator is detected from the source.
	LineSep string
}

// Result carries the converted source and everything observed on the
// way there.
type Result struct {
	Source      string
	Changed     bool
	Count       int
	Diagnostics *diagnostic.List
}

// ErrParse wraps syntax errors so callers can tell a broken input file
// from an internal failure.
var ErrParse = errors.New("syntax error")

// Rewrite converts every assignment expression in source to a form
// older interpreters accept. Nodes that cannot be converted are
// reported in the diagnostics and left as they were; the rest of the
// file still converts. Bytes outside rewritten spans are preserved
// exactly.
func Rewrite(source string, opts Options) (*Result, error) {
	filename := opts.Filename
	if filename == "" {
		filename = "<string>"
	}
	lineSep := opts.LineSep
	if lineSep == "" {
		lineSep = detectLineSep(source)
	}
	diags := &diagnostic.List{}

	tree, err := syntax.Parse(source, filename)
	if err != nil {
		var pe *syntax.ParseError
		span := position.Span{}
		if errors.As(err, &pe) {
			span = position.NewSpan(pe.Pos, pe.Pos)
		}
		diags.Add(diagnostic.Diagnostic{
			Kind:     diagnostic.ParseFailure,
			Severity: diagnostic.SeverityError,
			Span:     span,
			Message:  err.Error(),
		})
		return &Result{Source: source, Diagnostics: diags}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	nodes := Locate(tree)
	if len(nodes) == 0 {
		return &Result{Source: source, Diagnostics: diags}, nil
	}

	p := &planner{alloc: NewAllocator(tree), root: tree.Root}
	count := 0
	for _, node := range nodes {
		c := Classify(node)
		if node.NumChildren() > 2 && containsNamedExpr(node.Child(2)) {
			// An inner occurrence was refused, so hoisting this one
			// would carry the unconverted operator along.
			diags.Add(diagnostic.Diagnostic{
				Kind:     diagnostic.UnhoistableContext,
				Severity: diagnostic.SeverityError,
				Span:     nodeSpan(node),
				Context:  c.Class.String(),
				Message:  "value contains an assignment expression that could not be rewritten",
			})
			continue
		}
		plan, diag := p.plan(node, c)
		if diag != nil {
			diags.Add(*diag)
			continue
		}
		if err := applyPlan(plan, lineSep); err != nil {
			diags.Add(diagnostic.Diagnostic{
				Kind:     diagnostic.NameCollision,
				Severity: diagnostic.SeverityError,
				Span:     nodeSpan(node),
				Context:  c.Class.String(),
				Message:  err.Error(),
			})
			return &Result{Source: source, Diagnostics: diags}, fmt.Errorf("rewriting %s: %w", filename, err)
		}
		count++
	}

	out := source
	if count > 0 {
		out = tree.Code()
	}
	return &Result{
		Source:      out,
		Changed:     count > 0,
		Count:       count,
		Diagnostics: diags,
	}, nil
}

// detectLineSep picks the dominant separator of the file, preferring
// what the first line ends with.
func detectLineSep(source string) string {
	if i := strings.IndexByte(source, '\n'); i > 0 && source[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
