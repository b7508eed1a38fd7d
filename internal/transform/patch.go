package transform

import (
	"fmt"
	"strings"

	"github.com/JarryShaw/walrus/internal/syntax"
)

// applyPlan patches the tree in place: synthesized statements are
// parsed, re-indented to the insertion site and spliced in, then the
// assignment expression itself is swapped for its replacement. The
// prefix of the replaced node is carried over so surrounding bytes
// stay untouched.
func applyPlan(plan *RewritePlan, lineSep string) error {
	for _, b := range plan.Bindings {
		stmts, err := synthesize(b.Code, lineSep)
		if err != nil {
			return fmt.Errorf("synthesizing binding for %q: %w", b.Name, err)
		}
		switch {
		case b.At.before != nil:
			parent := b.At.before.Parent()
			if parent == nil {
				return fmt.Errorf("binding for %q has a detached anchor", b.Name)
			}
			reindent(stmts, indentOf(b.At.before))
			if !parent.InsertBefore(b.At.before, stmts...) {
				return fmt.Errorf("anchor for %q not found in its suite", b.Name)
			}
		case b.At.suite != nil:
			suite := b.At.suite
			if suite.NumChildren() < 2 {
				return fmt.Errorf("binding for %q targets an empty suite", b.Name)
			}
			reindent(stmts, indentOf(suite.Child(1)))
			// A file may end without a final newline; give the last
			// statement one before appending after it.
			if last := suite.LastLeaf(); last.Kind() == syntax.KindNewline && last.Value == "" {
				last.Value = lineSep
			}
			suite.AppendChild(stmts...)
		default:
			return fmt.Errorf("binding for %q has no insertion point", b.Name)
		}
	}

	repl, err := synthesizeExpr(plan.Replacement, lineSep)
	if err != nil {
		return fmt.Errorf("synthesizing replacement %q: %w", plan.Replacement, err)
	}
	repl.FirstLeaf().Prefix = plan.Node.FirstLeaf().Prefix
	parent := plan.Node.Parent()
	if parent == nil || !parent.ReplaceChild(plan.Node, repl) {
		return fmt.Errorf("assignment expression detached before replacement")
	}
	return nil
}

// synthesize parses generated statement text into tree nodes. The text
// comes without indentation and with plain newlines; callers re-indent
// afterwards and the newline leaves are retargeted to the file's line
// separator here.
func synthesize(code, lineSep string) ([]syntax.Node, error) {
	tree, err := syntax.Parse(code+"\n", "<generated>")
	if err != nil {
		return nil, err
	}
	var stmts []syntax.Node
	for _, ch := range tree.Root.Children() {
		if leaf, ok := ch.(*syntax.Leaf); ok && leaf.Kind() == syntax.KindEndMarker {
			continue
		}
		stmts = append(stmts, ch)
	}
	if lineSep != "\n" {
		for _, s := range stmts {
			syntax.Walk(s, func(n syntax.Node) bool {
				if leaf, ok := n.(*syntax.Leaf); ok && leaf.Kind() == syntax.KindNewline && leaf.Value == "\n" {
					leaf.Value = lineSep
				}
				return true
			})
		}
	}
	return stmts, nil
}

// synthesizeExpr parses generated expression text and unwraps it from
// the statement the parser builds around it.
func synthesizeExpr(code, lineSep string) (syntax.Node, error) {
	stmts, err := synthesize(code, lineSep)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected a single expression, got %d statements", len(stmts))
	}
	stmt, ok := stmts[0].(*syntax.Internal)
	if !ok || stmt.Kind() != syntax.KindSimpleStmt || stmt.NumChildren() < 1 {
		return nil, fmt.Errorf("expected an expression statement")
	}
	return stmt.Child(0), nil
}

// reindent shifts freshly parsed statements to the target indentation.
// Leaves that start a physical line get the indent prepended, and
// continuation lines hidden inside prefixes move along with them.
func reindent(stmts []syntax.Node, indent string) {
	atLineStart := true
	for _, s := range stmts {
		syntax.Walk(s, func(n syntax.Node) bool {
			leaf, ok := n.(*syntax.Leaf)
			if !ok {
				return true
			}
			if strings.Contains(leaf.Prefix, "\n") {
				leaf.Prefix = strings.ReplaceAll(leaf.Prefix, "\n", "\n"+indent)
			}
			if atLineStart {
				leaf.Prefix = indent + leaf.Prefix
			}
			atLineStart = leaf.Kind() == syntax.KindNewline
			return true
		})
	}
}

// indentOf extracts the indentation of a statement from its leading
// prefix, which may also carry comment lines that stay attached to it.
func indentOf(stmt syntax.Node) string {
	prefix := stmt.FirstLeaf().Prefix
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		return prefix[i+1:]
	}
	return prefix
}
