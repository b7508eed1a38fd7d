package transform

import (
	"fmt"
	"strings"

	"github.com/JarryShaw/walrus/internal/diagnostic"
	"github.com/JarryShaw/walrus/internal/position"
	"github.com/JarryShaw/walrus/internal/syntax"
)

// insertPoint names where a synthesized statement goes: before an
// existing statement, or appended at the end of a block suite.
type insertPoint struct {
	before syntax.Node
	suite  *syntax.Internal
}

// TempBinding is one statement to insert, given without indentation.
// Code may span multiple lines for helper function definitions.
type TempBinding struct {
	Name string
	Code string
	At   insertPoint
}

// RewritePlan is the full recipe for one assignment expression: the
// statements to insert and the expression text that replaces the node.
type RewritePlan struct {
	Node        *syntax.Internal
	Bindings    []TempBinding
	Replacement string
}

type planner struct {
	alloc *Allocator
	root  *syntax.Internal
}

// plan decides between the two rewrite shapes. Eager positions with an
// insertable anchor get a plain hoisted assignment; everything else
// gets a helper function that performs the binding when called, so
// conditional and repeated evaluation keep their meaning.
func (p *planner) plan(node *syntax.Internal, c Classification) (*RewritePlan, *diagnostic.Diagnostic) {
	target, ok := node.Child(0).(*syntax.Leaf)
	if !ok || target.Kind() != syntax.KindName {
		return nil, p.reject(node, c, diagnostic.UnsupportedTarget,
			fmt.Sprintf("cannot assign to %s", describeTarget(node.Child(0))))
	}
	name := target.Value
	expr := node.Child(2)
	exprCode := trimmedCode(expr)
	free := freeNames(expr)

	for _, lambda := range c.Lambdas {
		for _, param := range lambdaParams(lambda) {
			if free[param] {
				return nil, p.reject(node, c, diagnostic.UnhoistableContext,
					fmt.Sprintf("value of %q reads lambda parameter %q, which is not visible outside the lambda", name, param))
			}
		}
	}

	statementLike := c.Class == StatementLevel || c.Class == ConditionalTest
	if statementLike && !c.Lazy && c.While == nil {
		return &RewritePlan{
			Node: node,
			Bindings: []TempBinding{{
				Name: name,
				Code: name + " = " + exprCode,
				At:   insertPoint{before: c.Anchor},
			}},
			Replacement: name,
		}, nil
	}

	if statementLike && c.While != nil && !c.Lazy {
		if plan, ok := p.planWhile(node, c, name, exprCode); ok {
			return plan, nil
		}
		// Fall through to a helper when the loop body cannot take the
		// re-hoisted assignments.
	}

	return p.planHelper(node, c, name, exprCode, free)
}

// planWhile hoists the test assignment before the loop and repeats it
// at the end of the body and before each continue, so the name is
// fresh on every test exactly as the original expression was. It
// refuses when any of those spots cannot take a statement.
func (p *planner) planWhile(node *syntax.Internal, c Classification, name, exprCode string) (*RewritePlan, bool) {
	body := firstSuite(c.While)
	if body == nil || !isBlockSuite(body) {
		return nil, false
	}
	continues, ok := loopContinues(body)
	if !ok {
		return nil, false
	}
	code := name + " = " + exprCode
	bindings := []TempBinding{{Name: name, Code: code, At: insertPoint{before: c.Anchor}}}
	for _, cont := range continues {
		bindings = append(bindings, TempBinding{Name: name, Code: code, At: insertPoint{before: cont}})
	}
	bindings = append(bindings, TempBinding{Name: name, Code: code, At: insertPoint{suite: body}})
	return &RewritePlan{Node: node, Bindings: bindings, Replacement: name}, true
}

// planHelper emits the callable shape: a function defined before the
// anchor whose call performs the binding. Comprehension variables the
// value reads travel in as parameters; the target itself rebinds via
// global or nonlocal.
func (p *planner) planHelper(node *syntax.Internal, c Classification, name, exprCode string, free map[string]bool) (*RewritePlan, *diagnostic.Diagnostic) {
	var params []string
	for _, comp := range c.CompNames {
		if comp == name {
			return nil, p.reject(node, c, diagnostic.UnhoistableContext,
				fmt.Sprintf("assignment expression cannot rebind comprehension iteration variable %q", name))
		}
		if free[comp] {
			params = append(params, comp)
		}
	}

	scope, keyword := enclosingScope(c.Anchor, p.root)
	helper := p.alloc.Reserve(scope)

	var bindings []TempBinding
	if keyword == "nonlocal" {
		// Pre-bind so the nonlocal declaration inside the helper is
		// valid even when the name was never assigned before.
		bindings = append(bindings, TempBinding{
			Name: name,
			Code: fmt.Sprintf("%s = locals().get(%q)", name, name),
			At:   insertPoint{before: c.Anchor},
		})
	}
	def := fmt.Sprintf("def %s(%s):\n    %s %s\n    %s = %s\n    return %s",
		helper, strings.Join(params, ", "), keyword, name, name, exprCode, name)
	bindings = append(bindings, TempBinding{
		Name: helper,
		Code: def,
		At:   insertPoint{before: c.Anchor},
	})

	return &RewritePlan{
		Node:        node,
		Bindings:    bindings,
		Replacement: helper + "(" + strings.Join(params, ", ") + ")",
	}, nil
}

func (p *planner) reject(node *syntax.Internal, c Classification, kind diagnostic.Kind, msg string) *diagnostic.Diagnostic {
	return &diagnostic.Diagnostic{
		Kind:     kind,
		Severity: diagnostic.SeverityError,
		Span:     nodeSpan(node),
		Context:  c.Class.String(),
		Message:  msg,
	}
}

// nodeSpan covers the node's exact source bytes, prefix excluded.
func nodeSpan(n syntax.Node) position.Span {
	first := n.FirstLeaf()
	last := n.LastLeaf()
	return position.NewSpan(first.Pos, last.Pos.Advance(last.Value))
}

// trimmedCode renders a node without the whitespace that preceded it.
func trimmedCode(n syntax.Node) string {
	code := n.Code()
	return code[len(n.FirstLeaf().Prefix):]
}

func describeTarget(n syntax.Node) string {
	code := strings.TrimSpace(trimmedCode(n))
	if len(code) > 40 {
		code = code[:40] + "..."
	}
	return fmt.Sprintf("%q", code)
}

// firstSuite returns the first suite child of a compound statement,
// which is the body following the header colon.
func firstSuite(stmt *syntax.Internal) *syntax.Internal {
	for _, ch := range stmt.Children() {
		if in, ok := ch.(*syntax.Internal); ok && in.Kind() == syntax.KindSuite {
			return in
		}
	}
	return nil
}

// loopContinues finds every continue statement that targets the loop
// owning the given body. Nested loop bodies are skipped, but their
// else clauses still belong to the outer loop. The second result is
// false when some continue sits where no statement can be inserted
// before it.
func loopContinues(body *syntax.Internal) ([]syntax.Node, bool) {
	var out []syntax.Node
	ok := true
	var scan func(n syntax.Node)
	scan = func(n syntax.Node) {
		in, isInternal := n.(*syntax.Internal)
		if !isInternal || !ok {
			return
		}
		switch in.Kind() {
		case syntax.KindSimpleStmt:
			if !isContinueStmt(in) {
				return
			}
			parent := in.Parent()
			if parent == nil || parent.Kind() != syntax.KindSuite || !isBlockSuite(parent) || in.NumChildren() != 2 {
				ok = false
				return
			}
			out = append(out, in)
		case syntax.KindWhileStmt, syntax.KindForStmt:
			for _, suite := range elseSuites(in) {
				scan(suite)
			}
		case syntax.KindFuncDef, syntax.KindClassDef, syntax.KindDecorated, syntax.KindLambda:
			// A different frame or loop target.
		default:
			for _, ch := range in.Children() {
				scan(ch)
			}
		}
	}
	for _, ch := range body.Children() {
		scan(ch)
	}
	return out, ok
}

func isContinueStmt(stmt *syntax.Internal) bool {
	for _, ch := range stmt.Children() {
		if leaf, ok := ch.(*syntax.Leaf); ok && leaf.Value == "continue" {
			return true
		}
	}
	return false
}

// elseSuites returns the suites following the else keyword of a loop
// statement.
func elseSuites(loop *syntax.Internal) []*syntax.Internal {
	var out []*syntax.Internal
	seenElse := false
	for _, ch := range loop.Children() {
		if leaf, ok := ch.(*syntax.Leaf); ok && leaf.Value == "else" {
			seenElse = true
			continue
		}
		if in, ok := ch.(*syntax.Internal); ok && in.Kind() == syntax.KindSuite && seenElse {
			out = append(out, in)
		}
	}
	return out
}
