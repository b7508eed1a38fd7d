package transform

import (
	"github.com/JarryShaw/walrus/internal/syntax"
)

// Classification describes everything the planner needs to know about
// where an assignment expression sits: the hoist class, the statement
// before which new code can be inserted, and whether evaluation of the
// node is conditional within that statement.
type Classification struct {
	Class HoistClass
	// Anchor is the statement before which hoisted code is inserted.
	// Its parent is always the module or a block-form suite.
	Anchor syntax.Node
	// Lazy reports that the node sits in a position that may never be
	// evaluated when the anchor statement runs, such as the right
	// operand of a short-circuit operator or an inline suite.
	Lazy bool
	// While is the while statement owning the test containing the
	// node, when Class is ConditionalTest and the keyword was while.
	While *syntax.Internal
	// Lambdas lists every lambda whose body encloses the node, from
	// the inside out. Hoisted code placed at the anchor cannot see
	// their parameters.
	Lambdas []*syntax.Internal
	// CompNames lists comprehension iteration variables that are in
	// scope at the node, in the order their clauses appear.
	CompNames []string
	// Nested reports that the node sits inside the value of another
	// assignment expression. Such nodes are rewritten first, so the
	// effective context is computed by looking through the enclosure.
	Nested bool
}

// Classify walks outward from an assignment expression to the nearest
// statement that can take an inserted sibling, recording the innermost
// qualifying context on the way. Enclosing assignment expressions are
// transparent: the inner node is rewritten before the outer one, so it
// inherits the outer node's surroundings.
func Classify(node *syntax.Internal) Classification {
	var c Classification
	classSet := false
	setClass := func(h HoistClass) {
		if !classSet {
			c.Class = h
			classSet = true
		}
	}

	child := syntax.Node(node)
	parent := node.Parent()
	for parent != nil {
		idx := parent.IndexOf(child)
		switch parent.Kind() {
		case syntax.KindNamedExpr:
			if idx == 2 {
				c.Nested = true
			}

		case syntax.KindOrTest, syntax.KindAndTest:
			if idx > 0 {
				c.Lazy = true
			}
		case syntax.KindTernary:
			// children: body 'if' cond 'else' else
			if idx == 0 || idx == 4 {
				c.Lazy = true
			}
		case syntax.KindComparison:
			// In a chained comparison only the first two operands are
			// certain to be evaluated.
			if comparisonOperand(parent, child) >= 2 {
				c.Lazy = true
			}
		case syntax.KindAssertStmt:
			// The message after the comma only runs on failure.
			if idx == 3 {
				c.Lazy = true
			}

		case syntax.KindLambda:
			if idx == parent.NumChildren()-1 {
				setClass(LambdaBody)
				c.Lambdas = append(c.Lambdas, parent)
				c.Lazy = true
			}
			// Parameter defaults evaluate eagerly at the lambda
			// expression itself, so they pass through.

		case syntax.KindCompFor:
			switch compForSlot(parent, idx) {
			case slotIter:
				if leadingClause(parent) {
					// The first iterable evaluates eagerly in the
					// enclosing scope, before any loop variable is
					// bound.
					break
				}
				// Inner iterables re-evaluate per outer iteration,
				// with only the outer clause variables in scope.
				setClass(ComprehensionClause)
			case slotRest:
				// Entering from a nested clause or the condition:
				// this clause's variables are bound by then.
				c.CompNames = appendNames(c.CompNames, compForTargets(parent))
			default:
				setClass(ComprehensionClause)
			}
		case syntax.KindCompIf:
			if idx == 1 {
				setClass(ComprehensionClause)
			}

		case syntax.KindTestlistComp, syntax.KindDictOrSetMaker, syntax.KindArgument:
			if comp := displayCompFor(parent); comp != nil && idx == 0 {
				// The element position sees every clause variable.
				setClass(ComprehensionClause)
				for _, clause := range clauseChain(comp) {
					c.CompNames = appendNames(c.CompNames, compForTargets(clause))
				}
			}

		case syntax.KindIfStmt, syntax.KindWhileStmt:
			if kw := keywordBefore(parent, idx); kw != "" {
				if kw == "elif" {
					c.Lazy = true
				}
				if !classSet {
					c.Class = ConditionalTest
					classSet = true
					if kw == "while" {
						c.While = parent
					}
				}
			}

		case syntax.KindSuite:
			if isBlockSuite(parent) {
				c.Anchor = child
				if !classSet {
					c.Class = StatementLevel
				}
				if c.Nested {
					c.Class = effectiveNested(c.Class)
				}
				return c
			}
			// An inline suite cannot take an inserted statement, and
			// its body only runs when the clause is taken.
			c.Lazy = true
		case syntax.KindModule:
			c.Anchor = child
			if !classSet {
				c.Class = StatementLevel
			}
			if c.Nested {
				c.Class = effectiveNested(c.Class)
			}
			return c
		}

		child = parent
		parent = parent.Parent()
	}
	// A detached node; callers hand in nodes still attached to a tree.
	c.Anchor = child
	if !classSet {
		c.Class = StatementLevel
	}
	return c
}

// effectiveNested keeps the computed class. The NestedExpr variant only
// surfaces through Classification.Nested; the walk already looked
// through the enclosing assignment expression.
func effectiveNested(h HoistClass) HoistClass { return h }

type forSlot int

const (
	slotOther forSlot = iota
	slotTargets
	slotIter
	slotRest
)

// compForSlot reports which grammatical slot of a comprehension clause
// the child at idx occupies. Children run [async] 'for' targets 'in'
// iter [rest].
func compForSlot(clause *syntax.Internal, idx int) forSlot {
	forIdx := 0
	if first, ok := clause.Child(0).(*syntax.Leaf); ok && first.Value == "async" {
		forIdx = 1
	}
	switch idx {
	case forIdx + 1:
		return slotTargets
	case forIdx + 3:
		return slotIter
	case forIdx + 4:
		return slotRest
	default:
		return slotOther
	}
}

// leadingClause reports whether the clause is the first one of its
// display, rather than nested under another clause or condition.
func leadingClause(clause *syntax.Internal) bool {
	p := clause.Parent()
	if p == nil {
		return true
	}
	return p.Kind() != syntax.KindCompFor && p.Kind() != syntax.KindCompIf
}

// displayCompFor returns the comprehension clause directly under a
// display node, or nil when the node is a plain list or dict display.
func displayCompFor(display *syntax.Internal) *syntax.Internal {
	for _, ch := range display.Children() {
		if in, ok := ch.(*syntax.Internal); ok && in.Kind() == syntax.KindCompFor {
			return in
		}
	}
	return nil
}

// clauseChain flattens the nested for/if clause structure of a
// comprehension into source order.
func clauseChain(comp *syntax.Internal) []*syntax.Internal {
	var out []*syntax.Internal
	for comp != nil {
		if comp.Kind() == syntax.KindCompFor {
			out = append(out, comp)
		}
		var next *syntax.Internal
		for _, ch := range comp.Children() {
			if in, ok := ch.(*syntax.Internal); ok {
				if in.Kind() == syntax.KindCompFor || in.Kind() == syntax.KindCompIf {
					next = in
				}
			}
		}
		comp = next
	}
	return out
}

// compForTargets collects the names bound by one clause's target list.
func compForTargets(clause *syntax.Internal) []string {
	forIdx := 0
	if first, ok := clause.Child(0).(*syntax.Leaf); ok && first.Value == "async" {
		forIdx = 1
	}
	if forIdx+1 >= clause.NumChildren() {
		return nil
	}
	return targetNames(clause.Child(forIdx + 1))
}

// comparisonOperand returns the ordinal of the operand containing
// child within a comparison chain, counting from zero.
func comparisonOperand(cmp *syntax.Internal, child syntax.Node) int {
	ordinal := -1
	expectOperand := true
	kids := cmp.Children()
	for i := 0; i < len(kids); i++ {
		if expectOperand {
			ordinal++
			if kids[i] == child {
				return ordinal
			}
			expectOperand = false
			continue
		}
		// Operator position; 'is not' and 'not in' span two leaves.
		if leaf, ok := kids[i].(*syntax.Leaf); ok {
			if (leaf.Value == "is" || leaf.Value == "not") && i+1 < len(kids) {
				if next, ok := kids[i+1].(*syntax.Leaf); ok && (next.Value == "not" || next.Value == "in") {
					i++
				}
			}
		}
		expectOperand = true
	}
	return ordinal
}

// keywordBefore returns the keyword leaf value immediately preceding
// the child at idx, if any. It identifies which clause of an if or
// while statement the child belongs to.
func keywordBefore(parent *syntax.Internal, idx int) string {
	if idx == 0 {
		return ""
	}
	if leaf, ok := parent.Child(idx - 1).(*syntax.Leaf); ok && leaf.Kind() == syntax.KindKeyword {
		return leaf.Value
	}
	return ""
}

// isBlockSuite reports whether a suite holds an indented block rather
// than inline statements after the colon.
func isBlockSuite(suite *syntax.Internal) bool {
	if suite.NumChildren() == 0 {
		return false
	}
	leaf, ok := suite.Child(0).(*syntax.Leaf)
	return ok && leaf.Kind() == syntax.KindNewline
}

func appendNames(dst []string, names []string) []string {
	for _, n := range names {
		seen := false
		for _, d := range dst {
			if d == n {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, n)
		}
	}
	return dst
}
