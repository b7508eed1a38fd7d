// Package transform implements the assignment expression rewrite:
// locating every `name := expr` in a lossless syntax tree, deciding
// where a hoisted assignment can legally be placed, generating the
// replacement code, and patching the tree so that everything outside
// the rewritten spans is preserved byte for byte.
package transform

import "fmt"

// HoistClass categorizes the syntactic context of an assignment
// expression, which dictates how a preceding assignment statement
// can be introduced for it.
type HoistClass int

const (
	// StatementLevel: the node sits inside a statement whose
	// containing suite can receive a new sibling statement.
	StatementLevel HoistClass = iota
	// ConditionalTest: the node is in the test of an if, elif or
	// while clause; the hoist goes before the compound statement,
	// with while loops re-hoisting at the end of the body.
	ConditionalTest
	// ComprehensionClause: the node is inside a comprehension's
	// element, condition or iterable; no enclosing statement exists,
	// so a helper callable is introduced instead.
	ComprehensionClause
	// LambdaBody: the node is inside a lambda body; restructuring
	// via a hoisted helper function is required.
	LambdaBody
	// NestedExpr: the node sits inside the value expression of
	// another assignment expression and is resolved before its
	// parent.
	NestedExpr
)

func (h HoistClass) String() string {
	switch h {
	case StatementLevel:
		return "statement"
	case ConditionalTest:
		return "conditional-test"
	case ComprehensionClause:
		return "comprehension"
	case LambdaBody:
		return "lambda-body"
	case NestedExpr:
		return "nested-expression"
	default:
		return fmt.Sprintf("unknown(%d)", int(h))
	}
}
