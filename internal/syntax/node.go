package syntax

import (
	"fmt"
	"strings"

	"github.com/JarryShaw/walrus/internal/position"
)

// Kind identifies the grammar production (for internal nodes) or the
// token class (for leaves) of a CST node.
type Kind int

const (
	// Leaf kinds
	KindName Kind = iota
	KindKeyword
	KindNumber
	KindString
	KindOperator
	KindNewline
	KindEndMarker

	// Statements
	KindModule
	KindSimpleStmt
	KindExprStmt
	KindReturnStmt
	KindDelStmt
	KindAssertStmt
	KindRaiseStmt
	KindGlobalStmt
	KindNonlocalStmt
	KindImportName
	KindImportFrom
	KindDottedName
	KindImportAs
	KindIfStmt
	KindWhileStmt
	KindForStmt
	KindTryStmt
	KindExceptClause
	KindWithStmt
	KindWithItem
	KindFuncDef
	KindClassDef
	KindDecorator
	KindDecorated
	KindAsyncStmt
	KindSuite

	// Parameters
	KindParamList
	KindParam

	// Expressions
	KindNamedExpr
	KindTernary
	KindLambda
	KindOrTest
	KindAndTest
	KindNotTest
	KindComparison
	KindStarExpr
	KindBinOp
	KindUnaryOp
	KindPower
	KindAtomExpr
	KindTrailer
	KindAtom
	KindStrings
	KindTestlist
	KindTestlistComp
	KindDictOrSetMaker
	KindKeyValue
	KindCompFor
	KindCompIf
	KindSlice
	KindSubscriptList
	KindArglist
	KindArgument
	KindYieldExpr
)

// kindNames provides string representations for node kinds
var kindNames = map[Kind]string{
	KindName:           "name",
	KindKeyword:        "keyword",
	KindNumber:         "number",
	KindString:         "string",
	KindOperator:       "operator",
	KindNewline:        "newline",
	KindEndMarker:      "endmarker",
	KindModule:         "module",
	KindSimpleStmt:     "simple_stmt",
	KindExprStmt:       "expr_stmt",
	KindReturnStmt:     "return_stmt",
	KindDelStmt:        "del_stmt",
	KindAssertStmt:     "assert_stmt",
	KindRaiseStmt:      "raise_stmt",
	KindGlobalStmt:     "global_stmt",
	KindNonlocalStmt:   "nonlocal_stmt",
	KindImportName:     "import_name",
	KindImportFrom:     "import_from",
	KindDottedName:     "dotted_name",
	KindImportAs:       "import_as",
	KindIfStmt:         "if_stmt",
	KindWhileStmt:      "while_stmt",
	KindForStmt:        "for_stmt",
	KindTryStmt:        "try_stmt",
	KindExceptClause:   "except_clause",
	KindWithStmt:       "with_stmt",
	KindWithItem:       "with_item",
	KindFuncDef:        "funcdef",
	KindClassDef:       "classdef",
	KindDecorator:      "decorator",
	KindDecorated:      "decorated",
	KindAsyncStmt:      "async_stmt",
	KindSuite:          "suite",
	KindParamList:      "param_list",
	KindParam:          "param",
	KindNamedExpr:      "namedexpr_test",
	KindTernary:        "ternary",
	KindLambda:         "lambdef",
	KindOrTest:         "or_test",
	KindAndTest:        "and_test",
	KindNotTest:        "not_test",
	KindComparison:     "comparison",
	KindStarExpr:       "star_expr",
	KindBinOp:          "binop",
	KindUnaryOp:        "unaryop",
	KindPower:          "power",
	KindAtomExpr:       "atom_expr",
	KindTrailer:        "trailer",
	KindAtom:           "atom",
	KindStrings:        "strings",
	KindTestlist:       "testlist",
	KindTestlistComp:   "testlist_comp",
	KindDictOrSetMaker: "dictorsetmaker",
	KindKeyValue:       "key_value",
	KindCompFor:        "comp_for",
	KindCompIf:         "comp_if",
	KindSlice:          "slice",
	KindSubscriptList:  "subscript_list",
	KindArglist:        "arglist",
	KindArgument:       "argument",
	KindYieldExpr:      "yield_expr",
}

// String returns a string representation of the node kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Node is a single element of the concrete syntax tree: either a
// Leaf holding one token, or an Internal node holding an ordered
// sequence of children. Serializing the root of an unmodified tree
// yields the original source text byte for byte.
type Node interface {
	Kind() Kind
	Parent() *Internal
	Code() string
	FirstLeaf() *Leaf
	LastLeaf() *Leaf
	StartPos() position.Position

	writeTo(b *strings.Builder)
	setParent(p *Internal)
}

// Leaf is a single token with its preceding trivia.
type Leaf struct {
	kind   Kind
	Prefix string // whitespace, comments and continuations before the token
	Value  string // exact token text
	Pos    position.Position
	parent *Internal
}

// NewLeaf creates a leaf node with explicit prefix trivia.
func NewLeaf(kind Kind, prefix, value string) *Leaf {
	return &Leaf{kind: kind, Prefix: prefix, Value: value}
}

// Kind returns the leaf's token class.
func (l *Leaf) Kind() Kind { return l.kind }

// Parent returns the enclosing internal node, or nil for a detached leaf.
func (l *Leaf) Parent() *Internal { return l.parent }

// Code returns the exact source text of the leaf, prefix included.
func (l *Leaf) Code() string { return l.Prefix + l.Value }

// FirstLeaf returns the leaf itself.
func (l *Leaf) FirstLeaf() *Leaf { return l }

// LastLeaf returns the leaf itself.
func (l *Leaf) LastLeaf() *Leaf { return l }

// StartPos returns the position of the token text, after the prefix.
func (l *Leaf) StartPos() position.Position { return l.Pos }

func (l *Leaf) writeTo(b *strings.Builder) {
	b.WriteString(l.Prefix)
	b.WriteString(l.Value)
}

func (l *Leaf) setParent(p *Internal) { l.parent = p }

// Internal is a grammar production with ordered children.
type Internal struct {
	kind     Kind
	children []Node
	parent   *Internal
}

// NewInternal creates an internal node and adopts the given children.
func NewInternal(kind Kind, children ...Node) *Internal {
	n := &Internal{kind: kind, children: children}
	for _, c := range children {
		c.setParent(n)
	}
	return n
}

// Kind returns the production kind.
func (n *Internal) Kind() Kind { return n.kind }

// Parent returns the enclosing internal node, or nil for the root.
func (n *Internal) Parent() *Internal { return n.parent }

// Children returns the ordered child nodes. The returned slice is
// the node's own; callers must not modify it directly.
func (n *Internal) Children() []Node { return n.children }

// NumChildren returns the number of children.
func (n *Internal) NumChildren() int { return len(n.children) }

// Child returns the i-th child.
func (n *Internal) Child(i int) Node { return n.children[i] }

// Code returns the exact source text of the subtree.
func (n *Internal) Code() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

// FirstLeaf returns the first leaf in the subtree.
func (n *Internal) FirstLeaf() *Leaf {
	for _, c := range n.children {
		if l := c.FirstLeaf(); l != nil {
			return l
		}
	}
	return nil
}

// LastLeaf returns the last leaf in the subtree.
func (n *Internal) LastLeaf() *Leaf {
	for i := len(n.children) - 1; i >= 0; i-- {
		if l := n.children[i].LastLeaf(); l != nil {
			return l
		}
	}
	return nil
}

// StartPos returns the position of the first token in the subtree.
func (n *Internal) StartPos() position.Position {
	if l := n.FirstLeaf(); l != nil {
		return l.Pos
	}
	return position.Position{}
}

func (n *Internal) writeTo(b *strings.Builder) {
	for _, c := range n.children {
		c.writeTo(b)
	}
}

func (n *Internal) setParent(p *Internal) { n.parent = p }

// IndexOf returns the index of child among the node's children, or -1.
func (n *Internal) IndexOf(child Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// ReplaceChild substitutes newChild for oldChild in place.
func (n *Internal) ReplaceChild(oldChild, newChild Node) bool {
	i := n.IndexOf(oldChild)
	if i < 0 {
		return false
	}
	n.children[i] = newChild
	newChild.setParent(n)
	return true
}

// InsertBefore inserts nodes immediately before mark. Successive
// insertions at the same mark therefore stack in call order.
func (n *Internal) InsertBefore(mark Node, nodes ...Node) bool {
	i := n.IndexOf(mark)
	if i < 0 {
		return false
	}
	for _, node := range nodes {
		node.setParent(n)
	}
	n.children = append(n.children[:i], append(append([]Node{}, nodes...), n.children[i:]...)...)
	return true
}

// AppendChild adds nodes at the end of the child list.
func (n *Internal) AppendChild(nodes ...Node) {
	for _, node := range nodes {
		node.setParent(n)
	}
	n.children = append(n.children, nodes...)
}

// Tree is a parsed module. The root is always a module node whose
// last child is the end marker carrying any trailing trivia.
type Tree struct {
	Root *Internal
}

// Code re-serializes the tree. For an unmodified tree the result is
// byte-identical to the parsed source.
func (t *Tree) Code() string {
	return t.Root.Code()
}

// Walk visits every node of the subtree in depth-first order,
// children after the visit of their parent returns true.
func Walk(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}
	if in, ok := n.(*Internal); ok {
		for _, c := range in.children {
			Walk(c, visit)
		}
	}
}

// leafKindFor maps token types to leaf kinds.
func leafKindFor(t Token) Kind {
	switch t.Type {
	case TokenName:
		return KindName
	case TokenKeyword:
		return KindKeyword
	case TokenNumber:
		return KindNumber
	case TokenString:
		return KindString
	case TokenNewline:
		return KindNewline
	case TokenEOF:
		return KindEndMarker
	default:
		return KindOperator
	}
}

// leafFor builds a leaf from a token, keeping its exact trivia and
// position.
func leafFor(t Token) *Leaf {
	return &Leaf{kind: leafKindFor(t), Prefix: t.Prefix, Value: t.Value, Pos: t.Pos}
}
