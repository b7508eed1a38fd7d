package syntax

import (
	"fmt"
)

// Parse builds a lossless concrete syntax tree from Python source.
// The filename is used only for positions in error messages.
func Parse(source, filename string) (*Tree, error) {
	tokens, err := Tokenize(source, filename)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseModule()
	if err != nil {
		return nil, err
	}
	return &Tree{Root: root}, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) cur() Token {
	return p.tokens[p.pos]
}

func (p *parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

// take consumes the current token as a leaf.
func (p *parser) take() *Leaf {
	l := leafFor(p.cur())
	p.pos++
	return l
}

// skip consumes the current token without producing a node, used for
// the zero-width indent and dedent tokens.
func (p *parser) skip() {
	p.pos++
}

func (p *parser) atType(tt TokenType) bool {
	return p.cur().Type == tt
}

func (p *parser) atOp(op string) bool {
	t := p.cur()
	return t.Type == TokenOp && t.Value == op
}

func (p *parser) atKw(word string) bool {
	t := p.cur()
	return t.Type == TokenKeyword && t.Value == word
}

func (p *parser) errorf(format string, args ...interface{}) error {
	t := p.cur()
	return &ParseError{
		Msg:   fmt.Sprintf(format, args...),
		Pos:   t.Pos,
		AtEOF: t.Type == TokenEOF,
	}
}

func (p *parser) expectOp(op string) (*Leaf, error) {
	if !p.atOp(op) {
		return nil, p.errorf("expected %q, found %q", op, p.cur().Value)
	}
	return p.take(), nil
}

func (p *parser) expectKw(word string) (*Leaf, error) {
	if !p.atKw(word) {
		return nil, p.errorf("expected keyword %q, found %q", word, p.cur().Value)
	}
	return p.take(), nil
}

func (p *parser) expectName() (*Leaf, error) {
	if !p.atType(TokenName) {
		return nil, p.errorf("expected name, found %q", p.cur().Value)
	}
	return p.take(), nil
}

func (p *parser) expectNewline() (*Leaf, error) {
	if !p.atType(TokenNewline) {
		return nil, p.errorf("expected end of line, found %q", p.cur().Value)
	}
	return p.take(), nil
}

// parseModule parses the whole file: a statement list followed by
// the end marker.
func (p *parser) parseModule() (*Internal, error) {
	var children []Node
	for !p.atType(TokenEOF) {
		if p.atType(TokenIndent) {
			return nil, p.errorf("unexpected indent")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		children = append(children, stmt)
	}
	children = append(children, p.take()) // end marker with trailing trivia
	return NewInternal(KindModule, children...), nil
}

func (p *parser) parseStatement() (Node, error) {
	if p.atOp("@") {
		return p.parseDecorated()
	}
	if p.atType(TokenKeyword) {
		switch p.cur().Value {
		case "if":
			return p.parseIfStmt()
		case "while":
			return p.parseWhileStmt()
		case "for":
			return p.parseForStmt()
		case "try":
			return p.parseTryStmt()
		case "with":
			return p.parseWithStmt()
		case "def":
			return p.parseFuncDef()
		case "class":
			return p.parseClassDef()
		case "async":
			return p.parseAsyncStmt()
		}
	}
	return p.parseSimpleLine()
}

// parseSimpleLine parses one logical line of semicolon-separated
// small statements terminated by a newline.
func (p *parser) parseSimpleLine() (Node, error) {
	var children []Node
	for {
		stmt, err := p.parseSmallStmt()
		if err != nil {
			return nil, err
		}
		children = append(children, stmt)
		if !p.atOp(";") {
			break
		}
		children = append(children, p.take())
		if p.atType(TokenNewline) {
			break
		}
	}
	nl, err := p.expectNewline()
	if err != nil {
		return nil, err
	}
	children = append(children, nl)
	return NewInternal(KindSimpleStmt, children...), nil
}

func (p *parser) parseSmallStmt() (Node, error) {
	if p.atType(TokenKeyword) {
		switch p.cur().Value {
		case "pass", "break", "continue":
			return p.take(), nil
		case "return":
			return p.parseReturnStmt()
		case "raise":
			return p.parseRaiseStmt()
		case "del":
			return p.parseDelStmt()
		case "assert":
			return p.parseAssertStmt()
		case "global":
			return p.parseNameListStmt(KindGlobalStmt)
		case "nonlocal":
			return p.parseNameListStmt(KindNonlocalStmt)
		case "import":
			return p.parseImportName()
		case "from":
			return p.parseImportFrom()
		case "yield":
			return p.parseYieldExpr()
		}
	}
	return p.parseExprStmt()
}

func (p *parser) parseReturnStmt() (Node, error) {
	kw := p.take()
	if !p.canStartTest() {
		return NewInternal(KindReturnStmt, kw), nil
	}
	value, err := p.parseTestlistStarExpr()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindReturnStmt, kw, value), nil
}

func (p *parser) parseRaiseStmt() (Node, error) {
	children := []Node{p.take()}
	if p.canStartTest() {
		exc, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		children = append(children, exc)
		if p.atKw("from") {
			children = append(children, p.take())
			cause, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			children = append(children, cause)
		}
	}
	return NewInternal(KindRaiseStmt, children...), nil
}

func (p *parser) parseDelStmt() (Node, error) {
	kw := p.take()
	targets, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindDelStmt, kw, targets), nil
}

func (p *parser) parseAssertStmt() (Node, error) {
	children := []Node{p.take()}
	cond, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	children = append(children, cond)
	if p.atOp(",") {
		children = append(children, p.take())
		msg, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		children = append(children, msg)
	}
	return NewInternal(KindAssertStmt, children...), nil
}

func (p *parser) parseNameListStmt(kind Kind) (Node, error) {
	children := []Node{p.take()}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	children = append(children, name)
	for p.atOp(",") {
		children = append(children, p.take())
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		children = append(children, name)
	}
	return NewInternal(kind, children...), nil
}

func (p *parser) parseDottedName() (Node, error) {
	first, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if !p.atOp(".") {
		return first, nil
	}
	children := []Node{first}
	for p.atOp(".") {
		children = append(children, p.take())
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		children = append(children, name)
	}
	return NewInternal(KindDottedName, children...), nil
}

// parseImportTarget parses "x" or "x as y".
func (p *parser) parseImportTarget(dotted bool) (Node, error) {
	var name Node
	var err error
	if dotted {
		name, err = p.parseDottedName()
	} else {
		name, err = p.expectName()
	}
	if err != nil {
		return nil, err
	}
	if !p.atKw("as") {
		return name, nil
	}
	as := p.take()
	alias, err := p.expectName()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindImportAs, name, as, alias), nil
}

func (p *parser) parseImportName() (Node, error) {
	children := []Node{p.take()}
	for {
		target, err := p.parseImportTarget(true)
		if err != nil {
			return nil, err
		}
		children = append(children, target)
		if !p.atOp(",") {
			break
		}
		children = append(children, p.take())
	}
	return NewInternal(KindImportName, children...), nil
}

func (p *parser) parseImportFrom() (Node, error) {
	children := []Node{p.take()}
	for p.atOp(".") || p.atOp("...") {
		children = append(children, p.take())
	}
	if p.atType(TokenName) {
		mod, err := p.parseDottedName()
		if err != nil {
			return nil, err
		}
		children = append(children, mod)
	}
	kw, err := p.expectKw("import")
	if err != nil {
		return nil, err
	}
	children = append(children, kw)
	switch {
	case p.atOp("*"):
		children = append(children, p.take())
	case p.atOp("("):
		children = append(children, p.take())
		for !p.atOp(")") {
			target, err := p.parseImportTarget(false)
			if err != nil {
				return nil, err
			}
			children = append(children, target)
			if p.atOp(",") {
				children = append(children, p.take())
			} else {
				break
			}
		}
		closer, err := p.expectOp(")")
		if err != nil {
			return nil, err
		}
		children = append(children, closer)
	default:
		for {
			target, err := p.parseImportTarget(false)
			if err != nil {
				return nil, err
			}
			children = append(children, target)
			if !p.atOp(",") {
				break
			}
			children = append(children, p.take())
		}
	}
	return NewInternal(KindImportFrom, children...), nil
}

// parseExprStmt parses assignments, augmented and annotated
// assignments, and bare expression statements. A bare expression is
// returned unwrapped, matching the lossless-tree convention of not
// inventing single-child productions.
func (p *parser) parseExprStmt() (Node, error) {
	first, err := p.parseTestlistStarExpr()
	if err != nil {
		return nil, err
	}
	children := []Node{first}

	if p.atOp(":") { // annotated assignment
		children = append(children, p.take())
		ann, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		children = append(children, ann)
		if p.atOp("=") {
			children = append(children, p.take())
			value, err := p.parseYieldOrTestlistStar()
			if err != nil {
				return nil, err
			}
			children = append(children, value)
		}
		return NewInternal(KindExprStmt, children...), nil
	}

	if op := p.cur(); op.Type == TokenOp && isAugAssign(op.Value) {
		children = append(children, p.take())
		value, err := p.parseYieldOrTestlistStar()
		if err != nil {
			return nil, err
		}
		children = append(children, value)
		return NewInternal(KindExprStmt, children...), nil
	}

	for p.atOp("=") {
		children = append(children, p.take())
		value, err := p.parseYieldOrTestlistStar()
		if err != nil {
			return nil, err
		}
		children = append(children, value)
	}
	if len(children) == 1 {
		return first, nil
	}
	return NewInternal(KindExprStmt, children...), nil
}

func isAugAssign(op string) bool {
	switch op {
	case "+=", "-=", "*=", "@=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=", "**=", "//=":
		return true
	}
	return false
}

func (p *parser) parseYieldOrTestlistStar() (Node, error) {
	if p.atKw("yield") {
		return p.parseYieldExpr()
	}
	return p.parseTestlistStarExpr()
}

// Compound statements.

func (p *parser) parseIfStmt() (Node, error) {
	children := []Node{p.take()}
	cond, err := p.parseNamedTest()
	if err != nil {
		return nil, err
	}
	children = append(children, cond)
	if err := p.parseColonSuite(&children); err != nil {
		return nil, err
	}
	for p.atKw("elif") {
		children = append(children, p.take())
		cond, err := p.parseNamedTest()
		if err != nil {
			return nil, err
		}
		children = append(children, cond)
		if err := p.parseColonSuite(&children); err != nil {
			return nil, err
		}
	}
	if err := p.parseOptionalElse(&children); err != nil {
		return nil, err
	}
	return NewInternal(KindIfStmt, children...), nil
}

func (p *parser) parseWhileStmt() (Node, error) {
	children := []Node{p.take()}
	cond, err := p.parseNamedTest()
	if err != nil {
		return nil, err
	}
	children = append(children, cond)
	if err := p.parseColonSuite(&children); err != nil {
		return nil, err
	}
	if err := p.parseOptionalElse(&children); err != nil {
		return nil, err
	}
	return NewInternal(KindWhileStmt, children...), nil
}

func (p *parser) parseForStmt() (Node, error) {
	children := []Node{p.take()}
	targets, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	children = append(children, targets)
	in, err := p.expectKw("in")
	if err != nil {
		return nil, err
	}
	children = append(children, in)
	iter, err := p.parseTestlist()
	if err != nil {
		return nil, err
	}
	children = append(children, iter)
	if err := p.parseColonSuite(&children); err != nil {
		return nil, err
	}
	if err := p.parseOptionalElse(&children); err != nil {
		return nil, err
	}
	return NewInternal(KindForStmt, children...), nil
}

func (p *parser) parseTryStmt() (Node, error) {
	children := []Node{p.take()}
	if err := p.parseColonSuite(&children); err != nil {
		return nil, err
	}
	for p.atKw("except") {
		clause := []Node{p.take()}
		if p.canStartTest() {
			exc, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			clause = append(clause, exc)
			if p.atKw("as") {
				clause = append(clause, p.take())
				name, err := p.expectName()
				if err != nil {
					return nil, err
				}
				clause = append(clause, name)
			}
		}
		children = append(children, NewInternal(KindExceptClause, clause...))
		if err := p.parseColonSuite(&children); err != nil {
			return nil, err
		}
	}
	if err := p.parseOptionalElse(&children); err != nil {
		return nil, err
	}
	if p.atKw("finally") {
		children = append(children, p.take())
		if err := p.parseColonSuite(&children); err != nil {
			return nil, err
		}
	}
	return NewInternal(KindTryStmt, children...), nil
}

func (p *parser) parseWithStmt() (Node, error) {
	children := []Node{p.take()}
	for {
		item, err := p.parseWithItem()
		if err != nil {
			return nil, err
		}
		children = append(children, item)
		if !p.atOp(",") {
			break
		}
		children = append(children, p.take())
	}
	if err := p.parseColonSuite(&children); err != nil {
		return nil, err
	}
	return NewInternal(KindWithStmt, children...), nil
}

func (p *parser) parseWithItem() (Node, error) {
	ctx, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if !p.atKw("as") {
		return ctx, nil
	}
	as := p.take()
	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindWithItem, ctx, as, target), nil
}

func (p *parser) parseFuncDef() (Node, error) {
	children := []Node{p.take()}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	children = append(children, name)
	params, err := p.parseParameters()
	if err != nil {
		return nil, err
	}
	children = append(children, params)
	if p.atOp("->") {
		children = append(children, p.take())
		ret, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		children = append(children, ret)
	}
	if err := p.parseColonSuite(&children); err != nil {
		return nil, err
	}
	return NewInternal(KindFuncDef, children...), nil
}

func (p *parser) parseClassDef() (Node, error) {
	children := []Node{p.take()}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	children = append(children, name)
	if p.atOp("(") {
		children = append(children, p.take())
		if !p.atOp(")") {
			args, err := p.parseArglist()
			if err != nil {
				return nil, err
			}
			children = append(children, args)
		}
		closer, err := p.expectOp(")")
		if err != nil {
			return nil, err
		}
		children = append(children, closer)
	}
	if err := p.parseColonSuite(&children); err != nil {
		return nil, err
	}
	return NewInternal(KindClassDef, children...), nil
}

func (p *parser) parseDecorated() (Node, error) {
	var children []Node
	for p.atOp("@") {
		dec := []Node{p.take()}
		expr, err := p.parseNamedTest()
		if err != nil {
			return nil, err
		}
		dec = append(dec, expr)
		nl, err := p.expectNewline()
		if err != nil {
			return nil, err
		}
		dec = append(dec, nl)
		children = append(children, NewInternal(KindDecorator, dec...))
	}
	var def Node
	var err error
	switch {
	case p.atKw("def"):
		def, err = p.parseFuncDef()
	case p.atKw("class"):
		def, err = p.parseClassDef()
	case p.atKw("async"):
		def, err = p.parseAsyncStmt()
	default:
		return nil, p.errorf("expected def, class or async after decorator")
	}
	if err != nil {
		return nil, err
	}
	children = append(children, def)
	return NewInternal(KindDecorated, children...), nil
}

func (p *parser) parseAsyncStmt() (Node, error) {
	kw := p.take()
	var stmt Node
	var err error
	switch {
	case p.atKw("def"):
		stmt, err = p.parseFuncDef()
	case p.atKw("with"):
		stmt, err = p.parseWithStmt()
	case p.atKw("for"):
		stmt, err = p.parseForStmt()
	default:
		return nil, p.errorf("expected def, with or for after async")
	}
	if err != nil {
		return nil, err
	}
	return NewInternal(KindAsyncStmt, kw, stmt), nil
}

func (p *parser) parseColonSuite(children *[]Node) error {
	colon, err := p.expectOp(":")
	if err != nil {
		return err
	}
	*children = append(*children, colon)
	suite, err := p.parseSuite()
	if err != nil {
		return err
	}
	*children = append(*children, suite)
	return nil
}

func (p *parser) parseOptionalElse(children *[]Node) error {
	if !p.atKw("else") {
		return nil
	}
	*children = append(*children, p.take())
	return p.parseColonSuite(children)
}

// parseSuite parses either an inline statement after the colon or an
// indented block. Indent and dedent markers are zero-width and are
// consumed without becoming tree nodes; the indentation itself lives
// in leaf prefixes.
func (p *parser) parseSuite() (Node, error) {
	if !p.atType(TokenNewline) {
		stmt, err := p.parseSimpleLine()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindSuite, stmt), nil
	}
	children := []Node{p.take()}
	if !p.atType(TokenIndent) {
		return nil, p.errorf("expected an indented block")
	}
	p.skip()
	for !p.atType(TokenDedent) && !p.atType(TokenEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		children = append(children, stmt)
	}
	if p.atType(TokenDedent) {
		p.skip()
	}
	return NewInternal(KindSuite, children...), nil
}

// parseParameters parses a parenthesized typed parameter list.
func (p *parser) parseParameters() (Node, error) {
	open, err := p.expectOp("(")
	if err != nil {
		return nil, err
	}
	children := []Node{open}
	for !p.atOp(")") {
		switch {
		case p.atOp("*") || p.atOp("**") || p.atOp("/"):
			children = append(children, p.take())
			if p.atType(TokenName) {
				param, err := p.parseParam(true)
				if err != nil {
					return nil, err
				}
				children = append(children, param)
			}
		case p.atType(TokenName):
			param, err := p.parseParam(true)
			if err != nil {
				return nil, err
			}
			children = append(children, param)
		default:
			return nil, p.errorf("unexpected token %q in parameter list", p.cur().Value)
		}
		if !p.atOp(",") {
			break
		}
		children = append(children, p.take())
	}
	closer, err := p.expectOp(")")
	if err != nil {
		return nil, err
	}
	children = append(children, closer)
	return NewInternal(KindParamList, children...), nil
}

// parseParam parses a single parameter; annotations are only legal
// in def parameter lists, not after lambda.
func (p *parser) parseParam(annotated bool) (Node, error) {
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	children := []Node{name}
	if annotated && p.atOp(":") {
		children = append(children, p.take())
		ann, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		children = append(children, ann)
	}
	if p.atOp("=") {
		children = append(children, p.take())
		def, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		children = append(children, def)
	}
	if len(children) == 1 {
		return name, nil
	}
	return NewInternal(KindParam, children...), nil
}
