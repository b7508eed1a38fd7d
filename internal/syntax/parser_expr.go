package syntax

// Expression parsing. The productions mirror the Python 3.8 grammar,
// kept deliberately permissive in a few corners (a converter has no
// duty to reject every invalid program, only to never mangle a valid
// one).

// canStartTest reports whether the current token can begin an
// expression.
func (p *parser) canStartTest() bool {
	t := p.cur()
	switch t.Type {
	case TokenName, TokenNumber, TokenString:
		return true
	case TokenKeyword:
		switch t.Value {
		case "None", "True", "False", "not", "lambda", "await":
			return true
		}
		return false
	case TokenOp:
		switch t.Value {
		case "(", "[", "{", "*", "**", "+", "-", "~", "...":
			return true
		}
		return false
	}
	return false
}

// parseNamedTest parses namedexpr_test: test [':=' test].
func (p *parser) parseNamedTest() (Node, error) {
	target, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if !p.atOp(":=") {
		return target, nil
	}
	op := p.take()
	value, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindNamedExpr, target, op, value), nil
}

// parseTest parses test: or_test ['if' or_test 'else' test] | lambdef.
func (p *parser) parseTest() (Node, error) {
	if p.atKw("lambda") {
		return p.parseLambda()
	}
	body, err := p.parseOrTest()
	if err != nil {
		return nil, err
	}
	if !p.atKw("if") {
		return body, nil
	}
	ifKw := p.take()
	cond, err := p.parseOrTest()
	if err != nil {
		return nil, err
	}
	elseKw, err := p.expectKw("else")
	if err != nil {
		return nil, err
	}
	els, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindTernary, body, ifKw, cond, elseKw, els), nil
}

func (p *parser) parseLambda() (Node, error) {
	children := []Node{p.take()}
	var params []Node
	for !p.atOp(":") {
		switch {
		case p.atOp("*") || p.atOp("**") || p.atOp("/"):
			params = append(params, p.take())
			if p.atType(TokenName) {
				param, err := p.parseParam(false)
				if err != nil {
					return nil, err
				}
				params = append(params, param)
			}
		case p.atType(TokenName):
			param, err := p.parseParam(false)
			if err != nil {
				return nil, err
			}
			params = append(params, param)
		default:
			return nil, p.errorf("unexpected token %q in lambda parameters", p.cur().Value)
		}
		if !p.atOp(",") {
			break
		}
		params = append(params, p.take())
	}
	if len(params) > 0 {
		children = append(children, NewInternal(KindParamList, params...))
	}
	colon, err := p.expectOp(":")
	if err != nil {
		return nil, err
	}
	children = append(children, colon)
	body, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	children = append(children, body)
	return NewInternal(KindLambda, children...), nil
}

func (p *parser) parseOrTest() (Node, error) {
	return p.parseBoolOp(KindOrTest, "or", p.parseAndTest)
}

func (p *parser) parseAndTest() (Node, error) {
	return p.parseBoolOp(KindAndTest, "and", p.parseNotTest)
}

func (p *parser) parseBoolOp(kind Kind, word string, next func() (Node, error)) (Node, error) {
	first, err := next()
	if err != nil {
		return nil, err
	}
	if !p.atKw(word) {
		return first, nil
	}
	children := []Node{first}
	for p.atKw(word) {
		children = append(children, p.take())
		operand, err := next()
		if err != nil {
			return nil, err
		}
		children = append(children, operand)
	}
	return NewInternal(kind, children...), nil
}

func (p *parser) parseNotTest() (Node, error) {
	if p.atKw("not") {
		kw := p.take()
		operand, err := p.parseNotTest()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindNotTest, kw, operand), nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Node, error) {
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	for {
		t := p.cur()
		switch {
		case t.Type == TokenOp && isCompOp(t.Value):
			children = append(children, p.take())
		case t.Type == TokenKeyword && t.Value == "in":
			children = append(children, p.take())
		case t.Type == TokenKeyword && t.Value == "is":
			children = append(children, p.take())
			if p.atKw("not") {
				children = append(children, p.take())
			}
		case t.Type == TokenKeyword && t.Value == "not" &&
			p.peek(1).Type == TokenKeyword && p.peek(1).Value == "in":
			children = append(children, p.take(), p.take())
		default:
			if len(children) == 1 {
				return first, nil
			}
			return NewInternal(KindComparison, children...), nil
		}
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, operand)
	}
}

func isCompOp(op string) bool {
	switch op {
	case "<", ">", "==", ">=", "<=", "!=":
		return true
	}
	return false
}

func (p *parser) parseExpr() (Node, error) {
	return p.parseBinOp(p.parseXorExpr, "|")
}

func (p *parser) parseXorExpr() (Node, error) {
	return p.parseBinOp(p.parseAndExpr, "^")
}

func (p *parser) parseAndExpr() (Node, error) {
	return p.parseBinOp(p.parseShiftExpr, "&")
}

func (p *parser) parseShiftExpr() (Node, error) {
	return p.parseBinOp(p.parseArithExpr, "<<", ">>")
}

func (p *parser) parseArithExpr() (Node, error) {
	return p.parseBinOp(p.parseTerm, "+", "-")
}

func (p *parser) parseTerm() (Node, error) {
	return p.parseBinOp(p.parseFactor, "*", "@", "/", "%", "//")
}

func (p *parser) parseBinOp(next func() (Node, error), ops ...string) (Node, error) {
	atAnyOp := func() bool {
		for _, op := range ops {
			if p.atOp(op) {
				return true
			}
		}
		return false
	}
	first, err := next()
	if err != nil {
		return nil, err
	}
	if !atAnyOp() {
		return first, nil
	}
	children := []Node{first}
	for atAnyOp() {
		children = append(children, p.take())
		operand, err := next()
		if err != nil {
			return nil, err
		}
		children = append(children, operand)
	}
	return NewInternal(KindBinOp, children...), nil
}

func (p *parser) parseFactor() (Node, error) {
	if p.atOp("+") || p.atOp("-") || p.atOp("~") {
		op := p.take()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindUnaryOp, op, operand), nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parseAtomExpr()
	if err != nil {
		return nil, err
	}
	if !p.atOp("**") {
		return base, nil
	}
	op := p.take()
	exp, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindPower, base, op, exp), nil
}

func (p *parser) parseAtomExpr() (Node, error) {
	var children []Node
	if p.atKw("await") {
		children = append(children, p.take())
	}
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	children = append(children, atom)
	for p.atOp("(") || p.atOp("[") || p.atOp(".") {
		trailer, err := p.parseTrailer()
		if err != nil {
			return nil, err
		}
		children = append(children, trailer)
	}
	if len(children) == 1 {
		return atom, nil
	}
	return NewInternal(KindAtomExpr, children...), nil
}

func (p *parser) parseTrailer() (Node, error) {
	switch {
	case p.atOp("("):
		open := p.take()
		if p.atOp(")") {
			return NewInternal(KindTrailer, open, p.take()), nil
		}
		args, err := p.parseArglist()
		if err != nil {
			return nil, err
		}
		closer, err := p.expectOp(")")
		if err != nil {
			return nil, err
		}
		return NewInternal(KindTrailer, open, args, closer), nil
	case p.atOp("["):
		open := p.take()
		sub, err := p.parseSubscriptList()
		if err != nil {
			return nil, err
		}
		closer, err := p.expectOp("]")
		if err != nil {
			return nil, err
		}
		return NewInternal(KindTrailer, open, sub, closer), nil
	default:
		dot := p.take()
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindTrailer, dot, name), nil
	}
}

func (p *parser) parseAtom() (Node, error) {
	t := p.cur()
	switch t.Type {
	case TokenName, TokenNumber:
		return p.take(), nil
	case TokenString:
		first := p.take()
		if !p.atType(TokenString) {
			return first, nil
		}
		children := []Node{first}
		for p.atType(TokenString) {
			children = append(children, p.take())
		}
		return NewInternal(KindStrings, children...), nil
	case TokenKeyword:
		switch t.Value {
		case "None", "True", "False":
			return p.take(), nil
		}
	case TokenOp:
		switch t.Value {
		case "...":
			return p.take(), nil
		case "(":
			open := p.take()
			if p.atOp(")") {
				return NewInternal(KindAtom, open, p.take()), nil
			}
			var content Node
			var err error
			if p.atKw("yield") {
				content, err = p.parseYieldExpr()
			} else {
				content, err = p.parseTestlistComp()
			}
			if err != nil {
				return nil, err
			}
			closer, err := p.expectOp(")")
			if err != nil {
				return nil, err
			}
			return NewInternal(KindAtom, open, content, closer), nil
		case "[":
			open := p.take()
			if p.atOp("]") {
				return NewInternal(KindAtom, open, p.take()), nil
			}
			content, err := p.parseTestlistComp()
			if err != nil {
				return nil, err
			}
			closer, err := p.expectOp("]")
			if err != nil {
				return nil, err
			}
			return NewInternal(KindAtom, open, content, closer), nil
		case "{":
			open := p.take()
			if p.atOp("}") {
				return NewInternal(KindAtom, open, p.take()), nil
			}
			content, err := p.parseDictOrSetMaker()
			if err != nil {
				return nil, err
			}
			closer, err := p.expectOp("}")
			if err != nil {
				return nil, err
			}
			return NewInternal(KindAtom, open, content, closer), nil
		}
	}
	return nil, p.errorf("unexpected token %q", t.Value)
}

// parseTestlistComp parses the inside of a parenthesized or
// bracketed display: either a comprehension or a comma list.
func (p *parser) parseTestlistComp() (Node, error) {
	first, err := p.parseTestOrStar()
	if err != nil {
		return nil, err
	}
	if p.atCompFor() {
		comp, err := p.parseCompFor()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindTestlistComp, first, comp), nil
	}
	if !p.atOp(",") {
		return first, nil
	}
	children := []Node{first}
	for p.atOp(",") {
		children = append(children, p.take())
		if !p.canStartTest() {
			break
		}
		item, err := p.parseTestOrStar()
		if err != nil {
			return nil, err
		}
		children = append(children, item)
	}
	return NewInternal(KindTestlistComp, children...), nil
}

func (p *parser) parseTestOrStar() (Node, error) {
	if p.atOp("*") {
		op := p.take()
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindStarExpr, op, operand), nil
	}
	return p.parseNamedTest()
}

func (p *parser) parseDictOrSetMaker() (Node, error) {
	first, err := p.parseDictOrSetEntry()
	if err != nil {
		return nil, err
	}
	if p.atCompFor() {
		comp, err := p.parseCompFor()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindDictOrSetMaker, first, comp), nil
	}
	if !p.atOp(",") {
		return NewInternal(KindDictOrSetMaker, first), nil
	}
	children := []Node{first}
	for p.atOp(",") {
		children = append(children, p.take())
		if !p.canStartTest() {
			break
		}
		entry, err := p.parseDictOrSetEntry()
		if err != nil {
			return nil, err
		}
		children = append(children, entry)
	}
	return NewInternal(KindDictOrSetMaker, children...), nil
}

func (p *parser) parseDictOrSetEntry() (Node, error) {
	if p.atOp("**") || p.atOp("*") {
		op := p.take()
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindStarExpr, op, operand), nil
	}
	key, err := p.parseNamedTest()
	if err != nil {
		return nil, err
	}
	if !p.atOp(":") {
		return key, nil
	}
	colon := p.take()
	value, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindKeyValue, key, colon, value), nil
}

func (p *parser) atCompFor() bool {
	if p.atKw("for") {
		return true
	}
	return p.atKw("async") && p.peek(1).Type == TokenKeyword && p.peek(1).Value == "for"
}

func (p *parser) parseCompFor() (Node, error) {
	var children []Node
	if p.atKw("async") {
		children = append(children, p.take())
	}
	children = append(children, p.take()) // for
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
	iter, err := p.parseOrTest()
	if err != nil {
		return nil, err
	}
	children = append(children, iter)
	rest, err := p.parseCompIter()
	if err != nil {
		return nil, err
	}
	if rest != nil {
		children = append(children, rest)
	}
	return NewInternal(KindCompFor, children...), nil
}

func (p *parser) parseCompIter() (Node, error) {
	if p.atCompFor() {
		return p.parseCompFor()
	}
	if !p.atKw("if") {
		return nil, nil
	}
	children := []Node{p.take()}
	var cond Node
	var err error
	if p.atKw("lambda") {
		cond, err = p.parseLambda()
	} else {
		cond, err = p.parseOrTest()
	}
	if err != nil {
		return nil, err
	}
	children = append(children, cond)
	rest, err := p.parseCompIter()
	if err != nil {
		return nil, err
	}
	if rest != nil {
		children = append(children, rest)
	}
	return NewInternal(KindCompIf, children...), nil
}

func (p *parser) parseSubscriptList() (Node, error) {
	first, err := p.parseSubscript()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	children := []Node{first}
	for p.atOp(",") {
		children = append(children, p.take())
		if p.atOp("]") {
			break
		}
		sub, err := p.parseSubscript()
		if err != nil {
			return nil, err
		}
		children = append(children, sub)
	}
	return NewInternal(KindSubscriptList, children...), nil
}

func (p *parser) parseSubscript() (Node, error) {
	var children []Node
	if !p.atOp(":") {
		lower, err := p.parseNamedTest()
		if err != nil {
			return nil, err
		}
		if !p.atOp(":") {
			return lower, nil
		}
		children = append(children, lower)
	}
	children = append(children, p.take()) // first colon
	if p.canStartTest() {
		upper, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		children = append(children, upper)
	}
	if p.atOp(":") {
		children = append(children, p.take())
		if p.canStartTest() {
			step, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			children = append(children, step)
		}
	}
	return NewInternal(KindSlice, children...), nil
}

func (p *parser) parseArglist() (Node, error) {
	first, err := p.parseArgument()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	children := []Node{first}
	for p.atOp(",") {
		children = append(children, p.take())
		if p.atOp(")") {
			break
		}
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		children = append(children, arg)
	}
	return NewInternal(KindArglist, children...), nil
}

func (p *parser) parseArgument() (Node, error) {
	if p.atOp("*") || p.atOp("**") {
		op := p.take()
		operand, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindArgument, op, operand), nil
	}
	value, err := p.parseNamedTest()
	if err != nil {
		return nil, err
	}
	if p.atCompFor() {
		comp, err := p.parseCompFor()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindArgument, value, comp), nil
	}
	if !p.atOp("=") {
		return value, nil
	}
	eq := p.take()
	def, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindArgument, value, eq, def), nil
}

func (p *parser) parseYieldExpr() (Node, error) {
	kw := p.take()
	if p.atKw("from") {
		from := p.take()
		value, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		return NewInternal(KindYieldExpr, kw, from, value), nil
	}
	if !p.canStartTest() {
		return NewInternal(KindYieldExpr, kw), nil
	}
	value, err := p.parseTestlistStarExpr()
	if err != nil {
		return nil, err
	}
	return NewInternal(KindYieldExpr, kw, value), nil
}

// parseTestlistStarExpr parses testlist_star_expr: items may include
// starred expressions; a single item with no trailing comma is
// returned bare.
func (p *parser) parseTestlistStarExpr() (Node, error) {
	return p.parseCommaList(p.parseTestOrStar)
}

// parseTestlist parses testlist: plain tests only.
func (p *parser) parseTestlist() (Node, error) {
	return p.parseCommaList(p.parseTest)
}

// parseExprList parses exprlist, used for assignment and loop
// targets: expr and star_expr items.
func (p *parser) parseExprList() (Node, error) {
	return p.parseCommaList(func() (Node, error) {
		if p.atOp("*") {
			op := p.take()
			operand, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return NewInternal(KindStarExpr, op, operand), nil
		}
		return p.parseExpr()
	})
}

func (p *parser) parseCommaList(item func() (Node, error)) (Node, error) {
	first, err := item()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	children := []Node{first}
	for p.atOp(",") {
		children = append(children, p.take())
		if !p.canStartTest() {
			break
		}
		next, err := item()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	return NewInternal(KindTestlist, children...), nil
}
