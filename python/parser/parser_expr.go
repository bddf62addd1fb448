package parser

type binaryOperator struct {
	prec int
	op   Operator
}

// Binary operator precedence, loosest first. Comparisons and boolean
// operators have their own levels above these.
var binaryOperators = map[TokenKind]binaryOperator{
	TokenBitOr:       {1, OpBitOr},
	TokenBitXor:      {2, OpBitXor},
	TokenBitAnd:      {3, OpBitAnd},
	TokenShl:         {4, OpLShift},
	TokenShr:         {4, OpRShift},
	TokenPlus:        {5, OpAdd},
	TokenMinus:       {5, OpSub},
	TokenStar:        {6, OpMul},
	TokenAt:          {6, OpMatMul},
	TokenSlash:       {6, OpDiv},
	TokenDoubleSlash: {6, OpFloorDiv},
	TokenPercent:     {6, OpMod},
}

func (p *Parser) canStartExpression() bool {
	switch p.peek().Kind {
	case TokenName, TokenNumber, TokenString, TokenLParen, TokenLBracket,
		TokenLBrace, TokenMinus, TokenPlus, TokenTilde, TokenNot, TokenLambda,
		TokenStar, TokenBackQuote, TokenEllipsis:
		return true
	}
	return false
}

func (p *Parser) closeBracket(n *Node, closer TokenKind) bool {
	if p.accept(closer) {
		return true
	}
	p.reportUnexpectedExpecting(closer)
	p.setFlag(n, AttrMissingCloser)
	return false
}

// tupleTail collects the comma-separated continuation of first into a
// tuple. A trailing comma is allowed.
func (p *Parser) tupleTail(first *Node, elem func() *Node) *Node {
	if !p.check(TokenComma) {
		return first
	}
	tuple := p.newNode(KindTuple, first.Span.Start)
	tuple.AddRole(RoleItem, first)
	for p.accept(TokenComma) {
		if !p.canStartExpression() {
			tuple.Flags |= FlagTrailingComma
			break
		}
		tuple.AddRole(RoleItem, elem())
	}
	return p.finishNode(tuple)
}

func (p *Parser) parseTestListStarExpr(allowStar bool) *Node {
	elem := p.parseTest
	if allowStar {
		elem = p.parseStarOrTest
	}
	return p.tupleTail(elem(), elem)
}

func (p *Parser) parseTestList() *Node {
	return p.parseTestListStarExpr(false)
}

// parseExprList parses assignment targets of for loops and comprehensions.
func (p *Parser) parseExprList() *Node {
	return p.tupleTail(p.parseStarOrExpr(), p.parseStarOrExpr)
}

func (p *Parser) parseStarOrExpr() *Node {
	if p.check(TokenStar) {
		return p.parseStarExpr()
	}
	return p.parseExpr()
}

func (p *Parser) parseStarOrTest() *Node {
	if p.check(TokenStar) {
		return p.parseStarExpr()
	}
	return p.parseTest()
}

func (p *Parser) parseStarOrNamedExpr() *Node {
	if p.check(TokenStar) {
		return p.parseStarExpr()
	}
	return p.parseNamedExprTest()
}

func (p *Parser) parseStarExpr() *Node {
	n := p.startNode(KindStarred)
	star := p.advance()
	p.requireVersion(Version30, star.Span, "starred expressions")
	n.AddRole(RoleValue, p.parseExpr())
	return p.finishNode(n)
}

func (p *Parser) parseNamedExprTest() *Node {
	expr := p.parseTest()
	if !p.check(TokenWalrus) {
		return expr
	}
	n := p.newNode(KindNamedExpr, expr.Span.Start)
	walrus := p.advance()
	p.requireVersion(Version38, walrus.Span, "assignment expressions")
	if expr.Kind != KindName && expr.Kind != KindError {
		p.reportSyntax("cannot use assignment expressions with "+describeExpr(expr), expr.Span)
	}
	n.AddRole(RoleTarget, expr)
	n.AddRole(RoleValue, p.parseTest())
	return p.finishNode(n)
}

func describeExpr(n *Node) string {
	switch n.Kind {
	case KindConstant, KindFString, KindDict, KindSet:
		return "literal"
	case KindCall:
		return "function call"
	case KindMember:
		return "attribute"
	case KindIndex:
		return "subscript"
	case KindTuple:
		return "tuple"
	case KindList:
		return "list"
	case KindLambda:
		return "lambda"
	}
	return "expression"
}

func (p *Parser) parseTest() *Node {
	if p.check(TokenLambda) {
		return p.parseLambda(true)
	}
	expr := p.parseOrTest()
	if !p.check(TokenIf) {
		return expr
	}
	n := p.newNode(KindConditional, expr.Span.Start)
	ifTok := p.advance()
	p.requireVersion(Version25, ifTok.Span, "conditional expressions")
	n.AddRole(RoleTrue, expr)
	n.AddRole(RoleCondition, p.parseOrTest())
	if p.expect(TokenElse) {
		n.AddRole(RoleFalse, p.parseTest())
	} else {
		p.setFlag(n, AttrIncomplete)
	}
	return p.finishNode(n)
}

func (p *Parser) parseOrTest() *Node {
	left := p.parseAndTest()
	for p.check(TokenOr) {
		n := p.newNode(KindBinary, left.Span.Start)
		n.Op = OpOr
		p.advance()
		n.AddRole(RoleLeft, left)
		n.AddRole(RoleRight, p.parseAndTest())
		left = p.finishNode(n)
	}
	return left
}

func (p *Parser) parseAndTest() *Node {
	left := p.parseNotTest()
	for p.check(TokenAnd) {
		n := p.newNode(KindBinary, left.Span.Start)
		n.Op = OpAnd
		p.advance()
		n.AddRole(RoleLeft, left)
		n.AddRole(RoleRight, p.parseNotTest())
		left = p.finishNode(n)
	}
	return left
}

func (p *Parser) parseNotTest() *Node {
	if !p.check(TokenNot) {
		return p.parseComparison()
	}
	n := p.startNode(KindUnary)
	n.Op = OpNot
	p.advance()
	n.AddRole(RoleOperand, p.parseNotTest())
	return p.finishNode(n)
}

var comparisonOperators = map[TokenKind]Operator{
	TokenLT:          OpLT,
	TokenGT:          OpGT,
	TokenLE:          OpLE,
	TokenGE:          OpGE,
	TokenEQ:          OpEq,
	TokenNE:          OpNotEq,
	TokenLessGreater: OpNotEq,
	TokenIn:          OpIn,
	TokenIs:          OpIs,
}

// parseComparison builds right-nested comparison chains: a < b < c is
// a < (b < c).
func (p *Parser) parseComparison() *Node {
	left := p.parseExpr()
	tok := p.peek()
	op, ok := comparisonOperators[tok.Kind]
	if tok.Kind == TokenNot && p.peek2().Kind == TokenIn {
		op, ok = OpNotIn, true
	}
	if !ok {
		return left
	}
	n := p.newNode(KindBinary, left.Span.Start)
	p.advance()
	switch {
	case op == OpNotIn:
		p.advance()
	case op == OpIs && p.check(TokenNot):
		p.advance()
		op = OpIsNot
	case tok.Kind == TokenLessGreater:
		p.requireLegacy(tok.Span, "'<>' operator")
		p.setFlag(n, AttrAltForm)
	}
	n.Op = op
	n.AddRole(RoleLeft, left)
	n.AddRole(RoleRight, p.parseComparison())
	return p.finishNode(n)
}

func (p *Parser) parseExpr() *Node {
	return p.parseBinary(1)
}

// parseBinary is a precedence climber over the arithmetic and bitwise
// operators.
func (p *Parser) parseBinary(minPrec int) *Node {
	left := p.parseFactor()
	for {
		info, ok := binaryOperators[p.peek().Kind]
		if !ok || info.prec < minPrec {
			return left
		}
		n := p.newNode(KindBinary, left.Span.Start)
		n.Op = info.op
		tok := p.advance()
		if info.op == OpMatMul {
			p.requireVersion(Version35, tok.Span, "'@' operator")
		}
		n.AddRole(RoleLeft, left)
		n.AddRole(RoleRight, p.parseBinary(info.prec+1))
		left = p.finishNode(n)
	}
}

func (p *Parser) parseFactor() *Node {
	var op Operator
	switch p.peek().Kind {
	case TokenPlus:
		op = OpPos
	case TokenMinus:
		op = OpNeg
	case TokenTilde:
		op = OpInvert
	default:
		return p.parsePower()
	}
	n := p.startNode(KindUnary)
	n.Op = op
	p.advance()
	n.AddRole(RoleOperand, p.parseFactor())
	return p.finishNode(n)
}

func (p *Parser) parsePower() *Node {
	base := p.parseAwait()
	if !p.check(TokenDoubleStar) {
		return base
	}
	n := p.newNode(KindBinary, base.Span.Start)
	n.Op = OpPow
	p.advance()
	n.AddRole(RoleLeft, base)
	n.AddRole(RoleRight, p.parseFactor())
	return p.finishNode(n)
}

func (p *Parser) awaitIsKeyword() bool {
	if p.asyncIsKeyword() {
		return true
	}
	return p.opts.FStringSubExpression && p.opts.Version.AtLeast(Version35)
}

func (p *Parser) parseAwait() *Node {
	if !p.checkName("await") || !p.awaitIsKeyword() {
		return p.parsePrimary()
	}
	n := p.startNode(KindAwait)
	tok := p.advance()
	if !p.opts.FStringSubExpression {
		fn := p.currentFunction()
		if fn == nil || !fn.Flags.Has(FlagCoroutine) {
			p.reportSyntax("'await' outside async function", tok.Span)
		}
	}
	n.AddRole(RoleValue, p.parsePrimary())
	return p.finishNode(n)
}

func (p *Parser) parsePrimary() *Node {
	return p.parseTrailers(p.parseAtom())
}

// parseTrailers applies calls, subscripts and attribute accesses to expr.
func (p *Parser) parseTrailers(expr *Node) *Node {
	for {
		switch p.peek().Kind {
		case TokenLParen:
			n := p.newNode(KindCall, expr.Span.Start)
			p.advance()
			n.AddRole(RoleFunction, expr)
			for _, arg := range p.parseArgumentList(TokenRParen) {
				n.AddRole(RoleArgument, arg)
			}
			p.closeBracket(n, TokenRParen)
			expr = p.finishNode(n)
		case TokenLBracket:
			n := p.newNode(KindIndex, expr.Span.Start)
			p.advance()
			n.AddRole(RoleValue, expr)
			n.AddRole(RoleIndex, p.parseSubscriptList())
			p.closeBracket(n, TokenRBracket)
			expr = p.finishNode(n)
		case TokenDot:
			n := p.newNode(KindMember, expr.Span.Start)
			p.advance()
			n.AddRole(RoleValue, expr)
			n.Name = p.readName()
			expr = p.finishNode(n)
		default:
			return expr
		}
	}
}

func (p *Parser) parseSubscriptList() *Node {
	first := p.parseSubscript()
	if !p.check(TokenComma) {
		return first
	}
	tuple := p.newNode(KindTuple, first.Span.Start)
	tuple.AddRole(RoleItem, first)
	for p.accept(TokenComma) {
		if p.check(TokenRBracket) {
			tuple.Flags |= FlagTrailingComma
			break
		}
		tuple.AddRole(RoleItem, p.parseSubscript())
	}
	return p.finishNode(tuple)
}

func (p *Parser) parseSubscript() *Node {
	start := p.peek().Span.Start
	if p.check(TokenEllipsis) {
		switch p.peek2().Kind {
		case TokenComma, TokenRBracket:
			n := p.startNode(KindConstant)
			p.advance()
			n.Value = Ellipsis{}
			n.Flags |= FlagEllipsis
			return p.finishNode(n)
		}
	}
	var lower *Node
	switch {
	case p.check(TokenStar):
		star := p.peek()
		lower = p.parseStarExpr()
		p.requireVersion(Version311, star.Span, "starred subscripts")
	case !p.check(TokenColon):
		lower = p.parseNamedExprTest()
	}
	if !p.check(TokenColon) {
		if lower == nil {
			return p.errorExpr("", nil)
		}
		return lower
	}
	n := p.newNode(KindSlice, start)
	p.advance()
	n.AddRole(RoleLower, lower)
	if !p.match(TokenColon, TokenComma, TokenRBracket) {
		n.AddRole(RoleUpper, p.parseTest())
	}
	if p.accept(TokenColon) && !p.match(TokenComma, TokenRBracket) {
		n.AddRole(RoleStep, p.parseTest())
	}
	return p.finishNode(n)
}

func (p *Parser) parseAtom() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenName:
		switch tok.Literal {
		case "None":
			n := p.startNode(KindConstant)
			p.advance()
			return p.finishNode(n)
		case "True", "False":
			if p.opts.Version.Is3x() {
				n := p.startNode(KindConstant)
				p.advance()
				n.Value = tok.Literal == "True"
				return p.finishNode(n)
			}
		}
		n := p.startNode(KindName)
		p.advance()
		n.Name = p.fixName(tok.Literal)
		return p.finishNode(n)
	case TokenNumber:
		n := p.startNode(KindConstant)
		p.advance()
		n.Value = tok.Value
		return p.finishNode(n)
	case TokenString:
		return p.parseStrings()
	case TokenEllipsis:
		n := p.startNode(KindConstant)
		p.advance()
		p.requireVersion(Version30, tok.Span, "'...' outside subscripts")
		n.Value = Ellipsis{}
		n.Flags |= FlagEllipsis
		return p.finishNode(n)
	case TokenLParen:
		return p.parseParenAtom()
	case TokenLBracket:
		return p.parseListAtom()
	case TokenLBrace:
		return p.parseDictOrSetAtom()
	case TokenBackQuote:
		n := p.startNode(KindBackQuote)
		p.advance()
		p.requireLegacy(tok.Span, "backquote repr")
		n.AddRole(RoleValue, p.parseTestList())
		p.closeBracket(n, TokenBackQuote)
		return p.finishNode(n)
	case TokenYield:
		n := p.parseYield()
		p.reportSyntax("yield expression must be parenthesized here", n.Span)
		return n
	}
	return p.errorExpr("", nil)
}

// parseParenAtom parses a parenthesized expression, a tuple or a generator
// expression.
func (p *Parser) parseParenAtom() *Node {
	n := p.startNode(KindParen)
	p.advance()
	if p.accept(TokenRParen) {
		n.Kind = KindTuple
		return p.finishNode(n)
	}
	if p.check(TokenYield) {
		n.AddRole(RoleValue, p.parseYield())
		p.closeBracket(n, TokenRParen)
		return p.finishNode(n)
	}
	first := p.parseStarOrNamedExpr()
	switch {
	case p.check(TokenFor) || p.checkAsyncFor():
		n.Kind = KindGenerator
		n.AddRole(RoleElement, first)
		p.parseCompClauses(n)
	case p.check(TokenComma):
		n.Kind = KindTuple
		n.AddRole(RoleItem, first)
		for p.accept(TokenComma) {
			if p.check(TokenRParen) {
				n.Flags |= FlagTrailingComma
				break
			}
			n.AddRole(RoleItem, p.parseStarOrNamedExpr())
		}
	default:
		if first.Kind == KindStarred {
			p.reportSyntax("can't use starred expression here", first.Span)
		}
		n.AddRole(RoleValue, first)
	}
	p.closeBracket(n, TokenRParen)
	return p.finishNode(n)
}

func (p *Parser) parseListAtom() *Node {
	n := p.startNode(KindList)
	p.advance()
	if !p.check(TokenRBracket) {
		first := p.parseStarOrNamedExpr()
		if p.check(TokenFor) || p.checkAsyncFor() {
			n.Kind = KindListComp
			n.AddRole(RoleElement, first)
			p.parseCompClauses(n)
		} else {
			n.AddRole(RoleItem, first)
			for p.accept(TokenComma) {
				if p.check(TokenRBracket) {
					n.Flags |= FlagTrailingComma
					break
				}
				n.AddRole(RoleItem, p.parseStarOrNamedExpr())
			}
		}
	}
	p.closeBracket(n, TokenRBracket)
	return p.finishNode(n)
}

// parseDictElement parses a dict item, a ** unpacking or a set element.
// It reports whether the element belongs to a dict display.
func (p *Parser) parseDictElement() (*Node, bool) {
	switch {
	case p.check(TokenDoubleStar):
		n := p.startNode(KindStarred)
		star := p.advance()
		p.requireVersion(Version35, star.Span, "dict unpacking")
		n.Flags |= FlagDoubleStar
		n.AddRole(RoleValue, p.parseExpr())
		return p.finishNode(n), true
	case p.check(TokenStar):
		return p.parseStarExpr(), false
	}
	key := p.parseNamedExprTest()
	if !p.check(TokenColon) {
		return key, false
	}
	item := p.newNode(KindDictItem, key.Span.Start)
	p.advance()
	item.AddRole(RoleKey, key)
	item.AddRole(RoleValue, p.parseTest())
	return p.finishNode(item), true
}

func (p *Parser) parseDictOrSetAtom() *Node {
	n := p.startNode(KindDict)
	open := p.advance()
	if p.accept(TokenRBrace) {
		return p.finishNode(n)
	}
	first, isDict := p.parseDictElement()
	if !isDict {
		n.Kind = KindSet
	}
	if p.check(TokenFor) || p.checkAsyncFor() {
		if isDict {
			n.Kind = KindDictComp
			if first.Kind == KindStarred {
				p.reportSyntax("dict unpacking cannot be used in dict comprehension", first.Span)
			}
		} else {
			n.Kind = KindSetComp
		}
		p.requireVersion(Version27, open.Span, n.Kind.String()+" expressions")
		n.AddRole(RoleElement, first)
		p.parseCompClauses(n)
		p.closeBracket(n, TokenRBrace)
		return p.finishNode(n)
	}
	if !isDict {
		p.requireVersion(Version27, open.Span, "set literals")
	}
	n.AddRole(RoleItem, first)
	for p.accept(TokenComma) {
		if p.check(TokenRBrace) {
			n.Flags |= FlagTrailingComma
			break
		}
		elem, elemIsDict := p.parseDictElement()
		if elemIsDict != isDict {
			p.reportSyntax("invalid syntax", elem.Span)
		}
		n.AddRole(RoleItem, elem)
	}
	p.closeBracket(n, TokenRBrace)
	return p.finishNode(n)
}

func (p *Parser) checkAsyncFor() bool {
	return p.checkName("async") && p.peek2().Kind == TokenFor
}

// parseGenerator parses an unparenthesized generator expression whose
// element has already been read.
func (p *Parser) parseGenerator(element *Node) *Node {
	n := p.newNode(KindGenerator, element.Span.Start)
	n.AddRole(RoleElement, element)
	p.parseCompClauses(n)
	return p.finishNode(n)
}

func (p *Parser) parseCompClauses(n *Node) {
	for {
		switch {
		case p.check(TokenFor) || p.checkAsyncFor():
			n.AddRole(RoleClause, p.parseCompFor())
		case p.check(TokenIf):
			n.AddRole(RoleClause, p.parseCompIf())
		default:
			return
		}
	}
}

func (p *Parser) parseCompFor() *Node {
	n := p.startNode(KindCompFor)
	if p.checkName("async") {
		tok := p.advance()
		n.Flags |= FlagAsync
		p.requireVersion(Version36, tok.Span, "asynchronous comprehensions")
	}
	p.advance()
	target := p.parseExprList()
	p.checkAssignable(target)
	n.AddRole(RoleTarget, target)
	if p.expect(TokenIn) {
		iter := p.parseOrTest()
		if p.opts.Version.Is2x() && p.check(TokenComma) {
			iter = p.tupleTail(iter, p.parseOrTest)
		}
		n.AddRole(RoleIterator, iter)
	}
	return p.finishNode(n)
}

func (p *Parser) parseCompIf() *Node {
	n := p.startNode(KindCompIf)
	p.advance()
	if p.check(TokenLambda) {
		n.AddRole(RoleCondition, p.parseLambda(false))
	} else {
		n.AddRole(RoleCondition, p.parseOrTest())
	}
	return p.finishNode(n)
}

func (p *Parser) parseLambda(allowConditional bool) *Node {
	n := p.startNode(KindLambda)
	p.advance()
	params := p.startNode(KindParameters)
	p.parseParameterList(params, TokenColon, false)
	n.AddRole(RoleParameters, p.finishNode(params))
	p.expect(TokenColon)
	p.pushFunction(n)
	if allowConditional {
		n.AddRole(RoleBody, p.parseTest())
	} else {
		n.AddRole(RoleBody, p.parseOrTest())
	}
	p.popFunction()
	return p.finishNode(n)
}

func (p *Parser) parseYield() *Node {
	n := p.startNode(KindYield)
	tok := p.advance()
	p.markGenerator(tok)
	if p.check(TokenFrom) {
		from := p.advance()
		n.Kind = KindYieldFrom
		p.requireVersion(Version33, from.Span, "'yield from'")
		n.AddRole(RoleValue, p.parseTest())
		return p.finishNode(n)
	}
	if p.canStartExpression() {
		n.AddRole(RoleValue, p.parseTestListStarExpr(true))
	}
	return p.finishNode(n)
}

// markGenerator flags the enclosing function as a generator. Errors do not
// prevent the flag from being set.
func (p *Parser) markGenerator(tok Token) {
	if p.opts.FStringSubExpression {
		return
	}
	fn := p.currentFunction()
	if fn == nil {
		p.reportSyntax("'yield' outside function", tok.Span)
		return
	}
	fn.Flags |= FlagGenerator
	if fn.Flags.Has(FlagCoroutine) {
		p.requireVersion(Version36, tok.Span, "'yield' inside async function")
	}
}

// parseStrings parses adjacent string literals as one constant, or as an
// f-string when any part is formatted.
func (p *Parser) parseStrings() *Node {
	first := p.peek()
	var toks []Token
	for p.check(TokenString) {
		toks = append(toks, p.advance())
	}
	formatted, bytesCount := false, 0
	for _, tok := range toks {
		if tok.StringFlags.Has(StringFormatted) {
			formatted = true
		}
		if tok.StringFlags.Has(StringBytes) {
			bytesCount++
		}
	}
	if bytesCount != 0 && bytesCount != len(toks) {
		p.reportSyntax("cannot mix bytes and nonbytes literals", Span{Start: first.Span.Start, End: p.prevEnd})
	}

	if !formatted {
		n := p.newNode(KindConstant, first.Span.Start)
		if bytesCount == len(toks) {
			var value []byte
			for _, tok := range toks {
				b, _ := tok.Value.([]byte)
				value = append(value, b...)
			}
			n.Value = value
			n.Flags |= FlagBytes
		} else {
			var value string
			for _, tok := range toks {
				switch v := tok.Value.(type) {
				case string:
					value += v
				case []byte:
					value += string(v)
				}
			}
			n.Value = value
		}
		if len(toks) > 1 {
			n.Flags |= FlagImplicitConcat
		}
		p.finishNode(n)
		p.setFlag(n, AttrVerbatim)
		return n
	}

	n := p.newNode(KindFString, first.Span.Start)
	if len(toks) > 1 {
		n.Flags |= FlagImplicitConcat
	}
	for _, tok := range toks {
		if !tok.StringFlags.Has(StringFormatted) {
			part := p.newNode(KindConstant, tok.Span.Start)
			part.Span.End = tok.Span.End
			part.Value = tok.Value
			n.AddRole(RoleItem, part)
			continue
		}
		p.requireVersion(Version36, tok.Span, "f-strings")
		for _, part := range p.parseFString(tok) {
			n.AddRole(RoleItem, part)
		}
	}
	p.finishNode(n)
	p.setFlag(n, AttrVerbatim)
	return n
}
