package parser

import (
	"strings"
)

func (p *Parser) parseModule() *Node {
	mod := p.newNode(KindModule, p.opts.InitialLocation)
	for !p.check(TokenEOF) {
		progress := p.mustProgress()
		switch p.peek().Kind {
		case TokenNewLine, TokenDedent:
			p.advance()
			continue
		case TokenIndent:
			p.reportUnexpected(p.peek())
			p.advance()
			continue
		}
		stmt := p.parseStatement()
		mod.AddChild(stmt)
		if !isFutureImport(stmt) && !isDocString(stmt) {
			p.futureAllowed = false
		}
		progress()
	}
	return p.finishRoot(mod)
}

// finishRoot closes the root node at the end of input so it owns trailing
// whitespace and comments.
func (p *Parser) finishRoot(root *Node) *Node {
	eof := p.peek()
	if p.attrs != nil {
		p.pieces.add(eof)
	}
	p.prevEnd = eof.Span.End
	p.finishNode(root)
	if p.attrs != nil && len(p.pieces.pending) > 0 {
		p.attrs.addPieces(root, p.pieces.pending)
		p.pieces.pending = nil
	}
	return root
}

func isFutureImport(stmt *Node) bool {
	return stmt.Kind == KindFromImport && stmt.Flags.Has(FlagFuture)
}

func isDocString(stmt *Node) bool {
	if stmt.Kind != KindExprStmt || len(stmt.Children) != 1 {
		return false
	}
	_, ok := stmt.Children[0].Value.(string)
	return stmt.Children[0].Kind == KindConstant && ok
}

func (p *Parser) parseStatement() *Node {
	switch p.peek().Kind {
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenFor:
		return p.parseFor(nil)
	case TokenTry:
		return p.parseTry()
	case TokenWith:
		return p.parseWith(nil)
	case TokenAt:
		return p.parseDecorated()
	case TokenDef:
		return p.parseFunctionDef(nil, nil)
	case TokenClass:
		return p.parseClassDef(nil)
	case TokenName:
		if p.checkName("async") {
			switch p.peek2().Kind {
			case TokenDef, TokenWith, TokenFor:
				return p.parseAsyncStatement()
			}
		}
	}
	return p.parseSimpleStatement()
}

// parseSimpleStatement parses one logical line of small statements.
func (p *Parser) parseSimpleStatement() *Node {
	stmt := p.parseSmallStatement()
	if p.check(TokenSemicolon) {
		suite := p.newNode(KindSuite, stmt.Span.Start)
		suite.AddChild(stmt)
		for p.accept(TokenSemicolon) {
			if p.check(TokenNewLine) || p.check(TokenEOF) {
				break
			}
			suite.AddChild(p.parseSmallStatement())
		}
		stmt = p.finishNode(suite)
	}
	return p.endOfLine(stmt)
}

// endOfLine consumes the NEWLINE that ends a simple statement. Anything
// else up to the end of the line becomes an error statement.
func (p *Parser) endOfLine(stmt *Node) *Node {
	switch p.peek().Kind {
	case TokenNewLine:
		p.advance()
		return stmt
	case TokenEOF:
		return stmt
	}
	bad := p.peek()
	p.reportUnexpected(bad)
	errStmt := p.newNode(KindErrorStmt, stmt.Span.Start)
	errStmt.Preceding = stmt
	errStmt.AddRole(RolePreceding, stmt)
	errStmt.Value = p.skipTo()
	errStmt.Error = &Error{Message: "invalid syntax", Got: &bad}
	p.finishNode(errStmt)
	p.setFlag(errStmt, AttrErrorRecovered)
	p.accept(TokenNewLine)
	return errStmt
}

func (p *Parser) parseSmallStatement() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenPass:
		n := p.startNode(KindPass)
		p.advance()
		return p.finishNode(n)
	case TokenBreak:
		n := p.startNode(KindBreak)
		p.advance()
		if p.loopDepth == 0 {
			p.reportSyntax("'break' outside loop", tok.Span)
		}
		return p.finishNode(n)
	case TokenContinue:
		n := p.startNode(KindContinue)
		p.advance()
		switch {
		case p.loopDepth == 0:
			p.reportSyntax("'continue' not properly in loop", tok.Span)
		case p.finallyDepth > 0 && !p.opts.Version.AtLeast(Version38):
			p.reportSyntax("'continue' not supported inside 'finally' clause", tok.Span)
		}
		return p.finishNode(n)
	case TokenReturn:
		return p.parseReturn()
	case TokenRaise:
		return p.parseRaise()
	case TokenGlobal:
		return p.parseGlobal(KindGlobal)
	case TokenDel:
		return p.parseDel()
	case TokenAssert:
		return p.parseAssert()
	case TokenImport:
		return p.parseImport()
	case TokenFrom:
		return p.parseFromImport()
	case TokenName:
		switch tok.Literal {
		case "nonlocal":
			if p.peek2().Kind == TokenName {
				return p.parseGlobal(KindNonlocal)
			}
		case "print":
			if p.printIsStatement() || p.looksLikeLegacyStatement() {
				return p.parsePrint()
			}
		case "exec":
			if p.opts.Version.Is2x() || p.looksLikeLegacyStatement() {
				return p.parseExec()
			}
		}
	}
	return p.parseExpressionStatement()
}

// looksLikeLegacyStatement reports whether a print or exec word under
// Python 3 is followed by an operand rather than a call or operator.
func (p *Parser) looksLikeLegacyStatement() bool {
	if p.opts.Version.Is2x() {
		return false
	}
	switch p.peek2().Kind {
	case TokenString, TokenNumber:
		return true
	case TokenName:
		return !p.peek2().Kind.IsKeyword()
	}
	return false
}

func (p *Parser) parseReturn() *Node {
	n := p.startNode(KindReturn)
	ret := p.advance()
	if p.currentFunction() == nil {
		p.reportSyntax("'return' outside function", ret.Span)
	}
	if !p.atStatementEnd() {
		value := p.parseTestListStarExpr(true)
		if value.Kind == KindTuple && hasStarredChild(value) {
			p.requireVersion(Version38, value.Span, "unparenthesized starred return value")
		}
		n.AddRole(RoleValue, value)
	}
	return p.finishNode(n)
}

func hasStarredChild(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind == KindStarred {
			return true
		}
	}
	return false
}

func (p *Parser) atStatementEnd() bool {
	return p.match(TokenNewLine, TokenEOF, TokenSemicolon)
}

func (p *Parser) parseRaise() *Node {
	n := p.startNode(KindRaise)
	p.advance()
	if p.atStatementEnd() {
		return p.finishNode(n)
	}
	n.AddRole(RoleType, p.parseTest())
	switch {
	case p.check(TokenFrom):
		from := p.advance()
		p.requireVersion(Version30, from.Span, "'raise ... from'")
		n.AddRole(RoleCause, p.parseTest())
	case p.check(TokenComma):
		comma := p.advance()
		p.requireLegacy(comma.Span, "'raise E, V'")
		p.setFlag(n, AttrAltForm)
		n.AddRole(RoleValue, p.parseTest())
		if p.accept(TokenComma) {
			n.AddRole(RoleTraceback, p.parseTest())
		}
	}
	return p.finishNode(n)
}

func (p *Parser) parseGlobal(kind NodeKind) *Node {
	n := p.startNode(kind)
	kw := p.advance()
	if kind == KindNonlocal {
		if p.opts.Version.Is2x() {
			p.requireVersion(Version30, kw.Span, "'nonlocal'")
		} else if p.currentFunction() == nil && p.classDepth == 0 {
			p.reportSyntax("nonlocal declaration not allowed at module level", kw.Span)
		}
	}
	for {
		name := p.startNode(KindName)
		name.Name = p.readName()
		n.AddRole(RoleName, p.finishNode(name))
		if !p.accept(TokenComma) {
			break
		}
	}
	return p.finishNode(n)
}

func (p *Parser) parseDel() *Node {
	n := p.startNode(KindDel)
	p.advance()
	for !p.atStatementEnd() {
		target := p.parseExpr()
		p.checkDeletable(target)
		n.AddRole(RoleTarget, target)
		if !p.accept(TokenComma) {
			break
		}
	}
	if len(n.Children) == 0 {
		p.reportUnexpected(p.peek())
	}
	return p.finishNode(n)
}

func (p *Parser) parseAssert() *Node {
	n := p.startNode(KindAssert)
	p.advance()
	n.AddRole(RoleTest, p.parseTest())
	if p.accept(TokenComma) {
		n.AddRole(RoleMessage, p.parseTest())
	}
	return p.finishNode(n)
}

func (p *Parser) parseDottedName() *Node {
	n := p.startNode(KindDottedName)
	var parts []string
	for {
		if !p.check(TokenName) {
			p.reportUnexpectedExpecting(TokenName)
			break
		}
		parts = append(parts, p.advance().Literal)
		if !p.accept(TokenDot) {
			break
		}
	}
	n.Name = NewName(strings.Join(parts, "."))
	return p.finishNode(n)
}

func (p *Parser) parseImport() *Node {
	n := p.startNode(KindImport)
	p.advance()
	for {
		alias := p.startNode(KindImportAlias)
		alias.AddRole(RoleModule, p.parseDottedName())
		if p.accept(TokenAs) {
			alias.Name = p.readName()
		}
		n.AddRole(RoleItem, p.finishNode(alias))
		if !p.accept(TokenComma) {
			break
		}
	}
	return p.finishNode(n)
}

func (p *Parser) parseFromImport() *Node {
	n := p.startNode(KindFromImport)
	p.advance()
	level := 0
	for p.match(TokenDot, TokenEllipsis) {
		if p.advance().Kind == TokenEllipsis {
			level += 3
		} else {
			level++
		}
	}
	n.Value = level
	var module *Node
	if !p.check(TokenImport) || level == 0 {
		module = p.parseDottedName()
		n.AddRole(RoleModule, module)
	}
	if level > 0 {
		p.requireVersion(Version25, n.Span, "relative imports")
	}
	future := level == 0 && module != nil && module.Name.Real == "__future__"
	if future {
		n.Flags |= FlagFuture
		if !p.futureAllowed {
			p.reportSyntax("from __future__ imports must occur at the beginning of the file", module.Span)
		}
	}
	p.expect(TokenImport)

	if p.check(TokenStar) {
		star := p.startNode(KindImportAlias)
		p.advance()
		star.Name = NewName("*")
		n.AddRole(RoleItem, p.finishNode(star))
		if p.currentFunction() != nil && p.opts.Version.Is3x() {
			p.reportSyntax("import * only allowed at module level", star.Span)
		}
		return p.finishNode(n)
	}

	paren := p.accept(TokenLParen)
	if paren {
		p.requireVersion(Version24, n.Span, "parenthesized import list")
	}
	for {
		if paren && p.check(TokenRParen) {
			break
		}
		alias := p.startNode(KindImportAlias)
		name := p.startNode(KindDottedName)
		if p.check(TokenName) {
			name.Name = NewName(p.advance().Literal)
		} else {
			p.reportUnexpectedExpecting(TokenName)
			name.Name = EmptyName
		}
		alias.AddRole(RoleModule, p.finishNode(name))
		if p.accept(TokenAs) {
			alias.Name = p.readName()
		}
		p.finishNode(alias)
		n.AddRole(RoleItem, alias)
		if future {
			p.applyFuture(name)
		}
		if !p.accept(TokenComma) {
			break
		}
		if !paren && p.atStatementEnd() {
			p.reportSyntax("trailing comma not allowed without surrounding parentheses", p.peek().Span)
			break
		}
	}
	if paren && !p.accept(TokenRParen) {
		p.reportUnexpectedExpecting(TokenRParen)
		p.setFlag(n, AttrMissingCloser)
	}
	return p.finishNode(n)
}

func (p *Parser) applyFuture(name *Node) {
	switch name.Name.Real {
	case "print_function":
		p.future.printFunction = true
	case "unicode_literals":
		p.future.unicodeLiterals = true
	case "absolute_import":
		p.future.absoluteImport = true
	case "division":
		p.future.division = true
	case "with_statement":
		p.future.withStatement = true
	case "generator_stop":
		p.future.generatorStop = true
	case "annotations":
		p.future.annotations = true
	case "nested_scopes", "generators", "barry_as_FLUFL":
	default:
		p.reportSyntax("future feature "+name.Name.Real+" is not defined", name.Span)
	}
}

// parsePrint parses the Python 2 print statement.
func (p *Parser) parsePrint() *Node {
	n := p.startNode(KindPrint)
	kw := p.advance()
	if p.opts.Version.Is3x() {
		p.requireLegacy(kw.Span, "print statement")
		p.setFlag(n, AttrAltForm)
	}
	if p.accept(TokenShr) {
		n.Flags |= FlagRedirect
		n.AddRole(RoleDest, p.parseTest())
		if !p.accept(TokenComma) {
			return p.finishNode(n)
		}
	}
	for !p.atStatementEnd() {
		n.AddRole(RoleItem, p.parseTest())
		if !p.accept(TokenComma) {
			n.Flags &^= FlagTrailingComma
			break
		}
		n.Flags |= FlagTrailingComma
	}
	return p.finishNode(n)
}

// parseExec parses the Python 2 exec statement.
func (p *Parser) parseExec() *Node {
	n := p.startNode(KindExec)
	kw := p.advance()
	if p.opts.Version.Is3x() {
		p.requireLegacy(kw.Span, "exec statement")
		p.setFlag(n, AttrAltForm)
	}
	n.AddRole(RoleValue, p.parseExpr())
	if p.accept(TokenIn) {
		n.AddRole(RoleGlobals, p.parseTest())
		if p.accept(TokenComma) {
			n.AddRole(RoleLocals, p.parseTest())
		}
	}
	return p.finishNode(n)
}

func (p *Parser) parseExpressionStatement() *Node {
	var lhs *Node
	if p.check(TokenYield) {
		lhs = p.parseYield()
	} else {
		lhs = p.parseTestListStarExpr(true)
	}
	start := lhs.Span.Start

	switch tok := p.peek(); {
	case tok.Kind == TokenAssign:
		n := p.newNode(KindAssign, start)
		p.checkAssignable(lhs)
		n.AddRole(RoleTarget, lhs)
		var value *Node
		for p.accept(TokenAssign) {
			if value != nil {
				p.checkAssignable(value)
				n.AddRole(RoleTarget, value)
			}
			value = p.parseAssignValue()
		}
		n.AddRole(RoleValue, value)
		return p.finishNode(n)

	case tok.Kind.IsAugmentedAssign():
		n := p.newNode(KindAugAssign, start)
		n.Op = augmentedOperator(p.advance().Kind)
		if n.Op == OpMatMul {
			p.requireVersion(Version35, tok.Span, "'@=' operator")
		}
		switch lhs.Kind {
		case KindName, KindMember, KindIndex, KindError:
		default:
			p.reportSyntax("illegal expression for augmented assignment", lhs.Span)
		}
		n.AddRole(RoleTarget, lhs)
		if p.check(TokenYield) {
			n.AddRole(RoleValue, p.parseYield())
		} else {
			n.AddRole(RoleValue, p.parseTestList())
		}
		return p.finishNode(n)

	case tok.Kind == TokenColon:
		n := p.newNode(KindAnnAssign, start)
		p.advance()
		p.requireVersion(Version36, Span{Start: start, End: tok.Span.End}, "variable annotations")
		switch lhs.Kind {
		case KindName, KindMember, KindIndex, KindParen, KindError:
		case KindTuple:
			p.reportSyntax("only single target (not tuple) can be annotated", lhs.Span)
		case KindList:
			p.reportSyntax("only single target (not list) can be annotated", lhs.Span)
		default:
			p.reportSyntax("illegal target for annotation", lhs.Span)
		}
		n.AddRole(RoleTarget, lhs)
		n.AddRole(RoleAnnotation, p.parseTest())
		if p.accept(TokenAssign) {
			n.AddRole(RoleValue, p.parseAssignValue())
		}
		return p.finishNode(n)
	}

	n := p.newNode(KindExprStmt, start)
	n.AddRole(RoleValue, lhs)
	return p.finishNode(n)
}

func (p *Parser) parseAssignValue() *Node {
	if p.check(TokenYield) {
		return p.parseYield()
	}
	return p.parseTestListStarExpr(true)
}

var augmentedOperators = map[TokenKind]Operator{
	TokenPlusAssign:        OpAdd,
	TokenMinusAssign:       OpSub,
	TokenStarAssign:        OpMul,
	TokenAtAssign:          OpMatMul,
	TokenSlashAssign:       OpDiv,
	TokenDoubleSlashAssign: OpFloorDiv,
	TokenPercentAssign:     OpMod,
	TokenDoubleStarAssign:  OpPow,
	TokenShlAssign:         OpLShift,
	TokenShrAssign:         OpRShift,
	TokenAndAssign:         OpBitAnd,
	TokenOrAssign:          OpBitOr,
	TokenXorAssign:         OpBitXor,
}

func augmentedOperator(kind TokenKind) Operator {
	return augmentedOperators[kind]
}

// checkAssignable reports targets that cannot be assigned to.
func (p *Parser) checkAssignable(target *Node) {
	p.checkTarget(target, "assign to")
}

func (p *Parser) checkDeletable(target *Node) {
	p.checkTarget(target, "delete")
}

func (p *Parser) checkTarget(target *Node, verb string) {
	var what string
	switch target.Kind {
	case KindName:
		if p.opts.Version.Is3x() && target.Name.Real == "__debug__" {
			what = "__debug__"
		}
	case KindMember, KindIndex, KindError:
	case KindTuple, KindList, KindParen:
		for _, child := range target.Children {
			p.checkTarget(child, verb)
		}
	case KindStarred:
		if verb == "delete" {
			what = "starred"
		} else {
			for _, child := range target.Children {
				p.checkTarget(child, verb)
			}
		}
	case KindConstant, KindFString:
		what = "literal"
	case KindCall:
		what = "function call"
	case KindGenerator:
		what = "generator expression"
	case KindListComp, KindSetComp, KindDictComp:
		what = "comprehension"
	case KindLambda:
		what = "lambda"
	case KindYield, KindYieldFrom:
		what = "yield expression"
	case KindConditional:
		what = "conditional expression"
	case KindNamedExpr:
		what = "named expression"
	case KindDict, KindSet:
		what = "literal"
	default:
		what = "operator"
	}
	if what != "" {
		p.reportSyntax("can't "+verb+" "+what, target.Span)
	}
}

// parseSuite parses the colon and block that follow a compound statement
// header.
func (p *Parser) parseSuite() *Node {
	suite := p.startNode(KindSuite)
	if !p.accept(TokenColon) {
		p.reportUnexpectedExpecting(TokenColon)
		if !p.check(TokenNewLine) {
			suite.Value = p.skipTo(TokenColon)
			p.accept(TokenColon)
		}
	}
	if !p.check(TokenNewLine) {
		if p.check(TokenEOF) {
			p.reportUnexpected(p.peek())
			return p.finishNode(suite)
		}
		suite.AddChild(p.parseSimpleStatement())
		return p.finishNode(suite)
	}
	p.advance()
	if !p.check(TokenIndent) {
		if p.check(TokenEOF) {
			p.reportUnexpected(p.peek())
		} else {
			tok := p.peek()
			if tok.Span.Start.Offset != p.lastErrorOffset {
				p.lastErrorOffset = tok.Span.Start.Offset
				p.report("expected an indented block", tok.Span, ErrIndentation, SeverityError)
			}
		}
		p.setFlag(suite, AttrIncomplete)
		return p.finishNode(suite)
	}
	p.advance()
	extra := 0
	for !p.check(TokenEOF) {
		progress := p.mustProgress()
		switch p.peek().Kind {
		case TokenDedent:
			p.advance()
			if extra == 0 {
				return p.finishNode(suite)
			}
			extra--
			continue
		case TokenIndent:
			p.reportUnexpected(p.peek())
			p.advance()
			extra++
			continue
		case TokenNewLine:
			p.advance()
			continue
		}
		suite.AddChild(p.parseStatement())
		progress()
	}
	return p.finishNode(suite)
}

// parseLoopBody parses a suite in loop context.
func (p *Parser) parseLoopBody() *Node {
	p.loopDepth++
	body := p.parseSuite()
	p.loopDepth--
	return body
}

func (p *Parser) parseIf() *Node {
	n := p.startNode(KindIf)
	for {
		clause := p.startNode(KindIfTest)
		p.advance()
		clause.AddRole(RoleTest, p.parseNamedExprTest())
		clause.AddRole(RoleBody, p.parseSuite())
		n.AddRole(RoleClause, p.finishNode(clause))
		if !p.check(TokenElif) {
			break
		}
	}
	if p.accept(TokenElse) {
		n.AddRole(RoleElse, p.parseSuite())
	}
	return p.finishNode(n)
}

func (p *Parser) parseWhile() *Node {
	n := p.startNode(KindWhile)
	p.advance()
	n.AddRole(RoleTest, p.parseNamedExprTest())
	n.AddRole(RoleBody, p.parseLoopBody())
	if p.accept(TokenElse) {
		n.AddRole(RoleElse, p.parseSuite())
	}
	return p.finishNode(n)
}

// parseFor parses a for statement. asyncTok is set when the statement is
// prefixed with async.
func (p *Parser) parseFor(asyncTok *Token) *Node {
	n := p.startNode(KindFor)
	if asyncTok != nil {
		n.Span.Start = asyncTok.Span.Start
		n.Flags |= FlagAsync
	}
	p.advance()
	target := p.parseExprList()
	p.checkAssignable(target)
	n.AddRole(RoleTarget, target)
	if p.expect(TokenIn) {
		n.AddRole(RoleIterator, p.parseTestListStarExpr(false))
	} else {
		n.AddRole(RoleIterator, p.errorExpr("expected 'in'", nil))
	}
	n.AddRole(RoleBody, p.parseLoopBody())
	if p.accept(TokenElse) {
		n.AddRole(RoleElse, p.parseSuite())
	}
	return p.finishNode(n)
}

func (p *Parser) parseTry() *Node {
	n := p.startNode(KindTry)
	tryTok := p.advance()
	n.AddRole(RoleBody, p.parseSuite())

	sawBare := false
	var groupStar *bool
	for p.check(TokenExcept) {
		handler := p.parseExceptHandler()
		if sawBare {
			p.reportSyntax("default 'except:' must be last", handler.Span)
		}
		if handler.Child(RoleType) == nil {
			sawBare = true
		}
		star := handler.Flags.Has(FlagStar)
		if groupStar != nil && *groupStar != star {
			p.reportSyntax("cannot have both 'except' and 'except*' on the same 'try'", handler.Span)
		}
		groupStar = &star
		n.AddRole(RoleHandler, handler)
	}
	handlers := len(n.ChildrenWithRole(RoleHandler))
	if p.accept(TokenElse) {
		if handlers == 0 {
			p.reportSyntax("'else' without 'except' in 'try' statement", tryTok.Span)
		}
		n.AddRole(RoleElse, p.parseSuite())
	}
	if p.accept(TokenFinally) {
		if handlers > 0 {
			p.requireVersion(Version25, tryTok.Span, "'try' with both 'except' and 'finally'")
		}
		p.finallyDepth++
		n.AddRole(RoleFinally, p.parseSuite())
		p.finallyDepth--
	} else if handlers == 0 {
		p.reportSyntax("expected 'except' or 'finally' block", p.peek().Span)
	}
	return p.finishNode(n)
}

func (p *Parser) parseExceptHandler() *Node {
	n := p.startNode(KindExceptHandler)
	p.advance()
	if p.check(TokenStar) {
		star := p.advance()
		p.requireVersion(Version311, star.Span, "'except*'")
		n.Flags |= FlagStar
	}
	if !p.check(TokenColon) {
		n.AddRole(RoleType, p.parseTest())
		switch {
		case p.check(TokenAs):
			as := p.advance()
			p.requireVersion(Version26, as.Span, "'except ... as'")
			name := p.startNode(KindName)
			name.Name = p.readName()
			n.AddRole(RoleName, p.finishNode(name))
		case p.check(TokenComma):
			comma := p.advance()
			p.requireLegacy(comma.Span, "'except E, name'")
			p.setFlag(n, AttrAltForm)
			target := p.parseTest()
			p.checkAssignable(target)
			n.AddRole(RoleName, target)
		}
	} else if n.Flags.Has(FlagStar) {
		p.reportSyntax("expected one or more exception types", p.peek().Span)
	}
	n.AddRole(RoleBody, p.parseSuite())
	return p.finishNode(n)
}

func (p *Parser) parseWith(asyncTok *Token) *Node {
	n := p.startNode(KindWith)
	if asyncTok != nil {
		n.Span.Start = asyncTok.Span.Start
		n.Flags |= FlagAsync
	}
	withTok := p.advance()
	p.requireVersion(Version25, withTok.Span, "'with' statement")

	if p.check(TokenLParen) {
		p.parseParenthesizedWithItems(n)
	} else {
		p.parseWithItems(n)
	}
	if len(n.ChildrenWithRole(RoleItem)) > 1 {
		p.requireVersion(Version27, withTok.Span, "multiple context managers")
	}
	n.AddRole(RoleBody, p.parseSuite())
	return p.finishNode(n)
}

func (p *Parser) parseWithItems(n *Node) {
	for {
		n.AddRole(RoleItem, p.parseWithItem(p.parseTest()))
		if !p.accept(TokenComma) {
			return
		}
	}
}

func (p *Parser) parseWithItem(context *Node) *Node {
	item := p.newNode(KindWithItem, context.Span.Start)
	item.AddRole(RoleContext, context)
	if p.accept(TokenAs) {
		target := p.parseExpr()
		p.checkAssignable(target)
		item.AddRole(RoleTarget, target)
	}
	return p.finishNode(item)
}

// parseParenthesizedWithItems handles `with (a as b, c):`. When the
// parentheses turn out to belong to an ordinary expression the items are
// folded back into a parenthesized expression or tuple.
func (p *Parser) parseParenthesizedWithItems(n *Node) {
	open := p.peek()
	group := p.startNode(KindParen)
	p.advance()
	var items []*Node
	sawAs, trailingComma := false, false
	for !p.check(TokenRParen) && !p.atEnd() {
		progress := p.mustProgress()
		expr := p.parseNamedExprTest()
		if p.check(TokenFor) && len(items) == 0 {
			expr = p.parseGenerator(expr)
		}
		item := p.parseWithItem(expr)
		if item.Child(RoleTarget) != nil {
			sawAs = true
		}
		items = append(items, item)
		trailingComma = p.accept(TokenComma)
		if !trailingComma {
			progress()
			break
		}
	}
	closed := p.accept(TokenRParen)
	if !closed {
		p.reportUnexpectedExpecting(TokenRParen)
	}

	if sawAs || (p.check(TokenColon) && len(items) > 1 && p.opts.Version.AtLeast(Version39)) {
		p.requireVersion(Version39, open.Span, "parenthesized context managers")
		for _, item := range items {
			n.AddRole(RoleItem, item)
		}
		if p.attrs != nil {
			p.attrs.addPieces(n, p.pieces.claim(open.Span.Start.Offset))
		}
		if !closed {
			p.setFlag(n, AttrMissingCloser)
		}
		return
	}

	var expr *Node
	switch {
	case len(items) == 1 && !trailingComma:
		group.AddRole(RoleValue, items[0].Child(RoleContext))
		expr = p.finishNode(group)
	default:
		group.Kind = KindTuple
		for _, item := range items {
			group.AddRole(RoleItem, item.Child(RoleContext))
		}
		expr = p.finishNode(group)
	}
	if !closed {
		p.setFlag(expr, AttrMissingCloser)
	}
	expr = p.parseTrailers(expr)
	n.AddRole(RoleItem, p.parseWithItem(expr))
	if p.accept(TokenComma) {
		p.parseWithItems(n)
	}
}

func (p *Parser) parseAsyncStatement() *Node {
	asyncTok := p.advance()
	p.requireVersion(Version35, asyncTok.Span, "'async'")
	switch p.peek().Kind {
	case TokenDef:
		return p.parseFunctionDef(nil, &asyncTok)
	case TokenWith:
		p.checkAsyncContext(asyncTok, "'async with'")
		return p.parseWith(&asyncTok)
	default:
		p.checkAsyncContext(asyncTok, "'async for'")
		return p.parseFor(&asyncTok)
	}
}

func (p *Parser) checkAsyncContext(tok Token, what string) {
	fn := p.currentFunction()
	if fn == nil || !fn.Flags.Has(FlagCoroutine) {
		p.reportSyntax(what+" outside async function", tok.Span)
	}
}

func (p *Parser) parseDecorated() *Node {
	decorators := p.startNode(KindDecorators)
	for p.check(TokenAt) {
		at := p.advance()
		expr := p.parseNamedExprTest()
		if !p.opts.Version.AtLeast(Version39) && !isDottedCall(expr) {
			p.requireVersion(Version39, Span{Start: at.Span.Start, End: expr.Span.End}, "arbitrary decorator expressions")
		}
		decorators.AddRole(RoleItem, expr)
		if !p.accept(TokenNewLine) {
			p.reportUnexpected(p.peek())
			p.skipTo()
			p.accept(TokenNewLine)
		}
	}
	p.finishNode(decorators)

	switch {
	case p.check(TokenDef):
		return p.parseFunctionDef(decorators, nil)
	case p.check(TokenClass):
		p.requireVersion(Version26, decorators.Span, "class decorators")
		return p.parseClassDef(decorators)
	case p.checkName("async") && p.peek2().Kind == TokenDef:
		asyncTok := p.advance()
		p.requireVersion(Version35, asyncTok.Span, "'async'")
		return p.parseFunctionDef(decorators, &asyncTok)
	}
	p.reportSyntax("expected function or class declaration after decorator", p.peek().Span)
	errStmt := p.newNode(KindErrorStmt, decorators.Span.Start)
	errStmt.Preceding = decorators
	errStmt.AddRole(RolePreceding, decorators)
	errStmt.Error = &Error{Message: "expected function or class declaration after decorator"}
	p.setFlag(errStmt, AttrErrorRecovered)
	return p.finishNode(errStmt)
}

// isDottedCall reports whether expr fits the pre-3.9 decorator grammar.
func isDottedCall(expr *Node) bool {
	if expr.Kind == KindCall {
		expr = expr.Child(RoleFunction)
	}
	for expr != nil && expr.Kind == KindMember {
		expr = expr.Child(RoleValue)
	}
	return expr != nil && expr.Kind == KindName
}

func (p *Parser) parseFunctionDef(decorators *Node, asyncTok *Token) *Node {
	n := p.startNode(KindFunctionDef)
	switch {
	case decorators != nil:
		n.Span.Start = decorators.Span.Start
		n.AddRole(RoleDecorators, decorators)
	case asyncTok != nil:
		n.Span.Start = asyncTok.Span.Start
	}
	if asyncTok != nil {
		n.Flags |= FlagAsync | FlagCoroutine
	}
	p.advance()
	n.Name = p.readName()

	params := p.startNode(KindParameters)
	if p.expect(TokenLParen) {
		p.parseParameterList(params, TokenRParen, true)
		if !p.accept(TokenRParen) {
			p.reportUnexpectedExpecting(TokenRParen)
			p.setFlag(params, AttrMissingCloser)
		}
	}
	n.AddRole(RoleParameters, p.finishNode(params))

	if p.check(TokenArrow) {
		arrow := p.advance()
		p.requireVersion(Version30, arrow.Span, "return annotations")
		n.AddRole(RoleReturns, p.parseTest())
	}

	p.pushFunction(n)
	savedLoop, savedFinally := p.loopDepth, p.finallyDepth
	p.loopDepth, p.finallyDepth = 0, 0
	n.AddRole(RoleBody, p.parseSuite())
	p.loopDepth, p.finallyDepth = savedLoop, savedFinally
	p.popFunction()
	return p.finishNode(n)
}

func (p *Parser) parseClassDef(decorators *Node) *Node {
	n := p.startNode(KindClassDef)
	if decorators != nil {
		n.Span.Start = decorators.Span.Start
		n.AddRole(RoleDecorators, decorators)
	}
	p.advance()
	nameTok := p.peek()
	n.Name = p.readName()

	if p.check(TokenLParen) {
		open := p.advance()
		if p.check(TokenRParen) {
			p.requireVersion(Version25, open.Span, "empty base class list")
		}
		args := p.parseArgumentList(TokenRParen)
		for _, arg := range args {
			if arg.Name != nil && p.opts.Version.Is2x() {
				p.requireVersion(Version30, arg.Span, "keyword arguments in class definitions")
			}
			n.AddRole(RoleBase, arg)
		}
		if !p.accept(TokenRParen) {
			p.reportUnexpectedExpecting(TokenRParen)
			p.setFlag(n, AttrMissingCloser)
		}
	}

	savedPrefix := p.privatePrefix
	savedFunctions := p.functions
	savedLoop, savedFinally := p.loopDepth, p.finallyDepth
	if nameTok.Kind == TokenName {
		p.privatePrefix = strings.TrimLeft(nameTok.Literal, "_")
	}
	p.functions = nil
	p.loopDepth, p.finallyDepth = 0, 0
	p.classDepth++
	n.AddRole(RoleBody, p.parseSuite())
	p.classDepth--
	p.privatePrefix = savedPrefix
	p.functions = savedFunctions
	p.loopDepth, p.finallyDepth = savedLoop, savedFinally
	return p.finishNode(n)
}
