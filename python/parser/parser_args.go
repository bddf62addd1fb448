package parser

import "fmt"

// parseParameterList parses the parameters of a def (closer is ')') or a
// lambda (closer is ':') into params and validates their order.
func (p *Parser) parseParameterList(params *Node, closer TokenKind, annotations bool) {
	var (
		names          = make(map[string]bool)
		seenDefault    bool
		seenStar       bool
		seenDoubleStar bool
		seenSlash      bool
		starMarker     bool
		bareStar       *Node
		count          int
	)
	for !p.check(closer) && !p.atEnd() {
		param := p.parseParameter(annotations)
		p.checkDuplicateParameters(param, names)

		switch {
		case param.Flags.Has(FlagPositionalOnly):
			switch {
			case count == 0:
				p.reportSyntax("at least one argument must precede /", param.Span)
			case seenSlash:
				p.reportSyntax("/ may appear only once", param.Span)
			case seenStar || seenDoubleStar:
				p.reportSyntax("/ must be ahead of *", param.Span)
			default:
				for _, prev := range params.Children {
					prev.Flags |= FlagPositionalOnly
				}
			}
			seenSlash = true
		case param.Flags.Has(FlagDoubleStar):
			if seenDoubleStar {
				p.reportSyntax("arguments cannot follow var-keyword argument", param.Span)
			}
			seenDoubleStar = true
		case param.Flags.Has(FlagStar):
			switch {
			case seenDoubleStar:
				p.reportSyntax("arguments cannot follow var-keyword argument", param.Span)
			case seenStar:
				p.reportSyntax("* argument may appear only once", param.Span)
			}
			seenStar = true
			bareStar = nil
			if param.Flags.Has(FlagMarker) {
				bareStar = param
				starMarker = true
			}
		case param.Error != nil:
		default:
			switch {
			case seenDoubleStar:
				p.reportSyntax("arguments cannot follow var-keyword argument", param.Span)
			case seenStar:
				param.Flags |= FlagKeywordOnly
				bareStar = nil
				if !starMarker {
					p.requireVersion(Version30, param.Span, "keyword-only arguments")
				}
			case param.Child(RoleDefault) != nil:
				seenDefault = true
			case seenDefault:
				p.reportSyntax("non-default argument follows default argument", param.Span)
			}
		}
		count++
		params.AddRole(RoleItem, param)
		if !p.accept(TokenComma) {
			break
		}
	}
	if bareStar != nil {
		p.reportSyntax("named arguments must follow bare *", bareStar.Span)
	}
}

func (p *Parser) checkDuplicateParameters(param *Node, names map[string]bool) {
	if param.Kind == KindSublist {
		for _, child := range param.Children {
			if child.Role == RoleItem {
				p.checkDuplicateParameters(child, names)
			}
		}
		return
	}
	if param.Name.IsEmpty() {
		return
	}
	if names[param.Name.Real] {
		p.reportSyntax(fmt.Sprintf("duplicate argument '%s' in function definition", param.Name.Verbatim), param.Span)
	}
	names[param.Name.Real] = true
}

func (p *Parser) parseParameter(annotations bool) *Node {
	tok := p.peek()
	var n *Node
	switch tok.Kind {
	case TokenStar:
		n = p.startNode(KindParameter)
		p.advance()
		n.Flags |= FlagStar
		if !p.check(TokenName) {
			n.Flags |= FlagMarker
			p.requireVersion(Version30, tok.Span, "keyword-only argument marker")
			return p.finishNode(n)
		}
	case TokenDoubleStar:
		n = p.startNode(KindParameter)
		p.advance()
		n.Flags |= FlagDoubleStar
	case TokenSlash:
		n = p.startNode(KindParameter)
		p.advance()
		n.Flags |= FlagMarker | FlagPositionalOnly
		p.requireVersion(Version38, tok.Span, "positional-only parameter marker")
		return p.finishNode(n)
	case TokenLParen:
		n = p.parseSublist()
	case TokenName:
		n = p.startNode(KindParameter)
	default:
		n = p.startNode(KindParameter)
		p.reportUnexpected(tok)
		n.Name = EmptyName
		n.Error = &Error{Message: "expected parameter name", Expected: []TokenKind{TokenName}, Got: &tok}
		p.setFlag(n, AttrErrorRecovered)
		return p.finishNode(n)
	}

	if n.Kind == KindParameter && n.Name == nil {
		n.Name = p.readName()
	}
	if p.check(TokenColon) && annotations && n.Kind == KindParameter {
		colon := p.advance()
		p.requireVersion(Version30, colon.Span, "parameter annotations")
		n.AddRole(RoleAnnotation, p.parseTest())
	}
	if p.check(TokenAssign) {
		eq := p.advance()
		if n.Flags.Has(FlagStar) || n.Flags.Has(FlagDoubleStar) {
			p.reportSyntax("var-positional argument cannot have default value", eq.Span)
		}
		n.AddRole(RoleDefault, p.parseTest())
	}
	return p.finishNode(n)
}

// parseSublist parses a Python 2 tuple parameter. A single parenthesized
// name without a comma is an ordinary parameter.
func (p *Parser) parseSublist() *Node {
	n := p.startNode(KindSublist)
	open := p.advance()
	trailingComma := false
	for !p.check(TokenRParen) && !p.atEnd() {
		var item *Node
		switch {
		case p.check(TokenLParen):
			item = p.parseSublist()
		case p.check(TokenName):
			item = p.startNode(KindParameter)
			item.Name = p.fixName(p.advance().Literal)
			p.finishNode(item)
		default:
			tok := p.peek()
			item = p.startNode(KindParameter)
			p.reportUnexpected(tok)
			item.Name = EmptyName
			item.Error = &Error{Message: "expected parameter name", Got: &tok}
			p.finishNode(item)
		}
		n.AddRole(RoleItem, item)
		trailingComma = p.accept(TokenComma)
		if !trailingComma {
			break
		}
	}
	p.closeBracket(n, TokenRParen)
	items := n.ChildrenWithRole(RoleItem)
	if len(items) == 1 && items[0].Kind == KindParameter && !trailingComma {
		n.Kind = KindParameter
		n.Name = items[0].Name
		n.Children = nil
		p.absorb(n, items[0])
		return p.finishNode(n)
	}
	if trailingComma {
		n.Flags |= FlagTrailingComma
	}
	p.requireLegacy(open.Span, "sublist parameters")
	return p.finishNode(n)
}

// absorb moves the tokens owned by child to n when child is dropped from
// the tree.
func (p *Parser) absorb(n, child *Node) {
	if p.attrs == nil {
		return
	}
	if attrs := p.attrs.Get(child); attrs != nil {
		p.attrs.addPieces(n, attrs.Pieces)
	}
}

// parseArgumentList parses call arguments up to closer and validates their
// order.
func (p *Parser) parseArgumentList(closer TokenKind) []*Node {
	var (
		args           []*Node
		keywords       = make(map[string]bool)
		seenKeyword    bool
		seenStar       bool
		seenDoubleStar bool
	)
	for !p.check(closer) && !p.atEnd() {
		arg := p.parseArgument()
		switch {
		case arg.Flags.Has(FlagDoubleStar):
			if seenDoubleStar {
				p.requireVersion(Version35, arg.Span, "multiple ** unpackings")
			}
			seenDoubleStar = true
		case arg.Flags.Has(FlagStar):
			switch {
			case seenDoubleStar:
				p.reportSyntax("iterable argument unpacking follows keyword argument unpacking", arg.Span)
			case seenStar:
				p.requireVersion(Version35, arg.Span, "multiple * unpackings")
			}
			seenStar = true
		case arg.Name != nil:
			if keywords[arg.Name.Real] {
				p.reportSyntax("keyword argument repeated", arg.Span)
			}
			keywords[arg.Name.Real] = true
			seenKeyword = true
		default:
			switch {
			case seenDoubleStar:
				p.reportSyntax("positional argument follows keyword argument unpacking", arg.Span)
			case seenKeyword:
				p.reportSyntax("positional argument follows keyword argument", arg.Span)
			case seenStar:
				p.requireVersion(Version35, arg.Span, "positional arguments after *expression")
			}
		}
		args = append(args, arg)
		if !p.accept(TokenComma) {
			break
		}
	}
	if len(args) > 1 {
		for _, arg := range args {
			if arg.Flags.Has(FlagGenerator) {
				p.reportSyntax("Generator expression must be parenthesized if not sole argument", arg.Span)
			}
		}
	}
	return args
}

func (p *Parser) parseArgument() *Node {
	n := p.startNode(KindArgument)
	switch {
	case p.check(TokenStar):
		p.advance()
		n.Flags |= FlagStar
		n.AddRole(RoleValue, p.parseTest())
	case p.check(TokenDoubleStar):
		p.advance()
		n.Flags |= FlagDoubleStar
		n.AddRole(RoleValue, p.parseTest())
	case p.check(TokenName) && p.peek2().Kind == TokenAssign:
		n.Name = NewName(p.advance().Literal)
		p.advance()
		n.AddRole(RoleValue, p.parseTest())
	default:
		value := p.parseNamedExprTest()
		switch {
		case p.check(TokenFor) || p.checkAsyncFor():
			value = p.parseGenerator(value)
			n.Flags |= FlagGenerator
		case p.check(TokenAssign):
			p.reportSyntax("keyword can't be an expression", value.Span)
			p.advance()
			n.AddRole(RoleName, value)
			value = p.parseTest()
		}
		n.AddRole(RoleValue, value)
	}
	return p.finishNode(n)
}
