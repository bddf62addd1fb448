package parser

import (
	"sort"
	"strings"
)

// Binder performs name binding over a finished tree. It runs after a
// successful entry point when one is configured.
type Binder interface {
	Bind(version LanguageVersion, ast *Ast, sink ErrorSink, bindReferences bool)
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(version LanguageVersion, ast *Ast, sink ErrorSink, bindReferences bool)

func (f BinderFunc) Bind(version LanguageVersion, ast *Ast, sink ErrorSink, bindReferences bool) {
	f(version, ast, sink, bindReferences)
}

// Ast is the result of a parse.
type Ast struct {
	Root    *Node
	File    string
	Version LanguageVersion
	// Attributes is nil unless the parser ran with WithVerbatim.
	Attributes    *Attributes
	LineStarts    []int
	Comments      []Span
	PrivatePrefix string
	// ErrorCode is the code of the first error reported, or zero.
	ErrorCode int
}

// ToCode reconstructs the source text. Without fidelity tracking it
// returns an empty string.
func (a *Ast) ToCode() string {
	if a.Attributes == nil {
		return ""
	}
	return a.Attributes.Code(a.Root)
}

// HasErrors reports whether any error was reported during the parse.
func (a *Ast) HasErrors() bool {
	return a.ErrorCode != 0
}

// PositionOf maps an absolute offset to a position.
func (a *Ast) PositionOf(offset int) Position {
	if len(a.LineStarts) == 0 {
		return Position{File: a.File, Offset: offset, Line: 1, Column: offset + 1}
	}
	i := sort.Search(len(a.LineStarts), func(i int) bool {
		return a.LineStarts[i] > offset
	}) - 1
	if i < 0 {
		i = 0
	}
	firstLine := 1
	if a.Root != nil {
		firstLine = a.Root.Span.Start.Line
	}
	column := offset - a.LineStarts[i] + 1
	if i == 0 && a.Root != nil {
		column += a.Root.Span.Start.Column - 1
	}
	return Position{File: a.File, Offset: offset, Line: firstLine + i, Column: column}
}

// ParseResult classifies interactive input.
type ParseResult int

const (
	ParseComplete ParseResult = iota
	ParseEmpty
	ParseIncompleteToken
	ParseIncompleteStatement
	ParseInvalid
)

var parseResultNames = map[ParseResult]string{
	ParseComplete:            "complete",
	ParseEmpty:               "empty",
	ParseIncompleteToken:     "incomplete token",
	ParseIncompleteStatement: "incomplete statement",
	ParseInvalid:             "invalid",
}

func (r ParseResult) String() string {
	return parseResultNames[r]
}

// Parse is a shorthand for New(source, opts...).ParseFile().
func Parse(source []byte, opts ...Option) (*Ast, error) {
	return New(source, opts...).ParseFile()
}

// ParseFile parses a whole module.
func (p *Parser) ParseFile() (*Ast, error) {
	if p.opts.FStringSubExpression {
		return nil, ErrFeatureMismatch
	}
	if err := p.start(); err != nil {
		return nil, err
	}
	return p.newAst(p.parseModule()), nil
}

// ParseInteractiveCode parses one or more lines of interactive input. It
// returns the statement (a suite when there are several) and nil for any
// result other than ParseComplete.
func (p *Parser) ParseInteractiveCode() (*Node, ParseResult, error) {
	if p.opts.FStringSubExpression {
		return nil, ParseInvalid, ErrFeatureMismatch
	}
	if err := p.start(); err != nil {
		return nil, ParseInvalid, err
	}
	if p.check(TokenEOF) {
		return nil, ParseEmpty, nil
	}
	mod := p.parseModule()
	code := p.ErrorCode()
	switch {
	case code&ErrIncompleteToken != 0:
		return nil, ParseIncompleteToken, nil
	case code&ErrIncompleteStatement != 0:
		return nil, ParseIncompleteStatement, nil
	case p.sink.errors > 0:
		return nil, ParseInvalid, nil
	}
	if len(mod.Children) == 0 {
		return nil, ParseEmpty, nil
	}
	last := mod.Children[len(mod.Children)-1]
	if isCompound(last) && p.source != nil && !endsWithBlankLine(p.source) {
		return nil, ParseIncompleteStatement, nil
	}
	p.newAst(mod)
	if len(mod.Children) == 1 {
		return mod.Children[0], ParseComplete, nil
	}
	suite := p.newNode(KindSuite, mod.Children[0].Span.Start)
	suite.Children = mod.Children
	suite.Span.End = last.Span.End
	return suite, ParseComplete, nil
}

func isCompound(n *Node) bool {
	switch n.Kind {
	case KindIf, KindWhile, KindFor, KindTry, KindWith, KindFunctionDef, KindClassDef:
		return true
	}
	return false
}

// endsWithBlankLine reports whether the last line of src is empty and
// follows a line break, which ends a compound statement interactively.
func endsWithBlankLine(src []byte) bool {
	s := strings.TrimRight(string(src), " \t\f")
	if !strings.HasSuffix(s, "\n") && !strings.HasSuffix(s, "\r") {
		return false
	}
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	s = strings.TrimRight(s, " \t\f")
	return s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "\r")
}

// ParseTopExpression parses input that must consist of a single
// expression. The module body is one return statement whose value is
// the expression; it is not subject to the function-scope check that
// applies to written return statements.
func (p *Parser) ParseTopExpression() (*Ast, error) {
	if p.opts.FStringSubExpression {
		return nil, ErrFeatureMismatch
	}
	if err := p.start(); err != nil {
		return nil, err
	}
	mod := p.newNode(KindModule, p.opts.InitialLocation)
	for p.check(TokenIndent) {
		p.advance()
	}
	var expr *Node
	if p.check(TokenYield) {
		expr = p.parseYield()
	} else {
		expr = p.parseTestListStarExpr(true)
	}
	stmt := p.newNode(KindReturn, expr.Span.Start)
	stmt.AddRole(RoleValue, expr)
	mod.AddChild(p.finishNode(stmt))
	for p.match(TokenNewLine, TokenDedent) {
		p.advance()
	}
	if !p.check(TokenEOF) {
		p.reportUnexpected(p.peek())
		for !p.check(TokenEOF) {
			p.advance()
		}
	}
	return p.newAst(p.finishRoot(mod)), nil
}

// ParseFStringSubExpression parses the expression of an f-string
// replacement field. The parser must have been created with
// WithFStringSubExpression.
func (p *Parser) ParseFStringSubExpression() (*Node, error) {
	if !p.opts.FStringSubExpression {
		return nil, ErrFeatureMismatch
	}
	if err := p.start(); err != nil {
		return nil, err
	}
	var expr *Node
	if p.check(TokenYield) {
		expr = p.parseYield()
	} else {
		expr = p.parseTestListStarExpr(true)
	}
	if !p.check(TokenEOF) {
		tok := p.peek()
		if tok.ErrorCode == 0 {
			p.reportSyntax("f-string: expecting '}'", tok.Span)
		}
	}
	return expr, nil
}

func (p *Parser) newAst(root *Node) *Ast {
	ast := &Ast{
		Root:          root,
		File:          p.opts.File,
		Version:       p.opts.Version,
		Attributes:    p.attrs,
		PrivatePrefix: p.opts.PrivatePrefix,
		ErrorCode:     p.ErrorCode(),
	}
	if src, ok := p.tokens.(interface {
		LineStarts() []int
		Comments() []Span
	}); ok {
		ast.LineStarts = src.LineStarts()
		ast.Comments = src.Comments()
	}
	if p.opts.Binder != nil {
		p.opts.Binder.Bind(p.opts.Version, ast, p.sink, p.opts.BindReferences)
		ast.ErrorCode = p.ErrorCode()
	}
	return ast
}
