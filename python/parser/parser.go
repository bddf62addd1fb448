package parser

import (
	"fmt"
	"strings"
)

type Options struct {
	File    string
	Sink    ErrorSink
	Version LanguageVersion
	// Verbatim enables the fidelity tracker.
	Verbatim bool
	// BindReferences is forwarded to the Binder.
	BindReferences bool
	// PrivatePrefix is the class name used for private-name mangling at the
	// start of the parse.
	PrivatePrefix string
	// StubFile relaxes version gating for interface stubs.
	StubFile bool
	// FStringSubExpression marks a parser that parses the expression of an
	// f-string replacement field.
	FStringSubExpression bool
	// InitialLocation is the position of the first input byte.
	InitialLocation     Position
	IndentationSeverity Severity
	Binder              Binder
}

// Clone returns a copy of the options.
func (o Options) Clone() Options {
	return o
}

type Option func(*Options)

func WithFile(path string) Option {
	return func(o *Options) {
		o.File = path
	}
}

func WithErrorSink(sink ErrorSink) Option {
	return func(o *Options) {
		o.Sink = sink
	}
}

func WithVersion(v LanguageVersion) Option {
	return func(o *Options) {
		o.Version = v
	}
}

func WithVerbatim() Option {
	return func(o *Options) {
		o.Verbatim = true
	}
}

func WithBindReferences() Option {
	return func(o *Options) {
		o.BindReferences = true
	}
}

func WithPrivatePrefix(prefix string) Option {
	return func(o *Options) {
		o.PrivatePrefix = prefix
	}
}

func WithStubFile() Option {
	return func(o *Options) {
		o.StubFile = true
	}
}

func WithFStringSubExpression() Option {
	return func(o *Options) {
		o.FStringSubExpression = true
	}
}

func WithInitialLocation(pos Position) Option {
	return func(o *Options) {
		o.InitialLocation = pos
	}
}

func WithIndentationSeverity(s Severity) Option {
	return func(o *Options) {
		o.IndentationSeverity = s
	}
}

func WithBinder(b Binder) Option {
	return func(o *Options) {
		o.Binder = b
	}
}

// WithOptions replaces every option with opts.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}

func defaultOptions() Options {
	return Options{
		Sink:            DiscardSink,
		Version:         LatestVersion,
		InitialLocation: Position{Line: 1, Column: 1},
	}
}

type futureFeatures struct {
	printFunction   bool
	unicodeLiterals bool
	absoluteImport  bool
	division        bool
	withStatement   bool
	generatorStop   bool
	annotations     bool
}

// trackingSink forwards diagnostics and remembers the first error code.
type trackingSink struct {
	inner     ErrorSink
	firstCode int
	errors    int
}

func (s *trackingSink) Add(message string, span Span, code int, severity Severity) {
	if severity >= SeverityError {
		if s.errors == 0 {
			s.firstCode = code
		}
		s.errors++
	}
	s.inner.Add(message, span, code, severity)
}

// Parser is a recursive-descent parser for Python source. A Parser parses
// exactly once; create a new one for each input.
type Parser struct {
	opts   Options
	sink   *trackingSink
	tokens TokenSource
	lexer  *Lexer
	source []byte

	token        Token
	lookahead    Token
	hasLookahead bool
	prevEnd      Position

	started bool
	nextID  int
	attrs   *Attributes
	pieces  pieceBuffer

	functions     []*Node
	privatePrefix string
	future        futureFeatures
	futureAllowed bool
	loopDepth     int
	finallyDepth  int
	classDepth    int

	lastErrorOffset int
}

// New creates a parser that tokenizes source itself.
func New(source []byte, opts ...Option) *Parser {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := newParser(o)
	p.source = source
	lexOpts := []LexerOption{
		LexerVersion(p.opts.Version),
		LexerErrorSink(p.sink),
		LexerStart(p.opts.InitialLocation),
		LexerIndentationSeverity(p.opts.IndentationSeverity),
	}
	if p.opts.FStringSubExpression {
		lexOpts = append(lexOpts, LexerExpressionMode())
	}
	p.lexer = NewLexer(source, p.opts.File, lexOpts...)
	p.tokens = p.lexer
	return p
}

// NewWithTokens creates a parser over an external token source.
func NewWithTokens(tokens TokenSource, opts ...Option) *Parser {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := newParser(o)
	p.tokens = tokens
	return p
}

func newParser(o Options) *Parser {
	if o.Sink == nil {
		o.Sink = DiscardSink
	}
	if o.Version == VersionNone {
		o.Version = LatestVersion
	}
	if o.InitialLocation.Line == 0 {
		o.InitialLocation.Line = 1
		o.InitialLocation.Column = 1
	}
	o.InitialLocation.File = o.File
	p := &Parser{
		opts:            o,
		sink:            &trackingSink{inner: o.Sink},
		privatePrefix:   o.PrivatePrefix,
		futureAllowed:   true,
		lastErrorOffset: -1,
		prevEnd:         o.InitialLocation,
	}
	if o.Verbatim {
		p.attrs = NewAttributes()
	}
	return p
}

func (p *Parser) Options() Options {
	return p.opts
}

// ErrorCode returns the code of the first error reported during the parse,
// or zero.
func (p *Parser) ErrorCode() int {
	return p.sink.firstCode
}

func (p *Parser) start() error {
	if p.started {
		return ErrParserReused
	}
	p.started = true
	p.token = p.tokens.NextToken()
	return nil
}

func (p *Parser) peek() Token {
	return p.token
}

func (p *Parser) peek2() Token {
	if !p.hasLookahead {
		p.lookahead = p.tokens.NextToken()
		p.hasLookahead = true
	}
	return p.lookahead
}

func (p *Parser) advance() Token {
	tok := p.token
	if tok.Kind == TokenEOF {
		return tok
	}
	if p.hasLookahead {
		p.token = p.lookahead
		p.hasLookahead = false
	} else {
		p.token = p.tokens.NextToken()
	}
	switch tok.Kind {
	case TokenNewLine, TokenIndent, TokenDedent:
	default:
		p.prevEnd = tok.Span.End
	}
	if p.attrs != nil {
		p.pieces.add(tok)
	}
	return tok
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			return true
		}
	}
	return false
}

// accept consumes the current token if it has the given kind.
func (p *Parser) accept(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of the given kind or reports an error.
func (p *Parser) expect(kind TokenKind) bool {
	if p.accept(kind) {
		return true
	}
	p.reportUnexpectedExpecting(kind)
	return false
}

func (p *Parser) checkName(word string) bool {
	tok := p.peek()
	return tok.Kind == TokenName && tok.Literal == word
}

// atEnd reports whether the current token marks the end of input.
func (p *Parser) atEnd() bool {
	tok := p.peek()
	return tok.Kind == TokenEOF || (tok.Kind == TokenNewLine && tok.Literal == "")
}

// mustProgress returns a function that checks if the parser has advanced.
// Call it at the start of a loop iteration, then call the returned function
// at the end to break if no progress was made.
func (p *Parser) mustProgress() func() bool {
	saved := p.peek().Span.Start.Offset
	savedKind := p.peek().Kind
	return func() bool {
		if p.peek().Span.Start.Offset == saved && p.peek().Kind == savedKind {
			if !p.check(TokenEOF) {
				p.advance()
			}
			return false
		}
		return true
	}
}

func (p *Parser) newNode(kind NodeKind, start Position) *Node {
	p.nextID++
	return &Node{
		ID:   p.nextID,
		Kind: kind,
		Span: Span{Start: start, End: start},
	}
}

func (p *Parser) startNode(kind NodeKind) *Node {
	return p.newNode(kind, p.peek().Span.Start)
}

// finishNode closes n at the end of the last consumed token and hands it
// the tokens it owns.
func (p *Parser) finishNode(n *Node) *Node {
	end := p.prevEnd
	if end.Offset < n.Span.Start.Offset {
		end = n.Span.Start
	}
	n.Span.End = end
	for _, child := range n.Children {
		if child.Span.Start.Offset < n.Span.Start.Offset {
			n.Span.Start = child.Span.Start
		}
		if child.Span.End.Offset > n.Span.End.Offset {
			n.Span.End = child.Span.End
		}
	}
	if p.attrs != nil {
		p.attrs.addPieces(n, p.pieces.claim(n.Span.Start.Offset))
	}
	return n
}

func (p *Parser) setFlag(n *Node, flag AttrFlags) {
	if p.attrs != nil {
		p.attrs.SetFlag(n, flag)
	}
}

func (p *Parser) report(msg string, span Span, code int, severity Severity) {
	p.sink.Add(msg, span, code, severity)
}

// reportSyntax reports a syntax error at span unless an error was already
// reported at the same place.
func (p *Parser) reportSyntax(msg string, span Span) {
	if span.Start.Offset == p.lastErrorOffset {
		return
	}
	p.lastErrorOffset = span.Start.Offset
	code := ErrSyntax
	if tok := p.peek(); span.Start.Offset >= tok.Span.Start.Offset && p.atEnd() {
		code |= ErrIncompleteStatement
	}
	p.report(msg, span, code, SeverityError)
}

func (p *Parser) reportUnexpected(tok Token) {
	switch {
	case tok.Kind == TokenEOF || (tok.Kind == TokenNewLine && tok.Literal == ""):
		p.reportSyntax("unexpected EOF while parsing", tok.Span)
	case tok.ErrorCode != 0:
		p.lastErrorOffset = tok.Span.Start.Offset
	case tok.Kind == TokenIndent:
		if tok.Span.Start.Offset != p.lastErrorOffset {
			p.lastErrorOffset = tok.Span.Start.Offset
			p.report("unexpected indent", tok.Span, ErrIndentation, SeverityError)
		}
	case tok.Kind == TokenDedent:
		if tok.Span.Start.Offset != p.lastErrorOffset {
			p.lastErrorOffset = tok.Span.Start.Offset
			p.report("unindent does not match any outer indentation level", tok.Span, ErrIndentation, SeverityError)
		}
	case tok.Kind == TokenNewLine:
		p.reportSyntax("invalid syntax", tok.Span)
	default:
		p.reportSyntax(fmt.Sprintf("unexpected token '%s'", tok.Literal), tok.Span)
	}
}

func (p *Parser) reportUnexpectedExpecting(kind TokenKind) {
	tok := p.peek()
	if tok.Kind == TokenEOF || tok.ErrorCode != 0 || (tok.Kind == TokenNewLine && tok.Literal == "") {
		p.reportUnexpected(tok)
		return
	}
	p.reportSyntax(fmt.Sprintf("expected '%s'", kind), tok.Span)
}

// requireVersion reports a version diagnostic when the construct at span
// needs a newer language version. The caller keeps parsing either way.
func (p *Parser) requireVersion(v LanguageVersion, span Span, what string) bool {
	if p.opts.StubFile || p.opts.Version.AtLeast(v) {
		return true
	}
	p.report(fmt.Sprintf("%s requires Python %s or later", what, v), span, ErrSyntax|ErrVersion, SeverityError)
	return false
}

// requireLegacy reports a version diagnostic for Python 2 only constructs
// used under Python 3.
func (p *Parser) requireLegacy(span Span, what string) bool {
	if p.opts.StubFile || p.opts.Version.Is2x() {
		return true
	}
	p.report(fmt.Sprintf("%s is not supported in Python 3", what), span, ErrSyntax|ErrVersion, SeverityError)
	return false
}

// errorExpr builds an error expression at the current token without
// consuming it.
func (p *Parser) errorExpr(msg string, preceding *Node) *Node {
	tok := p.peek()
	if msg == "" {
		p.reportUnexpected(tok)
		msg = "invalid syntax"
	} else {
		p.reportSyntax(msg, tok.Span)
	}
	start := tok.Span.Start
	if preceding != nil {
		start = preceding.Span.Start
	}
	n := p.newNode(KindError, start)
	n.Error = &Error{Message: msg, Got: &tok}
	if preceding != nil {
		n.Preceding = preceding
		n.AddRole(RolePreceding, preceding)
	}
	p.setFlag(n, AttrErrorRecovered)
	return p.finishNode(n)
}

// skipTo consumes tokens until one of kinds (or a newline or end of input)
// is current and returns the skipped text.
func (p *Parser) skipTo(kinds ...TokenKind) string {
	var sb strings.Builder
	for !p.check(TokenEOF) && !p.check(TokenNewLine) && !p.match(kinds...) {
		tok := p.advance()
		sb.WriteString(tok.Prefix)
		sb.WriteString(tok.Literal)
	}
	return sb.String()
}

// fixName applies private-name mangling.
func (p *Parser) fixName(s string) *Name {
	if p.privatePrefix != "" && strings.HasPrefix(s, "__") && !strings.HasSuffix(s, "__") && !strings.Contains(s, ".") {
		return &Name{Real: "_" + p.privatePrefix + s, Verbatim: s}
	}
	return &Name{Real: s, Verbatim: s}
}

// readName consumes an identifier. It returns EmptyName and reports an
// error when the current token is not a name.
func (p *Parser) readName() *Name {
	if p.check(TokenName) {
		return p.fixName(p.advance().Literal)
	}
	p.reportUnexpectedExpecting(TokenName)
	return EmptyName
}

func (p *Parser) currentFunction() *Node {
	if len(p.functions) == 0 {
		return nil
	}
	return p.functions[len(p.functions)-1]
}

func (p *Parser) pushFunction(fn *Node) {
	p.functions = append(p.functions, fn)
}

func (p *Parser) popFunction() {
	if len(p.functions) > 0 {
		p.functions = p.functions[:len(p.functions)-1]
	}
}

func (p *Parser) printIsStatement() bool {
	return p.opts.Version.Is2x() && !p.future.printFunction
}

// asyncIsKeyword reports whether async/await are reserved words at this
// point.
func (p *Parser) asyncIsKeyword() bool {
	if p.opts.Version.AtLeast(Version37) {
		return true
	}
	fn := p.currentFunction()
	return p.opts.Version.AtLeast(Version35) && fn != nil && fn.Flags.Has(FlagCoroutine)
}
