package parser

import (
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenSource supplies tokens to the parser one at a time.
type TokenSource interface {
	NextToken() Token
}

type indentLevel struct {
	col   int
	chars int
}

type LexerOption func(*Lexer)

func LexerVersion(v LanguageVersion) LexerOption {
	return func(l *Lexer) {
		l.version = v
	}
}

func LexerErrorSink(sink ErrorSink) LexerOption {
	return func(l *Lexer) {
		l.sink = sink
	}
}

// LexerStart positions the first byte of input at pos. Used when the input
// is a fragment of a larger file.
func LexerStart(pos Position) LexerOption {
	return func(l *Lexer) {
		l.base = pos
		l.line = pos.Line
		l.column = pos.Column
	}
}

func LexerIndentationSeverity(s Severity) LexerOption {
	return func(l *Lexer) {
		l.tabSeverity = s
	}
}

// LexerExpressionMode treats every newline as whitespace and never emits
// NEWLINE, INDENT or DEDENT tokens.
func LexerExpressionMode() LexerOption {
	return func(l *Lexer) {
		l.expressionMode = true
	}
}

type Lexer struct {
	input  []byte
	base   Position
	pos    int
	line   int
	column int
	tokEnd int

	version        LanguageVersion
	sink           ErrorSink
	tabSeverity    Severity
	expressionMode bool

	indents       []indentLevel
	parenDepth    int
	atLineStart   bool
	lineHasTokens bool
	pending       []Token

	lineStarts []int
	comments   []Span
}

func NewLexer(input []byte, file string, opts ...LexerOption) *Lexer {
	l := &Lexer{
		input:       input,
		base:        Position{File: file, Line: 1, Column: 1},
		line:        1,
		column:      1,
		version:     LatestVersion,
		sink:        DiscardSink,
		indents:     []indentLevel{{}},
		atLineStart: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.base.File = file
	l.lineStarts = []int{l.base.Offset}
	return l
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.base.File,
		Offset: l.base.Offset + l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// LineStarts returns the absolute offsets at which each line begins.
func (l *Lexer) LineStarts() []int {
	return l.lineStarts
}

func (l *Lexer) Comments() []Span {
	return l.comments
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' || (ch == '\r' && l.peek() != '\n') {
		l.line++
		l.column = 1
		l.lineStarts = append(l.lineStarts, l.base.Offset+l.pos)
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceNewline() {
	if l.peek() == '\r' {
		l.advance()
		if l.peek() == '\n' {
			l.advance()
		}
		return
	}
	l.advance()
}

func (l *Lexer) report(msg string, start Position, code int, severity Severity) {
	if severity == SeverityIgnore {
		return
	}
	l.sink.Add(msg, Span{Start: start, End: l.Position()}, code, severity)
}

func (l *Lexer) makeToken(kind TokenKind, start int, startPos Position) Token {
	tok := Token{
		Kind:    kind,
		Span:    Span{Start: startPos, End: l.Position()},
		Literal: string(l.input[start:l.pos]),
		Prefix:  string(l.input[l.tokEnd:start]),
	}
	l.tokEnd = l.pos
	return tok
}

func (l *Lexer) zeroWidth(kind TokenKind) Token {
	pos := l.Position()
	return Token{Kind: kind, Span: Span{Start: pos, End: pos}}
}

// NextToken returns the next token. After the end of input it keeps
// returning EOF tokens.
func (l *Lexer) NextToken() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}
	for {
		if l.atLineStart && l.parenDepth == 0 && !l.expressionMode {
			if l.skipBlankLine() {
				continue
			}
			l.atLineStart = false
			if l.pos < len(l.input) {
				if tok, ok := l.indentation(); ok {
					return tok
				}
			}
		}
		l.skipInlineWhitespace()
		if l.pos >= len(l.input) {
			return l.endOfInput()
		}
		ch := l.input[l.pos]
		if ch == '\n' || ch == '\r' {
			if l.parenDepth > 0 || l.expressionMode || !l.lineHasTokens {
				l.advanceNewline()
				if l.parenDepth == 0 && !l.expressionMode {
					l.atLineStart = true
				}
				continue
			}
			start, startPos := l.pos, l.Position()
			l.advanceNewline()
			tok := l.makeToken(TokenNewLine, start, startPos)
			l.atLineStart = true
			l.lineHasTokens = false
			return tok
		}
		tok := l.scanToken()
		l.lineHasTokens = true
		return tok
	}
}

func (l *Lexer) endOfInput() Token {
	if !l.expressionMode && l.lineHasTokens && l.parenDepth == 0 {
		l.lineHasTokens = false
		return l.makeToken(TokenNewLine, l.pos, l.Position())
	}
	if !l.expressionMode && len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		return l.zeroWidth(TokenDedent)
	}
	return l.makeToken(TokenEOF, l.pos, l.Position())
}

// skipBlankLine consumes a line holding only whitespace and an optional
// comment. It leaves the position untouched when the line has content.
func (l *Lexer) skipBlankLine() bool {
	saved, savedLine, savedCol := l.pos, l.line, l.column
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\f' {
			l.advance()
			continue
		}
		break
	}
	if l.pos == 0 && l.hasBOM() {
		l.pos, l.line, l.column = saved, savedLine, savedCol
		return false
	}
	switch l.peek() {
	case '#':
		l.skipComment()
		if l.peek() == '\n' || l.peek() == '\r' {
			l.advanceNewline()
			return true
		}
		return false
	case '\n', '\r':
		l.advanceNewline()
		return true
	case 0:
		if l.pos >= len(l.input) {
			return false
		}
	}
	l.pos, l.line, l.column = saved, savedLine, savedCol
	return false
}

func (l *Lexer) hasBOM() bool {
	return len(l.input) >= 3 && l.input[0] == 0xEF && l.input[1] == 0xBB && l.input[2] == 0xBF
}

func (l *Lexer) skipComment() {
	start := l.Position()
	for l.pos < len(l.input) && l.input[l.pos] != '\n' && l.input[l.pos] != '\r' {
		l.advance()
	}
	l.comments = append(l.comments, Span{Start: start, End: l.Position()})
}

func (l *Lexer) skipInlineWhitespace() {
	for l.pos < len(l.input) {
		switch ch := l.input[l.pos]; {
		case ch == ' ' || ch == '\t' || ch == '\f':
			l.advance()
		case ch == '#':
			l.skipComment()
		case ch == '\\' && (l.peekN(1) == '\n' || l.peekN(1) == '\r'):
			l.advance()
			l.advanceNewline()
		case l.pos == 0 && l.hasBOM():
			l.pos = 3
		default:
			return
		}
	}
}

// indentation measures the indentation of the current line and returns an
// INDENT or DEDENT token when it changes.
func (l *Lexer) indentation() (Token, bool) {
	start := l.Position()
	col, chars := 0, 0
	for i := l.pos; i < len(l.input); i++ {
		switch l.input[i] {
		case ' ':
			col++
			chars++
			continue
		case '\t':
			col = (col/8 + 1) * 8
			chars++
			continue
		case '\f':
			col = 0
			chars++
			continue
		}
		break
	}
	for i := 0; i < chars; i++ {
		l.advance()
	}

	top := l.indents[len(l.indents)-1]
	if sign(col-top.col) != sign(chars-top.chars) {
		l.report("inconsistent use of tabs and spaces in indentation", start, ErrTab, l.tabSeverity)
	}
	switch {
	case col > top.col:
		l.indents = append(l.indents, indentLevel{col: col, chars: chars})
		return l.zeroWidth(TokenIndent), true
	case col < top.col:
		for len(l.indents) > 1 && col < l.indents[len(l.indents)-1].col {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending, l.zeroWidth(TokenDedent))
		}
		if col != l.indents[len(l.indents)-1].col {
			l.report("unindent does not match any outer indentation level", start, ErrIndentation, SeverityError)
		}
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok, true
	}
	return Token{}, false
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func isIdentStart(r rune) bool {
	return r == '_' || (r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')) ||
		(r >= utf8.RuneSelf && unicode.IsLetter(r))
}

func isIdentPart(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
	}
	return unicode.In(r, unicode.Letter, unicode.Digit, unicode.Mn, unicode.Mc, unicode.Pc)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) advanceRune() {
	_, size := utf8.DecodeRune(l.input[l.pos:])
	for i := 0; i < size; i++ {
		l.advance()
	}
}

var operators3 = map[string]TokenKind{
	"...": TokenEllipsis,
	"**=": TokenDoubleStarAssign,
	"//=": TokenDoubleSlashAssign,
	"<<=": TokenShlAssign,
	">>=": TokenShrAssign,
}

var operators2 = map[string]TokenKind{
	"->": TokenArrow,
	":=": TokenWalrus,
	"**": TokenDoubleStar,
	"//": TokenDoubleSlash,
	"<<": TokenShl,
	">>": TokenShr,
	"<=": TokenLE,
	">=": TokenGE,
	"==": TokenEQ,
	"!=": TokenNE,
	"<>": TokenLessGreater,
	"+=": TokenPlusAssign,
	"-=": TokenMinusAssign,
	"*=": TokenStarAssign,
	"/=": TokenSlashAssign,
	"%=": TokenPercentAssign,
	"@=": TokenAtAssign,
	"&=": TokenAndAssign,
	"|=": TokenOrAssign,
	"^=": TokenXorAssign,
}

var operators1 = map[byte]TokenKind{
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBracket,
	']': TokenRBracket,
	'{': TokenLBrace,
	'}': TokenRBrace,
	',': TokenComma,
	':': TokenColon,
	';': TokenSemicolon,
	'.': TokenDot,
	'@': TokenAt,
	'`': TokenBackQuote,
	'=': TokenAssign,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
	'&': TokenBitAnd,
	'|': TokenBitOr,
	'^': TokenBitXor,
	'~': TokenTilde,
	'<': TokenLT,
	'>': TokenGT,
}

func (l *Lexer) scanToken() Token {
	start, startPos := l.pos, l.Position()
	ch := l.input[l.pos]

	r, _ := utf8.DecodeRune(l.input[l.pos:])
	if isIdentStart(r) {
		for l.pos < len(l.input) {
			r, _ := utf8.DecodeRune(l.input[l.pos:])
			if !isIdentPart(r) {
				break
			}
			l.advanceRune()
		}
		word := string(l.input[start:l.pos])
		if q := l.peek(); q == '"' || q == '\'' {
			if flags, ok := stringPrefixFlags(word); ok {
				return l.scanString(start, startPos, flags)
			}
		}
		tok := l.makeToken(LookupKeyword(word), start, startPos)
		return tok
	}

	if isDigit(ch) || (ch == '.' && isDigit(l.peekN(1))) {
		return l.scanNumber(start, startPos)
	}
	if ch == '"' || ch == '\'' {
		return l.scanString(start, startPos, 0)
	}

	if l.pos+3 <= len(l.input) {
		if kind, ok := operators3[string(l.input[l.pos:l.pos+3])]; ok {
			l.advance()
			l.advance()
			l.advance()
			return l.makeToken(kind, start, startPos)
		}
	}
	if l.pos+2 <= len(l.input) {
		if kind, ok := operators2[string(l.input[l.pos:l.pos+2])]; ok {
			l.advance()
			l.advance()
			return l.makeToken(kind, start, startPos)
		}
	}
	if kind, ok := operators1[ch]; ok {
		l.advance()
		switch kind {
		case TokenLParen, TokenLBracket, TokenLBrace:
			l.parenDepth++
		case TokenRParen, TokenRBracket, TokenRBrace:
			if l.parenDepth > 0 {
				l.parenDepth--
			}
		}
		return l.makeToken(kind, start, startPos)
	}

	l.advanceRune()
	tok := l.makeToken(TokenError, start, startPos)
	tok.ErrorCode = ErrSyntax
	l.report("invalid character '"+tok.Literal+"' in identifier", startPos, ErrSyntax, SeverityError)
	return tok
}

func stringPrefixFlags(word string) (StringFlags, bool) {
	if len(word) > 2 {
		return 0, false
	}
	var flags StringFlags
	for _, c := range strings.ToLower(word) {
		var f StringFlags
		switch c {
		case 'r':
			f = StringRaw
		case 'b':
			f = StringBytes
		case 'u':
			f = StringUnicode
		case 'f':
			f = StringFormatted
		default:
			return 0, false
		}
		if flags.Has(f) {
			return 0, false
		}
		flags |= f
	}
	switch {
	case flags.Has(StringBytes) && (flags.Has(StringFormatted) || flags.Has(StringUnicode)):
		return 0, false
	case flags.Has(StringUnicode) && flags.Has(StringFormatted):
		return 0, false
	}
	return flags, true
}

func (l *Lexer) scanString(start int, startPos Position, flags StringFlags) Token {
	quote := l.peek()
	if l.peekN(1) == quote && l.peekN(2) == quote {
		flags |= StringTriple
		l.advance()
		l.advance()
	}
	l.advance()

	bodyStartPos := l.Position()
	bodyStart := l.pos
	bodyEnd := -1
	errCode := 0
	for bodyEnd < 0 {
		if l.pos >= len(l.input) {
			bodyEnd = l.pos
			errCode = ErrSyntax | ErrIncompleteToken
			break
		}
		ch := l.input[l.pos]
		switch {
		case ch == '\\':
			l.advance()
			if l.pos < len(l.input) {
				if l.peek() == '\r' {
					l.advanceNewline()
				} else {
					l.advanceRune()
				}
			}
		case ch == quote && !flags.Has(StringTriple):
			bodyEnd = l.pos
			l.advance()
		case ch == quote && l.peekN(1) == quote && l.peekN(2) == quote:
			bodyEnd = l.pos
			l.advance()
			l.advance()
			l.advance()
		case (ch == '\n' || ch == '\r') && !flags.Has(StringTriple):
			bodyEnd = l.pos
			errCode = ErrSyntax
		default:
			l.advance()
		}
	}

	tok := l.makeToken(TokenString, start, startPos)
	tok.StringFlags = flags
	tok.BodyStart = bodyStartPos
	tok.Body = string(l.input[bodyStart:bodyEnd])
	if errCode != 0 {
		tok.ErrorCode = errCode
		msg := "EOL while scanning string literal"
		if errCode&ErrIncompleteToken != 0 {
			msg = "EOF while scanning string literal"
		}
		l.report(msg, startPos, errCode, SeverityError)
	}
	switch {
	case flags.Has(StringFormatted):
		tok.Value = tok.Body
	case flags.Has(StringBytes):
		tok.Value = []byte(DecodeString(tok.Body, flags, l.version))
	default:
		tok.Value = DecodeString(tok.Body, flags, l.version)
	}
	return tok
}

// DecodeString interprets the escape sequences of a string literal body.
func DecodeString(body string, flags StringFlags, version LanguageVersion) string {
	if flags.Has(StringRaw) || !strings.Contains(body, "\\") {
		return body
	}
	unicodeEscapes := !flags.Has(StringBytes) && (version.Is3x() || flags.Has(StringUnicode))
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 >= len(body) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch c := body[i]; c {
		case '\n':
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			sb.WriteByte(c)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(body) && j < i+3 && body[j] >= '0' && body[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(body[i:j], 8, 32)
			writeCode(&sb, rune(n), flags)
			i = j - 1
		case 'x':
			if n, ok := hexEscape(body, i+1, 2); ok {
				writeCode(&sb, rune(n), flags)
				i += 2
			} else {
				sb.WriteString("\\x")
			}
		case 'u', 'U':
			width := 4
			if c == 'U' {
				width = 8
			}
			if n, ok := hexEscape(body, i+1, width); ok && unicodeEscapes {
				sb.WriteRune(rune(n))
				i += width
			} else {
				sb.WriteByte('\\')
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func writeCode(sb *strings.Builder, r rune, flags StringFlags) {
	if flags.Has(StringBytes) || r < utf8.RuneSelf {
		sb.WriteByte(byte(r))
		return
	}
	sb.WriteRune(r)
}

func hexEscape(s string, at, width int) (uint64, bool) {
	if at+width > len(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(s[at:at+width], 16, 32)
	return n, err == nil
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F'
}

func (l *Lexer) scanDigits(valid func(byte) bool) {
	for l.pos < len(l.input) && (valid(l.input[l.pos]) || l.input[l.pos] == '_') {
		l.advance()
	}
}

func (l *Lexer) scanNumber(start int, startPos Position) Token {
	base := 10
	isFloat, isImaginary, isLong := false, false, false

	if l.peek() == '0' {
		switch l.peekN(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
	}
	if base != 10 {
		l.advance()
		l.advance()
		switch base {
		case 16:
			l.scanDigits(isHexDigit)
		case 8:
			l.scanDigits(func(c byte) bool { return c >= '0' && c <= '7' })
		default:
			l.scanDigits(func(c byte) bool { return c == '0' || c == '1' })
		}
	} else {
		l.scanDigits(isDigit)
		if l.peek() == '.' && !(l.peekN(1) == '.' && l.peekN(2) == '.') {
			isFloat = true
			l.advance()
			l.scanDigits(isDigit)
		}
		if c := l.peek(); c == 'e' || c == 'E' {
			next := l.peekN(1)
			if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekN(2))) {
				isFloat = true
				l.advance()
				if next == '+' || next == '-' {
					l.advance()
				}
				l.scanDigits(isDigit)
			}
		}
	}
	switch l.peek() {
	case 'j', 'J':
		isImaginary = true
		l.advance()
	case 'l', 'L':
		if !isFloat {
			isLong = true
			l.advance()
		}
	}

	tok := l.makeToken(TokenNumber, start, startPos)
	text := tok.Literal
	if strings.Contains(text, "_") {
		if !l.version.AtLeast(Version36) {
			l.report("underscores in numeric literals require Python 3.6 or later", startPos, ErrSyntax|ErrVersion, SeverityError)
		}
		text = strings.ReplaceAll(text, "_", "")
	}
	if isLong {
		if l.version.Is3x() {
			l.report("invalid syntax: long integer suffix is not supported in Python 3", startPos, ErrSyntax|ErrVersion, SeverityError)
		}
		text = text[:len(text)-1]
	}

	switch {
	case isImaginary:
		f, _ := strconv.ParseFloat(text[:len(text)-1], 64)
		tok.Value = complex(0, f)
	case isFloat:
		f, _ := strconv.ParseFloat(text, 64)
		tok.Value = f
	default:
		digits := text
		if base != 10 {
			digits = text[2:]
		} else if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0") != "" {
			if l.version.Is3x() {
				l.report("leading zeros in decimal integer literals are not permitted", startPos, ErrSyntax|ErrVersion, SeverityError)
			}
			base = 8
			digits = text[1:]
		}
		tok.Value = parseInteger(digits, base)
	}
	return tok
}

func parseInteger(digits string, base int) any {
	if n, err := strconv.ParseInt(digits, base, 64); err == nil {
		return n
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return int64(0)
	}
	return n
}

// Tokenize runs a lexer over input and returns every token up to and
// including EOF.
func Tokenize(input []byte, file string, opts ...LexerOption) []Token {
	l := NewLexer(input, file, opts...)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens
		}
	}
}
