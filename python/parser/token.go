package parser

import "strconv"

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

type Span struct {
	Start Position
	End   Position
}

func (s Span) Contains(other Span) bool {
	return s.Start.Offset <= other.Start.Offset && other.End.Offset <= s.End.Offset
}

func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError
	TokenNewLine
	TokenIndent
	TokenDedent

	// Literals
	TokenName
	TokenNumber
	TokenString

	// Keywords
	TokenAnd
	TokenAs
	TokenAssert
	TokenBreak
	TokenClass
	TokenContinue
	TokenDef
	TokenDel
	TokenElif
	TokenElse
	TokenExcept
	TokenFinally
	TokenFor
	TokenFrom
	TokenGlobal
	TokenIf
	TokenImport
	TokenIn
	TokenIs
	TokenLambda
	TokenNot
	TokenOr
	TokenPass
	TokenRaise
	TokenReturn
	TokenTry
	TokenWhile
	TokenWith
	TokenYield

	// Delimiters
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace
	TokenComma
	TokenColon
	TokenSemicolon
	TokenDot
	TokenEllipsis
	TokenAt
	TokenArrow
	TokenBackQuote
	TokenAssign
	TokenWalrus

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenDoubleStar
	TokenSlash
	TokenDoubleSlash
	TokenPercent
	TokenBitAnd
	TokenBitOr
	TokenBitXor
	TokenTilde
	TokenShl
	TokenShr
	TokenLT
	TokenGT
	TokenLE
	TokenGE
	TokenEQ
	TokenNE
	TokenLessGreater

	// Augmented assignment
	TokenPlusAssign
	TokenMinusAssign
	TokenStarAssign
	TokenDoubleStarAssign
	TokenSlashAssign
	TokenDoubleSlashAssign
	TokenPercentAssign
	TokenAtAssign
	TokenAndAssign
	TokenOrAssign
	TokenXorAssign
	TokenShlAssign
	TokenShrAssign
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:               "EOF",
	TokenError:             "Error",
	TokenNewLine:           "NewLine",
	TokenIndent:            "Indent",
	TokenDedent:            "Dedent",
	TokenName:              "Name",
	TokenNumber:            "Number",
	TokenString:            "String",
	TokenAnd:               "and",
	TokenAs:                "as",
	TokenAssert:            "assert",
	TokenBreak:             "break",
	TokenClass:             "class",
	TokenContinue:          "continue",
	TokenDef:               "def",
	TokenDel:               "del",
	TokenElif:              "elif",
	TokenElse:              "else",
	TokenExcept:            "except",
	TokenFinally:           "finally",
	TokenFor:               "for",
	TokenFrom:              "from",
	TokenGlobal:            "global",
	TokenIf:                "if",
	TokenImport:            "import",
	TokenIn:                "in",
	TokenIs:                "is",
	TokenLambda:            "lambda",
	TokenNot:               "not",
	TokenOr:                "or",
	TokenPass:              "pass",
	TokenRaise:             "raise",
	TokenReturn:            "return",
	TokenTry:               "try",
	TokenWhile:             "while",
	TokenWith:              "with",
	TokenYield:             "yield",
	TokenLParen:            "(",
	TokenRParen:            ")",
	TokenLBracket:          "[",
	TokenRBracket:          "]",
	TokenLBrace:            "{",
	TokenRBrace:            "}",
	TokenComma:             ",",
	TokenColon:             ":",
	TokenSemicolon:         ";",
	TokenDot:               ".",
	TokenEllipsis:          "...",
	TokenAt:                "@",
	TokenArrow:             "->",
	TokenBackQuote:         "`",
	TokenAssign:            "=",
	TokenWalrus:            ":=",
	TokenPlus:              "+",
	TokenMinus:             "-",
	TokenStar:              "*",
	TokenDoubleStar:        "**",
	TokenSlash:             "/",
	TokenDoubleSlash:       "//",
	TokenPercent:           "%",
	TokenBitAnd:            "&",
	TokenBitOr:             "|",
	TokenBitXor:            "^",
	TokenTilde:             "~",
	TokenShl:               "<<",
	TokenShr:               ">>",
	TokenLT:                "<",
	TokenGT:                ">",
	TokenLE:                "<=",
	TokenGE:                ">=",
	TokenEQ:                "==",
	TokenNE:                "!=",
	TokenLessGreater:       "<>",
	TokenPlusAssign:        "+=",
	TokenMinusAssign:       "-=",
	TokenStarAssign:        "*=",
	TokenDoubleStarAssign:  "**=",
	TokenSlashAssign:       "/=",
	TokenDoubleSlashAssign: "//=",
	TokenPercentAssign:     "%=",
	TokenAtAssign:          "@=",
	TokenAndAssign:         "&=",
	TokenOrAssign:          "|=",
	TokenXorAssign:         "^=",
	TokenShlAssign:         "<<=",
	TokenShrAssign:         ">>=",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

func (k TokenKind) IsKeyword() bool {
	return k >= TokenAnd && k <= TokenYield
}

func (k TokenKind) IsAugmentedAssign() bool {
	return k >= TokenPlusAssign && k <= TokenShrAssign
}

// StringFlags describe the prefix and quoting of a string token.
type StringFlags uint8

const (
	StringRaw StringFlags = 1 << iota
	StringBytes
	StringUnicode
	StringFormatted
	StringTriple
)

func (f StringFlags) Has(flag StringFlags) bool {
	return f&flag != 0
}

type Token struct {
	Kind    TokenKind
	Span    Span
	Literal string
	// Prefix is the exact whitespace, comment and line continuation text
	// that precedes the token.
	Prefix string
	// Value holds the decoded value of number and string literals.
	Value any
	// String tokens only.
	StringFlags StringFlags
	BodyStart   Position
	Body        string
	// Error tokens carry their diagnostic code.
	ErrorCode int
}

var keywords = map[string]TokenKind{
	"and":      TokenAnd,
	"as":       TokenAs,
	"assert":   TokenAssert,
	"break":    TokenBreak,
	"class":    TokenClass,
	"continue": TokenContinue,
	"def":      TokenDef,
	"del":      TokenDel,
	"elif":     TokenElif,
	"else":     TokenElse,
	"except":   TokenExcept,
	"finally":  TokenFinally,
	"for":      TokenFor,
	"from":     TokenFrom,
	"global":   TokenGlobal,
	"if":       TokenIf,
	"import":   TokenImport,
	"in":       TokenIn,
	"is":       TokenIs,
	"lambda":   TokenLambda,
	"not":      TokenNot,
	"or":       TokenOr,
	"pass":     TokenPass,
	"raise":    TokenRaise,
	"return":   TokenReturn,
	"try":      TokenTry,
	"while":    TokenWhile,
	"with":     TokenWith,
	"yield":    TokenYield,
}

// LookupKeyword returns the keyword kind for ident, or TokenName. Words
// whose keyword status depends on the language version (print, exec,
// nonlocal, async, await, True, False, None) are always names here; the
// parser decides how to treat them.
func LookupKeyword(ident string) TokenKind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return TokenName
}
