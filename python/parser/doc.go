// Package parser provides an error-tolerant, version-aware parser for
// Python source code, from Python 2.4 through 3.13.
//
// # Overview
//
// The parser consumes a token stream and produces a tree of uniform nodes.
// It never stops at the first error: every diagnostic goes to an ErrorSink
// and the tree gets an error node in place of the construct that could not
// be parsed. It is designed for editor tooling where incomplete input is
// the normal case.
//
// # Architecture
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Input     │────▶│   Lexer     │────▶│   Parser    │
//	│  (bytes)    │     │  (tokens)   │     │   (tree)    │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                                              │
//	                         ┌────────────────────┼────────────────────┐
//	                         ▼                    ▼                    ▼
//	                  ┌─────────────┐      ┌─────────────┐      ┌─────────────┐
//	                  │  f-string   │      │  Fidelity   │      │  ErrorSink  │
//	                  │ sub-parser  │      │  tracker    │      │             │
//	                  └─────────────┘      └─────────────┘      └─────────────┘
//
// Every token carries the exact text in front of it (whitespace, comments,
// line continuations). With WithVerbatim the parser hands each consumed
// token to the innermost node that was finished after it, so
// Ast.ToCode reproduces the input byte for byte.
//
// # Language Versions
//
// Constructs that exist only in some versions are parsed in every version
// and reported with an ErrVersion diagnostic when they do not belong to
// the configured one. An annotated assignment under Python 3.5 yields an
// AnnAssign node and one diagnostic. Stub files relax version checks.
//
// # Error Codes
//
// The low nibble of a code marks incomplete input (ErrIncompleteStatement,
// ErrIncompleteToken); the rest classifies the error (ErrSyntax,
// ErrIndentation, ErrTab, ErrVersion). Interactive callers use this to
// decide whether to ask for another line.
//
// # Entry Points
//
//	// ParseFile parses a whole module.
//	func (p *Parser) ParseFile() (*Ast, error)
//
//	// ParseInteractiveCode parses console input and classifies it as
//	// complete, empty, incomplete or invalid.
//	func (p *Parser) ParseInteractiveCode() (*Node, ParseResult, error)
//
//	// ParseTopExpression parses input that is a single expression.
//	func (p *Parser) ParseTopExpression() (*Ast, error)
//
//	// ParseFStringSubExpression parses the expression of an f-string
//	// replacement field.
//	func (p *Parser) ParseFStringSubExpression() (*Node, error)
//
// A Parser parses once. Calling a second entry point returns
// ErrParserReused.
//
// # Node Types
//
//	type Node struct {
//	    ID       int        // key into the fidelity attributes
//	    Kind     NodeKind   // e.g. KindFunctionDef, KindBinary, KindName
//	    Role     Role       // relation to the parent, e.g. RoleTarget
//	    Span     Span       // source location
//	    Children []*Node
//	    Op       Operator   // operators of Binary, Unary and AugAssign
//	    Name     *Name      // identifiers, with mangled and typed spelling
//	    Value    any        // constants
//	    Flags    NodeFlags
//	    Error    *Error     // non-nil for error nodes
//	}
//
// # Thread Safety
//
// A Parser instance is not safe for concurrent use. Separate instances may
// run concurrently and may share a CollectingSink.
//
// # Example Usage
//
//	sink := parser.NewCollectingSink()
//	ast, err := parser.Parse(src,
//	    parser.WithFile("main.py"),
//	    parser.WithVersion(parser.Version38),
//	    parser.WithErrorSink(sink),
//	    parser.WithVerbatim(),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Print(ast.Root)
//	fmt.Print(ast.ToCode() == string(src)) // true
package parser
