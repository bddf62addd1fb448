package lsp

import (
	"github.com/dhamidi/pyfront/python/parser"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func toProtocolSeverity(s parser.Severity) protocol.DiagnosticSeverity {
	switch {
	case s >= parser.SeverityError:
		return protocol.DiagnosticSeverityError
	case s == parser.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// codeName names the error class of a diagnostic code.
func codeName(code int) string {
	switch code & parser.ErrKindMask {
	case parser.ErrIndentation:
		return "indentation"
	case parser.ErrTab:
		return "tab"
	case parser.ErrVersion:
		return "version"
	default:
		return "syntax"
	}
}

func toProtocolDiagnostics(lines *lineIndex, diags []parser.Diagnostic) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diags))
	source := lsName
	for _, d := range diags {
		if d.Severity == parser.SeverityIgnore {
			continue
		}
		severity := toProtocolSeverity(d.Severity)
		result = append(result, protocol.Diagnostic{
			Range:    lines.rangeOf(d.Span),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: codeName(d.Code)},
			Source:   &source,
			Message:  d.Message,
		})
	}
	return result
}

// documentSymbols lists the classes and functions of a module, nested the
// way they are defined.
func documentSymbols(lines *lineIndex, root *parser.Node) []protocol.DocumentSymbol {
	symbols := []protocol.DocumentSymbol{}
	for _, child := range root.Children {
		symbols = append(symbols, collectSymbols(lines, child, false)...)
	}
	return symbols
}

func collectSymbols(lines *lineIndex, n *parser.Node, inClass bool) []protocol.DocumentSymbol {
	var kind protocol.SymbolKind
	switch n.Kind {
	case parser.KindClassDef:
		kind = protocol.SymbolKindClass
	case parser.KindFunctionDef:
		kind = protocol.SymbolKindFunction
		if inClass {
			kind = protocol.SymbolKindMethod
		}
	default:
		var symbols []protocol.DocumentSymbol
		for _, child := range n.Children {
			symbols = append(symbols, collectSymbols(lines, child, inClass)...)
		}
		return symbols
	}

	if n.Name == nil || n.Name.IsEmpty() {
		return nil
	}
	sym := protocol.DocumentSymbol{
		Name:           n.Name.Verbatim,
		Kind:           kind,
		Range:          lines.rangeOf(n.Span),
		SelectionRange: lines.rangeOf(n.Span),
	}
	if n.Flags.Has(parser.FlagAsync) {
		detail := "async"
		sym.Detail = &detail
	}
	for _, child := range n.Children {
		sym.Children = append(sym.Children, collectSymbols(lines, child, n.Kind == parser.KindClassDef)...)
	}
	return []protocol.DocumentSymbol{sym}
}
