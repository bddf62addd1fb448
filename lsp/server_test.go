package lsp

import (
	"testing"

	"github.com/dhamidi/pyfront/config"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestLineIndexPosition(t *testing.T) {
	text := []byte("ab\r\nc😀d\rе")
	tests := []struct {
		offset int
		want   protocol.Position
	}{
		{0, protocol.Position{Line: 0, Character: 0}},
		{2, protocol.Position{Line: 0, Character: 2}},
		{4, protocol.Position{Line: 1, Character: 0}},
		{5, protocol.Position{Line: 1, Character: 1}},
		{9, protocol.Position{Line: 1, Character: 3}},
		{11, protocol.Position{Line: 2, Character: 0}},
		{100, protocol.Position{Line: 2, Character: 1}},
	}
	scanned := newLineIndex(text, nil)
	assert.Equal(t, []int{0, 4, 11}, scanned.starts)

	for _, tt := range tests {
		assert.Equal(t, tt.want, scanned.position(tt.offset), "offset %d", tt.offset)
	}
}

func TestLineIndex_LexerLineStarts(t *testing.T) {
	src := []byte("x = 1\r\ny = '😀'\rz = 2\n")
	ast, err := parser.Parse(src)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 7, 18, 24}, ast.LineStarts)

	lines := newLineIndex(src, ast.LineStarts)
	assert.Equal(t, newLineIndex(src, nil).starts, lines.starts)
	assert.Equal(t, protocol.Position{Line: 1, Character: 7}, lines.position(16))
	assert.Equal(t, protocol.Position{Line: 2, Character: 4}, lines.position(22))
}

func TestAnalyze(t *testing.T) {
	ls := NewServer("test", nil)
	doc, err := ls.Analyze("file:///work/main.py", 4, []byte("def f(:\n    return 1\n"))
	require.NoError(t, err)

	assert.Equal(t, "file:///work/main.py", doc.URI)
	assert.Equal(t, int32(4), doc.Version)
	require.NotNil(t, doc.Ast)
	assert.Equal(t, "/work/main.py", doc.Ast.File)
	require.NotEmpty(t, doc.Diagnostics)

	diags := toProtocolDiagnostics(doc.lines, doc.Diagnostics)
	require.Len(t, diags, len(doc.Diagnostics))
	first := diags[0]
	assert.Equal(t, protocol.UInteger(0), first.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(6), first.Range.Start.Character)
	require.NotNil(t, first.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *first.Severity)
	require.NotNil(t, first.Source)
	assert.Equal(t, "pyfront", *first.Source)
	assert.Equal(t, "syntax", first.Code.Value)
}

func TestAnalyze_UsesConfig(t *testing.T) {
	src := []byte("print 'hi'\n")

	doc, err := NewServer("test", nil).Analyze("file:///a.py", 1, src)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Diagnostics)
	assert.Equal(t, "version", codeName(doc.Diagnostics[0].Code))

	cfg := config.Default()
	cfg.Version = "2.7"
	doc, err = NewServer("test", cfg).Analyze("file:///a.py", 1, src)
	require.NoError(t, err)
	assert.Empty(t, doc.Diagnostics)
}

func TestAnalyze_StubFile(t *testing.T) {
	cfg := config.Default()
	cfg.Version = "3.5"
	ls := NewServer("test", cfg)
	src := []byte("x: int\n")

	doc, err := ls.Analyze("file:///a.py", 1, src)
	require.NoError(t, err)
	assert.Len(t, doc.Diagnostics, 1)

	doc, err = ls.Analyze("file:///a.pyi", 1, src)
	require.NoError(t, err)
	assert.Empty(t, doc.Diagnostics)
}

func TestToProtocolDiagnostics_Severity(t *testing.T) {
	span := parser.Span{End: parser.Position{Offset: 1}}
	diags := toProtocolDiagnostics(newLineIndex([]byte("x"), nil), []parser.Diagnostic{
		{Message: "ignored", Span: span, Severity: parser.SeverityIgnore},
		{Message: "tabs", Span: span, Code: parser.ErrTab, Severity: parser.SeverityWarning},
		{Message: "indent", Span: span, Code: parser.ErrIndentation, Severity: parser.SeverityError},
	})
	require.Len(t, diags, 2)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diags[0].Severity)
	assert.Equal(t, "tab", diags[0].Code.Value)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[1].Severity)
	assert.Equal(t, "indentation", diags[1].Code.Value)
}

func TestDocumentSymbols(t *testing.T) {
	src := []byte(`class Shape:
    def area(self):
        return 0

    async def load(self):
        pass

def main():
    def helper():
        pass

if True:
    def conditional():
        pass
`)
	doc, err := NewServer("test", nil).Analyze("file:///s.py", 1, src)
	require.NoError(t, err)
	require.Empty(t, doc.Diagnostics)

	symbols := documentSymbols(doc.lines, doc.Ast.Root)
	require.Len(t, symbols, 3)

	shape := symbols[0]
	assert.Equal(t, "Shape", shape.Name)
	assert.Equal(t, protocol.SymbolKindClass, shape.Kind)
	assert.Equal(t, protocol.UInteger(0), shape.Range.Start.Line)
	require.Len(t, shape.Children, 2)
	assert.Equal(t, "area", shape.Children[0].Name)
	assert.Equal(t, protocol.SymbolKindMethod, shape.Children[0].Kind)
	assert.Equal(t, "load", shape.Children[1].Name)
	require.NotNil(t, shape.Children[1].Detail)
	assert.Equal(t, "async", *shape.Children[1].Detail)

	main := symbols[1]
	assert.Equal(t, "main", main.Name)
	assert.Equal(t, protocol.SymbolKindFunction, main.Kind)
	require.Len(t, main.Children, 1)
	assert.Equal(t, protocol.SymbolKindFunction, main.Children[0].Kind)

	assert.Equal(t, "conditional", symbols[2].Name)
	assert.Equal(t, protocol.UInteger(12), symbols[2].Range.Start.Line)
}

func TestURIToPath(t *testing.T) {
	path, err := uriToPath("file:///home/user/a%20b.py")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/a b.py", path)

	path, err = uriToPath("untitled:1")
	require.NoError(t, err)
	assert.Equal(t, "untitled:1", path)
}
